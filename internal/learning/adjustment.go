// adjustment.go: turns a learning signal into a proposed threshold delta
package learning

import (
	"fmt"
	"math"

	"github.com/sportea/modtune/internal/datastore"
)

// minAdjustmentMagnitude is the no-op floor: anything smaller is not worth
// a history row.
const minAdjustmentMagnitude = 0.001

// explorationMultiplier amplifies an adjustment when the exploration draw
// fires, trading short-term accuracy for long-run threshold discovery.
const explorationMultiplier = 1.5

// adjustmentProposal is one computed, clamped threshold delta awaiting
// transactional application.
type adjustmentProposal struct {
	thresholdType string
	magnitude     float64 // signed, clamped to the per-cycle cap
	explored      bool
}

// computeAdjustment derives the signed adjustment a signal proposes, or nil
// when the clamped magnitude falls below the no-op floor. The rng draw in
// [0,1) decides whether the exploration multiplier applies.
func computeAdjustment(signal *datastore.LearningSignal, outcome decisionOutcome, params Params, rng func() float64) *adjustmentProposal {
	direction := 0.0
	strength := signal.SignalStrength

	switch outcome {
	case outcomeFalsePositive:
		// Score flagged content an admin approved: raise the threshold,
		// be less aggressive.
		direction = 1.0
	case outcomeFalseNegative:
		// Score passed content an admin rejected: lower the threshold,
		// be stricter.
		direction = -1.0
	default:
		// Admin confirmed the call. Nudge gently in the confirming
		// direction with a further dampened strength.
		if signal.SignalType == datastore.SignalTypeAdminApproval {
			direction = -0.1
		} else {
			direction = 0.1
		}
		strength *= 0.5
	}

	explorationFactor := 1.0
	explored := false
	if rng() < params.ExplorationRate {
		explorationFactor = explorationMultiplier
		explored = true
	}

	magnitude := params.LearningRate * strength * explorationFactor
	signed := direction * magnitude

	clamped := math.Max(-params.MaxAdjustmentPerCycle, math.Min(params.MaxAdjustmentPerCycle, signed))
	if math.Abs(clamped) < minAdjustmentMagnitude {
		return nil
	}

	return &adjustmentProposal{
		thresholdType: tierForScore(signal.OriginalScore),
		magnitude:     clamped,
		explored:      explored,
	}
}

// adjustmentReason renders the human-readable audit reason for a signal's
// adjustment.
func adjustmentReason(signalType string, magnitude float64) string {
	indication := "false negative"
	if signalType == datastore.SignalTypeAdminApproval {
		indication = "false positive"
	}
	movement := "decrease"
	if magnitude > 0 {
		movement = "increase"
	}
	return fmt.Sprintf("Admin feedback indicates %s, %s threshold to improve accuracy", indication, movement)
}
