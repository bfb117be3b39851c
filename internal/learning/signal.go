// signal.go: converts one admin decision into a quantified learning signal
package learning

import (
	"math"

	"github.com/google/uuid"
	"github.com/sportea/modtune/internal/datastore"
)

// classifyOutcome compares an admin decision against the score and threshold
// that were in force when the item was flagged.
func classifyOutcome(signalType string, score, threshold float64) decisionOutcome {
	switch {
	case signalType == datastore.SignalTypeAdminApproval && score > threshold:
		// Admin approved content the score flagged as risky.
		return outcomeFalsePositive
	case signalType == datastore.SignalTypeAdminRejection && score < threshold:
		// Admin rejected content the score let through.
		return outcomeFalseNegative
	default:
		return outcomeConfirmedCorrect
	}
}

// signalTypeForDecision maps the admin decision verb to the stored signal type.
func signalTypeForDecision(decision string) string {
	if decision == DecisionApprove {
		return datastore.SignalTypeAdminApproval
	}
	return datastore.SignalTypeAdminRejection
}

// signalStrength quantifies how informative one decision is. Corrections get
// a floor of 0.7; confirmations are halved. Rounded to 4 decimal places.
func signalStrength(outcome decisionOutcome, score, threshold float64) float64 {
	distance := math.Abs(score - threshold)
	strength := math.Min(1.0, distance*2)

	switch outcome {
	case outcomeFalsePositive, outcomeFalseNegative:
		strength = math.Max(0.7, strength)
	default:
		strength *= 0.5
	}

	return math.Round(strength*10000) / 10000
}

// signalConfidence starts at 0.8 and rises when the admin left substantive
// notes, capped at 1.0.
func signalConfidence(adminNotes string) float64 {
	confidence := 0.8
	if len(adminNotes) > 20 {
		confidence += 0.1
	}
	return math.Min(1.0, confidence)
}

// buildSignal constructs the signal row for one feedback event. The row is
// not persisted here; the engine saves it as the first pipeline step.
func buildSignal(fb *Feedback, outcome decisionOutcome) *datastore.LearningSignal {
	signalType := signalTypeForDecision(fb.AdminDecision)

	return &datastore.LearningSignal{
		ReferenceID:        uuid.NewString(),
		ModerationResultID: fb.ModerationResultID,
		QueueItemID:        fb.QueueItemID,
		SignalType:         signalType,
		SignalStrength:     signalStrength(outcome, fb.OriginalScore, fb.OriginalThreshold),
		ConfidenceLevel:    signalConfidence(fb.AdminNotes),
		OriginalScore:      fb.OriginalScore,
		OriginalThreshold:  fb.OriginalThreshold,
		ContextID:          fb.ContextID,
		UserPatternID:      fb.UserPatternID,
		AdminNotes:         fb.AdminNotes,
	}
}
