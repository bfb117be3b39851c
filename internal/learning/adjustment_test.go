package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportea/modtune/internal/datastore"
)

func testParams() Params {
	return Params{
		LearningRate:          0.1,
		ExplorationRate:       0,
		MaxAdjustmentPerCycle: 0.05,
	}
}

func TestComputeAdjustmentFalsePositive(t *testing.T) {
	t.Parallel()
	signal := &datastore.LearningSignal{
		SignalType:     datastore.SignalTypeAdminApproval,
		SignalStrength: 0.7,
		OriginalScore:  0.85,
	}

	proposal := computeAdjustment(signal, outcomeFalsePositive, testParams(), neverExplore)
	require.NotNil(t, proposal)
	assert.Equal(t, datastore.ThresholdTypeHighRisk, proposal.thresholdType)
	// 0.1 * 0.7 = 0.07, clamped to the 0.05 per-cycle cap
	assert.InDelta(t, 0.05, proposal.magnitude, 1e-9)
	assert.False(t, proposal.explored)
}

func TestComputeAdjustmentFalseNegative(t *testing.T) {
	t.Parallel()
	signal := &datastore.LearningSignal{
		SignalType:     datastore.SignalTypeAdminRejection,
		SignalStrength: 0.7,
		OriginalScore:  0.45,
	}

	proposal := computeAdjustment(signal, outcomeFalseNegative, testParams(), neverExplore)
	require.NotNil(t, proposal)
	assert.Equal(t, datastore.ThresholdTypeMediumRisk, proposal.thresholdType)
	assert.InDelta(t, -0.05, proposal.magnitude, 1e-9)
}

func TestComputeAdjustmentConfirmedReinforcement(t *testing.T) {
	t.Parallel()
	// Confirmation strength 0.4, dampened again to 0.2:
	// 0.1 direction * (0.1 * 0.2) = 0.002, above the floor but tiny.
	signal := &datastore.LearningSignal{
		SignalType:     datastore.SignalTypeAdminRejection,
		SignalStrength: 0.4,
		OriginalScore:  0.9,
	}

	proposal := computeAdjustment(signal, outcomeConfirmedCorrect, testParams(), neverExplore)
	require.NotNil(t, proposal)
	assert.InDelta(t, 0.002, proposal.magnitude, 1e-9)

	// Approvals reinforce in the opposite direction.
	signal.SignalType = datastore.SignalTypeAdminApproval
	proposal = computeAdjustment(signal, outcomeConfirmedCorrect, testParams(), neverExplore)
	require.NotNil(t, proposal)
	assert.InDelta(t, -0.002, proposal.magnitude, 1e-9)
}

func TestComputeAdjustmentBelowFloorIsNil(t *testing.T) {
	t.Parallel()
	signal := &datastore.LearningSignal{
		SignalType:     datastore.SignalTypeAdminRejection,
		SignalStrength: 0.05,
		OriginalScore:  0.55,
	}

	proposal := computeAdjustment(signal, outcomeConfirmedCorrect, testParams(), neverExplore)
	assert.Nil(t, proposal)
}

func TestComputeAdjustmentExplorationAmplifies(t *testing.T) {
	t.Parallel()
	signal := &datastore.LearningSignal{
		SignalType:     datastore.SignalTypeAdminApproval,
		SignalStrength: 0.7,
		OriginalScore:  0.85,
	}
	params := Params{
		LearningRate:          0.02,
		ExplorationRate:       0.2,
		MaxAdjustmentPerCycle: 0.05,
	}

	// Draw under the exploration rate amplifies by 1.5.
	explored := computeAdjustment(signal, outcomeFalsePositive, params, func() float64 { return 0.1 })
	require.NotNil(t, explored)
	assert.True(t, explored.explored)
	assert.InDelta(t, 0.021, explored.magnitude, 1e-9)

	// Draw at or above the rate leaves the magnitude alone.
	plain := computeAdjustment(signal, outcomeFalsePositive, params, func() float64 { return 0.2 })
	require.NotNil(t, plain)
	assert.False(t, plain.explored)
	assert.InDelta(t, 0.014, plain.magnitude, 1e-9)
}

func TestTierForScore(t *testing.T) {
	t.Parallel()
	assert.Equal(t, datastore.ThresholdTypeHighRisk, tierForScore(0.95))
	assert.Equal(t, datastore.ThresholdTypeHighRisk, tierForScore(0.7))
	assert.Equal(t, datastore.ThresholdTypeMediumRisk, tierForScore(0.69))
	assert.Equal(t, datastore.ThresholdTypeMediumRisk, tierForScore(0.4))
	assert.Equal(t, datastore.ThresholdTypeLowRisk, tierForScore(0.39))
	assert.Equal(t, datastore.ThresholdTypeLowRisk, tierForScore(0.0))
}

func TestTierBounds(t *testing.T) {
	t.Parallel()
	minBound, maxBound := tierBounds(datastore.ThresholdTypeHighRisk)
	assert.InDelta(t, 0.70, minBound, 1e-9)
	assert.InDelta(t, 0.95, maxBound, 1e-9)

	minBound, maxBound = tierBounds(datastore.ThresholdTypeMediumRisk)
	assert.InDelta(t, 0.30, minBound, 1e-9)
	assert.InDelta(t, 0.80, maxBound, 1e-9)

	minBound, maxBound = tierBounds(datastore.ThresholdTypeLowRisk)
	assert.InDelta(t, 0.05, minBound, 1e-9)
	assert.InDelta(t, 0.50, maxBound, 1e-9)
}

func TestAdjustmentReason(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"Admin feedback indicates false positive, increase threshold to improve accuracy",
		adjustmentReason(datastore.SignalTypeAdminApproval, 0.05))
	assert.Equal(t,
		"Admin feedback indicates false negative, decrease threshold to improve accuracy",
		adjustmentReason(datastore.SignalTypeAdminRejection, -0.05))
}
