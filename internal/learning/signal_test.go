package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportea/modtune/internal/datastore"
)

func TestClassifyOutcome(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		signalType string
		score      float64
		threshold  float64
		want       decisionOutcome
	}{
		{"approval of flagged item is false positive", datastore.SignalTypeAdminApproval, 0.85, 0.80, outcomeFalsePositive},
		{"rejection of passed item is false negative", datastore.SignalTypeAdminRejection, 0.72, 0.80, outcomeFalseNegative},
		{"approval of passed item confirms the score", datastore.SignalTypeAdminApproval, 0.30, 0.80, outcomeConfirmedCorrect},
		{"rejection of flagged item confirms the score", datastore.SignalTypeAdminRejection, 0.90, 0.50, outcomeConfirmedCorrect},
		{"score equal to threshold confirms", datastore.SignalTypeAdminApproval, 0.80, 0.80, outcomeConfirmedCorrect},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, classifyOutcome(tt.signalType, tt.score, tt.threshold))
		})
	}
}

func TestSignalStrength(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		outcome   decisionOutcome
		score     float64
		threshold float64
		want      float64
	}{
		{"small correction floors at 0.7", outcomeFalsePositive, 0.85, 0.80, 0.7},
		{"large correction keeps its own strength", outcomeFalseNegative, 0.30, 0.80, 1.0},
		{"correction between floor and cap", outcomeFalsePositive, 0.80, 0.40, 0.8},
		{"confirmation is halved", outcomeConfirmedCorrect, 0.90, 0.50, 0.4},
		{"zero distance confirmation", outcomeConfirmedCorrect, 0.50, 0.50, 0.0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, signalStrength(tt.outcome, tt.score, tt.threshold), 1e-9)
		})
	}
}

func TestSignalStrengthRounding(t *testing.T) {
	t.Parallel()
	// 2 * |0.33333 - 0.5| = 0.33334, halved to 0.16667
	got := signalStrength(outcomeConfirmedCorrect, 0.33333, 0.5)
	assert.InDelta(t, 0.1667, got, 1e-9)
}

func TestSignalConfidence(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.8, signalConfidence(""), 1e-9)
	assert.InDelta(t, 0.8, signalConfidence("looks fine"), 1e-9)
	assert.InDelta(t, 0.9, signalConfidence("detailed explanation of the decision"), 1e-9)
}

func TestBuildSignal(t *testing.T) {
	t.Parallel()
	contextID := uint(3)
	fb := &Feedback{
		ModerationResultID: "mod-9",
		QueueItemID:        "queue-4",
		AdminDecision:      DecisionApprove,
		OriginalScore:      0.85,
		OriginalThreshold:  0.80,
		ContextID:          &contextID,
		AdminNotes:         "clearly a harmless match announcement",
	}

	signal := buildSignal(fb, outcomeFalsePositive)
	require.NotNil(t, signal)
	assert.Equal(t, datastore.SignalTypeAdminApproval, signal.SignalType)
	assert.Equal(t, "mod-9", signal.ModerationResultID)
	assert.Equal(t, "queue-4", signal.QueueItemID)
	assert.InDelta(t, 0.7, signal.SignalStrength, 1e-9)
	assert.InDelta(t, 0.9, signal.ConfidenceLevel, 1e-9)
	assert.Equal(t, &contextID, signal.ContextID)
	assert.NotEmpty(t, signal.ReferenceID)
	assert.False(t, signal.Processed)
}
