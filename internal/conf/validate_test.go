package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Learning.Enabled = true
	s.Learning.LearningRate = DefaultLearningRate
	s.Learning.ExplorationRate = DefaultExplorationRate
	s.Learning.MaxAdjustmentPerCycle = DefaultMaxAdjustmentPerCycle
	s.Learning.CacheTTLSeconds = 30
	s.Moderation.HighRiskThreshold = DefaultHighRiskThreshold
	s.Moderation.MediumRiskThreshold = DefaultMediumRiskThreshold
	s.Moderation.LowRiskThreshold = DefaultLowRiskThreshold
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "modtune.db"
	s.WebServer.Enabled = true
	s.WebServer.Port = "8090"
	s.WebServer.FeedbackRateLimit = 5
	s.WebServer.FeedbackRateBurst = 10
	return s
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejectsBadLearningRate(t *testing.T) {
	t.Parallel()

	for _, rate := range []float64{0, -0.1, 1.5} {
		s := validSettings()
		s.Learning.LearningRate = rate
		assert.Error(t, ValidateSettings(s), "learning rate %v should be rejected", rate)
	}
}

func TestValidateSettingsRejectsNoDatabase(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Output.SQLite.Enabled = false
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsDualDatabase(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Output.MySQL.Enabled = true
	s.Output.MySQL.Host = "localhost"
	s.Output.MySQL.Database = "modtune"
	s.Output.MySQL.Username = "modtune"
	s.Output.MySQL.Port = "3306"
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsBadPort(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.WebServer.Port = "notaport"
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsIgnoresDisabledWebServer(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.WebServer.Enabled = false
	s.WebServer.Port = "notaport"
	assert.NoError(t, ValidateSettings(s))
}
