// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Default learning parameters. The learning_parameters table overrides these
// at engine construction; they are the values of last resort.
const (
	DefaultLearningRate          = 0.1
	DefaultExplorationRate       = 0.2
	DefaultMaxAdjustmentPerCycle = 0.05
)

// Default global risk thresholds, used when neither a context row nor the
// moderation settings row is available.
const (
	DefaultHighRiskThreshold   = 0.8
	DefaultMediumRiskThreshold = 0.5
	DefaultLowRiskThreshold    = 0.2
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "modtune")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "modtune.log")

	viper.SetDefault("learning.enabled", true)
	viper.SetDefault("learning.debug", false)
	viper.SetDefault("learning.learningrate", DefaultLearningRate)
	viper.SetDefault("learning.explorationrate", DefaultExplorationRate)
	viper.SetDefault("learning.maxadjustmentpercycle", DefaultMaxAdjustmentPerCycle)
	viper.SetDefault("learning.enforcetierorder", false)
	viper.SetDefault("learning.cachettlseconds", 30)

	viper.SetDefault("moderation.highriskthreshold", DefaultHighRiskThreshold)
	viper.SetDefault("moderation.mediumriskthreshold", DefaultMediumRiskThreshold)
	viper.SetDefault("moderation.lowriskthreshold", DefaultLowRiskThreshold)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "modtune.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "modtune")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "modtune")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8090")
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.feedbackratelimit", 5.0)
	viper.SetDefault("webserver.feedbackrateburst", 10)
	viper.SetDefault("webserver.logpath", "api.log")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")
}
