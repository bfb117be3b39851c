// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateLearningSettings(&settings.Learning); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateModerationSettings(&settings.Moderation); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLearningSettings(s *LearningSettings) error {
	if s.LearningRate <= 0 || s.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %v", s.LearningRate)
	}
	if s.ExplorationRate < 0 || s.ExplorationRate > 1 {
		return fmt.Errorf("exploration rate must be in [0, 1], got %v", s.ExplorationRate)
	}
	if s.MaxAdjustmentPerCycle <= 0 || s.MaxAdjustmentPerCycle > 0.5 {
		return fmt.Errorf("max adjustment per cycle must be in (0, 0.5], got %v", s.MaxAdjustmentPerCycle)
	}
	if s.CacheTTLSeconds < 0 {
		return fmt.Errorf("cache TTL must not be negative, got %d", s.CacheTTLSeconds)
	}
	return nil
}

func validateModerationSettings(s *ModerationSettings) error {
	for name, v := range map[string]float64{
		"high risk":   s.HighRiskThreshold,
		"medium risk": s.MediumRiskThreshold,
		"low risk":    s.LowRiskThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s threshold must be in [0, 1], got %v", name, v)
		}
	}
	return nil
}

func validateOutputSettings(s *OutputSettings) error {
	if !s.SQLite.Enabled && !s.MySQL.Enabled {
		return fmt.Errorf("no database output enabled, enable sqlite or mysql")
	}
	if s.SQLite.Enabled && s.MySQL.Enabled {
		return fmt.Errorf("only one database output may be enabled at a time")
	}
	if s.SQLite.Enabled && s.SQLite.Path == "" {
		return fmt.Errorf("sqlite output enabled but path is empty")
	}
	if s.MySQL.Enabled {
		if s.MySQL.Host == "" || s.MySQL.Database == "" || s.MySQL.Username == "" {
			return fmt.Errorf("mysql output enabled but host, database or username is empty")
		}
		if _, err := strconv.Atoi(s.MySQL.Port); err != nil {
			return fmt.Errorf("invalid mysql port: %s", s.MySQL.Port)
		}
	}
	return nil
}

func validateWebServerSettings(s *WebServerSettings) error {
	if !s.Enabled {
		return nil
	}
	port, err := strconv.Atoi(s.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid web server port: %s", s.Port)
	}
	if s.FeedbackRateLimit <= 0 {
		return fmt.Errorf("feedback rate limit must be positive, got %v", s.FeedbackRateLimit)
	}
	if s.FeedbackRateBurst < 1 {
		return fmt.Errorf("feedback rate burst must be at least 1, got %d", s.FeedbackRateBurst)
	}
	return nil
}
