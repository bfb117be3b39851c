// Package seed implements the seed command which provisions the default
// threshold contexts and learning parameters.
package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sportea/modtune/internal/conf"
	"github.com/sportea/modtune/internal/datastore"
	"github.com/sportea/modtune/internal/learning"
	"github.com/sportea/modtune/internal/logging"
)

// Command returns the seed subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Provision default threshold contexts and learning parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	logging.Init()
	logger := logging.ForService("seed")

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close datastore", "error", err)
		}
	}()

	for _, tc := range defaultContexts(settings) {
		if err := store.SaveThresholdContext(&tc); err != nil {
			return fmt.Errorf("failed to seed context %s/%s: %w", tc.ContextType, tc.ContextIdentifier, err)
		}
		logger.Info("seeded context",
			"context_type", tc.ContextType,
			"context_identifier", tc.ContextIdentifier)
	}

	for _, param := range defaultParameters(settings) {
		if err := store.SaveLearningParameter(&param); err != nil {
			return fmt.Errorf("failed to seed parameter %s: %w", param.ParameterName, err)
		}
		logger.Info("seeded parameter",
			"parameter_name", param.ParameterName,
			"parameter_value", param.ParameterValue)
	}

	logger.Info("seeding complete")
	return nil
}

// defaultContexts returns the initial context buckets, one per derivable
// identifier, all starting from the configured default triple.
func defaultContexts(settings *conf.Settings) []datastore.ThresholdContext {
	high := settings.Moderation.HighRiskThreshold
	medium := settings.Moderation.MediumRiskThreshold
	low := settings.Moderation.LowRiskThreshold
	if high == 0 {
		high = conf.DefaultHighRiskThreshold
	}
	if medium == 0 {
		medium = conf.DefaultMediumRiskThreshold
	}
	if low == 0 {
		low = conf.DefaultLowRiskThreshold
	}

	buckets := []struct {
		contextType string
		identifier  string
	}{
		{datastore.ContextTypeUserReputation, learning.ReputationNewUser},
		{datastore.ContextTypeUserReputation, learning.ReputationRegularUser},
		{datastore.ContextTypeUserReputation, learning.ReputationExperiencedUser},
		{datastore.ContextTypeTimePeriod, learning.TimePeriodPeakHours},
		{datastore.ContextTypeTimePeriod, learning.TimePeriodDayHours},
		{datastore.ContextTypeTimePeriod, learning.TimePeriodOffHours},
		{datastore.ContextTypeLanguageMix, learning.DefaultLanguageMix},
	}

	contexts := make([]datastore.ThresholdContext, 0, len(buckets))
	for _, b := range buckets {
		contexts = append(contexts, datastore.ThresholdContext{
			ContextType:         b.contextType,
			ContextIdentifier:   b.identifier,
			HighRiskThreshold:   high,
			MediumRiskThreshold: medium,
			LowRiskThreshold:    low,
			LearningEnabled:     true,
		})
	}
	return contexts
}

// defaultParameters returns the initial learning parameter rows.
func defaultParameters(settings *conf.Settings) []datastore.LearningParameter {
	params := learning.DefaultParams(settings)
	return []datastore.LearningParameter{
		{
			ParameterName:  learning.ParamLearningRate,
			ParameterValue: params.LearningRate,
			Description:    "Global learning rate applied to signal strength",
		},
		{
			ParameterName:  learning.ParamExplorationRate,
			ParameterValue: params.ExplorationRate,
			Description:    "Probability of amplified exploration adjustments",
		},
		{
			ParameterName:  learning.ParamMaxAdjustmentPerCycle,
			ParameterValue: params.MaxAdjustmentPerCycle,
			Description:    "Cap on a single threshold adjustment magnitude",
		},
		{
			ParameterName:  learning.ParamMinSignals,
			ParameterValue: 3,
			Description:    "Minimum signals before an automated batch adjustment",
		},
	}
}
