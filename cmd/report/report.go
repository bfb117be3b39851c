// Package report implements the report command which prints the learning
// performance summary.
package report

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sportea/modtune/internal/conf"
	"github.com/sportea/modtune/internal/datastore"
	"github.com/sportea/modtune/internal/learning"
	"github.com/sportea/modtune/internal/logging"
)

// Command returns the report subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the adjustment performance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON instead of YAML")
	return cmd
}

func run(settings *conf.Settings, asJSON bool) error {
	logging.Init()
	logger := logging.ForService("report")

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

	engine := learning.New(store, settings)
	report := engine.GetPerformanceMetrics()

	if asJSON {
		return writeJSON(report)
	}

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	defer func() {
		if err := encoder.Close(); err != nil {
			logger.Error("failed to flush report", "error", err)
		}
	}()
	return encoder.Encode(report)
}
