package report

import (
	"encoding/json"
	"os"

	"github.com/sportea/modtune/internal/learning"
)

// writeJSON emits the report to stdout as indented JSON.
func writeJSON(report *learning.PerformanceMetrics) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
