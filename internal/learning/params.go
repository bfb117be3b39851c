// params.go: learning parameters and their resolution order
package learning

import (
	"github.com/sportea/modtune/internal/conf"
	"github.com/sportea/modtune/internal/datastore"
)

// Stored parameter names in the learning_parameters table.
const (
	ParamLearningRate          = "global_learning_rate"
	ParamExplorationRate       = "exploration_rate"
	ParamMaxAdjustmentPerCycle = "max_adjustment_per_cycle"
	ParamMinSignals            = "min_signals_for_adjustment"
)

// Params carries the tunables the adjustment calculator needs. It is built
// once per engine and passed explicitly rather than looked up per call.
type Params struct {
	LearningRate          float64
	ExplorationRate       float64
	MaxAdjustmentPerCycle float64
}

// DefaultParams returns parameters from configuration, substituting compiled
// defaults for unset values.
func DefaultParams(settings *conf.Settings) Params {
	p := Params{
		LearningRate:          conf.DefaultLearningRate,
		ExplorationRate:       conf.DefaultExplorationRate,
		MaxAdjustmentPerCycle: conf.DefaultMaxAdjustmentPerCycle,
	}
	if settings == nil {
		return p
	}
	if settings.Learning.LearningRate > 0 {
		p.LearningRate = settings.Learning.LearningRate
	}
	if settings.Learning.ExplorationRate >= 0 {
		p.ExplorationRate = settings.Learning.ExplorationRate
	}
	if settings.Learning.MaxAdjustmentPerCycle > 0 {
		p.MaxAdjustmentPerCycle = settings.Learning.MaxAdjustmentPerCycle
	}
	return p
}

// LoadParams resolves parameters from the learning_parameters table, falling
// back per parameter to the configured defaults. Store errors are absorbed;
// a missing or unreadable parameter never blocks the engine.
func LoadParams(ds datastore.Interface, settings *conf.Settings) Params {
	p := DefaultParams(settings)
	if ds == nil {
		return p
	}

	if v, err := ds.GetLearningParameter(ParamLearningRate); err == nil && v > 0 {
		p.LearningRate = v
	}
	if v, err := ds.GetLearningParameter(ParamExplorationRate); err == nil && v >= 0 {
		p.ExplorationRate = v
	}
	if v, err := ds.GetLearningParameter(ParamMaxAdjustmentPerCycle); err == nil && v > 0 {
		p.MaxAdjustmentPerCycle = v
	}
	return p
}
