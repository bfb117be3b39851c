// bounds.go: per-tier safety bounds and tier selection
package learning

import "github.com/sportea/modtune/internal/datastore"

// Safety bounds per risk tier. Hard invariants; no learned adjustment may
// push a threshold outside its tier's range.
const (
	HighRiskMin   = 0.70
	HighRiskMax   = 0.95
	MediumRiskMin = 0.30
	MediumRiskMax = 0.80
	LowRiskMin    = 0.05
	LowRiskMax    = 0.50
)

// Static fallback triple served when storage is unavailable during lookup.
const (
	FallbackHighRisk   = 0.8
	FallbackMediumRisk = 0.5
	FallbackLowRisk    = 0.2
)

// tierBounds returns the inclusive safe range for a threshold tier.
func tierBounds(thresholdType string) (minBound, maxBound float64) {
	switch thresholdType {
	case datastore.ThresholdTypeHighRisk:
		return HighRiskMin, HighRiskMax
	case datastore.ThresholdTypeMediumRisk:
		return MediumRiskMin, MediumRiskMax
	default:
		return LowRiskMin, LowRiskMax
	}
}

// tierForScore picks the threshold tier to adjust from the original score
// alone, independent of which tier fired the moderation decision.
func tierForScore(score float64) string {
	switch {
	case score >= 0.7:
		return datastore.ThresholdTypeHighRisk
	case score >= 0.4:
		return datastore.ThresholdTypeMediumRisk
	default:
		return datastore.ThresholdTypeLowRisk
	}
}
