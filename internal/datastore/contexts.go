// contexts.go: database operations for threshold contexts and the
// transactional application of threshold adjustments.
package datastore

import (
	"time"

	"github.com/sportea/modtune/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetThresholdContext retrieves a learning-enabled context row by type and
// identifier. Returns ErrContextNotFound when no enabled row exists.
func (ds *DataStore) GetThresholdContext(contextType, identifier string) (*ThresholdContext, error) {
	start := time.Now()
	if contextType == "" || identifier == "" {
		return nil, validationError("context type and identifier cannot be empty", "context", contextType+"/"+identifier)
	}

	var tc ThresholdContext
	err := ds.DB.Where("context_type = ? AND context_identifier = ? AND learning_enabled = ?",
		contextType, identifier, true).First(&tc).Error
	ds.recordOp("get_threshold_context", start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContextNotFound
		}
		return nil, dbError(err, "get_threshold_context", errors.PriorityMedium,
			"context_type", contextType,
			"context_identifier", identifier)
	}

	return &tc, nil
}

// GetThresholdContextByID retrieves a context row by primary key regardless of
// its learning_enabled flag.
func (ds *DataStore) GetThresholdContextByID(id uint) (*ThresholdContext, error) {
	start := time.Now()
	var tc ThresholdContext
	err := ds.DB.First(&tc, id).Error
	ds.recordOp("get_threshold_context_by_id", start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContextNotFound
		}
		return nil, dbError(err, "get_threshold_context_by_id", errors.PriorityMedium,
			"context_id", id)
	}
	return &tc, nil
}

// GetAllThresholdContexts returns every context row ordered by type and
// identifier, for the admin listing surface.
func (ds *DataStore) GetAllThresholdContexts() ([]ThresholdContext, error) {
	start := time.Now()
	var contexts []ThresholdContext
	err := ds.DB.Order("context_type ASC, context_identifier ASC").Find(&contexts).Error
	ds.recordOp("get_all_threshold_contexts", start, err)
	if err != nil {
		return nil, dbError(err, "get_all_threshold_contexts", errors.PriorityMedium,
			"table", "threshold_contexts")
	}
	return contexts, nil
}

// SaveThresholdContext creates or updates a context row. Used by seeding, not
// by the adjustment pipeline.
func (ds *DataStore) SaveThresholdContext(tc *ThresholdContext) error {
	start := time.Now()
	if tc == nil {
		return validationError("context cannot be nil", "context", nil)
	}
	if tc.ContextType == "" || tc.ContextIdentifier == "" {
		return validationError("context type and identifier cannot be empty", "context", tc.ContextType+"/"+tc.ContextIdentifier)
	}

	now := time.Now()
	tc.UpdatedAt = now

	// Assign with a map, not the struct: gorm's struct-based updates skip
	// zero values, which would make learning_enabled=false unwritable.
	result := ds.DB.Where("context_type = ? AND context_identifier = ?", tc.ContextType, tc.ContextIdentifier).
		Attrs(ThresholdContext{CreatedAt: now}).
		Assign(map[string]any{
			"high_risk_threshold":   tc.HighRiskThreshold,
			"medium_risk_threshold": tc.MediumRiskThreshold,
			"low_risk_threshold":    tc.LowRiskThreshold,
			"learning_enabled":      tc.LearningEnabled,
			"updated_at":            now,
		}).
		FirstOrCreate(tc)
	ds.recordOp("save_threshold_context", start, result.Error)
	if result.Error != nil {
		return dbError(result.Error, "save_threshold_context", errors.PriorityMedium,
			"context_type", tc.ContextType,
			"context_identifier", tc.ContextIdentifier,
			"table", "threshold_contexts")
	}

	return nil
}

// clampBounds constrains v to [minBound, maxBound].
func clampBounds(v, minBound, maxBound float64) float64 {
	if v < minBound {
		return minBound
	}
	if v > maxBound {
		return maxBound
	}
	return v
}

// ApplyThresholdAdjustment performs the bounded read-modify-write of one
// threshold tier as a single transaction: clamp the new value into the tier's
// safe range, bump the context row under an optimistic version check, append
// the audit history row and mark the originating signal processed.
//
// A missing context row or an already-processed signal aborts the whole
// transaction; nothing is partially applied.
func (ds *DataStore) ApplyThresholdAdjustment(req *AdjustmentRequest) (*AdjustmentResult, error) {
	start := time.Now()
	if req == nil {
		return nil, validationError("adjustment request cannot be nil", "request", nil)
	}
	column, err := tierColumn(req.ThresholdType)
	if err != nil {
		return nil, err
	}

	var result AdjustmentResult

	txErr := ds.DB.Transaction(func(tx *gorm.DB) error {
		// Claim the signal first so a replay cannot double-apply. The row
		// lock only bites on MySQL; SQLite ignores the clause and
		// serializes writers on its own.
		var signal LearningSignal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&signal, req.SignalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("learning signal", "")
			}
			return err
		}
		if signal.Processed {
			return ErrSignalAlreadyProcessed
		}

		var tc ThresholdContext
		if err := tx.First(&tc, req.ContextID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContextNotFound
			}
			return err
		}

		currentValue, err := tierValue(&tc, req.ThresholdType)
		if err != nil {
			return err
		}
		newValue := clampBounds(currentValue+req.Magnitude, req.MinBound, req.MaxBound)

		if req.EnforceTierOrder {
			if violatesTierOrder(&tc, req.ThresholdType, newValue) {
				return ErrTierOrderViolation
			}
		}

		now := time.Now()

		// Optimistic compare-and-swap on the version column. The row was read
		// inside this transaction, so a zero rows-affected result means a
		// concurrent writer got there first.
		update := tx.Model(&ThresholdContext{}).
			Where("id = ? AND version = ?", tc.ID, tc.Version).
			Updates(map[string]any{
				column:       newValue,
				"version":    tc.Version + 1,
				"updated_at": now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		history := ThresholdAdjustment{
			ContextType:      tc.ContextType,
			ContextValue:     tc.ContextIdentifier,
			ThresholdType:    req.ThresholdType,
			OldValue:         currentValue,
			NewValue:         newValue,
			AdjustmentReason: req.Reason,
			ConfidenceScore:  req.Confidence,
			AlgorithmVersion: req.AlgorithmVersion,
			CreatedAt:        now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		applied := newValue - currentValue
		if err := tx.Model(&LearningSignal{}).
			Where("id = ?", signal.ID).
			Updates(map[string]any{
				"processed":                    true,
				"processing_time":              now,
				"threshold_adjustment_applied": applied,
			}).Error; err != nil {
			return err
		}

		updated := tc
		updated.Version = tc.Version + 1
		updated.UpdatedAt = now
		switch req.ThresholdType {
		case ThresholdTypeHighRisk:
			updated.HighRiskThreshold = newValue
		case ThresholdTypeMediumRisk:
			updated.MediumRiskThreshold = newValue
		case ThresholdTypeLowRisk:
			updated.LowRiskThreshold = newValue
		}

		result = AdjustmentResult{
			OldValue:   currentValue,
			NewValue:   newValue,
			Context:    &updated,
			Adjustment: &history,
		}
		return nil
	})
	ds.recordOp("apply_threshold_adjustment", start, txErr)

	if txErr != nil {
		switch {
		case errors.Is(txErr, ErrContextNotFound),
			errors.Is(txErr, ErrSignalAlreadyProcessed),
			errors.Is(txErr, ErrTierOrderViolation),
			errors.Is(txErr, ErrConcurrentUpdate):
			return nil, txErr
		}
		return nil, dbError(txErr, "apply_threshold_adjustment", errors.PriorityHigh,
			"context_id", req.ContextID,
			"threshold_type", req.ThresholdType,
			"signal_id", req.SignalID)
	}

	getLogger().Info("applied threshold adjustment",
		"context_type", result.Context.ContextType,
		"context_identifier", result.Context.ContextIdentifier,
		"threshold_type", req.ThresholdType,
		"old_value", result.OldValue,
		"new_value", result.NewValue)

	return &result, nil
}

// violatesTierOrder reports whether setting thresholdType to newValue would
// invert low <= medium <= high on the given context.
func violatesTierOrder(tc *ThresholdContext, thresholdType string, newValue float64) bool {
	high, medium, low := tc.HighRiskThreshold, tc.MediumRiskThreshold, tc.LowRiskThreshold
	switch thresholdType {
	case ThresholdTypeHighRisk:
		high = newValue
	case ThresholdTypeMediumRisk:
		medium = newValue
	case ThresholdTypeLowRisk:
		low = newValue
	}
	return low > medium || medium > high
}
