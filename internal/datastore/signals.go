// signals.go: database operations for learning feedback signals
package datastore

import (
	"time"

	"github.com/sportea/modtune/internal/errors"
	"gorm.io/gorm"
)

// SaveLearningSignal persists a newly built signal row.
func (ds *DataStore) SaveLearningSignal(signal *LearningSignal) error {
	start := time.Now()
	if signal == nil {
		return validationError("signal cannot be nil", "signal", nil)
	}
	if signal.SignalType != SignalTypeAdminApproval && signal.SignalType != SignalTypeAdminRejection {
		return validationError("unknown signal type", "signal_type", signal.SignalType)
	}

	err := ds.DB.Create(signal).Error
	ds.recordOp("save_learning_signal", start, err)
	if err != nil {
		return dbError(err, "save_learning_signal", errors.PriorityHigh,
			"signal_type", signal.SignalType,
			"moderation_result_id", signal.ModerationResultID,
			"table", "learning_feedback_signals")
	}

	return nil
}

// GetLearningSignal retrieves a signal by primary key.
func (ds *DataStore) GetLearningSignal(id uint) (*LearningSignal, error) {
	start := time.Now()
	var signal LearningSignal
	err := ds.DB.First(&signal, id).Error
	ds.recordOp("get_learning_signal", start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("learning signal", "")
		}
		return nil, dbError(err, "get_learning_signal", errors.PriorityMedium,
			"signal_id", id)
	}
	return &signal, nil
}
