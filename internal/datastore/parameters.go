// parameters.go: database operations for global learning parameters
package datastore

import (
	"time"

	"github.com/sportea/modtune/internal/errors"
	"gorm.io/gorm"
)

// GetLearningParameter returns the stored value for a named parameter.
// Returns a not-found error when the parameter is absent; callers fall back
// to their configured default.
func (ds *DataStore) GetLearningParameter(name string) (float64, error) {
	start := time.Now()
	if name == "" {
		return 0, validationError("parameter name cannot be empty", "parameter_name", "")
	}

	var param LearningParameter
	err := ds.DB.Where("parameter_name = ?", name).First(&param).Error
	ds.recordOp("get_learning_parameter", start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, notFoundError("learning parameter", name)
		}
		return 0, dbError(err, "get_learning_parameter", errors.PriorityLow,
			"parameter_name", name)
	}

	return param.ParameterValue, nil
}

// SaveLearningParameter creates or updates a named parameter. Used by seeding
// and operational tuning, never by the adjustment pipeline.
func (ds *DataStore) SaveLearningParameter(param *LearningParameter) error {
	start := time.Now()
	if param == nil || param.ParameterName == "" {
		return validationError("parameter name cannot be empty", "parameter_name", "")
	}

	param.UpdatedAt = time.Now()
	result := ds.DB.Where("parameter_name = ?", param.ParameterName).
		Assign(*param).
		FirstOrCreate(param)
	ds.recordOp("save_learning_parameter", start, result.Error)
	if result.Error != nil {
		return dbError(result.Error, "save_learning_parameter", errors.PriorityMedium,
			"parameter_name", param.ParameterName,
			"table", "learning_parameters")
	}
	return nil
}
