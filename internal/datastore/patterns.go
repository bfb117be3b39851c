// patterns.go: user behavior pattern counters and collaborator reads
package datastore

import (
	"time"

	"github.com/sportea/modtune/internal/errors"
	"gorm.io/gorm"
)

// IncrementUserPattern bumps the approval or rejection counter on a pattern
// row. Counters only ever increase.
func (ds *DataStore) IncrementUserPattern(patternID uint, approved bool) error {
	start := time.Now()
	column := "admin_rejections"
	if approved {
		column = "admin_approvals"
	}

	result := ds.DB.Model(&UserBehaviorPattern{}).
		Where("id = ?", patternID).
		Updates(map[string]any{
			column:       gorm.Expr(column+" + ?", 1),
			"updated_at": time.Now(),
		})
	ds.recordOp("increment_user_pattern", start, result.Error)
	if result.Error != nil {
		return dbError(result.Error, "increment_user_pattern", errors.PriorityLow,
			"pattern_id", patternID,
			"column", column)
	}
	if result.RowsAffected == 0 {
		return notFoundError("user behavior pattern", "")
	}
	return nil
}

// GetUserBehaviorPattern retrieves a pattern row by user id.
func (ds *DataStore) GetUserBehaviorPattern(userID string) (*UserBehaviorPattern, error) {
	start := time.Now()
	if userID == "" {
		return nil, validationError("user id cannot be empty", "user_id", "")
	}

	var pattern UserBehaviorPattern
	err := ds.DB.Where("user_id = ?", userID).First(&pattern).Error
	ds.recordOp("get_user_behavior_pattern", start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("user behavior pattern", userID)
		}
		return nil, dbError(err, "get_user_behavior_pattern", errors.PriorityLow,
			"user_id", userID)
	}
	return &pattern, nil
}

// GetModerationDefaults reads the global moderation settings row. The engine
// never writes this table.
func (ds *DataStore) GetModerationDefaults() (*ModerationSettings, error) {
	start := time.Now()
	var settings ModerationSettings
	err := ds.DB.First(&settings).Error
	ds.recordOp("get_moderation_defaults", start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("moderation settings", "global")
		}
		return nil, dbError(err, "get_moderation_defaults", errors.PriorityMedium,
			"table", "content_moderation_settings")
	}
	return &settings, nil
}

// CountCompletedHostedActivities counts a user's completed hosted activities
// for reputation-tier derivation.
func (ds *DataStore) CountCompletedHostedActivities(hostID string) (int64, error) {
	start := time.Now()
	if hostID == "" {
		return 0, validationError("host id cannot be empty", "host_id", "")
	}

	var count int64
	err := ds.DB.Model(&HostedActivity{}).
		Where("host_id = ? AND status = ?", hostID, "completed").
		Count(&count).Error
	ds.recordOp("count_completed_hosted_activities", start, err)
	if err != nil {
		return 0, dbError(err, "count_completed_hosted_activities", errors.PriorityLow,
			"host_id", hostID)
	}
	return count, nil
}
