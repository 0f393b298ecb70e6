package syncengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studysync/models"

	"gorm.io/gorm"
)

var (
	// ErrConflictResolved is returned on any attempt to re-resolve a
	// conflict; resolution is a one-way transition.
	ErrConflictResolved = errors.New("sync: conflict already resolved")
	// ErrBadResolution is returned for an unknown resolution choice.
	ErrBadResolution = errors.New("sync: invalid resolution")
)

// ResolveConflict applies the human's decision on a flagged duplicate.
//
//	keep_manual:  nothing changes, the conflict is just closed.
//	use_external: the manual record takes the external item's title,
//	              deadline, source and external ids.
//	keep_both:    a new record is created from the external item; it
//	              inherits the manual record's course link as a default.
func ResolveConflict(db *gorm.DB, userID, conflictID uint, resolution string) error {
	var conflict models.SyncConflict
	if err := db.Where("id = ? AND user_id = ?", conflictID, userID).First(&conflict).Error; err != nil {
		return fmt.Errorf("loading conflict %d: %w", conflictID, err)
	}
	if conflict.Resolution != models.ResolutionUnresolved {
		return ErrConflictResolved
	}

	var cand ConflictCandidate
	if err := json.Unmarshal(conflict.Candidate, &cand); err != nil {
		return fmt.Errorf("conflict %d has an unreadable candidate: %w", conflictID, err)
	}

	switch resolution {
	case models.ResolutionKeepManual:
		// no data mutation

	case models.ResolutionUseExternal:
		var manual models.Assignment
		if err := db.First(&manual, conflict.AssignmentID).Error; err != nil {
			return fmt.Errorf("loading manual assignment %d: %w", conflict.AssignmentID, err)
		}
		manual.Title = truncateTitle(cand.Title)
		manual.Deadline = cand.DueDate
		manual.Source = cand.Provider
		manual.ExternalID = cand.ExternalID
		manual.ExternalCourseID = cand.CourseID
		manual.ExternalCourseName = cand.CourseName
		if err := db.Save(&manual).Error; err != nil {
			return fmt.Errorf("overwriting manual assignment %d: %w", manual.ID, err)
		}

	case models.ResolutionKeepBoth:
		var manual models.Assignment
		if err := db.First(&manual, conflict.AssignmentID).Error; err != nil {
			return fmt.Errorf("loading manual assignment %d: %w", conflict.AssignmentID, err)
		}
		rec := models.Assignment{
			UserID:             conflict.UserID,
			CourseID:           manual.CourseID,
			Title:              truncateTitle(cand.Title),
			Deadline:           cand.DueDate,
			Status:             models.StatusNotStarted,
			Source:             cand.Provider,
			ExternalID:         cand.ExternalID,
			ExternalCourseID:   cand.CourseID,
			ExternalCourseName: cand.CourseName,
			Note:               "Imported from " + cand.Provider,
		}
		if err := db.Create(&rec).Error; err != nil {
			return fmt.Errorf("creating assignment from conflict %d: %w", conflictID, err)
		}

	default:
		return ErrBadResolution
	}

	now := time.Now()
	conflict.Resolution = resolution
	conflict.ResolvedAt = &now
	if err := db.Save(&conflict).Error; err != nil {
		return fmt.Errorf("resolving conflict %d: %w", conflictID, err)
	}
	return nil
}
