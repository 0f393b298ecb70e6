package syncengine

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"studysync/models"
	"studysync/providers"

	"gorm.io/gorm"
)

// Result aggregates one reconciliation run.
type Result struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Conflicts int `json:"conflicts"`
}

// ConflictCandidate is the serialized external item stored on a
// SyncConflict while a human decides.
type ConflictCandidate struct {
	Provider   string     `json:"provider"`
	ExternalID string     `json:"external_id"`
	Title      string     `json:"title"`
	DueDate    *time.Time `json:"due_date"`
	CourseID   string     `json:"course_id"`
	CourseCode string     `json:"course_code"`
	CourseName string     `json:"course_name"`
	Submitted  bool       `json:"submitted"`
}

// conflict window: a manual record with the same normalized title whose
// deadline is within this distance (or missing on either side) is
// treated as a possible duplicate.
const conflictWindow = 48 * time.Hour

// Reconcile turns one provider's assignment batch for one user into
// create/update/skip decisions against the local table.
//
// Match key: (userID, provider, external id), string equality. cutoff
// is the provider's admission rule for brand-new items: a new item due
// strictly before cutoff is never created (nil cutoff admits any dated
// item). Existing records stay eligible for update regardless of
// cutoff. A second run over unchanged data issues zero writes.
func Reconcile(db *gorm.DB, userID uint, provider string, items []providers.ExternalAssignment, courses []models.Course, cutoff *time.Time) (Result, error) {
	var res Result

	var existing []models.Assignment
	if err := db.Where("user_id = ? AND source = ? AND is_deleted = ?", userID, provider, false).
		Find(&existing).Error; err != nil {
		return res, fmt.Errorf("loading existing %s records: %w", provider, err)
	}
	byExternalID := make(map[string]*models.Assignment, len(existing))
	for i := range existing {
		byExternalID[existing[i].ExternalID] = &existing[i]
	}

	var manual []models.Assignment
	if err := db.Where("user_id = ? AND source = ? AND is_deleted = ?", userID, models.SourceManual, false).
		Find(&manual).Error; err != nil {
		return res, fmt.Errorf("loading manual records: %w", err)
	}

	for _, item := range items {
		courseID := LinkCourse(item.CourseCode, item.CourseName, courses)

		if rec, ok := byExternalID[item.ExternalID]; ok {
			updated, err := updateIfChanged(db, rec, item, courseID)
			if err != nil {
				return res, err
			}
			if updated {
				res.Updated++
			} else {
				res.Skipped++
			}
			continue
		}

		// Admission filter for first sightings.
		if cutoff != nil && item.DueDate != nil && item.DueDate.Before(*cutoff) {
			res.Skipped++
			continue
		}

		if dup := findManualDuplicate(manual, item); dup != nil {
			raised, err := raiseConflict(db, userID, dup.ID, provider, item)
			if err != nil {
				return res, err
			}
			if raised {
				res.Conflicts++
			} else {
				res.Skipped++ // already pending or already decided
			}
			continue
		}

		rec, err := createFromExternal(db, userID, provider, item, courseID)
		if err != nil {
			return res, err
		}
		byExternalID[rec.ExternalID] = rec
		res.Created++
	}

	return res, nil
}

// updateIfChanged writes the record back only when a tracked field
// actually differs. The sync engine owns title, deadline, the external
// course fields, an empty course link, and the externally-submitted
// status; it never reverts a completed status the user (or an earlier
// sync) already set.
func updateIfChanged(db *gorm.DB, rec *models.Assignment, item providers.ExternalAssignment, courseID uint) (bool, error) {
	changed := false

	if title := truncateTitle(item.Title); rec.Title != title {
		rec.Title = title
		changed = true
	}
	if !sameDeadline(rec.Deadline, item.DueDate) {
		rec.Deadline = item.DueDate
		changed = true
	}
	if item.CourseID != "" && rec.ExternalCourseID != item.CourseID {
		rec.ExternalCourseID = item.CourseID
		changed = true
	}
	if item.CourseName != "" && rec.ExternalCourseName != item.CourseName {
		rec.ExternalCourseName = item.CourseName
		changed = true
	}
	if rec.CourseID == 0 && courseID != 0 {
		rec.CourseID = courseID
		changed = true
	}
	if item.Submitted && rec.Status != models.StatusCompleted {
		now := time.Now()
		rec.Status = models.StatusCompleted
		rec.CompletedAt = &now
		changed = true
	}

	if !changed {
		return false, nil
	}
	if err := db.Save(rec).Error; err != nil {
		return false, fmt.Errorf("updating assignment %d: %w", rec.ID, err)
	}
	return true, nil
}

func createFromExternal(db *gorm.DB, userID uint, provider string, item providers.ExternalAssignment, courseID uint) (*models.Assignment, error) {
	status := models.StatusNotStarted
	var completedAt *time.Time
	if item.Submitted {
		now := time.Now()
		status = models.StatusCompleted
		completedAt = &now
	}

	rec := models.Assignment{
		UserID:             userID,
		CourseID:           courseID,
		Title:              truncateTitle(item.Title),
		Deadline:           item.DueDate,
		Status:             status,
		Source:             provider,
		ExternalID:         item.ExternalID,
		ExternalCourseID:   item.CourseID,
		ExternalCourseName: item.CourseName,
		Note:               "Imported from " + provider,
		CompletedAt:        completedAt,
	}
	if err := db.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("creating assignment from %s item %s: %w", provider, item.ExternalID, err)
	}
	return &rec, nil
}

// findManualDuplicate applies the duplicate rule: same normalized title
// AND deadlines within the conflict window (a missing deadline on
// either side counts as "could be the same"). Deterministic for
// identical inputs; manual records are scanned in query order.
func findManualDuplicate(manual []models.Assignment, item providers.ExternalAssignment) *models.Assignment {
	title := Normalize(item.Title)
	for i := range manual {
		if Normalize(manual[i].Title) != title {
			continue
		}
		if manual[i].Deadline == nil || item.DueDate == nil {
			return &manual[i]
		}
		diff := manual[i].Deadline.Sub(*item.DueDate)
		if diff < 0 {
			diff = -diff
		}
		if diff <= conflictWindow {
			return &manual[i]
		}
	}
	return nil
}

// raiseConflict records the possible duplicate unless a conflict for
// the same manual record and external item already exists — pending or
// resolved. A past resolution (keep_manual in particular) permanently
// dismisses that candidate; re-raising it every sweep would nag the
// user with a decision they already made. Neither record is touched
// until a human resolves it.
func raiseConflict(db *gorm.DB, userID, assignmentID uint, provider string, item providers.ExternalAssignment) (bool, error) {
	var prior []models.SyncConflict
	if err := db.Where("user_id = ? AND assignment_id = ?", userID, assignmentID).
		Find(&prior).Error; err != nil {
		return false, fmt.Errorf("checking prior conflicts: %w", err)
	}
	for _, c := range prior {
		var cand ConflictCandidate
		if err := json.Unmarshal(c.Candidate, &cand); err == nil &&
			cand.Provider == provider && cand.ExternalID == item.ExternalID {
			return false, nil
		}
	}

	payload, err := json.Marshal(ConflictCandidate{
		Provider:   provider,
		ExternalID: item.ExternalID,
		Title:      item.Title,
		DueDate:    item.DueDate,
		CourseID:   item.CourseID,
		CourseCode: item.CourseCode,
		CourseName: item.CourseName,
		Submitted:  item.Submitted,
	})
	if err != nil {
		return false, fmt.Errorf("serializing conflict candidate: %w", err)
	}

	conflict := models.SyncConflict{
		UserID:       userID,
		AssignmentID: assignmentID,
		Candidate:    payload,
		Resolution:   models.ResolutionUnresolved,
	}
	if err := db.Create(&conflict).Error; err != nil {
		return false, fmt.Errorf("creating conflict: %w", err)
	}
	log.Printf("[SYNC] conflict raised for user %d: manual assignment %d vs %s item %s", userID, assignmentID, provider, item.ExternalID)
	return true, nil
}

func sameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= 100 {
		return s
	}
	return string(runes[:100])
}
