package models

import (
	"time"

	"gorm.io/gorm"
)

// Assignment statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Assignment sources
const (
	SourceManual     = "manual"
	SourceGradescope = "gradescope"
	SourceMoodle     = "moodle"
)

// Assignment is one tracked piece of work. Externally sourced rows are
// owned by the sync engine for title/deadline/course-link/submitted
// status; everything else belongs to the user.
//
// Invariant: for external sources there is at most one row per
// (UserID, Source, ExternalID).
type Assignment struct {
	gorm.Model
	UserID             uint       `json:"user_id" gorm:"index;not null"`
	CourseID           uint       `json:"course_id" gorm:"index"` // 0 = unlinked
	Title              string     `json:"title" gorm:"size:100;not null"`
	Deadline           *time.Time `json:"deadline"`
	Status             string     `json:"status" gorm:"default:'not_started'"`
	Source             string     `json:"source" gorm:"index;default:'manual'"`
	ExternalID         string     `json:"external_id" gorm:"index"`
	ExternalCourseID   string     `json:"external_course_id"`
	ExternalCourseName string     `json:"external_course_name"`
	Note               string     `json:"note"`
	CompletedAt        *time.Time `json:"completed_at"`
	IsDeleted          bool       `gorm:"default:false"`
}
