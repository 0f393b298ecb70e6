package models

import "gorm.io/gorm"

// CalendarEventLink ties a local assignment to the remote calendar
// event the export sync created for it.
type CalendarEventLink struct {
	gorm.Model
	UserID          uint   `json:"user_id" gorm:"index;not null"`
	AssignmentID    uint   `json:"assignment_id" gorm:"index;not null"`
	ExternalEventID string `json:"external_event_id" gorm:"index;not null"`
}
