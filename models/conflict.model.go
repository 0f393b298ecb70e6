package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conflict resolutions
const (
	ResolutionUnresolved  = "unresolved"
	ResolutionKeepManual  = "keep_manual"
	ResolutionUseExternal = "use_external"
	ResolutionKeepBoth    = "keep_both"
)

// SyncConflict flags a possible duplicate between a manually created
// assignment and an externally discovered one. Candidate holds the
// serialized external item. A resolved conflict is terminal.
type SyncConflict struct {
	gorm.Model
	UserID       uint           `json:"user_id" gorm:"index;not null"`
	AssignmentID uint           `json:"assignment_id" gorm:"index;not null"` // the manual record
	Candidate    datatypes.JSON `json:"candidate"`
	Resolution   string         `json:"resolution" gorm:"default:'unresolved'"`
	ResolvedAt   *time.Time     `json:"resolved_at"`
}
