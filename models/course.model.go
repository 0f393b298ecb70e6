package models

import "gorm.io/gorm"

// Course is a locally tracked course. The sync engine only ever reads
// courses; they are created and edited through the regular CRUD surface.
type Course struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	Code      string `json:"code"` // short code, e.g. "CS101"
	Name      string `json:"name"`
	IsDeleted bool   `gorm:"default:false"`
}
