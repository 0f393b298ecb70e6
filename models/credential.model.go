package models

import (
	"time"

	"gorm.io/gorm"
)

// ProviderCredential stores one user's encrypted session for one
// external provider. Ciphertext is an AES-GCM blob produced by the
// vault package; nothing outside that package decrypts it.
type ProviderCredential struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	Provider    string     `json:"provider" gorm:"index;not null"`
	Ciphertext  string     `json:"-" gorm:"not null"`
	ConnectedAt time.Time  `json:"connected_at"`
	LastSyncAt  *time.Time `json:"last_sync_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsStale     bool       `json:"is_stale" gorm:"default:false"` // provider rejected the session; user must reconnect
	IsDeleted   bool       `gorm:"default:false"`
}
