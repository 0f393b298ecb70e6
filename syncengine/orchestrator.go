package syncengine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"studysync/config"
	"studysync/models"
	"studysync/providers"
	"studysync/providers/gradescope"
	"studysync/providers/moodle"
	"studysync/vault"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// ErrNotConnected means the user has no usable credential for the
// provider — never stored, marked stale, or failed to decrypt.
var ErrNotConnected = errors.New("sync: provider not connected")

// ErrUnknownProvider is returned for a provider name the engine does
// not recognize.
var ErrUnknownProvider = errors.New("sync: unknown provider")

// SweepEntry is the per-user outcome of a scheduled sweep.
type SweepEntry struct {
	UserID uint   `json:"user_id"`
	Result Result `json:"result"`
	Error  string `json:"error,omitempty"`
}

// SyncUser runs the full pipeline for one user and one provider:
// decrypt credential, fetch, link, reconcile. Errors are scoped to this
// user; an expired or rejected session marks the credential stale so
// the UI can prompt a reconnect instead of retrying forever.
func SyncUser(db *gorm.DB, userID uint, provider string) (Result, error) {
	var res Result

	var cred models.ProviderCredential
	err := db.Where("user_id = ? AND provider = ? AND is_deleted = ?", userID, provider, false).
		First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, ErrNotConnected
		}
		return res, fmt.Errorf("loading credential: %w", err)
	}
	if cred.IsStale {
		return res, ErrNotConnected
	}

	blob, err := vault.Decrypt(config.AppConfig.VaultKey, cred.Ciphertext)
	if err != nil {
		// Corrupt or foreign ciphertext reads as "not connected", never
		// as a crash.
		log.Printf("[SYNC] user %d %s: credential decrypt failed: %v", userID, provider, err)
		return res, ErrNotConnected
	}

	items, cutoff, err := fetch(provider, blob)
	if err != nil {
		if errors.Is(err, providers.ErrAuth) || errors.Is(err, providers.ErrSessionExpired) {
			db.Model(&cred).Update("is_stale", true)
			return res, fmt.Errorf("session rejected, reconnect required: %w", err)
		}
		return res, err
	}

	var courses []models.Course
	if err := db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("id asc").Find(&courses).Error; err != nil {
		return res, fmt.Errorf("loading courses: %w", err)
	}

	res, err = Reconcile(db, userID, provider, items, courses, cutoff)
	if err != nil {
		return res, err
	}

	syncedAt := time.Now()
	cred.LastSyncAt = &syncedAt
	if err := db.Save(&cred).Error; err != nil {
		return res, fmt.Errorf("stamping last sync: %w", err)
	}

	return res, nil
}

// fetch runs the provider's courses-then-assignments sequence and
// returns the items plus the provider's admission cutoff. Gradescope
// admits anything with a parseable date; past items rarely stay listed
// there. Moodle happily returns years of history, so first sightings
// due before the start of today are rejected.
func fetch(provider, blob string) ([]providers.ExternalAssignment, *time.Time, error) {
	switch provider {
	case providers.Gradescope:
		session, err := gradescope.SessionFromJSON(blob)
		if err != nil {
			return nil, nil, err
		}
		courses, err := gradescope.ListCourses(session)
		if err != nil {
			return nil, nil, err
		}
		items, err := gradescope.ListAssignments(session, courses)
		if err != nil {
			return nil, nil, err
		}
		return items, nil, nil

	case providers.Moodle:
		session, err := moodle.SessionFromJSON(blob)
		if err != nil {
			return nil, nil, err
		}
		courses, err := moodle.ListCourses(session)
		if err != nil {
			return nil, nil, err
		}
		items, err := moodle.ListAssignments(session, courses)
		if err != nil {
			return nil, nil, err
		}
		cutoff := now.BeginningOfDay()
		return items, &cutoff, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

// Sweep runs SyncUser for every user holding a stored credential for
// the provider, sequentially. Stale credentials are included so their
// users still get a recorded outcome (a "not connected" entry) rather
// than silently vanishing from the run. One broken account records an
// entry and moves on; it must never block the nightly sweep for
// everyone else.
func Sweep(db *gorm.DB, provider string) []SweepEntry {
	runID := uuid.NewString()
	log.Printf("[SWEEP %s] starting %s sweep", runID, provider)

	var creds []models.ProviderCredential
	if err := db.Where("provider = ? AND is_deleted = ?", provider, false).
		Order("user_id asc").Find(&creds).Error; err != nil {
		log.Printf("[SWEEP %s] listing credentials failed: %v", runID, err)
		return nil
	}

	entries := make([]SweepEntry, 0, len(creds))
	for _, cred := range creds {
		entries = append(entries, sweepOne(db, cred.UserID, provider, runID))
	}

	log.Printf("[SWEEP %s] finished: %d users processed", runID, len(entries))
	return entries
}

func sweepOne(db *gorm.DB, userID uint, provider, runID string) (entry SweepEntry) {
	entry.UserID = userID
	defer func() {
		if r := recover(); r != nil {
			entry.Error = fmt.Sprintf("panic: %v", r)
			log.Printf("[SWEEP %s] user %d panicked: %v", runID, userID, r)
		}
	}()

	res, err := SyncUser(db, userID, provider)
	entry.Result = res
	if err != nil {
		entry.Error = err.Error()
		log.Printf("[SWEEP %s] user %d failed: %v", runID, userID, err)
	}
	return entry
}
