package syncengine

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studysync/config"
	"studysync/models"
	"studysync/providers"
	"studysync/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func orchestratorConfig(t *testing.T, gradescopeURL string) []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}

	old := config.AppConfig
	config.AppConfig = &config.Config{
		VaultKey:          key,
		GradescopeBaseURL: gradescopeURL,
		SyncTimeoutSec:    5,
	}
	t.Cleanup(func() { config.AppConfig = old })
	return key
}

// fakeGradescope serves a dashboard with one course holding one dated
// assignment. expired makes every page bounce to the login screen.
func fakeGradescope(expired bool) *httptest.Server {
	nextWeek := time.Now().Add(7 * 24 * time.Hour)
	dueStr := strings.ToUpper(nextWeek.Format("Jan 2")) + " AT " + nextWeek.Format("3:04PM")

	mux := http.NewServeMux()
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		if expired {
			w.Header().Set("Location", "/login")
			w.WriteHeader(http.StatusFound)
			return
		}
		fmt.Fprint(w, `<div class="courseList">
			<div class="courseList--term">Fall 2026</div>
			<div class="courseList--coursesForTerm">
				<a class="courseBox" href="/courses/101">
					<h3 class="courseBox--shortname">CS 101</h3>
					<div class="courseBox--name">Intro to Computer Science</div>
				</a>
			</div>
		</div>`)
	})
	mux.HandleFunc("/courses/101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<table id="assignments-student-table"><tbody><tr>
			<th class="table--primaryLink"><a href="/courses/101/assignments/5555">Homework 3</a></th>
			<td class="submissionStatus">No Submission</td>
			<td><div class="submissionTimeChart--dueDate">%s</div></td>
		</tr></tbody></table>`, dueStr)
	})
	return httptest.NewServer(mux)
}

func storeTestCredential(t *testing.T, db *gorm.DB, key []byte, userID uint, provider, blob string) models.ProviderCredential {
	ciphertext, err := vault.Encrypt(key, blob)
	require.NoError(t, err)

	cred := models.ProviderCredential{
		UserID:      userID,
		Provider:    provider,
		Ciphertext:  ciphertext,
		ConnectedAt: time.Now(),
	}
	require.NoError(t, db.Create(&cred).Error)
	return cred
}

func TestSyncUserNotConnected(t *testing.T) {
	db := setupTestDB(t)
	orchestratorConfig(t, "http://unused.invalid")

	_, err := SyncUser(db, testUser, providers.Gradescope)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSyncUserCorruptCredential(t *testing.T) {
	db := setupTestDB(t)
	orchestratorConfig(t, "http://unused.invalid")

	cred := models.ProviderCredential{
		UserID:      testUser,
		Provider:    providers.Gradescope,
		Ciphertext:  "this is not a vault blob",
		ConnectedAt: time.Now(),
	}
	require.NoError(t, db.Create(&cred).Error)

	// Corrupt ciphertext reads as disconnected, never as a crash.
	_, err := SyncUser(db, testUser, providers.Gradescope)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSyncUserStaleCredential(t *testing.T) {
	db := setupTestDB(t)
	key := orchestratorConfig(t, "http://unused.invalid")

	cred := storeTestCredential(t, db, key, testUser, providers.Gradescope, `{"cookies":{"signed_token":"proof"}}`)
	require.NoError(t, db.Model(&cred).Update("is_stale", true).Error)

	_, err := SyncUser(db, testUser, providers.Gradescope)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSyncUserUnknownProvider(t *testing.T) {
	db := setupTestDB(t)
	key := orchestratorConfig(t, "http://unused.invalid")
	storeTestCredential(t, db, key, testUser, "canvas", `{}`)

	_, err := SyncUser(db, testUser, "canvas")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestSyncUserGradescopeEndToEnd(t *testing.T) {
	srv := fakeGradescope(false)
	defer srv.Close()

	db := setupTestDB(t)
	key := orchestratorConfig(t, srv.URL)
	storeTestCredential(t, db, key, testUser, providers.Gradescope, `{"cookies":{"signed_token":"proof"}}`)

	local := models.Course{UserID: testUser, Code: "CS101", Name: "Intro to Computer Science"}
	require.NoError(t, db.Create(&local).Error)

	res, err := SyncUser(db, testUser, providers.Gradescope)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	var rec models.Assignment
	require.NoError(t, db.Where("external_id = ?", "5555").First(&rec).Error)
	assert.Equal(t, "Homework 3", rec.Title)
	assert.Equal(t, local.ID, rec.CourseID)

	var cred models.ProviderCredential
	require.NoError(t, db.Where("user_id = ?", testUser).First(&cred).Error)
	assert.NotNil(t, cred.LastSyncAt)

	// Second run is a no-op.
	res, err = SyncUser(db, testUser, providers.Gradescope)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 0, res.Updated)
}

func TestSyncUserExpiredSessionMarksStale(t *testing.T) {
	srv := fakeGradescope(true)
	defer srv.Close()

	db := setupTestDB(t)
	key := orchestratorConfig(t, srv.URL)
	storeTestCredential(t, db, key, testUser, providers.Gradescope, `{"cookies":{"signed_token":"old"}}`)

	_, err := SyncUser(db, testUser, providers.Gradescope)
	assert.ErrorIs(t, err, providers.ErrSessionExpired)

	var cred models.ProviderCredential
	require.NoError(t, db.Where("user_id = ?", testUser).First(&cred).Error)
	assert.True(t, cred.IsStale)
}

func TestSweepIsolatesFailures(t *testing.T) {
	srv := fakeGradescope(false)
	defer srv.Close()

	db := setupTestDB(t)
	key := orchestratorConfig(t, srv.URL)

	// user 1: healthy credential
	storeTestCredential(t, db, key, 1, providers.Gradescope, `{"cookies":{"signed_token":"proof"}}`)

	// user 2: garbage ciphertext
	require.NoError(t, db.Create(&models.ProviderCredential{
		UserID:      2,
		Provider:    providers.Gradescope,
		Ciphertext:  "garbage",
		ConnectedAt: time.Now(),
	}).Error)

	// user 3: healthy credential
	storeTestCredential(t, db, key, 3, providers.Gradescope, `{"cookies":{"signed_token":"proof"}}`)

	entries := Sweep(db, providers.Gradescope)
	require.Len(t, entries, 3)

	assert.Equal(t, uint(1), entries[0].UserID)
	assert.Empty(t, entries[0].Error)
	assert.Equal(t, 1, entries[0].Result.Created)

	// the broken account is recorded and does not abort the sweep
	assert.Equal(t, uint(2), entries[1].UserID)
	assert.NotEmpty(t, entries[1].Error)

	assert.Equal(t, uint(3), entries[2].UserID)
	assert.Empty(t, entries[2].Error)
	assert.Equal(t, 1, entries[2].Result.Created)
}

func TestSweepRecordsStaleCredentials(t *testing.T) {
	srv := fakeGradescope(false)
	defer srv.Close()

	db := setupTestDB(t)
	key := orchestratorConfig(t, srv.URL)

	storeTestCredential(t, db, key, 1, providers.Gradescope, `{"cookies":{"signed_token":"proof"}}`)

	stale := storeTestCredential(t, db, key, 2, providers.Gradescope, `{"cookies":{"signed_token":"old"}}`)
	require.NoError(t, db.Model(&stale).Update("is_stale", true).Error)

	// The stale account is not synced, but its outcome is still part of
	// the run report.
	entries := Sweep(db, providers.Gradescope)
	require.Len(t, entries, 2)

	assert.Equal(t, uint(1), entries[0].UserID)
	assert.Empty(t, entries[0].Error)

	assert.Equal(t, uint(2), entries[1].UserID)
	assert.Equal(t, ErrNotConnected.Error(), entries[1].Error)
	assert.Equal(t, Result{}, entries[1].Result)
}
