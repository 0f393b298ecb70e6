package syncengine

import (
	"encoding/json"
	"testing"
	"time"

	"studysync/models"
	"studysync/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedConflict(t *testing.T, db *gorm.DB) (models.Assignment, models.SyncConflict) {
	manual := models.Assignment{
		UserID:   testUser,
		CourseID: 7,
		Title:    "Lab 3",
		Deadline: timePtr(time.Now().Add(5 * 24 * time.Hour)),
		Status:   models.StatusInProgress,
		Source:   models.SourceManual,
	}
	require.NoError(t, db.Create(&manual).Error)

	payload, err := json.Marshal(ConflictCandidate{
		Provider:   providers.Gradescope,
		ExternalID: "5555",
		Title:      "Lab 3",
		DueDate:    timePtr(time.Now().Add(6 * 24 * time.Hour)),
		CourseID:   "101",
		CourseName: "Intro to Computer Science",
	})
	require.NoError(t, err)

	conflict := models.SyncConflict{
		UserID:       testUser,
		AssignmentID: manual.ID,
		Candidate:    payload,
		Resolution:   models.ResolutionUnresolved,
	}
	require.NoError(t, db.Create(&conflict).Error)
	return manual, conflict
}

func TestResolveKeepManual(t *testing.T) {
	db := setupTestDB(t)
	manual, conflict := seedConflict(t, db)

	require.NoError(t, ResolveConflict(db, testUser, conflict.ID, models.ResolutionKeepManual))

	var got models.SyncConflict
	require.NoError(t, db.First(&got, conflict.ID).Error)
	assert.Equal(t, models.ResolutionKeepManual, got.Resolution)
	assert.NotNil(t, got.ResolvedAt)

	// no data mutation
	var unchanged models.Assignment
	require.NoError(t, db.First(&unchanged, manual.ID).Error)
	assert.Equal(t, manual.Title, unchanged.Title)
	assert.Equal(t, models.SourceManual, unchanged.Source)

	var count int64
	db.Model(&models.Assignment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestResolveUseExternal(t *testing.T) {
	db := setupTestDB(t)
	manual, conflict := seedConflict(t, db)

	require.NoError(t, ResolveConflict(db, testUser, conflict.ID, models.ResolutionUseExternal))

	var got models.Assignment
	require.NoError(t, db.First(&got, manual.ID).Error)
	assert.Equal(t, providers.Gradescope, got.Source)
	assert.Equal(t, "5555", got.ExternalID)
	assert.Equal(t, "101", got.ExternalCourseID)

	// still exactly one record: the manual one was overwritten in place
	var count int64
	db.Model(&models.Assignment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestResolveKeepBoth(t *testing.T) {
	db := setupTestDB(t)
	manual, conflict := seedConflict(t, db)

	require.NoError(t, ResolveConflict(db, testUser, conflict.ID, models.ResolutionKeepBoth))

	var recs []models.Assignment
	require.NoError(t, db.Order("id asc").Find(&recs).Error)
	require.Len(t, recs, 2)

	// manual record untouched
	assert.Equal(t, models.SourceManual, recs[0].Source)
	assert.Equal(t, manual.Title, recs[0].Title)

	// new record from the external candidate, inheriting the course link
	assert.Equal(t, providers.Gradescope, recs[1].Source)
	assert.Equal(t, "5555", recs[1].ExternalID)
	assert.Equal(t, manual.CourseID, recs[1].CourseID)
}

func TestResolveIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	_, conflict := seedConflict(t, db)

	require.NoError(t, ResolveConflict(db, testUser, conflict.ID, models.ResolutionKeepManual))

	err := ResolveConflict(db, testUser, conflict.ID, models.ResolutionUseExternal)
	assert.ErrorIs(t, err, ErrConflictResolved)

	// the earlier resolution stands
	var got models.SyncConflict
	require.NoError(t, db.First(&got, conflict.ID).Error)
	assert.Equal(t, models.ResolutionKeepManual, got.Resolution)
}

func TestResolveBadInputs(t *testing.T) {
	db := setupTestDB(t)
	_, conflict := seedConflict(t, db)

	err := ResolveConflict(db, testUser, conflict.ID, "split_the_difference")
	assert.ErrorIs(t, err, ErrBadResolution)

	// wrong user cannot see the conflict
	err = ResolveConflict(db, 99, conflict.ID, models.ResolutionKeepManual)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = ResolveConflict(db, testUser, 4040, models.ResolutionKeepManual)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
