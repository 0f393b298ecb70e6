package syncengine

import (
	"testing"
	"time"

	"studysync/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Assignment{},
		&models.ProviderCredential{},
		&models.SyncConflict{},
		&models.CalendarEventLink{},
	))
	return db
}

func timePtr(t time.Time) *time.Time {
	return &t
}
