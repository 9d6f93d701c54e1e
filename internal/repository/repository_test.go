package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-report-bot/internal/database"
	"daily-report-bot/pkg/calendar"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	return db
}

func day(t *testing.T, key string) time.Time {
	t.Helper()

	d, err := calendar.New(nil, time.UTC).ParseKey(key)
	require.NoError(t, err)
	return d
}
