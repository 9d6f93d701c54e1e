package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-report-bot/internal/models"
	"daily-report-bot/pkg/calendar"
)

func newCursorRepo(t *testing.T) *GormRolloverCursorRepository {
	t.Helper()

	repo, err := NewGormRolloverCursorRepository(newTestDB(t), calendar.New(nil, time.UTC))
	require.NoError(t, err)
	return repo
}

func TestGetCursorDefaultsToNever(t *testing.T) {
	repo := newCursorRepo(t)

	cursor, err := repo.GetCursor(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, calendar.NeverDate, calendar.Format(cursor))
}

func TestAdvanceCursorIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := newCursorRepo(t)

	advanced, err := repo.AdvanceCursor(ctx, 7, day(t, "2024-03-05"))
	require.NoError(t, err)
	assert.True(t, advanced)

	advanced, err = repo.AdvanceCursor(ctx, 7, day(t, "2024-03-03"))
	require.NoError(t, err)
	assert.False(t, advanced)

	advanced, err = repo.AdvanceCursor(ctx, 7, day(t, "2024-03-05"))
	require.NoError(t, err)
	assert.False(t, advanced)

	cursor, err := repo.GetCursor(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", calendar.Format(cursor))

	advanced, err = repo.AdvanceCursor(ctx, 7, day(t, "2024-03-10"))
	require.NoError(t, err)
	assert.True(t, advanced)

	cursor, err = repo.GetCursor(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", calendar.Format(cursor))

	var count int64
	require.NoError(t, repo.db.Model(&models.RolloverCursor{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAdvanceCursorPerUser(t *testing.T) {
	ctx := context.Background()
	repo := newCursorRepo(t)

	_, err := repo.AdvanceCursor(ctx, 1, day(t, "2024-03-10"))
	require.NoError(t, err)
	_, err = repo.AdvanceCursor(ctx, 2, day(t, "2024-03-02"))
	require.NoError(t, err)

	c1, err := repo.GetCursor(ctx, 1)
	require.NoError(t, err)
	c2, err := repo.GetCursor(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-10", calendar.Format(c1))
	assert.Equal(t, "2024-03-02", calendar.Format(c2))
}
