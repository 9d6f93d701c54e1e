package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-report-bot/internal/models"
)

func newRecordRepo(t *testing.T) *GormDailyRecordRepository {
	t.Helper()

	repo, err := NewGormDailyRecordRepository(newTestDB(t))
	require.NoError(t, err)
	return repo
}

func TestGetRecordMissing(t *testing.T) {
	repo := newRecordRepo(t)

	record, err := repo.GetRecord(context.Background(), 1, day(t, "2024-03-04"))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestUpsertRecordUnionAndReplace(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)
	mon := day(t, "2024-03-04")

	_, err := repo.UpsertRecord(ctx, 1, mon, models.RecordPatch{Assigned: models.UnionPatch("A", "B")})
	require.NoError(t, err)

	record, err := repo.UpsertRecord(ctx, 1, mon, models.RecordPatch{
		Assigned:  models.UnionPatch("B", "C"),
		Completed: models.ReplacePatch("A"),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, record.AssignedTasks)
	assert.ElementsMatch(t, []string{"A"}, record.CompletedTasks)

	record, err = repo.UpsertRecord(ctx, 1, mon, models.RecordPatch{Completed: models.ReplacePatch("C")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C"}, record.CompletedTasks)

	stored, err := repo.GetRecord(ctx, 1, mon)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, record.ID, stored.ID)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, stored.AssignedTasks)
	assert.ElementsMatch(t, []string{"C"}, stored.CompletedTasks)
}

func TestUpsertRecordConcurrentPatchesKeepAllTasks(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)
	mon := day(t, "2024-03-04")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.UpsertRecord(ctx, 1, mon, models.RecordPatch{
				Assigned: models.UnionPatch(fmt.Sprintf("T%d", i)),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	record, err := repo.GetRecord(ctx, 1, mon)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Len(t, record.AssignedTasks, 20)

	var count int64
	require.NoError(t, repo.db.Model(&models.DailyWorkRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMoveTask(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)
	mon, tue := day(t, "2024-03-04"), day(t, "2024-03-05")

	_, err := repo.UpsertRecord(ctx, 1, mon, models.RecordPatch{
		Assigned:  models.UnionPatch("A", "B"),
		Completed: models.UnionPatch("A"),
	})
	require.NoError(t, err)
	_, err = repo.UpsertRecord(ctx, 1, tue, models.RecordPatch{Assigned: models.UnionPatch("N")})
	require.NoError(t, err)

	moved, err := repo.MoveTask(ctx, 1, mon, tue, "B")
	require.NoError(t, err)
	assert.True(t, moved)

	monRec, err := repo.GetRecord(ctx, 1, mon)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A"}, monRec.AssignedTasks)
	assert.ElementsMatch(t, []string{"A"}, monRec.CompletedTasks)

	tueRec, err := repo.GetRecord(ctx, 1, tue)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"N", "B"}, tueRec.AssignedTasks)

	// второй перенос той же задачи - no-op
	moved, err = repo.MoveTask(ctx, 1, mon, tue, "B")
	require.NoError(t, err)
	assert.False(t, moved)

	tueRec, err = repo.GetRecord(ctx, 1, tue)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"N", "B"}, tueRec.AssignedTasks)
}

func TestMoveTaskNoOps(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)
	mon, tue := day(t, "2024-03-04"), day(t, "2024-03-05")

	// нет исходной записи - целевая не создается
	moved, err := repo.MoveTask(ctx, 1, mon, tue, "A")
	require.NoError(t, err)
	assert.False(t, moved)
	tueRec, err := repo.GetRecord(ctx, 1, tue)
	require.NoError(t, err)
	assert.Nil(t, tueRec)

	_, err = repo.UpsertRecord(ctx, 1, mon, models.RecordPatch{
		Assigned:  models.UnionPatch("A"),
		Completed: models.UnionPatch("A"),
	})
	require.NoError(t, err)

	// выполненная задача не переносится
	moved, err = repo.MoveTask(ctx, 1, mon, tue, "A")
	require.NoError(t, err)
	assert.False(t, moved)

	// задачи нет в назначенных
	moved, err = repo.MoveTask(ctx, 1, mon, tue, "X")
	require.NoError(t, err)
	assert.False(t, moved)

	// тот же день
	moved, err = repo.MoveTask(ctx, 1, mon, mon, "A")
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestMoveTaskConcurrentSingleMove(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)
	mon, tue := day(t, "2024-03-04"), day(t, "2024-03-05")

	_, err := repo.UpsertRecord(ctx, 1, mon, models.RecordPatch{Assigned: models.UnionPatch("B")})
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		moves int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			moved, err := repo.MoveTask(ctx, 1, mon, tue, "B")
			assert.NoError(t, err)
			if moved {
				mu.Lock()
				moves++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, moves)

	tueRec, err := repo.GetRecord(ctx, 1, tue)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, []string(tueRec.AssignedTasks))
}

func TestListRange(t *testing.T) {
	ctx := context.Background()
	repo := newRecordRepo(t)

	for _, key := range []string{"2024-03-06", "2024-03-04", "2024-03-10"} {
		_, err := repo.UpsertRecord(ctx, 1, day(t, key), models.RecordPatch{Assigned: models.UnionPatch("A")})
		require.NoError(t, err)
	}
	_, err := repo.UpsertRecord(ctx, 2, day(t, "2024-03-05"), models.RecordPatch{Assigned: models.UnionPatch("A")})
	require.NoError(t, err)

	records, err := repo.ListRange(ctx, 1, day(t, "2024-03-04"), day(t, "2024-03-07"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-03-04", records[0].Date)
	assert.Equal(t, "2024-03-06", records[1].Date)
}
