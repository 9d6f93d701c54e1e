package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTaskID(t *testing.T) {
	id, err := NormalizeTaskID("  TASK-1 ")
	require.NoError(t, err)
	assert.Equal(t, "TASK-1", id)

	_, err = NormalizeTaskID("   ")
	assert.ErrorIs(t, err, ErrInvalidTaskID)

	_, err = NormalizeTaskID(strings.Repeat("x", 65))
	assert.ErrorIs(t, err, ErrInvalidTaskID)
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 30)
	mon := env.day(t, "2024-03-04")

	record, err := env.tasks.AssignTask(ctx, 1, mon, "A")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", record.Date)

	_, err = env.tasks.AssignTask(ctx, 1, mon, " A ")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, env.assigned(t, 1, "2024-03-04"))

	_, err = env.tasks.CompleteTask(ctx, 1, mon, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, env.assigned(t, 1, "2024-03-04"))
	assert.Equal(t, []string{"A"}, env.completed(t, 1, "2024-03-04"))

	_, err = env.tasks.ReopenTask(ctx, 1, mon, "A")
	require.NoError(t, err)
	assert.Empty(t, env.completed(t, 1, "2024-03-04"))

	_, err = env.tasks.UnassignTask(ctx, 1, mon, "A")
	require.NoError(t, err)
	assert.Empty(t, env.assigned(t, 1, "2024-03-04"))

	_, err = env.tasks.AssignTask(ctx, 1, mon, "")
	assert.ErrorIs(t, err, ErrInvalidTaskID)
}

func TestCompleteRolledTaskOnLaterDay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 30)
	env.assign(t, 1, "2024-03-04", "A")
	env.run(t, 1, "2024-03-06")

	// выполнение на более позднем дне, чем назначение
	_, err := env.tasks.CompleteTask(ctx, 1, env.day(t, "2024-03-06"), "A")
	require.NoError(t, err)

	env.run(t, 1, "2024-03-08")
	assert.Equal(t, []string{"A"}, env.assigned(t, 1, "2024-03-06"))
	assert.Empty(t, env.assigned(t, 1, "2024-03-08"))
}

func TestAssignOnPassedDayIsCarriedForward(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 30)
	env.run(t, 1, "2024-03-08")
	require.Equal(t, "2024-03-07", env.cursor(t, 1))

	record, err := env.tasks.AssignTask(ctx, 1, env.day(t, "2024-03-05"), "LATE")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", record.Date)
	assert.Empty(t, record.AssignedTasks)

	assert.Equal(t, []string{"LATE"}, env.assigned(t, 1, "2024-03-08"))

	// повторный проход ничего не теряет и не дублирует
	result := env.run(t, 1, "2024-03-08")
	assert.Zero(t, result.TasksMoved)
	assert.Equal(t, []string{"LATE"}, env.assigned(t, 1, "2024-03-08"))
	assert.Equal(t, "2024-03-07", env.cursor(t, 1))
}

func TestReopenOnPassedDayIsCarriedForward(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 30)
	env.assign(t, 1, "2024-03-06", "R")
	env.complete(t, 1, "2024-03-06", "R")
	env.run(t, 1, "2024-03-08")
	assert.Equal(t, []string{"R"}, env.assigned(t, 1, "2024-03-06"))

	record, err := env.tasks.ReopenTask(ctx, 1, env.day(t, "2024-03-06"), "R")
	require.NoError(t, err)
	assert.Empty(t, record.AssignedTasks)
	assert.Empty(t, record.CompletedTasks)

	assert.Equal(t, []string{"R"}, env.assigned(t, 1, "2024-03-08"))
}

func TestTaskWritesThatDoNotCarry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 30)
	env.run(t, 1, "2024-03-08")

	// выполненная задача остается на своем дне
	env.assign(t, 1, "2024-03-08", "D")
	_, err := env.tasks.CompleteTask(ctx, 1, env.day(t, "2024-03-05"), "D")
	require.NoError(t, err)
	assert.Empty(t, env.assigned(t, 1, "2024-03-05"))
	assert.Equal(t, []string{"D"}, env.completed(t, 1, "2024-03-05"))

	// день после курсора ждет обычного переноса
	_, err = env.tasks.AssignTask(ctx, 1, env.day(t, "2024-03-08"), "T")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"D", "T"}, env.assigned(t, 1, "2024-03-08"))

	// без переноса сервис задач только пишет запись
	plain := NewTaskService(env.records)
	_, err = plain.AssignTask(ctx, 1, env.day(t, "2024-03-04"), "P")
	require.NoError(t, err)
	assert.Equal(t, []string{"P"}, env.assigned(t, 1, "2024-03-04"))
}
