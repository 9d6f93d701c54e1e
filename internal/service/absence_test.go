package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-report-bot/internal/models"
)

func TestAddAbsenceMarksDays(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 30)
	absences := NewAbsenceService(env.absences, env.records, env.cal)

	period, err := absences.AddAbsence(ctx, 1, models.AbsenceTypeSickLeave, env.day(t, "2024-03-04"), env.day(t, "2024-03-06"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", period.StartDate)
	assert.Equal(t, "2024-03-06", period.EndDate)

	for _, key := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		record := env.record(t, 1, key)
		require.NotNil(t, record, key)
		assert.True(t, record.IsAbsent, key)
	}
	assert.Nil(t, env.record(t, 1, "2024-03-07"))

	_, err = absences.AddAbsence(ctx, 1, models.AbsenceTypeDayOff, env.day(t, "2024-03-06"), env.day(t, "2024-03-06"))
	assert.ErrorIs(t, err, ErrAbsenceConflict)

	_, err = absences.AddAbsence(ctx, 1, models.AbsenceTypeVacation, env.day(t, "2024-03-10"), env.day(t, "2024-03-09"))
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = absences.AddAbsence(ctx, 1, "holiday", env.day(t, "2024-03-10"), env.day(t, "2024-03-10"))
	assert.ErrorIs(t, err, ErrInvalidAbsenceType)

	current, err := absences.GetCurrentAbsence(1, env.day(t, "2024-03-05"))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, period.ID, current.ID)
}

func TestDeleteAbsenceClearsDays(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 30)
	absences := NewAbsenceService(env.absences, env.records, env.cal)

	period, err := absences.AddAbsence(ctx, 1, models.AbsenceTypeVacation, env.day(t, "2024-03-04"), env.day(t, "2024-03-05"))
	require.NoError(t, err)

	assert.ErrorIs(t, absences.DeleteAbsence(ctx, 2, period.ID), ErrAbsenceNotFound)
	require.NoError(t, absences.DeleteAbsence(ctx, 1, period.ID))

	for _, key := range []string{"2024-03-04", "2024-03-05"} {
		record := env.record(t, 1, key)
		require.NotNil(t, record, key)
		assert.False(t, record.IsAbsent, key)
	}

	list, err := absences.GetUserAbsences(1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAbsenceDoesNotSuppressRollover(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 30)
	absences := NewAbsenceService(env.absences, env.records, env.cal)

	env.assign(t, 1, "2024-03-04", "B")
	_, err := absences.AddAbsence(ctx, 1, models.AbsenceTypeSickLeave, env.day(t, "2024-03-04"), env.day(t, "2024-03-07"))
	require.NoError(t, err)

	env.run(t, 1, "2024-03-08")
	assert.Equal(t, []string{"B"}, env.assigned(t, 1, "2024-03-08"))
	assert.Empty(t, env.assigned(t, 1, "2024-03-04"))
}
