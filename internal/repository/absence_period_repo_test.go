package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-report-bot/internal/models"
)

func TestAbsencePeriodConflicts(t *testing.T) {
	repo, err := NewGormAbsencePeriodRepository(newTestDB(t))
	require.NoError(t, err)

	require.NoError(t, repo.Create(&models.AbsencePeriod{
		UserID:    1,
		StartDate: "2024-03-04",
		EndDate:   "2024-03-08",
		Type:      models.AbsenceTypeVacation,
	}))

	cases := []struct {
		from, to string
		conflict bool
	}{
		{"2024-03-01", "2024-03-03", false},
		{"2024-03-01", "2024-03-04", true},
		{"2024-03-05", "2024-03-06", true},
		{"2024-03-08", "2024-03-12", true},
		{"2024-03-01", "2024-03-20", true},
		{"2024-03-09", "2024-03-12", false},
	}
	for _, tc := range cases {
		conflict, err := repo.CheckPeriodConflict(1, day(t, tc.from), day(t, tc.to))
		require.NoError(t, err)
		assert.Equal(t, tc.conflict, conflict, "%s..%s", tc.from, tc.to)
	}

	other, err := repo.CheckPeriodConflict(2, day(t, "2024-03-05"), day(t, "2024-03-06"))
	require.NoError(t, err)
	assert.False(t, other)

	current, err := repo.GetCurrentAbsence(1, day(t, "2024-03-06"))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, models.AbsenceTypeVacation, current.Type)

	current, err = repo.GetCurrentAbsence(1, day(t, "2024-03-09"))
	require.NoError(t, err)
	assert.Nil(t, current)
}
