package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTasks(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, NormalizeTasks([]string{"A", "", "B", "A"}))
	assert.Empty(t, NormalizeTasks(nil))
	assert.NotNil(t, NormalizeTasks(nil))
}

func TestUnionTasks(t *testing.T) {
	base := []string{"A", "B"}
	got := UnionTasks(base, "B", "C", "C")

	assert.Equal(t, []string{"A", "B", "C"}, got)
	assert.Equal(t, []string{"A", "B"}, base, "base must not be mutated")
}

func TestRemoveTasks(t *testing.T) {
	assert.Equal(t, []string{"B"}, RemoveTasks([]string{"A", "B", "A"}, "A"))
	assert.Equal(t, []string{"A"}, RemoveTasks([]string{"A"}, "X"))
	assert.Empty(t, RemoveTasks(nil, "A"))
}

func TestSameTasks(t *testing.T) {
	assert.True(t, SameTasks([]string{"A", "B"}, []string{"B", "A", "A"}))
	assert.True(t, SameTasks(nil, []string{}))
	assert.False(t, SameTasks([]string{"A"}, []string{"A", "B"}))
	assert.False(t, SameTasks([]string{"A", "C"}, []string{"A", "B"}))
}
