package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crspec/internal/config"
	"crspec/internal/domain"
)

func newStorage(t *testing.T) *JSONStorage {
	t.Helper()
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	return NewJSONStorage(cfg)
}

func TestJSONStorage_SaveLoad(t *testing.T) {
	s := newStorage(t)
	assert.Equal(t, "spec-results.json", filepath.Base(s.Path()))

	output := &domain.TestResultsOutput{
		Meta: domain.TestResultsMeta{RunID: "run-1", TotalTestCases: 2, FailedTestCases: 1},
		Details: []domain.TestFailure{
			{NodeID: "/w/spec/a_spec.cr adds", TestName: "adds", Outcome: "failed", Message: "trace\nexpected 1"},
		},
	}
	require.NoError(t, s.Save(output))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, output, loaded)
}

func TestJSONStorage_LoadMissing(t *testing.T) {
	_, err := newStorage(t).Load()
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestJSONStorage_SetResolved(t *testing.T) {
	s := newStorage(t)
	require.NoError(t, s.Save(&domain.TestResultsOutput{Details: []domain.TestFailure{
		{NodeID: "a"},
		{NodeID: "b"},
	}}))

	require.NoError(t, s.SetResolved("b", true))
	loaded, err := s.Load()
	require.NoError(t, err)
	assert.False(t, loaded.Details[0].Resolved)
	assert.True(t, loaded.Details[1].Resolved)

	assert.Error(t, s.SetResolved("missing", true))
}
