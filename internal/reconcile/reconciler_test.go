package reconcile

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crspec/internal/domain"
	"crspec/internal/tree"
)

const workspace = "/work/app"

func seededStore(t *testing.T) *tree.Store {
	t.Helper()
	store := tree.NewStore("spec")
	require.NoError(t, store.Insert(&domain.TestSuiteReport{Tests: 3, TestCases: []domain.TestCaseRecord{
		{File: "/work/app/spec/a_spec.cr", Name: "adds"},
		{File: "/work/app/spec/ops/b_spec.cr", Name: "subtracts"},
		{File: "/work/app/spec/ops/b_spec.cr", Name: "divides"},
	}}, workspace))
	return store
}

func TestReconciler_PassedCases(t *testing.T) {
	store := seededStore(t)
	r := New(store, zerolog.Nop())

	report := &domain.TestSuiteReport{Tests: 2, TestCases: []domain.TestCaseRecord{
		{File: "/work/app/spec/a_spec.cr", Name: "adds", Time: 0.25},
		{File: "/work/app/spec/ops/b_spec.cr", Name: "subtracts", Time: 1.5},
	}}

	events := r.Reconcile(report, domain.RunRequest{})
	require.Len(t, events, 2)

	assert.Equal(t, "/work/app/spec/a_spec.cr adds", events[0].NodeID)
	assert.Equal(t, domain.OutcomePassed, events[0].Outcome)
	assert.Equal(t, 250*time.Millisecond, events[0].Duration)
	assert.Equal(t, 1500*time.Millisecond, events[1].Duration)

	node := store.Lookup("/work/app/spec/ops/b_spec.cr subtracts")
	assert.Equal(t, domain.OutcomePassed, node.Outcome)
	assert.Equal(t, 1500*time.Millisecond, node.Duration)
	assert.Equal(t, domain.OutcomeUnknown, store.Lookup("/work/app/spec/ops/b_spec.cr divides").Outcome)
}

func TestReconciler_ErrorTakesPrecedence(t *testing.T) {
	store := seededStore(t)
	r := New(store, zerolog.Nop())

	report := &domain.TestSuiteReport{Tests: 1, TestCases: []domain.TestCaseRecord{{
		File: "/work/app/spec/a_spec.cr",
		Name: "adds",
		Time: 0.5,
		Failures: []domain.Detail{
			{Message: "expected 1", Inner: "assertion"},
		},
		Errors: []domain.Detail{
			{Message: "boom", Inner: "first trace"},
			{Message: "bang", Inner: "second trace"},
		},
	}}}

	events := r.Reconcile(report, domain.RunRequest{})
	require.Len(t, events, 1)

	assert.Equal(t, domain.OutcomeErrored, events[0].Outcome)
	assert.Equal(t, "first trace\nboom\n\nsecond trace\nbang", events[0].Message)

	node := store.Lookup("/work/app/spec/a_spec.cr adds")
	assert.Equal(t, domain.OutcomeErrored, node.Outcome)
	assert.Equal(t, events[0].Message, node.Message)
}

func TestReconciler_FailedCase(t *testing.T) {
	r := New(seededStore(t), zerolog.Nop())
	line := 12

	report := &domain.TestSuiteReport{Tests: 1, TestCases: []domain.TestCaseRecord{{
		File:     "/work/app/spec/ops/b_spec.cr",
		Name:     "divides",
		Line:     &line,
		Failures: []domain.Detail{{Message: "by zero", Inner: "trace"}},
	}}}

	events := r.Reconcile(report, domain.RunRequest{})
	require.Len(t, events, 1)
	assert.Equal(t, domain.OutcomeFailed, events[0].Outcome)
	assert.Equal(t, "trace\nby zero", events[0].Message)
	assert.Equal(t, 12, events[0].Line)
}

func TestReconciler_EmptyButPresentDetails(t *testing.T) {
	r := New(seededStore(t), zerolog.Nop())

	report := &domain.TestSuiteReport{Tests: 1, TestCases: []domain.TestCaseRecord{{
		File:   "/work/app/spec/a_spec.cr",
		Name:   "adds",
		Errors: []domain.Detail{},
	}}}

	events := r.Reconcile(report, domain.RunRequest{})
	require.Len(t, events, 1)
	assert.Equal(t, domain.OutcomeErrored, events[0].Outcome)
	assert.Empty(t, events[0].Message)
}

func TestReconciler_UnknownCasesAreDropped(t *testing.T) {
	r := New(seededStore(t), zerolog.Nop())

	report := &domain.TestSuiteReport{Tests: 2, TestCases: []domain.TestCaseRecord{
		{File: "/work/app/spec/new_spec.cr", Name: "is new"},
		{File: "/work/app/spec/a_spec.cr", Name: "adds"},
	}}

	events := r.Reconcile(report, domain.RunRequest{})
	require.Len(t, events, 1)
	assert.Equal(t, "/work/app/spec/a_spec.cr adds", events[0].NodeID)
}

func TestReconciler_Selection(t *testing.T) {
	report := &domain.TestSuiteReport{Tests: 3, TestCases: []domain.TestCaseRecord{
		{File: "/work/app/spec/a_spec.cr", Name: "adds"},
		{File: "/work/app/spec/ops/b_spec.cr", Name: "subtracts"},
		{File: "/work/app/spec/ops/b_spec.cr", Name: "divides"},
	}}

	tests := []struct {
		name     string
		request  domain.RunRequest
		expected []string
	}{
		{
			name:    "include a single case",
			request: domain.RunRequest{Include: []string{"/work/app/spec/ops/b_spec.cr divides"}},
			expected: []string{
				"/work/app/spec/ops/b_spec.cr divides",
			},
		},
		{
			name:    "include a directory",
			request: domain.RunRequest{Include: []string{"/work/app/spec/ops"}},
			expected: []string{
				"/work/app/spec/ops/b_spec.cr subtracts",
				"/work/app/spec/ops/b_spec.cr divides",
			},
		},
		{
			name:    "exclude a file",
			request: domain.RunRequest{Exclude: []string{"/work/app/spec/ops/b_spec.cr"}},
			expected: []string{
				"/work/app/spec/a_spec.cr adds",
			},
		},
		{
			name:    "exclude a case",
			request: domain.RunRequest{Exclude: []string{"/work/app/spec/a_spec.cr adds"}},
			expected: []string{
				"/work/app/spec/ops/b_spec.cr subtracts",
				"/work/app/spec/ops/b_spec.cr divides",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(seededStore(t), zerolog.Nop())

			var ids []string
			for _, ev := range r.Reconcile(report, tt.request) {
				ids = append(ids, ev.NodeID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestInScope(t *testing.T) {
	ancestry := []string{"/w/spec/a_spec.cr x", "/w/spec/a_spec.cr", "/w/spec"}

	assert.True(t, InScope(ancestry, nil, nil))
	assert.True(t, InScope(ancestry, map[string]bool{"/w/spec": true}, nil))
	assert.False(t, InScope(ancestry, map[string]bool{"/w/spec/b_spec.cr": true}, nil))
	assert.False(t, InScope(ancestry, nil, map[string]bool{"/w/spec/a_spec.cr": true}))
	assert.True(t, InScope(ancestry, nil, map[string]bool{"/w/spec/b_spec.cr": true}))
}
