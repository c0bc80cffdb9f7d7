package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crspec/internal/domain"
)

func TestGroupByFile(t *testing.T) {
	details := []domain.TestFailure{
		{FilePath: "/w/spec/b_spec.cr", TestName: "one"},
		{FilePath: "/w/spec/a_spec.cr", TestName: "two"},
		{FilePath: "/w/spec/b_spec.cr", TestName: "three"},
	}

	groups := groupByFile(details)
	assert.Equal(t, []fileGroup{
		{File: "/w/spec/b_spec.cr", Indexes: []int{0, 2}},
		{File: "/w/spec/a_spec.cr", Indexes: []int{1}},
	}, groups)
}

func TestFailureLabel(t *testing.T) {
	assert.Equal(t, "[red]✗[white] adds", failureLabel(domain.TestFailure{TestName: "adds", Outcome: "failed"}, 1))
	assert.Equal(t, "[red]![white] adds", failureLabel(domain.TestFailure{TestName: "adds", Outcome: "errored"}, 1))
	assert.Equal(t, "[gray]✓ adds[white]", failureLabel(domain.TestFailure{TestName: "adds", Resolved: true}, 1))
	assert.Equal(t, "[red]✗[white] Test 3", failureLabel(domain.TestFailure{Outcome: "failed"}, 3))
}

func TestCountUnresolved(t *testing.T) {
	assert.Equal(t, 1, countUnresolved([]domain.TestFailure{{Resolved: true}, {}}))
}

func TestFormatFailureDetails(t *testing.T) {
	out := formatFailureDetails(domain.TestFailure{
		TestName: "divides by zero",
		FilePath: "/w/spec/div_spec.cr",
		Line:     12,
		Outcome:  "errored",
		Message:  "trace\nDivisionByZeroError",
		Duration: "1.5s",
	})

	assert.Contains(t, out, "[red]! divides by zero[white]")
	assert.Contains(t, out, "Location: /w/spec/div_spec.cr:12")
	assert.Contains(t, out, "Duration: 1.5s")
	assert.Contains(t, out, "trace\nDivisionByZeroError")
}

func TestFormatFailureStats(t *testing.T) {
	out := formatFailureStats(domain.TestFailure{TestName: "adds", Outcome: "failed", Resolved: true}, "")
	assert.Contains(t, out, "Unknown path")
	assert.Contains(t, out, "(resolved)")
}
