package domain

import "time"

// Outcome is the status recorded for a test case
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomePassed
	OutcomeFailed
	OutcomeErrored
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	case OutcomeErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// OutcomeEvent is emitted by the reconciler for every matched test case
type OutcomeEvent struct {
	NodeID   string
	Name     string
	File     string
	Line     int // 1-based, 0 when unknown
	Outcome  Outcome
	Message  string
	Duration time.Duration
}

// RunRequest selects which part of the tree a run covers. Both fields hold
// node IDs. Leaving both empty runs everything in the tree.
type RunRequest struct {
	Include []string
	Exclude []string
}

// IncludeSet returns the include IDs as a set, nil when none were given
func (r RunRequest) IncludeSet() map[string]bool {
	return toSet(r.Include)
}

// ExcludeSet returns the exclude IDs as a set, nil when none were given
func (r RunRequest) ExcludeSet() map[string]bool {
	return toSet(r.Exclude)
}

// Ambiguous reports whether both an include and an exclude set were given
func (r RunRequest) Ambiguous() bool {
	return len(r.Include) > 0 && len(r.Exclude) > 0
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// TestResultsMeta contains metadata about a stored run
type TestResultsMeta struct {
	RunID           string  `json:"run_id"`
	Workspaces      int     `json:"workspaces"`
	TotalTestCases  int     `json:"total_test_cases"`
	PassedTestCases int     `json:"passed_test_cases"`
	FailedTestCases int     `json:"failed_test_cases"`
	ErroredCases    int     `json:"errored_test_cases"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Timestamp       string  `json:"timestamp"`
	Error           string  `json:"error,omitempty"`
}

// TestResultsOutput is the complete stored structure of a run
type TestResultsOutput struct {
	Meta    TestResultsMeta `json:"meta"`
	Details []TestFailure   `json:"details"`
}
