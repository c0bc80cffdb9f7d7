// Package reconcile maps the test cases of a runner report back onto the
// nodes of the test tree.
package reconcile

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crspec/internal/domain"
	"crspec/internal/tree"
)

// Reconciler records report outcomes on tree nodes
type Reconciler struct {
	store  *tree.Store
	logger zerolog.Logger
}

// New creates a new Reconciler
func New(store *tree.Store, logger zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Reconcile matches every record of the report to its tree node and returns
// one event per matched, in-scope node, in report order. Records without a
// node are dropped.
func (r *Reconciler) Reconcile(report *domain.TestSuiteReport, req domain.RunRequest) []domain.OutcomeEvent {
	if report == nil {
		return nil
	}

	includes := req.IncludeSet()
	excludes := req.ExcludeSet()
	events := make([]domain.OutcomeEvent, 0, len(report.TestCases))

	for _, tc := range report.TestCases {
		key := tc.Key()

		ancestry := r.store.Ancestry(key)
		if ancestry == nil {
			r.logger.Debug().Str("test", key).Msg("no tree node for reported test case")
			continue
		}
		if !InScope(ancestry, includes, excludes) {
			continue
		}

		event := Event(key, tc)
		r.store.SetOutcome(key, event.Outcome, event.Duration, event.Message)
		events = append(events, event)
	}

	return events
}

// InScope decides whether a node, given as its ancestry (node ID first),
// belongs to a selection. With includes the node or one of its ancestors
// must be included; with excludes none of them may be excluded.
func InScope(ancestry []string, includes, excludes map[string]bool) bool {
	if len(includes) > 0 && !anyIn(ancestry, includes) {
		return false
	}
	if len(excludes) > 0 && anyIn(ancestry, excludes) {
		return false
	}
	return true
}

func anyIn(ids []string, set map[string]bool) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}

// Event builds the outcome event of a record. Errors are checked before
// failures.
func Event(nodeID string, tc domain.TestCaseRecord) domain.OutcomeEvent {
	event := domain.OutcomeEvent{
		NodeID:   nodeID,
		Name:     tc.Name,
		File:     tc.File,
		Outcome:  tc.Outcome(),
		Duration: time.Duration(tc.Time * float64(time.Second)),
	}
	if tc.Line != nil {
		event.Line = *tc.Line
	}

	switch event.Outcome {
	case domain.OutcomeErrored:
		event.Message = Message(tc.Errors)
	case domain.OutcomeFailed:
		event.Message = Message(tc.Failures)
	}
	return event
}

// Message concatenates detail entries as "inner\nmessage", separated by a
// blank line, in encounter order.
func Message(details []domain.Detail) string {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		parts = append(parts, d.Inner+"\n"+d.Message)
	}
	return strings.Join(parts, "\n\n")
}
