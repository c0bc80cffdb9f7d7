package controller

import (
	"time"

	"github.com/google/uuid"

	"crspec/internal/domain"
)

// Progress receives cumulative counts while a run advances
type Progress interface {
	Update(passed, failed int)
	Finish()
}

// RunSession collects the outcome events of one run request
type RunSession struct {
	ID         string
	Request    domain.RunRequest
	Workspaces int
	Events     []domain.OutcomeEvent
	Started    time.Time
	Duration   time.Duration
	Err        error
}

func newSession(req domain.RunRequest) *RunSession {
	return &RunSession{
		ID:      uuid.NewString(),
		Request: req,
		Started: time.Now(),
	}
}

// Counts returns the number of passed, failed and errored events
func (s *RunSession) Counts() (passed, failed, errored int) {
	for _, ev := range s.Events {
		switch ev.Outcome {
		case domain.OutcomePassed:
			passed++
		case domain.OutcomeFailed:
			failed++
		case domain.OutcomeErrored:
			errored++
		}
	}
	return passed, failed, errored
}

// Results builds the stored representation of the session
func (s *RunSession) Results() domain.TestResultsOutput {
	passed, failed, errored := s.Counts()

	out := domain.TestResultsOutput{
		Meta: domain.TestResultsMeta{
			RunID:           s.ID,
			Workspaces:      s.Workspaces,
			TotalTestCases:  len(s.Events),
			PassedTestCases: passed,
			FailedTestCases: failed,
			ErroredCases:    errored,
			Duration:        s.Duration.Round(time.Millisecond).String(),
			DurationSeconds: s.Duration.Seconds(),
			Timestamp:       s.Started.Format(time.RFC3339),
		},
		Details: []domain.TestFailure{},
	}
	if s.Err != nil {
		out.Meta.Error = s.Err.Error()
	}

	for _, ev := range s.Events {
		if ev.Outcome == domain.OutcomeFailed || ev.Outcome == domain.OutcomeErrored {
			out.Details = append(out.Details, domain.FailureFromEvent(ev))
		}
	}
	return out
}
