package domain

// TestFailure represents a failed or errored test case of a stored run
type TestFailure struct {
	NodeID   string `json:"node_id"`
	TestName string `json:"test_name"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Outcome  string `json:"outcome"`
	Message  string `json:"message"`
	Duration string `json:"duration"`
	Resolved bool   `json:"resolved,omitempty"` // Track if test case is marked as resolved
}

// FailureFromEvent converts a non-passing outcome event into a TestFailure
func FailureFromEvent(ev OutcomeEvent) TestFailure {
	return TestFailure{
		NodeID:   ev.NodeID,
		TestName: ev.Name,
		FilePath: ev.File,
		Line:     ev.Line,
		Outcome:  ev.Outcome.String(),
		Message:  ev.Message,
		Duration: ev.Duration.String(),
	}
}
