package domain

// TestSuiteReport is the parsed result of one runner invocation
type TestSuiteReport struct {
	Name      string
	Tests     int // Number of tests the runner claims to have executed
	Failures  int
	Errors    int
	Skipped   int
	Time      float64 // Seconds
	TestCases []TestCaseRecord
}

// Empty reports whether the suite is the degenerate zero-test case
func (r *TestSuiteReport) Empty() bool {
	return r == nil || (r.Tests == 0 && len(r.TestCases) == 0)
}

// Detail is a single failure or error entry attached to a test case
type Detail struct {
	Message string // message attribute
	Type    string // type attribute, optional
	Inner   string // element text
}

// TestCaseRecord represents one reported test
type TestCaseRecord struct {
	File      string  // Absolute path of the spec file
	Name      string  // Example description
	ClassName string  // classname attribute, kept for display only
	Time      float64 // Elapsed seconds
	Line      *int    // 1-based source line, nil when not reported

	// nil means absent. A non-nil empty slice still counts as present.
	Failures []Detail
	Errors   []Detail
}

// Key returns the identity key of the record
func (tc TestCaseRecord) Key() string {
	return IdentityKey(tc.File, tc.Name)
}

// HasFailures reports whether the record carries a failure list
func (tc TestCaseRecord) HasFailures() bool {
	return tc.Failures != nil
}

// HasErrors reports whether the record carries an error list
func (tc TestCaseRecord) HasErrors() bool {
	return tc.Errors != nil
}

// Outcome derives the record outcome. Errors take precedence over failures.
func (tc TestCaseRecord) Outcome() Outcome {
	switch {
	case tc.HasErrors():
		return OutcomeErrored
	case tc.HasFailures():
		return OutcomeFailed
	default:
		return OutcomePassed
	}
}

// IdentityKey joins a file path and a test name into the key used across
// the tree and across runner invocations.
func IdentityKey(file, name string) string {
	return file + " " + name
}
