package parser

import "crspec/internal/domain"

// ReportParser converts a raw runner report into a test suite
type ReportParser interface {
	Parse(raw []byte) (*domain.TestSuiteReport, error)
}
