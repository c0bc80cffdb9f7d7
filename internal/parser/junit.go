package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"crspec/internal/domain"
)

// MalformedReportError is returned when a report is not well-formed JUnit markup
type MalformedReportError struct {
	Err error
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed test report: %v", e.Err)
}

func (e *MalformedReportError) Unwrap() error {
	return e.Err
}

type junitSuites struct {
	Suites []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     *int            `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	File      string        `xml:"file,attr"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Line      *int          `xml:"line,attr"`
	Failures  []junitDetail `xml:"failure"`
	Errors    []junitDetail `xml:"error"`
}

type junitDetail struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Inner   string `xml:",chardata"`
}

// JUnitParser parses the JUnit XML written by `crystal spec --junit_output`
type JUnitParser struct{}

// NewJUnitParser creates a new JUnitParser
func NewJUnitParser() *JUnitParser {
	return &JUnitParser{}
}

// Parse converts a raw report into a TestSuiteReport. The root element may be
// a single <testsuite> or a <testsuites> wrapper, whose suites are merged.
func (p *JUnitParser) Parse(raw []byte) (*domain.TestSuiteReport, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &MalformedReportError{Err: errors.New("no root element")}
			}
			return nil, &MalformedReportError{Err: err}
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "testsuite":
			var suite junitSuite
			if err := decoder.DecodeElement(&suite, &start); err != nil {
				return nil, &MalformedReportError{Err: err}
			}
			return convertSuite(suite), nil
		case "testsuites":
			var suites junitSuites
			if err := decoder.DecodeElement(&suites, &start); err != nil {
				return nil, &MalformedReportError{Err: err}
			}
			return mergeSuites(suites.Suites), nil
		default:
			return nil, &MalformedReportError{Err: fmt.Errorf("unexpected root element <%s>", start.Name.Local)}
		}
	}
}

func convertSuite(suite junitSuite) *domain.TestSuiteReport {
	report := &domain.TestSuiteReport{
		Name:      suite.Name,
		Failures:  suite.Failures,
		Errors:    suite.Errors,
		Skipped:   suite.Skipped,
		Time:      suite.Time,
		TestCases: make([]domain.TestCaseRecord, 0, len(suite.TestCases)),
	}

	for _, tc := range suite.TestCases {
		report.TestCases = append(report.TestCases, domain.TestCaseRecord{
			File:      tc.File,
			Name:      tc.Name,
			ClassName: tc.ClassName,
			Time:      tc.Time,
			Line:      tc.Line,
			Failures:  convertDetails(tc.Failures),
			Errors:    convertDetails(tc.Errors),
		})
	}

	// A missing tests attribute falls back to the number of cases
	if suite.Tests != nil {
		report.Tests = *suite.Tests
	} else {
		report.Tests = len(report.TestCases)
	}

	return report
}

func mergeSuites(suites []junitSuite) *domain.TestSuiteReport {
	merged := &domain.TestSuiteReport{TestCases: []domain.TestCaseRecord{}}
	var names []string

	for _, suite := range suites {
		report := convertSuite(suite)
		if report.Name != "" {
			names = append(names, report.Name)
		}
		merged.Tests += report.Tests
		merged.Failures += report.Failures
		merged.Errors += report.Errors
		merged.Skipped += report.Skipped
		merged.Time += report.Time
		merged.TestCases = append(merged.TestCases, report.TestCases...)
	}

	merged.Name = strings.Join(names, ", ")
	return merged
}

func convertDetails(details []junitDetail) []domain.Detail {
	if details == nil {
		return nil
	}
	converted := make([]domain.Detail, 0, len(details))
	for _, d := range details {
		converted = append(converted, domain.Detail{
			Message: d.Message,
			Type:    d.Type,
			Inner:   d.Inner,
		})
	}
	return converted
}
