package ui

import "crspec/internal/domain"

// Viewer displays the failures of a stored run
type Viewer interface {
	View(results *domain.TestResultsOutput) error
}
