package storage

import (
	"crspec/internal/config"
	"crspec/internal/domain"
)

// Storage persists and loads the results of the last run (e.g. for the failures viewer).
type Storage interface {
	Save(output *domain.TestResultsOutput) error
	Load() (*domain.TestResultsOutput, error)
	// SetResolved flags a stored failure as resolved and writes the output back.
	SetResolved(nodeID string, resolved bool) error
}

// JSONStorage stores results in a JSON file under the configured output path.
type JSONStorage struct {
	path string
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{path: cfg.GetOutputPath()}
}

// Path returns the results file location
func (s *JSONStorage) Path() string {
	return s.path
}
