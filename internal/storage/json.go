package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"crspec/internal/domain"
)

// ErrNoResults is returned by Load before any run was stored
var ErrNoResults = errors.New("no stored test results")

// Save writes the run output to the configured JSON file.
func (s *JSONStorage) Save(output *domain.TestResultsOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last run output from the configured JSON file.
func (s *JSONStorage) Load() (*domain.TestResultsOutput, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoResults, s.path)
		}
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output domain.TestResultsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}

// SetResolved marks the failure of a node as resolved, or not, and saves.
func (s *JSONStorage) SetResolved(nodeID string, resolved bool) error {
	output, err := s.Load()
	if err != nil {
		return err
	}

	found := false
	for i := range output.Details {
		if output.Details[i].NodeID == nodeID {
			output.Details[i].Resolved = resolved
			found = true
		}
	}
	if !found {
		return fmt.Errorf("no stored failure for %s", nodeID)
	}
	return s.Save(output)
}
