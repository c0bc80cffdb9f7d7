package controller

import "errors"

var (
	// ErrAmbiguousSelection is returned for a run request carrying both an
	// include and an exclude set.
	ErrAmbiguousSelection = errors.New("include and exclude selections cannot be combined")

	// ErrEmptySuite is returned when a report holds no test cases
	ErrEmptySuite = errors.New("no tests found")

	// ErrNotWorkspace is returned when adding a folder without a manifest
	// and spec directory.
	ErrNotWorkspace = errors.New("not a crystal workspace")
)
