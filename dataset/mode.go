//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package dataset

import (
	"fmt"
	"strings"
)

// Mode selects how candidate responses are obtained for a dataset.
type Mode int

const (
	// ModeUnspecified lets the resolver pick a mode from the column set.
	ModeUnspecified Mode = iota
	// ModeGenerate produces both candidate responses on demand.
	ModeGenerate
	// ModePrerecorded takes both candidate responses verbatim from the input.
	ModePrerecorded
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeGenerate:
		return "generate"
	case ModePrerecorded:
		return "prerecorded"
	default:
		return "unspecified"
	}
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeUnspecified, nil
	case "generate":
		return ModeGenerate, nil
	case "prerecorded", "pre_recorded":
		return ModePrerecorded, nil
	default:
		return ModeUnspecified, fmt.Errorf("unknown mode %q", s)
	}
}

// ModeConflictError reports a forced prerecorded mode that the dataset cannot
// satisfy. It is fatal for the entire dataset and is raised before any
// external call is made.
type ModeConflictError struct {
	// MissingColumns lists response columns absent from the dataset.
	MissingColumns []string
	// MissingRows lists row indexes lacking a populated response for a
	// required candidate.
	MissingRows []int
}

// Error implements the error interface.
func (e *ModeConflictError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.MissingColumns) > 0 {
		parts = append(parts, fmt.Sprintf("missing response columns %v", e.MissingColumns))
	}
	if len(e.MissingRows) > 0 {
		parts = append(parts, fmt.Sprintf("rows %v lack a populated candidate response", e.MissingRows))
	}
	return "prerecorded mode forced but " + strings.Join(parts, "; ")
}

// ResolveMode decides Generate versus Prerecorded for a whole dataset from
// its column set. It is pure and idempotent: the same column set always
// yields the same mode, evaluated once per dataset and never re-derived per
// row.
func ResolveMode(d *Dataset, fields FieldMap) Mode {
	if fields.ResponseA != "" && fields.ResponseB != "" &&
		d.HasColumn(fields.ResponseA) && d.HasColumn(fields.ResponseB) {
		return ModePrerecorded
	}
	return ModeGenerate
}

// EnsurePrerecorded verifies that every row carries a populated response for
// both candidates. It backs the forced-prerecorded override: failing here
// prevents an unintended fallback to costly generation calls.
func EnsurePrerecorded(d *Dataset, fields FieldMap) error {
	conflict := &ModeConflictError{}
	for _, column := range []string{fields.ResponseA, fields.ResponseB} {
		if column == "" || !d.HasColumn(column) {
			conflict.MissingColumns = append(conflict.MissingColumns, column)
		}
	}
	if len(conflict.MissingColumns) > 0 {
		return conflict
	}
	for i, row := range d.Rows {
		if !row.Has(fields.ResponseA) || !row.Has(fields.ResponseB) {
			conflict.MissingRows = append(conflict.MissingRows, i)
		}
	}
	if len(conflict.MissingRows) > 0 {
		return conflict
	}
	return nil
}
