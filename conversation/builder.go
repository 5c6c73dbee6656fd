//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/tagmeagain/LLMEval/dataset"
)

// ValidationError is a row-indexed validation failure. It is surfaced per
// row and never aborts the batch unless the caller requests abort-on-first-error.
type ValidationError struct {
	// Row is the zero-based row index within the dataset.
	Row int
	// Field is the logical field that failed validation.
	Field string
	// Reason describes the failure.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: field %q: %s", e.Row, e.Field, e.Reason)
}

// Pair holds the two per-candidate records built from one row. Both records
// share an identical ordered prefix of user turns and differ only in the
// final assistant content.
type Pair struct {
	// A is candidate A's conversation record.
	A *Record
	// B is candidate B's conversation record.
	B *Record
}

// Get returns the record for the given candidate.
func (p *Pair) Get(c Candidate) *Record {
	if c == CandidateA {
		return p.A
	}
	return p.B
}

// Builder turns raw rows into per-candidate conversation records.
// It is a pure transform with no side effects.
type Builder struct {
	fields      dataset.FieldMap
	defaultRole string
	context     []string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithDefaultRole sets the dataset-wide chatbot role used when a row does
// not carry its own.
func WithDefaultRole(role string) BuilderOption {
	return func(b *Builder) { b.defaultRole = role }
}

// WithContext sets dataset-wide free-text context (e.g. the system prompt)
// attached to every record.
func WithContext(context ...string) BuilderOption {
	return func(b *Builder) { b.context = context }
}

// NewBuilder creates a Builder with the given column bindings.
func NewBuilder(fields dataset.FieldMap, opt ...BuilderOption) *Builder {
	b := &Builder{fields: fields}
	for _, o := range opt {
		o(b)
	}
	return b
}

// Build parses one raw row into a record pair, or fails with a structured,
// row-indexed validation error.
func (b *Builder) Build(rowIndex int, row dataset.Row) (*Pair, error) {
	query := row.Value(b.fields.UserQuery)
	if query == "" {
		return nil, &ValidationError{Row: rowIndex, Field: b.fields.UserQuery, Reason: "user query is empty"}
	}
	prior, err := b.parsePriorTurns(rowIndex, row)
	if err != nil {
		return nil, err
	}
	meta := b.metadata(row)
	pair := &Pair{}
	for _, candidate := range Candidates {
		turns := append(append([]Turn(nil), prior...), Turn{Role: RoleUser, Content: query})
		if column := b.fields.Response(string(candidate)); column != "" && row.Has(column) {
			turns = append(turns, Turn{Role: RoleAssistant, Content: row.Value(column)})
		}
		record, err := NewRecord(turns, meta)
		if err != nil {
			return nil, &ValidationError{Row: rowIndex, Field: b.fields.PriorTurns, Reason: err.Error()}
		}
		if candidate == CandidateA {
			pair.A = record
		} else {
			pair.B = record
		}
	}
	return pair, nil
}

// parsePriorTurns decodes the prior-turns column. An absent or empty value
// means no prior turns; anything present must be a JSON array of
// {role, content} objects with conversation roles.
func (b *Builder) parsePriorTurns(rowIndex int, row dataset.Row) ([]Turn, error) {
	if b.fields.PriorTurns == "" {
		return nil, nil
	}
	raw := row.Value(b.fields.PriorTurns)
	if raw == "" {
		return nil, nil
	}
	var turns []Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, &ValidationError{
			Row:    rowIndex,
			Field:  b.fields.PriorTurns,
			Reason: fmt.Sprintf("prior turns are not a JSON array of turns: %v", err),
		}
	}
	for i, turn := range turns {
		if !turn.Role.IsValid() {
			return nil, &ValidationError{
				Row:    rowIndex,
				Field:  b.fields.PriorTurns,
				Reason: fmt.Sprintf("prior turn %d has invalid role %q", i, turn.Role),
			}
		}
	}
	return turns, nil
}

// metadata resolves per-row metadata. The chatbot role resolution order is
// explicit per-row value, then the dataset-wide default, then unresolved.
func (b *Builder) metadata(row dataset.Row) Metadata {
	meta := Metadata{
		Scenario:        row.Value(b.fields.Scenario),
		ExpectedOutcome: row.Value(b.fields.ExpectedOutcome),
		ChatbotRole:     row.Value(b.fields.ChatbotRole),
		Context:         b.context,
	}
	if meta.ChatbotRole == "" {
		meta.ChatbotRole = b.defaultRole
	}
	return meta
}
