//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package dataset defines the tabular input contract consumed by the harness.
// The concrete file reader is an external collaborator; anything able to
// produce ordered field-value rows can feed an evaluation.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Row is a single tabular row as an ordered field-value map.
type Row map[string]string

// Value returns the trimmed value of the named column, or "" when absent.
func (r Row) Value(column string) string {
	return strings.TrimSpace(r[column])
}

// Has reports whether the named column holds a non-empty value in this row.
func (r Row) Has(column string) bool {
	return r.Value(column) != ""
}

// Dataset is an ordered collection of rows sharing one column set.
type Dataset struct {
	// Columns lists the physical column names in input order.
	Columns []string
	// Rows lists the data rows in input order.
	Rows []Row
}

// HasColumn reports whether the dataset declares the named column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// FieldMap binds the logical fields the harness consumes to physical column
// names. Bindings are configuration, validated once at dataset load time and
// never resolved per row.
type FieldMap struct {
	// UserQuery is the required column holding the final user message.
	UserQuery string `yaml:"user_query"`
	// PriorTurns is the optional column holding prior conversation turns as
	// a JSON array of {role, content} objects.
	PriorTurns string `yaml:"prior_turns"`
	// ResponseA is the optional column holding candidate A's response.
	ResponseA string `yaml:"response_a"`
	// ResponseB is the optional column holding candidate B's response.
	ResponseB string `yaml:"response_b"`
	// ChatbotRole is the optional column holding the per-row chatbot role.
	ChatbotRole string `yaml:"chatbot_role"`
	// Scenario is the optional column describing the conversation scenario.
	Scenario string `yaml:"scenario"`
	// ExpectedOutcome is the optional column describing the expected outcome.
	ExpectedOutcome string `yaml:"expected_outcome"`
}

// DefaultFieldMap returns the conventional column bindings.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		UserQuery:       "User Query",
		PriorTurns:      "Initial Conversation",
		ResponseA:       "Model A Response",
		ResponseB:       "Model B Response",
		ChatbotRole:     "Chatbot Role",
		Scenario:        "Scenario",
		ExpectedOutcome: "Expected Outcome",
	}
}

// Response returns the column bound to the candidate identified by id
// ("A" or "B"), or "" for an unknown id.
func (f FieldMap) Response(id string) string {
	switch id {
	case "A":
		return f.ResponseA
	case "B":
		return f.ResponseB
	default:
		return ""
	}
}

// Validate checks that the required bindings are present and that the
// bindings the dataset depends on resolve to declared columns.
func (f FieldMap) Validate(d *Dataset) error {
	if f.UserQuery == "" {
		return errors.New("user query column binding is empty")
	}
	if d != nil && !d.HasColumn(f.UserQuery) {
		return fmt.Errorf("user query column %q not found in dataset", f.UserQuery)
	}
	return nil
}
