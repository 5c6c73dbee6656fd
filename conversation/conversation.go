//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package conversation provides the multi-turn conversation records that are
// the unit of evaluation.
package conversation

import (
	"errors"
	"fmt"
)

// Role identifies the author of a turn.
type Role string

const (
	// RoleUser marks a user-authored turn.
	RoleUser Role = "user"
	// RoleAssistant marks an assistant-authored turn.
	RoleAssistant Role = "assistant"
)

// IsValid reports whether the role is one of the conversation roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Candidate identifies one of the two competing response variants.
type Candidate string

const (
	// CandidateA is the first competing variant (typically the base model).
	CandidateA Candidate = "A"
	// CandidateB is the second competing variant (typically the challenger).
	CandidateB Candidate = "B"
)

// Candidates lists both candidates in comparison order.
var Candidates = []Candidate{CandidateA, CandidateB}

// Turn is a single role-tagged utterance.
type Turn struct {
	// Role is the author of the turn.
	Role Role `json:"role"`
	// Content is the utterance text.
	Content string `json:"content"`
}

// Metadata carries the per-case context attached to a record.
type Metadata struct {
	// Scenario describes the conversation scenario.
	Scenario string `json:"scenario,omitempty"`
	// ExpectedOutcome describes what a good conversation should achieve.
	ExpectedOutcome string `json:"expectedOutcome,omitempty"`
	// ChatbotRole is the role the assistant is expected to adhere to.
	ChatbotRole string `json:"chatbotRole,omitempty"`
	// Context holds free-text context (e.g. the system prompt) available to
	// context-aware metrics.
	Context []string `json:"context,omitempty"`
}

// Record is an immutable ordered turn sequence plus metadata. A record is
// created once per row and candidate and read concurrently by every
// dispatched metric, so accessors return copies and there are no mutators.
type Record struct {
	turns []Turn
	meta  Metadata
}

// NewRecord validates the turn sequence and constructs a record.
// An assistant turn must immediately follow a user turn; assistant-first and
// back-to-back assistant turns are rejected.
func NewRecord(turns []Turn, meta Metadata) (*Record, error) {
	if len(turns) == 0 {
		return nil, errors.New("record has no turns")
	}
	for i, turn := range turns {
		if !turn.Role.IsValid() {
			return nil, fmt.Errorf("turn %d: invalid role %q", i, turn.Role)
		}
		if turn.Role == RoleAssistant && (i == 0 || turns[i-1].Role != RoleUser) {
			return nil, fmt.Errorf("turn %d: assistant turn without a preceding user turn", i)
		}
	}
	r := &Record{
		turns: make([]Turn, len(turns)),
		meta:  meta,
	}
	copy(r.turns, turns)
	r.meta.Context = append([]string(nil), meta.Context...)
	return r, nil
}

// Turns returns a copy of the ordered turn sequence.
func (r *Record) Turns() []Turn {
	out := make([]Turn, len(r.turns))
	copy(out, r.turns)
	return out
}

// Len returns the number of turns.
func (r *Record) Len() int {
	return len(r.turns)
}

// Metadata returns a copy of the record metadata.
func (r *Record) Metadata() Metadata {
	meta := r.meta
	meta.Context = append([]string(nil), r.meta.Context...)
	return meta
}

// HasFinalAssistant reports whether the record ends with an assistant turn.
func (r *Record) HasFinalAssistant() bool {
	return len(r.turns) > 0 && r.turns[len(r.turns)-1].Role == RoleAssistant
}

// FinalAssistant returns the content of the trailing assistant turn.
func (r *Record) FinalAssistant() (string, bool) {
	if !r.HasFinalAssistant() {
		return "", false
	}
	return r.turns[len(r.turns)-1].Content, true
}

// WithAssistant returns a new record with an assistant turn appended.
// The receiver is left untouched.
func (r *Record) WithAssistant(content string) (*Record, error) {
	turns := append(r.Turns(), Turn{Role: RoleAssistant, Content: content})
	return NewRecord(turns, r.meta)
}

// UserPrefix returns the ordered user-authored turns before the final
// assistant turn, used to assert that both candidates share one prefix.
func (r *Record) UserPrefix() []Turn {
	var out []Turn
	for _, turn := range r.turns {
		if turn.Role == RoleUser {
			out = append(out, turn)
		}
	}
	return out
}
