//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package metric provides the quality-dimension definitions evaluated by the
// judge.
package metric

// DefaultThreshold is the uniform pass threshold applied when a definition
// or override does not set its own.
const DefaultThreshold = 0.5

// Definition describes one quality dimension: its rubric for the judge, its
// pass threshold and the record fields it reads.
type Definition struct {
	// Name identifies the metric.
	Name string `json:"name"`
	// Description is a short human-readable summary.
	Description string `json:"description,omitempty"`
	// Rubric lists the evaluation steps given to the judge verbatim.
	Rubric []string `json:"rubric"`
	// Threshold is the minimum passing score.
	Threshold float64 `json:"threshold"`
	// RequiresRole marks metrics that cannot run without a resolved chatbot
	// role.
	RequiresRole bool `json:"requiresRole,omitempty"`
	// UsesContext marks holistic metrics that read the free-text context.
	UsesContext bool `json:"usesContext,omitempty"`
	// WindowSize, when positive, applies the rubric per assistant turn over
	// a sliding window of that many turns instead of the whole transcript.
	WindowSize int `json:"windowSize,omitempty"`
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() *Definition {
	out := *d
	out.Rubric = append([]string(nil), d.Rubric...)
	return &out
}
