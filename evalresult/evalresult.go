//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package evalresult defines the aggregated result model of an evaluation
// batch and the managers that persist reports.
package evalresult

import (
	"math"
	"time"

	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/status"
)

// Winner identifies the outcome of a per-metric comparison.
type Winner string

const (
	// WinnerA means candidate A scored strictly higher.
	WinnerA Winner = "A"
	// WinnerB means candidate B scored strictly higher.
	WinnerB Winner = "B"
	// WinnerTie means both candidates scored exactly the same.
	WinnerTie Winner = "tie"
	// WinnerNone means at least one side has no score for the metric.
	WinnerNone Winner = "none"
)

// MetricResult is one metric's judged outcome for one candidate. Scores are
// rounded to four decimal places. A non-empty Error marks a metric failure:
// the judge could not produce a usable verdict and Status is NotEvaluated.
type MetricResult struct {
	MetricName string            `json:"metricName"`
	Score      float64           `json:"score"`
	Status     status.EvalStatus `json:"status"`
	Threshold  float64           `json:"threshold"`
	Rationale  string            `json:"rationale,omitempty"`
	JudgeModel string            `json:"judgeModel,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Failed reports whether the metric itself failed to evaluate.
func (m *MetricResult) Failed() bool {
	return m != nil && m.Error != ""
}

// CandidateResult collects one candidate's metric results for a case.
type CandidateResult struct {
	Candidate conversation.Candidate `json:"candidate"`
	Response  string                 `json:"response,omitempty"`
	Metrics   []*MetricResult        `json:"metrics,omitempty"`
	// Passed is true when every succeeded metric met its threshold and at
	// least one metric succeeded.
	Passed bool `json:"passed"`
	// Partial is true when some but not all metrics failed to evaluate.
	Partial bool `json:"partial,omitempty"`
	// Error is set when the candidate's response could not be obtained at
	// all; no metrics were evaluated in that case.
	Error string `json:"error,omitempty"`
}

// Metric returns the candidate's result for the named metric, or nil.
func (c *CandidateResult) Metric(name string) *MetricResult {
	if c == nil {
		return nil
	}
	for _, m := range c.Metrics {
		if m.MetricName == name {
			return m
		}
	}
	return nil
}

// MetricComparison is the head-to-head outcome of one metric across both
// candidates.
type MetricComparison struct {
	MetricName string  `json:"metricName"`
	ScoreA     float64 `json:"scoreA"`
	ScoreB     float64 `json:"scoreB"`
	Winner     Winner  `json:"winner"`
}

// CaseResult is the full outcome of one dataset row.
type CaseResult struct {
	CaseID      string              `json:"caseId"`
	RowIndex    int                 `json:"rowIndex"`
	Scenario    string              `json:"scenario,omitempty"`
	State       status.CaseState    `json:"state"`
	Candidates  []*CandidateResult  `json:"candidates,omitempty"`
	Comparisons []*MetricComparison `json:"comparisons,omitempty"`
	// Error is set when the whole case failed before evaluation.
	Error string `json:"error,omitempty"`
}

// Candidate returns the case's result for the given candidate, or nil.
func (c *CaseResult) Candidate(id conversation.Candidate) *CandidateResult {
	if c == nil {
		return nil
	}
	for _, cand := range c.Candidates {
		if cand.Candidate == id {
			return cand
		}
	}
	return nil
}

// MetricTally accumulates per-metric win counts across a batch.
type MetricTally struct {
	MetricName string `json:"metricName"`
	WinsA      int    `json:"winsA"`
	WinsB      int    `json:"winsB"`
	Ties       int    `json:"ties"`
}

// BatchSummary rolls the whole batch up into counters.
type BatchSummary struct {
	TotalRows         int            `json:"totalRows"`
	EvaluatedCases    int            `json:"evaluatedCases"`
	PartialFailures   int            `json:"partialFailures"`
	FailedCases       int            `json:"failedCases"`
	ValidationErrors  int            `json:"validationErrors"`
	CandidateFailures int            `json:"candidateFailures"`
	MetricFailures    int            `json:"metricFailures"`
	Tallies           []*MetricTally `json:"tallies,omitempty"`
}

// RowError records a dataset row rejected before evaluation.
type RowError struct {
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// Report is the stable output of one evaluation batch. Cases appear in
// dataset row order regardless of execution interleaving.
type Report struct {
	ReportID        string             `json:"reportId"`
	Mode            string             `json:"mode"`
	JudgeModel      string             `json:"judgeModel,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	Duration        time.Duration      `json:"duration"`
	Cases           []*CaseResult      `json:"cases,omitempty"`
	Summary         *BatchSummary      `json:"summary,omitempty"`
	RowErrors       []*RowError        `json:"rowErrors,omitempty"`
	ExcludedMetrics []metric.Exclusion `json:"excludedMetrics,omitempty"`
}

// Round normalizes a score to four decimal places so identical judgements
// serialize identically across runs.
func Round(score float64) float64 {
	return math.Round(score*10000) / 10000
}
