//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package evalresult

import (
	"sort"

	"github.com/tagmeagain/LLMEval/evaluator"
	"github.com/tagmeagain/LLMEval/status"
)

// FromEvaluatorResult converts a judge verdict into a stored metric result.
// The score is rounded and the pass status is derived from the rounded
// value, so a stored score never contradicts its status at the threshold.
func FromEvaluatorResult(r *evaluator.Result) *MetricResult {
	if r == nil {
		return nil
	}
	score := Round(r.Score)
	st := status.EvalStatusFailed
	if score >= r.Threshold {
		st = status.EvalStatusPassed
	}
	return &MetricResult{
		MetricName: r.MetricName,
		Score:      score,
		Status:     st,
		Threshold:  r.Threshold,
		Rationale:  r.Rationale,
		JudgeModel: r.JudgeModel,
	}
}

// FailedMetric records a metric the judge could not evaluate for a
// candidate. The score is meaningless and the status is NotEvaluated.
func FailedMetric(name string, threshold float64, err error) *MetricResult {
	m := &MetricResult{
		MetricName: name,
		Status:     status.EvalStatusNotEvaluated,
		Threshold:  threshold,
	}
	if err != nil {
		m.Error = err.Error()
	}
	return m
}

// FinishCandidate derives the candidate's pass and partial flags from its
// metric results. A candidate passes when every succeeded metric met its
// threshold; metrics that failed to evaluate are excluded from the pass
// decision but set the partial flag.
func FinishCandidate(c *CandidateResult) {
	if c == nil {
		return
	}
	sort.SliceStable(c.Metrics, func(i, j int) bool {
		return c.Metrics[i].MetricName < c.Metrics[j].MetricName
	})
	var succeeded, failed int
	passed := true
	for _, m := range c.Metrics {
		if m.Failed() {
			failed++
			continue
		}
		succeeded++
		if m.Status != status.EvalStatusPassed {
			passed = false
		}
	}
	c.Passed = succeeded > 0 && passed
	c.Partial = failed > 0
}

// Compare builds per-metric head-to-head comparisons for the two
// candidates. A winner requires a strictly higher score; exact equality is
// a tie. Metrics missing a usable score on either side compare as none.
func Compare(a, b *CandidateResult) []*MetricComparison {
	if a == nil || b == nil {
		return nil
	}
	names := map[string]struct{}{}
	for _, m := range a.Metrics {
		names[m.MetricName] = struct{}{}
	}
	for _, m := range b.Metrics {
		names[m.MetricName] = struct{}{}
	}
	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	comparisons := make([]*MetricComparison, 0, len(ordered))
	for _, name := range ordered {
		ma, mb := a.Metric(name), b.Metric(name)
		cmp := &MetricComparison{MetricName: name, Winner: WinnerNone}
		if ma != nil && !ma.Failed() {
			cmp.ScoreA = ma.Score
		}
		if mb != nil && !mb.Failed() {
			cmp.ScoreB = mb.Score
		}
		if ma != nil && mb != nil && !ma.Failed() && !mb.Failed() {
			switch {
			case cmp.ScoreA > cmp.ScoreB:
				cmp.Winner = WinnerA
			case cmp.ScoreB > cmp.ScoreA:
				cmp.Winner = WinnerB
			default:
				cmp.Winner = WinnerTie
			}
		}
		comparisons = append(comparisons, cmp)
	}
	return comparisons
}

// Summarize folds the batch's case results and row errors into counters.
func Summarize(cases []*CaseResult, rowErrors []*RowError) *BatchSummary {
	summary := &BatchSummary{
		TotalRows:        len(cases) + len(rowErrors),
		ValidationErrors: len(rowErrors),
	}
	tallies := map[string]*MetricTally{}
	for _, cs := range cases {
		switch cs.State {
		case status.CaseStateAggregated:
			summary.EvaluatedCases++
		case status.CaseStatePartialFailure:
			summary.EvaluatedCases++
			summary.PartialFailures++
		default:
			summary.FailedCases++
		}
		for _, cand := range cs.Candidates {
			if cand.Error != "" {
				summary.CandidateFailures++
			}
			for _, m := range cand.Metrics {
				if m.Failed() {
					summary.MetricFailures++
				}
			}
		}
		for _, cmp := range cs.Comparisons {
			tally, ok := tallies[cmp.MetricName]
			if !ok {
				tally = &MetricTally{MetricName: cmp.MetricName}
				tallies[cmp.MetricName] = tally
			}
			switch cmp.Winner {
			case WinnerA:
				tally.WinsA++
			case WinnerB:
				tally.WinsB++
			case WinnerTie:
				tally.Ties++
			}
		}
	}
	for _, tally := range tallies {
		summary.Tallies = append(summary.Tallies, tally)
	}
	sort.SliceStable(summary.Tallies, func(i, j int) bool {
		return summary.Tallies[i].MetricName < summary.Tallies[j].MetricName
	})
	return summary
}
