//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package llmeval

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmeagain/LLMEval/config"
	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/dataset"
	"github.com/tagmeagain/LLMEval/evalresult"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/model"
	"github.com/tagmeagain/LLMEval/status"
)

// scriptedModel returns a fixed body for every call and counts calls.
type scriptedModel struct {
	name  string
	body  string
	calls atomic.Int64
}

func (m *scriptedModel) Info() model.Info { return model.Info{Name: m.name} }

func (m *scriptedModel) GenerateContent(_ context.Context, req *model.Request) (*model.Response, error) {
	n := m.calls.Add(1)
	body := m.body
	if body == "" {
		body = fmt.Sprintf("%s reply %d", m.name, n)
	}
	return &model.Response{Content: body, Model: m.name}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Judge = &config.ModelConfig{Model: "fake-judge"}
	cfg.DefaultRole = "support agent"
	cfg.Metrics.Set = config.MetricSetReduced
	return cfg
}

func prerecordedDataset(fields dataset.FieldMap) *dataset.Dataset {
	return &dataset.Dataset{
		Columns: []string{fields.UserQuery, fields.ResponseA, fields.ResponseB},
		Rows: []dataset.Row{
			{fields.UserQuery: "q1", fields.ResponseA: "a1", fields.ResponseB: "b1"},
			{fields.UserQuery: "", fields.ResponseA: "a2", fields.ResponseB: "b2"},
			{fields.UserQuery: "q3", fields.ResponseA: "a3", fields.ResponseB: "b3"},
		},
	}
}

func TestEvaluatePrerecordedEndToEnd(t *testing.T) {
	cfg := testConfig()
	judge := &scriptedModel{name: "fake-judge", body: "score: 0.9\nreasoning: solid"}
	e, err := New(cfg, WithJudgeModel(judge))
	require.NoError(t, err)
	defer e.Close()

	report, err := e.Evaluate(context.Background(), prerecordedDataset(cfg.Columns))
	require.NoError(t, err)

	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, "prerecorded", report.Mode)
	assert.Equal(t, "fake-judge", report.JudgeModel)

	// The empty-query row is rejected, the rest evaluate in row order.
	require.Len(t, report.Cases, 2)
	assert.Equal(t, 0, report.Cases[0].RowIndex)
	assert.Equal(t, 2, report.Cases[1].RowIndex)
	require.Len(t, report.RowErrors, 1)
	assert.Equal(t, 1, report.RowErrors[0].Row)

	for _, cs := range report.Cases {
		assert.Equal(t, status.CaseStateAggregated, cs.State)
		require.Len(t, cs.Candidates, 2)
		for _, cand := range cs.Candidates {
			assert.True(t, cand.Passed)
			// Reduced set: 4 metrics per candidate.
			assert.Len(t, cand.Metrics, 4)
		}
		for _, cmp := range cs.Comparisons {
			assert.Equal(t, evalresult.WinnerTie, cmp.Winner)
		}
	}

	summary := report.Summary
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 2, summary.EvaluatedCases)
	assert.Equal(t, 1, summary.ValidationErrors)
	assert.Zero(t, summary.FailedCases)
}

func TestEvaluateForcedPrerecordedConflict(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "pre_recorded"
	judge := &scriptedModel{name: "fake-judge", body: "score: 0.9\nreasoning: solid"}
	e, err := New(cfg, WithJudgeModel(judge))
	require.NoError(t, err)
	defer e.Close()

	ds := prerecordedDataset(cfg.Columns)
	ds.Rows[2][cfg.Columns.ResponseB] = ""

	_, err = e.Evaluate(context.Background(), ds)
	var conflict *dataset.ModeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int{2}, conflict.MissingRows)
	// Fails before any judge call.
	assert.Zero(t, judge.calls.Load())
}

// stalledModel blocks every call until the caller's context expires.
type stalledModel struct{ name string }

func (m *stalledModel) Info() model.Info { return model.Info{Name: m.name} }

func (m *stalledModel) GenerateContent(ctx context.Context, _ *model.Request) (*model.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestEvaluateGlobalTimeoutFailsUnresolvedCases(t *testing.T) {
	cfg := testConfig()
	cfg.GlobalTimeout = config.Duration(50 * time.Millisecond)
	e, err := New(cfg, WithJudgeModel(&stalledModel{name: "fake-judge"}))
	require.NoError(t, err)
	defer e.Close()

	report, err := e.Evaluate(context.Background(), prerecordedDataset(cfg.Columns))
	require.NoError(t, err)

	// The batch deadline cancels every outstanding judge call and the
	// unresolved cases fail with a timeout reason.
	require.Len(t, report.Cases, 2)
	for _, cs := range report.Cases {
		assert.Equal(t, status.CaseStateFailed, cs.State)
		assert.Contains(t, cs.Error, "timed out")
	}
	require.NotNil(t, report.Summary)
	assert.Equal(t, 2, report.Summary.FailedCases)
	assert.Zero(t, report.Summary.EvaluatedCases)
}

func TestEvaluateGenerateMode(t *testing.T) {
	cfg := testConfig()
	judge := &scriptedModel{name: "fake-judge", body: "score: 0.8\nreasoning: fine"}
	genA := &scriptedModel{name: "model-a"}
	genB := &scriptedModel{name: "model-b"}
	e, err := New(cfg, WithJudgeModel(judge), WithCandidateModels(genA, genB))
	require.NoError(t, err)
	defer e.Close()

	fields := cfg.Columns
	ds := &dataset.Dataset{
		Columns: []string{fields.UserQuery},
		Rows: []dataset.Row{
			{fields.UserQuery: "q1"},
			{fields.UserQuery: "q2"},
		},
	}

	report, err := e.Evaluate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, "generate", report.Mode)
	require.Len(t, report.Cases, 2)
	assert.Equal(t, int64(2), genA.calls.Load())
	assert.Equal(t, int64(2), genB.calls.Load())

	for _, cs := range report.Cases {
		assert.Equal(t, status.CaseStateAggregated, cs.State)
		a := cs.Candidate(conversation.CandidateA)
		require.NotNil(t, a)
		assert.Contains(t, a.Response, "model-a reply")
		b := cs.Candidate(conversation.CandidateB)
		require.NotNil(t, b)
		assert.Contains(t, b.Response, "model-b reply")
	}
}

func TestEvaluateGenerateModeWithoutCandidates(t *testing.T) {
	cfg := testConfig()
	judge := &scriptedModel{name: "fake-judge", body: "score: 0.9\nreasoning: solid"}
	e, err := New(cfg, WithJudgeModel(judge))
	require.NoError(t, err)
	defer e.Close()

	fields := cfg.Columns
	ds := &dataset.Dataset{
		Columns: []string{fields.UserQuery},
		Rows:    []dataset.Row{{fields.UserQuery: "q1"}},
	}
	_, err = e.Evaluate(context.Background(), ds)
	assert.ErrorContains(t, err, "candidate model endpoints")
}

func TestEvaluateRoleExclusionSurfaced(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultRole = ""
	judge := &scriptedModel{name: "fake-judge", body: "score: 0.9\nreasoning: solid"}
	e, err := New(cfg, WithJudgeModel(judge))
	require.NoError(t, err)
	defer e.Close()

	report, err := e.Evaluate(context.Background(), prerecordedDataset(cfg.Columns))
	require.NoError(t, err)

	names := make([]string, 0, len(report.ExcludedMetrics))
	for _, ex := range report.ExcludedMetrics {
		names = append(names, ex.MetricName)
	}
	assert.Contains(t, names, metric.MetricRoleAdherence)
	for _, cs := range report.Cases {
		for _, cand := range cs.Candidates {
			assert.Nil(t, cand.Metric(metric.MetricRoleAdherence))
		}
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := config.Default()
	_, err = New(cfg)
	assert.ErrorContains(t, err, "judge model")
}
