//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/internal/retry"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/model"
	"github.com/tagmeagain/LLMEval/status"
)

// fakeJudge replays scripted responses and records the prompts it saw.
type fakeJudge struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	prompts []string
}

func (f *fakeJudge) Info() model.Info { return model.Info{Name: "fake-judge"} }

func (f *fakeJudge) GenerateContent(_ context.Context, req *model.Request) (*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.prompts)
	f.prompts = append(f.prompts, req.Messages[len(req.Messages)-1].Content)
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	out := f.outputs[len(f.outputs)-1]
	if call < len(f.outputs) {
		out = f.outputs[call]
	}
	return &model.Response{Content: out, Model: "fake-judge"}, nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

func testRecord(t *testing.T) *conversation.Record {
	t.Helper()
	record, err := conversation.NewRecord([]conversation.Turn{
		{Role: conversation.RoleUser, Content: "where is my parcel?"},
		{Role: conversation.RoleAssistant, Content: "it ships tomorrow"},
	}, conversation.Metadata{
		ChatbotRole:     "logistics assistant",
		Scenario:        "parcel tracking",
		ExpectedOutcome: "user learns the delivery date",
		Context:         []string{"You are a logistics assistant."},
	})
	require.NoError(t, err)
	return record
}

func holisticMetric() *metric.Definition {
	return &metric.Definition{
		Name:        "helpfulness",
		Description: "how helpful the assistant is",
		Rubric:      []string{"Check whether the user's need was met."},
		Threshold:   0.5,
		UsesContext: true,
	}
}

func TestEvaluatePassAndFail(t *testing.T) {
	judge := &fakeJudge{outputs: []string{"score: 0.8\nreasoning: resolves the question"}}
	e, err := New(judge, WithRetryPolicy(fastPolicy()))
	require.NoError(t, err)

	result, err := e.Evaluate(context.Background(), testRecord(t), holisticMetric())
	require.NoError(t, err)
	assert.Equal(t, "helpfulness", result.MetricName)
	assert.Equal(t, 0.8, result.Score)
	assert.Equal(t, status.EvalStatusPassed, result.Status)
	assert.Equal(t, "resolves the question", result.Rationale)
	assert.Equal(t, "fake-judge", result.JudgeModel)

	judge = &fakeJudge{outputs: []string{"score: 0.2\nreasoning: ignores the question"}}
	e, err = New(judge, WithRetryPolicy(fastPolicy()))
	require.NoError(t, err)
	result, err = e.Evaluate(context.Background(), testRecord(t), holisticMetric())
	require.NoError(t, err)
	assert.Equal(t, status.EvalStatusFailed, result.Status)
}

func TestEvaluateThresholdBoundaryPasses(t *testing.T) {
	judge := &fakeJudge{outputs: []string{"score: 0.5\nreasoning: borderline"}}
	e, err := New(judge, WithRetryPolicy(fastPolicy()))
	require.NoError(t, err)

	result, err := e.Evaluate(context.Background(), testRecord(t), holisticMetric())
	require.NoError(t, err)
	assert.Equal(t, status.EvalStatusPassed, result.Status)
}

func TestBuildPromptFieldVisibility(t *testing.T) {
	judge := &fakeJudge{outputs: []string{"score: 1.0\nreasoning: fine"}}
	e, err := New(judge, WithRetryPolicy(fastPolicy()))
	require.NoError(t, err)

	// Context-aware metric sees context, scenario and expected outcome but
	// not the role.
	_, err = e.Evaluate(context.Background(), testRecord(t), holisticMetric())
	require.NoError(t, err)
	prompt := judge.prompts[0]
	assert.Contains(t, prompt, "Check whether the user's need was met.")
	assert.Contains(t, prompt, "You are a logistics assistant.")
	assert.Contains(t, prompt, "Scenario: parcel tracking")
	assert.Contains(t, prompt, "Expected outcome: user learns the delivery date")
	assert.NotContains(t, prompt, "assigned this role")
	assert.Contains(t, prompt, "USER: where is my parcel?")
	assert.Contains(t, prompt, "ASSISTANT: it ships tomorrow")

	// Role-sensitive metric sees the role but not the context.
	judge.prompts = nil
	roleMetric := &metric.Definition{
		Name:         "role_adherence",
		Rubric:       []string{"Check role consistency."},
		Threshold:    0.5,
		RequiresRole: true,
	}
	_, err = e.Evaluate(context.Background(), testRecord(t), roleMetric)
	require.NoError(t, err)
	prompt = judge.prompts[0]
	assert.Contains(t, prompt, "logistics assistant")
	assert.Contains(t, prompt, "assigned this role")
	assert.NotContains(t, prompt, "Scenario: parcel tracking")
}

func TestEvaluateWindowedMetricAverages(t *testing.T) {
	record, err := conversation.NewRecord([]conversation.Turn{
		{Role: conversation.RoleUser, Content: "q1"},
		{Role: conversation.RoleAssistant, Content: "a1"},
		{Role: conversation.RoleUser, Content: "q2"},
		{Role: conversation.RoleAssistant, Content: "a2"},
	}, conversation.Metadata{})
	require.NoError(t, err)

	judge := &fakeJudge{outputs: []string{
		"score: 1.0\nreasoning: on topic",
		"score: 0.5\nreasoning: partially relevant",
	}}
	e, err := New(judge, WithRetryPolicy(fastPolicy()))
	require.NoError(t, err)

	def := &metric.Definition{
		Name:       "turn_relevancy",
		Rubric:     []string{"Check relevancy of the last assistant turn."},
		Threshold:  0.5,
		WindowSize: 10,
	}
	result, err := e.Evaluate(context.Background(), record, def)
	require.NoError(t, err)
	assert.Len(t, judge.prompts, 2)
	assert.Equal(t, 0.75, result.Score)
	assert.Equal(t, "on topic; partially relevant", result.Rationale)

	// The first window must not leak later turns.
	assert.NotContains(t, judge.prompts[0], "q2")
	assert.Contains(t, judge.prompts[1], "a2")
}

func TestEvaluateUnparseableRetriedOnce(t *testing.T) {
	// First response garbled, retry parses.
	judge := &fakeJudge{outputs: []string{
		"I think it deserves a good grade.",
		"score: 0.7\nreasoning: recovered",
	}}
	e, err := New(judge, WithRetryPolicy(fastPolicy()))
	require.NoError(t, err)
	result, err := e.Evaluate(context.Background(), testRecord(t), holisticMetric())
	require.NoError(t, err)
	assert.Equal(t, 0.7, result.Score)
	assert.Len(t, judge.prompts, 2)

	// Garbled twice: surfaced as an unparseable error after exactly one
	// retry.
	judge = &fakeJudge{outputs: []string{"no score here", "still no score"}}
	e, err = New(judge, WithRetryPolicy(fastPolicy()))
	require.NoError(t, err)
	_, err = e.Evaluate(context.Background(), testRecord(t), holisticMetric())
	require.Error(t, err)
	assert.True(t, IsUnparseable(err))
	assert.Len(t, judge.prompts, 2)
}

func TestEvaluateTransientJudgeFailureRetried(t *testing.T) {
	judge := &fakeJudge{
		errs:    []error{model.NewTransientError(errors.New("429"))},
		outputs: []string{"", "score: 0.6\nreasoning: ok"},
	}
	e, err := New(judge, WithRetryPolicy(fastPolicy()))
	require.NoError(t, err)
	result, err := e.Evaluate(context.Background(), testRecord(t), holisticMetric())
	require.NoError(t, err)
	assert.Equal(t, 0.6, result.Score)
}

func TestParseJudgeOutput(t *testing.T) {
	score, reason, err := parseJudgeOutput("score: 0.85\nreasoning: solid answer")
	require.NoError(t, err)
	assert.Equal(t, 0.85, score)
	assert.Equal(t, "solid answer", reason)

	_, _, err = parseJudgeOutput("score: 1.5\nreasoning: out of range")
	assert.Error(t, err)

	_, _, err = parseJudgeOutput("")
	assert.Error(t, err)

	_, _, err = parseJudgeOutput("great conversation")
	assert.Error(t, err)
}
