//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package llm implements the metric evaluator on top of an LLM judge.
// The judge model is injected at construction so concurrent batches with
// different judge configurations never interfere.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/evaluator"
	"github.com/tagmeagain/LLMEval/internal/retry"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/model"
	"github.com/tagmeagain/LLMEval/status"
)

const reasonSeparator = "; "

var (
	// judgePrompt is the template fed to the judge model.
	judgePrompt = `You are an expert evaluator of multi-turn conversations between a user and an AI assistant. Score the conversation on a single quality dimension.

Quality dimension: {{.MetricName}}{{if .Description}} ({{.Description}}){{end}}
Evaluation steps:
{{range .Rubric}}- {{.}}
{{end}}{{if .ChatbotRole}}
The assistant was assigned this role: {{.ChatbotRole}}
{{end}}{{if .Context}}
Additional context:
{{range .Context}}{{.}}
{{end}}{{end}}
Conversation:
{{.Transcript}}

Weight the final assistant turn most heavily while conditioning on the full history shown. Judge only the dimension above; ignore unrelated flaws.

Your output must be plain text with exactly two lines:
score: a number between 0.0 and 1.0
reasoning: one short paragraph explaining the score

Be assertive and unambiguous; do not hedge.
`
	// judgePromptTemplate renders the judge prompt with data.
	judgePromptTemplate = template.Must(template.New("judgePrompt").Parse(judgePrompt))
	// judgeOutputRegex extracts the score and reasoning from judge output.
	judgeOutputRegex = regexp.MustCompile(`(?ms)score:\s*([0-9.]+)\s*reasoning:\s*(.*?)\s*$`)
)

// errUnparseable marks judge output that yielded no usable score.
var errUnparseable = errors.New("unparseable judge output")

// Evaluator scores records by prompting an LLM judge.
type Evaluator struct {
	judge  model.Model
	policy retry.Policy
}

// Option configures the evaluator.
type Option func(*Evaluator)

// WithRetryPolicy overrides the transient-error retry policy for judge calls.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(e *Evaluator) { e.policy = policy }
}

// New builds an LLM-judge evaluator around the injected judge model.
func New(judge model.Model, opt ...Option) (*Evaluator, error) {
	if judge == nil {
		return nil, errors.New("judge model is nil")
	}
	e := &Evaluator{judge: judge, policy: retry.DefaultPolicy()}
	for _, o := range opt {
		o(e)
	}
	return e, nil
}

// Name returns the evaluator identifier.
func (e *Evaluator) Name() string {
	return "llm_judge"
}

// Description describes the evaluator.
func (e *Evaluator) Description() string {
	return "Scores conversation records with an LLM judge"
}

// Evaluate scores the record against the definition. Windowed metrics judge
// each assistant-turn window and average the scores; everything else judges
// the whole transcript once.
func (e *Evaluator) Evaluate(ctx context.Context, record *conversation.Record,
	def *metric.Definition) (*evaluator.Result, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	if def == nil {
		return nil, errors.New("metric definition is nil")
	}
	turns := record.Turns()
	meta := record.Metadata()
	var scores []float64
	var reasons []string
	if def.WindowSize > 0 {
		windows := conversation.Windows(turns, def.WindowSize)
		if len(windows) == 0 {
			return nil, fmt.Errorf("metric %s: record has no assistant turns", def.Name)
		}
		for _, window := range windows {
			score, reason, err := e.judgeOnce(ctx, turns[window.Start:window.End], meta, def)
			if err != nil {
				return nil, err
			}
			scores = append(scores, score)
			reasons = append(reasons, reason)
		}
	} else {
		score, reason, err := e.judgeOnce(ctx, turns, meta, def)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
		reasons = append(reasons, reason)
	}
	total := 0.0
	for _, score := range scores {
		total += score
	}
	score := total / float64(len(scores))
	evalStatus := status.EvalStatusFailed
	if score >= def.Threshold {
		evalStatus = status.EvalStatusPassed
	}
	return &evaluator.Result{
		MetricName: def.Name,
		Score:      score,
		Status:     evalStatus,
		Threshold:  def.Threshold,
		Rationale:  strings.Join(reasons, reasonSeparator),
		JudgeModel: e.judge.Info().Name,
	}, nil
}

// judgeOnce performs one judge call with transient-error retries. A judge
// response that cannot be parsed is retried exactly once, then surfaced as
// an error so the caller can record a metric failure.
func (e *Evaluator) judgeOnce(ctx context.Context, turns []conversation.Turn,
	meta conversation.Metadata, def *metric.Definition) (float64, string, error) {
	prompt, err := e.buildPrompt(turns, meta, def)
	if err != nil {
		return 0, "", fmt.Errorf("build judge prompt: %w", err)
	}
	req := &model.Request{Messages: []model.Message{model.NewUserMessage(prompt)}}
	for attempt := 0; attempt < 2; attempt++ {
		var resp *model.Response
		err = retry.Do(ctx, e.policy, func(ctx context.Context) error {
			var callErr error
			resp, callErr = e.judge.GenerateContent(ctx, req)
			return callErr
		})
		if err != nil {
			return 0, "", fmt.Errorf("metric %s: judge call: %w", def.Name, err)
		}
		score, reason, parseErr := parseJudgeOutput(resp.Content)
		if parseErr == nil {
			return score, reason, nil
		}
		err = fmt.Errorf("metric %s: %w: %v", def.Name, errUnparseable, parseErr)
	}
	return 0, "", err
}

// buildPrompt renders the judge prompt for the turns and definition.
func (e *Evaluator) buildPrompt(turns []conversation.Turn, meta conversation.Metadata,
	def *metric.Definition) (string, error) {
	data := judgePromptData{
		MetricName:  def.Name,
		Description: def.Description,
		Rubric:      def.Rubric,
		Transcript:  Transcript(turns),
	}
	if def.RequiresRole {
		data.ChatbotRole = meta.ChatbotRole
	}
	if def.UsesContext {
		data.Context = meta.Context
		if meta.Scenario != "" {
			data.Context = append(data.Context, "Scenario: "+meta.Scenario)
		}
		if meta.ExpectedOutcome != "" {
			data.Context = append(data.Context, "Expected outcome: "+meta.ExpectedOutcome)
		}
	}
	var buf bytes.Buffer
	if err := judgePromptTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// judgePromptData feeds values into the judge prompt template.
type judgePromptData struct {
	MetricName  string   // MetricName is the quality dimension being judged.
	Description string   // Description summarizes the dimension.
	Rubric      []string // Rubric lists the evaluation steps.
	ChatbotRole string   // ChatbotRole is the assigned assistant role, when read.
	Context     []string // Context is the free-text context, when read.
	Transcript  string   // Transcript is the rendered conversation.
}

// Transcript renders turns as "USER:"/"ASSISTANT:" lines.
func Transcript(turns []conversation.Turn) string {
	lines := make([]string, len(turns))
	for i, turn := range turns {
		lines[i] = strings.ToUpper(string(turn.Role)) + ": " + turn.Content
	}
	return strings.Join(lines, "\n")
}

// parseJudgeOutput extracts the score and reasoning from judge output and
// validates the score range.
func parseJudgeOutput(content string) (float64, string, error) {
	if strings.TrimSpace(content) == "" {
		return 0, "", errors.New("empty judge response")
	}
	matches := judgeOutputRegex.FindStringSubmatch(content)
	if matches == nil {
		return 0, "", errors.New("no score/reasoning lines found")
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(matches[1]), 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse score: %w", err)
	}
	if score < 0 || score > 1 {
		return 0, "", fmt.Errorf("score %v out of [0,1]", score)
	}
	return score, strings.TrimSpace(matches[2]), nil
}

// IsUnparseable reports whether err stems from unusable judge output.
func IsUnparseable(err error) bool {
	return errors.Is(err, errUnparseable)
}
