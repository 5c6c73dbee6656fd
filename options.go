//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package llmeval

import (
	"time"

	"github.com/tagmeagain/LLMEval/evalresult"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/model"
	"github.com/tagmeagain/LLMEval/service"
)

type options struct {
	registry      metric.Registry
	reportManager evalresult.Manager
	judge         model.Model
	candidateA    model.Model
	candidateB    model.Model
	evalService   service.Service
	now           func() time.Time
}

func newOptions(opt ...Option) *options {
	opts := &options{
		registry: metric.NewRegistry(),
		now:      time.Now,
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures the batch evaluator.
type Option func(*options)

// WithRegistry overrides the metric registry. The builtin conversational
// metric set is used by default.
func WithRegistry(r metric.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithReportManager overrides where reports are persisted. The config's
// report_dir, or an in-memory manager, is used by default.
func WithReportManager(m evalresult.Manager) Option {
	return func(o *options) {
		o.reportManager = m
	}
}

// WithJudgeModel injects the judge model instead of building one from the
// config's endpoint.
func WithJudgeModel(m model.Model) Option {
	return func(o *options) {
		o.judge = m
	}
}

// WithCandidateModels injects the generator models instead of building them
// from the config's endpoints.
func WithCandidateModels(a, b model.Model) Option {
	return func(o *options) {
		o.candidateA = a
		o.candidateB = b
	}
}

// WithEvaluationService injects a prebuilt evaluation service.
func WithEvaluationService(s service.Service) Option {
	return func(o *options) {
		o.evalService = s
	}
}

// WithNow allows tests to inject a deterministic clock.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
