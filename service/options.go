//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package service

import (
	"time"

	"github.com/tagmeagain/LLMEval/evaluator"
	"github.com/tagmeagain/LLMEval/inference"
)

const (
	// DefaultCaseParallelism bounds how many cases run at once.
	DefaultCaseParallelism = 4
	// DefaultCallParallelism bounds in-flight judge calls across the batch.
	DefaultCallParallelism = 8
)

// Options holds the options for the evaluation service.
type Options struct {
	// Source resolves each candidate's final assistant turn.
	Source inference.Source
	// Evaluator scores a record against one metric definition.
	Evaluator evaluator.Evaluator
	// CaseParallelism bounds concurrently running cases.
	CaseParallelism int
	// CallParallelism bounds concurrent judge calls across all cases.
	CallParallelism int
	// CaseTimeout bounds a single case; zero means no per-case deadline.
	CaseTimeout time.Duration
}

// Option defines a function type for configuring the evaluation service.
type Option func(*Options)

// NewOptions creates a new Options with the default values.
func NewOptions(opt ...Option) *Options {
	opts := &Options{
		Source:          inference.NewStored(),
		CaseParallelism: DefaultCaseParallelism,
		CallParallelism: DefaultCallParallelism,
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// WithSource sets the response source. Stored responses are used by default.
func WithSource(s inference.Source) Option {
	return func(o *Options) {
		o.Source = s
	}
}

// WithEvaluator sets the metric evaluator.
func WithEvaluator(e evaluator.Evaluator) Option {
	return func(o *Options) {
		o.Evaluator = e
	}
}

// WithCaseParallelism sets how many cases run concurrently.
func WithCaseParallelism(n int) Option {
	return func(o *Options) {
		o.CaseParallelism = n
	}
}

// WithCallParallelism sets how many judge calls may be in flight at once
// across the whole batch.
func WithCallParallelism(n int) Option {
	return func(o *Options) {
		o.CallParallelism = n
	}
}

// WithCaseTimeout sets the per-case deadline. Cases that exceed it are
// recorded as failed with a timeout error.
func WithCaseTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.CaseTimeout = d
	}
}
