//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package retry applies the bounded retry policy for external calls.
// Only transient failures (timeouts, rate limits) are retried; everything
// else fails immediately.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tagmeagain/LLMEval/model"
)

// Defaults for the retry policy.
const (
	DefaultMaxAttempts  = 3
	DefaultBaseInterval = 500 * time.Millisecond
	DefaultMaxInterval  = 5 * time.Second
)

// Policy bounds the retry behavior for one external call.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseInterval is the initial backoff interval.
	BaseInterval time.Duration
	// MaxInterval caps the backoff interval growth.
	MaxInterval time.Duration
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		BaseInterval: DefaultBaseInterval,
		MaxInterval:  DefaultMaxInterval,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseInterval <= 0 {
		p.BaseInterval = DefaultBaseInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = DefaultMaxInterval
	}
	return p
}

// Do runs op, retrying transient failures with exponential backoff and
// jitter until the attempt budget is exhausted or the context is done.
// Non-transient failures are returned immediately.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	policy = policy.normalized()
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.BaseInterval
	exp.MaxInterval = policy.MaxInterval
	exp.MaxElapsedTime = 0
	wrapped := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !model.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(wrapped, backoff.WithContext(
		backoff.WithMaxRetries(exp, uint64(policy.MaxAttempts-1)), ctx))
}
