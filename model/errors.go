//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package model

import "errors"

// TransientError wraps a call failure that is safe to retry: timeouts,
// rate limits, and transport hiccups. Anything not wrapped in it is treated
// as terminal by the retry policy.
type TransientError struct {
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

// Unwrap returns the underlying failure.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError marks err as retryable.
func NewTransientError(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is marked as retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
