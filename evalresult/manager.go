//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package evalresult

import "context"

// Manager stores and retrieves evaluation reports.
type Manager interface {
	// Save persists the report and returns its identifier.
	Save(ctx context.Context, report *Report) (string, error)
	// Get returns the report with the given identifier. Missing reports
	// return an error wrapping os.ErrNotExist.
	Get(ctx context.Context, reportID string) (*Report, error)
	// List returns the identifiers of all stored reports, sorted.
	List(ctx context.Context) ([]string, error)
}
