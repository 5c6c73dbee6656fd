//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory report manager.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tagmeagain/LLMEval/evalresult"
)

// Manager keeps reports in process memory. Suitable for tests and one-shot
// runs that only print the report.
type Manager struct {
	mu      sync.RWMutex
	reports map[string]*evalresult.Report
}

// New creates an empty in-memory report manager.
func New() *Manager {
	return &Manager{reports: map[string]*evalresult.Report{}}
}

// Save stores the report, assigning an identifier when it has none.
func (m *Manager) Save(_ context.Context, report *evalresult.Report) (string, error) {
	if report == nil {
		return "", errors.New("report is nil")
	}
	if report.ReportID == "" {
		report.ReportID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.ReportID] = report
	return report.ReportID, nil
}

// Get returns the stored report.
func (m *Manager) Get(_ context.Context, reportID string) (*evalresult.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	report, ok := m.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", reportID, os.ErrNotExist)
	}
	return report, nil
}

// List returns the stored report identifiers, sorted.
func (m *Manager) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.reports))
	for id := range m.reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
