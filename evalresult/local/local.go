//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package local provides a file-backed report manager.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tagmeagain/LLMEval/evalresult"
)

const reportSuffix = ".report.json"

// Manager persists reports as JSON files under a base directory. Writes go
// through a temporary file and rename so readers never observe a partial
// report.
type Manager struct {
	mu  sync.Mutex
	dir string
}

// New creates a manager rooted at dir, creating the directory when needed.
func New(dir string) (*Manager, error) {
	if dir == "" {
		return nil, errors.New("report directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Save writes the report to disk, assigning an identifier when it has none.
func (m *Manager) Save(_ context.Context, report *evalresult.Report) (string, error) {
	if report == nil {
		return "", errors.New("report is nil")
	}
	if report.ReportID == "" {
		report.ReportID = uuid.NewString()
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	final := m.path(report.ReportID)
	tmp, err := os.CreateTemp(m.dir, report.ReportID+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp report file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("finalize report file: %w", err)
	}
	return report.ReportID, nil
}

// Get loads the report with the given identifier.
func (m *Manager) Get(_ context.Context, reportID string) (*evalresult.Report, error) {
	data, err := os.ReadFile(m.path(reportID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report %s: %w", reportID, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report evalresult.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", reportID, err)
	}
	return &report, nil
}

// List returns the identifiers of the stored reports, sorted.
func (m *Manager) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("list report directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, reportSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, reportSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Manager) path(reportID string) string {
	return filepath.Join(m.dir, reportID+reportSuffix)
}
