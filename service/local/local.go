//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package local provides a local implementation of service.Service.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"

	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/evalresult"
	"github.com/tagmeagain/LLMEval/evaluator"
	"github.com/tagmeagain/LLMEval/inference"
	"github.com/tagmeagain/LLMEval/log"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/service"
	"github.com/tagmeagain/LLMEval/status"
)

// local is a local implementation of service.Service.
type local struct {
	source      inference.Source
	evaluator   evaluator.Evaluator
	caseTimeout time.Duration
	casePool    *ants.PoolWithFunc
	// calls bounds in-flight judge calls across every case in the batch.
	calls chan struct{}
}

// New returns a new local evaluation service.
// If no service.Option is provided, the service will use the default options.
func New(opt ...service.Option) (service.Service, error) {
	opts := service.NewOptions(opt...)
	if opts.Source == nil {
		return nil, errors.New("response source is nil")
	}
	if opts.Evaluator == nil {
		return nil, errors.New("evaluator is nil")
	}
	if opts.CaseParallelism <= 0 {
		return nil, errors.New("case parallelism must be greater than 0")
	}
	if opts.CallParallelism <= 0 {
		return nil, errors.New("call parallelism must be greater than 0")
	}
	svc := &local{
		source:      opts.Source,
		evaluator:   opts.Evaluator,
		caseTimeout: opts.CaseTimeout,
		calls:       make(chan struct{}, opts.CallParallelism),
	}
	pool, err := createCaseEvalPool(opts.CaseParallelism)
	if err != nil {
		return nil, fmt.Errorf("create case eval pool: %w", err)
	}
	svc.casePool = pool
	return svc, nil
}

// Close closes the eval service and releases owned resources.
func (s *local) Close() error {
	if s.casePool != nil {
		s.casePool.Release()
	}
	return nil
}

// Evaluate scores every case in the request. Cases run with bounded
// parallelism; the returned slice is indexed by request order.
func (s *local) Evaluate(ctx context.Context, req *service.EvaluateRequest) ([]*evalresult.CaseResult, error) {
	if req == nil {
		return nil, errors.New("evaluate request is nil")
	}
	if len(req.Metrics) == 0 {
		return nil, errors.New("no active metrics")
	}
	results := make([]*evalresult.CaseResult, len(req.Cases))
	var wg sync.WaitGroup
	for idx, cs := range req.Cases {
		if cs == nil {
			return nil, fmt.Errorf("case at index %d is nil", idx)
		}
		param := caseEvalParamPool.Get().(*caseEvalParam)
		param.idx = idx
		param.ctx = ctx
		param.cs = cs
		param.metrics = req.Metrics
		param.svc = s
		param.results = results
		param.wg = &wg
		wg.Add(1)
		if err := s.casePool.Invoke(param); err != nil {
			wg.Done()
			param.reset()
			caseEvalParamPool.Put(param)
			return nil, fmt.Errorf("submit case %s: %w", cs.CaseID, err)
		}
	}
	wg.Wait()
	return results, nil
}

// evaluateCase runs one case end to end: resolve both candidates'
// responses, score every metric for each, then aggregate. The returned
// result always reflects the terminal state; errors are recorded in it.
func (s *local) evaluateCase(ctx context.Context, cs *service.Case,
	metrics []*metric.Definition) *evalresult.CaseResult {
	result := &evalresult.CaseResult{
		CaseID:   cs.CaseID,
		RowIndex: cs.RowIndex,
		Scenario: cs.Scenario,
		State:    status.CaseStateBuilt,
	}
	if cs.Pair == nil {
		result.State = status.CaseStateFailed
		result.Error = "case has no conversation pair"
		return result
	}
	if s.caseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.caseTimeout)
		defer cancel()
	}

	candidates := make([]*evalresult.CandidateResult, len(conversation.Candidates))
	records := make([]*conversation.Record, len(conversation.Candidates))
	var wg sync.WaitGroup
	for i, candidate := range conversation.Candidates {
		wg.Add(1)
		go func(i int, candidate conversation.Candidate) {
			defer wg.Done()
			candidates[i], records[i] = s.fillCandidate(ctx, cs, candidate)
		}(i, candidate)
	}
	wg.Wait()
	result.Candidates = candidates
	result.State = status.CaseStateResponsesFilled

	if timedOut(ctx) {
		return s.failTimeout(result, cs)
	}

	var candErrs *multierror.Error
	failedCandidates := 0
	for _, cand := range candidates {
		if cand.Error != "" {
			failedCandidates++
			candErrs = multierror.Append(candErrs, fmt.Errorf("candidate %s: %s", cand.Candidate, cand.Error))
		}
	}
	if failedCandidates == len(candidates) {
		result.State = status.CaseStateFailed
		result.Error = candErrs.Error()
		return result
	}
	result.State = status.CaseStateEvaluating
	// Metrics for both candidates run at once; the call channel bounds the
	// actual judge concurrency.
	for i, cand := range candidates {
		if cand.Error != "" {
			continue
		}
		wg.Add(1)
		go func(record *conversation.Record, cand *evalresult.CandidateResult) {
			defer wg.Done()
			s.evaluateCandidate(ctx, record, cand, metrics)
		}(records[i], cand)
	}
	wg.Wait()

	if timedOut(ctx) {
		return s.failTimeout(result, cs)
	}

	result.Comparisons = evalresult.Compare(
		result.Candidate(conversation.CandidateA),
		result.Candidate(conversation.CandidateB),
	)
	result.State = status.CaseStateAggregated
	if failedCandidates > 0 || anyPartial(candidates) {
		result.State = status.CaseStatePartialFailure
		if candErrs != nil {
			result.Error = candErrs.Error()
		}
	}
	return result
}

func timedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// failTimeout marks a case whose deadline expired, whether the per-case
// deadline or one inherited from the batch context.
func (s *local) failTimeout(result *evalresult.CaseResult, cs *service.Case) *evalresult.CaseResult {
	result.State = status.CaseStateFailed
	if s.caseTimeout > 0 {
		result.Error = fmt.Sprintf("case %s timed out after %s", cs.CaseID, s.caseTimeout)
	} else {
		result.Error = fmt.Sprintf("case %s timed out", cs.CaseID)
	}
	log.Warnf("case %s: %s", cs.CaseID, result.Error)
	return result
}

// fillCandidate resolves one candidate's final assistant turn. A failure is
// recorded on the candidate result and skips its metric evaluation without
// touching the sibling candidate.
func (s *local) fillCandidate(ctx context.Context, cs *service.Case,
	candidate conversation.Candidate) (*evalresult.CandidateResult, *conversation.Record) {
	result := &evalresult.CandidateResult{Candidate: candidate}
	record := cs.Pair.Get(candidate)
	if record == nil {
		result.Error = "missing conversation record"
		return result, nil
	}
	filled, err := s.source.Fill(ctx, record, candidate)
	if err != nil {
		log.Warnf("case %s candidate %s: resolve response: %v", cs.CaseID, candidate, err)
		result.Error = err.Error()
		return result, nil
	}
	result.Response, _ = filled.FinalAssistant()
	return result, filled
}

// evaluateCandidate scores a filled record against every active metric. A
// single metric failure is recorded and the rest still run.
func (s *local) evaluateCandidate(ctx context.Context, record *conversation.Record,
	result *evalresult.CandidateResult, metrics []*metric.Definition) {
	// Own cancellation scope so an aborted candidate does not tear down its
	// sibling's in-flight metric calls.
	candCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*evalresult.MetricResult, len(metrics))
	var wg sync.WaitGroup
	for i, def := range metrics {
		wg.Add(1)
		go func(i int, def *metric.Definition) {
			defer wg.Done()
			results[i] = s.evaluateMetric(candCtx, record, def)
		}(i, def)
	}
	wg.Wait()
	result.Metrics = results
	evalresult.FinishCandidate(result)
}

// evaluateMetric runs one judge call under the batch-wide call budget.
func (s *local) evaluateMetric(ctx context.Context, record *conversation.Record,
	def *metric.Definition) *evalresult.MetricResult {
	select {
	case s.calls <- struct{}{}:
		defer func() { <-s.calls }()
	case <-ctx.Done():
		return evalresult.FailedMetric(def.Name, def.Threshold, ctx.Err())
	}
	verdict, err := s.evaluator.Evaluate(ctx, record, def)
	if err != nil {
		log.Warnf("metric %s: %v", def.Name, err)
		return evalresult.FailedMetric(def.Name, def.Threshold, err)
	}
	return evalresult.FromEvaluatorResult(verdict)
}

func anyPartial(candidates []*evalresult.CandidateResult) bool {
	for _, cand := range candidates {
		if cand.Partial {
			return true
		}
	}
	return false
}
