//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package llmeval evaluates paired chatbot responses over multi-turn
// conversations with an LLM judge and aggregates the verdicts into a
// stable comparative report.
package llmeval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/tagmeagain/LLMEval/config"
	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/dataset"
	"github.com/tagmeagain/LLMEval/evalresult"
	evalresultinmemory "github.com/tagmeagain/LLMEval/evalresult/inmemory"
	evalresultlocal "github.com/tagmeagain/LLMEval/evalresult/local"
	llmjudge "github.com/tagmeagain/LLMEval/evaluator/llm"
	"github.com/tagmeagain/LLMEval/inference"
	"github.com/tagmeagain/LLMEval/log"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/model"
	openaimodel "github.com/tagmeagain/LLMEval/model/openai"
	"github.com/tagmeagain/LLMEval/service"
	servicelocal "github.com/tagmeagain/LLMEval/service/local"
)

// Evaluator runs evaluation batches over tabular conversation datasets.
type Evaluator interface {
	// Evaluate scores the dataset and returns the persisted report.
	Evaluate(ctx context.Context, ds *dataset.Dataset) (*evalresult.Report, error)
	// Close releases owned resources.
	Close() error
}

// New creates an Evaluator from the run configuration.
func New(cfg *config.Config, opt ...Option) (Evaluator, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	opts := newOptions(opt...)
	e := &batchEvaluator{
		cfg:         cfg,
		registry:    opts.registry,
		reports:     opts.reportManager,
		judge:       opts.judge,
		candidateA:  opts.candidateA,
		candidateB:  opts.candidateB,
		evalService: opts.evalService,
		now:         opts.now,
	}
	if e.registry == nil {
		return nil, errors.New("metric registry is nil")
	}
	if e.judge == nil {
		e.judge = buildModel(cfg.Judge)
	}
	if e.reports == nil {
		if cfg.ReportDir != "" {
			manager, err := evalresultlocal.New(cfg.ReportDir)
			if err != nil {
				return nil, fmt.Errorf("create report manager: %w", err)
			}
			e.reports = manager
		} else {
			e.reports = evalresultinmemory.New()
		}
	}
	return e, nil
}

// batchEvaluator is the default implementation of Evaluator.
type batchEvaluator struct {
	cfg         *config.Config
	registry    metric.Registry
	reports     evalresult.Manager
	judge       model.Model
	candidateA  model.Model
	candidateB  model.Model
	evalService service.Service
	now         func() time.Time
}

// Evaluate runs the full pipeline: resolve the run mode, build conversation
// pairs from the rows, fill candidate responses, score every active metric,
// and aggregate the verdicts into a report saved under a fresh identifier.
func (e *batchEvaluator) Evaluate(ctx context.Context, ds *dataset.Dataset) (*evalresult.Report, error) {
	if ds == nil {
		return nil, errors.New("dataset is nil")
	}
	start := e.now()
	if d := e.cfg.GlobalTimeout.Std(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	fields := e.cfg.Columns
	if err := fields.Validate(ds); err != nil {
		return nil, fmt.Errorf("validate dataset columns: %w", err)
	}
	mode, err := e.resolveMode(ds, fields)
	if err != nil {
		return nil, err
	}
	systemPrompt, err := e.cfg.SystemPrompt()
	if err != nil {
		return nil, err
	}
	active, excluded, err := e.activeMetrics(ds, fields)
	if err != nil {
		return nil, err
	}

	cases, rowErrors := e.buildCases(ds, fields, systemPrompt)
	log.Infof("evaluation batch: %d cases, %d rejected rows, mode %s, %d metrics",
		len(cases), len(rowErrors), mode, len(active))

	source, err := e.buildSource(ctx, mode, systemPrompt, cases)
	if err != nil {
		return nil, err
	}
	svc, owned, err := e.buildService(source)
	if err != nil {
		return nil, err
	}
	if owned {
		defer svc.Close()
	}
	results, err := svc.Evaluate(ctx, &service.EvaluateRequest{Cases: cases, Metrics: active})
	if err != nil {
		return nil, fmt.Errorf("evaluate cases: %w", err)
	}

	report := &evalresult.Report{
		ReportID:        uuid.NewString(),
		Mode:            mode.String(),
		JudgeModel:      e.judge.Info().Name,
		CreatedAt:       start,
		Duration:        e.now().Sub(start),
		Cases:           results,
		Summary:         evalresult.Summarize(results, rowErrors),
		RowErrors:       rowErrors,
		ExcludedMetrics: excluded,
	}
	if _, err := e.reports.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

// Close releases owned resources.
func (e *batchEvaluator) Close() error {
	if e.evalService != nil {
		return e.evalService.Close()
	}
	return nil
}

// resolveMode applies the configured override or auto-detects from the
// dataset. A forced prerecorded run over a dataset with missing responses
// fails the whole batch before any model call.
func (e *batchEvaluator) resolveMode(ds *dataset.Dataset, fields dataset.FieldMap) (dataset.Mode, error) {
	forced := e.cfg.ForcedMode()
	if forced == dataset.ModeUnspecified {
		return dataset.ResolveMode(ds, fields), nil
	}
	if forced == dataset.ModePrerecorded {
		if err := dataset.EnsurePrerecorded(ds, fields); err != nil {
			return dataset.ModeUnspecified, err
		}
	}
	return forced, nil
}

// activeMetrics computes the run's metric set from the configured selection
// and whether a chatbot role is resolvable for every row.
func (e *batchEvaluator) activeMetrics(ds *dataset.Dataset,
	fields dataset.FieldMap) ([]*metric.Definition, []metric.Exclusion, error) {
	active, excluded := e.registry.Active(metric.Selection{
		Reduced:      e.cfg.Metrics.Set == config.MetricSetReduced,
		Thresholds:   e.cfg.Metrics.Thresholds,
		RoleResolved: e.roleResolved(ds, fields),
	})
	if len(active) == 0 {
		return nil, nil, errors.New("no active metrics after selection")
	}
	for _, ex := range excluded {
		log.Warnf("metric %s excluded: %s", ex.MetricName, ex.Reason)
	}
	return active, excluded, nil
}

func (e *batchEvaluator) roleResolved(ds *dataset.Dataset, fields dataset.FieldMap) bool {
	if e.cfg.DefaultRole != "" {
		return true
	}
	if !ds.HasColumn(fields.ChatbotRole) {
		return false
	}
	for _, row := range ds.Rows {
		if row.Value(fields.ChatbotRole) == "" {
			return false
		}
	}
	return len(ds.Rows) > 0
}

// buildCases turns dataset rows into evaluable cases, collecting rejected
// rows instead of failing the batch.
func (e *batchEvaluator) buildCases(ds *dataset.Dataset, fields dataset.FieldMap,
	systemPrompt string) ([]*service.Case, []*evalresult.RowError) {
	builderOpts := []conversation.BuilderOption{conversation.WithDefaultRole(e.cfg.DefaultRole)}
	if systemPrompt != "" {
		builderOpts = append(builderOpts, conversation.WithContext(systemPrompt))
	}
	builder := conversation.NewBuilder(fields, builderOpts...)

	var cases []*service.Case
	var rowErrors []*evalresult.RowError
	var invalid *multierror.Error
	for i, row := range ds.Rows {
		pair, err := builder.Build(i, row)
		if err != nil {
			invalid = multierror.Append(invalid, err)
			rowErrors = append(rowErrors, toRowError(i, err))
			continue
		}
		cases = append(cases, &service.Case{
			CaseID:   fmt.Sprintf("case-%03d", i+1),
			RowIndex: i,
			Scenario: row.Value(fields.Scenario),
			Pair:     pair,
		})
	}
	if invalid != nil {
		log.Warnf("rejected %d dataset rows: %v", len(rowErrors), invalid)
	}
	return cases, rowErrors
}

func toRowError(rowIndex int, err error) *evalresult.RowError {
	var verr *conversation.ValidationError
	if errors.As(err, &verr) {
		return &evalresult.RowError{Row: verr.Row, Field: verr.Field, Reason: verr.Reason}
	}
	return &evalresult.RowError{Row: rowIndex, Reason: err.Error()}
}

// buildSource picks the response source for the resolved mode. Incremental
// generate runs fill every case up front, sequentially per candidate, so
// later rows see the accumulated conversation.
func (e *batchEvaluator) buildSource(ctx context.Context, mode dataset.Mode,
	systemPrompt string, cases []*service.Case) (inference.Source, error) {
	if mode != dataset.ModeGenerate {
		return inference.NewStored(), nil
	}
	modelA, modelB := e.candidateA, e.candidateB
	if modelA == nil || modelB == nil {
		cfgA, cfgB, ok := e.cfg.CandidateModels()
		if !ok {
			return nil, errors.New("generate mode requires both candidate model endpoints")
		}
		modelA, modelB = buildModel(cfgA), buildModel(cfgB)
	}
	generator, err := inference.NewGenerated(modelA, modelB,
		inference.WithInstruction(systemPrompt),
		inference.WithRetryPolicy(e.cfg.Retry.Policy()))
	if err != nil {
		return nil, err
	}
	if !e.cfg.Incremental {
		return generator, nil
	}
	return e.prefill(ctx, generator, cases)
}

// prefill drives one session per candidate across the cases in row order.
// A generation failure poisons the rest of that candidate's thread, since
// later turns would be built on a hole in the conversation.
func (e *batchEvaluator) prefill(ctx context.Context, generator inference.Source,
	cases []*service.Case) (inference.Source, error) {
	pre := &prefilled{
		records: make(map[*conversation.Record]*conversation.Record),
		errs:    make(map[*conversation.Record]error),
	}
	for _, candidate := range conversation.Candidates {
		session, err := inference.NewSession(generator, candidate)
		if err != nil {
			return nil, err
		}
		var dead error
		for _, cs := range cases {
			record := cs.Pair.Get(candidate)
			if record == nil {
				continue
			}
			if dead != nil {
				pre.errs[record] = dead
				continue
			}
			filled, err := session.Next(ctx, record)
			if err != nil {
				dead = fmt.Errorf("incremental generation stopped at row %d: %w", cs.RowIndex, err)
				pre.errs[record] = err
				continue
			}
			pre.records[record] = filled
		}
	}
	return pre, nil
}

func (e *batchEvaluator) buildService(source inference.Source) (service.Service, bool, error) {
	if e.evalService != nil {
		return e.evalService, false, nil
	}
	judge, err := llmjudge.New(e.judge, llmjudge.WithRetryPolicy(e.cfg.Retry.Policy()))
	if err != nil {
		return nil, false, fmt.Errorf("create judge evaluator: %w", err)
	}
	svc, err := servicelocal.New(
		service.WithSource(source),
		service.WithEvaluator(judge),
		service.WithCaseParallelism(e.cfg.Concurrency.Cases),
		service.WithCallParallelism(e.cfg.Concurrency.Calls),
		service.WithCaseTimeout(e.cfg.CaseTimeout.Std()),
	)
	if err != nil {
		return nil, false, fmt.Errorf("create eval service: %w", err)
	}
	return svc, true, nil
}

func buildModel(mc *config.ModelConfig) model.Model {
	var opts []openaimodel.Option
	if mc.APIKey != "" {
		opts = append(opts, openaimodel.WithAPIKey(mc.APIKey))
	}
	if mc.BaseURL != "" {
		opts = append(opts, openaimodel.WithBaseURL(mc.BaseURL))
	}
	if mc.Temperature != nil {
		opts = append(opts, openaimodel.WithTemperature(*mc.Temperature))
	}
	if mc.MaxTokens != nil {
		opts = append(opts, openaimodel.WithMaxTokens(*mc.MaxTokens))
	}
	return openaimodel.New(mc.Model, opts...)
}

// prefilled serves responses generated ahead of the evaluation stage. Keys
// are the original record pointers handed to the service, which are unique
// per case and candidate.
type prefilled struct {
	records map[*conversation.Record]*conversation.Record
	errs    map[*conversation.Record]error
}

// Name returns the source identifier.
func (p *prefilled) Name() string { return "prefilled" }

// Fill returns the pregenerated record or the error that prevented it.
func (p *prefilled) Fill(_ context.Context, record *conversation.Record,
	candidate conversation.Candidate) (*conversation.Record, error) {
	if err, ok := p.errs[record]; ok {
		return nil, err
	}
	if filled, ok := p.records[record]; ok {
		return filled, nil
	}
	return nil, fmt.Errorf("internal: no pregenerated response for candidate %s", candidate)
}
