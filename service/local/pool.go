//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package local

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/tagmeagain/LLMEval/evalresult"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/service"
)

type caseEvalParam struct {
	idx     int
	ctx     context.Context
	cs      *service.Case
	metrics []*metric.Definition
	svc     *local
	results []*evalresult.CaseResult
	wg      *sync.WaitGroup
}

func (p *caseEvalParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.cs = nil
	p.metrics = nil
	p.svc = nil
	p.results = nil
	p.wg = nil
}

var caseEvalParamPool = &sync.Pool{
	New: func() any { return new(caseEvalParam) },
}

func createCaseEvalPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*caseEvalParam)
		if !ok {
			panic("case eval pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			caseEvalParamPool.Put(param)
		}()
		param.results[param.idx] = param.svc.evaluateCase(param.ctx, param.cs, param.metrics)
	})
	if err != nil {
		return nil, fmt.Errorf("create case eval pool: %w", err)
	}
	return pool, nil
}
