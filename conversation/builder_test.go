//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmeagain/LLMEval/dataset"
)

func TestBuilderBuildPrerecordedPair(t *testing.T) {
	fields := dataset.DefaultFieldMap()
	builder := NewBuilder(fields, WithContext("system prompt"))
	row := dataset.Row{
		fields.UserQuery:  "What is my balance?",
		fields.PriorTurns: `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`,
		fields.ResponseA:  "Your balance is $10.",
		fields.ResponseB:  "It is $10.",
		fields.Scenario:   "banking",
	}

	pair, err := builder.Build(0, row)
	require.NoError(t, err)

	a := pair.Get(CandidateA)
	require.NotNil(t, a)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "What is my balance?"},
		{Role: RoleAssistant, Content: "Your balance is $10."},
	}, a.Turns())

	b := pair.Get(CandidateB)
	require.NotNil(t, b)
	content, ok := b.FinalAssistant()
	assert.True(t, ok)
	assert.Equal(t, "It is $10.", content)

	// Both candidates share the same ordered user prefix.
	assert.Equal(t, a.UserPrefix(), b.UserPrefix())
	assert.Equal(t, "banking", a.Metadata().Scenario)
	assert.Equal(t, []string{"system prompt"}, a.Metadata().Context)
}

func TestBuilderBuildWithoutResponses(t *testing.T) {
	fields := dataset.DefaultFieldMap()
	builder := NewBuilder(fields)
	row := dataset.Row{fields.UserQuery: "hello"}

	pair, err := builder.Build(3, row)
	require.NoError(t, err)
	assert.False(t, pair.A.HasFinalAssistant())
	assert.False(t, pair.B.HasFinalAssistant())
	assert.Equal(t, 1, pair.A.Len())
}

func TestBuilderEmptyQuery(t *testing.T) {
	fields := dataset.DefaultFieldMap()
	builder := NewBuilder(fields)

	_, err := builder.Build(7, dataset.Row{fields.UserQuery: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 7, verr.Row)
	assert.Equal(t, fields.UserQuery, verr.Field)
}

func TestBuilderMalformedPriorTurns(t *testing.T) {
	fields := dataset.DefaultFieldMap()
	builder := NewBuilder(fields)

	tests := []struct {
		name  string
		prior string
	}{
		{name: "not json", prior: "previous chat about billing"},
		{name: "wrong shape", prior: `{"role":"user"}`},
		{name: "invalid role", prior: `[{"role":"narrator","content":"x"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := builder.Build(2, dataset.Row{
				fields.UserQuery:  "q",
				fields.PriorTurns: tt.prior,
			})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, 2, verr.Row)
			assert.Equal(t, fields.PriorTurns, verr.Field)
		})
	}
}

func TestBuilderRoleResolution(t *testing.T) {
	fields := dataset.DefaultFieldMap()
	builder := NewBuilder(fields, WithDefaultRole("support agent"))

	pair, err := builder.Build(0, dataset.Row{fields.UserQuery: "q"})
	require.NoError(t, err)
	assert.Equal(t, "support agent", pair.A.Metadata().ChatbotRole)

	pair, err = builder.Build(1, dataset.Row{
		fields.UserQuery:   "q",
		fields.ChatbotRole: "travel planner",
	})
	require.NoError(t, err)
	assert.Equal(t, "travel planner", pair.A.Metadata().ChatbotRole)
}
