//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package inference

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/model"
)

// fakeGenerator answers with a reply numbered by call count, tagged with
// how many messages it saw.
type fakeGenerator struct {
	name  string
	calls int
	seen  [][]model.Message
	err   error
}

func (f *fakeGenerator) Info() model.Info { return model.Info{Name: f.name} }

func (f *fakeGenerator) GenerateContent(_ context.Context, req *model.Request) (*model.Response, error) {
	f.calls++
	f.seen = append(f.seen, req.Messages)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Response{
		Content: fmt.Sprintf("%s reply %d", f.name, f.calls),
		Model:   f.name,
	}, nil
}

func userOnlyRecord(t *testing.T, query string) *conversation.Record {
	t.Helper()
	record, err := conversation.NewRecord(
		[]conversation.Turn{{Role: conversation.RoleUser, Content: query}},
		conversation.Metadata{})
	require.NoError(t, err)
	return record
}

func TestStoredFill(t *testing.T) {
	src := NewStored()
	assert.Equal(t, "stored", src.Name())

	record := userOnlyRecord(t, "q")
	filled, err := record.WithAssistant("recorded answer")
	require.NoError(t, err)

	got, err := src.Fill(context.Background(), filled, conversation.CandidateA)
	require.NoError(t, err)
	assert.Same(t, filled, got)

	// A stored source handed an unfilled record is an internal invariant
	// violation, not a generation fallback.
	_, err = src.Fill(context.Background(), record, conversation.CandidateB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored response")
}

func TestGeneratedFill(t *testing.T) {
	genA := &fakeGenerator{name: "model-a"}
	genB := &fakeGenerator{name: "model-b"}
	src, err := NewGenerated(genA, genB, WithInstruction("be brief"))
	require.NoError(t, err)
	assert.Equal(t, "generated", src.Name())

	record := userOnlyRecord(t, "hello")
	filled, err := src.Fill(context.Background(), record, conversation.CandidateB)
	require.NoError(t, err)
	content, ok := filled.FinalAssistant()
	assert.True(t, ok)
	assert.Equal(t, "model-b reply 1", content)
	assert.Zero(t, genA.calls)

	// The system instruction leads the request.
	require.NotEmpty(t, genB.seen)
	assert.Equal(t, model.RoleSystem, genB.seen[0][0].Role)
	assert.Equal(t, "be brief", genB.seen[0][0].Content)

	// Records that already end with an assistant turn pass through.
	again, err := src.Fill(context.Background(), filled, conversation.CandidateB)
	require.NoError(t, err)
	assert.Same(t, filled, again)
	assert.Equal(t, 1, genB.calls)
}

func TestGeneratedFillFailure(t *testing.T) {
	genA := &fakeGenerator{name: "model-a", err: errors.New("endpoint down")}
	genB := &fakeGenerator{name: "model-b"}
	src, err := NewGenerated(genA, genB)
	require.NoError(t, err)

	_, err = src.Fill(context.Background(), userOnlyRecord(t, "q"), conversation.CandidateA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "candidate A")
	// Non-transient failures are not retried.
	assert.Equal(t, 1, genA.calls)
}

func TestNewGeneratedRequiresBothModels(t *testing.T) {
	_, err := NewGenerated(nil, &fakeGenerator{name: "b"})
	assert.Error(t, err)
}

func TestSessionAccumulatesTurns(t *testing.T) {
	gen := &fakeGenerator{name: "model-a"}
	src, err := NewGenerated(gen, &fakeGenerator{name: "model-b"})
	require.NoError(t, err)

	session, err := NewSession(src, conversation.CandidateA)
	require.NoError(t, err)

	first, err := session.Next(context.Background(), userOnlyRecord(t, "q1"))
	require.NoError(t, err)
	assert.Equal(t, []conversation.Turn{
		{Role: conversation.RoleUser, Content: "q1"},
		{Role: conversation.RoleAssistant, Content: "model-a reply 1"},
	}, first.Turns())

	second, err := session.Next(context.Background(), userOnlyRecord(t, "q2"))
	require.NoError(t, err)
	assert.Equal(t, []conversation.Turn{
		{Role: conversation.RoleUser, Content: "q1"},
		{Role: conversation.RoleAssistant, Content: "model-a reply 1"},
		{Role: conversation.RoleUser, Content: "q2"},
		{Role: conversation.RoleAssistant, Content: "model-a reply 2"},
	}, second.Turns())

	// The second generation call saw the full accumulated history.
	require.Len(t, gen.seen, 2)
	assert.Len(t, gen.seen[1], 3)
}

func TestSessionRequiresGeneratedSource(t *testing.T) {
	_, err := NewSession(NewStored(), conversation.CandidateA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generated source")
}
