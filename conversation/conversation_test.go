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
)

func TestNewRecordValidation(t *testing.T) {
	_, err := NewRecord(nil, Metadata{})
	assert.Error(t, err)

	_, err = NewRecord([]Turn{{Role: RoleAssistant, Content: "hi"}}, Metadata{})
	assert.ErrorContains(t, err, "assistant turn without a preceding user turn")

	_, err = NewRecord([]Turn{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
		{Role: RoleAssistant, Content: "a2"},
	}, Metadata{})
	assert.ErrorContains(t, err, "turn 2")

	_, err = NewRecord([]Turn{{Role: "system", Content: "x"}}, Metadata{})
	assert.ErrorContains(t, err, "invalid role")

	record, err := NewRecord([]Turn{
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
	}, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, 3, record.Len())
	assert.False(t, record.HasFinalAssistant())
}

func TestRecordImmutability(t *testing.T) {
	turns := []Turn{{Role: RoleUser, Content: "q"}}
	meta := Metadata{ChatbotRole: "advisor", Context: []string{"ctx"}}
	record, err := NewRecord(turns, meta)
	require.NoError(t, err)

	turns[0].Content = "mutated"
	assert.Equal(t, "q", record.Turns()[0].Content)

	got := record.Turns()
	got[0].Content = "mutated again"
	assert.Equal(t, "q", record.Turns()[0].Content)

	gotMeta := record.Metadata()
	gotMeta.Context[0] = "mutated"
	assert.Equal(t, []string{"ctx"}, record.Metadata().Context)
}

func TestRecordWithAssistant(t *testing.T) {
	record, err := NewRecord([]Turn{{Role: RoleUser, Content: "q"}}, Metadata{Scenario: "s"})
	require.NoError(t, err)

	filled, err := record.WithAssistant("a")
	require.NoError(t, err)
	assert.Equal(t, 1, record.Len())
	assert.Equal(t, 2, filled.Len())
	assert.True(t, filled.HasFinalAssistant())
	content, ok := filled.FinalAssistant()
	assert.True(t, ok)
	assert.Equal(t, "a", content)
	assert.Equal(t, "s", filled.Metadata().Scenario)

	// Appending to a record that already ends with an assistant turn breaks
	// alternation.
	_, err = filled.WithAssistant("a2")
	assert.Error(t, err)
}

func TestRecordUserPrefix(t *testing.T) {
	record, err := NewRecord([]Turn{
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
		{Role: RoleAssistant, Content: "a2"},
	}, Metadata{})
	require.NoError(t, err)
	prefix := record.UserPrefix()
	require.Len(t, prefix, 2)
	assert.Equal(t, "q1", prefix[0].Content)
	assert.Equal(t, "q2", prefix[1].Content)
}
