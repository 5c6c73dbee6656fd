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

	"github.com/tagmeagain/LLMEval/conversation"
)

// Session threads a candidate's generated turns across consecutive rows of
// an incremental dataset. Each row's user query is appended to the
// accumulated conversation instead of restarting from that row's own prior
// turns, so later responses see the full history.
type Session struct {
	source    Source
	candidate conversation.Candidate
	turns     []conversation.Turn
}

// NewSession returns a fresh session for one candidate. The source must be
// a generated source; sessions make no sense for stored responses.
func NewSession(source Source, candidate conversation.Candidate) (*Session, error) {
	if source == nil {
		return nil, errors.New("source is required")
	}
	if _, ok := source.(*generated); !ok {
		return nil, fmt.Errorf("session requires a generated source, got %s", source.Name())
	}
	return &Session{source: source, candidate: candidate}, nil
}

// Next folds the record's user query into the accumulated conversation,
// generates the candidate's next response, and returns the accumulated
// record. The first call seeds the accumulation with the record's own prior
// turns.
func (s *Session) Next(ctx context.Context, record *conversation.Record) (*conversation.Record, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	var turns []conversation.Turn
	if len(s.turns) == 0 {
		turns = record.Turns()
		if n := len(turns); n > 0 && turns[n-1].Role == conversation.RoleAssistant {
			turns = turns[:n-1]
		}
	} else {
		query, err := lastUserTurn(record)
		if err != nil {
			return nil, err
		}
		turns = append(append([]conversation.Turn{}, s.turns...), query)
	}
	pending, err := conversation.NewRecord(turns, record.Metadata())
	if err != nil {
		return nil, fmt.Errorf("accumulate conversation: %w", err)
	}
	filled, err := s.source.Fill(ctx, pending, s.candidate)
	if err != nil {
		return nil, err
	}
	s.turns = filled.Turns()
	return filled, nil
}

func lastUserTurn(record *conversation.Record) (conversation.Turn, error) {
	turns := record.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == conversation.RoleUser {
			return turns[i], nil
		}
	}
	return conversation.Turn{}, errors.New("record has no user turn")
}
