//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package conversation

// DefaultWindowSize is the default sliding-window size for per-turn checks.
const DefaultWindowSize = 10

// Window is a half-open index range [Start, End) over a turn sequence,
// ending just past an assistant turn.
type Window struct {
	// Start is the index of the first turn in the window.
	Start int
	// End is the index just past the last turn in the window.
	End int
}

// Windows returns one fixed-size sliding window per assistant turn: each
// window covers the assistant turn and up to size-1 turns before it.
// It is a pure function over the immutable turn sequence, so it composes
// safely with concurrent evaluation on the same record.
func Windows(turns []Turn, size int) []Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	var windows []Window
	for i, turn := range turns {
		if turn.Role != RoleAssistant {
			continue
		}
		start := i + 1 - size
		if start < 0 {
			start = 0
		}
		windows = append(windows, Window{Start: start, End: i + 1})
	}
	return windows
}
