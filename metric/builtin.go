//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package metric

import "github.com/tagmeagain/LLMEval/conversation"

// BuiltinDefinitions returns the full built-in metric set: three holistic
// conversation metrics and four structural multi-turn metrics.
func BuiltinDefinitions() []*Definition {
	return []*Definition{
		{
			Name:        MetricCoherence,
			Description: "Logical flow across turns",
			Rubric: []string{
				"Evaluate whether the conversation flows logically from one turn to the next",
				"Check if responses are well-structured and easy to follow",
				"Assess if there are smooth transitions between topics",
				"Identify any abrupt changes or confusing sequences that disrupt coherence",
			},
			Threshold:   DefaultThreshold,
			UsesContext: true,
		},
		{
			Name:        MetricContextualUnderstanding,
			Description: "Use of the full conversation context",
			Rubric: []string{
				"Check if the assistant understands the full context of the conversation",
				"Verify that responses build appropriately on previous turns",
				"Identify any instances where context is misunderstood or ignored",
				"Assess whether the assistant maintains awareness of the overall conversation thread",
			},
			Threshold:   DefaultThreshold,
			UsesContext: true,
		},
		{
			Name:        MetricHelpfulness,
			Description: "Practical value of the responses",
			Rubric: []string{
				"Determine if the responses provide practical, actionable information",
				"Assess whether the assistant addresses the user's needs effectively",
				"Check if explanations are clear and useful for the user",
				"Evaluate if the assistant goes beyond surface-level responses to truly help",
			},
			Threshold:   DefaultThreshold,
			UsesContext: true,
		},
		{
			Name:        MetricKnowledgeRetention,
			Description: "Cross-turn memory of facts the user provided",
			Rubric: []string{
				"Identify facts and preferences the user stated in earlier turns",
				"Check whether later assistant turns retain and reuse that information",
				"Penalize the assistant re-asking for information already given",
			},
			Threshold: DefaultThreshold,
		},
		{
			Name:        MetricTurnRelevancy,
			Description: "Per-turn relevance within a sliding window",
			Rubric: []string{
				"Judge whether the final assistant turn in the excerpt directly addresses the preceding user turns",
				"Penalize off-topic content, filler, and answers to questions that were not asked",
			},
			Threshold:  DefaultThreshold,
			WindowSize: conversation.DefaultWindowSize,
		},
		{
			Name:        MetricRoleAdherence,
			Description: "Consistency with the assigned chatbot role",
			Rubric: []string{
				"Check whether every assistant turn stays in character for the assigned chatbot role",
				"Penalize tone, claims or capabilities that break the role",
			},
			Threshold:    DefaultThreshold,
			RequiresRole: true,
		},
		{
			Name:        MetricConversationCompleteness,
			Description: "Whether the user's intentions were fulfilled",
			Rubric: []string{
				"Identify the user's intentions across the whole conversation",
				"Check whether the assistant satisfied each intention by the end",
				"Penalize dropped requests and unresolved questions",
			},
			Threshold: DefaultThreshold,
		},
	}
}

// reducedExclusions lists the holistic metrics dropped by the reduced set.
var reducedExclusions = map[string]bool{
	MetricCoherence:               true,
	MetricContextualUnderstanding: true,
	MetricHelpfulness:             true,
}
