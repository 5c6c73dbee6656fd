//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package metric

// Built-in metric names.
const (
	MetricCoherence                = "coherence"
	MetricContextualUnderstanding  = "contextual_understanding"
	MetricHelpfulness              = "helpfulness"
	MetricKnowledgeRetention       = "knowledge_retention"
	MetricTurnRelevancy            = "turn_relevancy"
	MetricRoleAdherence            = "role_adherence"
	MetricConversationCompleteness = "conversation_completeness"
)
