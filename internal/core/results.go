package core

import "time"

// SourceKnowledgeBase labels facts served from the local store.
const SourceKnowledgeBase = "Knowledge Base"

// Result is the provenance contract for every retrieved fact. When
// Success is false, Data is the zero value, Source is empty and
// Confidence is 0 — provenance is never fabricated for a failure.
type Result[T any] struct {
	Success    bool      `json:"success"`
	Data       T         `json:"data"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
}

// Hit builds a successful result.
func Hit[T any](data T, source string, at time.Time, confidence float64) Result[T] {
	return Result[T]{
		Success:    true,
		Data:       data,
		Source:     source,
		Timestamp:  at,
		Confidence: confidence,
	}
}

// Miss builds the uniform failure result.
func Miss[T any](at time.Time) Result[T] {
	return Result[T]{Timestamp: at}
}
