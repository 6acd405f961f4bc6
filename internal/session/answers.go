package session

import (
	"github.com/google/uuid"
)

// AnswerStore holds the candidate's current selections keyed by question id.
// Re-selecting overwrites; absence means unanswered. It is owned exclusively
// by the controller loop, so no locking is needed.
type AnswerStore struct {
	selected map[uuid.UUID]int
}

// NewAnswerStore creates an empty AnswerStore.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{selected: make(map[uuid.UUID]int)}
}

// Set records the selected option for a question, overwriting any prior value.
func (s *AnswerStore) Set(questionID uuid.UUID, optionIndex int) {
	s.selected[questionID] = optionIndex
}

// Len returns the number of answered questions.
func (s *AnswerStore) Len() int {
	return len(s.selected)
}

// Snapshot returns a copy of the current mapping.
func (s *AnswerStore) Snapshot() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(s.selected))
	for k, v := range s.selected {
		out[k] = v
	}
	return out
}
