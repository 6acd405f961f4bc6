package model

import (
	"github.com/google/uuid"
)

// Question is a single assessment question in canonical form. Immutable once
// loaded; the correct option is never serialized to candidates.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Prompt        string    `json:"prompt"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"-"`
	Category      string    `json:"category,omitempty"`
	Difficulty    string    `json:"difficulty,omitempty"`
}

// RawQuestion is the wire shape produced by the external question bank.
// CorrectAnswer may be a zero-based index (number) or a single letter A-D;
// the loader normalizes it before use.
type RawQuestion struct {
	ID            string      `json:"id,omitempty"`
	Question      string      `json:"question"`
	Options       []string    `json:"options"`
	CorrectAnswer interface{} `json:"correctAnswer"`
	Category      string      `json:"category,omitempty"`
	Difficulty    string      `json:"difficulty,omitempty"`
}
