package model

import (
	"time"

	"github.com/google/uuid"
)

// CandidateIdentity is the minimal identity required to start a session.
// Both fields must be non-empty; the controller refuses to start otherwise.
type CandidateIdentity struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Complete reports whether both identity fields are present.
func (c CandidateIdentity) Complete() bool {
	return c.Email != "" && c.FullName != ""
}

// Candidate is the longer-lived applicant record owned by the registration
// subsystem. This service reads it for identity resolution and writes the
// final assessment outcome back to it.
type Candidate struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}
