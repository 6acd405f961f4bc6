package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionResult is the immutable outcome of one assessment session. It is
// computed exactly once, at the terminal transition, and never recomputed.
type SessionResult struct {
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
	Passed         bool    `json:"passed"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	TabSwitches    int     `json:"tab_switches"`
	CopyAttempts   int     `json:"copy_attempts"`
	Disqualified   bool    `json:"disqualified"`
}

// Submission is everything the submission pipeline needs for one session.
type Submission struct {
	SessionID   uuid.UUID
	CandidateID uuid.UUID
	Identity    CandidateIdentity
	Questions   []Question
	Answers     map[uuid.UUID]int
	Result      SessionResult
}

// SubmitOutcome describes how a submission ended up being recorded.
type SubmitOutcome struct {
	// Remote is true when the aggregate result endpoint accepted the score.
	Remote bool `json:"remote"`
	// CanonicalScore is the "correct/total" string echoed by the results
	// endpoint. When non-empty it supersedes the local score for display.
	CanonicalScore string `json:"canonical_score,omitempty"`
}

// SessionState enumerates persisted assessment session states.
type SessionState string

const (
	SessionStateInProgress       SessionState = "IN_PROGRESS"
	SessionStateSubmitted        SessionState = "SUBMITTED"
	SessionStateSubmittedLocally SessionState = "SUBMITTED_LOCALLY"
)

// AssessmentSession is the persisted record of a candidate's attempt.
type AssessmentSession struct {
	ID                uuid.UUID    `json:"id"`
	CandidateID       uuid.UUID    `json:"candidate_id"`
	StartedAt         time.Time    `json:"started_at"`
	FinishedAt        *time.Time   `json:"finished_at,omitempty"`
	State             SessionState `json:"state"`
	Score             *int         `json:"score,omitempty"`
	TotalQuestions    *int         `json:"total_questions,omitempty"`
	Percentage        *float64     `json:"percentage,omitempty"`
	Passed            *bool        `json:"passed,omitempty"`
	ElapsedSeconds    *int         `json:"elapsed_seconds,omitempty"`
	TabSwitches       int          `json:"tab_switches"`
	CopyAttempts      int          `json:"copy_attempts"`
	Disqualified      bool         `json:"disqualified"`
	SubmittedRemotely *bool        `json:"submitted_remotely,omitempty"`
}
