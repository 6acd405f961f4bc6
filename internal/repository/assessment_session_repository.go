package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentgate/assess-backend/internal/model"
)

// AssessmentSessionRepository handles assessment session data access.
type AssessmentSessionRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentSessionRepository creates a new AssessmentSessionRepository.
func NewAssessmentSessionRepository(pool *pgxpool.Pool) *AssessmentSessionRepository {
	return &AssessmentSessionRepository{pool: pool}
}

// Create inserts a new session row when the candidate starts their attempt.
// A concurrent duplicate start hits the unique candidate constraint and
// returns pgx.ErrNoRows; callers treat that as "already started".
func (r *AssessmentSessionRepository) Create(ctx context.Context, s *model.AssessmentSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_sessions (candidate_id, state)
		 VALUES ($1, $2)
		 ON CONFLICT (candidate_id) DO NOTHING
		 RETURNING id, started_at`,
		s.CandidateID, model.SessionStateInProgress,
	).Scan(&s.ID, &s.StartedAt)
}

// GetByCandidate retrieves the candidate's session row, if any.
func (r *AssessmentSessionRepository) GetByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.AssessmentSession, error) {
	s := &model.AssessmentSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, candidate_id, started_at, finished_at, state,
		        score, total_questions, percentage, passed, elapsed_seconds,
		        tab_switches, copy_attempts, disqualified, submitted_remotely
		 FROM assessment_sessions
		 WHERE candidate_id = $1`, candidateID,
	).Scan(
		&s.ID, &s.CandidateID, &s.StartedAt, &s.FinishedAt, &s.State,
		&s.Score, &s.TotalQuestions, &s.Percentage, &s.Passed, &s.ElapsedSeconds,
		&s.TabSwitches, &s.CopyAttempts, &s.Disqualified, &s.SubmittedRemotely,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
