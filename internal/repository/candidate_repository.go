package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentgate/assess-backend/internal/model"
)

// CandidateRepository handles applicant record data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// GetByID retrieves a candidate by id.
func (r *CandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, created_at
		 FROM candidates
		 WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.FullName, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetIdentity implements the identity store interface against the
// longer-lived candidates table. A missing row is a miss, not an error.
func (r *CandidateRepository) GetIdentity(ctx context.Context, candidateID uuid.UUID) (*model.CandidateIdentity, error) {
	c, err := r.GetByID(ctx, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.CandidateIdentity{Email: c.Email, FullName: c.FullName}, nil
}
