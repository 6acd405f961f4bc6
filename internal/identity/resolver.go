package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/model"
)

// ErrIdentityNotFound means no store produced a complete identity. Sessions
// must refuse to start in this case.
var ErrIdentityNotFound = errors.New("candidate identity not found")

// Store yields a candidate identity or (nil, nil) on a miss.
type Store interface {
	GetIdentity(ctx context.Context, candidateID uuid.UUID) (*model.CandidateIdentity, error)
}

// Resolver resolves candidate identity with a fixed precedence: the
// session-scoped store first, then the longer-lived applicant store, then an
// in-memory "current applicant" record. It replaces ad-hoc lookups scattered
// across stores with a single injected call.
type Resolver struct {
	session    Store
	applicants Store
	log        zerolog.Logger

	mu      sync.RWMutex
	current *model.CandidateIdentity
}

// NewResolver creates a Resolver. Either store may be nil and is then skipped.
func NewResolver(session, applicants Store, log zerolog.Logger) *Resolver {
	return &Resolver{
		session:    session,
		applicants: applicants,
		log:        log.With().Str("component", "identity_resolver").Logger(),
	}
}

// SetCurrentApplicant installs the externally supplied fallback record.
func (r *Resolver) SetCurrentApplicant(identity *model.CandidateIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = identity
}

// Resolve returns a complete identity or ErrIdentityNotFound. Store errors
// are logged and treated as misses so a degraded cache cannot block a
// candidate whose record exists in a later store.
func (r *Resolver) Resolve(ctx context.Context, candidateID uuid.UUID) (model.CandidateIdentity, error) {
	for _, store := range []Store{r.session, r.applicants} {
		if store == nil {
			continue
		}
		identity, err := store.GetIdentity(ctx, candidateID)
		if err != nil {
			r.log.Warn().Err(err).Str("candidate_id", candidateID.String()).Msg("Identity store lookup failed")
			continue
		}
		if identity != nil && identity.Complete() {
			return *identity, nil
		}
	}

	r.mu.RLock()
	current := r.current
	r.mu.RUnlock()
	if current != nil && current.Complete() {
		return *current, nil
	}

	return model.CandidateIdentity{}, ErrIdentityNotFound
}
