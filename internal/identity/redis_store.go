package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/talentgate/assess-backend/internal/config"
	"github.com/talentgate/assess-backend/internal/model"
)

// identityTTL bounds how long the session-scoped copy outlives the login
// that wrote it.
const identityTTL = 24 * time.Hour

// RedisStore is the session-scoped identity store. The registration
// subsystem writes it at login; this service self-heals it after a
// longer-lived lookup so the next resolve is fast.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// GetIdentity returns the cached identity or (nil, nil) on a miss.
func (s *RedisStore) GetIdentity(ctx context.Context, candidateID uuid.UUID) (*model.CandidateIdentity, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.CandidateIdentityKey(candidateID.String())).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	var identity model.CandidateIdentity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return &identity, nil
}

// SetIdentity caches the identity for the session's lifetime.
func (s *RedisStore) SetIdentity(ctx context.Context, candidateID uuid.UUID, identity model.CandidateIdentity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return s.rdb.Set(ctx, config.CacheKey.CandidateIdentityKey(candidateID.String()), raw, identityTTL).Err()
}
