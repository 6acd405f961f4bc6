package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/talentgate/assess-backend/internal/config"
)

// TokenType distinguishes token audiences.
type TokenType string

const (
	TokenTypeCandidate TokenType = "candidate"
)

// Claims are the JWT claims issued to a candidate by the registration
// subsystem. Email may be empty; full identity is resolved separately.
type Claims struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Email       string    `json:"email,omitempty"`
	TokenType   TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// AuthService validates and issues candidate tokens.
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// GenerateCandidateToken issues a signed candidate token. The registration
// subsystem normally issues these; this is used by tooling and tests.
func (s *AuthService) GenerateCandidateToken(candidateID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		CandidateID: candidateID,
		Email:       email,
		TokenType:   TokenTypeCandidate,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and validates a token string.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.CandidateID == uuid.Nil {
		return nil, errors.New("token has no candidate id")
	}
	return claims, nil
}
