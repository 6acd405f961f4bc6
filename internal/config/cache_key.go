package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateIdentityKey returns the cache key for a candidate's session-scoped identity
func (r *CacheKeyStruct) CandidateIdentityKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:identity", candidateID)
}

// CandidateAnswersKey returns the cache key for a candidate's live answer mirror
func (r *CacheKeyStruct) CandidateAnswersKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:answers", candidateID)
}

// CandidateSessionStartKey returns the cache key for a candidate's session start time
func (r *CacheKeyStruct) CandidateSessionStartKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:session_start", candidateID)
}

var CacheKey = NewCacheKeyStruct()
