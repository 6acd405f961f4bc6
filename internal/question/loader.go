package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/model"
)

// ErrNoQuestions is returned when a raw set normalizes to zero usable questions.
var ErrNoQuestions = errors.New("question set is empty after normalization")

// Loader fetches the question set from the external question bank and
// normalizes it into canonical form. When the source is unconfigured,
// unreachable, or returns an empty set, the built-in fallback set is used.
type Loader struct {
	sourceURL string
	client    *http.Client
	log       zerolog.Logger
}

// NewLoader creates a Loader. sourceURL may be empty (fallback-only mode).
func NewLoader(sourceURL string, client *http.Client, log zerolog.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		sourceURL: sourceURL,
		client:    client,
		log:       log.With().Str("component", "question_loader").Logger(),
	}
}

// Load returns the canonical question set for a new session.
func (l *Loader) Load(ctx context.Context) ([]model.Question, error) {
	if l.sourceURL == "" {
		return Normalize(FallbackSet())
	}

	raw, err := l.fetch(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("Question source unavailable, using fallback set")
		return Normalize(FallbackSet())
	}

	questions, err := Normalize(raw)
	if err != nil {
		l.log.Warn().Err(err).Msg("Question source returned no usable questions, using fallback set")
		return Normalize(FallbackSet())
	}
	return questions, nil
}

func (l *Loader) fetch(ctx context.Context) ([]model.RawQuestion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("question source returned status %d", resp.StatusCode)
	}

	var raw []model.RawQuestion
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return raw, nil
}

// Normalize converts a raw question list into canonical questions. Entries
// with no prompt, fewer than two options, or an unresolvable correct answer
// are dropped. Raw ids are kept when they parse as UUIDs; otherwise a fresh
// id is assigned (ids only need to be stable within the session).
func Normalize(raw []model.RawQuestion) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(raw))

	for _, r := range raw {
		if strings.TrimSpace(r.Question) == "" || len(r.Options) < 2 {
			continue
		}

		correct, ok := normalizeCorrectAnswer(r.CorrectAnswer, len(r.Options))
		if !ok {
			continue
		}

		id, err := uuid.Parse(r.ID)
		if err != nil {
			id = uuid.New()
		}

		questions = append(questions, model.Question{
			ID:            id,
			Prompt:        strings.TrimSpace(r.Question),
			Options:       r.Options,
			CorrectOption: correct,
			Category:      r.Category,
			Difficulty:    r.Difficulty,
		})
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

// normalizeCorrectAnswer resolves the question bank's correctAnswer field,
// which may be a zero-based index or a single letter A-D, into an option index.
func normalizeCorrectAnswer(v interface{}, optionCount int) (int, bool) {
	switch t := v.(type) {
	case float64: // JSON numbers decode as float64
		idx := int(t)
		if float64(idx) != t || idx < 0 || idx >= optionCount {
			return 0, false
		}
		return idx, true
	case string:
		s := strings.ToUpper(strings.TrimSpace(t))
		if len(s) == 1 && s[0] >= 'A' && s[0] <= 'D' {
			idx := int(s[0] - 'A')
			if idx >= optionCount {
				return 0, false
			}
			return idx, true
		}
		return 0, false
	default:
		return 0, false
	}
}
