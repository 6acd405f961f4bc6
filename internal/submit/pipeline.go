package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/model"
)

// reviewRecord mirrors the wire format the remote review service expects.
type reviewRecord struct {
	AIQuestion              string   `json:"aiQuestion"`
	Options                 []string `json:"Options"`
	AIAnswer                string   `json:"aiAnswer"`
	UserAnswer              string   `json:"userAnswer"`
	QuestionID              string   `json:"questionId"`
	CorrectOptionIndex      int      `json:"correctOptionIndex"`
	UserSelectedOptionIndex int      `json:"userSelectedOptionIndex"`
	IsCorrect               bool     `json:"isCorrect"`
}

type reviewPayload struct {
	Email    string         `json:"email"`
	FullName string         `json:"fullName"`
	Review   []reviewRecord `json:"review"`
}

type resultPayload struct {
	FullName      string `json:"fullName"`
	CorrectAnswer int    `json:"correctAnswer"`
}

// resultResponse is the optional echo from the results endpoint. Score is a
// canonical "correct/total" string.
type resultResponse struct {
	Score string `json:"score"`
}

type notifyPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ResultRecord is what gets queued for local persistence on every terminal
// path, success or failure. Drained by the result worker.
type ResultRecord struct {
	SessionID         string  `json:"session_id"`
	CandidateID       string  `json:"candidate_id"`
	Score             int     `json:"score"`
	TotalQuestions    int     `json:"total_questions"`
	Percentage        float64 `json:"percentage"`
	Passed            bool    `json:"passed"`
	ElapsedSeconds    int     `json:"elapsed_seconds"`
	TabSwitches       int     `json:"tab_switches"`
	CopyAttempts      int     `json:"copy_attempts"`
	Disqualified      bool    `json:"disqualified"`
	SubmittedRemotely bool    `json:"submitted_remotely"`
	FinishedAt        int64   `json:"finished_at"`
}

// LocalRecorder hands the final result to local persistence (the applicant
// record updater runs off this queue).
type LocalRecorder interface {
	Record(ctx context.Context, rec ResultRecord) error
}

// Pipeline sends a finished session to the remote endpoints. Both network
// phases are best-effort and independently recoverable; every failure is
// caught here and degraded to local-only recording, never propagated to the
// session controller. The pipeline runs at most once per session (the
// controller's finalize guard).
type Pipeline struct {
	client    *http.Client
	reviewURL string
	resultURL string
	notifyURL string
	recorder  LocalRecorder
	log       zerolog.Logger
}

// NewPipeline creates a Pipeline. timeout bounds each remote call; the
// original behavior relied on the browser default, which is deliberately
// replaced by an explicit bound here.
func NewPipeline(reviewURL, resultURL, notifyURL string, timeout time.Duration, recorder LocalRecorder, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		client:    &http.Client{Timeout: timeout},
		reviewURL: reviewURL,
		resultURL: resultURL,
		notifyURL: notifyURL,
		recorder:  recorder,
		log:       log.With().Str("component", "submit_pipeline").Logger(),
	}
}

// Submit runs the three phases in order. Phase 1 (detailed review) failure is
// logged and never blocks phase 2 (aggregate result). Phase 3 (notification)
// is fire-and-forget. The local record is written on both paths so the
// candidate is never stranded without a recorded result.
func (p *Pipeline) Submit(ctx context.Context, sub model.Submission) model.SubmitOutcome {
	if err := p.sendReview(ctx, sub); err != nil {
		p.log.Error().Err(err).Str("session_id", sub.SessionID.String()).Msg("Review submission failed")
	}

	outcome := model.SubmitOutcome{}
	canonical, err := p.sendResult(ctx, sub)
	if err != nil {
		p.log.Error().Err(err).Str("session_id", sub.SessionID.String()).Msg("Result submission failed, recording locally")
	} else {
		outcome.Remote = true
		outcome.CanonicalScore = canonical
	}

	p.recordLocal(ctx, sub, outcome.Remote)

	if err := p.notify(ctx, sub.Identity); err != nil {
		// Swallowed: notification failure never affects the outcome.
		p.log.Warn().Err(err).Msg("Notification failed")
	}

	return outcome
}

func (p *Pipeline) sendReview(ctx context.Context, sub model.Submission) error {
	if p.reviewURL == "" {
		return errors.New("review endpoint not configured")
	}

	payload := reviewPayload{
		Email:    sub.Identity.Email,
		FullName: sub.Identity.FullName,
		Review:   buildReview(sub.Questions, sub.Answers),
	}
	return p.post(ctx, p.reviewURL, payload, nil)
}

func (p *Pipeline) sendResult(ctx context.Context, sub model.Submission) (string, error) {
	if p.resultURL == "" {
		return "", errors.New("result endpoint not configured")
	}

	payload := resultPayload{
		FullName:      sub.Identity.FullName,
		CorrectAnswer: sub.Result.Score,
	}

	var echo resultResponse
	if err := p.post(ctx, p.resultURL, payload, &echo); err != nil {
		return "", err
	}
	return echo.Score, nil
}

func (p *Pipeline) notify(ctx context.Context, identity model.CandidateIdentity) error {
	if p.notifyURL == "" {
		return errors.New("notify endpoint not configured")
	}
	return p.post(ctx, p.notifyURL, notifyPayload{Email: identity.Email, Name: identity.FullName}, nil)
}

func (p *Pipeline) recordLocal(ctx context.Context, sub model.Submission, remote bool) {
	rec := ResultRecord{
		SessionID:         sub.SessionID.String(),
		CandidateID:       sub.CandidateID.String(),
		Score:             sub.Result.Score,
		TotalQuestions:    sub.Result.TotalQuestions,
		Percentage:        sub.Result.Percentage,
		Passed:            sub.Result.Passed,
		ElapsedSeconds:    sub.Result.ElapsedSeconds,
		TabSwitches:       sub.Result.TabSwitches,
		CopyAttempts:      sub.Result.CopyAttempts,
		Disqualified:      sub.Result.Disqualified,
		SubmittedRemotely: remote,
		FinishedAt:        time.Now().Unix(),
	}

	if err := p.recorder.Record(ctx, rec); err != nil {
		p.log.Error().Err(err).Str("session_id", rec.SessionID).Msg("CRITICAL: Failed to record result locally")
	}
}

// post sends a JSON body and optionally decodes a JSON response into out.
func (p *Pipeline) post(ctx context.Context, url string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if len(data) > 0 {
			// A non-JSON or empty echo is not an error; the local score stands.
			_ = json.Unmarshal(data, out)
		}
	}
	return nil
}

// buildReview produces one record per question, in question order. Unanswered
// questions carry an empty user answer and index -1.
func buildReview(questions []model.Question, answers map[uuid.UUID]int) []reviewRecord {
	records := make([]reviewRecord, 0, len(questions))
	for _, q := range questions {
		rec := reviewRecord{
			AIQuestion:              q.Prompt,
			Options:                 q.Options,
			AIAnswer:                q.Options[q.CorrectOption],
			QuestionID:              q.ID.String(),
			CorrectOptionIndex:      q.CorrectOption,
			UserSelectedOptionIndex: -1,
		}
		if selected, ok := answers[q.ID]; ok && selected >= 0 && selected < len(q.Options) {
			rec.UserAnswer = q.Options[selected]
			rec.UserSelectedOptionIndex = selected
			rec.IsCorrect = selected == q.CorrectOption
		}
		records = append(records, rec)
	}
	return records
}
