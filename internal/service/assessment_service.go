package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/config"
	"github.com/talentgate/assess-backend/internal/identity"
	"github.com/talentgate/assess-backend/internal/model"
	"github.com/talentgate/assess-backend/internal/question"
	"github.com/talentgate/assess-backend/internal/repository"
	"github.com/talentgate/assess-backend/internal/session"
)

var (
	// ErrAlreadyCompleted means the candidate finished their single attempt.
	ErrAlreadyCompleted = errors.New("assessment already completed")
	// ErrNoSession means the candidate never started an attempt.
	ErrNoSession = errors.New("no assessment session")
	// ErrResultNotReady means the attempt exists but has not been finalized.
	ErrResultNotReady = errors.New("assessment result not ready")
)

// SessionView is the candidate-facing view of their session, served on start
// and on reconnect. Questions never carry the correct option.
type SessionView struct {
	SessionID        uuid.UUID             `json:"session_id"`
	State            session.State         `json:"state"`
	Questions        []model.Question      `json:"questions"`
	TotalQuestions   int                   `json:"total_questions"`
	DurationSeconds  int                   `json:"duration_seconds"`
	RemainingSeconds int                   `json:"remaining_seconds"`
	LowTimeSeconds   int                   `json:"low_time_seconds"`
	Answers          map[uuid.UUID]int     `json:"answers"`
	Proctoring       model.ProctoringState `json:"proctoring"`
	Result           *model.SessionResult  `json:"result,omitempty"`
	Outcome          *model.SubmitOutcome  `json:"outcome,omitempty"`
}

// ResultView is the candidate-facing result, served once the session reached
// a terminal state.
type ResultView struct {
	State   model.SessionState  `json:"state"`
	Result  model.SessionResult `json:"result"`
	Outcome model.SubmitOutcome `json:"outcome"`
}

// AssessmentService orchestrates session lifecycle: identity resolution,
// question loading, engine startup, and terminal-state reads.
type AssessmentService struct {
	cfg      *config.Config
	resolver *identity.Resolver
	cache    *identity.RedisStore
	loader   *question.Loader
	manager  *session.Manager
	sessions *repository.AssessmentSessionRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	cfg *config.Config,
	resolver *identity.Resolver,
	cache *identity.RedisStore,
	loader *question.Loader,
	manager *session.Manager,
	sessions *repository.AssessmentSessionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		cfg:      cfg,
		resolver: resolver,
		cache:    cache,
		loader:   loader,
		manager:  manager,
		sessions: sessions,
		rdb:      rdb,
		log:      log.With().Str("component", "assessment_service").Logger(),
	}
}

// StartSession begins the candidate's single attempt, or re-attaches to the
// live engine if one is already running. Identity must resolve before any
// session state is created.
func (s *AssessmentService) StartSession(ctx context.Context, candidateID uuid.UUID) (*SessionView, error) {
	ident, err := s.resolver.Resolve(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	// Self-heal the session-scoped copy so the next resolve is a cache hit.
	if cerr := s.cache.SetIdentity(ctx, candidateID, ident); cerr != nil {
		s.log.Warn().Err(cerr).Str("candidate_id", candidateID.String()).Msg("Identity cache write failed")
	}

	if ctrl, ok := s.manager.Get(candidateID); ok {
		select {
		case <-ctrl.Done():
			// Stale; fall through and start fresh.
		default:
			view, verr := s.viewFromEngine(ctrl)
			if verr != nil {
				return nil, verr
			}
			// The engine lingers after finalization to serve results; a
			// completed attempt is never restartable.
			if view.Result != nil {
				return nil, ErrAlreadyCompleted
			}
			return view, nil
		}
	}

	row := &model.AssessmentSession{CandidateID: candidateID}
	err = s.sessions.Create(ctx, row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row exists from an earlier start. Completed attempts stay completed;
		// an interrupted IN_PROGRESS attempt restarts with a fresh clock.
		existing, gerr := s.sessions.GetByCandidate(ctx, candidateID)
		if gerr != nil {
			return nil, fmt.Errorf("load existing session: %w", gerr)
		}
		if existing.State != model.SessionStateInProgress {
			return nil, ErrAlreadyCompleted
		}
		row = existing
	} else if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	questions, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	ctrl, created, err := s.manager.Start(row.ID, candidateID, ident, questions)
	if err != nil {
		return nil, err
	}
	if created {
		s.rememberStart(ctx, candidateID, row.StartedAt)
		s.log.Info().
			Str("candidate_id", candidateID.String()).
			Str("session_id", row.ID.String()).
			Int("questions", len(questions)).
			Msg("Session started")
	}

	return s.viewFromEngine(ctrl)
}

// State returns the candidate's current session view for reconnects. A live
// engine wins; otherwise the persisted terminal record is served.
func (s *AssessmentService) State(ctx context.Context, candidateID uuid.UUID) (*SessionView, error) {
	if ctrl, ok := s.manager.Get(candidateID); ok {
		select {
		case <-ctrl.Done():
		default:
			return s.viewFromEngine(ctrl)
		}
	}

	row, err := s.sessions.GetByCandidate(ctx, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s.viewFromRow(row), nil
}

// Result returns the finalized result, preferring the live engine's copy
// over the asynchronously persisted row.
func (s *AssessmentService) Result(ctx context.Context, candidateID uuid.UUID) (*ResultView, error) {
	if ctrl, ok := s.manager.Get(candidateID); ok {
		if snap, err := ctrl.Snapshot(); err == nil && snap.Result != nil {
			state := model.SessionStateSubmittedLocally
			if snap.Outcome != nil && snap.Outcome.Remote {
				state = model.SessionStateSubmitted
			}
			outcome := model.SubmitOutcome{}
			if snap.Outcome != nil {
				outcome = *snap.Outcome
			}
			return &ResultView{State: state, Result: *snap.Result, Outcome: outcome}, nil
		}
	}

	row, err := s.sessions.GetByCandidate(ctx, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if row.State == model.SessionStateInProgress || row.Score == nil {
		return nil, ErrResultNotReady
	}

	return &ResultView{State: row.State, Result: resultFromRow(row), Outcome: outcomeFromRow(row)}, nil
}

// MirrorAnswer keeps a Redis copy of the live answer map. The mirror is for
// audit and reconnect display only; the engine's store is authoritative.
func (s *AssessmentService) MirrorAnswer(ctx context.Context, candidateID, questionID uuid.UUID, optionIndex int) {
	key := config.CacheKey.CandidateAnswersKey(candidateID.String())
	if err := s.rdb.HSet(ctx, key, questionID.String(), optionIndex).Err(); err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID.String()).Msg("Answer mirror write failed")
	}
}

// RecordProctorEvent queues a proctoring event for asynchronous persistence.
func (s *AssessmentService) RecordProctorEvent(ctx context.Context, sessionID, candidateID uuid.UUID, kind model.SignalKind) {
	payload, err := json.Marshal(proctorEventRecord{
		SessionID:   sessionID,
		CandidateID: candidateID,
		Kind:        string(kind),
		RecordedAt:  time.Now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Encode proctoring event failed")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistEventsQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID.String()).Msg("Proctoring event enqueue failed")
	}
}

// proctorEventRecord is the queued proctoring event payload.
type proctorEventRecord struct {
	SessionID   uuid.UUID `json:"session_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Kind        string    `json:"kind"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func (s *AssessmentService) rememberStart(ctx context.Context, candidateID uuid.UUID, startedAt time.Time) {
	key := config.CacheKey.CandidateSessionStartKey(candidateID.String())
	if err := s.rdb.Set(ctx, key, strconv.FormatInt(startedAt.Unix(), 10), s.cfg.SessionDuration+time.Hour).Err(); err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID.String()).Msg("Session start cache write failed")
	}
}

func (s *AssessmentService) viewFromEngine(ctrl *session.Controller) (*SessionView, error) {
	snap, err := ctrl.Snapshot()
	if err != nil {
		return nil, err
	}
	return &SessionView{
		SessionID:        ctrl.SessionID(),
		State:            snap.State,
		Questions:        ctrl.Questions(),
		TotalQuestions:   len(ctrl.Questions()),
		DurationSeconds:  int(s.cfg.SessionDuration / time.Second),
		RemainingSeconds: snap.Remaining,
		LowTimeSeconds:   int(s.cfg.LowTimeAt / time.Second),
		Answers:          snap.Answers,
		Proctoring:       snap.Proctoring,
		Result:           snap.Result,
		Outcome:          snap.Outcome,
	}, nil
}

// viewFromRow serves a terminal session from its persisted record, after the
// engine is gone.
func (s *AssessmentService) viewFromRow(row *model.AssessmentSession) *SessionView {
	view := &SessionView{
		SessionID:       row.ID,
		State:           session.State(row.State),
		DurationSeconds: int(s.cfg.SessionDuration / time.Second),
		LowTimeSeconds:  int(s.cfg.LowTimeAt / time.Second),
		Answers:         map[uuid.UUID]int{},
		Proctoring: model.ProctoringState{
			TabSwitches:  row.TabSwitches,
			CopyAttempts: row.CopyAttempts,
			Disqualified: row.Disqualified,
		},
	}
	if row.State != model.SessionStateInProgress && row.Score != nil {
		result := resultFromRow(row)
		outcome := outcomeFromRow(row)
		view.Result = &result
		view.Outcome = &outcome
		view.TotalQuestions = result.TotalQuestions
	}
	return view
}

func resultFromRow(row *model.AssessmentSession) model.SessionResult {
	result := model.SessionResult{
		TabSwitches:  row.TabSwitches,
		CopyAttempts: row.CopyAttempts,
		Disqualified: row.Disqualified,
	}
	if row.Score != nil {
		result.Score = *row.Score
	}
	if row.TotalQuestions != nil {
		result.TotalQuestions = *row.TotalQuestions
	}
	if row.Percentage != nil {
		result.Percentage = *row.Percentage
	}
	if row.Passed != nil {
		result.Passed = *row.Passed
	}
	if row.ElapsedSeconds != nil {
		result.ElapsedSeconds = *row.ElapsedSeconds
	}
	return result
}

func outcomeFromRow(row *model.AssessmentSession) model.SubmitOutcome {
	outcome := model.SubmitOutcome{}
	if row.SubmittedRemotely != nil {
		outcome.Remote = *row.SubmittedRemotely
	}
	return outcome
}
