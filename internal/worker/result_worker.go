package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/config"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker drains the persist_results_queue and writes finalized session
// outcomes to PostgreSQL. The in-memory engine never blocks on the database;
// this worker is the only writer of terminal session rows.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

// resultPayload mirrors submit.ResultRecord on the queue.
type resultPayload struct {
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

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*resultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p resultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed JSON")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*resultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpdateSessions(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("Bulk session update failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	w.bulkUpdateCandidates(ctx, batch)

	// After successful persistence the live answer mirrors are stale.
	w.bulkClearAnswerMirrors(ctx, batch)
}

// bulkUpdateSessions writes terminal outcomes with one UNNEST statement.
func (w *ResultWorker) bulkUpdateSessions(ctx context.Context, batch []*resultPayload) error {
	n := len(batch)

	sessionIDs := make([]uuid.UUID, 0, n)
	states := make([]string, 0, n)
	scores := make([]int, 0, n)
	totals := make([]int, 0, n)
	percentages := make([]float64, 0, n)
	passeds := make([]bool, 0, n)
	elapseds := make([]int, 0, n)
	tabSwitches := make([]int, 0, n)
	copyAttempts := make([]int, 0, n)
	disqualifieds := make([]bool, 0, n)
	remotes := make([]bool, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		sID, err := uuid.Parse(p.SessionID)
		if err != nil {
			return err
		}
		sessionIDs = append(sessionIDs, sID)
		states = append(states, terminalState(p.SubmittedRemotely))
		scores = append(scores, p.Score)
		totals = append(totals, p.TotalQuestions)
		percentages = append(percentages, p.Percentage)
		passeds = append(passeds, p.Passed)
		elapseds = append(elapseds, p.ElapsedSeconds)
		tabSwitches = append(tabSwitches, p.TabSwitches)
		copyAttempts = append(copyAttempts, p.CopyAttempts)
		disqualifieds = append(disqualifieds, p.Disqualified)
		remotes = append(remotes, p.SubmittedRemotely)
		finishedAts = append(finishedAts, time.Unix(p.FinishedAt, 0))
	}

	query := `
		UPDATE assessment_sessions AS s
		SET state = t.state,
		    score = t.score,
		    total_questions = t.total_questions,
		    percentage = t.percentage,
		    passed = t.passed,
		    elapsed_seconds = t.elapsed_seconds,
		    tab_switches = t.tab_switches,
		    copy_attempts = t.copy_attempts,
		    disqualified = t.disqualified,
		    submitted_remotely = t.submitted_remotely,
		    finished_at = t.finished_at
		FROM (
			SELECT
				u.session_id,
				u.state,
				u.score,
				u.total_questions,
				u.percentage,
				u.passed,
				u.elapsed_seconds,
				u.tab_switches,
				u.copy_attempts,
				u.disqualified,
				u.submitted_remotely,
				u.finished_at
			FROM UNNEST(
				$1::uuid[],
				$2::text[],
				$3::int[],
				$4::int[],
				$5::float8[],
				$6::bool[],
				$7::int[],
				$8::int[],
				$9::int[],
				$10::bool[],
				$11::bool[],
				$12::timestamptz[]
			) AS u (session_id, state, score, total_questions, percentage, passed,
			        elapsed_seconds, tab_switches, copy_attempts, disqualified,
			        submitted_remotely, finished_at)
		) AS t
		WHERE s.id = t.session_id
	`

	_, err := w.pool.Exec(ctx, query,
		sessionIDs, states, scores, totals, percentages, passeds,
		elapseds, tabSwitches, copyAttempts, disqualifieds, remotes, finishedAts,
	)
	return err
}

// bulkUpdateCandidates writes the pass/fail outcome back to the applicant
// record. Best effort: the session row is the source of truth.
func (w *ResultWorker) bulkUpdateCandidates(ctx context.Context, batch []*resultPayload) {
	n := len(batch)
	candidateIDs := make([]uuid.UUID, 0, n)
	passeds := make([]bool, 0, n)
	assessedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		cID, err := uuid.Parse(p.CandidateID)
		if err != nil {
			continue
		}
		candidateIDs = append(candidateIDs, cID)
		passeds = append(passeds, p.Passed && !p.Disqualified)
		assessedAts = append(assessedAts, time.Unix(p.FinishedAt, 0))
	}
	if len(candidateIDs) == 0 {
		return
	}

	query := `
		UPDATE candidates AS c
		SET assessment_passed = t.passed,
		    assessed_at = t.assessed_at
		FROM (
			SELECT u.candidate_id, u.passed, u.assessed_at
			FROM UNNEST($1::uuid[], $2::bool[], $3::timestamptz[])
			  AS u (candidate_id, passed, assessed_at)
		) AS t
		WHERE c.id = t.candidate_id
	`

	if _, err := w.pool.Exec(ctx, query, candidateIDs, passeds, assessedAts); err != nil {
		w.log.Warn().Err(err).Msg("Candidate outcome update failed")
	}
}

func (w *ResultWorker) bulkClearAnswerMirrors(ctx context.Context, batch []*resultPayload) {
	pipe := w.rdb.Pipeline()

	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.CandidateAnswersKey(p.CandidateID))
		pipe.Del(ctx, config.CacheKey.CandidateSessionStartKey(p.CandidateID))
	}

	_, _ = pipe.Exec(ctx)
}

func (w *ResultWorker) persistSingle(ctx context.Context, p *resultPayload) error {
	sID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE assessment_sessions
		 SET state = $1,
		     score = $2,
		     total_questions = $3,
		     percentage = $4,
		     passed = $5,
		     elapsed_seconds = $6,
		     tab_switches = $7,
		     copy_attempts = $8,
		     disqualified = $9,
		     submitted_remotely = $10,
		     finished_at = $11
		 WHERE id = $12`,
		terminalState(p.SubmittedRemotely), p.Score, p.TotalQuestions, p.Percentage,
		p.Passed, p.ElapsedSeconds, p.TabSwitches, p.CopyAttempts,
		p.Disqualified, p.SubmittedRemotely, time.Unix(p.FinishedAt, 0), sID,
	)
	return err
}

func terminalState(remote bool) string {
	if remote {
		return "SUBMITTED"
	}
	return "SUBMITTED_LOCALLY"
}
