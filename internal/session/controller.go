package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/model"
)

// State is the controller's session state.
type State string

const (
	StateIdle             State = "IDLE"
	StateActive           State = "ACTIVE"
	StateWarned           State = "WARNED"
	StateDisqualified     State = "DISQUALIFIED"
	StateFinalizing       State = "FINALIZING"
	StateSubmitted        State = "SUBMITTED"
	StateSubmittedLocally State = "SUBMITTED_LOCALLY"
)

// Trigger identifies what caused the terminal transition.
type Trigger string

const (
	TriggerManual       Trigger = "manual_submit"
	TriggerExpiry       Trigger = "timer_expiry"
	TriggerDisqualified Trigger = "disqualification"
)

// EventKind identifies an outbound controller event.
type EventKind string

const (
	EventWarning      EventKind = "warning"
	EventLowTime      EventKind = "low_time"
	EventDisqualified EventKind = "disqualified"
	EventSubmitted    EventKind = "submitted"
)

// Event is pushed to the client stream as session state evolves.
type Event struct {
	Kind          EventKind            `json:"kind"`
	State         State                `json:"state"`
	WarningNumber int                  `json:"warning_number,omitempty"`
	Remaining     int                  `json:"remaining_seconds,omitempty"`
	Result        *model.SessionResult `json:"result,omitempty"`
	Outcome       *model.SubmitOutcome `json:"outcome,omitempty"`
}

// Snapshot is a point-in-time view of the session, used for reconnects.
type Snapshot struct {
	State      State                 `json:"state"`
	Remaining  int                   `json:"remaining_seconds"`
	Answers    map[uuid.UUID]int     `json:"answers"`
	Proctoring model.ProctoringState `json:"proctoring"`
	Result     *model.SessionResult  `json:"result,omitempty"`
	Outcome    *model.SubmitOutcome  `json:"outcome,omitempty"`
}

// Submitter sends a finished session to the remote endpoints. It must never
// return an error: degraded submissions are reported through the outcome.
type Submitter interface {
	Submit(ctx context.Context, sub model.Submission) model.SubmitOutcome
}

// Config tunes one session engine.
type Config struct {
	SessionDuration time.Duration
	LowTimeAt       time.Duration
	TickInterval    time.Duration // 1s in production; tests inject shorter
	PassThreshold   float64
	MaxTabSwitches  int
	WarningDuration time.Duration
	DisqualifyGrace time.Duration
}

var (
	// ErrIdentityRequired means email or full name was missing at session start.
	ErrIdentityRequired = errors.New("candidate identity is required to start a session")
	// ErrNoQuestions means the session was started with an empty question set.
	ErrNoQuestions = errors.New("cannot start a session without questions")
	// ErrSessionClosed means the engine has been torn down.
	ErrSessionClosed = errors.New("session is closed")
	// ErrInputDisabled means answers are no longer accepted (disqualified or finalizing).
	ErrInputDisabled = errors.New("session no longer accepts input")
	// ErrUnknownQuestion means an answer targeted an id outside the loaded set.
	ErrUnknownQuestion = errors.New("unknown question id")
	// ErrInvalidOption means the selected option index is out of range.
	ErrInvalidOption = errors.New("option index out of range")
)

// Controller owns one candidate's session: it wires clock and monitor events
// to state transitions and guarantees the scorer and submission pipeline run
// exactly once per session. A single goroutine owns all mutable state;
// commands and clock events are serialized through channels, so the answer
// store and proctoring counters need no locks.
type Controller struct {
	sessionID   uuid.UUID
	candidateID uuid.UUID
	identity    model.CandidateIdentity
	questions   []model.Question
	optionCount map[uuid.UUID]int

	cfg       Config
	submitter Submitter
	log       zerolog.Logger

	clock   *Clock
	monitor *Monitor
	answers *AnswerStore

	cmds   chan interface{}
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	// Loop-owned; never touched outside run().
	state     State
	finalized bool
	remaining int
	warnSeq   int
	result    *model.SessionResult
	outcome   *model.SubmitOutcome
}

// Commands processed by the loop.
type answerCmd struct {
	questionID  uuid.UUID
	optionIndex int
	reply       chan error
}

type signalCmd struct {
	kind  model.SignalKind
	reply chan SignalOutcome
}

type submitCmd struct{}

type warningDoneCmd struct{ seq int }

type graceElapsedCmd struct{}

type snapshotCmd struct{ reply chan Snapshot }

// NewController validates inputs and builds a session engine in Idle state.
// It fails fast when identity is incomplete — the caller surfaces this as a
// refusal to start, never entering Active.
func NewController(
	sessionID, candidateID uuid.UUID,
	identity model.CandidateIdentity,
	questions []model.Question,
	cfg Config,
	submitter Submitter,
	log zerolog.Logger,
) (*Controller, error) {
	if !identity.Complete() {
		return nil, ErrIdentityRequired
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	optionCount := make(map[uuid.UUID]int, len(questions))
	for _, q := range questions {
		optionCount[q.ID] = len(q.Options)
	}

	budget := int(cfg.SessionDuration / time.Second)
	lowAt := int(cfg.LowTimeAt / time.Second)

	return &Controller{
		sessionID:   sessionID,
		candidateID: candidateID,
		identity:    identity,
		questions:   questions,
		optionCount: optionCount,
		cfg:         cfg,
		submitter:   submitter,
		log: log.With().
			Str("component", "session_controller").
			Str("session_id", sessionID.String()).
			Str("candidate_id", candidateID.String()).
			Logger(),
		clock:     NewClock(budget, lowAt, cfg.TickInterval),
		monitor:   NewMonitor(cfg.MaxTabSwitches),
		answers:   NewAnswerStore(),
		cmds:      make(chan interface{}, 16),
		events:    make(chan Event, 32),
		done:      make(chan struct{}),
		state:     StateIdle,
		remaining: budget,
	}, nil
}

// Start launches the engine loop and the countdown clock.
func (c *Controller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx)
}

// Stop tears the session down: the clock tick and the loop goroutine exit.
// An in-flight submission is cancelled; its result is discarded.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Done is closed when the loop has exited.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Events returns the outbound event stream for the client connection.
func (c *Controller) Events() <-chan Event { return c.events }

// Questions returns the loaded question set.
func (c *Controller) Questions() []model.Question { return c.questions }

// SessionID returns the persisted session row id this engine serves.
func (c *Controller) SessionID() uuid.UUID { return c.sessionID }

// CandidateID returns the candidate this engine belongs to.
func (c *Controller) CandidateID() uuid.UUID { return c.candidateID }

// Identity returns the candidate identity bound to this session.
func (c *Controller) Identity() model.CandidateIdentity { return c.identity }

// SetAnswer records a selection. Idempotent overwrite; rejected once the
// session is disqualified or finalizing.
func (c *Controller) SetAnswer(questionID uuid.UUID, optionIndex int) error {
	reply := make(chan error, 1)
	if err := c.send(answerCmd{questionID: questionID, optionIndex: optionIndex, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrSessionClosed
	}
}

// Signal reports a raw proctoring signal and returns the accounting outcome.
// Suppression is acknowledged in every state, even after finalization.
func (c *Controller) Signal(kind model.SignalKind) (SignalOutcome, error) {
	reply := make(chan SignalOutcome, 1)
	if err := c.send(signalCmd{kind: kind, reply: reply}); err != nil {
		return SignalOutcome{}, err
	}
	select {
	case out := <-reply:
		return out, nil
	case <-c.done:
		return SignalOutcome{}, ErrSessionClosed
	}
}

// Submit requests manual finalization. A no-op if another terminal trigger
// won the race.
func (c *Controller) Submit() error {
	return c.send(submitCmd{})
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := c.send(snapshotCmd{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-c.done:
		return Snapshot{}, ErrSessionClosed
	}
}

func (c *Controller) send(cmd interface{}) error {
	select {
	case c.cmds <- cmd:
		return nil
	case <-c.done:
		return ErrSessionClosed
	}
}

// ─── Loop ───────────────────────────────────────────────────────────

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	c.state = StateActive
	go c.clock.Run(ctx)
	c.log.Info().Int("budget_seconds", c.clock.Budget()).Msg("Session active")

	clockEvents := c.clock.Events()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-clockEvents:
			if !ok {
				clockEvents = nil
				continue
			}
			c.onClockEvent(ctx, ev)
		case cmd := <-c.cmds:
			c.onCommand(ctx, cmd)
		}
	}
}

func (c *Controller) onClockEvent(ctx context.Context, ev ClockEvent) {
	if c.finalized {
		return
	}

	switch ev.Kind {
	case ClockTick:
		c.remaining = ev.Remaining
	case ClockLowTime:
		c.enterWarned()
		c.emit(Event{Kind: EventLowTime, State: c.state, Remaining: ev.Remaining})
	case ClockExpired:
		c.remaining = 0
		c.finalize(ctx, TriggerExpiry)
	}
}

func (c *Controller) onCommand(ctx context.Context, cmd interface{}) {
	switch v := cmd.(type) {
	case answerCmd:
		v.reply <- c.applyAnswer(v.questionID, v.optionIndex)

	case signalCmd:
		v.reply <- c.applySignal(v.kind)

	case submitCmd:
		// Disqualified sessions finalize via the grace timer, not manually.
		if c.state == StateDisqualified {
			return
		}
		c.finalize(ctx, TriggerManual)

	case warningDoneCmd:
		if v.seq == c.warnSeq && c.state == StateWarned {
			c.state = StateActive
		}

	case graceElapsedCmd:
		c.finalize(ctx, TriggerDisqualified)

	case snapshotCmd:
		v.reply <- Snapshot{
			State:      c.state,
			Remaining:  c.remaining,
			Answers:    c.answers.Snapshot(),
			Proctoring: c.monitor.State(),
			Result:     c.result,
			Outcome:    c.outcome,
		}
	}
}

func (c *Controller) applyAnswer(questionID uuid.UUID, optionIndex int) error {
	if c.finalized || c.state == StateDisqualified {
		return ErrInputDisabled
	}
	count, ok := c.optionCount[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if optionIndex < 0 || optionIndex >= count {
		return ErrInvalidOption
	}
	c.answers.Set(questionID, optionIndex)
	return nil
}

func (c *Controller) applySignal(kind model.SignalKind) SignalOutcome {
	// The result is frozen once finalization begins: acknowledge suppression
	// but leave the counters alone.
	if c.finalized {
		return SignalOutcome{Suppressed: true, State: c.monitor.State()}
	}

	out := c.monitor.Observe(kind)

	if out.Disqualified {
		c.state = StateDisqualified
		c.emit(Event{Kind: EventDisqualified, State: c.state})
		c.log.Warn().Int("tab_switches", out.State.TabSwitches).Msg("Candidate disqualified")
		c.after(c.cfg.DisqualifyGrace, graceElapsedCmd{})
		return out
	}

	if out.Warn && c.state != StateDisqualified {
		c.enterWarned()
		c.emit(Event{Kind: EventWarning, State: c.state, WarningNumber: out.WarnNumber})
	}

	return out
}

// enterWarned raises the warning overlay. Warnings never block input and
// auto-revert to Active after the configured display duration.
func (c *Controller) enterWarned() {
	if c.state != StateActive && c.state != StateWarned {
		return
	}
	c.state = StateWarned
	c.warnSeq++
	c.after(c.cfg.WarningDuration, warningDoneCmd{seq: c.warnSeq})
}

// after schedules a command back into the loop without blocking it.
func (c *Controller) after(d time.Duration, cmd interface{}) {
	time.AfterFunc(d, func() {
		_ = c.send(cmd)
	})
}

// finalize runs the terminal transition: score once, submit once. The
// finalized guard makes racing triggers (expiry vs. manual click) collapse
// to a single invocation; later triggers are no-ops.
func (c *Controller) finalize(ctx context.Context, trigger Trigger) {
	if c.finalized {
		return
	}
	c.finalized = true
	c.state = StateFinalizing

	elapsed := c.clock.Budget() - c.remaining
	if trigger == TriggerExpiry {
		elapsed = c.clock.Budget()
	}

	result := Score(c.questions, c.answers.Snapshot(), c.cfg.PassThreshold, elapsed, c.monitor.State())
	c.result = &result

	c.log.Info().
		Str("trigger", string(trigger)).
		Int("score", result.Score).
		Int("total", result.TotalQuestions).
		Float64("percentage", result.Percentage).
		Bool("disqualified", result.Disqualified).
		Msg("Session finalizing")

	outcome := c.submitter.Submit(ctx, model.Submission{
		SessionID:   c.sessionID,
		CandidateID: c.candidateID,
		Identity:    c.identity,
		Questions:   c.questions,
		Answers:     c.answers.Snapshot(),
		Result:      result,
	})
	c.outcome = &outcome

	if outcome.Remote {
		c.state = StateSubmitted
	} else {
		c.state = StateSubmittedLocally
	}

	c.emit(Event{Kind: EventSubmitted, State: c.state, Result: c.result, Outcome: c.outcome})

	// The engine lingers so reconnects can read the result before the worker
	// has persisted it, then tears itself down.
	time.AfterFunc(finalLinger, c.Stop)
}

// finalLinger bounds how long a finalized engine stays resident. Terminal
// reads after this window are served from the persisted row.
const finalLinger = time.Hour

// emit pushes an event without ever blocking the loop. A slow or absent
// consumer loses events; the snapshot endpoint recovers the current state.
func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn().Str("kind", string(ev.Kind)).Msg("Event buffer full, dropping")
	}
}
