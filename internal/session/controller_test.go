package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/model"
)

// fakeSubmitter records submissions and returns a canned outcome.
type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	last    model.Submission
	outcome model.SubmitOutcome
}

func (f *fakeSubmitter) Submit(_ context.Context, sub model.Submission) model.SubmitOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = sub
	return f.outcome
}

func (f *fakeSubmitter) snapshot() (int, model.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.last
}

var testIdentity = model.CandidateIdentity{Email: "jo@example.com", FullName: "Jo Candidate"}

func testConfig() Config {
	return Config{
		SessionDuration: 900 * time.Second,
		LowTimeAt:       time.Second,
		TickInterval:    time.Millisecond,
		PassThreshold:   60,
		MaxTabSwitches:  3,
		WarningDuration: 5 * time.Millisecond,
		DisqualifyGrace: 5 * time.Millisecond,
	}
}

func startController(t *testing.T, cfg Config, submitter Submitter) *Controller {
	t.Helper()

	ctrl, err := NewController(
		uuid.New(), uuid.New(), testIdentity, makeQuestions(5), cfg, submitter, zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	ctrl.Start()
	t.Cleanup(ctrl.Stop)
	return ctrl
}

// waitEvent blocks until the controller emits an event of the given kind.
func waitEvent(t *testing.T, ctrl *Controller, kind EventKind) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ctrl.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %q event within 2s", kind)
		}
	}
}

func TestControllerRejectsIncompleteIdentity(t *testing.T) {
	cases := []model.CandidateIdentity{
		{},
		{Email: "jo@example.com"},
		{FullName: "Jo Candidate"},
	}
	for _, ident := range cases {
		_, err := NewController(
			uuid.New(), uuid.New(), ident, makeQuestions(3), testConfig(), &fakeSubmitter{}, zerolog.Nop(),
		)
		if err != ErrIdentityRequired {
			t.Errorf("identity %+v: err = %v, want ErrIdentityRequired", ident, err)
		}
	}
}

func TestControllerRejectsEmptyQuestionSet(t *testing.T) {
	_, err := NewController(
		uuid.New(), uuid.New(), testIdentity, nil, testConfig(), &fakeSubmitter{}, zerolog.Nop(),
	)
	if err != ErrNoQuestions {
		t.Errorf("err = %v, want ErrNoQuestions", err)
	}
}

func TestControllerAnswerValidation(t *testing.T) {
	ctrl := startController(t, testConfig(), &fakeSubmitter{})
	questions := ctrl.Questions()

	if err := ctrl.SetAnswer(questions[0].ID, 2); err != nil {
		t.Errorf("valid answer rejected: %v", err)
	}
	// Overwrite is allowed.
	if err := ctrl.SetAnswer(questions[0].ID, 1); err != nil {
		t.Errorf("overwrite rejected: %v", err)
	}

	if err := ctrl.SetAnswer(uuid.New(), 0); err != ErrUnknownQuestion {
		t.Errorf("unknown question: err = %v, want ErrUnknownQuestion", err)
	}
	if err := ctrl.SetAnswer(questions[0].ID, 7); err != ErrInvalidOption {
		t.Errorf("out-of-range option: err = %v, want ErrInvalidOption", err)
	}
	if err := ctrl.SetAnswer(questions[0].ID, -1); err != ErrInvalidOption {
		t.Errorf("negative option: err = %v, want ErrInvalidOption", err)
	}
}

func TestControllerManualSubmitScoresOnce(t *testing.T) {
	submitter := &fakeSubmitter{outcome: model.SubmitOutcome{Remote: true}}
	ctrl := startController(t, testConfig(), submitter)
	questions := ctrl.Questions()

	for _, q := range questions {
		if err := ctrl.SetAnswer(q.ID, q.CorrectOption); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
	}

	if err := ctrl.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ev := waitEvent(t, ctrl, EventSubmitted)

	if ev.State != StateSubmitted {
		t.Errorf("state = %q, want SUBMITTED", ev.State)
	}
	if ev.Result == nil || ev.Result.Score != len(questions) {
		t.Errorf("result = %+v, want full score", ev.Result)
	}

	// A second submit must not reach the pipeline again.
	if err := ctrl.Submit(); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	snap, err := ctrl.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.State != StateSubmitted {
		t.Errorf("state after double submit = %q, want SUBMITTED", snap.State)
	}

	calls, last := submitter.snapshot()
	if calls != 1 {
		t.Errorf("pipeline calls = %d, want exactly 1", calls)
	}
	if last.Identity != testIdentity {
		t.Errorf("submission identity = %+v", last.Identity)
	}
}

func TestControllerRejectsAnswersAfterFinalize(t *testing.T) {
	ctrl := startController(t, testConfig(), &fakeSubmitter{})
	questions := ctrl.Questions()

	if err := ctrl.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitEvent(t, ctrl, EventSubmitted)

	if err := ctrl.SetAnswer(questions[0].ID, 0); err != ErrInputDisabled {
		t.Errorf("err = %v, want ErrInputDisabled", err)
	}
}

func TestControllerExpiryUsesFullBudget(t *testing.T) {
	cfg := testConfig()
	cfg.SessionDuration = 2 * time.Second // 2 ticks at the test interval
	cfg.LowTimeAt = 0
	submitter := &fakeSubmitter{}
	ctrl := startController(t, cfg, submitter)

	ev := waitEvent(t, ctrl, EventSubmitted)

	if ev.Result.ElapsedSeconds != 2 {
		t.Errorf("ElapsedSeconds = %d, want the full 2s budget", ev.Result.ElapsedSeconds)
	}
	if ev.State != StateSubmittedLocally {
		t.Errorf("state = %q, want SUBMITTED_LOCALLY for a non-remote outcome", ev.State)
	}

	calls, _ := submitter.snapshot()
	if calls != 1 {
		t.Errorf("pipeline calls = %d, want 1", calls)
	}
}

func TestControllerLowTimeWarns(t *testing.T) {
	cfg := testConfig()
	cfg.SessionDuration = 10 * time.Second
	cfg.LowTimeAt = 8 * time.Second
	ctrl := startController(t, cfg, &fakeSubmitter{})

	ev := waitEvent(t, ctrl, EventLowTime)
	if ev.Remaining != 8 {
		t.Errorf("low_time at remaining=%d, want 8", ev.Remaining)
	}
	if ev.State != StateWarned {
		t.Errorf("state = %q, want WARNED", ev.State)
	}
}

func TestControllerWarningAutoReverts(t *testing.T) {
	ctrl := startController(t, testConfig(), &fakeSubmitter{})

	out, err := ctrl.Signal(model.SignalVisibilityLoss)
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if !out.Warn || out.WarnNumber != 1 {
		t.Fatalf("outcome = %+v, want warning #1", out)
	}
	waitEvent(t, ctrl, EventWarning)

	// The overlay reverts after WarningDuration without blocking input.
	deadline := time.After(time.Second)
	for {
		snap, err := ctrl.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.State == StateActive {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("state stuck at %q, want ACTIVE after warning", snap.State)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestControllerDisqualificationFinalizesAfterGrace(t *testing.T) {
	submitter := &fakeSubmitter{}
	ctrl := startController(t, testConfig(), submitter)
	questions := ctrl.Questions()

	for i := 0; i < 3; i++ {
		if _, err := ctrl.Signal(model.SignalVisibilityLoss); err != nil {
			t.Fatalf("Signal: %v", err)
		}
	}
	waitEvent(t, ctrl, EventDisqualified)

	// Input is dead immediately, before the grace period ends.
	if err := ctrl.SetAnswer(questions[0].ID, 0); err != ErrInputDisabled {
		t.Errorf("answer during grace: err = %v, want ErrInputDisabled", err)
	}
	// Manual submit cannot pre-empt the grace timer.
	if err := ctrl.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ev := waitEvent(t, ctrl, EventSubmitted)
	if !ev.Result.Disqualified {
		t.Error("result.Disqualified = false, want true")
	}
	if ev.Result.TabSwitches != 3 {
		t.Errorf("TabSwitches = %d, want 3", ev.Result.TabSwitches)
	}

	calls, _ := submitter.snapshot()
	if calls != 1 {
		t.Errorf("pipeline calls = %d, want 1", calls)
	}
}

func TestControllerSignalsAcknowledgedAfterFinalize(t *testing.T) {
	ctrl := startController(t, testConfig(), &fakeSubmitter{})

	if err := ctrl.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitEvent(t, ctrl, EventSubmitted)

	out, err := ctrl.Signal(model.SignalCopy)
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if !out.Suppressed {
		t.Error("signals must stay suppressed after finalization")
	}
	if out.State.CopyAttempts != 0 {
		t.Errorf("CopyAttempts = %d, counters are frozen after finalization", out.State.CopyAttempts)
	}
}

func TestControllerStopClosesEngine(t *testing.T) {
	ctrl := startController(t, testConfig(), &fakeSubmitter{})
	questions := ctrl.Questions()

	ctrl.Stop()

	select {
	case <-ctrl.Done():
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}

	if err := ctrl.SetAnswer(questions[0].ID, 0); err != ErrSessionClosed {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}
}

func TestManagerReattachesLiveSession(t *testing.T) {
	m := NewManager(testConfig(), &fakeSubmitter{}, zerolog.Nop())
	t.Cleanup(m.StopAll)

	candidateID := uuid.New()
	questions := makeQuestions(3)

	first, created, err := m.Start(uuid.New(), candidateID, testIdentity, questions)
	if err != nil || !created {
		t.Fatalf("first start: ctrl=%v created=%t err=%v", first, created, err)
	}

	second, created, err := m.Start(uuid.New(), candidateID, testIdentity, questions)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if created || second != first {
		t.Error("second start must re-attach to the live engine")
	}

	m.Stop(candidateID)
	if _, ok := m.Get(candidateID); ok {
		t.Error("engine still registered after Stop")
	}
}
