package session

import (
	"github.com/talentgate/assess-backend/internal/model"
)

// SignalOutcome is the monitor's verdict on one raw proctoring signal.
// Suppression here is a deterrent only: the browser-side blocking it mirrors
// is best-effort and a determined user can defeat it. Nothing in this service
// treats it as a security boundary.
type SignalOutcome struct {
	Suppressed   bool // default browser action must be prevented
	Warn         bool // emit a timed warning (1st and 2nd violation)
	WarnNumber   int  // which warning this is (1 or 2)
	Disqualified bool // third violation reached; fires exactly once
	State        model.ProctoringState
}

// Monitor translates raw browser signals into proctoring accounting. It only
// mutates counters and reports outcomes; it never decides to finalize — that
// is the controller's call. Owned exclusively by the controller loop.
type Monitor struct {
	maxTabSwitches int
	state          model.ProctoringState
	dqEmitted      bool
}

// NewMonitor creates a Monitor that disqualifies at maxTabSwitches violations.
func NewMonitor(maxTabSwitches int) *Monitor {
	return &Monitor{maxTabSwitches: maxTabSwitches}
}

// Observe accounts for one raw signal and returns the outcome. All listed
// signals are suppressed regardless of session state; only visibility loss
// and copy/cut move counters.
func (m *Monitor) Observe(kind model.SignalKind) SignalOutcome {
	out := SignalOutcome{Suppressed: true}

	switch kind {
	case model.SignalVisibilityLoss:
		m.state.TabSwitches++
		if m.state.TabSwitches < m.maxTabSwitches {
			out.Warn = true
			out.WarnNumber = m.state.TabSwitches
		} else {
			m.state.Disqualified = true
			if !m.dqEmitted {
				m.dqEmitted = true
				out.Disqualified = true
			}
		}
	case model.SignalCopy, model.SignalCut:
		m.state.CopyAttempts++
	case model.SignalPaste, model.SignalContextMenu, model.SignalBlockedShortcut:
		// Suppressed and recorded as prevented; no counter.
	}

	out.State = m.state
	return out
}

// State returns the current proctoring counters.
func (m *Monitor) State() model.ProctoringState {
	return m.state
}
