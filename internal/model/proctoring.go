package model

// ProctoringState holds the violation counters for one session. Counters are
// non-decreasing and Disqualified moves only from false to true.
type ProctoringState struct {
	TabSwitches  int  `json:"tab_switches"`
	CopyAttempts int  `json:"copy_attempts"`
	Disqualified bool `json:"disqualified"`
}

// SignalKind identifies a raw proctoring signal reported by the client.
type SignalKind string

const (
	SignalVisibilityLoss  SignalKind = "visibility_loss"
	SignalCopy            SignalKind = "copy"
	SignalCut             SignalKind = "cut"
	SignalPaste           SignalKind = "paste"
	SignalContextMenu     SignalKind = "context_menu"
	SignalBlockedShortcut SignalKind = "blocked_shortcut"
)

// Known reports whether kind is one of the signals this service understands.
func (k SignalKind) Known() bool {
	switch k {
	case SignalVisibilityLoss, SignalCopy, SignalCut, SignalPaste,
		SignalContextMenu, SignalBlockedShortcut:
		return true
	}
	return false
}
