package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer  Action = "answer"
	ActionProctor Action = "proctor"
	ActionSubmit  Action = "submit"
	ActionPing    Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest is sent by the client to select an option for a question.
// Re-selecting overwrites the previous choice.
type AnswerRequest struct {
	Action      Action `json:"action"`
	QID         string `json:"q_id"`
	OptionIndex *int   `json:"option_index"`
}

// ProctorRequest reports a raw proctoring signal (visibility loss, clipboard
// use, blocked shortcut).
type ProctorRequest struct {
	Action Action `json:"action"`
	Signal string `json:"signal"`
}

// SubmitRequest asks to finish and grade the assessment.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventSaved      Event = "saved"
	EventSuppressed Event = "suppressed"
	EventSession    Event = "session"
	EventPong       Event = "pong"
)

type SavedResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// SuppressedResponse acknowledges a proctoring signal. The client must have
// already prevented the default action; this echoes the updated counters.
type SuppressedResponse struct {
	Event        Event `json:"event"`
	Suppressed   bool  `json:"suppressed"`
	TabSwitches  int   `json:"tab_switches"`
	CopyAttempts int   `json:"copy_attempts"`
	Disqualified bool  `json:"disqualified"`
}

// SessionNotice forwards a session engine event (warning, low time,
// disqualification, submission) to the client.
type SessionNotice struct {
	Event            Event       `json:"event"`
	Kind             string      `json:"kind"`
	State            string      `json:"state"`
	WarningNumber    int         `json:"warning_number,omitempty"`
	RemainingSeconds int         `json:"remaining_seconds,omitempty"`
	Result           interface{} `json:"result,omitempty"`
	Outcome          interface{} `json:"outcome,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
