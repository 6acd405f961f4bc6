package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/middleware"
	"github.com/talentgate/assess-backend/internal/model"
	"github.com/talentgate/assess-backend/internal/service"
	"github.com/talentgate/assess-backend/internal/session"
	ws "github.com/talentgate/assess-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the assessment session WebSocket stream.
type WSHandler struct {
	assessments *service.AssessmentService
	manager     *session.Manager
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(assessments *service.AssessmentService, manager *session.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		assessments: assessments,
		manager:     manager,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// AssessmentStream godoc
// WS /ws/v1/assessment/stream?token=...
// Upgrades to WebSocket for answer capture, proctoring signals, and pushed
// session events (warnings, low time, disqualification, submission).
func (h *WSHandler) AssessmentStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	candidateID := claims.CandidateID

	// SECURITY: Only candidates with a live engine may stream. Sessions are
	// created through the REST start endpoint, never implicitly here.
	ctrl, ok := h.manager.Get(candidateID)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no active session"})
		return
	}
	select {
	case <-ctrl.Done():
		c.JSON(http.StatusConflict, gin.H{"error": "no active session"})
		return
	default:
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	writer := ws.NewWriter(conn)

	wsLog := h.log.With().
		Str("candidate_id", candidateID.String()).
		Str("session_id", ctrl.SessionID().String()).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	// Event pump: forward engine events to the client until the engine or the
	// connection goes away.
	pumpCtx, cancelPump := context.WithCancel(context.Background())
	defer cancelPump()
	go h.pumpEvents(pumpCtx, ctrl, writer, wsLog)

	for {
		var env ws.RequestEnvelope
		raw, err := ws.ReadRaw(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}
		if err := ws.Decode(raw, &env); err != nil {
			writer.WriteError("invalid message")
			continue
		}

		switch env.Action {
		case ws.ActionAnswer:
			h.handleAnswer(ctrl, writer, candidateID, raw)
		case ws.ActionProctor:
			h.handleProctor(ctrl, writer, wsLog, candidateID, raw)
		case ws.ActionSubmit:
			if err := ctrl.Submit(); err != nil {
				writer.WriteError("session is closed")
			}
		case ws.ActionPing:
			writer.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			writer.WriteError("unknown action: " + string(env.Action))
		}
	}
}

// handleAnswer records a selection in the engine and mirrors it to Redis.
func (h *WSHandler) handleAnswer(ctrl *session.Controller, writer *ws.Writer, candidateID uuid.UUID, raw []byte) {
	var msg ws.AnswerRequest
	if err := ws.Decode(raw, &msg); err != nil || msg.QID == "" || msg.OptionIndex == nil {
		writer.WriteError("q_id and option_index are required")
		return
	}

	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		writer.WriteError("invalid q_id format")
		return
	}

	if err := ctrl.SetAnswer(questionID, *msg.OptionIndex); err != nil {
		switch {
		case errors.Is(err, session.ErrInputDisabled):
			writer.WriteError("session no longer accepts answers")
		case errors.Is(err, session.ErrUnknownQuestion):
			writer.WriteError("unknown question")
		case errors.Is(err, session.ErrInvalidOption):
			writer.WriteError("option index out of range")
		default:
			writer.WriteError("save failed")
		}
		return
	}

	h.assessments.MirrorAnswer(context.Background(), candidateID, questionID, *msg.OptionIndex)

	writer.WriteTyped(ws.SavedResponse{Event: ws.EventSaved, Status: "saved"})
}

// handleProctor feeds a raw signal into the engine and queues it for audit.
func (h *WSHandler) handleProctor(ctrl *session.Controller, writer *ws.Writer, wsLog zerolog.Logger, candidateID uuid.UUID, raw []byte) {
	var msg ws.ProctorRequest
	if err := ws.Decode(raw, &msg); err != nil || msg.Signal == "" {
		writer.WriteError("signal is required")
		return
	}

	kind := model.SignalKind(msg.Signal)
	if !kind.Known() {
		writer.WriteError("unknown signal: " + msg.Signal)
		return
	}

	out, err := ctrl.Signal(kind)
	if err != nil {
		writer.WriteError("session is closed")
		return
	}

	h.assessments.RecordProctorEvent(context.Background(), ctrl.SessionID(), candidateID, kind)

	if out.Disqualified {
		wsLog.Warn().Str("signal", msg.Signal).Msg("Signal triggered disqualification")
	}

	writer.WriteTyped(ws.SuppressedResponse{
		Event:        ws.EventSuppressed,
		Suppressed:   true,
		TabSwitches:  out.State.TabSwitches,
		CopyAttempts: out.State.CopyAttempts,
		Disqualified: out.State.Disqualified,
	})
}

// pumpEvents forwards engine events to the client connection.
func (h *WSHandler) pumpEvents(ctx context.Context, ctrl *session.Controller, writer *ws.Writer, wsLog zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Done():
			return
		case ev, ok := <-ctrl.Events():
			if !ok {
				return
			}
			notice := ws.SessionNotice{
				Event:            ws.EventSession,
				Kind:             string(ev.Kind),
				State:            string(ev.State),
				WarningNumber:    ev.WarningNumber,
				RemainingSeconds: ev.Remaining,
			}
			if ev.Result != nil {
				notice.Result = ev.Result
			}
			if ev.Outcome != nil {
				notice.Outcome = ev.Outcome
			}
			if err := writer.WriteTyped(notice); err != nil {
				wsLog.Debug().Err(err).Msg("Event push failed, stopping pump")
				return
			}
		}
	}
}
