package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/identity"
	"github.com/talentgate/assess-backend/internal/middleware"
	"github.com/talentgate/assess-backend/internal/response"
	"github.com/talentgate/assess-backend/internal/service"
)

// AssessmentHandler serves the session lifecycle REST endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
	log         zerolog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService, log zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments: assessments,
		log:         log.With().Str("component", "assessment_handler").Logger(),
	}
}

// StartSession handles POST /api/v1/assessment/sessions
// Starts the candidate's attempt, or returns the live session on reconnect.
func (h *AssessmentHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	view, err := h.assessments.StartSession(c.Request.Context(), claims.CandidateID)
	switch {
	case errors.Is(err, identity.ErrIdentityNotFound):
		response.Fail(c, http.StatusConflict, response.ErrIdentityRequired)
		return
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
		return
	case err != nil:
		h.log.Error().Err(err).Str("candidate_id", claims.CandidateID.String()).Msg("Start session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, view)
}

// GetState handles GET /api/v1/assessment/sessions/state
// Returns the current session view for reconnects.
func (h *AssessmentHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	view, err := h.assessments.State(c.Request.Context(), claims.CandidateID)
	switch {
	case errors.Is(err, service.ErrNoSession):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotStarted)
		return
	case err != nil:
		h.log.Error().Err(err).Str("candidate_id", claims.CandidateID.String()).Msg("Get session state failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// GetResult handles GET /api/v1/assessment/sessions/result
// Returns the finalized result once the session reached a terminal state.
func (h *AssessmentHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	result, err := h.assessments.Result(c.Request.Context(), claims.CandidateID)
	switch {
	case errors.Is(err, service.ErrNoSession):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotStarted)
		return
	case errors.Is(err, service.ErrResultNotReady):
		response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
		return
	case err != nil:
		h.log.Error().Err(err).Str("candidate_id", claims.CandidateID.String()).Msg("Get result failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}
