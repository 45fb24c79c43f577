package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/euthlabs/euth/core"
	"github.com/euthlabs/euth/service"
)

// AuthHandlers contains HTTP handlers for the session lifecycle.
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// CreateSession starts a new authentication attempt.
func (h *AuthHandlers) CreateSession(c *gin.Context) {
	var req struct {
		TargetDigest  string `json:"target_digest" binding:"required"`
		MaxLength     int    `json:"max_length"`
		Timeout       string `json:"timeout"`
		Verbose       bool   `json:"verbose"`
		FinalizeAtMax bool   `json:"finalize_at_max"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var timeout time.Duration
	if req.Timeout != "" {
		var err error
		timeout, err = time.ParseDuration(req.Timeout)
		if err != nil || timeout < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timeout"})
			return
		}
	}

	st, err := h.authService.CreateSession(c.Request.Context(), service.SessionConfig{
		TargetDigest:  req.TargetDigest,
		MaxLength:     req.MaxLength,
		Timeout:       timeout,
		Verbose:       req.Verbose,
		FinalizeAtMax: req.FinalizeAtMax,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": st.ID,
		"status":     st.Status,
	})
}

// ApplyEvent feeds one classified gesture into a session.
func (h *AuthHandlers) ApplyEvent(c *gin.Context) {
	var req struct {
		Gesture string `json:"gesture" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	gesture, err := core.ParseGesture(req.Gesture)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown gesture"})
		return
	}

	st, err := h.authService.ApplyGesture(c.Request.Context(), c.Param("id"), core.GestureEvent{
		Gesture:    gesture,
		ObservedAt: time.Now(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionBody(st))
}

// Submit finalizes a session and verifies the candidate.
func (h *AuthHandlers) Submit(c *gin.Context) {
	st, err := h.authService.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	body := sessionBody(st)
	if st.Result != nil {
		body["authenticated"] = st.Result.Authenticated
		body["reason"] = st.Result.Reason
	}
	if st.AccessToken != "" {
		body["access_token"] = st.AccessToken
		body["token_type"] = "Bearer"
	}

	c.JSON(http.StatusOK, body)
}

// Abort cancels a session without verification.
func (h *AuthHandlers) Abort(c *gin.Context) {
	st, err := h.authService.Abort(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": st.Status})
}

// Status reports the current state of a session.
func (h *AuthHandlers) Status(c *gin.Context) {
	st, err := h.authService.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	body := sessionBody(st)
	if st.Result != nil {
		body["authenticated"] = st.Result.Authenticated
		body["reason"] = st.Result.Reason
	}

	c.JSON(http.StatusOK, body)
}

// Me returns the session the presented access token was granted for.
func (h *AuthHandlers) Me(c *gin.Context) {
	sessionID, exists := c.Get("sessionID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
	})
}

func sessionBody(st service.SessionStatus) gin.H {
	body := gin.H{
		"status": st.Status,
		"length": st.Length,
	}
	if st.Candidate != "" {
		body["candidate"] = st.Candidate
	}
	return body
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, core.ErrMissingTargetDigest), errors.Is(err, core.ErrInvalidTargetDigest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target digest"})
	case errors.Is(err, core.ErrSessionTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "Session is already terminal"})
	case errors.Is(err, core.ErrUnknownGesture):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown gesture"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
