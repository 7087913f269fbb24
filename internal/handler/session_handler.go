package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "honquedoro/internal/errors"
	"honquedoro/internal/middleware"
	"honquedoro/internal/model"
	"honquedoro/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

type startSessionRequest struct {
	Type            *model.SessionType `json:"type" binding:"required"`
	DurationMinutes int                `json:"durationMinutes" binding:"required,min=1,max=60"`
	Notes           string             `json:"notes" binding:"max=1000"`
}

type completeSessionRequest struct {
	CompletedAt *time.Time `json:"completedAt"`
	Notes       *string    `json:"notes"`
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	session, apiErr := h.sessionService.Start(c.Request.Context(), middleware.UserID(c), service.StartSessionInput{
		Type:            *req.Type,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Pause(c *gin.Context) {
	id, apiErr := parseID(c, "id")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	session, apiErr := h.sessionService.Pause(c.Request.Context(), middleware.UserID(c), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Resume(c *gin.Context) {
	id, apiErr := parseID(c, "id")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	session, apiErr := h.sessionService.Resume(c.Request.Context(), middleware.UserID(c), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Complete accepts an optional body carrying completedAt and notes.
func (h *SessionHandler) Complete(c *gin.Context) {
	id, apiErr := parseID(c, "id")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	var req completeSessionRequest
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
			return
		}
	}

	apiErr = h.sessionService.Complete(c.Request.Context(), middleware.UserID(c), id, service.CompleteSessionInput{
		CompletedAt: req.CompletedAt,
		Notes:       req.Notes,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session completed"})
}

func (h *SessionHandler) Cancel(c *gin.Context) {
	id, apiErr := parseID(c, "id")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	if apiErr := h.sessionService.Cancel(c.Request.Context(), middleware.UserID(c), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session cancelled"})
}

func (h *SessionHandler) Active(c *gin.Context) {
	state, apiErr := h.sessionService.Active(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, apiErr := parseID(c, "id")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	session, apiErr := h.sessionService.Get(c.Request.Context(), middleware.UserID(c), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Recent(c *gin.Context) {
	count := 0
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_count", "count must be an integer"))
			return
		}
		count = parsed
	}

	sessions, apiErr := h.sessionService.Recent(c.Request.Context(), middleware.UserID(c), count)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SessionHandler) Today(c *gin.Context) {
	sessions, apiErr := h.sessionService.Today(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, sessions)
}
