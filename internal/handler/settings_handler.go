package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	apperrors "honquedoro/internal/errors"
	"honquedoro/internal/middleware"
	"honquedoro/internal/model"
	"honquedoro/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, apiErr := h.settingsService.Get(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req model.UserSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	settings, apiErr := h.settingsService.Update(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) Reset(c *gin.Context) {
	settings, apiErr := h.settingsService.Reset(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) GetTimerConfig(c *gin.Context) {
	config, apiErr := h.settingsService.TimerConfig(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, config)
}

// UpdateTimerConfig applies a partial timer configuration. Fields outside the
// timer configuration are rejected.
func (h *SettingsHandler) UpdateTimerConfig(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	var patch model.TimerConfigPatch
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		if field, ok := unknownField(err); ok {
			apiErr := apperrors.BadRequest("unknown_field", "unknown timer config field: "+field)
			apiErr.Details = gin.H{"field": field}
			writeError(c, apiErr)
			return
		}
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}
	if err := binding.Validator.ValidateStruct(&patch); err != nil {
		writeError(c, bindError(err))
		return
	}

	config, apiErr := h.settingsService.UpdateTimerConfig(c.Request.Context(), middleware.UserID(c), patch)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, config)
}

// unknownField extracts the field name from encoding/json's
// DisallowUnknownFields error.
func unknownField(err error) (string, bool) {
	const prefix = `json: unknown field "`
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(msg, prefix), `"`), true
}
