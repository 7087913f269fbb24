package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "honquedoro/internal/errors"
	"honquedoro/internal/middleware"
	"honquedoro/internal/service"
)

type StatisticsHandler struct {
	statisticsService *service.StatisticsService
}

func NewStatisticsHandler(statisticsService *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) Page(c *gin.Context) {
	page, apiErr := h.statisticsService.Page(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *StatisticsHandler) Overall(c *gin.Context) {
	overall, apiErr := h.statisticsService.Overall(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, overall)
}

func (h *StatisticsHandler) Weekly(c *gin.Context) {
	weekly, apiErr := h.statisticsService.Weekly(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, weekly)
}

func (h *StatisticsHandler) Monthly(c *gin.Context) {
	year, yearErr := strconv.Atoi(c.Param("year"))
	month, monthErr := strconv.Atoi(c.Param("month"))
	if yearErr != nil || monthErr != nil {
		writeError(c, apperrors.BadRequest("invalid_month", "year and month must be integers"))
		return
	}

	monthly, apiErr := h.statisticsService.Monthly(c.Request.Context(), middleware.UserID(c), year, month)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, monthly)
}

func (h *StatisticsHandler) Achievements(c *gin.Context) {
	achievements, apiErr := h.statisticsService.Achievements(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, achievements)
}

func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	dashboard, apiErr := h.statisticsService.Dashboard(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *StatisticsHandler) TodayStats(c *gin.Context) {
	today, apiErr := h.statisticsService.TodayStats(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, today)
}

func (h *StatisticsHandler) WeeklyGoal(c *gin.Context) {
	goal, apiErr := h.statisticsService.WeeklyGoal(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, goal)
}
