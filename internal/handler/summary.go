package handler

import (
	"context"
	"net/http"
	"time"

	"sdkadmin/internal/apierror"
	"sdkadmin/internal/config"
	"sdkadmin/internal/dto"
	"sdkadmin/internal/service"
	"sdkadmin/internal/worker"

	"github.com/gin-gonic/gin"
)

// ReportEnqueuer is satisfied by worker.Dispatcher.
type ReportEnqueuer interface {
	EnqueueWeeklyReport(ctx context.Context, payload worker.WeeklyReportPayload) error
}

type SummaryHandler struct {
	summaries service.SummaryService
	reports   ReportEnqueuer
	policy    config.CashUpPolicy
	now       func() time.Time
}

func NewSummaryHandler(summaries service.SummaryService, reports ReportEnqueuer, policy config.CashUpPolicy) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, reports: reports, policy: policy, now: time.Now}
}

// currentMonday is the Monday of the current week in the business time zone.
func (h *SummaryHandler) currentMonday() time.Time {
	today := service.CivilDate(h.now(), h.policy.Location)
	offset := (int(today.Weekday()) + 6) % 7
	return today.AddDate(0, 0, -offset)
}

// Weekly godoc
// @Summary Weekly cash-up summary
// @Description Aggregates the seven civil days starting at week_start.
// @Tags summary
// @Produce json
// @Security BearerAuth
// @Param week_start query string false "YYYY-MM-DD, defaults to this week's Monday"
// @Success 200 {object} dto.WeeklySummaryResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cashups/weekly [get]
func (h *SummaryHandler) Weekly(c *gin.Context) {
	weekStart := h.currentMonday()
	if raw := c.Query("week_start"); raw != "" {
		d, err := service.ParseCivilDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("week_start must be YYYY-MM-DD"))
			return
		}
		weekStart = d
	}
	resp, err := h.summaries.Weekly(c.Request.Context(), weekStart)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// QueueWeeklyReport godoc
// @Summary Email the weekly summary as a PDF
// @Description The report is rendered and sent asynchronously by the worker pool.
// @Tags summary
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.WeeklyReportRequest true "Week and recipients"
// @Success 202 {object} dto.WeeklyReportQueued
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/cashups/weekly/report [post]
func (h *SummaryHandler) QueueWeeklyReport(c *gin.Context) {
	var req dto.WeeklyReportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	err := h.reports.EnqueueWeeklyReport(c.Request.Context(), worker.WeeklyReportPayload{
		WeekStart:   req.WeekStart,
		Recipients:  req.Recipients,
		RequestedBy: actor(c).Name,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, dto.WeeklyReportQueued{
		WeekStart:  req.WeekStart,
		Recipients: req.Recipients,
		Status:     "queued",
	})
}
