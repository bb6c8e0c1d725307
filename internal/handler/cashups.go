package handler

import (
	"net/http"
	"time"

	"sdkadmin/internal/apierror"
	"sdkadmin/internal/config"
	"sdkadmin/internal/dto"
	"sdkadmin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashUpsHandler struct {
	svc    service.CashUpService
	policy config.CashUpPolicy
	now    func() time.Time
}

func NewCashUpsHandler(svc service.CashUpService, policy config.CashUpPolicy) *CashUpsHandler {
	return &CashUpsHandler{svc: svc, policy: policy, now: time.Now}
}

// today is the current civil date in the business time zone.
func (h *CashUpsHandler) today() time.Time {
	return service.CivilDate(h.now(), h.policy.Location)
}

// dateQuery reads ?date=YYYY-MM-DD, defaulting to today.
func (h *CashUpsHandler) dateQuery(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.today(), true
	}
	d, err := service.ParseCivilDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("date must be YYYY-MM-DD"))
		return time.Time{}, false
	}
	return d, true
}

// Submit godoc
// @Summary Submit a daily cash-up
// @Description Staff submit for themselves; reviewers may pass employee_id.
// @Tags cashups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SubmitCashUpRequest true "Declared batch receipt total"
// @Success 201 {object} dto.CashUpResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/cashups [post]
func (h *CashUpsHandler) Submit(c *gin.Context) {
	var req dto.SubmitCashUpRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Submit(c.Request.Context(), req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListByDate godoc
// @Summary List the submissions of one civil date
// @Tags cashups
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {array} dto.CashUpResponse
// @Router /v1/cashups [get]
func (h *CashUpsHandler) ListByDate(c *gin.Context) {
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	list, err := h.svc.ListByDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Evaluate godoc
// @Summary Current evaluation of one employee's day
// @Description Works with or without a submission: a missing one reports Not Submitted.
// @Tags cashups
// @Produce json
// @Security BearerAuth
// @Param employee_id query string false "Employee id, defaults to the caller"
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} dto.EvaluationResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/cashups/evaluate [get]
func (h *CashUpsHandler) Evaluate(c *gin.Context) {
	caller := actor(c)
	employeeID := caller.ID
	if raw := c.Query("employee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid employee_id"))
			return
		}
		employeeID = id
	}
	if employeeID != caller.ID && !caller.CanReview() {
		c.JSON(http.StatusForbidden, apierror.New("Insufficient permissions"))
		return
	}
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.Evaluate(c.Request.Context(), employeeID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a submission with its notes and attachments
// @Tags cashups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission id"
// @Success 200 {object} dto.CashUpResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cashups/{id} [get]
func (h *CashUpsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	// staff never learn that someone else's submission exists
	if caller := actor(c); !caller.CanReview() && resp.EmployeeID != caller.ID.String() {
		c.JSON(http.StatusNotFound, apierror.New("Resource not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordSystemBalance godoc
// @Summary Record the system balance for a submission
// @Description Recomputes discrepancy, status and risk.
// @Tags cashups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission id"
// @Param body body dto.SystemBalanceRequest true "System balance"
// @Success 200 {object} dto.CashUpResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cashups/{id}/system-balance [put]
func (h *CashUpsHandler) RecordSystemBalance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SystemBalanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.SystemBalance == nil {
		c.JSON(http.StatusBadRequest, apierror.New("system_balance is required"))
		return
	}
	resp, err := h.svc.RecordSystemBalance(c.Request.Context(), id, *req.SystemBalance, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddNote godoc
// @Summary Append a review note
// @Tags cashups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission id"
// @Param body body dto.AddNoteRequest true "Note"
// @Success 201 {object} dto.CashUpResponse
// @Router /v1/cashups/{id}/notes [post]
func (h *CashUpsHandler) AddNote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddNoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddNote(c.Request.Context(), id, req.Note, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Resolve godoc
// @Summary Mark a submission resolved
// @Description Notes are required when the status is Short or Over. Resolution cannot be undone.
// @Tags cashups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission id"
// @Param body body dto.ResolveCashUpRequest true "Resolution notes"
// @Success 200 {object} dto.CashUpResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cashups/{id}/resolve [post]
func (h *CashUpsHandler) Resolve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveCashUpRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Resolve(c.Request.Context(), id, req.Notes, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddAttachment godoc
// @Summary Attach a document reference
// @Tags cashups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission id"
// @Param body body dto.AttachmentRequest true "Attachment"
// @Success 201 {object} dto.CashUpResponse
// @Router /v1/cashups/{id}/attachments [post]
func (h *CashUpsHandler) AddAttachment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AttachmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	caller := actor(c)
	if !caller.CanReview() {
		// staff may only attach to their own submission
		sub, err := h.svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if sub.EmployeeID != caller.ID.String() {
			c.JSON(http.StatusNotFound, apierror.New("Resource not found"))
			return
		}
	}
	resp, err := h.svc.AddAttachment(c.Request.Context(), id, req, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
