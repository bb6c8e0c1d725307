package handler

import (
	"net/http"

	"sdkadmin/internal/dto"
	"sdkadmin/internal/service"

	"github.com/gin-gonic/gin"
)

type EmployeesHandler struct {
	svc service.EmployeeService
}

func NewEmployeesHandler(svc service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{svc: svc}
}

// Create godoc
// @Summary Add an employee to the cash-up roster
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateEmployeeRequest true "Employee"
// @Success 201 {object} dto.EmployeeResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/employees [post]
func (h *EmployeesHandler) Create(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List active employees
// @Tags employees
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.EmployeeResponse
// @Router /v1/employees [get]
func (h *EmployeesHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Deactivate godoc
// @Summary Remove an employee from the roster
// @Description Soft delete: history is kept, the employee stops counting as expected.
// @Tags employees
// @Security BearerAuth
// @Param id path string true "Employee id"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/employees/{id} [delete]
func (h *EmployeesHandler) Deactivate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
