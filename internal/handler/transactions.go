package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"sdkadmin/internal/apierror"
	"sdkadmin/internal/dto"
	"sdkadmin/internal/service"
	"sdkadmin/internal/statement"

	"github.com/gin-gonic/gin"
)

const maxStatementBytes = 10 << 20

type TransactionsHandler struct {
	imports  service.ImportService
	resolver service.ResolverService
}

func NewTransactionsHandler(imports service.ImportService, resolver service.ResolverService) *TransactionsHandler {
	return &TransactionsHandler{imports: imports, resolver: resolver}
}

// Import godoc
// @Summary Import a batch of EFT/Easypay statement rows
// @Description Re-sending a known batch id (or identical content) answers 200 with status already_imported.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ImportBatchRequest true "Batch id and raw rows"
// @Success 201 {object} dto.ImportResult
// @Success 200 {object} dto.ImportResult
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/transactions/import [post]
func (h *TransactionsHandler) Import(c *gin.Context) {
	var req dto.ImportBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.runImport(c, req)
}

// ImportFile godoc
// @Summary Import a CSV or XLSX statement export
// @Description batch_id defaults to the uploaded file name.
// @Tags transactions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Statement (.csv or .xlsx)"
// @Param batch_id formData string false "Batch id"
// @Param source formData string false "Source label"
// @Success 201 {object} dto.ImportResult
// @Success 200 {object} dto.ImportResult
// @Failure 400 {object} apierror.APIError
// @Router /v1/transactions/import/file [post]
func (h *TransactionsHandler) ImportFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("file is required"))
		return
	}
	if fh.Size > maxStatementBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("statement exceeds 10 MB"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	rows, err := statement.Parse(fh.Filename, f)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	batchID := strings.TrimSpace(c.PostForm("batch_id"))
	if batchID == "" {
		batchID = filepath.Base(fh.Filename)
	}
	h.runImport(c, dto.ImportBatchRequest{
		BatchID: batchID,
		Source:  c.DefaultPostForm("source", "statement-file"),
		Rows:    rows,
	})
}

func (h *TransactionsHandler) runImport(c *gin.Context, req dto.ImportBatchRequest) {
	res, err := h.imports.ImportBatch(c.Request.Context(), req, actor(c).Name)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Status == dto.ImportStatusAlreadyImported {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// ListBatches godoc
// @Summary Import history, newest first
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /v1/transactions/batches [get]
func (h *TransactionsHandler) ListBatches(c *gin.Context) {
	page, limit := pagination(c)
	batches, total, err := h.imports.ListBatches(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batches, "total": total, "page": page, "limit": limit})
}

// List godoc
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param unresolved query bool false "Only transactions without a policy number"
// @Param batch_id query string false "Filter by import batch"
// @Param easypay_number query string false "Filter by Easypay number"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.TransactionListResponse
// @Router /v1/transactions [get]
func (h *TransactionsHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	filter := dto.TransactionFilter{
		Unresolved:    c.Query("unresolved") == "true",
		BatchID:       c.Query("batch_id"),
		EasypayNumber: c.Query("easypay_number"),
		Page:          page,
		Limit:         limit,
	}
	resp, err := h.resolver.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Resolve godoc
// @Summary Link unresolved transactions to policy numbers
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ResolveResult
// @Failure 409 {object} apierror.APIError
// @Router /v1/transactions/resolve [post]
func (h *TransactionsHandler) Resolve(c *gin.Context) {
	res, err := h.resolver.ResolveUnlinked(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// OverridePolicy godoc
// @Summary Replace a transaction's policy number (administrators only)
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction id"
// @Param body body dto.OverridePolicyRequest true "New policy number"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/transactions/{id}/policy [patch]
func (h *TransactionsHandler) OverridePolicy(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.OverridePolicyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.resolver.OverridePolicyNumber(c.Request.Context(), id, strings.TrimSpace(req.PolicyNumber), actor(c).Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
