package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trade-journal/internal/importer"
	"github.com/trade-journal/internal/middleware"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/service"
	"github.com/trade-journal/internal/validation"
	"github.com/trade-journal/pkg/response"
)

// multipartOverhead is the allowance for form boundaries and headers on top of the file limit
const multipartOverhead = 64 << 10

// ImportHandler handles trade import API requests
type ImportHandler struct {
	importService *service.ImportService
	maxUpload     int64
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService *service.ImportService, maxUpload int64) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		maxUpload:     maxUpload,
	}
}

// Preview handles classifying an export without importing it
// POST /api/v1/accounts/:id/imports/preview
func (h *ImportHandler) Preview(c *gin.Context) {
	h.run(c, h.importService.Preview)
}

// Execute handles importing an export
// POST /api/v1/accounts/:id/imports/execute
func (h *ImportHandler) Execute(c *gin.Context) {
	h.run(c, h.importService.Execute)
}

type importFunc func(ctx context.Context, account *models.Account, file validation.Upload) (*importer.ImportResult, error)

func (h *ImportHandler) run(c *gin.Context, fn importFunc) {
	file, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), middleware.GetAccount(c), file)
	if err != nil {
		writeImportError(c, err, result)
		return
	}

	response.Success(c, result.Response())
}

// readUpload reads the multipart "file" field, writing the error response itself on failure
func (h *ImportHandler) readUpload(c *gin.Context) (validation.Upload, bool) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(c, validation.ErrFileTooLarge.Error())
			return validation.Upload{}, false
		}
		response.BadRequest(c, "multipart field \"file\" is required")
		return validation.Upload{}, false
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		response.PayloadTooLarge(c, validation.ErrFileTooLarge.Error())
		return validation.Upload{}, false
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "failed to open uploaded file")
		return validation.Upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, "failed to read uploaded file")
		return validation.Upload{}, false
	}

	return validation.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

// Latest handles getting the most recent import result of an account
// GET /api/v1/accounts/:id/imports/latest
func (h *ImportHandler) Latest(c *gin.Context) {
	result, err := h.importService.Latest(middleware.GetAccount(c))
	if err != nil {
		if errors.Is(err, service.ErrNoImportResult) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result.Response())
}

// History handles listing the executed imports of an account
// GET /api/v1/accounts/:id/imports
func (h *ImportHandler) History(c *gin.Context) {
	page, pageSize := pagination(c)
	batches, total, err := h.importService.History(middleware.GetAccount(c), page, pageSize)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.SuccessPaginated(c, batches, total, page, pageSize)
}

func writeImportError(c *gin.Context, err error, result *importer.ImportResult) {
	switch {
	case errors.Is(err, validation.ErrFileTooLarge):
		response.PayloadTooLarge(c, err.Error())
	case errors.Is(err, validation.ErrFileType),
		errors.Is(err, validation.ErrFileEmpty),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrNotText):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrImportInProgress):
		response.Conflict(c, err.Error())
	case errors.Is(err, importer.ErrStoreUnavailable):
		var data interface{}
		if result != nil {
			data = result.Response()
		}
		response.ErrorWithData(c, http.StatusServiceUnavailable, -1503, err.Error(), data)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		var data interface{}
		if result != nil {
			data = result.Response()
		}
		response.ErrorWithData(c, http.StatusRequestTimeout, -1408, "import interrupted", data)
	default:
		response.InternalError(c, err.Error())
	}
}

// RegisterRoutes registers import routes. limiter runs on the upload endpoints only.
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware, accountScope, limiter gin.HandlerFunc) {
	imports := rg.Group("/accounts/:id/imports")
	imports.Use(authMiddleware, accountScope)
	{
		imports.GET("", h.History)
		imports.GET("/latest", h.Latest)

		uploads := imports.Group("", limiter, middleware.ImportLoggerMiddleware())
		uploads.POST("/preview", h.Preview)
		uploads.POST("/execute", h.Execute)
	}
}
