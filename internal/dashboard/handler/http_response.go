package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corp-qr-hub/internal/dashboard/middleware"
	"github.com/corp-qr-hub/internal/domain/entry"
)

// StorageWarningHeader is set on a successful response whose change could
// not be written to the durable store.
const StorageWarningHeader = "X-Storage-Warning"

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MetaInfo carries list totals
type MetaInfo struct {
	TotalItems int    `json:"total_items"`
	Query      string `json:"query,omitempty"`
}

func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, &Response{
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

func RespondWithList(c *gin.Context, data interface{}, meta *MetaInfo) {
	c.JSON(http.StatusOK, &Response{
		Data:          data,
		Meta:          meta,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, &Response{
		Error:         &ErrorInfo{Code: code, Message: message},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondValidationError sends a 400 naming the offending field
func RespondValidationError(c *gin.Context, err entry.ValidationError) {
	c.JSON(http.StatusBadRequest, &Response{
		Error:         &ErrorInfo{Code: "VALIDATION_ERROR", Message: err.Message, Field: err.Field},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondGone sends a 410 for entries that exist but are switched off
func RespondGone(c *gin.Context, message string) {
	RespondWithError(c, http.StatusGone, "GONE", message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// flagStorageWarning reports whether err is only a failed durable write. If
// so the warning header is set and the caller responds with success.
func flagStorageWarning(c *gin.Context, err error) bool {
	var writeErr entry.StorageWriteError
	if !errors.As(err, &writeErr) {
		return false
	}
	c.Header(StorageWarningHeader, "change applied but not persisted")
	return true
}
