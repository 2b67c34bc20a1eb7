package utils

import (
	"errors"
	"net/http"

	"document-rag-platform/models"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithPipelineError maps the pipeline error taxonomy onto HTTP
// responses; anything unrecognized falls through as a generic store or
// internal failure. The underlying provider/store message is always
// included for diagnosability.
func RespondWithPipelineError(c *gin.Context, err error) {
	var (
		cfgErr      *models.ConfigurationError
		formatErr   *models.UnsupportedFormatError
		embedErr    *models.EmbeddingProviderError
		dimErr      *models.DimensionMismatchError
		permErr     *models.IndexPermissionError
		completeErr *models.CompletionProviderError
	)

	switch {
	case errors.As(err, &cfgErr):
		RespondWithError(c, http.StatusBadRequest, "configuration_error", cfgErr.Error(), nil)
	case errors.As(err, &formatErr):
		RespondWithError(c, http.StatusUnsupportedMediaType, "unsupported_format", formatErr.Error(), nil)
	case errors.As(err, &embedErr):
		RespondWithError(c, http.StatusBadGateway, "embedding_provider_error", embedErr.Error(),
			gin.H{"provider": embedErr.Provider, "provider_status": embedErr.Status})
	case errors.As(err, &dimErr):
		RespondWithError(c, http.StatusConflict, "dimension_mismatch", dimErr.Error(),
			gin.H{"stored_dimension": dimErr.Stored, "configured_dimension": dimErr.Configured})
	case errors.As(err, &permErr):
		RespondWithError(c, http.StatusForbidden, "index_permission_error", permErr.Error(), nil)
	case errors.As(err, &completeErr):
		RespondWithError(c, http.StatusBadGateway, "completion_provider_error", completeErr.Error(),
			gin.H{"provider": completeErr.Provider, "provider_status": completeErr.Status})
	default:
		RespondWithInternalError(c, "operation failed", gin.H{"error": err.Error()})
	}
}
