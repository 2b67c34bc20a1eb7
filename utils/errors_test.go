package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"document-rag-platform/models"

	"github.com/gin-gonic/gin"
)

func respond(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithPipelineError(c, err)

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return w.Code, body
}

func TestRespondWithPipelineError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "configuration error",
			err:        &models.ConfigurationError{Field: "mongo_uri", Reason: "empty"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "configuration_error",
		},
		{
			name:       "unsupported format",
			err:        &models.UnsupportedFormatError{Filename: "image.png", Extension: ".png"},
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "unsupported_format",
		},
		{
			name:       "embedding provider failure",
			err:        &models.EmbeddingProviderError{Provider: "openai", Status: 429, Message: "rate limited"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "embedding_provider_error",
		},
		{
			name:       "dimension mismatch",
			err:        &models.DimensionMismatchError{Collection: "docs", Stored: 1536, Provider: "voyage", Configured: 1024},
			wantStatus: http.StatusConflict,
			wantCode:   "dimension_mismatch",
		},
		{
			name:       "index permission",
			err:        &models.IndexPermissionError{Index: "vector_index", Cause: errors.New("unauthorized")},
			wantStatus: http.StatusForbidden,
			wantCode:   "index_permission_error",
		},
		{
			name:       "completion provider failure",
			err:        &models.CompletionProviderError{Provider: "gemini", Status: 503, Message: "overloaded"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "completion_provider_error",
		},
		{
			name:       "unrecognized error",
			err:        errors.New("socket closed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
		{
			name:       "wrapped taxonomy error still matches",
			err:        fmt.Errorf("query failed: %w", &models.DimensionMismatchError{Collection: "docs", Stored: 768, Configured: 1536}),
			wantStatus: http.StatusConflict,
			wantCode:   "dimension_mismatch",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := respond(t, tc.err)
			if status != tc.wantStatus {
				t.Errorf("status = %d, want %d", status, tc.wantStatus)
			}
			if body.ErrorCode != tc.wantCode {
				t.Errorf("error_code = %q, want %q", body.ErrorCode, tc.wantCode)
			}
			if body.Message == "" {
				t.Error("message should not be empty")
			}
		})
	}
}
