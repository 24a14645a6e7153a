package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	agentdomain "github.com/smallbiznis/revbox/internal/agent/domain"
	carrierdomain "github.com/smallbiznis/revbox/internal/carrier/domain"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	customfielddomain "github.com/smallbiznis/revbox/internal/customfield/domain"
	exportdomain "github.com/smallbiznis/revbox/internal/export/domain"
	"github.com/smallbiznis/revbox/internal/extraction"
	payoutdomain "github.com/smallbiznis/revbox/internal/payout/domain"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
	"github.com/smallbiznis/revbox/pkg/lock"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrFileTooLarge       = errors.New("file_too_large")
	ErrRateLimited        = errors.New("rate_limited")
)

var notFoundErrors = []error{
	carrierdomain.ErrNotFound,
	agentdomain.ErrNotFound,
	customfielddomain.ErrNotFound,
	uploaddomain.ErrNotFound,
	uploaddomain.ErrCarrierNotFound,
	recorddomain.ErrNotFound,
	conflictdomain.ErrNotFound,
	conflictdomain.ErrRecordNotFound,
	payoutdomain.ErrNotFound,
	exportdomain.ErrNoApprovedData,
}

var conflictErrors = []error{
	carrierdomain.ErrCodeExists,
	agentdomain.ErrAgentCodeExists,
	customfielddomain.ErrFieldExists,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(err, code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrConflict),
		isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "file_too_large",
			Message: "file too large",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, carrierdomain.ErrSuggestionDisabled),
		errors.Is(err, extraction.ErrExtractorNotConfigured),
		errors.Is(err, lock.ErrNotAcquired):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// validationErrorCode returns the sentinel code of a client mistake.
func validationErrorCode(err error) (string, bool) {
	if errors.Is(err, ErrInvalidRequest) {
		return ErrInvalidRequest.Error(), true
	}
	for _, group := range [][]error{
		carrierValidationErrors,
		agentValidationErrors,
		customFieldValidationErrors,
		uploadValidationErrors,
		recordValidationErrors,
		conflictValidationErrors,
		payoutValidationErrors,
		exportValidationErrors,
		{extraction.ErrUnsupportedFileType, extraction.ErrFileFormat},
	} {
		for _, target := range group {
			if errors.Is(err, target) {
				return target.Error(), true
			}
		}
	}
	return "", false
}

func isNotFoundError(err error) bool {
	return matchesAny(err, notFoundErrors)
}

func isConflictError(err error) bool {
	return matchesAny(err, conflictErrors)
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func notFoundMessage(err error) string {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return strings.ReplaceAll(target.Error(), "_", " ")
		}
	}
	return "not found"
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(err error, code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case extraction.ErrUnsupportedFileType.Error(), extraction.ErrFileFormat.Error():
		return err.Error()
	default:
		return "invalid value"
	}
}

// classifyErrorForLog labels request failures for the access log.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
