package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"docstruct/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrMissingInput):
		return http.StatusBadRequest, "MISSING_INPUT", "provide either a file upload or a url"
	case errors.Is(err, domain.ErrInputUnreachable):
		return http.StatusBadGateway, "INPUT_UNREACHABLE", "the input resource could not be fetched"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", "unsupported or corrupt input; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusUnprocessableEntity, "EMPTY_DOCUMENT", "no pages could be extracted from the input"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "input exceeds the maximum allowed size"
	case errors.Is(err, domain.ErrInferenceFailed):
		return http.StatusBadGateway, "INFERENCE_FAILED", "model inference failed"
	case errors.Is(err, domain.ErrConversionFailed):
		return http.StatusInternalServerError, "CONVERSION_FAILED", "tag conversion failed"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal server error"
	}
}

// HandleError logs an error and writes the mapped response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("handler: %v", err)
	}
	RespondError(c, status, code, msg)
}
