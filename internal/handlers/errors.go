package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/gin-gonic/gin"
)

const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeUploadFailed  = "UPLOAD_FAILED"
	CodeInternalError = "INTERNAL_ERROR"
)

// StatusForError maps a service error onto an HTTP status and error code.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, models.ErrUpload):
		return http.StatusBadGateway, CodeUploadFailed
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

func respondServiceError(c *gin.Context, err error) {
	status, code := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		message = "internal server error"
	}
	utils.RespondError(c, status, code, message)
}

func respondBadRequest(c *gin.Context, message string) {
	utils.RespondError(c, http.StatusBadRequest, CodeValidation, message)
}
