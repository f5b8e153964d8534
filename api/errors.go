package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"workhub-api/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// statusFor maps a domain error to its HTTP status and client message.
// Unknown errors are storage or programming failures and never leak details.
func statusFor(err error) (int, string, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message, "validation"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password", "auth"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error(), "auth"
	case errors.Is(err, domain.ErrIncorrectPassword):
		return http.StatusForbidden, "Incorrect password", "forbidden"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden", "forbidden"
	case errors.Is(err, domain.ErrBoardNotFound):
		return http.StatusNotFound, "Board not found", "not_found"
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "Task or Board not found", "not_found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found", "not_found"
	case errors.Is(err, domain.ErrAlreadyMember):
		return http.StatusBadRequest, "You are already a member of this board", "conflict"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest, "Email already exists", "conflict"
	default:
		return http.StatusInternalServerError, "Internal server error", "storage"
	}
}

// writeError renders err as {"error": "..."} and records the failing stage on
// the request metrics.
func writeError(c echo.Context, logger *log.Logger, err error) error {
	status, msg, stage := statusFor(err)
	if m := metricsFrom(c); m != nil {
		m.SetErrorStage(stage)
	}
	if status == http.StatusInternalServerError && logger != nil {
		logger.WithFields(log.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"error":  err.Error(),
		}).Error("request failed")
	}
	return c.JSON(status, errorResponse{Error: msg})
}
