package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"transit/internal/domain"
	"transit/internal/domain/purchases"
	"transit/internal/domain/trips"
)

type ErrorResponse struct {
	Error   string              `json:"error"`
	Details []domain.FieldError `json:"details,omitempty"`
}

// HandleError maps domain errors to status codes.
func HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		log.FromContext(c.Request().Context()).WithError(err).Error("Internal server error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.FromContext(c.Request().Context()).WithError(err).Error("Failed to write error response")
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var (
		verr    *domain.ValidationError
		httpErr *echo.HTTPError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: verr.Details}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error()}
	case errors.Is(err, trips.ErrInvalidTransition), errors.Is(err, purchases.ErrInvalidTransition):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: []domain.FieldError{{Field: "status", Message: err.Error()}},
		}
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorResponse{Error: fmt.Sprint(httpErr.Message)}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
	}
}
