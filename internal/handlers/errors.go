package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/nfrund/batepapo/internal/middleware"
)

// respondError maps a core error to an *echo.HTTPError. Validation failures
// carry the list of problems as the message, which Echo writes as a bare
// JSON array; the rest get Echo's {"message": ...} body.
func respondError(c echo.Context, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, verr.Details)
	case errors.Is(err, domain.ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, []string{err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Já existe um participante com esse nome!")
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	middleware.FromContext(c.Request().Context()).Error("Request failed",
		"event", "request_failure", "backing_store", domain.IsBackingStore(err), "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
