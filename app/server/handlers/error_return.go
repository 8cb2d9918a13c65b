package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"scaffold-api/app/server/constants"
	"scaffold-api/app/server/store"
	"scaffold-api/app/server/types"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// apiError is a failure that already knows how it is answered.
type apiError struct {
	status   int
	category string
	message  string
}

func (e *apiError) Error() string {
	return e.message
}

var (
	errAuthRequired = &apiError{http.StatusUnauthorized, constants.ErrUnauthenticated, "Authentication required"}
	errForbidden    = &apiError{http.StatusForbidden, constants.ErrForbidden, "Insufficient permissions"}
	errDeactivated  = &apiError{http.StatusForbidden, constants.ErrForbidden, "Account is deactivated"}
	errBadBody      = &apiError{http.StatusBadRequest, constants.ErrValidationFailed, "Invalid request body"}
)

func (a *App) er(c echo.Context, statusCode int, category, message string) error {
	return c.JSON(statusCode, &types.ErrorResponse{
		Error:   category,
		Message: message,
	})
}

// internal answers an unexpected failure. The raw error only leaves the
// process outside production.
func (a *App) internal(c echo.Context, err error) error {
	message := "Internal server error"
	if !a.isProd && err != nil {
		message = err.Error()
	}
	return a.er(c, http.StatusInternalServerError, constants.ErrInternalFailure, message)
}

// fail answers err with the matching category. action names the operation
// in the log line of unexpected failures.
func (a *App) fail(c echo.Context, err error, action string) error {
	var (
		ae *apiError
		ve *store.ValidationError
	)
	switch {
	case errors.As(err, &ae):
		return a.er(c, ae.status, ae.category, ae.message)
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, &types.ErrorResponse{
			Error:   constants.ErrValidationFailed,
			Message: ve.Error(),
			Details: ve.Violations,
		})
	case errors.Is(err, store.ErrDuplicateIdentity):
		return a.er(c, http.StatusBadRequest, constants.ErrDuplicateIdentity, "User with this email or username already exists")
	case errors.Is(err, store.ErrNotFound):
		return a.er(c, http.StatusNotFound, constants.ErrNotFound, "User not found")
	}

	a.l.Error("failed to "+action, zap.Error(err))
	return a.internal(c, err)
}

// HTTPErrorHandler answers errors that escape handlers and middlewares,
// including echo's own routing and binding errors.
func (a *App) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		he     *echo.HTTPError
		status = http.StatusInternalServerError
	)
	if errors.As(err, &he) {
		status = he.Code
	}

	var werr error
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		werr = a.er(c, http.StatusNotFound, constants.ErrNotFound, fmt.Sprintf("Cannot %s %s", c.Request().Method, c.Request().URL.Path))
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		werr = a.er(c, status, constants.ErrValidationFailed, fmt.Sprint(he.Message))
	case http.StatusUnauthorized:
		werr = a.er(c, status, constants.ErrUnauthenticated, fmt.Sprint(he.Message))
	case http.StatusForbidden:
		werr = a.er(c, status, constants.ErrForbidden, fmt.Sprint(he.Message))
	default:
		a.l.Error("unhandled error", zap.String("URI", c.Request().RequestURI), zap.Error(err))
		werr = a.internal(c, err)
	}

	if werr != nil {
		a.l.Error("failed to write error response", zap.Error(werr))
	}
}
