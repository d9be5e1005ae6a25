package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/internal/util"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Envelope is the body of every response.
type Envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Meta    *util.Meta        `json:"meta,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func success(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Status: statusSuccess, Message: message, Data: data})
}

func paged(c echo.Context, data any, meta util.Meta) error {
	return c.JSON(http.StatusOK, Envelope{Status: statusSuccess, Data: data, Meta: &meta})
}

// StatusOf maps an error onto the HTTP status the client sees.
func StatusOf(err error) int {
	var he *echo.HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrBusinessRule):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func render(err error) (int, Envelope) {
	code := StatusOf(err)
	env := Envelope{Status: statusError}

	var ve *service.ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		env.Message = "Validation Error"
		env.Errors = ve.Fields
	case errors.As(err, &he):
		env.Message = fmt.Sprint(he.Message)
	case code == http.StatusInternalServerError:
		env.Message = "internal server error"
	default:
		env.Message = service.Message(err)
	}
	return code, env
}

// ErrorHandler is the echo HTTPErrorHandler: every handler error is written as an Envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, env := render(err)
	if code >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", code, "error", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, env)
}

// fail logs err with its status under event and hands it on to the error handler.
func fail(c echo.Context, handler, event string, err error) error {
	code := StatusOf(err)
	l := logging.FromContext(c.Request().Context()).With("handler", handler)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "error", err)
	}
	return err
}

func paramID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(v), nil
}

func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
