// Package controller holds helpers shared by the resource controllers.
package controller

import (
	"log/slog"
	"net/http"
	"strconv"

	"bookrental/util/apperr"

	"github.com/labstack/echo/v4"
)

// Message is the body of every error response and of plain acknowledgements.
type Message struct {
	Message string `json:"message" example:"Book with ID 3 not found"`
}

// ParseID reads a positive integer path parameter.
func ParseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Status maps an error code to its HTTP status. Uncoded errors are faults.
func Status(code apperr.ErrCode) int {
	switch code {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err with the status its code maps to. Fault details stay in
// the log, tagged with the request id.
func Fail(c echo.Context, log *slog.Logger, op string, err error) error {
	return FailWith(c, log, op, err, Status)
}

// FailWith is Fail with a custom code to status mapping.
func FailWith(c echo.Context, log *slog.Logger, op string, err error, status func(apperr.ErrCode) int) error {
	code := apperr.Code(err)
	st := status(code)
	if code == "" {
		log.Error(op, "err", err, "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
		return c.JSON(st, Message{Message: "internal error"})
	}
	log.Warn(op, "code", string(code), "err", err)
	return c.JSON(st, Message{Message: err.Error()})
}

// BadRequest answers 400 with msg.
func BadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, Message{Message: msg})
}
