// Package apperr carries the error codes services hand to the transport layer.
package apperr

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	ErrValidation ErrCode = "VALIDATION"
	ErrNotFound   ErrCode = "NOT_FOUND"
	ErrConflict   ErrCode = "CONFLICT"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() ErrCode { return e.code }

// Is matches any coded error with the same code, so errors.Is(err, apperr.NotFound(""))
// style checks work regardless of message.
func (e *codedError) Is(target error) bool {
	var t *codedError
	return errors.As(target, &t) && t.code == e.code
}

func New(code ErrCode, msg string) error { return &codedError{code: code, msg: msg} }

func Newf(code ErrCode, format string, args ...any) error {
	return &codedError{code: code, msg: fmt.Sprintf(format, args...)}
}

func Validation(msg string) error { return New(ErrValidation, msg) }
func NotFound(msg string) error   { return New(ErrNotFound, msg) }
func Conflict(msg string) error   { return New(ErrConflict, msg) }

// Code extracts the error code; plain errors yield "".
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}
