package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable codes carried in the error envelope.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidToken       = "invalid_token"
	CodeUnauthorized       = "unauthorized"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotVerified   = "email_not_verified"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeRateLimited        = "rate_limited"
	CodeUploadFailed       = "upload_failed"
	CodeEmailFailed        = "email_failed"
	CodeInternal           = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From extracts an *Error from err's chain, or wraps err as a 500.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Err: err}
}

func Invalid(err error) *Error {
	return New(http.StatusBadRequest, CodeInvalidRequest, err)
}

func InvalidToken(err error) *Error {
	return New(http.StatusBadRequest, CodeInvalidToken, err)
}

func Unauthorized(code string, err error) *Error {
	if code == "" {
		code = CodeUnauthorized
	}
	return New(http.StatusUnauthorized, code, err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, CodeConflict, err)
}

func RateLimited(err error) *Error {
	return New(http.StatusTooManyRequests, CodeRateLimited, err)
}

func Upstream(code string, err error) *Error {
	return New(http.StatusBadGateway, code, err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}
