package api

import (
	"net/http"
)

// HTTPError represents an error with an HTTP status code. The wrapped error,
// if any, is logged but never sent to the client.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// WithErr returns a copy of the HTTPError carrying err as its cause.
func (e *HTTPError) WithErr(err error) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

var (
	ErrInvalidRequestBodyData = &HTTPError{Code: http.StatusBadRequest, Message: "invalid request body data"}
	ErrInvalidJSON            = &HTTPError{Code: http.StatusBadRequest, Message: "invalid json body"}
	ErrWrongLogin             = &HTTPError{Code: http.StatusBadRequest, Message: "wrong password or email"}
	ErrUnauthorized           = &HTTPError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	ErrForbidden              = &HTTPError{Code: http.StatusForbidden, Message: "insufficient role for this operation"}
	ErrSpotNotFound           = &HTTPError{Code: http.StatusNotFound, Message: "spot not found"}
	ErrFlagNotFound           = &HTTPError{Code: http.StatusNotFound, Message: "flag not found"}
	ErrUserNotFound           = &HTTPError{Code: http.StatusNotFound, Message: "user not found"}
	ErrAddressNotFound        = &HTTPError{Code: http.StatusNotFound, Message: "could not resolve address"}
	ErrGeocodeUnavailable     = &HTTPError{Code: http.StatusBadGateway, Message: "geocoding service unavailable"}
	ErrEmailAlreadyExists     = &HTTPError{Code: http.StatusConflict, Message: "email already registered"}
	ErrRateLimitExceeded      = &HTTPError{Code: http.StatusTooManyRequests, Message: "rate limit exceeded, please wait before retrying"}
	ErrInternalServerError    = &HTTPError{Code: http.StatusInternalServerError, Message: "internal server error"}
)
