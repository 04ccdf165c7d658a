// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hxuan190/gd-exchange/internal/domain"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorUnprocessable(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       code,
		Message:    messageOrDefault(msg, "Unprocessable request"),
	}
}

func HTTPErrorBadGateway(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadGateway,
		Code:       "REMOTE_READ_FAILURE",
		Message:    messageOrDefault(msg, "Upstream chain read failed"),
	}
}

func HTTPErrorServiceUnavailable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    messageOrDefault(msg, "Service unavailable"),
	}
}

// HTTPErrorFromDomain maps sell-flow failures onto HTTP errors. Unknown
// errors become 500s.
func HTTPErrorFromDomain(err error) *HttpError {
	var httpErr *HttpError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, domain.ErrUnsupportedChain):
		return HTTPErrorNotFound(err.Error())
	case errors.Is(err, domain.ErrUnsupportedToken):
		return HTTPErrorNotFound(err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return HTTPErrorBadRequest(err.Error())
	case errors.Is(err, domain.ErrUnexpectedAsset):
		return HTTPErrorUnprocessable("UNEXPECTED_ASSET", err.Error())
	case errors.Is(err, domain.ErrInsufficientLiquidity):
		return HTTPErrorUnprocessable("INSUFFICIENT_LIQUIDITY", err.Error())
	case errors.Is(err, domain.ErrRemoteReadFailure):
		return HTTPErrorBadGateway(err.Error())
	default:
		return HTTPErrorInternalError("")
	}
}
