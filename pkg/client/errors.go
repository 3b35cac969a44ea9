package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrUnexpectedStatus is wrapped by APIError for responses outside the 2xx range.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport and timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents responses whose body could not be read or parsed.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError describes a failed API call.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	// Body holds the start of the response body, if one was read.
	Body string
	Err  error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("cronofy %s error", e.ErrorClass)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-success HTTP status to an error class.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return ErrorClassServer
	case statusCode >= http.StatusBadRequest:
		return ErrorClassClient
	default:
		return ""
	}
}
