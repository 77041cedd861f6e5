// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeTransport: the request never produced an HTTP response.
	ErrTypeTransport
	// ErrTypeApplication: the backend answered with a non-2xx status.
	ErrTypeApplication
	ErrTypeTimeout
	// ErrTypeInvalidResponse: a 2xx answer whose body could not be decoded.
	ErrTypeInvalidResponse
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeTransport:
		return "transport"
	case ErrTypeApplication:
		return "application"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the tutoring client.
type ClientError struct {
	Type    ErrorType
	Message string
	// Status is the HTTP status for application errors, zero otherwise.
	Status int
	// Server is the backend's "error" field, if the body carried one.
	Server string
	Cause  error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Server != "" {
		msg += ": " + e.Server
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches the package sentinels by type, so errors.Is(err, ErrTimeout)
// holds for every timeout regardless of cause.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return (t == ErrTimeout || t == ErrUnreachable) && t.Type == e.Type
}

// ServerMessage returns the backend's error text, or "" when there was none.
func (e *ClientError) ServerMessage() string {
	return e.Server
}

// Sentinel errors for easy checking.
var (
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnreachable = &ClientError{Type: ErrTypeTransport, Message: "tutoring backend unreachable"}
)

// IsTransport reports whether err means the backend could not be reached.
// Timeouts count as transport failures.
func IsTransport(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeTransport || ce.Type == ErrTypeTimeout
	}
	return false
}

// IsApplication reports whether the backend answered with a failure status.
func IsApplication(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeApplication
	}
	return false
}

// ServerMessage extracts the backend's error text from err, if any.
func ServerMessage(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.ServerMessage()
	}
	return ""
}
