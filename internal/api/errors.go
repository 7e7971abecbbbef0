package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"taskboard/internal/service"
)

// defaultMessage is used when a failed response carries no message.
const defaultMessage = "api error"

// Error is a failed backend call. It matches the service error kinds with
// errors.Is and the raw *googleapi.Error with errors.As.
type Error struct {
	kind error
	resp *googleapi.Error
}

func (e *Error) Error() string {
	msg := e.resp.Message
	switch {
	case e.kind == nil:
		return msg
	case msg == "" || msg == defaultMessage:
		return e.kind.Error()
	default:
		return e.kind.Error() + ": " + msg
	}
}

// Unwrap exposes both the error kind and the response details.
func (e *Error) Unwrap() []error {
	if e.kind == nil {
		return []error{e.resp}
	}
	return []error{e.kind, e.resp}
}

// StatusCode returns the HTTP status of the failed call.
func (e *Error) StatusCode() int {
	return e.resp.Code
}

// newAPIError builds the response error from a failed call's body.
func newAPIError(code int, header http.Header, body []byte) *googleapi.Error {
	var env envelope
	_ = json.Unmarshal(body, &env)

	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = defaultMessage
	}

	gerr := &googleapi.Error{
		Code:    code,
		Message: msg,
		Body:    string(body),
		Header:  header,
	}
	for _, fe := range env.Errors {
		gerr.Errors = append(gerr.Errors, googleapi.ErrorItem{Reason: fe.Field, Message: fe.Message})
	}
	return gerr
}

// rejectAsError turns a 400/409 into an error for calls whose result type
// has no Outcome to carry it.
func rejectAsError(status int, data []byte) error {
	if !isRejection(status) {
		return nil
	}
	return wrapError(newAPIError(status, nil, data))
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		e := &Error{resp: gerr}
		switch gerr.Code {
		case http.StatusUnauthorized:
			e.kind = service.ErrUnauthorized
		case http.StatusForbidden:
			e.kind = service.ErrForbidden
		case http.StatusNotFound:
			e.kind = service.ErrNotFound
		}
		return e
	}

	// Check for timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}

	return fmt.Errorf("network error: %w", err)
}
