// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Error is a client-facing failure. Code doubles as the gRPC status code and
// picks the HTTP status via HTTPStatus.
type Error struct {
	Code codes.Code
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// GRPCStatus lets status.FromError and the gRPC server recognise Error.
func (e *Error) GRPCStatus() *status.Status { return status.New(e.Code, e.Msg) }

// Map converts repo/infra errors into status-carrying errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Code: codes.NotFound, Msg: "record not found"}

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Code: codes.AlreadyExists, Msg: "record already exists"}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: codes.DeadlineExceeded, Msg: "request timed out"}

	case errors.Is(err, context.Canceled):
		return &Error{Code: codes.Canceled, Msg: "request was canceled"}

	default:
		return &Error{Code: codes.Internal, Msg: "internal server error"}
	}
}

// HTTPStatus returns the HTTP status and the client-safe message for err.
func HTTPStatus(err error) (int, string) {
	var e *Error
	if !errors.As(Map(err), &e) {
		return http.StatusInternalServerError, "internal server error"
	}

	switch e.Code {
	case codes.InvalidArgument:
		return http.StatusBadRequest, e.Msg
	case codes.NotFound:
		return http.StatusNotFound, e.Msg
	case codes.AlreadyExists:
		return http.StatusConflict, e.Msg
	case codes.PermissionDenied:
		return http.StatusForbidden, e.Msg
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, e.Msg
	case codes.Canceled:
		return 499, e.Msg
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// Is reports whether err maps to the given code.
func Is(err error, code codes.Code) bool {
	var e *Error
	return errors.As(Map(err), &e) && e.Code == code
}

// InvalidArgument creates an InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return &Error{Code: codes.InvalidArgument, Msg: msg}
}

// AlreadyExists creates an AlreadyExists error.
func AlreadyExists(msg string) error {
	return &Error{Code: codes.AlreadyExists, Msg: msg}
}

// NotFound creates a NotFound error.
func NotFound(msg string) error {
	return &Error{Code: codes.NotFound, Msg: msg}
}

// PermissionDenied creates a PermissionDenied error.
func PermissionDenied(msg string) error {
	return &Error{Code: codes.PermissionDenied, Msg: msg}
}
