package domain

import (
	"context"
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeManifest            ErrorCode = "MANIFEST"
	CodeUnsupportedPlatform ErrorCode = "UNSUPPORTED_PLATFORM"
	CodeConfigParse         ErrorCode = "CONFIG_PARSE"
	CodeProcessAccess       ErrorCode = "PROCESS_ACCESS"
	CodeNetwork             ErrorCode = "NETWORK"
	CodeProtocol            ErrorCode = "PROTOCOL"
	CodeClassifier          ErrorCode = "CLASSIFIER"
	CodeCanceled            ErrorCode = "CANCELED"
	CodeDeadlineExceeded    ErrorCode = "DEADLINE_EXCEEDED"
	CodeInternal            ErrorCode = "INTERNAL"
)

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrProcessGone         = errors.New("process no longer exists")
	ErrAccessDenied        = errors.New("access denied")
)

// Error is the classified failure carried across component boundaries.
// Only errors with CodeManifest are allowed to fail a whole scan.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
	Meta    map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:    existing.Code,
			Op:      op,
			Message: existing.Message,
			Cause:   existing.Cause,
			Meta:    existing.Meta,
		}
	}
	return E(code, op, "", err)
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrUnsupportedPlatform):
		return CodeUnsupportedPlatform, true
	case errors.Is(err, ErrProcessGone), errors.Is(err, ErrAccessDenied):
		return CodeProcessAccess, true
	case errors.Is(err, context.Canceled):
		return CodeCanceled, true
	case errors.Is(err, context.DeadlineExceeded):
		return CodeDeadlineExceeded, true
	default:
		return "", false
	}
}

// IsFatal reports whether err must abort the whole scan.
func IsFatal(err error) bool {
	code, ok := CodeFrom(err)
	return ok && code == CodeManifest
}
