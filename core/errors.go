package core

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput    = "CREDDEF_BAD_INPUT"
	ErrorConflict    = "CREDDEF_CONFLICT"
	ErrorNotFound    = "CREDDEF_NOT_FOUND"
	ErrorRemoteFault = "CREDDEF_REMOTE_FAULT"
	ErrorUnexpected  = "CREDDEF_UNEXPECTED"
)

// RemoteError is the fault envelope returned by an agent or sibling service.
type RemoteError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"`
}

func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("remote fault (%d): %s", e.StatusCode, e.DisplayMessage())
}

// DisplayMessage prefers the remote reason over the generic message.
func (e *RemoteError) DisplayMessage() string {
	if e == nil {
		return ""
	}
	if reason := strings.TrimSpace(e.Reason); reason != "" {
		return reason
	}
	return strings.TrimSpace(e.Message)
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteFaultError(remoteErr.StatusCode, remoteErr.DisplayMessage(), err, nil)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ErrorNotFound)
	}
	if errors.Is(err, ErrInvalidTopologyClass) || errors.Is(err, ErrUnmatchedResponse) {
		return newServiceError(err.Error(), goerrors.CategoryInternal, ErrorUnexpected)
	}
	if errors.Is(err, ErrInvalidSchemaType) {
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ErrorNotFound)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return newServiceError(err.Error(), goerrors.CategoryConflict, ErrorConflict)
	case strings.Contains(msg, "not found"):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func conflictError(message string, metadata map[string]any) *goerrors.Error {
	err := newServiceError(message, goerrors.CategoryConflict, ErrorConflict)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func notFoundError(message string, metadata map[string]any) *goerrors.Error {
	err := newServiceError(message, goerrors.CategoryNotFound, ErrorNotFound)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func unexpectedError(message string, metadata map[string]any) *goerrors.Error {
	err := newServiceError(message, goerrors.CategoryInternal, ErrorUnexpected)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// remoteFaultError carries the remote status code; a missing status becomes
// 502 Bad Gateway.
func remoteFaultError(statusCode int, message string, source error, metadata map[string]any) *goerrors.Error {
	if statusCode <= 0 {
		statusCode = http.StatusBadGateway
	}
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(statusCode)
	}
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryExternal)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	}
	err = err.WithCode(statusCode).WithTextCode(ErrorRemoteFault)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryConflict:
		return ErrorConflict
	case goerrors.CategoryExternal:
		return ErrorRemoteFault
	default:
		return ErrorUnexpected
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func hasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func IsBadInput(err error) bool {
	return hasTextCode(err, ErrorBadInput)
}

func IsConflict(err error) bool {
	return hasTextCode(err, ErrorConflict)
}

func IsNotFound(err error) bool {
	return hasTextCode(err, ErrorNotFound)
}

func IsRemoteFault(err error) bool {
	return hasTextCode(err, ErrorRemoteFault)
}

func IsUnexpected(err error) bool {
	return hasTextCode(err, ErrorUnexpected)
}
