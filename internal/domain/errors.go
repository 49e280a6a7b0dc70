package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure with a stable, machine-readable tag.
// Every error that crosses a service boundary carries exactly one Kind.
type Kind string

const (
	KindInvalidRequest       Kind = "invalid_request"
	KindInvalidState         Kind = "invalid_state"
	KindUnauthenticated      Kind = "unauthenticated"
	KindCsrfMismatch         Kind = "csrf_mismatch"
	KindForbidden            Kind = "forbidden"
	KindIntegrationDisabled  Kind = "integration_disabled"
	KindNotFound             Kind = "not_found"
	KindAuthorizationExpired Kind = "authorization_expired_or_missing"
	KindConflict             Kind = "conflict"
	KindUpstreamDenied       Kind = "upstream_denied"
	KindUpstreamError        Kind = "upstream_error"
	KindUpstreamTimeout      Kind = "upstream_timeout"
	KindUpstreamUnavailable  Kind = "upstream_unavailable"
	KindExchangeFailed       Kind = "exchange_failed"
	KindPersistenceError     Kind = "persistence_error"
	KindInternal             Kind = "internal"
)

// Error is the single error type returned by application services.
// Detail is safe to return to callers; it never contains credentials.
type Error struct {
	Kind   Kind
	Detail string
	// UpstreamStatus is set only for KindUpstreamError and carries the
	// HTTP status the third party responded with.
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a taxonomy error. The wrapped cause is optional.
func E(kind Kind, detail string, cause ...error) *Error {
	err := &Error{Kind: kind, Detail: detail}
	if len(cause) > 0 {
		err.Err = cause[0]
	}
	return err
}

// UpstreamE builds a KindUpstreamError carrying the upstream HTTP status.
func UpstreamE(status int, detail string) *Error {
	return &Error{Kind: KindUpstreamError, Detail: detail, UpstreamStatus: status}
}

// KindOf extracts the Kind from err, or KindInternal when err is not a
// taxonomy error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the response status defined by the taxonomy.
func HTTPStatus(err error) int {
	var de *Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Kind {
	case KindInvalidRequest, KindInvalidState, KindConflict, KindUpstreamDenied:
		return http.StatusBadRequest
	case KindUnauthenticated, KindCsrfMismatch:
		return http.StatusUnauthorized
	case KindForbidden, KindIntegrationDisabled:
		return http.StatusForbidden
	case KindNotFound, KindAuthorizationExpired:
		return http.StatusNotFound
	case KindUpstreamError:
		if de.UpstreamStatus >= 400 && de.UpstreamStatus < 600 {
			return de.UpstreamStatus
		}
		return http.StatusBadGateway
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
