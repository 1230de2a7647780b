package dashboard

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

var (
	// ErrNotFound is returned by a Store when no record matches the identifier.
	// The Service turns it into an empty result.
	ErrNotFound = errors.New("dashboard: conversation not found")

	// ErrStoreUnreachable marks a name-resolution or network failure reaching the store.
	ErrStoreUnreachable = errors.New("dashboard: store unreachable")

	// ErrDataAccessFailed marks any other failed store query.
	ErrDataAccessFailed = errors.New("dashboard: data access failed")
)

const unreachableMessage = "Cannot reach the conversation store. Network access is required to load conversation data."

// DataError is the sanitized failure handed to callers. Its message never
// includes the underlying store error.
type DataError struct {
	Kind    error
	Context string
}

func (e *DataError) Error() string {
	if e.Kind == ErrStoreUnreachable {
		return unreachableMessage
	}
	return "Unable to load " + e.Context + ". Check database credentials and access policies."
}

// Is matches the error kind sentinels.
func (e *DataError) Is(target error) bool {
	return target == e.Kind
}

// Classify maps a raw store error to a sanitized DataError for context.
func Classify(err error, context string) *DataError {
	if IsUnreachable(err) {
		return &DataError{Kind: ErrStoreUnreachable, Context: context}
	}
	return &DataError{Kind: ErrDataAccessFailed, Context: context}
}

// IsUnreachable reports whether err signals that the store host could not be
// resolved or reached.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "ENOTFOUND") || strings.Contains(msg, "no such host")
}
