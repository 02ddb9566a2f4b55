package store

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrUnavailable is returned by a store that is switched off.
var ErrUnavailable = errors.New("remote store unavailable")

// ErrorClass groups remote failures by how callers should react.
type ErrorClass string

const (
	ClassNone        ErrorClass = ""
	ClassUnreachable ErrorClass = "unreachable"
	ClassMissing     ErrorClass = "missing"
	ClassPermission  ErrorClass = "permission"
	ClassNotFound    ErrorClass = "not_found"
	ClassOther       ErrorClass = "other"
)

// Classify maps a store error to its class.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return ClassUnreachable
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ClassNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42P01" || pgErr.Code == "3D000":
			return ClassMissing
		case pgErr.Code == "42501" || strings.HasPrefix(pgErr.Code, "28"):
			return ClassPermission
		case strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P"):
			return ClassUnreachable
		}
		return ClassOther
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return ClassUnreachable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassUnreachable
	}
	return ClassOther
}

// Disconnects reports whether the class means the store should be treated as down.
func (c ErrorClass) Disconnects() bool {
	return c == ClassUnreachable || c == ClassMissing
}
