package db

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies store errors so callers branch on a value instead of
// matching error types at every call site.
type Kind int

const (
	// KindNone means the error is nil.
	KindNone Kind = iota
	// KindTransient covers resource-temporarily-unavailable class failures
	// that are worth retrying: connection drops, serialization failures,
	// lock timeouts, resource exhaustion.
	KindTransient
	// KindConflict is a uniqueness violation. On event insert it means the
	// fingerprint already exists and the caller should merge instead.
	KindConflict
	// KindNotFound is an empty single-row result.
	KindNotFound
	// KindInvalid is everything else: bad SQL, constraint violations that
	// are not uniqueness, malformed input.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransient:
		return "transient"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "invalid"
	}
}

var ErrNoRows = sql.ErrNoRows

// KindOf maps an error from the store into the taxonomy. Context
// cancellation is deliberately not Transient: retrying a canceled call
// only delays shutdown.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindInvalid
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return KindConflict
		case strings.HasPrefix(pgErr.Code, "08"): // connection exceptions
			return KindTransient
		case pgErr.Code == "40001" || pgErr.Code == "40P01": // serialization, deadlock
			return KindTransient
		case strings.HasPrefix(pgErr.Code, "53"): // insufficient resources
			return KindTransient
		case pgErr.Code == "55P03" || pgErr.Code == "57P03": // lock unavailable, cannot connect now
			return KindTransient
		default:
			return KindInvalid
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	if errors.Is(err, sql.ErrConnDone) {
		return KindTransient
	}

	return KindInvalid
}

// IsNoRows reports whether err is the empty-result sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsConflict reports a uniqueness violation.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsTransient reports a retryable store failure.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
