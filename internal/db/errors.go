package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

// Storage error classes. Repositories wrap driver errors with one of these
// so callers can match them with errors.Is.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrConstraint   = errors.New("constraint violation")
	ErrUnavailable  = errors.New("storage unavailable")
)

// Classify tags err with a storage sentinel where one applies. The original
// error stays in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if sentinel := classOf(err); sentinel != nil {
		if errors.Is(err, sentinel) {
			return err
		}
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

func classOf(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, ErrDuplicateKey):
		return ErrDuplicateKey
	case errors.Is(err, ErrConstraint):
		return ErrConstraint
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone):
		return ErrUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return ErrDuplicateKey
		case pqErr.Code == "23503", pqErr.Code == "23502", pqErr.Code == "23514", pqErr.Code == "22P02":
			return ErrConstraint
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "53",
			pqErr.Code == "57P01", pqErr.Code == "57P02", pqErr.Code == "57P03":
			return ErrUnavailable
		}
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrUnavailable
	}
	return nil
}

// Constraint returns the name of the violated constraint, if err carries one.
func Constraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// ViolatesColumn reports whether err is a unique or foreign key violation
// whose constraint mentions column.
func ViolatesColumn(err error, column string) bool {
	return strings.Contains(Constraint(err), column)
}
