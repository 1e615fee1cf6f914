package service

import (
	"errors"

	"github.com/atinyakov/habittracker/internal/apperr"
	"github.com/atinyakov/habittracker/internal/db"
)

const (
	msgInternal    = "Internal server error"
	msgUnavailable = "Service temporarily unavailable"
)

// translate maps storage sentinels onto the apperr taxonomy. Errors that
// are already classified pass through unchanged.
func translate(err error, notFound, conflict string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, db.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, notFound, err)
	case errors.Is(err, db.ErrDuplicateKey):
		return apperr.Wrap(apperr.Conflict, conflict, err)
	case errors.Is(err, db.ErrConstraint):
		return apperr.Wrap(apperr.Validation, "Invalid reference or value", err)
	case errors.Is(err, db.ErrUnavailable):
		return apperr.Wrap(apperr.StorageUnavailable, msgUnavailable, err)
	default:
		return apperr.Wrap(apperr.Internal, msgInternal, err)
	}
}
