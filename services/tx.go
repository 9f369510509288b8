package services

import (
	"context"
	"errors"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"gorm.io/gorm"
)

// RunInTx runs fn inside one transaction bound to ctx. The transaction commits
// when fn returns nil and rolls back when fn errors or panics.
func RunInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// dbError maps gorm's not-found and duplicate-key errors to their HTTP meaning.
func dbError(err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != "":
		return apperr.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey) && conflict != "":
		return apperr.Conflict(conflict)
	default:
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperr.Internal(err)
	}
}
