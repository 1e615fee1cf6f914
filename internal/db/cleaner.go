package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// PurgeSoftDeleted removes habits soft-deleted before cutoff. Their tag
// links and entries go with them through ON DELETE CASCADE.
func PurgeSoftDeleted(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM habits
         WHERE deleted_at IS NOT NULL
           AND deleted_at < $1
    `, cutoff)
	if err != nil {
		return 0, Classify(err)
	}
	return res.RowsAffected()
}

// StartSoftDeleteCleaner purges old soft-deleted habits every interval
// until ctx is done.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rows, err := PurgeSoftDeleted(ctx, db, time.Now().Add(-retention))
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Error("failed to purge soft-deleted habits", zap.Error(err))
					continue
				}
				if rows > 0 {
					log.Info("purged soft-deleted habits", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
