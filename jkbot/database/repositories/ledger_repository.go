package repositories

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/uptrace/bun"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/jkbot/database/models"
)

// LedgerRepository stores bucketed points and mutes. It implements
// ledger.Store and economy.MuteStore.
type LedgerRepository struct {
	*BaseRepository
}

func NewLedgerRepository(db *bun.DB) *LedgerRepository {
	return &LedgerRepository{BaseRepository: NewBaseRepository(db)}
}

// InTx runs fn in a database transaction. Errors returned by fn are passed
// through unchanged after the rollback.
func (r *LedgerRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &ledgerTx{repo: r, tx: tx})
	})
}

func (r *LedgerRepository) Top(ctx context.Context, bucket ledger.Bucket, key string, n int) ([]ledger.Standing, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []models.Standing
	err := r.db.NewSelect().
		TableExpr("ledger_entries AS le").
		ColumnExpr("le.user_id, COALESCE(u.handle, '') AS handle, le.points").
		Join("LEFT JOIN users AS u ON u.id = le.user_id").
		Where("le.bucket = ?", string(bucket)).
		Where("le.bucket_key = ?", key).
		OrderExpr("le.points DESC, le.user_id ASC").
		Limit(n).
		Scan(ctx, &rows)
	if err != nil {
		return nil, r.HandleError("top", "ledger_entry", err)
	}

	standings := make([]ledger.Standing, len(rows))
	for i, row := range rows {
		standings[i] = ledger.Standing{UserID: row.UserID, Handle: row.Handle, Points: row.Points}
	}
	return standings, nil
}

func (r *LedgerRepository) Stats(ctx context.Context, userID int64, keys ledger.Keys) (*ledger.Stats, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	user := new(models.User)
	if err := r.db.NewSelect().Model(user).Where("id = ?", userID).Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("stats", "user", userID, err)
	}

	var entries []models.LedgerEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, b := range ledger.Buckets {
				q = q.WhereOr("bucket = ? AND bucket_key = ?", string(b), keys.For(b))
			}
			return q
		}).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("stats", "ledger_entry", userID, err)
	}

	lifetime, err := balance(ctx, r.db, userID)
	if err != nil {
		return nil, r.HandleErrorWithID("stats", "ledger_entry", userID, err)
	}

	stats := &ledger.Stats{User: *toUser(user), Lifetime: lifetime}
	for _, e := range entries {
		switch ledger.Bucket(e.Bucket) {
		case ledger.BucketDay:
			stats.Today = e.Points
		case ledger.BucketWeek:
			stats.Week = e.Points
		case ledger.BucketMonth:
			stats.Month = e.Points
		}
	}
	return stats, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	sum, err := balance(ctx, r.db, userID)
	return sum, r.HandleErrorWithID("balance", "ledger_entry", userID, err)
}

// MuteExpiry returns the stored mute end, expired or not.
func (r *LedgerRepository) MuteExpiry(ctx context.Context, userID int64) (time.Time, bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	mute := new(models.Mute)
	err := r.db.NewSelect().Model(mute).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, r.HandleErrorWithID("get", "mute", userID, err)
	}
	return mute.Until(), true, nil
}

func (r *LedgerRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.Mute)(nil)).
		Where("until_unix <= ?", now.Unix()).
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("delete_expired", "mute", err)
	}
	return int(rowsAffected(res)), nil
}

func balance(ctx context.Context, db bun.IDB, userID int64) (int64, error) {
	var sum int64
	err := db.NewSelect().
		Model((*models.LedgerEntry)(nil)).
		ColumnExpr("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Where("bucket = ?", string(ledger.BucketDay)).
		Scan(ctx, &sum)
	return sum, err
}

type ledgerTx struct {
	repo *LedgerRepository
	tx   bun.Tx
}

// LockUsers takes row locks on postgres. SQLite serializes writers, so
// there it only checks that the users exist.
func (t *ledgerTx) LockUsers(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	var found []int64
	q := t.tx.NewSelect().
		Model((*models.User)(nil)).
		Column("id").
		Where("id IN (?)", bun.In(ids)).
		OrderExpr("id ASC")
	if t.repo.isPostgres() {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx, &found); err != nil {
		return t.repo.HandleError("lock", "user", err)
	}

	for _, id := range ids {
		if !slices.Contains(found, id) {
			return &errs.NotFoundError{Entity: "user", Key: id}
		}
	}
	return nil
}

func (t *ledgerTx) Balance(ctx context.Context, userID int64) (int64, error) {
	sum, err := balance(ctx, t.tx, userID)
	return sum, t.repo.HandleErrorWithID("balance", "ledger_entry", userID, err)
}

// Add increments the user's entry in every bucket, creating missing ones.
// The caller holds the user's lock, so update-then-insert cannot race.
func (t *ledgerTx) Add(ctx context.Context, userID, delta int64, keys ledger.Keys) (ledger.Totals, error) {
	now := time.Now().UTC()
	var totals ledger.Totals

	for _, b := range ledger.Buckets {
		key := keys.For(b)
		res, err := t.tx.NewUpdate().
			Model((*models.LedgerEntry)(nil)).
			Set("points = points + ?", delta).
			Set("updated_at = ?", now).
			Where("user_id = ?", userID).
			Where("bucket = ?", string(b)).
			Where("bucket_key = ?", key).
			Exec(ctx)
		if err != nil {
			return ledger.Totals{}, t.repo.HandleErrorWithID("add", "ledger_entry", userID, err)
		}
		if rowsAffected(res) == 0 {
			entry := &models.LedgerEntry{
				UserID:    userID,
				Bucket:    string(b),
				BucketKey: key,
				Points:    delta,
				UpdatedAt: now,
			}
			if _, err = t.tx.NewInsert().Model(entry).Exec(ctx); err != nil {
				return ledger.Totals{}, t.repo.HandleErrorWithID("add", "ledger_entry", userID, err)
			}
		}

		var points int64
		err = t.tx.NewSelect().
			Model((*models.LedgerEntry)(nil)).
			Column("points").
			Where("user_id = ?", userID).
			Where("bucket = ?", string(b)).
			Where("bucket_key = ?", key).
			Scan(ctx, &points)
		if err != nil {
			return ledger.Totals{}, t.repo.HandleErrorWithID("add", "ledger_entry", userID, err)
		}

		switch b {
		case ledger.BucketDay:
			totals.Day = points
		case ledger.BucketWeek:
			totals.Week = points
		case ledger.BucketMonth:
			totals.Month = points
		}
	}
	return totals, nil
}

func (t *ledgerTx) SetMute(ctx context.Context, userID int64, until time.Time) error {
	mute := &models.Mute{
		UserID:    userID,
		UntilUnix: until.Unix(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := t.tx.NewInsert().
		Model(mute).
		On("CONFLICT (user_id) DO UPDATE").
		Set("until_unix = EXCLUDED.until_unix").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	return t.repo.HandleErrorWithID("set", "mute", userID, err)
}
