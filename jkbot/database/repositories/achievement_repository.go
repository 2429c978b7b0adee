package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/jkcommunity/jkbot/jkbot/database/models"
)

// AchievementRepository implements achievements.Store. Notice and broadcast
// claims are INSERT ... ON CONFLICT DO NOTHING inside one transaction with
// the boost, so the row count decides the winner even across processes.
type AchievementRepository struct {
	*BaseRepository
}

func NewAchievementRepository(db *bun.DB) *AchievementRepository {
	return &AchievementRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *AchievementRepository) Achieve(ctx context.Context, userID, threshold int64, epoch string, until time.Time) (bool, bool, error) {
	var notified, claimed bool
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()

		res, err := tx.NewInsert().
			Model(&models.AchievementNotice{
				UserID:     userID,
				Threshold:  threshold,
				Epoch:      epoch,
				NotifiedAt: now,
			}).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if notified = rowsAffected(res) == 1; !notified {
			return nil
		}

		res, err = tx.NewInsert().
			Model(&models.AchievementBroadcast{
				Threshold: threshold,
				Epoch:     epoch,
				UserID:    userID,
				ClaimedAt: now,
			}).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if claimed = rowsAffected(res) == 1; !claimed {
			return nil
		}

		_, err = tx.NewInsert().
			Model(&models.Boost{UserID: userID, ExpiresUnix: until.Unix(), Epoch: epoch}).
			On("CONFLICT (user_id) DO UPDATE").
			Set("expires_unix = EXCLUDED.expires_unix").
			Set("epoch = EXCLUDED.epoch").
			Exec(ctx)
		return err
	})
	if err != nil {
		return false, false, r.HandleErrorWithID("achieve", "achievement", userID, err)
	}
	return notified, claimed, nil
}

func (r *AchievementRepository) BoostExpiry(ctx context.Context, userID int64, epoch string) (time.Time, bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	boost := new(models.Boost)
	err := r.db.NewSelect().
		Model(boost).
		Where("user_id = ?", userID).
		Where("epoch = ?", epoch).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, r.HandleErrorWithID("get", "boost", userID, err)
	}
	return time.Unix(boost.ExpiresUnix, 0), true, nil
}

func (r *AchievementRepository) Reset(ctx context.Context, before string) error {
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []any{
			(*models.AchievementNotice)(nil),
			(*models.AchievementBroadcast)(nil),
			(*models.Boost)(nil),
		} {
			if _, err := tx.NewDelete().Model(model).Where("epoch < ?", before).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	return r.HandleError("reset", "achievement", err)
}
