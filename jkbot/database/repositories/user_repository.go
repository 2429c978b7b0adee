package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/jkbot/database/models"
)

// UserRepository stores chat members. It implements ledger.UserRepository.
type UserRepository struct {
	*BaseRepository
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{BaseRepository: NewBaseRepository(db)}
}

// Upsert inserts the user or refreshes handle and display name. The stored
// registration time is written back into user.
func (r *UserRepository) Upsert(ctx context.Context, user *ledger.User) (bool, error) {
	now := time.Now().UTC()
	var created bool

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		row := &models.User{
			ID:           user.ID,
			Handle:       user.Handle,
			DisplayName:  user.DisplayName,
			RegisteredAt: now,
			UpdatedAt:    now,
		}
		res, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if rowsAffected(res) == 1 {
			created = true
			user.RegisteredAt = now
			return nil
		}

		_, err = tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("handle = ?", user.Handle).
			Set("display_name = ?", user.DisplayName).
			Set("updated_at = ?", now).
			Where("id = ?", user.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		return tx.NewSelect().
			Model((*models.User)(nil)).
			Column("registered_at").
			Where("id = ?", user.ID).
			Scan(ctx, &user.RegisteredAt)
	})
	return created, r.HandleErrorWithID("upsert", "user", user.ID, err)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*ledger.User, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	row := new(models.User)
	if err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("get", "user", id, err)
	}
	return toUser(row), nil
}

// GetByHandle expects a normalized handle. When a handle changed hands the
// most recently updated owner wins.
func (r *UserRepository) GetByHandle(ctx context.Context, handle string) (*ledger.User, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	row := new(models.User)
	err := r.db.NewSelect().
		Model(row).
		Where("handle = ?", handle).
		OrderExpr("updated_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "user", "@"+handle, err)
	}
	return toUser(row), nil
}

func (r *UserRepository) Handles(ctx context.Context) ([]string, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var handles []string
	err := r.db.NewSelect().
		Model((*models.User)(nil)).
		Column("handle").
		Where("handle <> ''").
		OrderExpr("handle ASC").
		Scan(ctx, &handles)
	return handles, r.HandleError("list", "user", err)
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	return n, r.HandleError("count", "user", err)
}

func toUser(row *models.User) *ledger.User {
	return &ledger.User{
		ID:           row.ID,
		Handle:       row.Handle,
		DisplayName:  row.DisplayName,
		RegisteredAt: row.RegisteredAt,
	}
}
