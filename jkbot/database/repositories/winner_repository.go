package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/jkcommunity/jkbot/internal/domain/winners"
	"github.com/jkcommunity/jkbot/jkbot/database/models"
)

// WinnerRepository implements winners.Repository.
type WinnerRepository struct {
	*BaseRepository
}

func NewWinnerRepository(db *bun.DB) *WinnerRepository {
	return &WinnerRepository{BaseRepository: NewBaseRepository(db)}
}

// Record inserts the winner; an existing row for the month is left alone.
func (r *WinnerRepository) Record(ctx context.Context, w *winners.Winner) (bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewInsert().
		Model(&models.MonthlyWinner{
			MonthStart: w.MonthStart,
			UserID:     w.UserID,
			Handle:     w.Handle,
			Points:     w.Points,
			RecordedAt: w.RecordedAt.UTC(),
		}).
		On("CONFLICT (month_start) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("record", "monthly_winner", w.MonthStart, err)
	}
	return rowsAffected(res) == 1, nil
}

// History returns archived winners, newest month first.
func (r *WinnerRepository) History(ctx context.Context, limit int) ([]winners.Winner, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []models.MonthlyWinner
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("month_start DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("history", "monthly_winner", err)
	}

	out := make([]winners.Winner, len(rows))
	for i, row := range rows {
		out[i] = winners.Winner{
			UserID:     row.UserID,
			Handle:     row.Handle,
			Points:     row.Points,
			MonthStart: row.MonthStart,
			RecordedAt: row.RecordedAt,
		}
	}
	return out, nil
}
