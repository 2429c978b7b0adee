package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/jkbot/database/models"
)

const defaultBatchSize = 500

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	time.RFC3339,
	ledger.KeyLayout,
}

// Migrator copies the original bot's SQLite data into the current schema.
// Reruns overwrite ledger entries and mutes with the legacy values, so an
// import can be repeated after a failure.
type Migrator struct {
	src       *bun.DB
	dst       *bun.DB
	batchSize int
	now       func() time.Time
	known     map[int64]bool
	stats     Stats
}

func NewMigrator(src, dst *bun.DB) *Migrator {
	return &Migrator{
		src:       src,
		dst:       dst,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
}

func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

func (m *Migrator) WithClock(now func() time.Time) *Migrator {
	m.now = now
	return m
}

func (m *Migrator) Stats() Stats {
	return m.stats
}

// MigrateAll imports every legacy table inside one destination transaction.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	m.stats = Stats{StartTime: m.now()}
	m.known = make(map[int64]bool)

	steps := []struct {
		name    string
		migrate func(context.Context, bun.Tx) error
	}{
		{"users", m.migrateUsers},
		{"daily_points", m.pointsStep("daily_points", "date", ledger.BucketDay)},
		{"weekly_points", m.pointsStep("weekly_points", "week_start", ledger.BucketWeek)},
		{"monthly_points", m.pointsStep("monthly_points", "month_start", ledger.BucketMonth)},
		{"monthly_winners", m.migrateWinners},
		{"mutes", m.migrateMutes},
	}

	err := m.dst.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, step := range steps {
			start := time.Now()
			if err := step.migrate(ctx, tx); err != nil {
				return fmt.Errorf("migration failed at step %s: %w", step.name, err)
			}
			t := m.stats.table(step.name)
			slog.Info("Migration step completed",
				slog.String("type", "db"),
				slog.String("operation", step.name),
				slog.Int("read", t.Read),
				slog.Int("imported", t.Imported),
				slog.Int("skipped", t.Skipped),
				slog.Duration("took", time.Since(start)),
			)
		}
		return nil
	})
	m.stats.EndTime = m.now()
	return err
}

func (m *Migrator) migrateUsers(ctx context.Context, tx bun.Tx) error {
	var rows []legacyUser
	if err := m.src.NewSelect().Model(&rows).OrderExpr("user_id ASC").Scan(ctx); err != nil {
		return fmt.Errorf("failed to read users: %w", err)
	}
	stats := m.stats.table("users")
	stats.Read = len(rows)

	now := m.now().UTC()
	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		registered := parseTimestamp(r.CreatedAt.String)
		if registered.IsZero() {
			registered = now
		}
		users = append(users, models.User{
			ID:           r.UserID,
			Handle:       ledger.NormalizeHandle(r.Username.String),
			DisplayName:  strings.TrimSpace(r.FirstName.String + " " + r.LastName.String),
			RegisteredAt: registered,
			UpdatedAt:    now,
		})
		m.known[r.UserID] = true
	}

	return m.insertBatches(len(users), stats, func(lo, hi int) error {
		batch := users[lo:hi]
		_, err := tx.NewInsert().
			Model(&batch).
			On("CONFLICT (id) DO UPDATE").
			Set("handle = EXCLUDED.handle").
			Set("display_name = EXCLUDED.display_name").
			Set("registered_at = EXCLUDED.registered_at").
			Exec(ctx)
		return err
	})
}

func (m *Migrator) pointsStep(table, column string, bucket ledger.Bucket) func(context.Context, bun.Tx) error {
	return func(ctx context.Context, tx bun.Tx) error {
		var rows []legacyPoints
		err := m.src.NewSelect().
			TableExpr(table).
			ColumnExpr("user_id, points").
			ColumnExpr("? AS period", bun.Ident(column)).
			OrderExpr("user_id ASC").
			Scan(ctx, &rows)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", table, err)
		}
		stats := m.stats.table(table)
		stats.Read = len(rows)

		now := m.now().UTC()
		entries := make([]models.LedgerEntry, 0, len(rows))
		for _, r := range rows {
			key, ok := periodKey(r.Period)
			if !ok || !m.known[r.UserID] {
				stats.Skipped++
				slog.Warn("Skipping legacy points row",
					slog.String("type", "db"),
					slog.String("table", table),
					slog.Int64("user_id", r.UserID),
					slog.String("period", r.Period),
				)
				continue
			}
			entries = append(entries, models.LedgerEntry{
				UserID:    r.UserID,
				Bucket:    string(bucket),
				BucketKey: key,
				Points:    r.Points,
				UpdatedAt: now,
			})
		}

		return m.insertBatches(len(entries), stats, func(lo, hi int) error {
			batch := entries[lo:hi]
			_, err := tx.NewInsert().
				Model(&batch).
				On("CONFLICT (user_id, bucket, bucket_key) DO UPDATE").
				Set("points = EXCLUDED.points").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx)
			return err
		})
	}
}

// migrateWinners keeps the first record of each month; the legacy table
// had no uniqueness on month_start.
func (m *Migrator) migrateWinners(ctx context.Context, tx bun.Tx) error {
	var rows []legacyWinner
	if err := m.src.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx); err != nil {
		return fmt.Errorf("failed to read monthly_winners: %w", err)
	}
	stats := m.stats.table("monthly_winners")
	stats.Read = len(rows)

	seen := make(map[string]bool, len(rows))
	winners := make([]models.MonthlyWinner, 0, len(rows))
	for _, r := range rows {
		key, ok := periodKey(r.MonthStart)
		if !ok || seen[key] {
			stats.Skipped++
			continue
		}
		seen[key] = true

		recorded := parseTimestamp(r.CreatedAt.String)
		if recorded.IsZero() {
			recorded = m.now().UTC()
		}
		winners = append(winners, models.MonthlyWinner{
			MonthStart: key,
			UserID:     r.UserID,
			Handle:     ledger.NormalizeHandle(r.Username.String),
			Points:     r.Points,
			RecordedAt: recorded,
		})
	}

	return m.insertBatches(len(winners), stats, func(lo, hi int) error {
		batch := winners[lo:hi]
		_, err := tx.NewInsert().
			Model(&batch).
			On("CONFLICT (month_start) DO NOTHING").
			Exec(ctx)
		return err
	})
}

// migrateMutes carries over mutes that have not expired yet.
func (m *Migrator) migrateMutes(ctx context.Context, tx bun.Tx) error {
	var rows []legacyMute
	if err := m.src.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return fmt.Errorf("failed to read mutes: %w", err)
	}
	stats := m.stats.table("mutes")
	stats.Read = len(rows)

	now := m.now()
	mutes := make([]models.Mute, 0, len(rows))
	for _, r := range rows {
		if r.UntilTimestamp <= now.Unix() || !m.known[r.UserID] {
			stats.Skipped++
			continue
		}
		mutes = append(mutes, models.Mute{UserID: r.UserID, UntilUnix: r.UntilTimestamp, CreatedAt: now.UTC()})
	}

	return m.insertBatches(len(mutes), stats, func(lo, hi int) error {
		batch := mutes[lo:hi]
		_, err := tx.NewInsert().
			Model(&batch).
			On("CONFLICT (user_id) DO UPDATE").
			Set("until_unix = EXCLUDED.until_unix").
			Exec(ctx)
		return err
	})
}

func (m *Migrator) insertBatches(total int, stats *TableStats, insert func(lo, hi int) error) error {
	for lo := 0; lo < total; lo += m.batchSize {
		hi := min(lo+m.batchSize, total)
		if err := insert(lo, hi); err != nil {
			return fmt.Errorf("batch insert into %s failed: %w", stats.Table, err)
		}
		stats.Imported += hi - lo
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// periodKey normalizes a legacy DATE value to the bucket key layout.
func periodKey(s string) (string, bool) {
	t := parseTimestamp(s)
	if t.IsZero() {
		return "", false
	}
	return t.Format(ledger.KeyLayout), true
}

// LogStats prints a per-table summary of the last run.
func (m *Migrator) LogStats() {
	for _, t := range m.stats.Tables {
		slog.Info("Migration table summary",
			slog.String("type", "db"),
			slog.String("table", t.Table),
			slog.Int("read", t.Read),
			slog.Int("imported", t.Imported),
			slog.Int("skipped", t.Skipped),
		)
	}
	slog.Info("Migration completed",
		slog.String("type", "db"),
		slog.Int("imported", m.stats.Imported()),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)),
	)
}
