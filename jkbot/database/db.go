package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	"github.com/jkcommunity/jkbot/jkbot/config"
	"github.com/jkcommunity/jkbot/jkbot/database/models"
)

const (
	defaultRetryInterval = time.Second
	schemaVersion        = 1 // bump when schema/migrations change
)

type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `toml:"driver" env:"DRIVER"`
	Host     string `toml:"host" env:"HOST"`
	Port     int    `toml:"port" env:"PORT"`
	User     string `toml:"user" env:"USER"`
	Password string `toml:"password" env:"PASSWORD"`
	Database string `toml:"database" env:"NAME"`
	SSLMode  string `toml:"ssl_mode" env:"SSLMODE"`
	PoolSize int    `toml:"pool_size"`
	// DSN overrides the discrete postgres settings when set.
	DSN  string `toml:"dsn" env:"DSN"`
	Path string `toml:"path" env:"PATH"`
}

type DB struct {
	pool  *pgxpool.Pool // postgres only
	bunDB *bun.DB
}

// Open connects with the configured driver.
func Open(ctx context.Context, cfg DBConfig) (*DB, error) {
	if cfg.Driver == "sqlite" {
		return OpenSQLite(cfg.Path)
	}
	return New(ctx, cfg)
}

// New connects to PostgreSQL.
func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = buildConnString(cfg)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}

	addr := net.JoinHostPort(poolConfig.ConnConfig.Host, strconv.Itoa(int(poolConfig.ConnConfig.Port)))
	if err = waitForServer(addr); err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	bunDB.AddQueryHook(NewQueryLogger(config.SlowQueryThreshold))

	return &DB{pool: pool, bunDB: bunDB}, nil
}

// OpenSQLite opens (and creates) a SQLite database file.
func OpenSQLite(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection turns lock contention
	// into queueing on the pool.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	bunDB.AddQueryHook(NewQueryLogger(config.SlowQueryThreshold))
	return &DB{bunDB: bunDB}, nil
}

func waitForServer(addr string) error {
	var err error
	for i := 0; i < config.MaxRetries; i++ {
		var conn net.Conn
		conn, err = net.DialTimeout("tcp", addr, config.NetworkDialTimeout)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(defaultRetryInterval)
	}
	return fmt.Errorf("database server unreachable after %d attempts: %w", config.MaxRetries, err)
}

func buildConnString(cfg DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode,
	)
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) IsPostgres() bool {
	return db.bunDB.Dialect().Name() == dialect.PG
}

// Ping checks connectivity. On postgres the pgx pool is probed as well.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool != nil {
		if err := db.pool.Ping(ctx); err != nil {
			return err
		}
	}
	return db.bunDB.PingContext(ctx)
}

// PoolStats reports pgx pool usage; nil on SQLite.
func (db *DB) PoolStats() map[string]int32 {
	if db.pool == nil {
		return nil
	}
	stat := db.pool.Stat()
	return map[string]int32{
		"total":    stat.TotalConns(),
		"idle":     stat.IdleConns(),
		"acquired": stat.AcquiredConns(),
	}
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// ExecWithLog runs a raw statement. Logging happens in the query hook.
func (db *DB) ExecWithLog(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.bunDB.ExecContext(ctx, query, args...)
}

// appTables lists every table in creation order.
var appTables = []any{
	(*models.User)(nil),
	(*models.LedgerEntry)(nil),
	(*models.Mute)(nil),
	(*models.Boost)(nil),
	(*models.AchievementNotice)(nil),
	(*models.AchievementBroadcast)(nil),
	(*models.MonthlyWinner)(nil),
}

// InitializeSchema creates all required database tables and indexes
func (db *DB) InitializeSchema(ctx context.Context) error {
	if os.Getenv("DB_FAST_INIT") == "1" {
		if err := db.ensureAppMeta(ctx); err == nil {
			if v, _ := db.getAppMeta(ctx, "schema_version"); v == strconv.Itoa(schemaVersion) {
				slog.Info("Fast DB init: schema up-to-date, skipping initialization",
					slog.String("type", "db"),
					slog.Int("schema_version", schemaVersion),
				)
				return nil
			}
		}
	}

	for _, model := range appTables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_handle ON users(handle);",
		"CREATE INDEX IF NOT EXISTS idx_ledger_entries_board ON ledger_entries(bucket, bucket_key, points DESC);",
		"CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_bucket ON ledger_entries(user_id, bucket);",
		"CREATE INDEX IF NOT EXISTS idx_mutes_until ON mutes(until_unix);",
		"CREATE INDEX IF NOT EXISTS idx_boosts_epoch ON boosts(epoch);",
		"CREATE INDEX IF NOT EXISTS idx_achievement_notices_epoch ON achievement_notices(epoch);",
		"CREATE INDEX IF NOT EXISTS idx_achievement_broadcasts_epoch ON achievement_broadcasts(epoch);",
	}
	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.ensureAppMeta(ctx); err != nil {
		return fmt.Errorf("failed to create app_meta: %w", err)
	}
	if err := db.setAppMeta(ctx, "schema_version", strconv.Itoa(schemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	slog.Info("Database schema initialized",
		slog.String("type", "db"),
		slog.String("dialect", db.bunDB.Dialect().Name().String()),
		slog.Int("schema_version", schemaVersion),
	)
	return nil
}

// ResetAppTables empties every application table.
func (db *DB) ResetAppTables(ctx context.Context) error {
	return db.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := len(appTables) - 1; i >= 0; i-- {
			if _, err := tx.NewDelete().Model(appTables[i]).Where("1 = 1").Exec(ctx); err != nil {
				return fmt.Errorf("failed to reset tables: %w", err)
			}
		}
		slog.Warn("App tables reset", slog.String("type", "db"))
		return nil
	})
}

func (db *DB) ensureAppMeta(ctx context.Context) error {
	_, err := db.ExecWithLog(ctx, `CREATE TABLE IF NOT EXISTS app_meta (key TEXT PRIMARY KEY, value TEXT)`)
	return err
}

func (db *DB) getAppMeta(ctx context.Context, key string) (string, error) {
	var v string
	err := db.bunDB.QueryRowContext(ctx, `SELECT value FROM app_meta WHERE key = ?`, key).Scan(&v)
	return v, err
}

func (db *DB) setAppMeta(ctx context.Context, key, value string) error {
	_, err := db.ExecWithLog(ctx, `INSERT INTO app_meta(key, value) VALUES(?, ?)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}
