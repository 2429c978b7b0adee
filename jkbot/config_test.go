package jkbot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Rewards.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
	assert.Equal(t, []int64{200, 500, 1000, 2000, 5000}, cfg.Rewards.PointThresholds)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
[bot]
chat_channel_id = 123456789

[db]
driver = "sqlite"
path = "chat.db"

[rewards]
points_per_message = 15
scoring_policy = "scored"

[schedule]
monthly_check_weekday = "Monday"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "chat.db", cfg.DB.Path)
	assert.EqualValues(t, 15, cfg.Rewards.PointsPerMessage)
	assert.Equal(t, "scored", cfg.Rewards.ScoringPolicy)
	assert.EqualValues(t, 123456789, cfg.Bot.ChatChannelID)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.Rewards.MinWordsForPoints)

	day, ok, err := cfg.Schedule.Weekday()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Monday, day)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Rewards, cfg.Rewards)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
[bot]
token = "from-file"

[db]
host = "db.internal"
`)
	t.Setenv("JKBOT_TOKEN", "from-env")
	t.Setenv("JKBOT_DB_HOST", "pg.example")
	t.Setenv("JKBOT_S3_BUCKET", "exports")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, "pg.example", cfg.DB.Host)
	assert.Equal(t, "exports", cfg.Archive.Bucket)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rewards.BaseProbability = 1.5
	cfg.Rewards.PointThresholds = []int64{500, 200}
	cfg.Rewards.ScoringPolicy = "lenient"
	cfg.Schedule.ResetHour = 24
	cfg.Schedule.MonthlyCheckWeekday = "someday"
	cfg.DB.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"base_probability",
		"ascending",
		"scoring_policy",
		"reset time",
		"monthly_check_weekday",
		"db.driver",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestArchiveRequiresBucket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Archive.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "archive.bucket")

	cfg.Archive.Bucket = "exports"
	assert.NoError(t, cfg.Validate())
}
