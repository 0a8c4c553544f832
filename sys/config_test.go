package sys

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"DISCORD_TOKEN", "GUILD_ID", "DATABASE_PATH", "DATABASE_URL", "STORE_DRIVER",
		"OWNER_IDS", "GAME_BOT_ID", "CARDS_PATH", "DROP_REMINDER_DELAY", "DROP_COMMAND_MENTION",
		"STALE_AFTER", "SESSION_TTL", "INVENTORY_WATCH_TTL", "ID_FETCH_EMOJI", "INVENTORY_EMOJI",
		"SILENT", "CONFIG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := buildConfig(source{})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, DefaultGameBotID, cfg.GameBotID)
	assert.Equal(t, DefaultDropCommandMention, cfg.DropCommandMention)
	assert.Equal(t, time.Hour, cfg.DropReminderDelay)
	assert.Equal(t, time.Minute, cfg.StaleAfter)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.InventoryWatchTTL)
	assert.Equal(t, "🆔", cfg.IDFetchEmoji)
	assert.Equal(t, "✏️", cfg.InventoryEmoji)
	assert.NotEmpty(t, cfg.DatabasePath)
}

func TestBuildConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("OWNER_IDS", "111111111111111111, 222222222222222222")
	t.Setenv("GAME_BOT_ID", "333333333333333333")
	t.Setenv("DROP_REMINDER_DELAY", "90m")
	t.Setenv("STORE_DRIVER", "Memory")

	cfg, err := buildConfig(source{})
	require.NoError(t, err)

	assert.Equal(t, []snowflake.ID{111111111111111111, 222222222222222222}, cfg.OwnerIDs)
	assert.Equal(t, snowflake.ID(333333333333333333), cfg.GameBotID)
	assert.Equal(t, 90*time.Minute, cfg.DropReminderDelay)
	assert.Equal(t, "memory", cfg.StoreDriver)
}

func TestConfigFileOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "luvibot.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
discord_token = "file-token"
owner_ids = ["111111111111111111"]
session_ttl = "20m"
silent = true
`), 0o644))

	file, err := readConfigFile(path)
	require.NoError(t, err)

	t.Setenv("SESSION_TTL", "30m")
	cfg, err := buildConfig(source{file: file})
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, []snowflake.ID{111111111111111111}, cfg.OwnerIDs)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL, "environment wins over the file")
	assert.True(t, cfg.Silent)
}

func TestBuildConfigRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")

	t.Setenv("OWNER_IDS", "not-a-number")
	_, err := buildConfig(source{})
	assert.Error(t, err)
	t.Setenv("OWNER_IDS", "")

	t.Setenv("GAME_BOT_ID", "nope")
	_, err = buildConfig(source{})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Token:             "token",
			StoreDriver:       "sqlite",
			DropReminderDelay: time.Hour,
			StaleAfter:        time.Minute,
			SessionTTL:        time.Minute,
			InventoryWatchTTL: time.Minute,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing token", func(c *Config) { c.Token = "" }, true},
		{"short guild id", func(c *Config) { c.GuildID = "123" }, true},
		{"good guild id", func(c *Config) { c.GuildID = "123456789012345678" }, false},
		{"postgres without url", func(c *Config) { c.StoreDriver = "postgres" }, true},
		{"postgres with url", func(c *Config) {
			c.StoreDriver = "postgres"
			c.DatabaseURL = "postgres://localhost/luvi"
		}, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, true},
		{"zero stale window", func(c *Config) { c.StaleAfter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDelay(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d, err := ParseDelay("1h", now)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = ParseDelay(" 45s ", now)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = ParseDelay("in 2 hours", now)
	require.NoError(t, err)
	assert.InDelta(t, float64(2*time.Hour), float64(d), float64(time.Minute))
}
