package sys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sho0pi/naturaltime"
)

// Defaults for the game bot this companion watches.
const (
	DefaultGameBotID          = snowflake.ID(1269481871021047891)
	DefaultDropCommandMention = "</drop:1472170029905874977>"
	DefaultConfigFile         = "luvibot.toml"
)

type Config struct {
	Token              string
	GuildID            string
	DatabasePath       string
	DatabaseURL        string
	StoreDriver        string
	OwnerIDs           []snowflake.ID
	GameBotID          snowflake.ID
	CardsPath          string
	DropReminderDelay  time.Duration
	DropCommandMention string
	StaleAfter         time.Duration
	SessionTTL         time.Duration
	InventoryWatchTTL  time.Duration
	IDFetchEmoji       string
	InventoryEmoji     string
	Silent             bool
}

// source resolves a key from the environment first, then from the optional
// TOML file (keys matched case-insensitively).
type source struct {
	file map[string]any
}

func (s source) get(key string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	v, ok := s.file[strings.ToLower(key)]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

func (s source) getOr(key, def string) string {
	if v := s.get(key); v != "" {
		return v
	}
	return def
}

func readConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[strings.ToLower(k)] = v
	}
	return out, nil
}

// LoadConfig initializes the configuration from .env, the optional TOML file
// and environment variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	src := source{}
	path := os.Getenv("CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if file, err := readConfigFile(path); err == nil {
		src.file = file
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(MsgConfigFileFailed, path, err)
	}

	cfg, err := buildConfig(src)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	return cfg, nil
}

func buildConfig(src source) (*Config, error) {
	cfg := &Config{
		Token:              src.get("DISCORD_TOKEN"),
		GuildID:            src.get("GUILD_ID"),
		DatabasePath:       src.get("DATABASE_PATH"),
		DatabaseURL:        src.get("DATABASE_URL"),
		StoreDriver:        strings.ToLower(src.getOr("STORE_DRIVER", "sqlite")),
		GameBotID:          DefaultGameBotID,
		CardsPath:          src.getOr("CARDS_PATH", filepath.Join("data", "cards.json")),
		DropCommandMention: src.getOr("DROP_COMMAND_MENTION", DefaultDropCommandMention),
		IDFetchEmoji:       src.getOr("ID_FETCH_EMOJI", "🆔"),
		InventoryEmoji:     src.getOr("INVENTORY_EMOJI", "✏️"),
	}

	if cfg.DatabasePath == "" {
		folder := "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			folder = "data"
		}
		cfg.DatabasePath = filepath.Join(folder, GetProjectName()+".db")
	}

	cfg.Silent, _ = strconv.ParseBool(src.get("SILENT"))

	for _, raw := range strings.Split(src.get("OWNER_IDS"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := snowflake.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid OWNER_IDS entry %q: %w", raw, err)
		}
		cfg.OwnerIDs = append(cfg.OwnerIDs, id)
	}

	if raw := src.get("GAME_BOT_ID"); raw != "" {
		id, err := snowflake.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid GAME_BOT_ID: %w", err)
		}
		cfg.GameBotID = id
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"DROP_REMINDER_DELAY", time.Hour, &cfg.DropReminderDelay},
		{"STALE_AFTER", time.Minute, &cfg.StaleAfter},
		{"SESSION_TTL", 10 * time.Minute, &cfg.SessionTTL},
		{"INVENTORY_WATCH_TTL", 5 * time.Minute, &cfg.InventoryWatchTTL},
	}
	for _, d := range durations {
		*d.dst = d.def
		raw := src.get(d.key)
		if raw == "" {
			continue
		}
		v, err := ParseDelay(raw, time.Now())
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return fmt.Errorf("invalid GUILD_ID: must be a valid Snowflake")
	}
	switch c.StoreDriver {
	case "sqlite", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	for name, d := range map[string]time.Duration{
		"DROP_REMINDER_DELAY": c.DropReminderDelay,
		"STALE_AFTER":         c.StaleAfter,
		"SESSION_TTL":         c.SessionTTL,
		"INVENTORY_WATCH_TTL": c.InventoryWatchTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

var delayParser = sync.OnceValues(naturaltime.New)

// ParseDelay turns "1h", "90m" or "in 2 hours" into a duration relative to
// now.
func ParseDelay(input string, now time.Time) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if d, err := time.ParseDuration(input); err == nil {
		return d, nil
	}

	p, err := delayParser()
	if err != nil {
		return 0, err
	}
	result, err := p.ParseDate(input, now)
	if err == nil && result != nil {
		return result.Sub(now), nil
	}
	return 0, fmt.Errorf("could not parse duration: %s", input)
}
