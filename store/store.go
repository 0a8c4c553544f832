package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/parser"
)

var (
	// ErrDuplicateReminder means the user already has a pending reminder of
	// the same kind. Callers treat it as "already scheduled".
	ErrDuplicateReminder = errors.New("reminder already scheduled")
	// ErrUntrackedRarity is returned by IncrementRarity for rarities that
	// have no counter column.
	ErrUntrackedRarity = errors.New("rarity is not tracked")
)

// ReminderKindDrop is the reminder sent when the drop cooldown expires.
const ReminderKindDrop = "drop"

// DropCount is the per user, per guild drop counter.
type DropCount struct {
	UserID    snowflake.ID
	GuildID   snowflake.ID
	Count     int64
	DroppedAt time.Time
}

// RarityCount tracks the Legendary and Exotic drops of one user in one guild.
type RarityCount struct {
	UserID    snowflake.ID
	GuildID   snowflake.ID
	Legendary int64
	Exotic    int64
	DroppedAt time.Time
}

// Total is Legendary plus Exotic.
func (r RarityCount) Total() int64 {
	return r.Legendary + r.Exotic
}

type Reminder struct {
	ID        int64
	UserID    snowflake.ID
	ChannelID snowflake.ID
	GuildID   snowflake.ID
	Kind      string
	Message   string
	RemindAt  time.Time
	CreatedAt time.Time
}

// GuildSettings holds the boss ping roles of a guild.
type GuildSettings struct {
	GuildID          snowflake.ID
	BossRoleID       snowflake.ID
	MultiRoleEnabled bool
	TierRoleIDs      [3]snowflake.ID
}

// Store owns every persistent record of the bot. Increments are atomic at
// the storage layer, so concurrent callers never lose updates.
type Store interface {
	IncrementDrop(ctx context.Context, userID, guildID snowflake.ID) (int64, error)
	IncrementRarity(ctx context.Context, userID, guildID snowflake.ID, rarity parser.Rarity) (RarityCount, error)
	ResetGuild(ctx context.Context, guildID snowflake.ID) error

	// Ranked reads. Ties come back in insertion order, which is not a
	// stable contract.
	TopDrops(ctx context.Context, guildID snowflake.ID, limit, offset int) ([]DropCount, error)
	TopRarity(ctx context.Context, guildID snowflake.ID, limit, offset int) ([]RarityCount, error)
	CountDropUsers(ctx context.Context, guildID snowflake.ID) (int, error)
	CountRarityUsers(ctx context.Context, guildID snowflake.ID) (int, error)

	ScheduleReminder(ctx context.Context, r *Reminder) error
	ClaimDueReminders(ctx context.Context, now time.Time) ([]*Reminder, error)
	PendingReminders(ctx context.Context, userID snowflake.ID) ([]*Reminder, error)

	GetGuildSettings(ctx context.Context, guildID snowflake.ID) (GuildSettings, error)
	SaveGuildSettings(ctx context.Context, s GuildSettings) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Driver string
	// Path of the SQLite database file.
	Path string
	// URL is the Postgres connection string.
	URL string
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.URL)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewDropReminder builds the cooldown reminder for a drop made at now.
func NewDropReminder(userID, channelID, guildID snowflake.ID, now time.Time, delay time.Duration, message string) *Reminder {
	return &Reminder{
		UserID:    userID,
		ChannelID: channelID,
		GuildID:   guildID,
		Kind:      ReminderKindDrop,
		Message:   message,
		RemindAt:  now.Add(delay).UTC(),
		CreatedAt: now.UTC(),
	}
}

func rarityColumn(r parser.Rarity) (string, error) {
	switch r {
	case parser.Legendary:
		return "legendary_count", nil
	case parser.Exotic:
		return "exotic_count", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUntrackedRarity, r)
	}
}

func parseID(s string) (snowflake.ID, error) {
	if s == "" {
		return 0, nil
	}
	return snowflake.Parse(s)
}

func idString(id snowflake.ID) string {
	if id == 0 {
		return ""
	}
	return id.String()
}
