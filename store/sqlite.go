package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mattn/go-sqlite3"

	"github.com/leeineian/luvibot/parser"
	"github.com/leeineian/luvibot/sys"
)

// SQLite is the default store, backed by a single database file in WAL mode.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if err := migrateUp("sqlite", sqliteMigrationURL(path)); err != nil {
		return nil, err
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sys.LogDatabase(sys.MsgDatabaseInitSuccess)
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// --- Counters ---

func (s *SQLite) IncrementDrop(ctx context.Context, userID, guildID snowflake.ID) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO drops (user_id, guild_id, drop_count, dropped_at) VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id, guild_id) DO UPDATE SET drop_count = drop_count + 1, dropped_at = excluded.dropped_at
		RETURNING drop_count
	`, userID.String(), guildID.String(), time.Now().UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment drop for user %s in guild %s: %w", userID, guildID, err)
	}
	return count, nil
}

func (s *SQLite) IncrementRarity(ctx context.Context, userID, guildID snowflake.ID, rarity parser.Rarity) (RarityCount, error) {
	col, err := rarityColumn(rarity)
	if err != nil {
		return RarityCount{}, err
	}
	var legendary, exotic int64
	if rarity == parser.Legendary {
		legendary = 1
	} else {
		exotic = 1
	}

	now := time.Now().UTC()
	rc := RarityCount{UserID: userID, GuildID: guildID, DroppedAt: now}
	query := fmt.Sprintf(`
		INSERT INTO rarity_drops (user_id, guild_id, legendary_count, exotic_count, dropped_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, guild_id) DO UPDATE SET %[1]s = %[1]s + 1, dropped_at = excluded.dropped_at
		RETURNING legendary_count, exotic_count
	`, col)
	err = s.db.QueryRowContext(ctx, query, userID.String(), guildID.String(), legendary, exotic, now).Scan(&rc.Legendary, &rc.Exotic)
	if err != nil {
		return RarityCount{}, fmt.Errorf("increment %s for user %s in guild %s: %w", rarity, userID, guildID, err)
	}
	return rc, nil
}

func (s *SQLite) ResetGuild(ctx context.Context, guildID snowflake.ID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"drops", "rarity_drops"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE guild_id = ?", guildID.String()); err != nil {
			return fmt.Errorf("reset %s for guild %s: %w", table, guildID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) TopDrops(ctx context.Context, guildID snowflake.ID, limit, offset int) ([]DropCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, drop_count, dropped_at FROM drops
		WHERE guild_id = ?
		ORDER BY drop_count DESC, rowid ASC
		LIMIT ? OFFSET ?
	`, guildID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DropCount
	for rows.Next() {
		d := DropCount{GuildID: guildID}
		var uid string
		if err := rows.Scan(&uid, &d.Count, flexTime{&d.DroppedAt}); err != nil {
			return nil, err
		}
		if d.UserID, err = snowflake.Parse(uid); err != nil {
			return nil, fmt.Errorf("failed to parse user ID '%s' in drops: %w", uid, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLite) TopRarity(ctx context.Context, guildID snowflake.ID, limit, offset int) ([]RarityCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, legendary_count, exotic_count, dropped_at FROM rarity_drops
		WHERE guild_id = ?
		ORDER BY legendary_count DESC, exotic_count DESC, rowid ASC
		LIMIT ? OFFSET ?
	`, guildID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RarityCount
	for rows.Next() {
		r := RarityCount{GuildID: guildID}
		var uid string
		if err := rows.Scan(&uid, &r.Legendary, &r.Exotic, flexTime{&r.DroppedAt}); err != nil {
			return nil, err
		}
		if r.UserID, err = snowflake.Parse(uid); err != nil {
			return nil, fmt.Errorf("failed to parse user ID '%s' in rarity_drops: %w", uid, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) CountDropUsers(ctx context.Context, guildID snowflake.ID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM drops WHERE guild_id = ?", guildID.String()).Scan(&n)
	return n, err
}

func (s *SQLite) CountRarityUsers(ctx context.Context, guildID snowflake.ID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rarity_drops WHERE guild_id = ?", guildID.String()).Scan(&n)
	return n, err
}

// --- Reminders ---

func (s *SQLite) ScheduleReminder(ctx context.Context, r *Reminder) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (user_id, channel_id, guild_id, kind, message, remind_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.UserID.String(), r.ChannelID.String(), idString(r.GuildID), r.Kind, r.Message, r.RemindAt.UTC(), r.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReminder
		}
		return fmt.Errorf("schedule %s reminder for user %s: %w", r.Kind, r.UserID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		r.ID = id
	}
	return nil
}

func (s *SQLite) ClaimDueReminders(ctx context.Context, now time.Time) ([]*Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM reminders
		WHERE remind_at <= ?
		RETURNING id, user_id, channel_id, guild_id, kind, message, remind_at, created_at
	`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (s *SQLite) PendingReminders(ctx context.Context, userID snowflake.ID) ([]*Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, channel_id, guild_id, kind, message, remind_at, created_at
		FROM reminders WHERE user_id = ? ORDER BY remind_at ASC
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanReminders(rows rowScanner) ([]*Reminder, error) {
	var reminders []*Reminder
	for rows.Next() {
		r := &Reminder{}
		var uid, cid, gid string
		if err := rows.Scan(&r.ID, &uid, &cid, &gid, &r.Kind, &r.Message, flexTime{&r.RemindAt}, flexTime{&r.CreatedAt}); err != nil {
			return nil, err
		}
		var err error
		if r.UserID, err = snowflake.Parse(uid); err != nil {
			return nil, fmt.Errorf("failed to parse user ID '%s' for reminder %d: %w", uid, r.ID, err)
		}
		if r.ChannelID, err = snowflake.Parse(cid); err != nil {
			return nil, fmt.Errorf("failed to parse channel ID '%s' for reminder %d: %w", cid, r.ID, err)
		}
		if r.GuildID, err = parseID(gid); err != nil {
			return nil, fmt.Errorf("failed to parse guild ID '%s' for reminder %d: %w", gid, r.ID, err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// flexTime accepts the time representations SQLite hands back, which depend
// on whether the driver knows the declared column type.
type flexTime struct{ t *time.Time }

func (f flexTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*f.t = time.Time{}
	case time.Time:
		*f.t = x
	case string:
		return f.parse(x)
	case []byte:
		return f.parse(string(x))
	default:
		return fmt.Errorf("unsupported time value %T", v)
	}
	return nil
}

func (f flexTime) parse(s string) error {
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*f.t = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// --- Guild settings ---

func (s *SQLite) GetGuildSettings(ctx context.Context, guildID snowflake.ID) (GuildSettings, error) {
	gs := GuildSettings{GuildID: guildID}
	var boss, t1, t2, t3 string
	err := s.db.QueryRowContext(ctx, `
		SELECT boss_role_id, multi_role_enabled, tier1_role_id, tier2_role_id, tier3_role_id
		FROM guild_settings WHERE guild_id = ?
	`, guildID.String()).Scan(&boss, &gs.MultiRoleEnabled, &t1, &t2, &t3)
	if errors.Is(err, sql.ErrNoRows) {
		return gs, nil
	}
	if err != nil {
		return gs, err
	}
	return gs, gs.setRoles(boss, t1, t2, t3)
}

func (s *SQLite) SaveGuildSettings(ctx context.Context, gs GuildSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, boss_role_id, multi_role_enabled, tier1_role_id, tier2_role_id, tier3_role_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			boss_role_id = excluded.boss_role_id,
			multi_role_enabled = excluded.multi_role_enabled,
			tier1_role_id = excluded.tier1_role_id,
			tier2_role_id = excluded.tier2_role_id,
			tier3_role_id = excluded.tier3_role_id,
			updated_at = CURRENT_TIMESTAMP
	`, gs.GuildID.String(), idString(gs.BossRoleID), gs.MultiRoleEnabled,
		idString(gs.TierRoleIDs[0]), idString(gs.TierRoleIDs[1]), idString(gs.TierRoleIDs[2]))
	return err
}

func (gs *GuildSettings) setRoles(boss, t1, t2, t3 string) error {
	var err error
	if gs.BossRoleID, err = parseID(boss); err != nil {
		return err
	}
	for i, v := range []string{t1, t2, t3} {
		if gs.TierRoleIDs[i], err = parseID(v); err != nil {
			return err
		}
	}
	return nil
}

// --- Bot config ---

func (s *SQLite) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM bot_config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *SQLite) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}
