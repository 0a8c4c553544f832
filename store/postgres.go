package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leeineian/luvibot/parser"
	"github.com/leeineian/luvibot/sys"
)

const pgUniqueViolation = "23505"

// Postgres stores everything in a shared database for multi-instance setups.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres migrates the database at dsn and connects a pool to it.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres store needs DATABASE_URL")
	}
	if err := migrateUp("postgres", postgresMigrationURL(dsn)); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sys.LogDatabase(sys.MsgDatabaseInitSuccess)
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) IncrementDrop(ctx context.Context, userID, guildID snowflake.ID) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO drops (user_id, guild_id, drop_count, dropped_at) VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id, guild_id) DO UPDATE SET drop_count = drops.drop_count + 1, dropped_at = EXCLUDED.dropped_at
		RETURNING drop_count
	`, userID.String(), guildID.String(), time.Now().UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment drop for user %s in guild %s: %w", userID, guildID, err)
	}
	return count, nil
}

func (p *Postgres) IncrementRarity(ctx context.Context, userID, guildID snowflake.ID, rarity parser.Rarity) (RarityCount, error) {
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
		INSERT INTO rarity_drops (user_id, guild_id, legendary_count, exotic_count, dropped_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, guild_id) DO UPDATE SET %[1]s = rarity_drops.%[1]s + 1, dropped_at = EXCLUDED.dropped_at
		RETURNING legendary_count, exotic_count
	`, col)
	err = p.pool.QueryRow(ctx, query, userID.String(), guildID.String(), legendary, exotic, now).Scan(&rc.Legendary, &rc.Exotic)
	if err != nil {
		return RarityCount{}, fmt.Errorf("increment %s for user %s in guild %s: %w", rarity, userID, guildID, err)
	}
	return rc, nil
}

func (p *Postgres) ResetGuild(ctx context.Context, guildID snowflake.ID) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, table := range []string{"drops", "rarity_drops"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE guild_id = $1", guildID.String()); err != nil {
				return fmt.Errorf("reset %s for guild %s: %w", table, guildID, err)
			}
		}
		return nil
	})
}

func (p *Postgres) TopDrops(ctx context.Context, guildID snowflake.ID, limit, offset int) ([]DropCount, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT user_id, drop_count, dropped_at FROM drops
		WHERE guild_id = $1
		ORDER BY drop_count DESC, id ASC
		LIMIT $2 OFFSET $3
	`, guildID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DropCount
	for rows.Next() {
		d := DropCount{GuildID: guildID}
		var uid string
		if err := rows.Scan(&uid, &d.Count, &d.DroppedAt); err != nil {
			return nil, err
		}
		if d.UserID, err = snowflake.Parse(uid); err != nil {
			return nil, fmt.Errorf("failed to parse user ID '%s' in drops: %w", uid, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) TopRarity(ctx context.Context, guildID snowflake.ID, limit, offset int) ([]RarityCount, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT user_id, legendary_count, exotic_count, dropped_at FROM rarity_drops
		WHERE guild_id = $1
		ORDER BY legendary_count DESC, exotic_count DESC, id ASC
		LIMIT $2 OFFSET $3
	`, guildID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RarityCount
	for rows.Next() {
		r := RarityCount{GuildID: guildID}
		var uid string
		if err := rows.Scan(&uid, &r.Legendary, &r.Exotic, &r.DroppedAt); err != nil {
			return nil, err
		}
		if r.UserID, err = snowflake.Parse(uid); err != nil {
			return nil, fmt.Errorf("failed to parse user ID '%s' in rarity_drops: %w", uid, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) CountDropUsers(ctx context.Context, guildID snowflake.ID) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM drops WHERE guild_id = $1", guildID.String()).Scan(&n)
	return n, err
}

func (p *Postgres) CountRarityUsers(ctx context.Context, guildID snowflake.ID) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rarity_drops WHERE guild_id = $1", guildID.String()).Scan(&n)
	return n, err
}

func (p *Postgres) ScheduleReminder(ctx context.Context, r *Reminder) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO reminders (user_id, channel_id, guild_id, kind, message, remind_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, r.UserID.String(), r.ChannelID.String(), idString(r.GuildID), r.Kind, r.Message, r.RemindAt.UTC(), r.CreatedAt.UTC()).Scan(&r.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateReminder
		}
		return fmt.Errorf("schedule %s reminder for user %s: %w", r.Kind, r.UserID, err)
	}
	return nil
}

func (p *Postgres) ClaimDueReminders(ctx context.Context, now time.Time) ([]*Reminder, error) {
	rows, err := p.pool.Query(ctx, `
		DELETE FROM reminders
		WHERE remind_at <= $1
		RETURNING id, user_id, channel_id, guild_id, kind, message, remind_at, created_at
	`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (p *Postgres) PendingReminders(ctx context.Context, userID snowflake.ID) ([]*Reminder, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, user_id, channel_id, guild_id, kind, message, remind_at, created_at
		FROM reminders WHERE user_id = $1 ORDER BY remind_at ASC
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (p *Postgres) GetGuildSettings(ctx context.Context, guildID snowflake.ID) (GuildSettings, error) {
	gs := GuildSettings{GuildID: guildID}
	var boss, t1, t2, t3 string
	err := p.pool.QueryRow(ctx, `
		SELECT boss_role_id, multi_role_enabled, tier1_role_id, tier2_role_id, tier3_role_id
		FROM guild_settings WHERE guild_id = $1
	`, guildID.String()).Scan(&boss, &gs.MultiRoleEnabled, &t1, &t2, &t3)
	if errors.Is(err, pgx.ErrNoRows) {
		return gs, nil
	}
	if err != nil {
		return gs, err
	}
	return gs, gs.setRoles(boss, t1, t2, t3)
}

func (p *Postgres) SaveGuildSettings(ctx context.Context, gs GuildSettings) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, boss_role_id, multi_role_enabled, tier1_role_id, tier2_role_id, tier3_role_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (guild_id) DO UPDATE SET
			boss_role_id = EXCLUDED.boss_role_id,
			multi_role_enabled = EXCLUDED.multi_role_enabled,
			tier1_role_id = EXCLUDED.tier1_role_id,
			tier2_role_id = EXCLUDED.tier2_role_id,
			tier3_role_id = EXCLUDED.tier3_role_id,
			updated_at = now()
	`, gs.GuildID.String(), idString(gs.BossRoleID), gs.MultiRoleEnabled,
		idString(gs.TierRoleIDs[0]), idString(gs.TierRoleIDs[1]), idString(gs.TierRoleIDs[2]))
	return err
}

func (p *Postgres) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := p.pool.QueryRow(ctx, "SELECT value FROM bot_config WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (p *Postgres) SetSetting(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO bot_config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return err
}
