package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/parser"
)

type counterKey struct {
	user  snowflake.ID
	guild snowflake.ID
}

type reminderKey struct {
	user snowflake.ID
	kind string
}

// Memory keeps everything in process. Rows are kept in insertion order so
// ranking ties behave like the SQL backends.
type Memory struct {
	mu        sync.Mutex
	drops     []*DropCount
	dropIdx   map[counterKey]*DropCount
	rarity    []*RarityCount
	rarityIdx map[counterKey]*RarityCount
	reminders map[reminderKey]*Reminder
	nextID    int64
	guilds    map[snowflake.ID]GuildSettings
	settings  map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		dropIdx:   make(map[counterKey]*DropCount),
		rarityIdx: make(map[counterKey]*RarityCount),
		reminders: make(map[reminderKey]*Reminder),
		guilds:    make(map[snowflake.ID]GuildSettings),
		settings:  make(map[string]string),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) IncrementDrop(_ context.Context, userID, guildID snowflake.ID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := counterKey{userID, guildID}
	d, ok := m.dropIdx[k]
	if !ok {
		d = &DropCount{UserID: userID, GuildID: guildID}
		m.dropIdx[k] = d
		m.drops = append(m.drops, d)
	}
	d.Count++
	d.DroppedAt = time.Now().UTC()
	return d.Count, nil
}

func (m *Memory) IncrementRarity(_ context.Context, userID, guildID snowflake.ID, rarity parser.Rarity) (RarityCount, error) {
	if _, err := rarityColumn(rarity); err != nil {
		return RarityCount{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := counterKey{userID, guildID}
	r, ok := m.rarityIdx[k]
	if !ok {
		r = &RarityCount{UserID: userID, GuildID: guildID}
		m.rarityIdx[k] = r
		m.rarity = append(m.rarity, r)
	}
	if rarity == parser.Legendary {
		r.Legendary++
	} else {
		r.Exotic++
	}
	r.DroppedAt = time.Now().UTC()
	return *r, nil
}

func (m *Memory) ResetGuild(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	drops := m.drops[:0]
	for _, d := range m.drops {
		if d.GuildID == guildID {
			delete(m.dropIdx, counterKey{d.UserID, d.GuildID})
			continue
		}
		drops = append(drops, d)
	}
	m.drops = drops

	rarity := m.rarity[:0]
	for _, r := range m.rarity {
		if r.GuildID == guildID {
			delete(m.rarityIdx, counterKey{r.UserID, r.GuildID})
			continue
		}
		rarity = append(rarity, r)
	}
	m.rarity = rarity
	return nil
}

func (m *Memory) TopDrops(_ context.Context, guildID snowflake.ID, limit, offset int) ([]DropCount, error) {
	m.mu.Lock()
	var rows []DropCount
	for _, d := range m.drops {
		if d.GuildID == guildID {
			rows = append(rows, *d)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return window(rows, limit, offset), nil
}

func (m *Memory) TopRarity(_ context.Context, guildID snowflake.ID, limit, offset int) ([]RarityCount, error) {
	m.mu.Lock()
	var rows []RarityCount
	for _, r := range m.rarity {
		if r.GuildID == guildID {
			rows = append(rows, *r)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Legendary != rows[j].Legendary {
			return rows[i].Legendary > rows[j].Legendary
		}
		return rows[i].Exotic > rows[j].Exotic
	})
	return window(rows, limit, offset), nil
}

func window[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func (m *Memory) CountDropUsers(_ context.Context, guildID snowflake.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.drops {
		if d.GuildID == guildID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountRarityUsers(_ context.Context, guildID snowflake.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rarity {
		if r.GuildID == guildID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ScheduleReminder(_ context.Context, r *Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := reminderKey{r.UserID, r.Kind}
	if _, ok := m.reminders[k]; ok {
		return ErrDuplicateReminder
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.reminders[k] = &cp
	return nil
}

func (m *Memory) ClaimDueReminders(_ context.Context, now time.Time) ([]*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*Reminder
	for k, r := range m.reminders {
		if !r.RemindAt.After(now) {
			due = append(due, r)
			delete(m.reminders, k)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (m *Memory) PendingReminders(_ context.Context, userID snowflake.ID) ([]*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Reminder
	for _, r := range m.reminders {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemindAt.Before(out[j].RemindAt) })
	return out, nil
}

func (m *Memory) GetGuildSettings(_ context.Context, guildID snowflake.ID) (GuildSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gs, ok := m.guilds[guildID]; ok {
		return gs, nil
	}
	return GuildSettings{GuildID: guildID}, nil
}

func (m *Memory) SaveGuildSettings(_ context.Context, gs GuildSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guilds[gs.GuildID] = gs
	return nil
}

func (m *Memory) GetSetting(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[key], nil
}

func (m *Memory) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}
