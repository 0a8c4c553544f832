// Package leaderboard ranks a guild's drop counters, renders the rank tables
// and drives the /rlb view state machine.
package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/singleflight"

	"github.com/leeineian/luvibot/store"
)

const (
	PageSize = 10
	// sharedReadTimeout bounds a coalesced read, which outlives any single
	// caller's context.
	sharedReadTimeout = 10 * time.Second
	// PublicPages caps how far non-owners can page (50 entries).
	PublicPages = 5
)

// Reader is the slice of the store the engine needs.
type Reader interface {
	TopDrops(ctx context.Context, guildID snowflake.ID, limit, offset int) ([]store.DropCount, error)
	TopRarity(ctx context.Context, guildID snowflake.ID, limit, offset int) ([]store.RarityCount, error)
	CountDropUsers(ctx context.Context, guildID snowflake.ID) (int, error)
	CountRarityUsers(ctx context.Context, guildID snowflake.ID) (int, error)
	ResetGuild(ctx context.Context, guildID snowflake.ID) error
}

// Page is one window of ranked rows. Rank of Rows[i] is Offset+i+1.
type Page[T any] struct {
	Rows       []T
	Page       int
	TotalPages int
	Offset     int
	Total      int
}

// Engine serves ranked reads. Identical concurrent reads for the same
// guild, view and page share one store round trip. A reset starts a new
// read generation for the guild, so no read begun before it is shared with
// callers that arrive after it.
type Engine struct {
	store Reader
	group singleflight.Group

	mu          sync.Mutex
	generations map[snowflake.ID]uint64
}

func NewEngine(r Reader) *Engine {
	return &Engine{store: r, generations: make(map[snowflake.ID]uint64)}
}

func (e *Engine) generation(guildID snowflake.ID) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generations[guildID]
}

func (e *Engine) key(kind string, guildID snowflake.ID, args ...int) string {
	return fmt.Sprintf("%s:%s:%d:%v", kind, guildID, e.generation(guildID), args)
}

// do runs fn once per key. fn gets a context detached from any one caller,
// and each caller stops waiting when its own ctx ends.
func (e *Engine) do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := e.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return fn(shared)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RankDrops returns the top limit rows by drop count. Ties keep storage
// insertion order, which is not a guarantee.
func (e *Engine) RankDrops(ctx context.Context, guildID snowflake.ID, limit int) ([]store.DropCount, error) {
	v, err := e.do(ctx, e.key("rank:drops", guildID, limit), func(ctx context.Context) (any, error) {
		return e.store.TopDrops(ctx, guildID, limit, 0)
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.DropCount), nil
}

// RankRarity orders by legendary then exotic count.
func (e *Engine) RankRarity(ctx context.Context, guildID snowflake.ID, limit int) ([]store.RarityCount, error) {
	v, err := e.do(ctx, e.key("rank:rarity", guildID, limit), func(ctx context.Context) (any, error) {
		return e.store.TopRarity(ctx, guildID, limit, 0)
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.RarityCount), nil
}

// pageBounds clamps page into the available range. maxPages <= 0 means no cap.
func pageBounds(total, page, maxPages int) (clamped, pages int) {
	pages = (total + PageSize - 1) / PageSize
	if pages < 1 {
		pages = 1
	}
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}
	clamped = max(0, min(page, pages-1))
	return clamped, pages
}

func (e *Engine) PageDrops(ctx context.Context, guildID snowflake.ID, page int, allPages bool) (Page[store.DropCount], error) {
	maxPages := PublicPages
	if allPages {
		maxPages = 0
	}
	v, err := e.do(ctx, e.key("page:drops", guildID, page, maxPages), func(ctx context.Context) (any, error) {
		total, err := e.store.CountDropUsers(ctx, guildID)
		if err != nil {
			return nil, err
		}
		p, pages := pageBounds(total, page, maxPages)
		rows, err := e.store.TopDrops(ctx, guildID, PageSize, p*PageSize)
		if err != nil {
			return nil, err
		}
		return Page[store.DropCount]{Rows: rows, Page: p, TotalPages: pages, Offset: p * PageSize, Total: total}, nil
	})
	if err != nil {
		return Page[store.DropCount]{}, fmt.Errorf("drops page %d for guild %s: %w", page, guildID, err)
	}
	return v.(Page[store.DropCount]), nil
}

func (e *Engine) PageRarity(ctx context.Context, guildID snowflake.ID, page int, allPages bool) (Page[store.RarityCount], error) {
	maxPages := PublicPages
	if allPages {
		maxPages = 0
	}
	v, err := e.do(ctx, e.key("page:rarity", guildID, page, maxPages), func(ctx context.Context) (any, error) {
		total, err := e.store.CountRarityUsers(ctx, guildID)
		if err != nil {
			return nil, err
		}
		p, pages := pageBounds(total, page, maxPages)
		rows, err := e.store.TopRarity(ctx, guildID, PageSize, p*PageSize)
		if err != nil {
			return nil, err
		}
		return Page[store.RarityCount]{Rows: rows, Page: p, TotalPages: pages, Offset: p * PageSize, Total: total}, nil
	})
	if err != nil {
		return Page[store.RarityCount]{}, fmt.Errorf("rarity page %d for guild %s: %w", page, guildID, err)
	}
	return v.(Page[store.RarityCount]), nil
}

// Reset clears the guild's counters. Callers check access first.
func (e *Engine) Reset(ctx context.Context, guildID snowflake.ID) error {
	defer func() {
		e.mu.Lock()
		e.generations[guildID]++
		e.mu.Unlock()
	}()
	if err := e.store.ResetGuild(ctx, guildID); err != nil {
		return fmt.Errorf("reset guild %s: %w", guildID, err)
	}
	return nil
}
