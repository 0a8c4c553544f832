// Package session tracks per-user paged result sets for interactive search.
package session

import (
	"errors"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

const PageSize = 10

var (
	ErrNoSession        = errors.New("no active session")
	ErrStaleSession     = errors.New("session was replaced by a newer search")
	ErrPageOutOfRange   = errors.New("no page in that direction")
	ErrInvalidSelection = errors.New("selection out of range")
)

type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	if d == Previous {
		return "prev"
	}
	return "next"
}

// ParseDirection accepts the strings produced by Direction.String.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "next":
		return Next, true
	case "prev":
		return Previous, true
	}
	return Next, false
}

// Session is one user's result set. It is replaced, never mutated in place.
type Session[T any] struct {
	Items []T
	Page  int
	Token string
}

// View is the slice of a session shown to the user.
type View[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	Offset     int
	Total      int
	Token      string
}

func totalPages(n int) int {
	if n <= PageSize {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

func (s *Session[T]) view() View[T] {
	offset := s.Page * PageSize
	end := min(offset+PageSize, len(s.Items))
	return View[T]{
		Items:      s.Items[offset:end],
		Page:       s.Page,
		TotalPages: totalPages(len(s.Items)),
		Offset:     offset,
		Total:      len(s.Items),
		Token:      s.Token,
	}
}

// Paginator drives sessions stored in an injected table keyed by user.
type Paginator[T any] struct {
	table *Table[snowflake.ID, *Session[T]]
}

// NewPaginator wraps table, creating one when table is nil.
func NewPaginator[T any](table *Table[snowflake.ID, *Session[T]]) *Paginator[T] {
	if table == nil {
		table = NewTable[snowflake.ID, *Session[T]]()
	}
	return &Paginator[T]{table: table}
}

// Table exposes the backing table so a sweeper can evict idle sessions.
func (p *Paginator[T]) Table() *Table[snowflake.ID, *Session[T]] {
	return p.table
}

// Start replaces any session userID had and returns its first page.
func (p *Paginator[T]) Start(userID snowflake.ID, items []T) View[T] {
	s := &Session[T]{Items: items, Token: uuid.NewString()}
	p.table.Put(userID, s)
	return s.view()
}

// Current returns the page the user is looking at.
func (p *Paginator[T]) Current(userID snowflake.ID) (View[T], error) {
	s, ok := p.table.Get(userID)
	if !ok {
		return View[T]{}, ErrNoSession
	}
	return s.view(), nil
}

// Advance moves one page. token must match the session the buttons were
// rendered for; an empty token skips the check.
func (p *Paginator[T]) Advance(userID snowflake.ID, dir Direction, token string) (View[T], error) {
	s, err := p.table.Update(userID, func(s *Session[T], ok bool) (*Session[T], bool, error) {
		if !ok {
			return nil, false, ErrNoSession
		}
		if token != "" && token != s.Token {
			return nil, false, ErrStaleSession
		}
		page := s.Page
		if dir == Previous {
			page--
		} else {
			page++
		}
		if page < 0 || page >= totalPages(len(s.Items)) {
			return nil, false, ErrPageOutOfRange
		}
		return &Session[T]{Items: s.Items, Page: page, Token: s.Token}, true, nil
	})
	if err != nil {
		return View[T]{}, err
	}
	return s.view(), nil
}

// Select picks the ordinal-th item (1-based over the whole result set) and
// ends the session. An out-of-range ordinal keeps the session for a retry.
func (p *Paginator[T]) Select(userID snowflake.ID, ordinal int) (T, error) {
	var picked T
	_, err := p.table.Update(userID, func(s *Session[T], ok bool) (*Session[T], bool, error) {
		if !ok {
			return nil, false, ErrNoSession
		}
		if ordinal < 1 || ordinal > len(s.Items) {
			return nil, false, ErrInvalidSelection
		}
		picked = s.Items[ordinal-1]
		return nil, false, nil
	})
	return picked, err
}

func (p *Paginator[T]) Discard(userID snowflake.ID) {
	p.table.Delete(userID)
}

func (p *Paginator[T]) Active(userID snowflake.ID) bool {
	_, ok := p.table.Get(userID)
	return ok
}
