package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Card is one entry of the static card list.
type Card struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Series   string `json:"series"`
	Element  string `json:"element"`
	Role     string `json:"role"`
	ImageURL string `json:"image_url"`
	Iconic   bool   `json:"is_iconic"`

	haystack string
}

// DisplayName prefixes iconic cards with a sparkle.
func (c Card) DisplayName() string {
	if c.Iconic {
		return "✨ " + c.Name
	}
	return c.Name
}

// Summary renders "series | element role".
func (c Card) Summary() string {
	return strings.TrimSpace(fmt.Sprintf("%s | %s %s", c.Series, c.Element, c.Role))
}

// Catalog is read-only after Load and safe for concurrent use.
type Catalog struct {
	cards []Card
	byID  map[int]int
}

// Load builds a catalog. Records with an empty name are dropped. Ids are
// unique: records without an id, and repeats of an id already taken by an
// earlier record, get the lowest positive id no record claims explicitly.
func Load(records []Card) *Catalog {
	explicit := make(map[int]bool, len(records))
	for _, r := range records {
		if r.ID > 0 && strings.TrimSpace(r.Name) != "" {
			explicit[r.ID] = true
		}
	}

	c := &Catalog{
		cards: make([]Card, 0, len(records)),
		byID:  make(map[int]int, len(records)),
	}
	used := func(id int) bool {
		_, ok := c.byID[id]
		return ok || explicit[id]
	}
	next := 1
	for _, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		if _, taken := c.byID[r.ID]; r.ID <= 0 || taken {
			for used(next) {
				next++
			}
			r.ID = next
		}
		r.haystack = strings.ToLower(strings.Join([]string{r.Name, r.Series, r.Element, r.Role}, " "))
		c.byID[r.ID] = len(c.cards)
		c.cards = append(c.cards, r)
	}
	return c
}

// LoadFile reads a JSON array of cards.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card catalog: %w", err)
	}
	var records []Card
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode card catalog %s: %w", path, err)
	}
	return Load(records), nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.cards)
}

// Get looks a card up by id.
func (c *Catalog) Get(id int) (Card, bool) {
	if c == nil {
		return Card{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Card{}, false
	}
	return c.cards[i], true
}

// Search returns every card whose name, series, element and role together
// contain all whitespace separated terms of query, ignoring case. Catalog
// order is kept.
func (c *Catalog) Search(query string) []Card {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 || c.Len() == 0 {
		return nil
	}
	var out []Card
	for _, card := range c.cards {
		if matchesAll(card.haystack, terms) {
			out = append(out, card)
		}
	}
	return out
}

func matchesAll(haystack string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

// MultiResult is the outcome of one part of a comma separated query.
type MultiResult struct {
	Query string
	Card  Card
	Found bool
}

// IsMultiQuery reports whether query should go through SearchMany.
func IsMultiQuery(query string) bool {
	return strings.Contains(query, ",")
}

// SearchMany splits query on commas and resolves each part to its first
// match.
func (c *Catalog) SearchMany(query string) []MultiResult {
	var out []MultiResult
	for _, part := range strings.Split(query, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		res := MultiResult{Query: part}
		if hits := c.Search(part); len(hits) > 0 {
			res.Card, res.Found = hits[0], true
		}
		out = append(out, res)
	}
	return out
}
