package parser

import (
	"maps"
	"slices"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// DropEvent is a card drop announced by the game bot.
type DropEvent struct {
	Rarity   Rarity
	CardName string
	Grade    Grade
	ActorID  snowflake.ID
}

// InventoryCard is one entry of an inventory page.
type InventoryCard struct {
	Name  string
	Grade Grade
}

// Inventory groups the cards of one or more inventory pages by rarity,
// keeping the order the game bot listed them in.
type Inventory map[Rarity][]InventoryCard

// Len counts cards across all rarities.
func (inv Inventory) Len() int {
	n := 0
	for _, cards := range inv {
		n += len(cards)
	}
	return n
}

// Append adds every card of other after the ones inv already holds. Copies
// of the same card are kept.
func (inv Inventory) Append(other Inventory) {
	for r, cards := range other {
		inv[r] = append(inv[r], cards...)
	}
}

// PageKey identifies one inventory page by its footer and field contents, so
// showing the same page again can be told apart from a new page.
func PageKey(embed discord.Embed) string {
	var b strings.Builder
	if embed.Footer != nil {
		b.WriteString(embed.Footer.Text)
	}
	for _, f := range embed.Fields {
		b.WriteByte(0)
		b.WriteString(f.Name)
		b.WriteByte(0x1f)
		b.WriteString(f.Value)
	}
	return b.String()
}

// InventoryPages holds each distinct page of one inventory listing in the
// order the pages were first shown. The zero value is empty and a value is
// never mutated once built.
type InventoryPages struct {
	keys  []string
	pages map[string]Inventory
}

// With returns p plus page under key. ok is false, and p is returned as is,
// when key was seen before or page holds no cards.
func (p InventoryPages) With(key string, page Inventory) (InventoryPages, bool) {
	if page.Len() == 0 {
		return p, false
	}
	if _, seen := p.pages[key]; seen {
		return p, false
	}
	next := InventoryPages{
		keys:  append(slices.Clip(p.keys), key),
		pages: make(map[string]Inventory, len(p.pages)+1),
	}
	maps.Copy(next.pages, p.pages)
	next.pages[key] = page
	return next, true
}

// Len counts pages.
func (p InventoryPages) Len() int {
	return len(p.keys)
}

// Inventory concatenates the pages in first-shown order.
func (p InventoryPages) Inventory() Inventory {
	inv := Inventory{}
	for _, k := range p.keys {
		inv.Append(p.pages[k])
	}
	return inv
}

// IsDropAnnouncement reports whether the title marks the embed as a drop.
func IsDropAnnouncement(embed discord.Embed) bool {
	return strings.Contains(strings.ToLower(embed.Title), "dropped")
}

// ExtractActorID reads the dropping user from the footer avatar URL. This is
// the only place that knows about the avatars/<id>/ convention.
func ExtractActorID(embed discord.Embed) (snowflake.ID, bool) {
	if embed.Footer == nil {
		return 0, false
	}
	for _, u := range []string{embed.Footer.IconURL, embed.Footer.ProxyIconURL} {
		m := avatarRe.FindStringSubmatch(u)
		if m == nil {
			continue
		}
		id, err := snowflake.Parse(m[1])
		if err != nil || id == 0 {
			continue
		}
		return id, true
	}
	return 0, false
}

// ParseDropEvent returns the drop described by embed. The second result is
// false when the embed is not a drop, has no rarity glyph, or has no actor.
func ParseDropEvent(embed discord.Embed) (DropEvent, bool) {
	if !IsDropAnnouncement(embed) {
		return DropEvent{}, false
	}
	actor, ok := ExtractActorID(embed)
	if !ok {
		return DropEvent{}, false
	}

	texts := make([]string, 0, 1+2*len(embed.Fields))
	texts = append(texts, embed.Description)
	for _, f := range embed.Fields {
		texts = append(texts, f.Name)
	}
	for _, f := range embed.Fields {
		texts = append(texts, f.Value)
	}

	ev := DropEvent{ActorID: actor}
	found := false
	for _, t := range texts {
		if r, rest, ok := firstRarity(t); ok {
			ev.Rarity = r
			ev.CardName = cleanCardName(rest)
			found = true
			break
		}
	}
	if !found {
		return DropEvent{}, false
	}
	for _, t := range texts {
		if g, ok := firstGrade(t); ok {
			ev.Grade = g
			break
		}
	}
	return ev, true
}

// ParseInventory reads one inventory page. Fields without a known rarity
// glyph or with an empty card name are skipped.
func ParseInventory(embed discord.Embed) Inventory {
	inv := Inventory{}
	for _, f := range embed.Fields {
		r, rest, ok := firstRarity(f.Name)
		if !ok {
			continue
		}
		name := cleanCardName(rest)
		if name == "" {
			continue
		}
		grade, _ := firstGrade(f.Value)
		inv[r] = append(inv[r], InventoryCard{Name: name, Grade: grade})
	}
	return inv
}

// InventoryOwner returns the display name in an "<:LU_Inventory:id> NAME's
// Inventory" title.
func InventoryOwner(embed discord.Embed) (string, bool) {
	title := embed.Title
	for _, g := range glyphs(title) {
		if g.code != inventoryGlyph {
			continue
		}
		name, _, ok := strings.Cut(title[g.end:], "'s Inventory")
		if !ok {
			return "", false
		}
		name = strings.TrimSpace(name)
		return name, name != ""
	}
	return "", false
}

// ExtractReferencedIDs collects ID:`123` markers from field values and then
// the description, without duplicates.
func ExtractReferencedIDs(embed discord.Embed) []string {
	var ids []string
	seen := map[string]struct{}{}
	add := func(text string) {
		for _, m := range idMarkerRe.FindAllStringSubmatch(text, -1) {
			if _, ok := seen[m[1]]; ok {
				continue
			}
			seen[m[1]] = struct{}{}
			ids = append(ids, m[1])
		}
	}
	for _, f := range embed.Fields {
		add(f.Value)
	}
	add(embed.Description)
	return ids
}

// RarityMessage renders inv as rarity headings followed by comma separated
// cards, e.g. "**Legendary**\nAlice[S+], Bob".
func RarityMessage(inv Inventory) string {
	var blocks []string
	for _, r := range RarityOrder {
		cards := inv[r]
		if len(cards) == 0 {
			continue
		}
		names := make([]string, len(cards))
		for i, c := range cards {
			if c.Grade != "" {
				names[i] = c.Name + "[" + string(c.Grade) + "]"
			} else {
				names[i] = c.Name
			}
		}
		blocks = append(blocks, "**"+string(r)+"**\n"+strings.Join(names, ", "))
	}
	if len(blocks) == 0 {
		return "No cards found."
	}
	return strings.Join(blocks, "\n")
}
