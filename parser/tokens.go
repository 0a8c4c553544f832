package parser

import (
	"regexp"
	"strings"
)

// Rarity is the card quality classification printed by the game bot.
type Rarity string

const (
	Mythical  Rarity = "Mythical"
	Legendary Rarity = "Legendary"
	Exotic    Rarity = "Exotic"
	Rare      Rarity = "Rare"
	Uncommon  Rarity = "Uncommon"
	Common    Rarity = "Common"
)

// RarityOrder is the display order, best first.
var RarityOrder = []Rarity{Mythical, Legendary, Exotic, Rare, Uncommon, Common}

// Grade is the secondary tier of a card copy. The zero value means ungraded.
type Grade string

const (
	GradeSPlus Grade = "S+"
	GradeS     Grade = "S"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

// Token table. Every glyph the game bot uses is a custom emoji named LU_<code>.
const glyphPrefix = "LU_"

var rarityCodes = map[string]Rarity{
	"M":  Mythical,
	"L":  Legendary,
	"E":  Exotic,
	"R":  Rare,
	"UC": Uncommon,
	"C":  Common,
}

var gradeCodes = map[string]Grade{
	"SPlusTier": GradeSPlus,
	"STier":     GradeS,
	"ATier":     GradeA,
	"BTier":     GradeB,
	"CTier":     GradeC,
	"DTier":     GradeD,
}

const inventoryGlyph = "Inventory"

var (
	// <:name:id> or <a:name:id>
	glyphRe = regexp.MustCompile(`<a?:([A-Za-z0-9_]+):(\d+)>`)
	// :name: also matches the inner part of a full glyph
	shortcodeRe = regexp.MustCompile(`:(` + glyphPrefix + `[A-Za-z0-9]+):`)
	avatarRe    = regexp.MustCompile(`avatars/(\d+)/`)
	idMarkerRe  = regexp.MustCompile("ID:\\s*`(\\d+)`")
)

// RarityFromCode resolves a glyph code such as "UC".
func RarityFromCode(code string) (Rarity, bool) {
	r, ok := rarityCodes[code]
	return r, ok
}

// GradeFromCode resolves a glyph code such as "SPlusTier".
func GradeFromCode(code string) (Grade, bool) {
	g, ok := gradeCodes[code]
	return g, ok
}

// Code returns the glyph code for r, or "" for an unknown rarity.
func (r Rarity) Code() string {
	for code, v := range rarityCodes {
		if v == r {
			return code
		}
	}
	return ""
}

type glyph struct {
	code  string
	start int
	end   int
}

// glyphs returns every LU_ custom emoji in s, in order of appearance.
func glyphs(s string) []glyph {
	var out []glyph
	for _, m := range glyphRe.FindAllStringSubmatchIndex(s, -1) {
		name := s[m[2]:m[3]]
		code, ok := strings.CutPrefix(name, glyphPrefix)
		if !ok {
			continue
		}
		out = append(out, glyph{code: code, start: m[0], end: m[1]})
	}
	return out
}

// firstRarity finds the first rarity glyph in s and returns the text after it.
func firstRarity(s string) (Rarity, string, bool) {
	for _, g := range glyphs(s) {
		if r, ok := rarityCodes[g.code]; ok {
			return r, s[g.end:], true
		}
	}
	return "", "", false
}

// firstGrade accepts both the full glyph and the bare :LU_xTier: shortcode.
func firstGrade(s string) (Grade, bool) {
	for _, m := range shortcodeRe.FindAllStringSubmatch(s, -1) {
		if g, ok := gradeCodes[strings.TrimPrefix(m[1], glyphPrefix)]; ok {
			return g, true
		}
	}
	return "", false
}

// cleanCardName cuts a raw name at the first "|" or line break, drops the
// lock glyph and bold markers and collapses whitespace.
func cleanCardName(raw string) string {
	if i := strings.IndexAny(raw, "|\n"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.NewReplacer("🔒", "", "**", "").Replace(raw)
	return strings.Join(strings.Fields(raw), " ")
}
