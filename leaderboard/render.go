package leaderboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leeineian/luvibot/store"
)

// Minimum column widths so short pages still line up.
const (
	minDropsWidth     = 3
	minLegendaryWidth = 2
	minExoticWidth    = 2
	minTotalWidth     = 2
)

var medals = [...]string{"🥇", "🥈", "🥉"}

// Medal returns the marker for a 1-based rank.
func Medal(rank int) string {
	if rank >= 1 && rank <= len(medals) {
		return medals[rank-1]
	}
	return strconv.Itoa(rank) + "."
}

func width(floor int, values ...int64) int {
	w := floor
	for _, v := range values {
		w = max(w, len(strconv.FormatInt(v, 10)))
	}
	return w
}

// pad right-pads n to w columns inside a code span so Discord keeps the
// spaces.
func pad(n int64, w int) string {
	return fmt.Sprintf("`%-*d`", w, n)
}

// RenderDrops renders one page of the drop leaderboard, one line per user.
func RenderDrops(p Page[store.DropCount]) string {
	counts := make([]int64, len(p.Rows))
	for i, r := range p.Rows {
		counts[i] = r.Count
	}
	w := width(minDropsWidth, counts...)

	lines := make([]string, 0, len(p.Rows))
	for i, r := range p.Rows {
		lines = append(lines, fmt.Sprintf("%s <@%s> - **%s** drops", Medal(p.Offset+i+1), r.UserID, pad(r.Count, w)))
	}
	return strings.Join(lines, "\n")
}

// RenderRarity renders one page of the rarity leaderboard, two lines per
// user.
func RenderRarity(p Page[store.RarityCount]) string {
	var leg, exo, tot []int64
	for _, r := range p.Rows {
		leg = append(leg, r.Legendary)
		exo = append(exo, r.Exotic)
		tot = append(tot, r.Total())
	}
	lw := width(minLegendaryWidth, leg...)
	ew := width(minExoticWidth, exo...)
	tw := width(minTotalWidth, tot...)

	lines := make([]string, 0, len(p.Rows))
	for i, r := range p.Rows {
		lines = append(lines, fmt.Sprintf("%s <@%s>\n🌟 Legendary: **%s** | 💎 Exotic: **%s** | Total: **%s**",
			Medal(p.Offset+i+1), r.UserID, pad(r.Legendary, lw), pad(r.Exotic, ew), pad(r.Total(), tw)))
	}
	return strings.Join(lines, "\n")
}
