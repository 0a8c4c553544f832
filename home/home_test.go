package home

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeineian/luvibot/catalog"
	"github.com/leeineian/luvibot/leaderboard"
	"github.com/leeineian/luvibot/parser"
	"github.com/leeineian/luvibot/session"
	"github.com/leeineian/luvibot/store"
	"github.com/leeineian/luvibot/sys"
)

const (
	actor   = snowflake.ID(123456789012345678)
	guild   = snowflake.ID(42)
	channel = snowflake.ID(7)
)

func testConfig() *sys.Config {
	return &sys.Config{
		GameBotID:          sys.DefaultGameBotID,
		DropReminderDelay:  time.Hour,
		DropCommandMention: "</drop:1>",
		StaleAfter:         time.Minute,
		SessionTTL:         10 * time.Minute,
		InventoryWatchTTL:  5 * time.Minute,
		IDFetchEmoji:       "🆔",
		InventoryEmoji:     "✏️",
		OwnerIDs:           []snowflake.ID{99},
	}
}

func testCards() *catalog.Catalog {
	var cards []catalog.Card
	for i := 1; i <= 25; i++ {
		cards = append(cards, catalog.Card{
			Name:     fmt.Sprintf("Dragon %02d", i),
			Series:   "Saga",
			Element:  "Fire",
			Role:     "DPS",
			ImageURL: "https://img.example/dragon.png",
		})
	}
	cards = append(cards, catalog.Card{Name: "Rem", Series: "Re:Zero", Element: "Water", Role: "Healer", Iconic: true})
	return catalog.Load(cards)
}

func newTestApp(t *testing.T) (*App, store.Store) {
	t.Helper()
	st := store.NewMemory()
	return NewApp(testConfig(), st, testCards()), st
}

func dropEmbed(desc string) discord.Embed {
	return discord.Embed{
		Title:       "Alice Dropped a card!",
		Description: desc,
		Footer:      &discord.EmbedFooter{IconURL: "https://cdn.discordapp.com/avatars/123456789012345678/abc.png"},
	}
}

func TestHandleDropMessageSkipsStaleMessages(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	stale := discord.Message{ID: 1, CreatedAt: now.Add(-61 * time.Second), Embeds: []discord.Embed{dropEmbed("<:LU_L:1> **Rem**")}}
	assert.False(t, a.isFresh(stale.CreatedAt))
	assert.False(t, a.handleDropMessage(ctx, guild, channel, stale))

	drops, err := st.TopDrops(ctx, guild, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, drops, "a 61s old drop is not counted")
	pending, err := st.PendingReminders(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, pending, "a 61s old drop sets no reminder")

	fresh := discord.Message{ID: 2, CreatedAt: now.Add(-59 * time.Second), Embeds: []discord.Embed{dropEmbed("<:LU_L:1> **Rem**")}}
	assert.True(t, a.isFresh(fresh.CreatedAt))
	assert.True(t, a.handleDropMessage(ctx, guild, channel, fresh))

	drops, err = st.TopDrops(ctx, guild, 10, 0)
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.Equal(t, int64(1), drops[0].Count)

	assert.False(t, a.handleDropMessage(ctx, guild, channel, discord.Message{ID: 3, CreatedAt: now}))
}

type fakeReactions struct {
	err   error
	added []string
}

func (f *fakeReactions) AddReaction(channelID snowflake.ID, messageID snowflake.ID, emoji string, _ ...rest.RequestOpt) error {
	f.added = append(f.added, emoji)
	return f.err
}

func TestOfferIDFetch(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	listing := discord.Message{ID: 5, Embeds: []discord.Embed{{Description: "ID: `1001`"}}}

	rc := &fakeReactions{}
	assert.True(t, a.offerIDFetch(ctx, rc, channel, listing))
	assert.Equal(t, []string{a.cfg.IDFetchEmoji}, rc.added)

	rc = &fakeReactions{}
	assert.False(t, a.offerIDFetch(ctx, rc, channel, discord.Message{ID: 6, Embeds: []discord.Embed{{Description: "no ids"}}}))
	assert.Empty(t, rc.added, "listings without ids get no reaction")

	rc = &fakeReactions{err: errors.New("missing access")}
	assert.False(t, a.offerIDFetch(ctx, rc, channel, listing), "a failed reaction is reported, not dropped")
	assert.Len(t, rc.added, 1)
}

func TestRecordDropCountsAndSchedules(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()
	at := time.Now()

	require.True(t, a.recordDrop(ctx, guild, channel, dropEmbed("<:LU_L:1> **Rem**"), at))

	drops, err := st.TopDrops(ctx, guild, 10, 0)
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.Equal(t, int64(1), drops[0].Count)

	rarity, err := st.TopRarity(ctx, guild, 10, 0)
	require.NoError(t, err)
	require.Len(t, rarity, 1)
	assert.Equal(t, int64(1), rarity[0].Legendary)

	pending, err := st.PendingReminders(ctx, actor)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "<@123456789012345678>, You can now use </drop:1> again!", pending[0].Message)
	assert.Equal(t, channel, pending[0].ChannelID)
	assert.WithinDuration(t, at.Add(time.Hour), pending[0].RemindAt, time.Second)

	// A second drop counts but keeps the first reminder.
	require.True(t, a.recordDrop(ctx, guild, channel, dropEmbed("<:LU_L:1> **Rem**"), at.Add(time.Minute)))
	drops, _ = st.TopDrops(ctx, guild, 10, 0)
	assert.Equal(t, int64(2), drops[0].Count)
	pending, _ = st.PendingReminders(ctx, actor)
	assert.Len(t, pending, 1)
}

func TestRecordDropCommonSkipsRarity(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	require.True(t, a.recordDrop(ctx, guild, channel, dropEmbed("<:LU_C:1> Slime"), time.Now()))

	rarity, err := st.TopRarity(ctx, guild, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rarity)
}

func TestRecordDropWithoutCardLineStillReminds(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	require.True(t, a.recordDrop(ctx, guild, channel, dropEmbed("something unreadable"), time.Now()))

	drops, _ := st.TopDrops(ctx, guild, 10, 0)
	assert.Empty(t, drops)
	pending, _ := st.PendingReminders(ctx, actor)
	assert.Len(t, pending, 1)
}

func TestRecordDropIgnoresOtherEmbeds(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	assert.False(t, a.recordDrop(ctx, guild, channel, discord.Embed{Title: "Inventory"}, time.Now()))
	noActor := dropEmbed("<:LU_L:1> Rem")
	noActor.Footer = nil
	assert.False(t, a.recordDrop(ctx, guild, channel, noActor, time.Now()))

	n, _ := st.CountDropUsers(ctx, guild)
	assert.Zero(t, n)
}

func textOf(t *testing.T, components []discord.LayoutComponent) string {
	t.Helper()
	require.NotEmpty(t, components)
	c, ok := components[0].(discord.ContainerComponent)
	require.True(t, ok)
	td, ok := c.Components[0].(discord.TextDisplayComponent)
	require.True(t, ok)
	return td.Content
}

func TestSearchPagesAndSelects(t *testing.T) {
	a, _ := newTestApp(t)
	user := snowflake.ID(5)

	text := textOf(t, a.searchComponents(user, "dragon"))
	assert.Contains(t, text, "Found 25 results")
	assert.Contains(t, text, "Page 1/3")
	assert.Contains(t, text, "**1. Dragon 01**\nSaga | Fire DPS")
	assert.True(t, a.searches.Active(user))

	out, ok := a.selectComponents(user, 26)
	require.True(t, ok)
	assert.Contains(t, textOf(t, out), sys.MsgSearchInvalid)
	assert.True(t, a.searches.Active(user), "an invalid pick keeps the session")

	out, ok = a.selectComponents(user, 15)
	require.True(t, ok)
	assert.Contains(t, textOf(t, out), "## Dragon 15")
	assert.False(t, a.searches.Active(user))

	_, ok = a.selectComponents(user, 1)
	assert.False(t, ok)
}

func TestSearchSingleHitShowsDetail(t *testing.T) {
	a, _ := newTestApp(t)
	user := snowflake.ID(5)
	a.searchComponents(user, "dragon")

	out := a.searchComponents(user, "water healer")
	text := textOf(t, out)
	assert.Contains(t, text, "## ✨ Rem")
	assert.Contains(t, text, "**Element:** Water")
	assert.False(t, a.searches.Active(user), "a new search ends the old session")

	out = a.searchComponents(user, "dragon 07")
	c := out[0].(discord.ContainerComponent)
	require.Len(t, c.Components, 2)
	_, ok := c.Components[1].(discord.MediaGalleryComponent)
	assert.True(t, ok)
}

func TestSearchNoResultsAndMulti(t *testing.T) {
	a, _ := newTestApp(t)

	assert.Contains(t, textOf(t, a.searchComponents(1, "zzz")), sys.MsgSearchNoResults)

	text := textOf(t, a.searchComponents(1, "rem, zzz ,"))
	assert.Contains(t, text, "📋 Search Results (2 queries)")
	assert.Contains(t, text, "✅ rem\n**✨ Rem**\nRe:Zero | Water Healer")
	assert.Contains(t, text, "❌ zzz\nNo card found")
}

func TestSearchWithoutCatalog(t *testing.T) {
	a := NewApp(testConfig(), store.NewMemory(), nil)
	assert.Equal(t, sys.MsgSearchCatalogOff, textOf(t, a.searchComponents(1, "rem")))
}

func TestSearchPageFooterAndButtons(t *testing.T) {
	a, _ := newTestApp(t)
	user := snowflake.ID(5)
	a.searchComponents(user, "dragon")

	v, err := a.searches.Advance(user, session.Next, "")
	require.NoError(t, err)
	text := renderSearchPage(v)
	assert.Contains(t, text, "Page 2/3")
	assert.Contains(t, text, "**11. Dragon 11**")
	assert.True(t, strings.HasSuffix(text, "-# "+sys.MsgSearchIconicHint))
}

func TestSearchCustomID(t *testing.T) {
	id := searchCustomID(session.Next, 5, "tok")
	assert.Equal(t, "search:next:5:tok", id)

	dir, user, token, ok := parseSearchCustomID(id)
	require.True(t, ok)
	assert.Equal(t, session.Next, dir)
	assert.Equal(t, snowflake.ID(5), user)
	assert.Equal(t, "tok", token)

	for _, bad := range []string{"search:info:5", "search:up:5:tok", "search:next:x:tok", "rlb:next:5:tok"} {
		_, _, _, ok := parseSearchCustomID(bad)
		assert.False(t, ok, bad)
	}
}

func TestMentionQuery(t *testing.T) {
	bot := snowflake.ID(1000)
	q, ok := mentionQuery("<@1000>  fire dragon ", bot, []discord.User{{ID: bot}})
	require.True(t, ok)
	assert.Equal(t, "fire dragon", q)

	q, ok = mentionQuery("<@!1000> rem", bot, []discord.User{{ID: bot}})
	require.True(t, ok)
	assert.Equal(t, "rem", q)

	_, ok = mentionQuery("<@2000> rem", bot, []discord.User{{ID: 2000}})
	assert.False(t, ok)
}

func inventoryEmbed(fields ...discord.EmbedField) discord.Embed {
	return discord.Embed{Title: "<:LU_Inventory:555> alice's Inventory", Fields: fields}
}

func TestMergeInventoryPage(t *testing.T) {
	a, _ := newTestApp(t)
	msg := snowflake.ID(77)

	_, _, ok := a.mergeInventoryPage(msg, inventoryEmbed())
	assert.False(t, ok, "unwatched messages are ignored")

	page1 := inventoryEmbed(
		discord.EmbedField{Name: "<:LU_L:1> Rem", Value: "<:LU_STier:2> ID: `1`"},
		discord.EmbedField{Name: "<:LU_L:1> Rem", Value: "<:LU_STier:2> ID: `2`"},
	)
	first, ok := parser.InventoryPages{}.With(parser.PageKey(page1), parser.ParseInventory(page1))
	require.True(t, ok)
	require.Equal(t, "**Legendary**\nRem[S], Rem[S]", parser.RarityMessage(first.Inventory()))
	a.watchInventory(msg, &inventoryWatch{ChannelID: channel, ReplyID: 88, Pages: first})

	w, content, ok := a.mergeInventoryPage(msg, inventoryEmbed(
		discord.EmbedField{Name: "<:LU_L:1> Ram", Value: "ID: `3`"},
		discord.EmbedField{Name: "<:LU_E:1> Emilia", Value: "<:LU_ATier:2> ID: `4`"},
	))
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(88), w.ReplyID)
	assert.Equal(t, "**Legendary**\nRem[S], Rem[S], Ram\n**Exotic**\nEmilia[A]", content)
	assert.Equal(t, 4, w.Pages.Inventory().Len(), "copies of one card survive a page merge")
	assert.Equal(t, 1, first.Len(), "the stored pages are not mutated in place")

	_, _, ok = a.mergeInventoryPage(msg, page1)
	assert.False(t, ok, "a page seen before does not trigger an edit")
}

func TestIsInventoryOwner(t *testing.T) {
	display := "Alice"
	assert.True(t, isInventoryOwner("alice", discord.User{Username: "alice"}))
	assert.True(t, isInventoryOwner("Alice", discord.User{Username: "al1ce", GlobalName: &display}))
	assert.False(t, isInventoryOwner("alice", discord.User{Username: "bob"}))
}

func TestNormalizeEmoji(t *testing.T) {
	pencil := "✏️"
	bare := "✏"
	custom := "LU_ID"
	id := snowflake.ID(9)

	assert.Equal(t, normalizeName("✏️"), normalizeEmoji(discord.PartialEmoji{Name: &pencil}))
	assert.Equal(t, normalizeName("✏️"), normalizeEmoji(discord.PartialEmoji{Name: &bare}))
	assert.Equal(t, "LU_ID:9", normalizeEmoji(discord.PartialEmoji{Name: &custom, ID: &id}))
	assert.Equal(t, "LU_ID:9", reactionString(discord.PartialEmoji{Name: &custom, ID: &id}))
}

func TestApplyMultiRole(t *testing.T) {
	s := store.GuildSettings{GuildID: guild}

	reply, changed := applyMultiRole(&s, "set-boss", "tier1", 5)
	assert.False(t, changed)
	assert.Equal(t, sys.ErrMultiRoleNotEnabled, reply)

	_, changed = applyMultiRole(&s, "enable", "", 0)
	assert.True(t, changed)
	assert.True(t, s.MultiRoleEnabled)

	reply, changed = applyMultiRole(&s, "set-boss", "tier2", 5)
	assert.True(t, changed)
	assert.Equal(t, "✅ TIER2 boss role set to <@&5>.", reply)
	assert.Equal(t, [3]snowflake.ID{0, 5, 0}, s.TierRoleIDs)

	reply, _ = applyMultiRole(&s, "set-boss", "tier2", 0)
	assert.Equal(t, "✅ TIER2 boss role removed.", reply)
	assert.Equal(t, [3]snowflake.ID{}, s.TierRoleIDs)

	_, changed = applyMultiRole(&s, "set-boss", "tier9", 5)
	assert.False(t, changed)

	_, changed = applyMultiRole(&s, "disable", "", 0)
	assert.True(t, changed)
	assert.False(t, s.MultiRoleEnabled)
}

func TestLeaderboardContainer(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	c, err := a.leaderboardContainer(ctx, guild, leaderboard.View{State: leaderboard.AllDrops}, false, false, "")
	require.NoError(t, err)
	assert.Contains(t, textOf(t, []discord.LayoutComponent{c}), sys.MsgLeaderboardNoDrops)

	for i := 0; i < 3; i++ {
		_, err := st.IncrementDrop(ctx, actor, guild)
		require.NoError(t, err)
	}
	c, err = a.leaderboardContainer(ctx, guild, leaderboard.View{State: leaderboard.AllDrops, Page: 4}, true, false, "reset note")
	require.NoError(t, err)
	text := textOf(t, []discord.LayoutComponent{c})
	assert.Contains(t, text, "reset note")
	assert.Contains(t, text, "🥇 <@123456789012345678> - **`3  `** drops")
	assert.Contains(t, text, "Page 1/1")

	c, err = a.leaderboardContainer(ctx, guild, leaderboard.View{State: leaderboard.ResetConfirm}, true, false, "")
	require.NoError(t, err)
	assert.Equal(t, sys.MsgLeaderboardResetAsk, textOf(t, []discord.LayoutComponent{c}))
}

func TestSweepTargets(t *testing.T) {
	a, _ := newTestApp(t)
	targets := a.SweepTargets()
	require.Len(t, targets, 2)
	assert.Equal(t, 10*time.Minute, targets[0].TTL)
	assert.Equal(t, 5*time.Minute, targets[1].TTL)
}
