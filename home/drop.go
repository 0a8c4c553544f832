package home

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/parser"
	"github.com/leeineian/luvibot/store"
	"github.com/leeineian/luvibot/sys"
)

func (a *App) handleGameBotMessage(event *events.MessageCreate) {
	msg := event.Message
	if len(msg.Embeds) == 0 {
		return
	}
	ctx := sys.AppContext
	a.handleDropMessage(ctx, *event.GuildID, event.ChannelID, msg)

	a.offerIDFetch(ctx, event.Client().Rest, event.ChannelID, msg)
}

type reactionAdder interface {
	AddReaction(channelID snowflake.ID, messageID snowflake.ID, emoji string, opts ...rest.RequestOpt) error
}

// offerIDFetch adds the ID fetch reaction to listings that carry card ids.
// It reports whether the reaction was added.
func (a *App) offerIDFetch(ctx context.Context, rc reactionAdder, channelID snowflake.ID, msg discord.Message) bool {
	if len(msg.Embeds) == 0 || len(parser.ExtractReferencedIDs(msg.Embeds[0])) == 0 {
		return false
	}
	if err := sys.WaitSend(ctx); err != nil {
		return false
	}
	if err := rc.AddReaction(channelID, msg.ID, a.cfg.IDFetchEmoji, rest.WithCtx(ctx)); err != nil {
		sys.LogWarn(sys.MsgIDFetchOfferFail, msg.ID, err)
		return false
	}
	return true
}

// isFresh reports whether a message created at createdAt is within the
// staleness window.
func (a *App) isFresh(createdAt time.Time) bool {
	return a.now().Sub(createdAt) <= a.cfg.StaleAfter
}

// handleDropMessage records the drop in msg's first embed unless msg is stale.
func (a *App) handleDropMessage(ctx context.Context, guildID, channelID snowflake.ID, msg discord.Message) bool {
	if len(msg.Embeds) == 0 {
		return false
	}
	if !a.isFresh(msg.CreatedAt) {
		sys.LogDebug(sys.MsgDropStale, msg.ID, a.now().Sub(msg.CreatedAt).Round(time.Second))
		return false
	}
	return a.recordDrop(ctx, guildID, channelID, msg.Embeds[0], msg.CreatedAt)
}

// recordDrop counts the drop announced by embed and schedules the cooldown
// reminder. The reminder only needs the actor, so it is set even when the
// card line cannot be read.
func (a *App) recordDrop(ctx context.Context, guildID, channelID snowflake.ID, embed discord.Embed, at time.Time) bool {
	if !parser.IsDropAnnouncement(embed) {
		return false
	}
	actor, ok := parser.ExtractActorID(embed)
	if !ok {
		return false
	}

	if ev, ok := parser.ParseDropEvent(embed); ok {
		a.countDrop(ctx, guildID, ev)
	}
	a.scheduleDropReminder(ctx, actor, channelID, guildID, at)
	return true
}

func (a *App) countDrop(ctx context.Context, guildID snowflake.ID, ev parser.DropEvent) {
	n, err := a.store.IncrementDrop(ctx, ev.ActorID, guildID)
	if err != nil {
		sys.LogError(sys.MsgDropCountFail, ev.ActorID, guildID, err)
		return
	}
	sys.LogDrop(sys.MsgDropCounted, n, ev.ActorID, guildID)

	if ev.Rarity != parser.Legendary && ev.Rarity != parser.Exotic {
		return
	}
	rc, err := a.store.IncrementRarity(ctx, ev.ActorID, guildID, ev.Rarity)
	if err != nil {
		sys.LogError(sys.MsgDropRarityFail, ev.Rarity, ev.ActorID, guildID, err)
		return
	}
	sys.LogDrop(sys.MsgDropRarityCounted, ev.Rarity, ev.ActorID, guildID, rc.Legendary, rc.Exotic)
}

func (a *App) scheduleDropReminder(ctx context.Context, userID, channelID, guildID snowflake.ID, at time.Time) {
	content := fmt.Sprintf(sys.MsgDropReminderTemplate, userID, a.cfg.DropCommandMention)
	r := store.NewDropReminder(userID, channelID, guildID, at, a.cfg.DropReminderDelay, content)

	err := a.store.ScheduleReminder(ctx, r)
	switch {
	case errors.Is(err, store.ErrDuplicateReminder):
		sys.LogDrop(sys.MsgDropReminderSkipped, userID)
	case err != nil:
		sys.LogError(sys.MsgDropReminderFail, userID, guildID, err)
	default:
		sys.LogReminder(sys.MsgDropReminderSet, userID, r.RemindAt.Format(time.RFC3339))
	}
}
