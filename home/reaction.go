package home

import (
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"

	"github.com/leeineian/luvibot/parser"
	"github.com/leeineian/luvibot/sys"
)

const variationSelector = "️"

// normalizeName drops the emoji presentation selector so "✏" and "✏️"
// compare equal.
func normalizeName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), variationSelector, "")
}

// normalizeEmoji renders a reaction as "name" for unicode emoji and
// "name:id" for custom ones.
func normalizeEmoji(e discord.PartialEmoji) string {
	name := ""
	if e.Name != nil {
		name = *e.Name
	}
	if e.ID != nil {
		return name + ":" + e.ID.String()
	}
	return normalizeName(name)
}

// reactionString is the form the REST reaction endpoints expect.
func reactionString(e discord.PartialEmoji) string {
	name := ""
	if e.Name != nil {
		name = *e.Name
	}
	if e.ID != nil {
		return name + ":" + e.ID.String()
	}
	return name
}

// fetchGameBotMessage loads the reacted message and returns it only when the
// game bot wrote it and it carries an embed.
func (a *App) fetchGameBotMessage(event *events.MessageReactionAdd) (*discord.Message, bool) {
	msg, err := event.Client().Rest.GetMessage(event.ChannelID, event.MessageID, rest.WithCtx(sys.AppContext))
	if err != nil {
		sys.LogError(sys.MsgIDFetchFail, event.MessageID, err)
		return nil, false
	}
	if msg.Author.ID != a.cfg.GameBotID || len(msg.Embeds) == 0 {
		return nil, false
	}
	return msg, true
}

func (a *App) handleIDFetch(event *events.MessageReactionAdd) {
	msg, ok := a.fetchGameBotMessage(event)
	if !ok {
		return
	}
	ctx := sys.AppContext
	rc := event.Client().Rest
	emoji := reactionString(event.Emoji)

	if err := rc.RemoveUserReaction(event.ChannelID, event.MessageID, emoji, event.UserID, rest.WithCtx(ctx)); err != nil {
		sys.LogWarn(sys.MsgIDFetchClearFail, event.MessageID, err)
	}
	if err := rc.RemoveOwnReaction(event.ChannelID, event.MessageID, emoji, rest.WithCtx(ctx)); err != nil {
		sys.LogDebug(sys.MsgIDFetchClearFail, event.MessageID, err)
	}

	ids := parser.ExtractReferencedIDs(msg.Embeds[0])
	if len(ids) == 0 {
		sys.LogDebug(sys.MsgIDFetchNone, event.MessageID)
		return
	}

	if err := sys.WaitSend(ctx); err != nil {
		return
	}
	_, err := rc.CreateMessage(event.ChannelID, discord.NewMessageCreate().
		WithContent(strings.Join(ids, ",")), rest.WithCtx(ctx))
	if err != nil {
		sys.LogError(sys.MsgIDFetchSendFail, err)
	}
}
