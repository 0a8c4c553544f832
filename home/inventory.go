package home

import (
	"errors"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/parser"
	"github.com/leeineian/luvibot/sys"
)

var errInventoryUnchanged = errors.New("inventory page added no cards")

// isInventoryOwner compares the inventory title name against the reacting
// user's account and display names.
func isInventoryOwner(owner string, user discord.User) bool {
	if owner == user.Username {
		return true
	}
	return user.GlobalName != nil && owner == *user.GlobalName
}

func (a *App) reactingUser(event *events.MessageReactionAdd) (discord.User, bool) {
	if event.Member != nil {
		return event.Member.User, true
	}
	u, err := event.Client().Rest.GetUser(event.UserID, rest.WithCtx(sys.AppContext))
	if err != nil {
		return discord.User{}, false
	}
	return *u, true
}

func (a *App) handleInventoryReaction(event *events.MessageReactionAdd) {
	msg, ok := a.fetchGameBotMessage(event)
	if !ok {
		return
	}
	embed := msg.Embeds[0]
	owner, ok := parser.InventoryOwner(embed)
	if !ok {
		return
	}
	user, ok := a.reactingUser(event)
	if !ok {
		return
	}
	if !isInventoryOwner(owner, user) {
		sys.LogDebug(sys.MsgInventoryNotOwner, user.Username, owner)
		return
	}

	pages, ok := parser.InventoryPages{}.With(parser.PageKey(embed), parser.ParseInventory(embed))
	if !ok {
		return
	}

	ctx := sys.AppContext
	if err := sys.WaitSend(ctx); err != nil {
		return
	}
	reply, err := event.Client().Rest.CreateMessage(event.ChannelID, discord.NewMessageCreate().
		WithContent(parser.RarityMessage(pages.Inventory())).
		WithMessageReference(&discord.MessageReference{MessageID: &msg.ID}).
		WithAllowedMentions(&discord.AllowedMentions{}), rest.WithCtx(ctx))
	if err != nil {
		sys.LogError(sys.MsgInventoryReplyFail, err)
		return
	}

	a.watchInventory(msg.ID, &inventoryWatch{
		ChannelID: event.ChannelID,
		ReplyID:   reply.ID,
		OwnerID:   event.UserID,
		Pages:     pages,
	})
}

func (a *App) watchInventory(messageID snowflake.ID, w *inventoryWatch) {
	a.watches.Put(messageID, w)
	sys.LogInventory(sys.MsgInventoryWatching, messageID)
}

// mergeInventoryPage adds a newly shown page to the watch on messageID and
// returns the refreshed summary. ok is false when the message is not watched
// or the page was shown before.
func (a *App) mergeInventoryPage(messageID snowflake.ID, embed discord.Embed) (*inventoryWatch, string, bool) {
	key, page := parser.PageKey(embed), parser.ParseInventory(embed)
	w, err := a.watches.Update(messageID, func(w *inventoryWatch, ok bool) (*inventoryWatch, bool, error) {
		if !ok {
			return nil, false, errInventoryUnchanged
		}
		pages, added := w.Pages.With(key, page)
		if !added {
			return nil, false, errInventoryUnchanged
		}
		next := *w
		next.Pages = pages
		return &next, true, nil
	})
	if err != nil {
		return nil, "", false
	}
	return w, parser.RarityMessage(w.Pages.Inventory()), true
}

func (a *App) handleInventoryPage(event *events.MessageUpdate) {
	if len(event.Message.Embeds) == 0 {
		return
	}
	w, content, ok := a.mergeInventoryPage(event.MessageID, event.Message.Embeds[0])
	if !ok {
		return
	}

	ctx := sys.AppContext
	if err := sys.WaitSend(ctx); err != nil {
		return
	}
	_, err := event.Client().Rest.UpdateMessage(w.ChannelID, w.ReplyID, discord.NewMessageUpdate().
		WithContent(content), rest.WithCtx(ctx))
	if err != nil {
		sys.LogError(sys.MsgInventoryEditFail, w.ReplyID, err)
	}
}
