// Package home wires the gateway events and slash commands of the bot to the
// parser, store, catalog, leaderboard and session packages.
package home

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/access"
	"github.com/leeineian/luvibot/catalog"
	"github.com/leeineian/luvibot/leaderboard"
	"github.com/leeineian/luvibot/parser"
	"github.com/leeineian/luvibot/proc"
	"github.com/leeineian/luvibot/session"
	"github.com/leeineian/luvibot/store"
	"github.com/leeineian/luvibot/sys"
)

// inventoryWatch links an inventory message to the rarity summary posted
// for it, accumulating cards as the game bot pages through the inventory.
type inventoryWatch struct {
	ChannelID snowflake.ID
	ReplyID   snowflake.ID
	OwnerID   snowflake.ID
	Pages     parser.InventoryPages
}

// App holds everything the handlers need. Build it with NewApp and call
// Register once before the gateway opens.
type App struct {
	cfg         *sys.Config
	store       store.Store
	catalog     *catalog.Catalog
	policy      access.Policy
	leaderboard *leaderboard.Engine
	searches    *session.Paginator[catalog.Card]
	watches     *session.Table[snowflake.ID, *inventoryWatch]
	now         func() time.Time
}

// NewApp builds the handler set. cat may be nil when no catalog is loaded;
// search then answers with a notice instead of results.
func NewApp(cfg *sys.Config, st store.Store, cat *catalog.Catalog) *App {
	return &App{
		cfg:         cfg,
		store:       st,
		catalog:     cat,
		policy:      access.NewPolicy(cfg.OwnerIDs),
		leaderboard: leaderboard.NewEngine(st),
		searches:    session.NewPaginator[catalog.Card](nil),
		watches:     session.NewTable[snowflake.ID, *inventoryWatch](),
		now:         time.Now,
	}
}

// Register adds the commands and event handlers to the sys registry.
func (a *App) Register() {
	sys.RegisterCommand(cardCommand, a.handleCard)
	sys.RegisterCommand(rlbCommand, a.handleRlb)
	sys.RegisterCommand(multiRolesCommand, a.handleMultiRoles)

	sys.RegisterComponentHandler(searchCustomIDPrefix, a.handleSearchPage)
	sys.RegisterComponentHandler(leaderboard.CustomIDPrefix(), a.handleRlbButton)

	sys.RegisterMessageCreateHandler(a.onMessageCreate)
	sys.RegisterMessageUpdateHandler(a.onMessageUpdate)
	sys.RegisterReactionAddHandler(a.onReactionAdd)
}

// SweepTargets lists the in-memory tables the session sweeper evicts from.
func (a *App) SweepTargets() []proc.SweepTarget {
	return []proc.SweepTarget{
		{Name: "search", Table: a.searches.Table(), TTL: a.cfg.SessionTTL},
		{Name: "inventory", Table: a.watches, TTL: a.cfg.InventoryWatchTTL},
	}
}

// StatusSources feeds the presence rotator.
func (a *App) StatusSources() []proc.StatusSource {
	return []proc.StatusSource{
		func() string {
			if n := a.catalog.Len(); n > 0 {
				return fmt.Sprintf("%d LUVI cards", n)
			}
			return ""
		},
		func() string {
			if n := a.searches.Table().Len(); n > 0 {
				return fmt.Sprintf("%d card searches", n)
			}
			return ""
		},
	}
}

func (a *App) onMessageCreate(event *events.MessageCreate) {
	if event.GuildID == nil {
		return
	}
	author := event.Message.Author
	if author.ID == a.cfg.GameBotID {
		a.handleGameBotMessage(event)
		return
	}
	if author.Bot {
		return
	}
	a.handleUserMessage(event)
}

func (a *App) onMessageUpdate(event *events.MessageUpdate) {
	if event.Message.Author.ID != a.cfg.GameBotID {
		return
	}
	a.handleInventoryPage(event)
}

func (a *App) onReactionAdd(event *events.MessageReactionAdd) {
	if event.GuildID == nil || event.UserID == event.Client().ID() {
		return
	}
	if event.Member != nil && event.Member.User.Bot {
		return
	}

	switch normalizeEmoji(event.Emoji) {
	case normalizeName(a.cfg.IDFetchEmoji):
		a.handleIDFetch(event)
	case normalizeName(a.cfg.InventoryEmoji):
		a.handleInventoryReaction(event)
	}
}

// responder is implemented by both slash command and component events.
type responder interface {
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

// respondEphemeral answers an interaction with a private notice.
func respondEphemeral(event responder, content string) {
	err := event.CreateMessage(discord.NewMessageCreate().
		WithIsComponentsV2(true).
		WithComponents(
			discord.NewContainer(
				discord.NewTextDisplay(content),
			),
		).
		WithEphemeral(true))
	if err != nil {
		sys.LogError(sys.MsgInteractionRespFail, err)
	}
}
