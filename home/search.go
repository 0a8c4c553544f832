package home

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/catalog"
	"github.com/leeineian/luvibot/session"
	"github.com/leeineian/luvibot/sys"
)

// Format: search:<next|prev>:<userID>:<token>
const searchCustomIDPrefix = "search:"

func searchCustomID(dir session.Direction, userID snowflake.ID, token string) string {
	return fmt.Sprintf("%s%s:%s:%s", searchCustomIDPrefix, dir, userID, token)
}

func parseSearchCustomID(id string) (session.Direction, snowflake.ID, string, bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 4 || parts[0]+":" != searchCustomIDPrefix {
		return 0, 0, "", false
	}
	dir, ok := session.ParseDirection(parts[1])
	if !ok {
		return 0, 0, "", false
	}
	userID, err := snowflake.Parse(parts[2])
	if err != nil {
		return 0, 0, "", false
	}
	return dir, userID, parts[3], true
}

// mentionQuery strips the bot mention from content. ok is false when the
// message does not mention the bot.
func mentionQuery(content string, botID snowflake.ID, mentions []discord.User) (string, bool) {
	mentioned := false
	for _, u := range mentions {
		if u.ID == botID {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return "", false
	}
	id := botID.String()
	content = strings.ReplaceAll(content, "<@"+id+">", "")
	content = strings.ReplaceAll(content, "<@!"+id+">", "")
	return strings.TrimSpace(content), true
}

func (a *App) handleUserMessage(event *events.MessageCreate) {
	msg := event.Message
	if query, ok := mentionQuery(msg.Content, event.Client().ID(), msg.Mentions); ok {
		if query == "" {
			return
		}
		a.reply(event, a.searchComponents(msg.Author.ID, query))
		return
	}

	ordinal, err := strconv.Atoi(strings.TrimSpace(msg.Content))
	if err != nil || !a.searches.Active(msg.Author.ID) {
		return
	}
	if c, ok := a.selectComponents(msg.Author.ID, ordinal); ok {
		a.reply(event, c)
	}
}

func (a *App) reply(event *events.MessageCreate, components []discord.LayoutComponent) {
	ctx := sys.AppContext
	if err := sys.WaitSend(ctx); err != nil {
		return
	}
	_, err := event.Client().Rest.CreateMessage(event.ChannelID, discord.NewMessageCreate().
		WithIsComponentsV2(true).
		WithComponents(components...).
		WithMessageReference(&discord.MessageReference{MessageID: &event.MessageID}).
		WithAllowedMentions(&discord.AllowedMentions{}), rest.WithCtx(ctx))
	if err != nil {
		sys.LogError(sys.MsgSearchSendFail, err)
	}
}

// searchComponents runs query for userID. More than one hit starts a paged
// session; any other outcome ends the user's previous session.
func (a *App) searchComponents(userID snowflake.ID, query string) []discord.LayoutComponent {
	if a.catalog.Len() == 0 {
		return notice(sys.MsgSearchCatalogOff)
	}

	if catalog.IsMultiQuery(query) {
		a.searches.Discard(userID)
		results := a.catalog.SearchMany(query)
		sys.LogSearch(sys.MsgSearchQuery, userID, query, len(results))
		return []discord.LayoutComponent{discord.NewContainer(discord.NewTextDisplay(renderMultiResults(results)))}
	}

	cards := a.catalog.Search(query)
	sys.LogSearch(sys.MsgSearchQuery, userID, query, len(cards))
	switch len(cards) {
	case 0:
		a.searches.Discard(userID)
		return []discord.LayoutComponent{discord.NewContainer(discord.NewTextDisplay(renderNoResults()))}
	case 1:
		a.searches.Discard(userID)
		return cardComponents(cards[0])
	default:
		v := a.searches.Start(userID, cards)
		return []discord.LayoutComponent{searchPageContainer(v, userID)}
	}
}

// selectComponents answers a numeric reply. ok is false when the user has no
// search to select from.
func (a *App) selectComponents(userID snowflake.ID, ordinal int) ([]discord.LayoutComponent, bool) {
	card, err := a.searches.Select(userID, ordinal)
	switch {
	case errors.Is(err, session.ErrInvalidSelection):
		return []discord.LayoutComponent{discord.NewContainer(discord.NewTextDisplay(renderInvalidSelection()))}, true
	case err != nil:
		return nil, false
	}
	return cardComponents(card), true
}

func (a *App) handleSearchPage(event *events.ComponentInteractionCreate) {
	dir, owner, token, ok := parseSearchCustomID(event.Data.CustomID())
	if !ok {
		_ = event.DeferUpdateMessage()
		return
	}
	if owner != event.User().ID {
		respondEphemeral(event, sys.MsgSearchNotYours)
		return
	}

	v, err := a.searches.Advance(owner, dir, token)
	switch {
	case errors.Is(err, session.ErrPageOutOfRange):
		_ = event.DeferUpdateMessage()
		return
	case err != nil:
		respondEphemeral(event, sys.MsgSearchExpired)
		return
	}

	err = event.UpdateMessage(discord.NewMessageUpdate().
		WithIsComponentsV2(true).
		WithComponents(searchPageContainer(v, owner)))
	if err != nil {
		sys.LogError(sys.MsgInteractionRespFail, err)
	}
}

func notice(content string) []discord.LayoutComponent {
	return []discord.LayoutComponent{discord.NewContainer(discord.NewTextDisplay(content))}
}

func renderNoResults() string {
	return "### " + sys.MsgSearchNoResults + "\n" + sys.MsgSearchNoMatch + "\n-# " + sys.MsgSearchIconicHint
}

func renderInvalidSelection() string {
	return "### " + sys.MsgSearchInvalid + "\n" + sys.MsgSearchInvalidSub + "\n-# " + sys.MsgSearchIconicHint
}

func renderCard(c catalog.Card) string {
	var sb strings.Builder
	sb.WriteString("## " + c.DisplayName() + "\n")
	sb.WriteString(fmt.Sprintf("**Series:** %s\n**Element:** %s\n**Role:** %s\n", c.Series, c.Element, c.Role))
	sb.WriteString("-# " + sys.MsgSearchIconicHint)
	return sb.String()
}

func cardComponents(c catalog.Card) []discord.LayoutComponent {
	parts := []discord.ContainerSubComponent{discord.NewTextDisplay(renderCard(c))}
	if c.ImageURL != "" {
		parts = append(parts, discord.NewMediaGallery(discord.MediaGalleryItem{
			Media: discord.UnfurledMediaItem{URL: c.ImageURL},
		}))
	}
	return []discord.LayoutComponent{discord.NewContainer(parts...)}
}

// renderSearchPage numbers entries against the whole result set so a reply
// can pick any of them.
func renderSearchPage(v session.View[catalog.Card]) string {
	var sb strings.Builder
	sb.WriteString("### " + fmt.Sprintf(sys.MsgSearchTitle, v.Total) + "\n")
	sb.WriteString(fmt.Sprintf(sys.MsgSearchSubtitle, v.Page+1, v.TotalPages) + "\n\n")
	for i, c := range v.Items {
		sb.WriteString(fmt.Sprintf("**%d. %s**\n%s\n", v.Offset+i+1, c.DisplayName(), c.Summary()))
	}
	sb.WriteString("-# " + sys.MsgSearchIconicHint)
	return sb.String()
}

func searchPageContainer(v session.View[catalog.Card], userID snowflake.ID) discord.ContainerComponent {
	var buttons []discord.InteractiveComponent
	if v.Page > 0 {
		buttons = append(buttons, discord.NewPrimaryButton(sys.MsgSearchBtnPrev, searchCustomID(session.Previous, userID, v.Token)))
	}
	buttons = append(buttons, discord.NewSecondaryButton(
		fmt.Sprintf("%d/%d", v.Page+1, v.TotalPages),
		searchCustomIDPrefix+"info:"+userID.String(),
	).WithDisabled(true))
	if v.Page < v.TotalPages-1 {
		buttons = append(buttons, discord.NewPrimaryButton(sys.MsgSearchBtnNext, searchCustomID(session.Next, userID, v.Token)))
	}

	return discord.NewContainer(
		discord.NewTextDisplay(renderSearchPage(v)),
		discord.NewActionRow(buttons...),
	)
}

func renderMultiResults(results []catalog.MultiResult) string {
	var sb strings.Builder
	sb.WriteString("### " + fmt.Sprintf(sys.MsgSearchMultiTitle, len(results)) + "\n")
	for _, r := range results {
		if r.Found {
			sb.WriteString(fmt.Sprintf("✅ %s\n**%s**\n%s\n", r.Query, r.Card.DisplayName(), r.Card.Summary()))
		} else {
			sb.WriteString(fmt.Sprintf("❌ %s\n%s\n", r.Query, sys.MsgSearchMultiMiss))
		}
	}
	sb.WriteString("-# " + sys.MsgSearchIconicHint)
	return sb.String()
}
