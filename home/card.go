package home

import (
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"

	"github.com/leeineian/luvibot/sys"
)

var cardCommand = discord.SlashCommandCreate{
	Name:        "card",
	Description: "Search the LUVI card list",
	Contexts:    []discord.InteractionContextType{discord.InteractionContextTypeGuild},
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "query",
			Description: "Name, series, element or role terms. Separate several cards with commas.",
			Required:    true,
		},
	},
}

func (a *App) handleCard(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	query := strings.TrimSpace(data.String("query"))
	if query == "" {
		respondEphemeral(event, sys.MsgSearchNoMatch)
		return
	}

	err := event.CreateMessage(discord.NewMessageCreate().
		WithIsComponentsV2(true).
		WithComponents(a.searchComponents(event.User().ID, query)...).
		WithAllowedMentions(&discord.AllowedMentions{}))
	if err != nil {
		sys.LogError(sys.MsgInteractionRespFail, err)
	}
}
