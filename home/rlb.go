package home

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/access"
	"github.com/leeineian/luvibot/leaderboard"
	"github.com/leeineian/luvibot/sys"
)

var rlbAdminPerm = discord.PermissionAdministrator

var rlbCommand = discord.SlashCommandCreate{
	Name:                     "rlb",
	Description:              "Show this server's drop leaderboard",
	DefaultMemberPermissions: omit.New(&rlbAdminPerm),
	Contexts:                 []discord.InteractionContextType{discord.InteractionContextTypeGuild},
}

// memberPermissions is the interaction member's permission set in the
// current channel, or none outside a guild.
func memberPermissions(m *discord.ResolvedMember) discord.Permissions {
	if m == nil {
		return 0
	}
	return m.Permissions
}

func (a *App) handleRlb(event *events.ApplicationCommandInteractionCreate) {
	guildID := event.GuildID()
	if guildID == nil {
		respondEphemeral(event, sys.ErrGuildOnly)
		return
	}
	actor := event.User().ID
	perms := memberPermissions(event.Member())
	if !a.policy.Allowed(actor, perms, access.ViewLeaderboard) {
		respondEphemeral(event, sys.ErrNoPermission)
		return
	}

	container, err := a.leaderboardContainer(sys.AppContext, *guildID, leaderboard.View{State: leaderboard.AllDrops},
		a.policy.Allowed(actor, perms, access.ResetLeaderboard),
		a.policy.Allowed(actor, perms, access.ViewAllPages), "")
	if err != nil {
		sys.LogError(sys.MsgLeaderboardLoadFail, *guildID, err)
		respondEphemeral(event, sys.ErrGeneric)
		return
	}

	err = event.CreateMessage(discord.NewMessageCreate().
		WithIsComponentsV2(true).
		WithComponents(container).
		WithAllowedMentions(&discord.AllowedMentions{}))
	if err != nil {
		sys.LogError(sys.MsgInteractionRespFail, err)
	}
}

func (a *App) handleRlbButton(event *events.ComponentInteractionCreate) {
	v, action, err := leaderboard.ParseCustomID(event.Data.CustomID())
	guildID := event.GuildID()
	if err != nil || guildID == nil {
		_ = event.DeferUpdateMessage()
		return
	}
	actor := event.User().ID
	perms := memberPermissions(event.Member())
	if !a.policy.Allowed(actor, perms, access.ViewLeaderboard) {
		respondEphemeral(event, sys.ErrNoPermission)
		return
	}
	canReset := a.policy.Allowed(actor, perms, access.ResetLeaderboard)

	step, err := leaderboard.Transition(v, action, canReset)
	switch {
	case errors.Is(err, leaderboard.ErrUnauthorized):
		respondEphemeral(event, sys.ErrNoPermission)
		return
	case err != nil:
		_ = event.DeferUpdateMessage()
		return
	}

	ctx := sys.AppContext
	note := ""
	if step.ClearGuild {
		if err := a.leaderboard.Reset(ctx, *guildID); err != nil {
			sys.LogError(sys.MsgLeaderboardResetFail, *guildID, err)
			respondEphemeral(event, sys.ErrGeneric)
			return
		}
		sys.LogLeaderboard(sys.MsgLeaderboardReset, *guildID, actor)
		note = fmt.Sprintf(sys.MsgLeaderboardResetDone, actor)
	}

	container, err := a.leaderboardContainer(ctx, *guildID, step.Next, canReset,
		a.policy.Allowed(actor, perms, access.ViewAllPages), note)
	if err != nil {
		sys.LogError(sys.MsgLeaderboardLoadFail, *guildID, err)
		respondEphemeral(event, sys.ErrGeneric)
		return
	}

	err = event.UpdateMessage(discord.NewMessageUpdate().
		WithIsComponentsV2(true).
		WithComponents(container).
		WithAllowedMentions(&discord.AllowedMentions{}))
	if err != nil {
		sys.LogError(sys.MsgInteractionRespFail, err)
	}
}

// leaderboardContainer renders v from fresh store reads. note, when set, is
// shown above the table.
func (a *App) leaderboardContainer(ctx context.Context, guildID snowflake.ID, v leaderboard.View, canReset, allPages bool, note string) (discord.ContainerComponent, error) {
	if v.State == leaderboard.ResetConfirm {
		return discord.NewContainer(
			discord.NewTextDisplay(sys.MsgLeaderboardResetAsk),
			discord.NewActionRow(
				discord.NewDangerButton(sys.MsgLeaderboardBtnConfirm, leaderboard.CustomID(v, leaderboard.Confirm)),
				discord.NewSecondaryButton(sys.MsgLeaderboardBtnCancel, leaderboard.CustomID(v, leaderboard.Cancel)),
			),
		), nil
	}

	var (
		title, body  string
		page, pages  int
		switchButton discord.InteractiveComponent
	)
	if v.State == leaderboard.RarityDrops {
		p, err := a.leaderboard.PageRarity(ctx, guildID, v.Page, allPages)
		if err != nil {
			return discord.ContainerComponent{}, err
		}
		title, page, pages = sys.MsgLeaderboardRarityTitle, p.Page, p.TotalPages
		body = sys.MsgLeaderboardNoRarity
		if p.Total > 0 {
			body = leaderboard.RenderRarity(p)
		}
		v.Page = p.Page
		switchButton = discord.NewSecondaryButton(sys.MsgLeaderboardBtnBack, leaderboard.CustomID(v, leaderboard.Back))
	} else {
		p, err := a.leaderboard.PageDrops(ctx, guildID, v.Page, allPages)
		if err != nil {
			return discord.ContainerComponent{}, err
		}
		title, page, pages = sys.MsgLeaderboardDropsTitle, p.Page, p.TotalPages
		body = sys.MsgLeaderboardNoDrops
		if p.Total > 0 {
			body = leaderboard.RenderDrops(p)
		}
		v.Page = p.Page
		switchButton = discord.NewPrimaryButton(sys.MsgLeaderboardBtnRarity, leaderboard.CustomID(v, leaderboard.ShowRarity))
	}

	text := "## " + title + "\n"
	if note != "" {
		text += note + "\n"
	}
	text += "\n" + body + "\n\n-# " + fmt.Sprintf(sys.MsgLeaderboardPageFooter, page+1, pages)

	prev := discord.NewSecondaryButton(sys.MsgLeaderboardBtnPrev, leaderboard.CustomID(v, leaderboard.PrevPage))
	if page == 0 {
		prev = prev.WithDisabled(true)
	}
	next := discord.NewSecondaryButton(sys.MsgLeaderboardBtnNext, leaderboard.CustomID(v, leaderboard.NextPage))
	if page >= pages-1 {
		next = next.WithDisabled(true)
	}
	buttons := []discord.InteractiveComponent{prev, next, switchButton}

	if v.State == leaderboard.AllDrops {
		reset := discord.NewDangerButton(sys.MsgLeaderboardBtnReset, leaderboard.CustomID(v, leaderboard.Reset))
		if !canReset {
			reset = reset.WithDisabled(true)
		}
		buttons = append(buttons, reset)
	}

	return discord.NewContainer(
		discord.NewTextDisplay(text),
		discord.NewSeparator(discord.SeparatorSpacingSizeSmall).WithDivider(true),
		discord.NewActionRow(buttons...),
	), nil
}
