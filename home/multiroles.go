package home

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/access"
	"github.com/leeineian/luvibot/store"
	"github.com/leeineian/luvibot/sys"
)

var manageRolesPerm = discord.PermissionManageRoles

var bossTiers = []string{"tier1", "tier2", "tier3"}

var multiRolesCommand = discord.SlashCommandCreate{
	Name:                     "multi-roles",
	Description:              "Enable or disable multi-role system for boss tiers",
	DefaultMemberPermissions: omit.New(&manageRolesPerm),
	Contexts:                 []discord.InteractionContextType{discord.InteractionContextTypeGuild},
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "enable",
			Description: "Enable multi-role system (separate roles for each tier)",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "disable",
			Description: "Disable multi-role system (use single role for all bosses)",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "set-boss",
			Description: "Set role for a specific boss tier",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "tier",
					Description: "Boss tier",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Tier 1", Value: "tier1"},
						{Name: "Tier 2", Value: "tier2"},
						{Name: "Tier 3", Value: "tier3"},
					},
				},
				discord.ApplicationCommandOptionRole{
					Name:        "role",
					Description: "Role to ping for this tier",
					Required:    false,
				},
			},
		},
	},
}

// tierIndex maps "tier1".."tier3" to 0..2.
func tierIndex(tier string) (int, bool) {
	for i, t := range bossTiers {
		if t == tier {
			return i, true
		}
	}
	return 0, false
}

// applyMultiRole mutates s for one subcommand and returns the reply.
func applyMultiRole(s *store.GuildSettings, sub, tier string, role snowflake.ID) (string, bool) {
	switch sub {
	case "enable":
		s.MultiRoleEnabled = true
		return sys.MsgMultiRoleEnabled, true
	case "disable":
		s.MultiRoleEnabled = false
		return sys.MsgMultiRoleDisabled, true
	case "set-boss":
		if !s.MultiRoleEnabled {
			return sys.ErrMultiRoleNotEnabled, false
		}
		i, ok := tierIndex(tier)
		if !ok {
			return sys.ErrGeneric, false
		}
		s.TierRoleIDs[i] = role
		if role == 0 {
			return fmt.Sprintf(sys.MsgMultiRoleTierRemoved, strings.ToUpper(tier)), true
		}
		return fmt.Sprintf(sys.MsgMultiRoleTierSet, strings.ToUpper(tier), role), true
	}
	return sys.ErrGeneric, false
}

func (a *App) handleMultiRoles(event *events.ApplicationCommandInteractionCreate) {
	guildID := event.GuildID()
	if guildID == nil {
		respondEphemeral(event, sys.ErrGuildOnly)
		return
	}
	if !a.policy.Allowed(event.User().ID, memberPermissions(event.Member()), access.ManageRoles) {
		respondEphemeral(event, sys.ErrNoPermission)
		return
	}

	data := event.SlashCommandInteractionData()
	if data.SubCommandName == nil {
		return
	}
	role, _ := data.OptSnowflake("role")

	ctx := sys.AppContext
	settings, err := a.store.GetGuildSettings(ctx, *guildID)
	if err != nil {
		sys.LogError(sys.MsgMultiRoleSaveFail, *guildID, err)
		respondEphemeral(event, sys.ErrGeneric)
		return
	}

	reply, changed := applyMultiRole(&settings, *data.SubCommandName, data.String("tier"), role)
	if changed {
		if err := a.store.SaveGuildSettings(ctx, settings); err != nil {
			sys.LogError(sys.MsgMultiRoleSaveFail, *guildID, err)
			respondEphemeral(event, sys.ErrGeneric)
			return
		}
	}
	respondEphemeral(event, reply)
}
