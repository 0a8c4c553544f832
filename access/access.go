// Package access holds the one authorization predicate every handler asks.
package access

import (
	"slices"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

type Capability int

const (
	// ViewLeaderboard opens /rlb.
	ViewLeaderboard Capability = iota
	// ResetLeaderboard wipes a guild's counters.
	ResetLeaderboard
	// ViewAllPages pages past the public leaderboard window.
	ViewAllPages
	// ManageRoles edits the guild's boss-role settings.
	ManageRoles
)

func (c Capability) String() string {
	switch c {
	case ViewLeaderboard:
		return "view_leaderboard"
	case ResetLeaderboard:
		return "reset_leaderboard"
	case ViewAllPages:
		return "view_all_pages"
	case ManageRoles:
		return "manage_roles"
	default:
		return "unknown"
	}
}

// Policy knows the configured bot owners. Owners hold every capability.
type Policy struct {
	Owners []snowflake.ID
}

func NewPolicy(owners []snowflake.ID) Policy {
	return Policy{Owners: slices.Clone(owners)}
}

func (p Policy) IsOwner(id snowflake.ID) bool {
	return id != 0 && slices.Contains(p.Owners, id)
}

// Allowed reports whether actor, holding perms in the current guild, may use
// capability c.
func (p Policy) Allowed(actor snowflake.ID, perms discord.Permissions, c Capability) bool {
	if p.IsOwner(actor) {
		return true
	}
	admin := perms.Has(discord.PermissionAdministrator)
	switch c {
	case ViewLeaderboard, ResetLeaderboard:
		return admin
	case ManageRoles:
		return admin || perms.Has(discord.PermissionManageRoles)
	default:
		return false
	}
}
