package leaderboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type State int

const (
	AllDrops State = iota
	RarityDrops
	ResetConfirm
)

func (s State) String() string {
	switch s {
	case RarityDrops:
		return "rarity"
	case ResetConfirm:
		return "confirm"
	default:
		return "drops"
	}
}

type Action int

const (
	ShowRarity Action = iota
	Back
	Reset
	Confirm
	Cancel
	NextPage
	PrevPage
)

var actionNames = map[Action]string{
	ShowRarity: "rarity",
	Back:       "back",
	Reset:      "reset",
	Confirm:    "confirm",
	Cancel:     "cancel",
	NextPage:   "next",
	PrevPage:   "prev",
}

func (a Action) String() string { return actionNames[a] }

var (
	ErrUnauthorized      = errors.New("not allowed to reset this leaderboard")
	ErrInvalidTransition = errors.New("action not available in this view")
	ErrBadCustomID       = errors.New("malformed leaderboard custom id")
)

// View is where a leaderboard message currently is.
type View struct {
	State State
	Page  int
}

// Step is the outcome of one transition. ClearGuild asks the caller to wipe
// the guild's counters before rendering Next.
type Step struct {
	Next       View
	ClearGuild bool
}

// Transition applies a button press. Every result is re-rendered from the
// store by the caller; nothing from the previous render is carried over.
func Transition(v View, a Action, canReset bool) (Step, error) {
	switch {
	case v.State == AllDrops && a == ShowRarity:
		return Step{Next: View{State: RarityDrops}}, nil
	case v.State == RarityDrops && a == Back:
		return Step{Next: View{State: AllDrops}}, nil
	case v.State == AllDrops && a == Reset:
		if !canReset {
			return Step{Next: v}, ErrUnauthorized
		}
		return Step{Next: View{State: ResetConfirm, Page: v.Page}}, nil
	case v.State == ResetConfirm && a == Confirm:
		if !canReset {
			return Step{Next: v}, ErrUnauthorized
		}
		return Step{Next: View{State: AllDrops}, ClearGuild: true}, nil
	case v.State == ResetConfirm && a == Cancel:
		return Step{Next: View{State: AllDrops, Page: v.Page}}, nil
	case v.State != ResetConfirm && a == NextPage:
		return Step{Next: View{State: v.State, Page: v.Page + 1}}, nil
	case v.State != ResetConfirm && a == PrevPage:
		if v.Page == 0 {
			return Step{Next: v}, ErrInvalidTransition
		}
		return Step{Next: View{State: v.State, Page: v.Page - 1}}, nil
	}
	return Step{Next: v}, ErrInvalidTransition
}

const customIDPrefix = "rlb:"

// CustomIDPrefix routes every leaderboard button to one handler.
func CustomIDPrefix() string { return customIDPrefix }

// CustomID encodes the view a button was rendered in plus the action.
func CustomID(v View, a Action) string {
	return fmt.Sprintf("%s%s:%s:%d", customIDPrefix, v.State, a, v.Page)
}

// ParseCustomID is the inverse of CustomID.
func ParseCustomID(id string) (View, Action, error) {
	rest, ok := strings.CutPrefix(id, customIDPrefix)
	if !ok {
		return View{}, 0, ErrBadCustomID
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return View{}, 0, ErrBadCustomID
	}

	var v View
	switch parts[0] {
	case AllDrops.String():
		v.State = AllDrops
	case RarityDrops.String():
		v.State = RarityDrops
	case ResetConfirm.String():
		v.State = ResetConfirm
	default:
		return View{}, 0, ErrBadCustomID
	}

	action := Action(-1)
	for a, name := range actionNames {
		if name == parts[1] {
			action = a
		}
	}
	if action < 0 {
		return View{}, 0, ErrBadCustomID
	}

	page, err := strconv.Atoi(parts[2])
	if err != nil || page < 0 {
		return View{}, 0, ErrBadCustomID
	}
	v.Page = page
	return v, action, nil
}
