package battle

import (
	"fmt"
	"strings"
)

// Side is one of the two parties of a battle.
type Side int

const (
	SidePlayer Side = iota
	SideOpponent
)

func (s Side) String() string {
	if s == SideOpponent {
		return "opponent"
	}
	return "player"
}

// Other returns the opposing side.
func (s Side) Other() Side { return 1 - s }

// ParseSide maps "player" / "opponent" to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "player", "0":
		return SidePlayer, nil
	case "opponent", "1":
		return SideOpponent, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// ActionKind is what a side does with its turn.
type ActionKind int

const (
	// ActionSkill: param1 is the skill slot (MaxSkills for the fifth skill).
	ActionSkill ActionKind = iota
	// ActionSwitch: param1 is the roster index to send in.
	ActionSwitch
	// ActionItem: param1 is the bag slot.
	ActionItem
	ActionEscape
	ActionRestorePP
)

var actionNames = [...]string{"skill", "switch", "item", "escape", "restore_pp"}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[k]
}

// ParseActionKind maps an API name to an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	for i, n := range actionNames {
		if n == s {
			return ActionKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Fixed priorities of non-skill actions. Skills use their own priority.
const (
	PriorityEscape    = 7
	PrioritySwitch    = 6
	PriorityItem      = 5
	PriorityRestorePP = 0
)

// QueueEntry is one submitted action. Priority and speed are computed when
// it is submitted; the entry lives until the end of the turn.
type QueueEntry struct {
	Side     Side
	Actor    Handle
	Kind     ActionKind
	Param1   int
	Param2   int
	Priority int
	Speed    int
}

// actionPriority returns the queue priority of kind for actor.
func actionPriority(actor *Creature, kind ActionKind, param1 int) int {
	switch kind {
	case ActionEscape:
		return PriorityEscape
	case ActionSwitch:
		return PrioritySwitch
	case ActionItem:
		return PriorityItem
	case ActionSkill:
		if s := actor.Skill(param1); s != nil {
			return s.Priority
		}
	}
	return PriorityRestorePP
}

// speedSnapshot is the actor's effective speed, halved while paralyzed.
func speedSnapshot(actor *Creature) int {
	sp := actor.EffectiveStat(StatSpeed)
	if actor.Status() == StatusParalyze {
		sp /= 2
	}
	return sp
}
