package battle

// Policy picks an action for a side that has no human behind it.
type Policy interface {
	Choose(b *BattleInstance, side Side) (kind ActionKind, param1, param2 int)
}

// RandomPolicy picks a random usable skill. When the active creature cannot
// act it switches to the first healthy reserve, or rests to restore PP.
// An incapacitated creature with no reserve still rests; the rest is lost.
type RandomPolicy struct{}

func (RandomPolicy) Choose(b *BattleInstance, side Side) (ActionKind, int, int) {
	actor := b.Active(side)
	if !actor.Fainted() && !incapacitated(actor) {
		if slots := UsableSkills(b, actor); len(slots) > 0 {
			return ActionSkill, slots[b.rng.Intn(len(slots))], 0
		}
	}
	if i := reserveIndex(b, side); i >= 0 {
		return ActionSwitch, i, 0
	}
	return ActionRestorePP, 0, 0
}

// UsableSkills lists the slots actor can use right now.
func UsableSkills(ctx Context, actor *Creature) []int {
	var slots []int
	for slot := 0; slot <= MaxSkills; slot++ {
		s := actor.Skill(slot)
		if s != nil && s.Usable(ctx, actor) {
			slots = append(slots, slot)
		}
	}
	return slots
}

// incapacitated reports whether the current status blocks every action.
func incapacitated(c *Creature) bool {
	switch c.Status() {
	case StatusSleep, StatusFreeze, StatusTired:
		return true
	}
	return false
}

func reserveIndex(b *BattleInstance, side Side) int {
	for i, c := range b.teams[side] {
		if i != b.active[side] && !c.Fainted() {
			return i
		}
	}
	return -1
}
