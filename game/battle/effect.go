package battle

import "fmt"

// Effect is a stateless rule object attached to skills and items. Apply
// returns false when nothing happened: failed chance roll, no valid target,
// or the change had no effect.
type Effect interface {
	Name() string
	Apply(ctx Context, user, target *Creature) bool
}

// failureOnly marks effects that fire when the carrying skill failed.
type failureOnly interface {
	onFailure()
}

// EffectTarget picks who an effect lands on, independently of the skill's target.
type EffectTarget int

const (
	// EffectTargetDefault follows the skill's resolved target.
	EffectTargetDefault EffectTarget = iota
	EffectTargetSelf
	EffectTargetOpponent
	EffectTargetRandom
	EffectTargetBoth
)

// ParseEffectTarget maps a catalog name to an EffectTarget.
func ParseEffectTarget(s string) (EffectTarget, error) {
	switch s {
	case "", "default", "target":
		return EffectTargetDefault, nil
	case "self", "user":
		return EffectTargetSelf, nil
	case "opponent":
		return EffectTargetOpponent, nil
	case "random":
		return EffectTargetRandom, nil
	case "both":
		return EffectTargetBoth, nil
	}
	return 0, fmt.Errorf("unknown effect target %q", s)
}

// EffectBase carries the trigger chance and target policy every effect shares.
// A zero Chance means 100.
type EffectBase struct {
	Chance int
	Target EffectTarget
}

func (b EffectBase) roll(ctx Context) bool {
	if b.Chance <= 0 {
		return true
	}
	return rollPercent(ctx.RNG(), b.Chance)
}

func (b EffectBase) targets(ctx Context, user, target *Creature) []*Creature {
	var out []*Creature
	switch b.Target {
	case EffectTargetSelf:
		out = []*Creature{user}
	case EffectTargetOpponent:
		out = []*Creature{ctx.Opponent(user)}
	case EffectTargetRandom:
		pool := []*Creature{user, ctx.Opponent(user)}
		out = []*Creature{pool[ctx.RNG().Intn(len(pool))]}
	case EffectTargetBoth:
		out = []*Creature{user, ctx.Opponent(user)}
	default:
		out = []*Creature{target}
	}
	kept := out[:0]
	for _, c := range out {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return kept
}

// each rolls the chance once, then runs fn on every resolved target.
func (b EffectBase) each(ctx Context, user, target *Creature, fn func(t *Creature) bool) bool {
	if !b.roll(ctx) {
		return false
	}
	applied := false
	for _, t := range b.targets(ctx, user, target) {
		if fn(t) {
			applied = true
		}
	}
	return applied
}

// StatusEffect inflicts a status condition. Duration 0 uses the condition's default.
type StatusEffect struct {
	EffectBase
	Status   StatusCondition
	Duration int
}

func (e *StatusEffect) Name() string { return "status:" + e.Status.String() }

func (e *StatusEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		if t.Fainted() {
			return false
		}
		if t.Status() == e.Status || t.Immune(ImmuneStatus) {
			ctx.Logf(user, t, "%s is unaffected", t.Name)
			return false
		}
		InflictStatus(ctx, t, e.Status, e.Duration, user.Handle())
		return true
	})
}

// InflictStatus sets s on c and, for timed conditions, installs the timer that clears it.
func InflictStatus(ctx Context, c *Creature, s StatusCondition, duration int, source Handle) {
	c.SetStatusCondition(s)
	if s == StatusNone {
		return
	}
	if verb, ok := statusVerbs[s]; ok && ctx != nil {
		ctx.Logf(nil, c, "%s %s", c.Name, verb)
	}
	if duration <= 0 {
		duration = DefaultStatusDuration(s)
	}
	if duration <= 0 {
		return
	}
	timer := NewTimedEffect(tagStatus+":"+s.String(), duration, PhaseTurnEnd, source)
	timer.Tag = tagStatus
	timer.OnExpire = func(ctx Context, owner *Creature) {
		if owner.Status() != s {
			return
		}
		owner.ClearStatusCondition()
		if ctx != nil {
			ctx.Logf(nil, owner, "%s is no longer %s", owner.Name, s)
		}
	}
	c.AddTurnEffect(timer)
}

// StatChangeEffect applies stage deltas.
type StatChangeEffect struct {
	EffectBase
	Deltas []StatDelta
}

func (e *StatChangeEffect) Name() string { return "stat_change" }

func (e *StatChangeEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		return applyStatDeltas(ctx, user, t, e.Deltas)
	})
}

func applyStatDeltas(ctx Context, user, t *Creature, deltas []StatDelta) bool {
	if t.Fainted() {
		return false
	}
	changed := false
	for _, d := range deltas {
		if d.Delta < 0 && t != user && t.Immune(ImmuneStatDrop) {
			ctx.Logf(user, t, "%s's stats cannot be lowered", t.Name)
			continue
		}
		if t.ModifyStatStage(d.Stat, d.Delta) {
			changed = true
			ctx.Logf(user, t, "%s's %s %s", t.Name, d.Stat, stageVerb(d.Delta))
			continue
		}
		if d.Delta > 0 {
			ctx.Logf(user, t, "%s's %s won't go any higher", t.Name, d.Stat)
		} else {
			ctx.Logf(user, t, "%s's %s won't go any lower", t.Name, d.Stat)
		}
	}
	return changed
}

func stageVerb(delta int) string {
	switch {
	case delta >= 2:
		return "rose sharply"
	case delta > 0:
		return "rose"
	case delta <= -2:
		return "fell harshly"
	default:
		return "fell"
	}
}

// ClearEffect strips stat changes, status and timed effects.
type ClearEffect struct {
	EffectBase
	Positive bool
	Negative bool
	Status   bool
	Timed    bool
}

func (e *ClearEffect) Name() string { return "clear" }

func (e *ClearEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		cleared := false
		for k := StatKind(0); k < statKindCount; k++ {
			s := t.Stage(k)
			if (s > 0 && e.Positive) || (s < 0 && e.Negative) {
				cleared = t.ModifyStatStage(k, -s) || cleared
			}
		}
		if e.Status && t.Status() != StatusNone {
			t.ClearStatusCondition()
			cleared = true
		}
		if e.Timed {
			before := len(t.timed)
			t.ClearAllTurnEffects()
			cleared = len(t.timed) < before || cleared
		}
		if cleared {
			ctx.Logf(user, t, "%s's changes were cleared", t.Name)
		}
		return cleared
	})
}

// ImmunityKind names an interaction an immunity window suppresses.
type ImmunityKind int

const (
	ImmuneDamage ImmunityKind = iota
	ImmuneStatus
	ImmuneStatDrop
	ImmuneCritical
)

var immunityNames = [...]string{"damage", "status", "stat_drop", "critical"}

func (k ImmunityKind) String() string {
	if k < 0 || int(k) >= len(immunityNames) {
		return "unknown"
	}
	return immunityNames[k]
}

func (k ImmunityKind) tag() string { return "immunity:" + k.String() }

// ParseImmunity maps a catalog name to an ImmunityKind.
func ParseImmunity(s string) (ImmunityKind, error) {
	for i, n := range immunityNames {
		if n == s {
			return ImmunityKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown immunity %q", s)
}

// ImmunityEffect opens a window of Duration turns during which Kind is suppressed.
type ImmunityEffect struct {
	EffectBase
	Kind     ImmunityKind
	Duration int
}

func (e *ImmunityEffect) Name() string { return e.Kind.tag() }

func (e *ImmunityEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		if t.Fainted() || t.Immune(e.Kind) {
			return false
		}
		w := NewTimedEffect(e.Name(), e.Duration, PhaseTurnEnd, user.Handle())
		w.Tag = e.Kind.tag()
		t.AddTurnEffect(w)
		ctx.Logf(user, t, "%s is protected from %s", t.Name, e.Kind)
		return true
	})
}

// HealEffect restores a flat amount plus a percentage of max HP.
type HealEffect struct {
	EffectBase
	Amount  int
	Percent int
}

func (e *HealEffect) Name() string { return "heal" }

func (e *HealEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		n := e.Amount + t.MaxHP()*e.Percent/100
		healed := t.Heal(n)
		if healed > 0 {
			ctx.Logf(user, t, "%s recovered %d HP", t.Name, healed)
		}
		return healed > 0
	})
}

// FixedDamageEffect deals Amount damage, ignoring stats and type.
type FixedDamageEffect struct {
	EffectBase
	Amount int
}

func (e *FixedDamageEffect) Name() string { return "fixed_damage" }

func (e *FixedDamageEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		if t.Immune(ImmuneDamage) {
			return false
		}
		return dealDamage(ctx, user, t, e.Amount) > 0
	})
}

// CritModifierEffect raises the critical chance of its target. Duration 0
// lasts for the rest of the battle.
type CritModifierEffect struct {
	EffectBase
	Bonus    float64
	Duration int
}

func (e *CritModifierEffect) Name() string { return "crit_modifier" }

func (e *CritModifierEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		if t.Fainted() || e.Bonus == 0 {
			return false
		}
		t.addCritBonus(e.Bonus)
		ctx.Logf(user, t, "%s is getting pumped", t.Name)
		if e.Duration > 0 {
			bonus := e.Bonus
			w := NewTimedEffect(e.Name(), e.Duration, PhaseTurnEnd, user.Handle())
			w.OnExpire = func(_ Context, owner *Creature) { owner.addCritBonus(-bonus) }
			t.AddTurnEffect(w)
		}
		return true
	})
}

// FailureCompensation runs Inner only when the carrying skill failed.
type FailureCompensation struct {
	EffectBase
	Inner Effect
}

func (e *FailureCompensation) Name() string { return "on_failure:" + e.Inner.Name() }

func (e *FailureCompensation) onFailure() {}

func (e *FailureCompensation) Apply(ctx Context, user, target *Creature) bool {
	if e.Inner == nil || !e.roll(ctx) {
		return false
	}
	return e.Inner.Apply(ctx, user, target)
}

// TurnBasedEffect installs a timed effect that runs Each on its owner every
// turn for Duration turns, at the start or end of the turn.
type TurnBasedEffect struct {
	EffectBase
	Label    string
	Duration int
	Phase    Phase
	Each     Effect
}

func (e *TurnBasedEffect) Name() string {
	if e.Label != "" {
		return e.Label
	}
	if e.Each == nil {
		return "turn_based"
	}
	return "turn_based:" + e.Each.Name()
}

func (e *TurnBasedEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		if t.Fainted() || e.Each == nil {
			return false
		}
		// One running instance per name; reapplying refreshes it.
		for _, old := range t.TurnEffects() {
			if old.Name == e.Name() {
				t.EndTurnEffect(ctx, old)
			}
		}
		each := e.Each
		w := NewTimedEffect(e.Name(), e.Duration, e.Phase, user.Handle())
		w.OnTick = func(ctx Context, owner, source *Creature) {
			if owner.Fainted() {
				return
			}
			if source == nil {
				source = owner
			}
			each.Apply(ctx, source, owner)
		}
		t.AddTurnEffect(w)
		return true
	})
}

// RestorePPEffect refills Amount PP.
type RestorePPEffect struct {
	EffectBase
	Amount int
}

func (e *RestorePPEffect) Name() string { return "restore_pp" }

func (e *RestorePPEffect) Apply(ctx Context, user, target *Creature) bool {
	return e.each(ctx, user, target, func(t *Creature) bool {
		n := t.RestorePP(e.Amount)
		if n > 0 {
			ctx.Logf(user, t, "%s restored %d PP", t.Name, n)
		}
		return n > 0
	})
}

// dealDamage applies n damage from user to t and records a knockout.
func dealDamage(ctx Context, user, t *Creature, n int) int {
	wasUp := !t.Fainted()
	lost := t.TakeDamage(n)
	if wasUp && t.Fainted() {
		if user != nil && user != t {
			user.knockouts++
		}
		if ctx != nil {
			ctx.Logf(user, t, "%s fainted", t.Name)
		}
	}
	return lost
}
