package battle

// DirectDamage is the plain physical/special resolution: roll to hit, deal
// damage, run every effect.
type DirectDamage struct{}

func (DirectDamage) Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome) {
	if !s.CheckHit(ctx, user, target) {
		return
	}
	if strike(ctx, s, user, target, out) {
		s.applyEffects(ctx, user, target, false)
	}
}

// strike runs the damage pipeline once and applies it. An immune target
// leaves the outcome a no-effect failure and reports false.
func strike(ctx Context, s *Skill, user, target *Creature, out *Outcome) bool {
	d := ComputeDamage(ctx, s, user, target)
	out.Effectiveness = d.Effectiveness
	if d.Effectiveness == 0 {
		out.Reason = FailNoEffect
		return false
	}
	out.Hit = true
	out.Strikes++
	out.Critical = out.Critical || d.Critical
	if d.Amount > 0 {
		out.Damage += dealDamage(ctx, user, target, d.Amount)
	}
	return true
}

// Composite deals damage and then runs its bonus effects together, gated by
// one roll of Chance percent.
type Composite struct {
	Chance int
}

func (c Composite) Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome) {
	if !s.CheckHit(ctx, user, target) {
		return
	}
	if !strike(ctx, s, user, target, out) {
		return
	}
	if rollPercent(ctx.RNG(), c.Chance) {
		s.applyEffects(ctx, user, target, false)
	}
}

// MultiHit strikes between Min and Max times. Effects are re-rolled per
// strike. A miss after the first strike or a fainted target stops the chain.
type MultiHit struct {
	Min, Max int
}

func (m MultiHit) Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome) {
	lo, hi := m.Min, m.Max
	if lo <= 0 {
		lo = ctx.Rules().MultiHitMin
	}
	if hi < lo {
		hi = max(ctx.Rules().MultiHitMax, lo)
	}
	n := lo + ctx.RNG().Intn(hi-lo+1)
	for i := 0; i < n; i++ {
		if !s.CheckHit(ctx, user, target) {
			break
		}
		if !strike(ctx, s, user, target, out) {
			break
		}
		s.applyEffects(ctx, user, target, false)
		if target.Fainted() {
			break
		}
	}
	if out.Strikes > 1 {
		ctx.Logf(user, target, "hit %d times", out.Strikes)
	}
}

// FixedDamage deals Amount regardless of stats. Type immunity still applies.
type FixedDamage struct {
	Amount int
}

func (f FixedDamage) Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome) {
	if !s.CheckHit(ctx, user, target) {
		return
	}
	out.Hit = true
	out.Strikes = 1
	out.Effectiveness = ctx.Chart().Effectiveness(s.Type, target.Type)
	if out.Effectiveness == 0 || target.Immune(ImmuneDamage) {
		out.Reason = FailNoEffect
		out.Hit = false
		return
	}
	out.Damage = dealDamage(ctx, user, target, f.Amount)
	s.applyEffects(ctx, user, target, false)
}

// Healing restores Amount plus Percent of the target's max HP.
type Healing struct {
	Amount  int
	Percent int
}

func (h Healing) Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome) {
	n := h.Amount + target.MaxHP()*h.Percent/100
	healed := target.Heal(n)
	if healed == 0 {
		out.Reason = FailNoEffect
		return
	}
	out.Hit = true
	ctx.Logf(user, target, "%s recovered %d HP", target.Name, healed)
	s.applyEffects(ctx, user, target, false)
}

// StatChange applies its deltas to the resolved target. It counts as a
// failure when no stage moved.
type StatChange struct {
	Deltas []StatDelta
}

func (sc StatChange) Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome) {
	if !s.CheckHit(ctx, user, target) {
		return
	}
	if !applyStatDeltas(ctx, user, target, sc.Deltas) {
		out.Reason = FailNoEffect
		return
	}
	out.Hit = true
	s.applyEffects(ctx, user, target, false)
}

// StatusMove rolls to hit and then relies entirely on the skill's effects.
type StatusMove struct{}

func (StatusMove) Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome) {
	if !s.CheckHit(ctx, user, target) {
		return
	}
	out.Hit = true
	s.applyEffects(ctx, user, target, false)
}

// UnlockCondition gates a signature skill. Zero fields are not checked; every
// set field must hold.
type UnlockCondition struct {
	// UserHPBelow: user HP strictly below this percent of max.
	UserHPBelow int `yaml:"user_hp_below" json:"user_hp_below,omitempty"`
	// PriorKnockouts: the user knocked out at least this many creatures this battle.
	PriorKnockouts int `yaml:"prior_knockouts" json:"prior_knockouts,omitempty"`
	// TargetHPMin/TargetHPMax: target HP percent within [min, max].
	TargetHPMin int `yaml:"target_hp_min" json:"target_hp_min,omitempty"`
	TargetHPMax int `yaml:"target_hp_max" json:"target_hp_max,omitempty"`
	// FromTurn: the battle reached this turn.
	FromTurn int `yaml:"from_turn" json:"from_turn,omitempty"`
}

// Met reports whether every set condition holds.
func (u UnlockCondition) Met(ctx Context, user, target *Creature) bool {
	if u.UserHPBelow > 0 && hpPercent(user) >= u.UserHPBelow {
		return false
	}
	if u.PriorKnockouts > 0 && user.Knockouts() < u.PriorKnockouts {
		return false
	}
	if u.TargetHPMin > 0 || u.TargetHPMax > 0 {
		if target == nil {
			return false
		}
		hi := u.TargetHPMax
		if hi == 0 {
			hi = 100
		}
		p := hpPercent(target)
		if p < u.TargetHPMin || p > hi {
			return false
		}
	}
	if u.FromTurn > 0 && ctx.Turn() < u.FromTurn {
		return false
	}
	return true
}

func hpPercent(c *Creature) int {
	return c.HP() * 100 / c.MaxHP()
}

// Signature wraps another resolution behind unlock conditions. A locked
// signature skill fails before any PP is spent.
type Signature struct {
	Inner  Resolution
	Unlock UnlockCondition
}

func (sg Signature) Unlocked(ctx Context, user, target *Creature) bool {
	return sg.Unlock.Met(ctx, user, target)
}

func (sg Signature) Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome) {
	inner := sg.Inner
	if inner == nil {
		inner = DirectDamage{}
	}
	inner.Resolve(ctx, s, user, target, out)
}
