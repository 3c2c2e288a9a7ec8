package battle

// Damage is the result of one run of the damage pipeline.
type Damage struct {
	Amount        int
	Critical      bool
	Effectiveness float64
}

// BaseDamage is the stat-driven part of the formula, truncated where the
// balance tables expect it:
//
//	floor(floor(2*level/5 + 2) * power * atk / def / 50) + 2
func BaseDamage(level, power, atk, def int) int {
	if def < 1 {
		def = 1
	}
	return (2*level/5+2)*power*atk/def/50 + 2
}

// ComputeDamage runs the full pipeline: base damage, same-type bonus, type
// effectiveness, critical roll, variance, and the burn penalty for physical
// skills. A non-immune hit deals at least 1.
func ComputeDamage(ctx Context, s *Skill, user, target *Creature) Damage {
	rules := ctx.Rules()
	d := Damage{Effectiveness: 1}
	if target.Immune(ImmuneDamage) {
		d.Effectiveness = 0
		return d
	}

	atkKind, defKind := StatAttack, StatDefense
	if s.Category == CategorySpecial {
		atkKind, defKind = StatSpAttack, StatSpDefense
	}
	base := BaseDamage(user.Level, s.Power, user.EffectiveStat(atkKind), target.EffectiveStat(defKind))

	f := float64(base)
	if sameType(s.Type, user.Type) {
		f *= rules.STAB
	}
	d.Effectiveness = ctx.Chart().Effectiveness(s.Type, target.Type)
	if d.Effectiveness == 0 {
		return d
	}
	f *= d.Effectiveness

	if !target.Immune(ImmuneCritical) && chance(ctx.RNG(), rules.CritChance+user.CritBonus()) {
		d.Critical = true
		f *= rules.CritMultiplier
	}
	f *= variance(ctx.RNG(), rules.VarianceMin, rules.VarianceMax)

	if s.Category == CategoryPhysical && user.Status() == StatusBurn {
		f *= 0.5
	}

	d.Amount = int(f)
	if d.Amount < 1 {
		d.Amount = 1
	}
	return d
}

func sameType(skill, user Type) bool {
	return user.Has(skill.Primary) || user.Has(skill.Secondary)
}

// variance draws uniformly from [lo, hi]. A degenerate range consumes no roll.
func variance(r RNG, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}
