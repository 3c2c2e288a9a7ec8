package battle

import "fmt"

// Category decides which stats a skill reads.
type Category int

const (
	CategoryPhysical Category = iota
	CategorySpecial
	CategoryStatus
)

var categoryNames = [...]string{"physical", "special", "status"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseCategory maps a catalog name to a Category.
func ParseCategory(s string) (Category, error) {
	for i, n := range categoryNames {
		if n == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// TargetPolicy picks the creature a skill lands on.
type TargetPolicy int

const (
	TargetOpponent TargetPolicy = iota
	TargetSelf
	// TargetAllOpponents hits every active opponent; one in a single battle.
	TargetAllOpponents
	// TargetRandom picks uniformly between the user and its opponent.
	TargetRandom
)

// ParseTargetPolicy maps a catalog name to a TargetPolicy.
func ParseTargetPolicy(s string) (TargetPolicy, error) {
	switch s {
	case "", "opponent":
		return TargetOpponent, nil
	case "self", "user":
		return TargetSelf, nil
	case "all_opponents":
		return TargetAllOpponents, nil
	case "random":
		return TargetRandom, nil
	}
	return 0, fmt.Errorf("unknown skill target %q", s)
}

// FailReason says why a skill did not land.
type FailReason int

const (
	FailNone FailReason = iota
	FailNoPP
	FailNoTarget
	FailMissed
	FailLocked
	FailNoEffect
)

var failReasonNames = [...]string{"", "no_pp", "no_target", "missed", "locked", "no_effect"}

func (r FailReason) String() string {
	if r < 0 || int(r) >= len(failReasonNames) {
		return "unknown"
	}
	return failReasonNames[r]
}

// Outcome is what one use of a skill did.
type Outcome struct {
	Target        *Creature
	Hit           bool
	Damage        int
	Critical      bool
	Strikes       int
	Effectiveness float64
	Reason        FailReason
}

// Skill is an immutable move template shared by every creature that knows it.
type Skill struct {
	Key         string
	Name        string
	Type        Type
	Category    Category
	Power       int
	Cost        int
	Accuracy    int
	Priority    int
	Target      TargetPolicy
	Description string

	// Effects run after the resolution lands, in order.
	Effects []Effect
	// Resolution computes the skill's outcome. nil resolves by category.
	Resolution Resolution
}

// Resolution is the per-variant policy behind Skill.Use.
type Resolution interface {
	Resolve(ctx Context, s *Skill, user, target *Creature, out *Outcome)
}

// gate is implemented by resolutions with unlock conditions.
type gate interface {
	Unlocked(ctx Context, user, target *Creature) bool
}

func (s *Skill) resolution() Resolution {
	if s.Resolution != nil {
		return s.Resolution
	}
	if s.Category == CategoryStatus {
		return StatusMove{}
	}
	return DirectDamage{}
}

// Usable reports whether user can pay for and unlock s right now.
func (s *Skill) Usable(ctx Context, user *Creature) bool {
	if s.Cost > user.PP() {
		return false
	}
	if g, ok := s.resolution().(gate); ok {
		return g.Unlocked(ctx, user, ctx.Opponent(user))
	}
	return true
}

// ResolveTarget applies the target policy.
func (s *Skill) ResolveTarget(ctx Context, user *Creature) *Creature {
	switch s.Target {
	case TargetSelf:
		return user
	case TargetRandom:
		opp := ctx.Opponent(user)
		if opp == nil || ctx.RNG().Intn(2) == 0 {
			return user
		}
		return opp
	default:
		return ctx.Opponent(user)
	}
}

// Use runs the skill. PP is checked before anything else and only spent once
// a target exists and the skill is unlocked. Failures are reported through
// the outcome; narrating them is up to the caller.
func (s *Skill) Use(ctx Context, user *Creature) Outcome {
	out := Outcome{Effectiveness: 1}
	if s.Cost > user.PP() {
		out.Reason = FailNoPP
		return out
	}
	target := s.ResolveTarget(ctx, user)
	if target == nil || (target != user && target.Fainted()) {
		out.Reason = FailNoTarget
		return out
	}
	out.Target = target
	res := s.resolution()
	if g, ok := res.(gate); ok && !g.Unlocked(ctx, user, target) {
		out.Reason = FailLocked
		return out
	}
	user.ConsumePP(s.Cost)
	res.Resolve(ctx, s, user, target, &out)
	if !out.Hit {
		if out.Reason == FailNone {
			out.Reason = FailMissed
		}
		s.applyEffects(ctx, user, target, true)
	}
	return out
}

// applyEffects runs the regular effects, or the failure-only ones when failed is set.
func (s *Skill) applyEffects(ctx Context, user, target *Creature, failed bool) {
	for _, e := range s.Effects {
		_, onFail := e.(failureOnly)
		if onFail != failed {
			continue
		}
		e.Apply(ctx, user, target)
	}
}

// CheckHit rolls accuracy against evasion. Skills at or above the always-hit
// threshold, and skills aimed at their own user, never roll.
func (s *Skill) CheckHit(ctx Context, user, target *Creature) bool {
	if s.Accuracy >= ctx.Rules().AlwaysHitAccuracy || target == user {
		return true
	}
	acc := float64(s.Accuracy) *
		StageModifier(StatAccuracy, user.Stage(StatAccuracy)) /
		StageModifier(StatEvasion, target.Stage(StatEvasion))
	return chance(ctx.RNG(), acc/100)
}

// ComputeDamage runs the damage pipeline of s from user against target
// without applying it.
func (s *Skill) ComputeDamage(ctx Context, user, target *Creature) Damage {
	return ComputeDamage(ctx, s, user, target)
}
