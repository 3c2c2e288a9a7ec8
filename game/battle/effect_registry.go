package battle

import (
	"fmt"
	"strconv"
	"strings"
)

// EffectSpec is the catalog form of an effect.
//
// Params by kind:
//
//	status:        status, duration
//	stat_change:   stats ("attack:+1,speed:-1")
//	clear:         positive, negative, status, timed (bools)
//	immunity:      immunity, duration
//	heal:          amount, percent
//	fixed_damage:  amount
//	crit_modifier: bonus, duration
//	restore_pp:    amount
//	turn_based:    label, duration, phase; Inner is the per-turn effect
//	on_failure:    Inner is the compensating effect
type EffectSpec struct {
	Kind   string            `yaml:"kind" json:"kind"`
	Chance int               `yaml:"chance,omitempty" json:"chance,omitempty"`
	Target string            `yaml:"target,omitempty" json:"target,omitempty"`
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	Inner  *EffectSpec       `yaml:"inner,omitempty" json:"inner,omitempty"`
}

// EffectFactory builds an effect from its catalog form.
type EffectFactory func(base EffectBase, spec EffectSpec) (Effect, error)

var effectRegistry = map[string]EffectFactory{}

// RegisterEffect registers an effect factory by kind. Later registrations replace earlier ones.
func RegisterEffect(kind string, factory EffectFactory) {
	effectRegistry[kind] = factory
}

// BuildEffect creates an effect through the registered factory for spec.Kind.
func BuildEffect(spec EffectSpec) (Effect, error) {
	factory, ok := effectRegistry[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown effect kind %q", spec.Kind)
	}
	target, err := ParseEffectTarget(spec.Target)
	if err != nil {
		return nil, err
	}
	if spec.Chance < 0 || spec.Chance > 100 {
		return nil, fmt.Errorf("effect %s: chance %d out of range", spec.Kind, spec.Chance)
	}
	e, err := factory(EffectBase{Chance: spec.Chance, Target: target}, spec)
	if err != nil {
		return nil, fmt.Errorf("effect %s: %w", spec.Kind, err)
	}
	return e, nil
}

// BuildEffects builds a list of effects, failing on the first bad entry.
func BuildEffects(specs []EffectSpec) ([]Effect, error) {
	out := make([]Effect, 0, len(specs))
	for i, s := range specs {
		e, err := BuildEffect(s)
		if err != nil {
			return nil, fmt.Errorf("effects[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func init() {
	RegisterEffect("status", newStatusEffect)
	RegisterEffect("stat_change", newStatChangeEffect)
	RegisterEffect("clear", newClearEffect)
	RegisterEffect("immunity", newImmunityEffect)
	RegisterEffect("heal", newHealEffect)
	RegisterEffect("fixed_damage", newFixedDamageEffect)
	RegisterEffect("crit_modifier", newCritModifierEffect)
	RegisterEffect("restore_pp", newRestorePPEffect)
	RegisterEffect("turn_based", newTurnBasedEffect)
	RegisterEffect("on_failure", newFailureCompensation)
}

func newStatusEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	s, ok := ParseStatus(spec.Params["status"])
	if !ok || s == StatusNone {
		return nil, fmt.Errorf("bad status %q", spec.Params["status"])
	}
	d, err := intParam(spec.Params, "duration")
	if err != nil {
		return nil, err
	}
	return &StatusEffect{EffectBase: base, Status: s, Duration: d}, nil
}

func newStatChangeEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	deltas, err := ParseStatDeltas(spec.Params["stats"])
	if err != nil {
		return nil, err
	}
	if len(deltas) == 0 {
		return nil, fmt.Errorf("no stats")
	}
	return &StatChangeEffect{EffectBase: base, Deltas: deltas}, nil
}

func newClearEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	e := &ClearEffect{EffectBase: base}
	var err error
	if e.Positive, err = boolParam(spec.Params, "positive"); err != nil {
		return nil, err
	}
	if e.Negative, err = boolParam(spec.Params, "negative"); err != nil {
		return nil, err
	}
	if e.Status, err = boolParam(spec.Params, "status"); err != nil {
		return nil, err
	}
	if e.Timed, err = boolParam(spec.Params, "timed"); err != nil {
		return nil, err
	}
	return e, nil
}

func newImmunityEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	kind, err := ParseImmunity(spec.Params["immunity"])
	if err != nil {
		return nil, err
	}
	d, err := intParam(spec.Params, "duration")
	if err != nil {
		return nil, err
	}
	return &ImmunityEffect{EffectBase: base, Kind: kind, Duration: d}, nil
}

func newHealEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	amount, err := intParam(spec.Params, "amount")
	if err != nil {
		return nil, err
	}
	pct, err := intParam(spec.Params, "percent")
	if err != nil {
		return nil, err
	}
	if amount <= 0 && pct <= 0 {
		return nil, fmt.Errorf("heal needs amount or percent")
	}
	return &HealEffect{EffectBase: base, Amount: amount, Percent: pct}, nil
}

func newFixedDamageEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	amount, err := intParam(spec.Params, "amount")
	if err != nil {
		return nil, err
	}
	return &FixedDamageEffect{EffectBase: base, Amount: amount}, nil
}

func newCritModifierEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	bonus, err := strconv.ParseFloat(spec.Params["bonus"], 64)
	if err != nil {
		return nil, fmt.Errorf("bad bonus %q", spec.Params["bonus"])
	}
	d, err := intParam(spec.Params, "duration")
	if err != nil {
		return nil, err
	}
	return &CritModifierEffect{EffectBase: base, Bonus: bonus, Duration: d}, nil
}

func newRestorePPEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	amount, err := intParam(spec.Params, "amount")
	if err != nil {
		return nil, err
	}
	return &RestorePPEffect{EffectBase: base, Amount: amount}, nil
}

func newTurnBasedEffect(base EffectBase, spec EffectSpec) (Effect, error) {
	if spec.Inner == nil {
		return nil, fmt.Errorf("turn_based needs an inner effect")
	}
	inner, err := BuildEffect(*spec.Inner)
	if err != nil {
		return nil, err
	}
	d, err := intParam(spec.Params, "duration")
	if err != nil {
		return nil, err
	}
	return &TurnBasedEffect{
		EffectBase: base,
		Label:      spec.Params["label"],
		Duration:   d,
		Phase:      ParsePhase(spec.Params["phase"]),
		Each:       inner,
	}, nil
}

func newFailureCompensation(base EffectBase, spec EffectSpec) (Effect, error) {
	if spec.Inner == nil {
		return nil, fmt.Errorf("on_failure needs an inner effect")
	}
	inner, err := BuildEffect(*spec.Inner)
	if err != nil {
		return nil, err
	}
	return &FailureCompensation{EffectBase: base, Inner: inner}, nil
}

// ParseStatDeltas parses "attack:+1,speed:-2".
func ParseStatDeltas(s string) ([]StatDelta, error) {
	var out []StatDelta
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("bad stat delta %q", part)
		}
		k, ok := ParseStat(name)
		if !ok {
			return nil, fmt.Errorf("unknown stat %q", name)
		}
		d, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("bad stat delta %q", part)
		}
		out = append(out, StatDelta{Stat: k, Delta: d})
	}
	return out, nil
}

func intParam(params map[string]string, key string) (int, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return n, nil
}

func boolParam(params map[string]string, key string) (bool, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("param %s: %w", key, err)
	}
	return b, nil
}
