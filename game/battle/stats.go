package battle

import "strings"

// StatKind identifies a stat that carries a battle stage.
type StatKind int

const (
	StatAttack StatKind = iota
	StatSpAttack
	StatDefense
	StatSpDefense
	StatSpeed
	StatAccuracy
	StatEvasion
	statKindCount
)

var statNames = [...]string{"attack", "sp_attack", "defense", "sp_defense", "speed", "accuracy", "evasion"}

func (k StatKind) String() string {
	if k < 0 || k >= statKindCount {
		return "unknown"
	}
	return statNames[k]
}

// ParseStat maps a catalog name to a StatKind.
func ParseStat(s string) (StatKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range statNames {
		if n == s {
			return StatKind(i), true
		}
	}
	return 0, false
}

// Stage bounds.
const (
	MinStage = -6
	MaxStage = 6
)

// BaseStats are the fixed stats of a creature at its level.
type BaseStats struct {
	HP        int `json:"hp" yaml:"hp"`
	Attack    int `json:"attack" yaml:"attack"`
	SpAttack  int `json:"sp_attack" yaml:"sp_attack"`
	Defense   int `json:"defense" yaml:"defense"`
	SpDefense int `json:"sp_defense" yaml:"sp_defense"`
	Speed     int `json:"speed" yaml:"speed"`
}

// Value returns the base value for k. Accuracy and evasion have no base value.
func (b BaseStats) Value(k StatKind) int {
	switch k {
	case StatAttack:
		return b.Attack
	case StatSpAttack:
		return b.SpAttack
	case StatDefense:
		return b.Defense
	case StatSpDefense:
		return b.SpDefense
	case StatSpeed:
		return b.Speed
	default:
		return 0
	}
}

// StatStages holds one clamped counter per StatKind.
type StatStages [statKindCount]int

// Get returns the stage of k.
func (s *StatStages) Get(k StatKind) int {
	if k < 0 || k >= statKindCount {
		return 0
	}
	return s[k]
}

// Apply adds delta to k, clamping to [MinStage, MaxStage].
// changed is false when the stage was already at the bound in the direction of delta.
func (s *StatStages) Apply(k StatKind, delta int) (old, updated int, changed bool) {
	if k < 0 || k >= statKindCount {
		return 0, 0, false
	}
	old = s[k]
	updated = old + delta
	if updated > MaxStage {
		updated = MaxStage
	}
	if updated < MinStage {
		updated = MinStage
	}
	if updated == old {
		return old, old, false
	}
	s[k] = updated
	return old, updated, true
}

// Reset zeroes every stage.
func (s *StatStages) Reset() {
	*s = StatStages{}
}

// StageModifier converts a stage into a stat multiplier.
func StageModifier(kind StatKind, stage int) float64 {
	if stage == 0 {
		return 1.0
	}
	if stage > MaxStage {
		stage = MaxStage
	}
	if stage < MinStage {
		stage = MinStage
	}
	if kind == StatAccuracy || kind == StatEvasion {
		switch {
		case stage > 0:
			return 1 + float64(stage)*0.5
		case stage >= -3:
			return 1 + float64(stage)*0.15
		default:
			return 0.55 + float64(stage+3)*0.10
		}
	}
	if stage > 0 {
		return float64(2+stage) / 2
	}
	return 2 / float64(2-stage)
}

// StatDelta is one stage change carried by a skill or effect.
type StatDelta struct {
	Stat  StatKind `json:"stat"`
	Delta int      `json:"delta"`
}
