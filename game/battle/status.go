package battle

import "strings"

// StatusCondition is the single non-volatile condition a creature can carry.
type StatusCondition int

const (
	StatusNone StatusCondition = iota
	StatusPoison
	StatusBurn
	StatusFreeze
	StatusParalyze
	StatusSleep
	StatusFear
	StatusTired
	StatusBleed
	StatusConfusion
)

var statusNames = [...]string{"none", "poison", "burn", "freeze", "paralyze", "sleep", "fear", "tired", "bleed", "confusion"}

func (s StatusCondition) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// ParseStatus maps a catalog name to a StatusCondition.
func ParseStatus(s string) (StatusCondition, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range statusNames {
		if n == s {
			return StatusCondition(i), true
		}
	}
	return StatusNone, false
}

// DefaultStatusDuration is the number of turns a condition lasts when the
// inflicting effect does not say. Zero means it lasts until cured.
func DefaultStatusDuration(s StatusCondition) int {
	switch s {
	case StatusSleep, StatusFreeze, StatusConfusion:
		return 3
	case StatusTired:
		return 2
	case StatusFear:
		return 1
	default:
		return 0
	}
}

// chipDivisor returns the maxHP divisor of the turn-end damage for s, or 0.
func (r Rules) chipDivisor(s StatusCondition) int {
	switch s {
	case StatusPoison:
		return r.PoisonDivisor
	case StatusBurn:
		return r.BurnDivisor
	case StatusBleed:
		return r.BleedDivisor
	default:
		return 0
	}
}

var statusVerbs = map[StatusCondition]string{
	StatusPoison:    "was poisoned",
	StatusBurn:      "was burned",
	StatusFreeze:    "was frozen solid",
	StatusParalyze:  "is paralyzed",
	StatusSleep:     "fell asleep",
	StatusFear:      "is frightened",
	StatusTired:     "is exhausted",
	StatusBleed:     "is bleeding",
	StatusConfusion: "became confused",
}
