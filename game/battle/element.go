package battle

import "strings"

// Element is an elemental affinity carried by creatures and skills.
type Element int

const (
	ElementNone Element = iota
	ElementNormal
	ElementFire
	ElementWater
	ElementGrass
	ElementElectric
	ElementIce
	ElementFighting
	ElementPoison
	ElementGround
	ElementFlying
	ElementPsychic
	ElementBug
	ElementRock
	ElementGhost
	ElementDragon
	ElementDark
	ElementSteel
	ElementFairy
)

var elementNames = [...]string{
	"none", "normal", "fire", "water", "grass", "electric", "ice", "fighting", "poison",
	"ground", "flying", "psychic", "bug", "rock", "ghost", "dragon", "dark", "steel", "fairy",
}

func (e Element) String() string {
	if e < 0 || int(e) >= len(elementNames) {
		return "unknown"
	}
	return elementNames[e]
}

// ParseElement maps a catalog name to an Element. The empty string is ElementNone.
func ParseElement(s string) (Element, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ElementNone, true
	}
	for i, n := range elementNames {
		if n == s {
			return Element(i), true
		}
	}
	return ElementNone, false
}

// Type is a primary element plus an optional secondary one.
// Secondary is ElementNone for single-typed entities.
type Type struct {
	Primary   Element `json:"primary"`
	Secondary Element `json:"secondary"`
}

// Mono returns a single-typed Type.
func Mono(e Element) Type { return Type{Primary: e} }

// Dual returns a two-typed Type. Repeating the same element yields a single type.
func Dual(primary, secondary Element) Type {
	if primary == secondary {
		secondary = ElementNone
	}
	return Type{Primary: primary, Secondary: secondary}
}

// IsDual reports whether the type carries a secondary element.
func (t Type) IsDual() bool { return t.Secondary != ElementNone }

// Has reports whether e is one of the type's elements.
func (t Type) Has(e Element) bool {
	if e == ElementNone {
		return false
	}
	return t.Primary == e || t.Secondary == e
}

func (t Type) String() string {
	if t.IsDual() {
		return t.Primary.String() + "/" + t.Secondary.String()
	}
	return t.Primary.String()
}

// Single-lookup multipliers used by the chart.
const (
	SuperEffective   = 1.5
	NotVeryEffective = 0.75
	NoEffect         = 0.0
	// dualSuperEffective replaces the mean when both defender lookups are super effective.
	dualSuperEffective = 2.0
)

// TypeChart is the attack x defense multiplier table. Missing entries are 1.0.
type TypeChart struct {
	table map[Element]map[Element]float64
}

// NewTypeChart returns an empty chart (every lookup is 1.0).
func NewTypeChart() *TypeChart {
	return &TypeChart{table: make(map[Element]map[Element]float64)}
}

// Set overrides one attack/defense cell.
func (c *TypeChart) Set(attack, defense Element, mult float64) {
	row, ok := c.table[attack]
	if !ok {
		row = make(map[Element]float64)
		c.table[attack] = row
	}
	row[defense] = mult
}

// Lookup is the single-type vs single-type multiplier.
func (c *TypeChart) Lookup(attack, defense Element) float64 {
	if row, ok := c.table[attack]; ok {
		if m, ok := row[defense]; ok {
			return m
		}
	}
	return 1.0
}

// Effectiveness returns the multiplier of an attack of type attack against a
// defender of type defense.
//
// Two defender lookups are not multiplied: two super effective lookups give a
// flat 2.0, a lookup of 0 halves the mean again, anything else is the mean.
// A dual-typed attacker combines its two lookups the same way against each
// defender element and averages the per-element results.
func (c *TypeChart) Effectiveness(attack, defense Type) float64 {
	if !attack.IsDual() {
		return c.against(attack.Primary, defense)
	}
	if !defense.IsDual() {
		return combineLookups(
			c.Lookup(attack.Primary, defense.Primary),
			c.Lookup(attack.Secondary, defense.Primary),
		)
	}
	p := c.Effectiveness(attack, Mono(defense.Primary))
	s := c.Effectiveness(attack, Mono(defense.Secondary))
	return (p + s) / 2
}

func (c *TypeChart) against(attack Element, defense Type) float64 {
	if !defense.IsDual() {
		return c.Lookup(attack, defense.Primary)
	}
	return combineLookups(c.Lookup(attack, defense.Primary), c.Lookup(attack, defense.Secondary))
}

func combineLookups(a, b float64) float64 {
	switch {
	case a == SuperEffective && b == SuperEffective:
		return dualSuperEffective
	case a == NoEffect || b == NoEffect:
		return (a + b) / 2 / 2
	default:
		return (a + b) / 2
	}
}

type chartRow struct {
	super, resisted, immune []Element
}

var defaultChartRows = map[Element]chartRow{
	ElementNormal: {
		resisted: []Element{ElementRock, ElementSteel},
		immune:   []Element{ElementGhost},
	},
	ElementFire: {
		super:    []Element{ElementGrass, ElementIce, ElementBug, ElementSteel},
		resisted: []Element{ElementFire, ElementWater, ElementRock, ElementDragon},
	},
	ElementWater: {
		super:    []Element{ElementFire, ElementGround, ElementRock},
		resisted: []Element{ElementWater, ElementGrass, ElementDragon},
	},
	ElementGrass: {
		super:    []Element{ElementWater, ElementGround, ElementRock},
		resisted: []Element{ElementFire, ElementGrass, ElementPoison, ElementFlying, ElementBug, ElementDragon, ElementSteel},
	},
	ElementElectric: {
		super:    []Element{ElementWater, ElementFlying},
		resisted: []Element{ElementElectric, ElementGrass, ElementDragon},
		immune:   []Element{ElementGround},
	},
	ElementIce: {
		super:    []Element{ElementGrass, ElementGround, ElementFlying, ElementDragon},
		resisted: []Element{ElementFire, ElementWater, ElementIce, ElementSteel},
	},
	ElementFighting: {
		super:    []Element{ElementNormal, ElementIce, ElementRock, ElementDark, ElementSteel},
		resisted: []Element{ElementPoison, ElementFlying, ElementPsychic, ElementBug, ElementFairy},
		immune:   []Element{ElementGhost},
	},
	ElementPoison: {
		super:    []Element{ElementGrass, ElementFairy},
		resisted: []Element{ElementPoison, ElementGround, ElementRock, ElementGhost},
		immune:   []Element{ElementSteel},
	},
	ElementGround: {
		super:    []Element{ElementFire, ElementElectric, ElementPoison, ElementRock, ElementSteel},
		resisted: []Element{ElementGrass, ElementBug},
		immune:   []Element{ElementFlying},
	},
	ElementFlying: {
		super:    []Element{ElementGrass, ElementFighting, ElementBug},
		resisted: []Element{ElementElectric, ElementRock, ElementSteel},
	},
	ElementPsychic: {
		super:    []Element{ElementFighting, ElementPoison},
		resisted: []Element{ElementPsychic, ElementSteel},
		immune:   []Element{ElementDark},
	},
	ElementBug: {
		super:    []Element{ElementGrass, ElementPsychic, ElementDark},
		resisted: []Element{ElementFire, ElementFighting, ElementPoison, ElementFlying, ElementGhost, ElementSteel, ElementFairy},
	},
	ElementRock: {
		super:    []Element{ElementFire, ElementIce, ElementFlying, ElementBug},
		resisted: []Element{ElementFighting, ElementGround, ElementSteel},
	},
	ElementGhost: {
		super:    []Element{ElementPsychic, ElementGhost},
		resisted: []Element{ElementDark},
		immune:   []Element{ElementNormal},
	},
	ElementDragon: {
		super:    []Element{ElementDragon},
		resisted: []Element{ElementSteel},
		immune:   []Element{ElementFairy},
	},
	ElementDark: {
		super:    []Element{ElementPsychic, ElementGhost},
		resisted: []Element{ElementFighting, ElementDark, ElementFairy},
	},
	ElementSteel: {
		super:    []Element{ElementIce, ElementRock, ElementFairy},
		resisted: []Element{ElementFire, ElementWater, ElementElectric, ElementSteel},
	},
	ElementFairy: {
		super:    []Element{ElementFighting, ElementDragon, ElementDark},
		resisted: []Element{ElementFire, ElementPoison, ElementSteel},
	},
}

// DefaultTypeChart returns the built-in chart.
func DefaultTypeChart() *TypeChart {
	c := NewTypeChart()
	for atk, row := range defaultChartRows {
		for _, d := range row.super {
			c.Set(atk, d, SuperEffective)
		}
		for _, d := range row.resisted {
			c.Set(atk, d, NotVeryEffective)
		}
		for _, d := range row.immune {
			c.Set(atk, d, NoEffect)
		}
	}
	return c
}
