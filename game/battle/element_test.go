package battle

import "testing"

func TestEffectivenessAsymmetric(t *testing.T) {
	c := DefaultTypeChart()
	if got := c.Effectiveness(Mono(ElementFire), Mono(ElementGrass)); got != 1.5 {
		t.Errorf("fire -> grass = %v, want 1.5", got)
	}
	if got := c.Effectiveness(Mono(ElementGrass), Mono(ElementFire)); got != 0.75 {
		t.Errorf("grass -> fire = %v, want 0.75", got)
	}
}

func TestEffectivenessMissingEntryIsNeutral(t *testing.T) {
	c := NewTypeChart()
	if got := c.Lookup(ElementFire, ElementGrass); got != 1.0 {
		t.Errorf("empty chart lookup = %v, want 1.0", got)
	}
	c.Set(ElementFire, ElementGrass, 1.5)
	if got := c.Lookup(ElementFire, ElementGrass); got != 1.5 {
		t.Errorf("after Set = %v, want 1.5", got)
	}
}

func TestEffectivenessDualDefender(t *testing.T) {
	c := DefaultTypeChart()
	tests := []struct {
		name    string
		attack  Type
		defense Type
		want    float64
	}{
		{"both super effective", Mono(ElementFire), Dual(ElementGrass, ElementIce), 2.0},
		{"one immune", Mono(ElementGround), Dual(ElementFire, ElementFlying), 0.375},
		{"plain mean", Mono(ElementFire), Dual(ElementGrass, ElementWater), (1.5 + 0.75) / 2},
		{"neutral pair", Mono(ElementNormal), Dual(ElementFire, ElementWater), 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Effectiveness(tt.attack, tt.defense); !almostEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectivenessDualAttacker(t *testing.T) {
	c := DefaultTypeChart()
	atk := Dual(ElementFire, ElementWater)

	// Against one type the attacker's two lookups are combined: 1.5 and 0.75.
	if got := c.Effectiveness(atk, Mono(ElementGrass)); !almostEqual(got, (1.5+0.75)/2) {
		t.Errorf("fire/water -> grass = %v", got)
	}

	// Against two types each defender type is resolved separately, then averaged.
	vsGrass := c.Effectiveness(atk, Mono(ElementGrass))
	vsRock := c.Effectiveness(atk, Mono(ElementRock))
	want := (vsGrass + vsRock) / 2
	if got := c.Effectiveness(atk, Dual(ElementGrass, ElementRock)); !almostEqual(got, want) {
		t.Errorf("fire/water -> grass/rock = %v, want %v", got, want)
	}
}

func TestTypeHelpers(t *testing.T) {
	d := Dual(ElementFire, ElementFire)
	if d.IsDual() {
		t.Error("repeated element should collapse to a single type")
	}
	ff := Dual(ElementFire, ElementFlying)
	if !ff.Has(ElementFlying) || ff.Has(ElementWater) || ff.Has(ElementNone) {
		t.Errorf("Has on %s wrong", ff)
	}
	if ff.String() != "fire/flying" {
		t.Errorf("String = %q", ff.String())
	}
	if e, ok := ParseElement("Ghost"); !ok || e != ElementGhost {
		t.Errorf("ParseElement(Ghost) = %v, %v", e, ok)
	}
	if _, ok := ParseElement("plasma"); ok {
		t.Error("ParseElement accepted an unknown element")
	}
}
