package battle

import (
	"math"
	"testing"
)

// fixedRNG returns the same fraction forever. f=0.99 fails every roll below
// 99%; f=0 passes every one. Intn scales f to [0, n).
type fixedRNG struct {
	f float64
}

func (r fixedRNG) Intn(n int) int {
	v := int(r.f * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

func (r fixedRNG) Float64() float64 { return r.f }

// quietRules turns off crits and variance so damage is exact.
func quietRules() *Rules {
	r := DefaultRules()
	r.CritChance = 0
	r.VarianceMin = 1
	r.VarianceMax = 1
	return &r
}

func tackle() *Skill {
	return &Skill{Key: "tackle", Name: "Tackle", Type: Mono(ElementNormal), Category: CategoryPhysical,
		Power: 40, Cost: 5, Accuracy: 100}
}

func mon(name string, e Element, hp, atk, def, spd int, skills ...*Skill) *Creature {
	return NewCreature(name, Mono(e), 10, BaseStats{
		HP: hp, Attack: atk, SpAttack: atk, Defense: def, SpDefense: def, Speed: spd,
	}, 30, skills...)
}

type recorder struct {
	events []BattleEvent
}

func (r *recorder) HandleEvent(_ string, evt BattleEvent) { r.events = append(r.events, evt) }

func (r *recorder) ofType(typ string) []BattleEvent {
	var out []BattleEvent
	for _, e := range r.events {
		if e.EventType() == typ {
			out = append(out, e)
		}
	}
	return out
}

type battleOpts struct {
	duel  bool
	wild  bool
	rng   RNG
	rules *Rules
	bags  [2][]ItemStack
}

func startBattle(t *testing.T, player, opponent []*Creature, o battleOpts) (*BattleInstance, *recorder) {
	t.Helper()
	if o.rng == nil {
		o.rng = fixedRNG{f: 0.99}
	}
	if o.rules == nil {
		o.rules = quietRules()
	}
	rec := &recorder{}
	b := NewBattleInstance(BattleConfig{
		ID:    "test",
		Wild:  o.wild,
		Rules: o.rules,
		RNG:   o.rng,
		Sinks: []EventSink{rec},
		Bags:  o.bags,
	})
	if err := b.Init(player, opponent, o.duel); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return b, rec
}

func logContains(b *BattleInstance, text string) bool {
	for _, e := range b.Log() {
		if e.Text == text {
			return true
		}
	}
	return false
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
