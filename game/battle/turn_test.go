package battle

import (
	"math/rand"
	"testing"
)

func TestDefaultTurnManagerOrder(t *testing.T) {
	slowHigh := &QueueEntry{Side: SidePlayer, Priority: 1, Speed: 5}
	fastLow := &QueueEntry{Side: SideOpponent, Priority: 0, Speed: 500}

	tm := DefaultTurnManager{}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		order := tm.Order([]*QueueEntry{fastLow, slowHigh}, rng)
		if len(order) != 2 {
			t.Fatalf("len = %d, want 2", len(order))
		}
		if order[0] != slowHigh {
			t.Fatalf("higher priority must go first regardless of speed")
		}
	}
}

func TestDefaultTurnManagerSpeedThenTie(t *testing.T) {
	fast := &QueueEntry{Side: SidePlayer, Speed: 50}
	slow := &QueueEntry{Side: SideOpponent, Speed: 10}
	tm := DefaultTurnManager{}

	in := []*QueueEntry{slow, fast}
	order := tm.Order(in, rand.New(rand.NewSource(1)))
	if order[0] != fast {
		t.Error("faster entry should go first")
	}
	if in[0] != slow {
		t.Error("Order must not modify its input")
	}

	// Full ties are decided by the rng: both outcomes show up.
	a := &QueueEntry{Side: SidePlayer, Speed: 10}
	b := &QueueEntry{Side: SideOpponent, Speed: 10}
	seen := map[*QueueEntry]bool{}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		seen[tm.Order([]*QueueEntry{a, b}, rng)[0]] = true
	}
	if !seen[a] || !seen[b] {
		t.Error("tie-break never varied")
	}

	if tm.Order([]*QueueEntry{a, b}, fixedRNG{f: 0})[0] != b {
		t.Error("a low roll swaps tied entries")
	}
	if tm.Order([]*QueueEntry{a, b}, fixedRNG{f: 0.99})[0] != a {
		t.Error("a high roll keeps tied entries in place")
	}
}

func TestRandomPolicy(t *testing.T) {
	expensive := tackle()
	expensive.Cost = 99
	hero := mon("Hero", ElementFire, 100, 10, 10, 10, tackle())
	foe := mon("Foe", ElementWater, 100, 10, 10, 10, expensive)
	reserve := mon("Reserve", ElementGrass, 100, 10, 10, 10, tackle())
	b, _ := startBattle(t, []*Creature{hero}, []*Creature{foe, reserve}, battleOpts{duel: true})

	if k, p1, _ := (RandomPolicy{}).Choose(b, SideOpponent); k != ActionSwitch || p1 != 1 {
		t.Errorf("no usable skill with a reserve: %s %d, want switch 1", k, p1)
	}
	if k, p1, _ := (RandomPolicy{}).Choose(b, SidePlayer); k != ActionSkill || p1 != 0 {
		t.Errorf("usable skill: %s %d, want skill 0", k, p1)
	}
	hero.SetStatusCondition(StatusSleep)
	if k, _, _ := (RandomPolicy{}).Choose(b, SidePlayer); k != ActionRestorePP {
		t.Errorf("sleeping with no reserve: %s, want restore_pp", k)
	}
}
