package battle

import "testing"

func effectBattle(t *testing.T, rng RNG) (*BattleInstance, *Creature, *Creature) {
	t.Helper()
	user := mon("User", ElementFire, 100, 20, 10, 10)
	foe := mon("Foe", ElementWater, 100, 10, 10, 10)
	b, _ := startBattle(t, []*Creature{user}, []*Creature{foe}, battleOpts{duel: true, rng: rng})
	return b, user, foe
}

func TestEffectChanceRoll(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	e := &StatusEffect{EffectBase: EffectBase{Chance: 50}, Status: StatusPoison}
	if e.Apply(b, user, foe) {
		t.Error("50% effect applied on a 99 roll")
	}
	if foe.Status() != StatusNone {
		t.Error("failed roll changed the target")
	}
	e.Chance = 0
	if !e.Apply(b, user, foe) || foe.Status() != StatusPoison {
		t.Error("default chance must always fire")
	}
	if e.Apply(b, user, foe) {
		t.Error("inflicting the same condition twice should report no effect")
	}
}

func TestEffectTargetIndependentOfSkill(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	buff := &StatChangeEffect{EffectBase: EffectBase{Target: EffectTargetSelf}, Deltas: []StatDelta{{StatAttack, 2}}}
	// Nominal target is the opponent, the effect lands on the user.
	if !buff.Apply(b, user, foe) {
		t.Fatal("self buff did not apply")
	}
	if user.Stage(StatAttack) != 2 || foe.Stage(StatAttack) != 0 {
		t.Errorf("user=%d foe=%d", user.Stage(StatAttack), foe.Stage(StatAttack))
	}

	both := &StatChangeEffect{EffectBase: EffectBase{Target: EffectTargetBoth}, Deltas: []StatDelta{{StatSpeed, -1}}}
	both.Apply(b, user, user)
	if user.Stage(StatSpeed) != -1 || foe.Stage(StatSpeed) != -1 {
		t.Errorf("both: user=%d foe=%d", user.Stage(StatSpeed), foe.Stage(StatSpeed))
	}

	opp := &HealEffect{EffectBase: EffectBase{Target: EffectTargetOpponent}, Amount: 5}
	foe.SetHP(50)
	opp.Apply(b, user, user)
	if foe.HP() != 55 {
		t.Errorf("opponent heal: foe hp = %d", foe.HP())
	}
}

func TestClearEffect(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	foe.ModifyStatStage(StatAttack, 2)
	foe.ModifyStatStage(StatDefense, -2)
	InflictStatus(b, foe, StatusBurn, 0, user.Handle())

	clearUp := &ClearEffect{Positive: true}
	if !clearUp.Apply(b, user, foe) {
		t.Fatal("clearing positive stages reported nothing")
	}
	if foe.Stage(StatAttack) != 0 || foe.Stage(StatDefense) != -2 {
		t.Errorf("positive clear: atk=%d def=%d", foe.Stage(StatAttack), foe.Stage(StatDefense))
	}

	all := &ClearEffect{Negative: true, Status: true, Timed: true}
	all.Apply(b, user, foe)
	if foe.Stage(StatDefense) != 0 || foe.Status() != StatusNone {
		t.Error("full clear left state behind")
	}
	if clearUp.Apply(b, user, foe) {
		t.Error("nothing left to clear")
	}
}

func TestImmunityWindow(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	shield := &ImmunityEffect{Kind: ImmuneStatus, Duration: 1}
	if !shield.Apply(b, foe, foe) {
		t.Fatal("immunity not installed")
	}
	poison := &StatusEffect{Status: StatusPoison}
	if poison.Apply(b, user, foe) {
		t.Error("status landed through an immunity window")
	}
	foe.OnTurnEnd(b)
	if foe.Immune(ImmuneStatus) {
		t.Error("window should close after its duration")
	}
	if !poison.Apply(b, user, foe) {
		t.Error("status should land once the window closed")
	}

	guard := &ImmunityEffect{Kind: ImmuneStatDrop, Duration: 2}
	guard.Apply(b, foe, foe)
	drop := &StatChangeEffect{Deltas: []StatDelta{{StatDefense, -1}}}
	if drop.Apply(b, user, foe) {
		t.Error("stat drop landed through an immunity window")
	}
}

func TestCritModifierExpires(t *testing.T) {
	b, user, _ := effectBattle(t, nil)
	e := &CritModifierEffect{EffectBase: EffectBase{Target: EffectTargetSelf}, Bonus: 0.25, Duration: 2}
	e.Apply(b, user, nil)
	if user.CritBonus() != 0.25 {
		t.Fatalf("bonus = %v", user.CritBonus())
	}
	user.OnTurnEnd(b)
	user.OnTurnEnd(b)
	if user.CritBonus() != 0 {
		t.Errorf("bonus = %v after expiry", user.CritBonus())
	}
}

func TestTurnBasedEffect(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	regen := &TurnBasedEffect{
		Label:    "regen",
		Duration: 2,
		Phase:    PhaseTurnStart,
		Each:     &HealEffect{Amount: 10},
	}
	foe.SetHP(50)
	if !regen.Apply(b, user, foe) {
		t.Fatal("turn based effect not installed")
	}
	foe.OnTurnEnd(b)
	if foe.HP() != 50 {
		t.Error("turn-start effect fired at turn end")
	}
	foe.OnTurnStart(b)
	foe.OnTurnStart(b)
	foe.OnTurnStart(b)
	if foe.HP() != 70 {
		t.Errorf("hp = %d, want 70 after two ticks", foe.HP())
	}
	if foe.HasTurnEffect("regen") {
		t.Error("turn based effect should detach after its duration")
	}
}

func TestFixedDamageEffectRecordsKnockout(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	e := &FixedDamageEffect{Amount: 200}
	if !e.Apply(b, user, foe) || !foe.Fainted() {
		t.Fatal("fixed damage did not knock out")
	}
	if user.Knockouts() != 1 {
		t.Errorf("knockouts = %d", user.Knockouts())
	}
}

func TestRandomEffectTarget(t *testing.T) {
	b, user, foe := effectBattle(t, fixedRNG{f: 0.99})
	e := &StatChangeEffect{EffectBase: EffectBase{Target: EffectTargetRandom}, Deltas: []StatDelta{{StatEvasion, 1}}}
	e.Apply(b, user, user)
	if foe.Stage(StatEvasion) != 1 || user.Stage(StatEvasion) != 0 {
		t.Errorf("high roll should pick the opponent: user=%d foe=%d", user.Stage(StatEvasion), foe.Stage(StatEvasion))
	}
}

func TestBuildEffect(t *testing.T) {
	e, err := BuildEffect(EffectSpec{Kind: "stat_change", Chance: 30, Target: "self", Params: map[string]string{"stats": "attack:+2"}})
	if err != nil {
		t.Fatal(err)
	}
	sc, ok := e.(*StatChangeEffect)
	if !ok {
		t.Fatalf("got %T", e)
	}
	if sc.Chance != 30 || sc.Target != EffectTargetSelf || sc.Deltas[0] != (StatDelta{StatAttack, 2}) {
		t.Errorf("built %+v", sc)
	}

	tb, err := BuildEffect(EffectSpec{
		Kind:   "turn_based",
		Params: map[string]string{"duration": "3", "phase": "start", "label": "leech"},
		Inner:  &EffectSpec{Kind: "fixed_damage", Params: map[string]string{"amount": "5"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if turn := tb.(*TurnBasedEffect); turn.Duration != 3 || turn.Phase != PhaseTurnStart || turn.Name() != "leech" {
		t.Errorf("built %+v", turn)
	}

	bad := []EffectSpec{
		{Kind: "teleport"},
		{Kind: "status", Params: map[string]string{"status": "doom"}},
		{Kind: "turn_based"},
		{Kind: "heal"},
		{Kind: "heal", Chance: 120, Params: map[string]string{"amount": "5"}},
		{Kind: "heal", Target: "everyone", Params: map[string]string{"amount": "5"}},
	}
	for _, spec := range bad {
		if _, err := BuildEffect(spec); err == nil {
			t.Errorf("BuildEffect(%+v) succeeded", spec)
		}
	}
}

func TestClearTimedKeepsStatusTimer(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	InflictStatus(b, foe, StatusSleep, 2, user.Handle())
	regen := &TurnBasedEffect{Label: "regen", Duration: 5, Phase: PhaseTurnEnd, Each: &HealEffect{Amount: 1}}
	regen.Apply(b, foe, foe)

	if !(&ClearEffect{Timed: true}).Apply(b, user, foe) {
		t.Fatal("clearing timed effects reported nothing")
	}
	if foe.HasTurnEffect("regen") {
		t.Error("regen survived the clear")
	}
	if foe.Status() != StatusSleep {
		t.Fatalf("status = %s, clearing timed effects should not cure", foe.Status())
	}
	foe.OnTurnEnd(b)
	foe.OnTurnEnd(b)
	if foe.Status() != StatusNone {
		t.Errorf("status = %s, sleep should still wear off on schedule", foe.Status())
	}
	if (&ClearEffect{Timed: true}).Apply(b, user, foe) {
		t.Error("nothing left to clear")
	}
}

func TestTurnBasedEffectsWithoutLabelStack(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	heal := &TurnBasedEffect{Duration: 3, Phase: PhaseTurnEnd, Each: &HealEffect{Amount: 5}}
	burn := &TurnBasedEffect{Duration: 3, Phase: PhaseTurnEnd, Each: &FixedDamageEffect{Amount: 5}}
	heal.Apply(b, user, foe)
	burn.Apply(b, user, foe)
	if n := len(foe.TurnEffects()); n != 2 {
		t.Fatalf("turn effects = %d, want 2", n)
	}
	if heal.Name() == burn.Name() {
		t.Errorf("distinct inner effects share the name %q", heal.Name())
	}
	heal.Apply(b, user, foe)
	if n := len(foe.TurnEffects()); n != 2 {
		t.Errorf("reapplying should refresh, got %d effects", n)
	}
}

func TestTurnBasedRefreshRunsExpiry(t *testing.T) {
	b, user, foe := effectBattle(t, nil)
	expired := 0
	foe.AddTurnEffect(&TimedEffect{
		Name:     "regen",
		Phase:    PhaseTurnEnd,
		OnExpire: func(Context, *Creature) { expired++ },
	})
	regen := &TurnBasedEffect{Label: "regen", Duration: 2, Phase: PhaseTurnEnd, Each: &HealEffect{Amount: 5}}
	regen.Apply(b, user, foe)
	if expired != 1 {
		t.Errorf("replaced instance expiry ran %d times, want 1", expired)
	}
	if n := len(foe.TurnEffects()); n != 1 {
		t.Errorf("turn effects = %d, want 1", n)
	}
}

func TestClearTimedKeepsPermanentCritBonus(t *testing.T) {
	b, user, _ := effectBattle(t, nil)
	focus := &CritModifierEffect{EffectBase: EffectBase{Target: EffectTargetSelf}, Bonus: 0.5}
	pump := &CritModifierEffect{EffectBase: EffectBase{Target: EffectTargetSelf}, Bonus: 0.25, Duration: 3}
	focus.Apply(b, user, nil)
	pump.Apply(b, user, nil)
	if !almostEqual(user.CritBonus(), 0.75) {
		t.Fatalf("bonus = %v", user.CritBonus())
	}
	user.ClearAllTurnEffects()
	if !almostEqual(user.CritBonus(), 0.5) {
		t.Errorf("bonus = %v after clear, want the permanent 0.5", user.CritBonus())
	}
}

func TestStatChangeSkipsFaintedTarget(t *testing.T) {
	user := mon("User", ElementFire, 100, 20, 10, 10)
	foe := mon("Foe", ElementWater, 100, 10, 10, 10)
	b, rec := startBattle(t, []*Creature{user}, []*Creature{foe}, battleOpts{duel: true})
	foe.SetHP(0)

	growl := &StatChangeEffect{Deltas: []StatDelta{{StatAttack, -1}}}
	if growl.Apply(b, user, foe) {
		t.Error("stat change landed on a fainted target")
	}
	if foe.Stage(StatAttack) != 0 {
		t.Errorf("attack stage = %d", foe.Stage(StatAttack))
	}
	if n := len(rec.ofType("stat_stage_changed")); n != 0 {
		t.Errorf("stat_stage_changed events = %d, want 0", n)
	}
}
