package battle

import "testing"

func TestStageModifierSpeedMonotonic(t *testing.T) {
	if StageModifier(StatSpeed, 0) != 1.0 {
		t.Fatalf("stage 0 = %v, want 1.0", StageModifier(StatSpeed, 0))
	}
	prev := StageModifier(StatSpeed, MinStage)
	for s := MinStage + 1; s <= MaxStage; s++ {
		m := StageModifier(StatSpeed, s)
		if m < prev {
			t.Errorf("modifier(%d) = %v < modifier(%d) = %v", s, m, s-1, prev)
		}
		prev = m
	}
}

func TestStageModifierValues(t *testing.T) {
	tests := []struct {
		kind  StatKind
		stage int
		want  float64
	}{
		{StatAttack, 2, 2.0},
		{StatAttack, 6, 4.0},
		{StatDefense, -2, 0.5},
		{StatDefense, -6, 0.25},
		{StatAccuracy, 2, 2.0},
		{StatAccuracy, -1, 0.85},
		{StatEvasion, -3, 0.55},
		{StatEvasion, -4, 0.45},
		{StatAccuracy, -6, 0.25},
		{StatEvasion, 0, 1.0},
	}
	for _, tt := range tests {
		if got := StageModifier(tt.kind, tt.stage); !almostEqual(got, tt.want) {
			t.Errorf("StageModifier(%s, %d) = %v, want %v", tt.kind, tt.stage, got, tt.want)
		}
	}
}

func TestStatStagesClamp(t *testing.T) {
	var s StatStages
	if _, v, ok := s.Apply(StatAttack, 10); !ok || v != MaxStage {
		t.Errorf("Apply(+10) = %d, %v; want %d, true", v, ok, MaxStage)
	}
	if _, _, ok := s.Apply(StatAttack, 1); ok {
		t.Error("Apply past the upper bound reported a change")
	}
	if _, v, ok := s.Apply(StatAttack, -20); !ok || v != MinStage {
		t.Errorf("Apply(-20) = %d, %v; want %d, true", v, ok, MinStage)
	}
	s.Reset()
	if s.Get(StatAttack) != 0 {
		t.Error("Reset left a stage behind")
	}
}

func TestParseStatDeltas(t *testing.T) {
	d, err := ParseStatDeltas("attack:+1, speed:-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(d) != 2 || d[0] != (StatDelta{StatAttack, 1}) || d[1] != (StatDelta{StatSpeed, -2}) {
		t.Errorf("got %+v", d)
	}
	if _, err := ParseStatDeltas("luck:+1"); err == nil {
		t.Error("expected error for unknown stat")
	}
}
