package battle

// BattleEvent is emitted by BattleInstance for observers (API, SSE, CLI).
type BattleEvent interface {
	EventType() string
}

// EventSink receives every event of a battle synchronously, in order.
// Sinks observe; they never mutate the battle.
type EventSink interface {
	HandleEvent(battleID string, evt BattleEvent)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(battleID string, evt BattleEvent)

func (f SinkFunc) HandleEvent(battleID string, evt BattleEvent) { f(battleID, evt) }

// CreatureRef identifies a creature in event payloads.
type CreatureRef struct {
	Side  string `json:"side"`
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// CreatureSnapshot is the observable state of a creature.
type CreatureSnapshot struct {
	Index   int            `json:"index"`
	Name    string         `json:"name"`
	Species string         `json:"species,omitempty"`
	Type    string         `json:"type"`
	Level   int            `json:"level"`
	HP      int            `json:"hp"`
	MaxHP   int            `json:"max_hp"`
	PP      int            `json:"pp"`
	MaxPP   int            `json:"max_pp"`
	Status  string         `json:"status"`
	Stages  map[string]int `json:"stages,omitempty"`
	Effects []string       `json:"effects,omitempty"`
	Skills  []SkillRef     `json:"skills,omitempty"`
}

// SkillRef describes a skill slot.
type SkillRef struct {
	Slot     int    `json:"slot"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Power    int    `json:"power"`
	Cost     int    `json:"cost"`
}

// SnapshotCreature captures c for observers.
func SnapshotCreature(c *Creature) CreatureSnapshot {
	s := CreatureSnapshot{
		Index:   c.handle.Index,
		Name:    c.Name,
		Species: c.Species,
		Type:    c.Type.String(),
		Level:   c.Level,
		HP:      c.HP(),
		MaxHP:   c.MaxHP(),
		PP:      c.PP(),
		MaxPP:   c.MaxPP,
		Status:  c.Status().String(),
	}
	for k := StatKind(0); k < statKindCount; k++ {
		if v := c.Stage(k); v != 0 {
			if s.Stages == nil {
				s.Stages = make(map[string]int)
			}
			s.Stages[k.String()] = v
		}
	}
	for _, t := range c.timed {
		s.Effects = append(s.Effects, t.Name)
	}
	for slot := 0; slot <= MaxSkills; slot++ {
		if sk := c.Skill(slot); sk != nil {
			s.Skills = append(s.Skills, SkillRef{
				Slot: slot, Name: sk.Name, Type: sk.Type.String(),
				Category: sk.Category.String(), Power: sk.Power, Cost: sk.Cost,
			})
		}
	}
	return s
}

// --- Concrete event types ---

type EventBattleStart struct {
	Player   []CreatureSnapshot `json:"player"`
	Opponent []CreatureSnapshot `json:"opponent"`
	Wild     bool               `json:"wild"`
	Duel     bool               `json:"duel"`
}

func (EventBattleStart) EventType() string { return "battle_start" }

type EventTurnStart struct {
	Turn int `json:"turn"`
	// Awaiting lists the sides whose input window is open.
	Awaiting []string `json:"awaiting"`
}

func (EventTurnStart) EventType() string { return "turn_start" }

type EventTurnEnd struct {
	Turn int `json:"turn"`
}

func (EventTurnEnd) EventType() string { return "turn_end" }

type EventSkillUsed struct {
	User          CreatureRef  `json:"user"`
	Target        *CreatureRef `json:"target,omitempty"`
	Skill         string       `json:"skill"`
	Hit           bool         `json:"hit"`
	Damage        int          `json:"damage"`
	Critical      bool         `json:"critical,omitempty"`
	Strikes       int          `json:"strikes,omitempty"`
	Effectiveness float64      `json:"effectiveness"`
	Reason        string       `json:"reason,omitempty"`
}

func (EventSkillUsed) EventType() string { return "skill_used" }

type EventDamage struct {
	Target CreatureRef `json:"target"`
	Amount int         `json:"amount"`
	HP     int         `json:"hp"`
	MaxHP  int         `json:"max_hp"`
}

func (EventDamage) EventType() string { return "damage" }

type EventHealing struct {
	Target CreatureRef `json:"target"`
	Amount int         `json:"amount"`
	HP     int         `json:"hp"`
	MaxHP  int         `json:"max_hp"`
}

func (EventHealing) EventType() string { return "healing" }

type EventStatusChanged struct {
	Target CreatureRef `json:"target"`
	Old    string      `json:"old"`
	New    string      `json:"new"`
}

func (EventStatusChanged) EventType() string { return "status_changed" }

type EventStatStageChanged struct {
	Target CreatureRef `json:"target"`
	Stat   string      `json:"stat"`
	Old    int         `json:"old"`
	New    int         `json:"new"`
}

func (EventStatStageChanged) EventType() string { return "stat_stage_changed" }

type EventSwitched struct {
	Side string      `json:"side"`
	From CreatureRef `json:"from"`
	To   CreatureRef `json:"to"`
}

func (EventSwitched) EventType() string { return "switched" }

type LevelUpEntry struct {
	Index    int `json:"index"`
	NewLevel int `json:"new_level"`
}

type EventBattleEnd struct {
	Result   string         `json:"result"`
	Turn     int            `json:"turn"`
	Exp      int            `json:"exp,omitempty"`
	LevelUps []LevelUpEntry `json:"level_ups,omitempty"`
}

func (EventBattleEnd) EventType() string { return "battle_end" }

type EventLogLine struct {
	Entry LogEntry `json:"entry"`
}

func (EventLogLine) EventType() string { return "log" }
