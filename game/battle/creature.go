package battle

// MaxSkills is the number of regular skill slots. The fifth skill sits at slot MaxSkills.
const MaxSkills = 4

// Handle addresses a creature inside a battle: side and roster index.
// Effects keep handles rather than creature pointers across turns.
type Handle struct {
	Side  Side `json:"side"`
	Index int  `json:"index"`
}

// NoHandle is the handle of a creature that is not part of a battle.
var NoHandle = Handle{Side: SidePlayer, Index: -1}

// Valid reports whether h points into a roster.
func (h Handle) Valid() bool { return h.Index >= 0 }

// Creature is a combat entity. HP, PP, status, stages and timed effects are
// battle state; death is HP == 0.
type Creature struct {
	Name     string
	Species  string
	Type     Type
	Level    int
	Exp      int
	ExpYield int
	Stats    BaseStats
	MaxPP    int

	Skills []*Skill
	Fifth  *Skill

	hp        int
	pp        int
	status    StatusCondition
	stages    StatStages
	timed     []*TimedEffect
	critBonus float64
	knockouts int

	handle Handle
	notify func(BattleEvent)
}

// NewCreature returns a creature at full HP and PP.
// Skills beyond MaxSkills are dropped.
func NewCreature(name string, t Type, level int, stats BaseStats, maxPP int, skills ...*Skill) *Creature {
	if len(skills) > MaxSkills {
		skills = skills[:MaxSkills]
	}
	if stats.HP < 1 {
		stats.HP = 1
	}
	if maxPP < 0 {
		maxPP = 0
	}
	return &Creature{
		Name:   name,
		Type:   t,
		Level:  level,
		Stats:  stats,
		MaxPP:  maxPP,
		Skills: skills,
		hp:     stats.HP,
		pp:     maxPP,
		handle: NoHandle,
	}
}

func (c *Creature) HP() int                 { return c.hp }
func (c *Creature) MaxHP() int              { return c.Stats.HP }
func (c *Creature) PP() int                 { return c.pp }
func (c *Creature) Status() StatusCondition { return c.status }
func (c *Creature) Stage(k StatKind) int    { return c.stages.Get(k) }
func (c *Creature) Fainted() bool           { return c.hp <= 0 }
func (c *Creature) Handle() Handle          { return c.handle }
func (c *Creature) Knockouts() int          { return c.knockouts }
func (c *Creature) CritBonus() float64      { return c.critBonus }

// SetHP sets current HP directly, clamped to [0, MaxHP]. Used to build
// rosters with carried-over damage; combat goes through TakeDamage and Heal.
func (c *Creature) SetHP(hp int) {
	c.hp = clamp(hp, 0, c.MaxHP())
}

// SetPP sets current PP directly, clamped to [0, MaxPP].
func (c *Creature) SetPP(pp int) {
	c.pp = clamp(pp, 0, c.MaxPP)
}

// Skill returns the skill in slot, or nil. Slot MaxSkills is the fifth skill.
func (c *Creature) Skill(slot int) *Skill {
	if slot == MaxSkills {
		return c.Fifth
	}
	if slot < 0 || slot >= len(c.Skills) {
		return nil
	}
	return c.Skills[slot]
}

// EffectiveStat is the base value of k scaled by its stage.
func (c *Creature) EffectiveStat(k StatKind) int {
	v := int(float64(c.Stats.Value(k)) * StageModifier(k, c.stages.Get(k)))
	if v < 1 {
		v = 1
	}
	return v
}

// TakeDamage lowers HP by n, never below zero. Returns the HP actually lost.
func (c *Creature) TakeDamage(n int) int {
	if n <= 0 || c.hp == 0 {
		return 0
	}
	old := c.hp
	c.hp = clamp(c.hp-n, 0, c.MaxHP())
	lost := old - c.hp
	c.emit(&EventDamage{Target: c.ref(), Amount: lost, HP: c.hp, MaxHP: c.MaxHP()})
	return lost
}

// Heal raises HP by n, never above MaxHP. A fainted creature cannot be healed.
func (c *Creature) Heal(n int) int {
	if n <= 0 || c.hp == 0 {
		return 0
	}
	old := c.hp
	c.hp = clamp(c.hp+n, 0, c.MaxHP())
	gained := c.hp - old
	if gained > 0 {
		c.emit(&EventHealing{Target: c.ref(), Amount: gained, HP: c.hp, MaxHP: c.MaxHP()})
	}
	return gained
}

// ConsumePP spends n PP. It fails without change when n exceeds the pool.
func (c *Creature) ConsumePP(n int) bool {
	if n < 0 || n > c.pp {
		return false
	}
	c.pp -= n
	return true
}

// RestorePP refills up to n PP. Returns the amount restored.
func (c *Creature) RestorePP(n int) int {
	if n <= 0 {
		return 0
	}
	old := c.pp
	c.pp = clamp(c.pp+n, 0, c.MaxPP)
	return c.pp - old
}

// ModifyStatStage applies a clamped delta. It returns false, changing
// nothing, when the stage already sits at the bound in the direction of delta.
func (c *Creature) ModifyStatStage(k StatKind, delta int) bool {
	if delta == 0 {
		return false
	}
	old, updated, changed := c.stages.Apply(k, delta)
	if !changed {
		return false
	}
	c.emit(&EventStatStageChanged{Target: c.ref(), Stat: k.String(), Old: old, New: updated})
	return true
}

// ResetStatStages zeroes every stage.
func (c *Creature) ResetStatStages() {
	for k := StatKind(0); k < statKindCount; k++ {
		if s := c.stages.Get(k); s != 0 {
			c.ModifyStatStage(k, -s)
		}
	}
}

// SetStatusCondition replaces the current condition. Timers installed for
// the previous condition are dropped.
func (c *Creature) SetStatusCondition(s StatusCondition) StatusCondition {
	old := c.status
	c.dropStatusTimers()
	c.status = s
	if old != s {
		c.emit(&EventStatusChanged{Target: c.ref(), Old: old.String(), New: s.String()})
	}
	return old
}

// ClearStatusCondition resets the condition to StatusNone.
func (c *Creature) ClearStatusCondition() {
	c.SetStatusCondition(StatusNone)
}

func (c *Creature) dropStatusTimers() {
	kept := c.timed[:0]
	for _, t := range c.timed {
		if t.Tag != tagStatus {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(c.timed); i++ {
		c.timed[i] = nil
	}
	c.timed = kept
}

// AddTurnEffect attaches e. Attaching the same instance twice is a no-op.
func (c *Creature) AddTurnEffect(e *TimedEffect) bool {
	if e == nil {
		return false
	}
	for _, t := range c.timed {
		if t == e {
			return false
		}
	}
	c.timed = append(c.timed, e)
	return true
}

// RemoveTurnEffect detaches e without running its expiry hook.
func (c *Creature) RemoveTurnEffect(e *TimedEffect) bool {
	for i, t := range c.timed {
		if t == e {
			c.timed = append(c.timed[:i], c.timed[i+1:]...)
			return true
		}
	}
	return false
}

// ClearAllTurnEffects detaches every timed effect and runs its expiry hook,
// so temporary bonuses are undone and permanent ones stay. Timers of the
// current status condition belong to the condition and are kept; they go
// with ClearStatusCondition.
func (c *Creature) ClearAllTurnEffects() {
	var kept, dropped []*TimedEffect
	for _, t := range c.timed {
		if t.Tag == tagStatus && c.status != StatusNone {
			kept = append(kept, t)
			continue
		}
		dropped = append(dropped, t)
	}
	c.timed = kept
	for _, t := range dropped {
		if t.OnExpire != nil {
			t.OnExpire(nil, c)
		}
	}
}

// EndTurnEffect detaches e early and runs its expiry hook.
func (c *Creature) EndTurnEffect(ctx Context, e *TimedEffect) bool {
	if !c.RemoveTurnEffect(e) {
		return false
	}
	if e.OnExpire != nil {
		e.OnExpire(ctx, c)
	}
	return true
}

// TurnEffects returns the attached timed effects in insertion order.
func (c *Creature) TurnEffects() []*TimedEffect {
	out := make([]*TimedEffect, len(c.timed))
	copy(out, c.timed)
	return out
}

// HasTurnEffect reports whether an effect with the given name is attached.
func (c *Creature) HasTurnEffect(name string) bool {
	for _, t := range c.timed {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Immune reports whether an immunity window of kind is open.
func (c *Creature) Immune(kind ImmunityKind) bool {
	tag := kind.tag()
	for _, t := range c.timed {
		if t.Tag == tag {
			return true
		}
	}
	return false
}

// OnTurnStart resolves timed effects that fire at the beginning of a turn.
func (c *Creature) OnTurnStart(ctx Context) {
	c.tick(ctx, PhaseTurnStart)
}

// OnTurnEnd resolves timed effects that fire at the end of a turn.
func (c *Creature) OnTurnEnd(ctx Context) {
	c.tick(ctx, PhaseTurnEnd)
}

func (c *Creature) tick(ctx Context, phase Phase) {
	for _, t := range c.TurnEffects() {
		if t.Phase != phase || !c.attached(t) {
			continue
		}
		if t.OnTick != nil {
			var src *Creature
			if ctx != nil && t.Source.Valid() {
				src = ctx.Creature(t.Source)
			}
			t.OnTick(ctx, c, src)
		}
		t.remaining--
		if t.remaining <= 0 && c.RemoveTurnEffect(t) && t.OnExpire != nil {
			t.OnExpire(ctx, c)
		}
	}
}

func (c *Creature) attached(e *TimedEffect) bool {
	for _, t := range c.timed {
		if t == e {
			return true
		}
	}
	return false
}

func (c *Creature) addCritBonus(delta float64) {
	c.critBonus += delta
	if c.critBonus < 0 {
		c.critBonus = 0
	}
}

// ResetForBattle clears transient battle state. full also refills HP and PP.
func (c *Creature) ResetForBattle(full bool) {
	c.status = StatusNone
	c.stages.Reset()
	c.timed = nil
	c.critBonus = 0
	c.knockouts = 0
	if full {
		c.hp = c.MaxHP()
		c.pp = c.MaxPP
	}
}

// GainExp adds experience and returns the number of levels gained.
func (c *Creature) GainExp(n int) int {
	if n <= 0 {
		return 0
	}
	c.Exp += n
	gained := 0
	for c.Exp >= ExpNeeded(c.Level) && c.Level < MaxLevel {
		c.Level++
		gained++
	}
	return gained
}

func (c *Creature) attach(h Handle, notify func(BattleEvent)) {
	c.handle = h
	c.notify = notify
}

func (c *Creature) emit(evt BattleEvent) {
	if c.notify != nil {
		c.notify(evt)
	}
}

func (c *Creature) ref() CreatureRef {
	return CreatureRef{Side: c.handle.Side.String(), Index: c.handle.Index, Name: c.Name}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
