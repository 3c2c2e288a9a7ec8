package battle

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// State is the phase of the battle state machine.
type State int

const (
	StateAwaitingActions State = iota
	StateResolving
	StateEnded
)

var stateNames = [...]string{"awaiting_actions", "resolving", "ended"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Result is the terminal outcome of a battle.
type Result int

const (
	ResultNone Result = iota
	ResultPlayerWin
	ResultOpponentWin
	ResultDraw
	ResultEscape
)

var resultNames = [...]string{"none", "player_win", "opponent_win", "draw", "escape"}

func (r Result) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return "unknown"
	}
	return resultNames[r]
}

// ErrEmptyTeam is returned by Init when a side has no creatures.
var ErrEmptyTeam = errors.New("battle: team is empty")

// BattleConfig configures a BattleInstance.
type BattleConfig struct {
	ID string
	// Wild battles allow escape; structured ones do not.
	Wild    bool
	Rules   *Rules     // nil = DefaultRules()
	Chart   *TypeChart // nil = DefaultTypeChart()
	RNG     RNG        // injectable for testing; nil = NewRNG(0)
	Logger  *zap.Logger
	Sinks   []EventSink
	TurnMgr TurnManager // nil = DefaultTurnManager
	// AI fills the opponent's slot when the battle is not a duel. nil = RandomPolicy.
	AI    Policy
	Bags  [2][]ItemStack
	Clock func() time.Time
}

// BattleInstance runs one battle. It is not safe for concurrent use; all
// mutation happens inside Init and SubmitAction.
type BattleInstance struct {
	id    string
	wild  bool
	duel  bool
	rules Rules
	chart *TypeChart

	teams   [2][]*Creature
	active  [2]int
	bags    [2][]ItemStack
	pending [2]*QueueEntry

	turn   int
	state  State
	result Result
	log    []LogEntry

	rng     RNG
	logger  *zap.Logger
	sinks   []EventSink
	turnMgr TurnManager
	ai      Policy
	clock   func() time.Time
}

// NewBattleInstance creates a battle instance. Teams are supplied by Init.
func NewBattleInstance(cfg BattleConfig) *BattleInstance {
	if cfg.RNG == nil {
		cfg.RNG = NewRNG(0)
	}
	if cfg.TurnMgr == nil {
		cfg.TurnMgr = DefaultTurnManager{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Chart == nil {
		cfg.Chart = DefaultTypeChart()
	}
	if cfg.AI == nil {
		cfg.AI = RandomPolicy{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	rules := DefaultRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	b := &BattleInstance{
		id:      cfg.ID,
		wild:    cfg.Wild,
		rules:   rules,
		chart:   cfg.Chart,
		rng:     cfg.RNG,
		logger:  cfg.Logger.With(zap.String("battle", cfg.ID)),
		sinks:   cfg.Sinks,
		turnMgr: cfg.TurnMgr,
		ai:      cfg.AI,
		clock:   cfg.Clock,
	}
	for side := range cfg.Bags {
		b.bags[side] = append([]ItemStack(nil), cfg.Bags[side]...)
	}
	return b
}

// Init installs both rosters and starts the battle. The first healthy member
// of each side becomes active. A side that starts fully fainted ends the
// battle immediately.
func (b *BattleInstance) Init(player, opponent []*Creature, duel bool) error {
	if len(player) == 0 || len(opponent) == 0 {
		return ErrEmptyTeam
	}
	b.duel = duel
	b.teams = [2][]*Creature{append([]*Creature(nil), player...), append([]*Creature(nil), opponent...)}
	b.turn = 1
	b.state = StateAwaitingActions
	b.result = ResultNone
	b.pending = [2]*QueueEntry{}
	b.log = nil

	for side, team := range b.teams {
		for i, c := range team {
			c.ResetForBattle(b.rules.FullRestoreOnStart)
			c.attach(Handle{Side: Side(side), Index: i}, b.Emit)
		}
		b.active[side] = firstHealthy(team)
	}

	b.Emit(&EventBattleStart{
		Player:   snapshotTeam(b.teams[SidePlayer]),
		Opponent: snapshotTeam(b.teams[SideOpponent]),
		Wild:     b.wild,
		Duel:     duel,
	})
	b.Logf(nil, nil, "%s vs %s", b.activeName(SidePlayer), b.activeName(SideOpponent))
	b.logger.Debug("battle start", zap.Bool("duel", duel), zap.Bool("wild", b.wild))

	if b.CheckBattleEnd() != ResultNone {
		return nil
	}
	b.emitTurnStart()
	return nil
}

func firstHealthy(team []*Creature) int {
	for i, c := range team {
		if !c.Fainted() {
			return i
		}
	}
	return 0
}

// SubmitAction records side's action for the current turn. A second
// submission before resolution replaces the first. Resolution runs inside
// this call once both sides have an entry; outside a duel the opponent's
// entry comes from the AI policy and opponent submissions are refused.
// Returns false when the action is rejected.
func (b *BattleInstance) SubmitAction(side Side, kind ActionKind, param1, param2 int) bool {
	if side != SidePlayer && side != SideOpponent {
		return false
	}
	if side == SideOpponent && !b.duel {
		b.logger.Info("action rejected: opponent is AI controlled")
		return false
	}
	if b.state != StateAwaitingActions {
		b.logger.Info("action rejected: battle not accepting input",
			zap.String("side", side.String()), zap.String("state", b.state.String()))
		return false
	}
	if !b.validate(side, kind, param1) {
		b.logger.Info("action rejected",
			zap.String("side", side.String()), zap.String("kind", kind.String()), zap.Int("param1", param1))
		return false
	}
	b.pending[side] = b.newEntry(side, kind, param1, param2)

	if !b.duel && b.pending[SideOpponent] == nil {
		k, p1, p2 := b.ai.Choose(b, SideOpponent)
		if !b.validate(SideOpponent, k, p1) {
			k, p1, p2 = ActionRestorePP, 0, 0
		}
		b.pending[SideOpponent] = b.newEntry(SideOpponent, k, p1, p2)
	}

	if b.pending[SidePlayer] != nil && b.pending[SideOpponent] != nil {
		b.resolve()
	}
	return true
}

// Awaiting reports whether side's input window is open. Outside a duel the
// opponent never waits on input.
func (b *BattleInstance) Awaiting(side Side) bool {
	if !b.duel && side == SideOpponent {
		return false
	}
	return b.state == StateAwaitingActions && b.pending[side] == nil
}

func (b *BattleInstance) newEntry(side Side, kind ActionKind, param1, param2 int) *QueueEntry {
	actor := b.Active(side)
	return &QueueEntry{
		Side:     side,
		Actor:    actor.handle,
		Kind:     kind,
		Param1:   param1,
		Param2:   param2,
		Priority: actionPriority(actor, kind, param1),
		Speed:    speedSnapshot(actor),
	}
}

func (b *BattleInstance) validate(side Side, kind ActionKind, param1 int) bool {
	actor := b.Active(side)
	switch kind {
	case ActionSkill:
		if actor.Skill(param1) == nil {
			b.Logf(actor, nil, "%s has no skill in slot %d", actor.Name, param1)
			return false
		}
	case ActionSwitch:
		team := b.teams[side]
		if param1 < 0 || param1 >= len(team) {
			b.Logf(actor, nil, "no creature in slot %d", param1)
			return false
		}
		if param1 == b.active[side] {
			b.Logf(actor, nil, "%s is already in battle", actor.Name)
			return false
		}
		if team[param1].Fainted() {
			b.Logf(actor, nil, "%s has fainted and cannot battle", team[param1].Name)
			return false
		}
	case ActionItem:
		bag := b.bags[side]
		if param1 < 0 || param1 >= len(bag) || bag[param1].Item == nil || bag[param1].Count <= 0 {
			b.Logf(actor, nil, "no item in bag slot %d", param1)
			return false
		}
	case ActionEscape:
		if !b.wild || b.duel {
			b.Logf(actor, nil, "there is no running from this battle")
			return false
		}
	case ActionRestorePP:
	default:
		return false
	}
	return true
}

// resolve executes a full turn. Both slots must be filled.
func (b *BattleInstance) resolve() {
	if b.pending[SidePlayer] == nil || b.pending[SideOpponent] == nil {
		panic("battle: resolve with fewer than two queued actions")
	}
	b.state = StateResolving
	b.logger.Debug("turn resolve", zap.Int("turn", b.turn))

	for side := range b.teams {
		b.Active(Side(side)).OnTurnStart(b)
	}
	if b.CheckBattleEnd() != ResultNone {
		return
	}

	queue := []*QueueEntry{b.pending[SidePlayer], b.pending[SideOpponent]}
	for _, e := range b.turnMgr.Order(queue, b.rng) {
		actor := b.Creature(e.Actor)
		if actor == nil || actor.Fainted() {
			continue
		}
		b.execute(e, actor)
		if b.CheckBattleEnd() != ResultNone {
			return
		}
	}

	b.endTurn()
}

func (b *BattleInstance) execute(e *QueueEntry, actor *Creature) {
	b.logger.Debug("execute action",
		zap.String("side", e.Side.String()), zap.String("kind", e.Kind.String()),
		zap.Int("priority", e.Priority), zap.Int("speed", e.Speed))

	switch e.Kind {
	case ActionSkill:
		if !b.canAct(actor) {
			return
		}
		b.useSkill(actor, e.Param1)
	case ActionSwitch:
		b.switchTo(e.Side, e.Param1)
	case ActionItem:
		b.useItem(e.Side, actor, e.Param1)
	case ActionEscape:
		if chance(b.rng, b.rules.EscapeChance) {
			b.Logf(actor, nil, "got away safely")
			b.finish(ResultEscape)
			return
		}
		b.Logf(actor, nil, "couldn't get away")
	case ActionRestorePP:
		if !b.canAct(actor) {
			return
		}
		n := actor.RestorePP(b.rules.RestorePPAmount)
		b.Logf(actor, nil, "%s rested and restored %d PP", actor.Name, n)
	}
}

func (b *BattleInstance) useSkill(actor *Creature, slot int) {
	s := actor.Skill(slot)
	if s == nil {
		b.Logf(actor, nil, "%s has no skill in slot %d", actor.Name, slot)
		return
	}
	b.Logf(actor, nil, "%s used %s", actor.Name, s.Name)
	out := s.Use(b, actor)

	evt := &EventSkillUsed{
		User:          actor.ref(),
		Skill:         s.Name,
		Hit:           out.Hit,
		Damage:        out.Damage,
		Critical:      out.Critical,
		Strikes:       out.Strikes,
		Effectiveness: out.Effectiveness,
		Reason:        out.Reason.String(),
	}
	if out.Target != nil {
		ref := out.Target.ref()
		evt.Target = &ref
	}
	b.Emit(evt)

	switch out.Reason {
	case FailNoPP:
		b.Logf(actor, nil, "not enough PP")
	case FailNoTarget:
		b.Logf(actor, nil, "but there was no target")
	case FailLocked:
		b.Logf(actor, nil, "but %s cannot be used yet", s.Name)
	case FailMissed:
		b.Logf(actor, out.Target, "but it missed")
	case FailNoEffect:
		b.Logf(actor, out.Target, "but it had no effect")
	}
	if out.Critical {
		b.Logf(actor, out.Target, "a critical hit")
	}
	if out.Hit && out.Damage > 0 {
		switch {
		case out.Effectiveness > 1:
			b.Logf(actor, out.Target, "it's super effective")
		case out.Effectiveness < 1:
			b.Logf(actor, out.Target, "it's not very effective")
		}
	}
}

// canAct applies the action-blocking conditions. It returns false when the
// actor loses its action this turn.
func (b *BattleInstance) canAct(c *Creature) bool {
	switch c.Status() {
	case StatusSleep:
		b.Logf(c, nil, "%s is fast asleep", c.Name)
		return false
	case StatusFreeze:
		b.Logf(c, nil, "%s is frozen solid", c.Name)
		return false
	case StatusTired:
		b.Logf(c, nil, "%s is too tired to move", c.Name)
		return false
	case StatusFear:
		b.Logf(c, nil, "%s flinched in fear", c.Name)
		c.ClearStatusCondition()
		return false
	case StatusParalyze:
		if chance(b.rng, b.rules.ParalysisSkipChance) {
			b.Logf(c, nil, "%s is paralyzed and can't move", c.Name)
			return false
		}
	case StatusConfusion:
		if chance(b.rng, b.rules.ConfusionSelfHitChance) {
			b.Logf(c, nil, "%s hurt itself in its confusion", c.Name)
			dealDamage(b, nil, c, chip(c.MaxHP(), b.rules.ConfusionDivisor))
			return false
		}
	}
	return true
}

func chip(maxHP, divisor int) int {
	if divisor <= 0 {
		return 0
	}
	n := maxHP / divisor
	if n < 1 {
		n = 1
	}
	return n
}

func (b *BattleInstance) switchTo(side Side, index int) {
	team := b.teams[side]
	if index < 0 || index >= len(team) || index == b.active[side] || team[index].Fainted() {
		b.Logf(nil, nil, "the switch failed")
		return
	}
	from := b.Active(side)
	from.ResetStatStages()
	b.active[side] = index
	to := team[index]
	b.Emit(&EventSwitched{Side: side.String(), From: from.ref(), To: to.ref()})
	b.Logf(from, to, "%s was withdrawn, go %s", from.Name, to.Name)
}

func (b *BattleInstance) useItem(side Side, actor *Creature, slot int) {
	bag := b.bags[side]
	if slot < 0 || slot >= len(bag) || bag[slot].Item == nil || bag[slot].Count <= 0 {
		b.Logf(actor, nil, "the item is gone")
		return
	}
	it := bag[slot].Item
	b.Logf(actor, nil, "used %s on %s", it.Name, actor.Name)
	if !it.use(b, actor) {
		b.Logf(actor, nil, "but it had no effect")
		return
	}
	bag[slot].Count--
}

// endTurn runs the turn-end phase and reopens the input window.
func (b *BattleInstance) endTurn() {
	for side := range b.teams {
		c := b.Active(Side(side))
		if c.Fainted() {
			continue
		}
		if n := chip(c.MaxHP(), b.rules.chipDivisor(c.Status())); n > 0 {
			b.Logf(nil, c, "%s is hurt by %s", c.Name, c.Status())
			dealDamage(b, nil, c, n)
		}
	}
	if b.CheckBattleEnd() != ResultNone {
		return
	}
	for side := range b.teams {
		b.Active(Side(side)).OnTurnEnd(b)
	}
	if b.CheckBattleEnd() != ResultNone {
		return
	}

	for side := range b.teams {
		b.promote(Side(side))
	}
	b.pending = [2]*QueueEntry{}
	b.Emit(&EventTurnEnd{Turn: b.turn})
	b.turn++
	b.state = StateAwaitingActions
	b.emitTurnStart()
}

// promote replaces a fainted active creature with the next healthy member.
func (b *BattleInstance) promote(side Side) {
	team := b.teams[side]
	cur := b.active[side]
	if !team[cur].Fainted() {
		return
	}
	for step := 1; step < len(team); step++ {
		i := (cur + step) % len(team)
		if team[i].Fainted() {
			continue
		}
		b.active[side] = i
		b.Emit(&EventSwitched{Side: side.String(), From: team[cur].ref(), To: team[i].ref()})
		b.Logf(nil, team[i], "go %s", team[i].Name)
		return
	}
}

// CheckBattleEnd derives the result from the rosters and ends the battle
// when a side has no creature left standing.
func (b *BattleInstance) CheckBattleEnd() Result {
	if b.state == StateEnded {
		return b.result
	}
	playerDown := allFainted(b.teams[SidePlayer])
	opponentDown := allFainted(b.teams[SideOpponent])
	switch {
	case playerDown && opponentDown:
		b.finish(ResultDraw)
	case opponentDown:
		b.finish(ResultPlayerWin)
	case playerDown:
		b.finish(ResultOpponentWin)
	}
	return b.result
}

func allFainted(team []*Creature) bool {
	for _, c := range team {
		if !c.Fainted() {
			return false
		}
	}
	return true
}

func (b *BattleInstance) finish(r Result) {
	b.state = StateEnded
	b.result = r
	b.pending = [2]*QueueEntry{}

	evt := &EventBattleEnd{Result: r.String(), Turn: b.turn}
	if r == ResultPlayerWin {
		evt.Exp, evt.LevelUps = b.awardExp()
	}
	b.Logf(nil, nil, "battle over: %s", r)
	b.logger.Debug("battle end", zap.String("result", r.String()), zap.Int("turn", b.turn))
	b.Emit(evt)
}

// awardExp splits the defeated team's exp among surviving player creatures.
func (b *BattleInstance) awardExp() (int, []LevelUpEntry) {
	pool := 0
	for _, c := range b.teams[SideOpponent] {
		pool += DefeatExp(c)
	}
	var survivors []*Creature
	for _, c := range b.teams[SidePlayer] {
		if !c.Fainted() {
			survivors = append(survivors, c)
		}
	}
	if pool <= 0 || len(survivors) == 0 {
		return 0, nil
	}
	each := ShareExp(pool, len(survivors))
	var ups []LevelUpEntry
	for _, c := range survivors {
		if c.GainExp(each) > 0 {
			ups = append(ups, LevelUpEntry{Index: c.handle.Index, NewLevel: c.Level})
			b.Logf(nil, c, "%s grew to level %d", c.Name, c.Level)
		}
	}
	return each, ups
}

func (b *BattleInstance) emitTurnStart() {
	awaiting := []string{SidePlayer.String()}
	if b.duel {
		awaiting = append(awaiting, SideOpponent.String())
	}
	b.Emit(&EventTurnStart{Turn: b.turn, Awaiting: awaiting})
}

// --- Context ---

func (b *BattleInstance) RNG() RNG          { return b.rng }
func (b *BattleInstance) Rules() Rules      { return b.rules }
func (b *BattleInstance) Chart() *TypeChart { return b.chart }
func (b *BattleInstance) Turn() int         { return b.turn }

// Creature returns the creature behind h, or nil if h is out of range.
func (b *BattleInstance) Creature(h Handle) *Creature {
	if h.Side != SidePlayer && h.Side != SideOpponent {
		return nil
	}
	team := b.teams[h.Side]
	if h.Index < 0 || h.Index >= len(team) {
		return nil
	}
	return team[h.Index]
}

// Opponent returns the active creature of the side facing c.
func (b *BattleInstance) Opponent(c *Creature) *Creature {
	if c == nil || !c.handle.Valid() || len(b.teams[c.handle.Side.Other()]) == 0 {
		return nil
	}
	return b.Active(c.handle.Side.Other())
}

// Logf appends an entry to the battle log and emits it.
func (b *BattleInstance) Logf(source, target *Creature, format string, args ...any) {
	entry := LogEntry{Time: b.clock(), Turn: b.turn, Text: fmt.Sprintf(format, args...)}
	if source != nil {
		entry.Source = source.Name
	}
	if target != nil {
		entry.Target = target.Name
	}
	b.log = append(b.log, entry)
	b.Emit(&EventLogLine{Entry: entry})
}

// Emit delivers evt to every sink, in registration order.
func (b *BattleInstance) Emit(evt BattleEvent) {
	for _, s := range b.sinks {
		s.HandleEvent(b.id, evt)
	}
}

// AddSink registers another observer.
func (b *BattleInstance) AddSink(s EventSink) {
	b.sinks = append(b.sinks, s)
}

// --- Getters ---

func (b *BattleInstance) ID() string     { return b.id }
func (b *BattleInstance) Wild() bool     { return b.wild }
func (b *BattleInstance) Duel() bool     { return b.duel }
func (b *BattleInstance) State() State   { return b.state }
func (b *BattleInstance) Result() Result { return b.result }

// Active returns side's active creature. An active index outside the roster
// is a broken invariant and panics.
func (b *BattleInstance) Active(side Side) *Creature {
	team := b.teams[side]
	i := b.active[side]
	if i < 0 || i >= len(team) {
		panic(fmt.Sprintf("battle: active index %d out of range for %s team of %d", i, side, len(team)))
	}
	return team[i]
}

// ActiveIndex returns side's active roster index.
func (b *BattleInstance) ActiveIndex(side Side) int { return b.active[side] }

// Team returns a copy of side's roster.
func (b *BattleInstance) Team(side Side) []*Creature {
	return append([]*Creature(nil), b.teams[side]...)
}

// Bag returns a copy of side's item bag.
func (b *BattleInstance) Bag(side Side) []ItemStack {
	return append([]ItemStack(nil), b.bags[side]...)
}

// Log returns a copy of the battle log.
func (b *BattleInstance) Log() []LogEntry {
	return append([]LogEntry(nil), b.log...)
}

func (b *BattleInstance) activeName(side Side) string {
	return b.Active(side).Name
}

// Snapshot is the observable state of a battle.
type Snapshot struct {
	ID       string                `json:"id"`
	Turn     int                   `json:"turn"`
	State    string                `json:"state"`
	Result   string                `json:"result"`
	Wild     bool                  `json:"wild"`
	Duel     bool                  `json:"duel"`
	Active   [2]int                `json:"active"`
	Teams    [2][]CreatureSnapshot `json:"teams"`
	Bags     [2][]BagSlot          `json:"bags"`
	Awaiting []string              `json:"awaiting"`
}

// Snapshot captures the current state for observers.
func (b *BattleInstance) Snapshot() Snapshot {
	s := Snapshot{
		ID:     b.id,
		Turn:   b.turn,
		State:  b.state.String(),
		Result: b.result.String(),
		Wild:   b.wild,
		Duel:   b.duel,
		Active: b.active,
	}
	for side := range b.teams {
		s.Teams[side] = snapshotTeam(b.teams[side])
		s.Bags[side] = snapshotBag(b.bags[side])
		if b.Awaiting(Side(side)) {
			s.Awaiting = append(s.Awaiting, Side(side).String())
		}
	}
	return s
}

func snapshotTeam(team []*Creature) []CreatureSnapshot {
	out := make([]CreatureSnapshot, len(team))
	for i, c := range team {
		out[i] = SnapshotCreature(c)
	}
	return out
}
