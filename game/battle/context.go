package battle

// Context is the view of a running battle that skills and effects resolve
// against. Implementations must not hand out roster slices.
type Context interface {
	RNG() RNG
	Rules() Rules
	Chart() *TypeChart
	Turn() int
	// Creature returns the creature behind h, or nil.
	Creature(h Handle) *Creature
	// Opponent returns the active creature facing c, or nil.
	Opponent(c *Creature) *Creature
	// Logf appends a line to the battle log. source and target may be nil.
	Logf(source, target *Creature, format string, args ...any)
	Emit(evt BattleEvent)
}
