package battle

// Phase is the turn boundary at which a timed effect fires.
type Phase int

const (
	PhaseTurnEnd Phase = iota
	PhaseTurnStart
)

// ParsePhase maps "start" / "end" to a Phase. Anything else is PhaseTurnEnd.
func ParsePhase(s string) Phase {
	if s == "start" || s == "turn_start" {
		return PhaseTurnStart
	}
	return PhaseTurnEnd
}

const tagStatus = "status"

// TimedEffect is attached to a creature and resolves at turn boundaries until
// its duration runs out, then detaches itself. Every application gets its own
// instance because the remaining counter is per application.
type TimedEffect struct {
	Name   string
	Tag    string
	Phase  Phase
	Source Handle

	// OnTick runs each time the effect's phase comes around. source may be nil.
	OnTick func(ctx Context, owner, source *Creature)
	// OnExpire runs once, after the effect detached itself.
	OnExpire func(ctx Context, owner *Creature)

	duration  int
	remaining int
}

// NewTimedEffect returns an effect lasting duration resolutions (at least one).
func NewTimedEffect(name string, duration int, phase Phase, source Handle) *TimedEffect {
	if duration < 1 {
		duration = 1
	}
	return &TimedEffect{
		Name:      name,
		Phase:     phase,
		Source:    source,
		duration:  duration,
		remaining: duration,
	}
}

// Remaining is the number of resolutions left.
func (t *TimedEffect) Remaining() int { return t.remaining }

// Duration is the number of resolutions the effect was created with.
func (t *TimedEffect) Duration() int { return t.duration }

// Clone returns a fresh instance with the full duration.
func (t *TimedEffect) Clone() *TimedEffect {
	cp := *t
	cp.remaining = t.duration
	return &cp
}
