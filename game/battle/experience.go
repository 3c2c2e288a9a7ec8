package battle

// MaxLevel caps level-ups from experience.
const MaxLevel = 100

// Each extra survivor adds a tenth to the shared pool, up to four tenths.
const (
	shareBonusStep = 1
	shareBonusMax  = 4
)

// ShareExp splits a defeated team's exp pool among survivors. The pool grows
// by a tenth per survivor past the first (at most +40%) before the split, and
// every survivor gets at least 1.
func ShareExp(pool, survivors int) int {
	if survivors < 1 {
		survivors = 1
	}
	tenths := 10 + min((survivors-1)*shareBonusStep, shareBonusMax)
	return max(pool*tenths/(10*survivors), 1)
}

// DefeatExp is the exp pool a defeated creature yields: level * yield / 7.
func DefeatExp(c *Creature) int {
	return c.Level * c.ExpYield / 7
}

// ExpNeeded returns the total exp needed to reach the next level.
func ExpNeeded(level int) int {
	if level <= 0 {
		return 30
	}
	return 30*level + 20*(level-1)*level/2
}
