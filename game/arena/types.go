package arena

import (
	"errors"
	"time"

	"github.com/kasuganosora/monbattle/game/battle"
	"github.com/kasuganosora/monbattle/resource"
)

var (
	ErrBattleNotFound = errors.New("arena: battle not found")
	ErrRejected       = errors.New("arena: action rejected")
	ErrInvalidRequest = errors.New("arena: invalid request")
)

// Config tunes session lifetimes.
type Config struct {
	// IdleTTL drops a running battle nobody has touched for this long.
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
	// FinishedGrace keeps an ended battle readable before it is dropped.
	FinishedGrace time.Duration `mapstructure:"finished_grace"`
	ReapInterval  time.Duration `mapstructure:"reap_interval"`
	SummaryTTL    time.Duration `mapstructure:"summary_ttl"`
	RecentLimit   int           `mapstructure:"recent_limit"`
	DefaultLevel  int           `mapstructure:"default_level"`
	MaxTeamSize   int           `mapstructure:"max_team_size"`
	MaxSessions   int           `mapstructure:"max_sessions"`
}

// DefaultConfig returns the stock lifetimes.
func DefaultConfig() Config {
	return Config{
		IdleTTL:       30 * time.Minute,
		FinishedGrace: 5 * time.Minute,
		ReapInterval:  time.Minute,
		SummaryTTL:    24 * time.Hour,
		RecentLimit:   100,
		DefaultLevel:  20,
		MaxTeamSize:   6,
		MaxSessions:   1000,
	}
}

// TeamSpec describes one side's roster.
type TeamSpec struct {
	Species []string            `json:"species"`
	Level   int                 `json:"level,omitempty"`
	Bag     []resource.BagEntry `json:"bag,omitempty"`
}

// CreateRequest starts a battle.
type CreateRequest struct {
	Player   TeamSpec `json:"player"`
	Opponent TeamSpec `json:"opponent"`
	// Duel: both sides are driven by callers. Otherwise the opponent is AI.
	Duel bool `json:"duel"`
	// Wild battles allow escape.
	Wild bool `json:"wild"`
	// Seed fixes the battle's randomness. 0 picks one from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// ActionRequest is one side's action for the current turn.
type ActionRequest struct {
	Side   string `json:"side"`
	Kind   string `json:"kind"`
	Param1 int    `json:"param1"`
	Param2 int    `json:"param2"`
}

// SubmitResult is the state after an accepted action. Log holds the lines
// appended by this submission.
type SubmitResult struct {
	Resolved bool             `json:"resolved"`
	Snapshot battle.Snapshot  `json:"snapshot"`
	Log      []battle.LogEntry `json:"log"`
}

// Summary is the record kept after a battle is over.
type Summary struct {
	ID        string    `json:"id"`
	Result    string    `json:"result"`
	Turns     int       `json:"turns"`
	Wild      bool      `json:"wild"`
	Duel      bool      `json:"duel"`
	Player    []string  `json:"player"`
	Opponent  []string  `json:"opponent"`
	Exp       int       `json:"exp,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// ResultAbandoned marks a battle reaped before it ended.
const ResultAbandoned = "abandoned"

// EventEnvelope is the JSON published for every battle event.
type EventEnvelope struct {
	Battle string             `json:"battle"`
	Seq    int                `json:"seq"`
	Type   string             `json:"type"`
	Data   battle.BattleEvent `json:"data"`
}

// Channel is the PubSub channel of a battle's events.
func Channel(id string) string { return "battle:" + id }

const recentKey = "battle:recent"

func summaryKey(id string) string { return "battle:summary:" + id }
