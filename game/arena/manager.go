package arena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kasuganosora/monbattle/cache"
	"github.com/kasuganosora/monbattle/game/battle"
	"github.com/kasuganosora/monbattle/resource"
	"github.com/kasuganosora/monbattle/scheduler"
)

const (
	reapTask       = "arena.reap"
	publishTimeout = 2 * time.Second
)

// Options wires a Manager. Catalog, Store and PubSub are required.
type Options struct {
	Catalog   *resource.ResourceLoader
	Store     cache.Store
	PubSub    cache.PubSub
	Scheduler *scheduler.Scheduler // nil = reaping only through Reap
	Rules     *battle.Rules        // nil = battle.DefaultRules()
	Config    Config
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Manager owns every running battle, keyed by id. Battles are mutated only
// through SubmitAction, one caller at a time per battle.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	cat    *resource.ResourceLoader
	store  cache.Store
	pubsub cache.PubSub
	sched  *scheduler.Scheduler
	rules  battle.Rules
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

type session struct {
	mu         sync.Mutex
	id         string
	b          *battle.BattleInstance
	createdAt  time.Time
	lastActive time.Time
	endedAt    time.Time
	seq        int
	exp        int
	summarized bool
}

// NewManager creates a Manager. Zero config fields take DefaultConfig values.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	rules := battle.DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	return &Manager{
		sessions: make(map[string]*session),
		cat:      opts.Catalog,
		store:    opts.Store,
		pubsub:   opts.PubSub,
		sched:    opts.Scheduler,
		rules:    rules,
		cfg:      withDefaults(opts.Config),
		logger:   opts.Logger.Named("arena"),
		now:      opts.Clock,
	}
}

func withDefaults(c Config) Config {
	d := DefaultConfig()
	if c.IdleTTL <= 0 {
		c.IdleTTL = d.IdleTTL
	}
	if c.FinishedGrace <= 0 {
		c.FinishedGrace = d.FinishedGrace
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = d.ReapInterval
	}
	if c.SummaryTTL <= 0 {
		c.SummaryTTL = d.SummaryTTL
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = d.RecentLimit
	}
	if c.DefaultLevel <= 0 {
		c.DefaultLevel = d.DefaultLevel
	}
	if c.MaxTeamSize <= 0 {
		c.MaxTeamSize = d.MaxTeamSize
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = d.MaxSessions
	}
	return c
}

// Start registers the periodic reaper with the scheduler.
func (m *Manager) Start() {
	if m.sched == nil {
		return
	}
	m.sched.AddTicker(reapTask, m.cfg.ReapInterval, func(ctx context.Context) {
		if n := m.Reap(ctx); n > 0 {
			m.logger.Info("reaped battles", zap.Int("count", n))
		}
	})
}

// Create builds both teams from the catalog and starts a battle.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (battle.Snapshot, error) {
	player, playerBag, err := m.buildSide(req.Player)
	if err != nil {
		return battle.Snapshot{}, fmt.Errorf("player: %w", err)
	}
	opponent, opponentBag, err := m.buildSide(req.Opponent)
	if err != nil {
		return battle.Snapshot{}, fmt.Errorf("opponent: %w", err)
	}

	m.mu.RLock()
	full := len(m.sessions) >= m.cfg.MaxSessions
	m.mu.RUnlock()
	if full {
		return battle.Snapshot{}, fmt.Errorf("%w: too many running battles", ErrRejected)
	}

	now := m.now()
	s := &session{id: uuid.NewString(), createdAt: now, lastActive: now}
	rules := m.rules
	s.b = battle.NewBattleInstance(battle.BattleConfig{
		ID:     s.id,
		Wild:   req.Wild,
		Rules:  &rules,
		Chart:  m.cat.Chart,
		RNG:    battle.NewRNG(req.Seed),
		Logger: m.logger,
		Sinks:  []battle.EventSink{battle.SinkFunc(m.sink(s))},
		Bags:   [2][]battle.ItemStack{playerBag, opponentBag},
		Clock:  m.now,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.b.Init(player, opponent, req.Duel); err != nil {
		return battle.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("battle created",
		zap.String("battle", s.id),
		zap.Bool("duel", req.Duel),
		zap.Bool("wild", req.Wild),
		zap.Strings("player", req.Player.Species),
		zap.Strings("opponent", req.Opponent.Species))
	m.afterChange(ctx, s)
	return s.b.Snapshot(), nil
}

func (m *Manager) buildSide(t TeamSpec) ([]*battle.Creature, []battle.ItemStack, error) {
	if len(t.Species) == 0 {
		return nil, nil, fmt.Errorf("%w: empty team", ErrInvalidRequest)
	}
	if len(t.Species) > m.cfg.MaxTeamSize {
		return nil, nil, fmt.Errorf("%w: team of %d exceeds %d", ErrInvalidRequest, len(t.Species), m.cfg.MaxTeamSize)
	}
	level := t.Level
	if level == 0 {
		level = m.cfg.DefaultLevel
	}
	team, err := m.cat.NewTeam(t.Species, level)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	bag, err := m.cat.NewBag(t.Bag)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return team, bag, nil
}

// Submit records one side's action. Outside a duel only the player side
// may submit.
func (m *Manager) Submit(ctx context.Context, id string, req ActionRequest) (SubmitResult, error) {
	side, err := battle.ParseSide(req.Side)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	kind, err := battle.ParseActionKind(req.Kind)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	s, err := m.get(id)
	if err != nil {
		return SubmitResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.b.Duel() && side == battle.SideOpponent {
		return SubmitResult{}, fmt.Errorf("%w: the opponent is not player controlled", ErrRejected)
	}
	logBefore := len(s.b.Log())
	turnBefore := s.b.Turn()
	if !s.b.SubmitAction(side, kind, req.Param1, req.Param2) {
		reason := "battle is not accepting actions"
		if l := s.b.Log(); len(l) > logBefore {
			reason = l[len(l)-1].Text
		}
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrRejected, reason)
	}
	s.lastActive = m.now()
	m.afterChange(ctx, s)

	newLines := append([]battle.LogEntry(nil), s.b.Log()[logBefore:]...)
	return SubmitResult{
		Resolved: s.b.Turn() != turnBefore || s.b.State() == battle.StateEnded,
		Snapshot: s.b.Snapshot(),
		Log:      newLines,
	}, nil
}

// Autoplay drives every open input window with the AI policy until the
// battle ends or maxTurns turns were played. It returns the final snapshot.
func (m *Manager) Autoplay(ctx context.Context, id string, maxTurns int) (battle.Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return battle.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	policy := battle.RandomPolicy{}
	start := s.b.Turn()
	for s.b.State() == battle.StateAwaitingActions && s.b.Turn()-start < maxTurns {
		if err := ctx.Err(); err != nil {
			return s.b.Snapshot(), err
		}
		progressed := false
		for _, side := range []battle.Side{battle.SidePlayer, battle.SideOpponent} {
			if !s.b.Awaiting(side) {
				continue
			}
			k, p1, p2 := policy.Choose(s.b, side)
			if s.b.SubmitAction(side, k, p1, p2) || s.b.SubmitAction(side, battle.ActionRestorePP, 0, 0) {
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	s.lastActive = m.now()
	m.afterChange(ctx, s)
	return s.b.Snapshot(), nil
}

// Snapshot returns the current state of a battle.
func (m *Manager) Snapshot(id string) (battle.Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return battle.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Snapshot(), nil
}

// Log returns the battle log from line since onward.
func (m *Manager) Log(id string, since int) ([]battle.LogEntry, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.b.Log()
	if since < 0 {
		since = 0
	}
	if since >= len(l) {
		return []battle.LogEntry{}, nil
	}
	return append([]battle.LogEntry(nil), l[since:]...), nil
}

// Summary returns the stored record of an ended battle.
func (m *Manager) Summary(ctx context.Context, id string) (Summary, error) {
	raw, err := m.store.Get(ctx, summaryKey(id))
	if err != nil {
		if _, liveErr := m.get(id); liveErr == nil {
			return Summary{}, fmt.Errorf("%w: battle %s is still running", ErrRejected, id)
		}
		return Summary{}, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	var sum Summary
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		return Summary{}, fmt.Errorf("arena: decode summary %s: %w", id, err)
	}
	return sum, nil
}

// Recent returns the ids of the most recently ended battles, newest first.
func (m *Manager) Recent(ctx context.Context, n int) ([]string, error) {
	if n <= 0 || n > m.cfg.RecentLimit {
		n = m.cfg.RecentLimit
	}
	return m.store.LRange(ctx, recentKey, 0, int64(n-1))
}

// Active lists the ids of battles held in memory, sorted.
func (m *Manager) Active() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subscribe streams a battle's published events.
func (m *Manager) Subscribe(ctx context.Context, id string) (<-chan *cache.Message, func(), error) {
	if _, err := m.get(id); err != nil {
		return nil, nil, err
	}
	return m.pubsub.Subscribe(ctx, Channel(id))
}

// Reap drops ended battles past their grace period and running battles idle
// longer than IdleTTL. Abandoned battles get a summary. Returns how many
// battles were dropped.
func (m *Manager) Reap(ctx context.Context) int {
	now := m.now()
	m.mu.RLock()
	candidates := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	var drop []string
	for _, s := range candidates {
		s.mu.Lock()
		switch {
		case s.b.State() == battle.StateEnded:
			if now.Sub(s.endedAt) >= m.cfg.FinishedGrace {
				drop = append(drop, s.id)
			}
		case now.Sub(s.lastActive) >= m.cfg.IdleTTL:
			s.endedAt = now
			m.persist(ctx, s, ResultAbandoned)
			drop = append(drop, s.id)
		}
		s.mu.Unlock()
	}
	for _, id := range drop {
		m.remove(id)
	}
	return len(drop)
}

func (m *Manager) get(id string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	return s, nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	if m.sched != nil {
		m.sched.Remove(dropTask(id))
	}
}

func dropTask(id string) string { return "arena.drop." + id }

// afterChange records the summary once the battle has ended. Caller holds s.mu.
func (m *Manager) afterChange(ctx context.Context, s *session) {
	if s.b.State() != battle.StateEnded || s.summarized {
		return
	}
	s.endedAt = m.now()
	m.persist(ctx, s, s.b.Result().String())
	m.logger.Info("battle ended",
		zap.String("battle", s.id),
		zap.String("result", s.b.Result().String()),
		zap.Int("turns", s.b.Turn()))
	if m.sched != nil {
		id := s.id
		m.sched.AddDelay(dropTask(id), m.cfg.FinishedGrace, func(context.Context) { m.remove(id) })
	}
}

// persist stores the summary and indexes it. Caller holds s.mu.
func (m *Manager) persist(ctx context.Context, s *session, result string) {
	s.summarized = true
	sum := Summary{
		ID:        s.id,
		Result:    result,
		Turns:     s.b.Turn(),
		Wild:      s.b.Wild(),
		Duel:      s.b.Duel(),
		Player:    speciesOf(s.b.Team(battle.SidePlayer)),
		Opponent:  speciesOf(s.b.Team(battle.SideOpponent)),
		Exp:       s.exp,
		CreatedAt: s.createdAt,
		EndedAt:   s.endedAt,
	}
	raw, err := json.Marshal(sum)
	if err != nil {
		m.logger.Error("encode summary", zap.String("battle", s.id), zap.Error(err))
		return
	}
	if err := m.store.Set(ctx, summaryKey(s.id), string(raw), m.cfg.SummaryTTL); err != nil {
		m.logger.Warn("store summary", zap.String("battle", s.id), zap.Error(err))
		return
	}
	if err := m.store.LPush(ctx, recentKey, s.id); err != nil {
		m.logger.Warn("index summary", zap.String("battle", s.id), zap.Error(err))
		return
	}
	if err := m.store.LTrim(ctx, recentKey, 0, int64(m.cfg.RecentLimit-1)); err != nil {
		m.logger.Warn("trim recent battles", zap.Error(err))
	}
}

func speciesOf(team []*battle.Creature) []string {
	out := make([]string, len(team))
	for i, c := range team {
		out[i] = c.Species
		if out[i] == "" {
			out[i] = c.Name
		}
	}
	return out
}

// sink publishes every event of s as an EventEnvelope. It runs inside the
// battle's call stack, so s.mu is already held.
func (m *Manager) sink(s *session) func(string, battle.BattleEvent) {
	return func(battleID string, evt battle.BattleEvent) {
		s.seq++
		if end, ok := evt.(*battle.EventBattleEnd); ok {
			s.exp = end.Exp
		}
		raw, err := json.Marshal(EventEnvelope{Battle: battleID, Seq: s.seq, Type: evt.EventType(), Data: evt})
		if err != nil {
			m.logger.Error("encode event", zap.String("battle", battleID), zap.String("type", evt.EventType()), zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := m.pubsub.Publish(ctx, Channel(battleID), string(raw)); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("publish event", zap.String("battle", battleID), zap.Error(err))
		}
	}
}
