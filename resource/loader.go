package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kasuganosora/monbattle/game/battle"
)

var (
	ErrUnknownSpecies = errors.New("resource: unknown species")
	ErrUnknownSkill   = errors.New("resource: unknown skill")
	ErrUnknownItem    = errors.New("resource: unknown item")
)

// ---- Data types (YAML) ----

// SpeciesData is one entry of species.yaml.
type SpeciesData struct {
	Key       string           `yaml:"key" json:"key"`
	Name      string           `yaml:"name" json:"name"`
	Primary   string           `yaml:"primary" json:"primary"`
	Secondary string           `yaml:"secondary" json:"secondary,omitempty"`
	Base      battle.BaseStats `yaml:"base" json:"base"`
	PP        int              `yaml:"pp" json:"pp"`
	ExpYield  int              `yaml:"exp_yield" json:"exp_yield"`
	Skills    []string         `yaml:"skills" json:"skills"`
	Fifth     string           `yaml:"fifth" json:"fifth,omitempty"`

	typ battle.Type
}

// SkillData is one entry of skills.yaml. Kind selects the resolution; the
// kind-specific fields are ignored by the other kinds.
type SkillData struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Primary     string `yaml:"primary"`
	Secondary   string `yaml:"secondary"`
	Kind        string `yaml:"kind"`
	Category    string `yaml:"category"`
	Power       int    `yaml:"power"`
	Cost        int    `yaml:"cost"`
	Accuracy    int    `yaml:"accuracy"`
	Priority    int    `yaml:"priority"`
	Target      string `yaml:"target"`
	Description string `yaml:"description"`

	// composite
	Chance int `yaml:"chance"`
	// multi_hit
	MinHits int `yaml:"min_hits"`
	MaxHits int `yaml:"max_hits"`
	// fixed, healing
	Amount  int `yaml:"amount"`
	Percent int `yaml:"percent"`
	// stat_change
	Stats string `yaml:"stats"`
	// signature
	BaseKind string                 `yaml:"base_kind"`
	Unlock   battle.UnlockCondition `yaml:"unlock"`

	Effects []battle.EffectSpec `yaml:"effects"`
}

// ItemData is one entry of items.yaml. Target is the default target of
// effects that do not name one.
type ItemData struct {
	Key     string              `yaml:"key"`
	Name    string              `yaml:"name"`
	Target  string              `yaml:"target"`
	Effects []battle.EffectSpec `yaml:"effects"`
}

// TypeOverride replaces one cell of the default type chart.
type TypeOverride struct {
	Attack     string  `yaml:"attack"`
	Defense    string  `yaml:"defense"`
	Multiplier float64 `yaml:"multiplier"`
}

// BagEntry names a stack of catalog items.
type BagEntry struct {
	Item  string `yaml:"item" json:"item"`
	Count int    `yaml:"count" json:"count"`
}

// ---- ResourceLoader ----

// ResourceLoader reads the YAML catalog and builds the shared skill and item
// templates used by every battle.
type ResourceLoader struct {
	DataPath string

	Species []*SpeciesData
	Chart   *battle.TypeChart

	skillData []*SkillData
	itemData  []*ItemData
	overrides []*TypeOverride

	species map[string]*SpeciesData
	skills  map[string]*battle.Skill
	items   map[string]*battle.Item
}

// NewLoader creates a ResourceLoader for the given catalog directory.
func NewLoader(dataPath string) *ResourceLoader {
	return &ResourceLoader{
		DataPath: dataPath,
		species:  make(map[string]*SpeciesData),
		skills:   make(map[string]*battle.Skill),
		items:    make(map[string]*battle.Item),
	}
}

// Load reads every catalog file and builds the templates. Skills are built
// before species so species can be checked against them.
func (rl *ResourceLoader) Load() error {
	loaders := []func() error{
		rl.loadTypes,
		rl.loadSkills,
		rl.loadItems,
		rl.loadSpecies,
		rl.buildChart,
		rl.buildSkills,
		rl.buildItems,
		rl.buildSpecies,
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (rl *ResourceLoader) path(file string) string {
	return filepath.Join(rl.DataPath, file)
}

func loadYAMLArray[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	var arr []*T
	if err := yaml.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return arr, nil
}

func (rl *ResourceLoader) loadSpecies() error {
	var err error
	rl.Species, err = loadYAMLArray[SpeciesData](rl.path("species.yaml"))
	return err
}

func (rl *ResourceLoader) loadSkills() error {
	var err error
	rl.skillData, err = loadYAMLArray[SkillData](rl.path("skills.yaml"))
	return err
}

func (rl *ResourceLoader) loadItems() error {
	var err error
	rl.itemData, err = loadYAMLArray[ItemData](rl.path("items.yaml"))
	return err
}

// loadTypes reads the optional chart overrides.
func (rl *ResourceLoader) loadTypes() error {
	p := rl.path("types.yaml")
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	var err error
	rl.overrides, err = loadYAMLArray[TypeOverride](p)
	return err
}

func (rl *ResourceLoader) buildChart() error {
	rl.Chart = battle.DefaultTypeChart()
	for i, o := range rl.overrides {
		if o == nil {
			continue
		}
		atk, ok := battle.ParseElement(o.Attack)
		if !ok || atk == battle.ElementNone {
			return fmt.Errorf("resource: types[%d]: bad attack element %q", i, o.Attack)
		}
		def, ok := battle.ParseElement(o.Defense)
		if !ok || def == battle.ElementNone {
			return fmt.Errorf("resource: types[%d]: bad defense element %q", i, o.Defense)
		}
		if o.Multiplier < 0 {
			return fmt.Errorf("resource: types[%d]: negative multiplier", i)
		}
		rl.Chart.Set(atk, def, o.Multiplier)
	}
	return nil
}

func parseType(primary, secondary string) (battle.Type, error) {
	p, ok := battle.ParseElement(primary)
	if !ok {
		return battle.Type{}, fmt.Errorf("unknown element %q", primary)
	}
	s, ok := battle.ParseElement(secondary)
	if !ok {
		return battle.Type{}, fmt.Errorf("unknown element %q", secondary)
	}
	if p == battle.ElementNone {
		p, s = s, battle.ElementNone
	}
	return battle.Dual(p, s), nil
}

func (rl *ResourceLoader) buildSkills() error {
	for _, d := range rl.skillData {
		if d == nil {
			continue
		}
		if d.Key == "" {
			return fmt.Errorf("resource: skill without key")
		}
		if _, dup := rl.skills[d.Key]; dup {
			return fmt.Errorf("resource: duplicate skill %q", d.Key)
		}
		s, err := buildSkill(d)
		if err != nil {
			return fmt.Errorf("resource: skill %s: %w", d.Key, err)
		}
		rl.skills[d.Key] = s
	}
	return nil
}

func buildSkill(d *SkillData) (*battle.Skill, error) {
	t, err := parseType(d.Primary, d.Secondary)
	if err != nil {
		return nil, err
	}
	target, err := battle.ParseTargetPolicy(d.Target)
	if err != nil {
		return nil, err
	}
	effects, err := battle.BuildEffects(d.Effects)
	if err != nil {
		return nil, err
	}
	kind := d.Kind
	if kind == "" {
		kind = "physical"
	}
	catName := d.Category
	if catName == "" {
		catName = defaultCategory(kind, d.BaseKind)
	}
	cat, err := battle.ParseCategory(catName)
	if err != nil {
		return nil, err
	}
	res, err := resolutionFor(kind, d)
	if err != nil {
		return nil, err
	}
	name := d.Name
	if name == "" {
		name = d.Key
	}
	return &battle.Skill{
		Key:         d.Key,
		Name:        name,
		Type:        t,
		Category:    cat,
		Power:       d.Power,
		Cost:        d.Cost,
		Accuracy:    d.Accuracy,
		Priority:    d.Priority,
		Target:      target,
		Description: d.Description,
		Effects:     effects,
		Resolution:  res,
	}, nil
}

func defaultCategory(kind, baseKind string) string {
	switch kind {
	case "special", "status":
		return kind
	case "healing", "stat_change":
		return "status"
	case "signature":
		if baseKind != "" && baseKind != "signature" {
			return defaultCategory(baseKind, "")
		}
	}
	return "physical"
}

// resolutionFor maps a catalog kind to the resolution behind Skill.Use.
func resolutionFor(kind string, d *SkillData) (battle.Resolution, error) {
	switch kind {
	case "physical", "special":
		return battle.DirectDamage{}, nil
	case "status":
		return battle.StatusMove{}, nil
	case "composite":
		if d.Chance < 0 || d.Chance > 100 {
			return nil, fmt.Errorf("composite chance %d out of range", d.Chance)
		}
		return battle.Composite{Chance: d.Chance}, nil
	case "multi_hit":
		if d.MinHits < 0 || d.MaxHits < d.MinHits {
			return nil, fmt.Errorf("bad hit range %d..%d", d.MinHits, d.MaxHits)
		}
		return battle.MultiHit{Min: d.MinHits, Max: d.MaxHits}, nil
	case "fixed":
		if d.Amount <= 0 {
			return nil, fmt.Errorf("fixed skill needs a positive amount")
		}
		return battle.FixedDamage{Amount: d.Amount}, nil
	case "healing":
		if d.Amount <= 0 && d.Percent <= 0 {
			return nil, fmt.Errorf("healing skill needs amount or percent")
		}
		return battle.Healing{Amount: d.Amount, Percent: d.Percent}, nil
	case "stat_change":
		deltas, err := battle.ParseStatDeltas(d.Stats)
		if err != nil {
			return nil, err
		}
		if len(deltas) == 0 {
			return nil, fmt.Errorf("stat_change skill without stats")
		}
		return battle.StatChange{Deltas: deltas}, nil
	case "signature":
		base := d.BaseKind
		if base == "" {
			base = "physical"
		}
		if base == "signature" {
			return nil, fmt.Errorf("signature cannot wrap a signature")
		}
		inner, err := resolutionFor(base, d)
		if err != nil {
			return nil, err
		}
		return battle.Signature{Inner: inner, Unlock: d.Unlock}, nil
	}
	return nil, fmt.Errorf("unknown skill kind %q", kind)
}

func (rl *ResourceLoader) buildItems() error {
	for _, d := range rl.itemData {
		if d == nil {
			continue
		}
		if d.Key == "" {
			return fmt.Errorf("resource: item without key")
		}
		if _, dup := rl.items[d.Key]; dup {
			return fmt.Errorf("resource: duplicate item %q", d.Key)
		}
		specs := make([]battle.EffectSpec, len(d.Effects))
		for i, s := range d.Effects {
			if s.Target == "" {
				s.Target = d.Target
			}
			specs[i] = s
		}
		effects, err := battle.BuildEffects(specs)
		if err != nil {
			return fmt.Errorf("resource: item %s: %w", d.Key, err)
		}
		if len(effects) == 0 {
			return fmt.Errorf("resource: item %s has no effects", d.Key)
		}
		name := d.Name
		if name == "" {
			name = d.Key
		}
		rl.items[d.Key] = &battle.Item{Key: d.Key, Name: name, Effects: effects}
	}
	return nil
}

func (rl *ResourceLoader) buildSpecies() error {
	kept := rl.Species[:0]
	for _, d := range rl.Species {
		if d == nil {
			continue
		}
		if d.Key == "" {
			return fmt.Errorf("resource: species without key")
		}
		if _, dup := rl.species[d.Key]; dup {
			return fmt.Errorf("resource: duplicate species %q", d.Key)
		}
		t, err := parseType(d.Primary, d.Secondary)
		if err != nil {
			return fmt.Errorf("resource: species %s: %w", d.Key, err)
		}
		if t.Primary == battle.ElementNone {
			return fmt.Errorf("resource: species %s has no element", d.Key)
		}
		d.typ = t
		if len(d.Skills) > battle.MaxSkills {
			return fmt.Errorf("resource: species %s knows %d skills, max %d", d.Key, len(d.Skills), battle.MaxSkills)
		}
		for _, k := range append(append([]string(nil), d.Skills...), d.Fifth) {
			if k == "" {
				continue
			}
			if _, ok := rl.skills[k]; !ok {
				return fmt.Errorf("resource: species %s: %w %q", d.Key, ErrUnknownSkill, k)
			}
		}
		rl.species[d.Key] = d
		kept = append(kept, d)
	}
	rl.Species = kept
	return nil
}

// ---- Lookups ----

// Skill returns the shared template for key.
func (rl *ResourceLoader) Skill(key string) (*battle.Skill, error) {
	s, ok := rl.skills[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSkill, key)
	}
	return s, nil
}

// Item returns the shared template for key.
func (rl *ResourceLoader) Item(key string) (*battle.Item, error) {
	it, ok := rl.items[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownItem, key)
	}
	return it, nil
}

// SpeciesByKey returns the species entry for key.
func (rl *ResourceLoader) SpeciesByKey(key string) (*SpeciesData, error) {
	d, ok := rl.species[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSpecies, key)
	}
	return d, nil
}

// ScaleStats derives level stats from base stats.
func ScaleStats(base battle.BaseStats, level int) battle.BaseStats {
	other := func(b int) int { return b*2*level/100 + 5 }
	return battle.BaseStats{
		HP:        base.HP*2*level/100 + level + 10,
		Attack:    other(base.Attack),
		SpAttack:  other(base.SpAttack),
		Defense:   other(base.Defense),
		SpDefense: other(base.SpDefense),
		Speed:     other(base.Speed),
	}
}

// NewCreature builds a fresh creature of the given species and level.
func (rl *ResourceLoader) NewCreature(speciesKey string, level int) (*battle.Creature, error) {
	d, err := rl.SpeciesByKey(speciesKey)
	if err != nil {
		return nil, err
	}
	if level < 1 || level > battle.MaxLevel {
		return nil, fmt.Errorf("resource: level %d out of range 1..%d", level, battle.MaxLevel)
	}
	skills := make([]*battle.Skill, 0, len(d.Skills))
	for _, k := range d.Skills {
		s, err := rl.Skill(k)
		if err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	c := battle.NewCreature(d.Name, d.typ, level, ScaleStats(d.Base, level), d.PP, skills...)
	c.Species = d.Key
	c.ExpYield = d.ExpYield
	if d.Fifth != "" {
		if c.Fifth, err = rl.Skill(d.Fifth); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewTeam builds one creature per species key, all at the same level.
func (rl *ResourceLoader) NewTeam(keys []string, level int) ([]*battle.Creature, error) {
	team := make([]*battle.Creature, 0, len(keys))
	for _, k := range keys {
		c, err := rl.NewCreature(k, level)
		if err != nil {
			return nil, err
		}
		team = append(team, c)
	}
	return team, nil
}

// NewBag resolves bag entries to item stacks. Entries with a non-positive
// count are skipped.
func (rl *ResourceLoader) NewBag(entries []BagEntry) ([]battle.ItemStack, error) {
	bag := make([]battle.ItemStack, 0, len(entries))
	for _, e := range entries {
		if e.Count <= 0 {
			continue
		}
		it, err := rl.Item(e.Item)
		if err != nil {
			return nil, err
		}
		bag = append(bag, battle.ItemStack{Item: it, Count: e.Count})
	}
	return bag, nil
}
