package battle

// Rules are the tunable constants of the resolution path.
type Rules struct {
	CritChance     float64 `mapstructure:"crit_chance"`
	CritMultiplier float64 `mapstructure:"crit_multiplier"`
	STAB           float64 `mapstructure:"stab"`
	VarianceMin    float64 `mapstructure:"variance_min"`
	VarianceMax    float64 `mapstructure:"variance_max"`
	EscapeChance   float64 `mapstructure:"escape_chance"`
	// Skills with at least this accuracy never roll to hit.
	AlwaysHitAccuracy int `mapstructure:"always_hit_accuracy"`
	RestorePPAmount   int `mapstructure:"restore_pp_amount"`

	PoisonDivisor          int     `mapstructure:"poison_divisor"`
	BurnDivisor            int     `mapstructure:"burn_divisor"`
	BleedDivisor           int     `mapstructure:"bleed_divisor"`
	ConfusionDivisor       int     `mapstructure:"confusion_divisor"`
	ParalysisSkipChance    float64 `mapstructure:"paralysis_skip_chance"`
	ConfusionSelfHitChance float64 `mapstructure:"confusion_self_hit_chance"`

	MultiHitMin int `mapstructure:"multi_hit_min"`
	MultiHitMax int `mapstructure:"multi_hit_max"`

	// FullRestoreOnStart refills HP and PP when a battle starts.
	FullRestoreOnStart bool `mapstructure:"full_restore_on_start"`
}

// DefaultRules returns the stock constants.
func DefaultRules() Rules {
	return Rules{
		CritChance:             0.06,
		CritMultiplier:         1.8,
		STAB:                   1.5,
		VarianceMin:            0.85,
		VarianceMax:            1.0,
		EscapeChance:           0.5,
		AlwaysHitAccuracy:      101,
		RestorePPAmount:        10,
		PoisonDivisor:          8,
		BurnDivisor:            16,
		BleedDivisor:           10,
		ConfusionDivisor:       8,
		ParalysisSkipChance:    0.25,
		ConfusionSelfHitChance: 0.33,
		MultiHitMin:            2,
		MultiHitMax:            5,
	}
}
