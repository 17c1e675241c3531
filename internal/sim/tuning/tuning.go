package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning holds every server-side policy constant. None of these are part of the
// wire protocol; clients only see their effects.
type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	MaxDtMs    int `yaml:"max_dt_ms" json:"max_dt_ms"`

	// Movement.
	Speed       float64 `yaml:"speed" json:"speed"`
	WallMargin  float64 `yaml:"wall_margin" json:"wall_margin"`
	SpawnJitter float64 `yaml:"spawn_jitter" json:"spawn_jitter"`

	// Radii.
	PickupRadius       float64 `yaml:"pickup_radius" json:"pickup_radius"`
	TrapTriggerRadius  float64 `yaml:"trap_trigger_radius" json:"trap_trigger_radius"`
	DoorArmRadius      float64 `yaml:"door_arm_radius" json:"door_arm_radius"`
	BombTriggerRadius  float64 `yaml:"bomb_trigger_radius" json:"bomb_trigger_radius"`
	WinRadius          float64 `yaml:"win_radius" json:"win_radius"`
	DropScatterRadius  float64 `yaml:"drop_scatter_radius" json:"drop_scatter_radius"`
	ProjectileRadius   float64 `yaml:"projectile_radius" json:"projectile_radius"`
	ProjectileSpeed    float64 `yaml:"projectile_speed" json:"projectile_speed"`
	ShotsToKill        int     `yaml:"shots_to_kill" json:"shots_to_kill"`
	FireCooldownMs     int     `yaml:"fire_cooldown_ms" json:"fire_cooldown_ms"`
	FloorTrapStunMs    int     `yaml:"floor_trap_stun_ms" json:"floor_trap_stun_ms"`
	DoorTrapStunMs     int     `yaml:"door_trap_stun_ms" json:"door_trap_stun_ms"`
	BombArmDelayMs     int     `yaml:"bomb_arm_delay_ms" json:"bomb_arm_delay_ms"`
	DisguiseDurationMs int     `yaml:"disguise_duration_ms" json:"disguise_duration_ms"`
	RadarDurationMs    int     `yaml:"radar_duration_ms" json:"radar_duration_ms"`

	// Searchables yield nothing with weight LootNothingWeight against one weight per
	// loot table entry.
	LootNothingWeight int `yaml:"loot_nothing_weight" json:"loot_nothing_weight"`

	// Rounds.
	FreezeMs     int  `yaml:"freeze_ms" json:"freeze_ms"`
	ScorePerWin  int  `yaml:"score_per_win" json:"score_per_win"`
	ScoreTarget  int  `yaml:"score_target" json:"score_target"`
	ScoreRace    bool `yaml:"score_race" json:"score_race"`
	PersistScore bool `yaml:"persist_score" json:"persist_score"`

	// Transport.
	OutQueue        int     `yaml:"out_queue" json:"out_queue"`
	IntentRateLimit float64 `yaml:"intent_rate_limit" json:"intent_rate_limit"`
	IntentBurst     int     `yaml:"intent_burst" json:"intent_burst"`
}

// Defaults returns the reference tuning.
func Defaults() Tuning {
	return Tuning{
		TickRateHz: 15,
		MaxDtMs:    100,

		Speed:       140,
		WallMargin:  16,
		SpawnJitter: 10,

		PickupRadius:       20,
		TrapTriggerRadius:  32,
		DoorArmRadius:      24,
		BombTriggerRadius:  28,
		WinRadius:          24,
		DropScatterRadius:  12,
		ProjectileRadius:   8,
		ProjectileSpeed:    300,
		ShotsToKill:        3,
		FireCooldownMs:     500,
		FloorTrapStunMs:    2000,
		DoorTrapStunMs:     3000,
		BombArmDelayMs:     400,
		DisguiseDurationMs: 6000,
		RadarDurationMs:    5000,

		LootNothingWeight: 2,

		FreezeMs:     3000,
		ScorePerWin:  1,
		ScoreTarget:  5,
		ScoreRace:    true,
		PersistScore: false,

		OutQueue:        8,
		IntentRateLimit: 60,
		IntentBurst:     30,
	}
}

// Load reads a tuning YAML file on top of Defaults. Keys absent from the file keep
// their default; non-positive numeric values are treated as absent.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Validate checks relations between fields that defaults cannot repair.
func (t Tuning) Validate() error {
	if t.DoorTrapStunMs <= t.FloorTrapStunMs {
		return fmt.Errorf("door_trap_stun_ms (%d) must be longer than floor_trap_stun_ms (%d)", t.DoorTrapStunMs, t.FloorTrapStunMs)
	}
	return nil
}

func (t *Tuning) applyDefaults() {
	d := Defaults()
	intDefault := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	floatDefault := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	intDefault(&t.TickRateHz, d.TickRateHz)
	intDefault(&t.MaxDtMs, d.MaxDtMs)
	floatDefault(&t.Speed, d.Speed)
	floatDefault(&t.PickupRadius, d.PickupRadius)
	floatDefault(&t.TrapTriggerRadius, d.TrapTriggerRadius)
	floatDefault(&t.DoorArmRadius, d.DoorArmRadius)
	floatDefault(&t.BombTriggerRadius, d.BombTriggerRadius)
	floatDefault(&t.WinRadius, d.WinRadius)
	floatDefault(&t.ProjectileRadius, d.ProjectileRadius)
	floatDefault(&t.ProjectileSpeed, d.ProjectileSpeed)
	intDefault(&t.ShotsToKill, d.ShotsToKill)
	intDefault(&t.FloorTrapStunMs, d.FloorTrapStunMs)
	intDefault(&t.DoorTrapStunMs, d.DoorTrapStunMs)
	intDefault(&t.DisguiseDurationMs, d.DisguiseDurationMs)
	intDefault(&t.RadarDurationMs, d.RadarDurationMs)
	intDefault(&t.FreezeMs, d.FreezeMs)
	intDefault(&t.ScoreTarget, d.ScoreTarget)
	intDefault(&t.OutQueue, d.OutQueue)
	floatDefault(&t.IntentRateLimit, d.IntentRateLimit)
	intDefault(&t.IntentBurst, d.IntentBurst)
	// Margins, jitter, cooldowns, arm delay, loot weight and score-per-win may be zero.
	if t.WallMargin < 0 {
		t.WallMargin = d.WallMargin
	}
	if t.SpawnJitter < 0 {
		t.SpawnJitter = 0
	}
	if t.DropScatterRadius < 0 {
		t.DropScatterRadius = d.DropScatterRadius
	}
	if t.FireCooldownMs < 0 {
		t.FireCooldownMs = 0
	}
	if t.BombArmDelayMs < 0 {
		t.BombArmDelayMs = 0
	}
	if t.LootNothingWeight < 0 {
		t.LootNothingWeight = 0
	}
	if t.ScorePerWin < 0 {
		t.ScorePerWin = 0
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (t Tuning) TickInterval() time.Duration { return time.Second / time.Duration(t.TickRateHz) }

func (t Tuning) MaxDt() time.Duration { return ms(t.MaxDtMs) }

func (t Tuning) FireCooldown() time.Duration { return ms(t.FireCooldownMs) }

func (t Tuning) FloorTrapStun() time.Duration { return ms(t.FloorTrapStunMs) }

func (t Tuning) DoorTrapStun() time.Duration { return ms(t.DoorTrapStunMs) }

func (t Tuning) BombArmDelay() time.Duration { return ms(t.BombArmDelayMs) }

func (t Tuning) DisguiseDuration() time.Duration { return ms(t.DisguiseDurationMs) }

func (t Tuning) RadarDuration() time.Duration { return ms(t.RadarDurationMs) }

func (t Tuning) Freeze() time.Duration { return ms(t.FreezeMs) }

// ProjectileHitDistance is the centre distance under which a projectile hits.
func (t Tuning) ProjectileHitDistance() float64 { return t.ProjectileRadius * 2 }
