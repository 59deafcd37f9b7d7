package game

import "time"

type AbilityTuning struct {
	Charges    int
	Duration   time.Duration
	Cooldown   time.Duration
	Multiplier float64
}

// Tuning holds the adjustable constants of the mini-game. Ranges, speeds and
// cooldowns are balance knobs rather than rules.
type Tuning struct {
	TickRate  int
	Countdown time.Duration

	ArenaWidth      float64
	ArenaHeight     float64
	PlayerHalfWidth float64

	BoatSpeed      float64
	SwanSpeed      float64
	AIBaseSpeed    float64
	AISpeedPerWave float64
	AIMaxSpeed     float64

	TagRange   float64
	StealRange float64

	KingInvulnerability time.Duration
	WaveInterval        time.Duration
	WaveBaseCount       int

	Sprint AbilityTuning
	Dash   AbilityTuning
}

func DefaultTuning() Tuning {
	return Tuning{
		TickRate:  30,
		Countdown: 3 * time.Second,

		ArenaWidth:      1200,
		ArenaHeight:     800,
		PlayerHalfWidth: 16,

		BoatSpeed:      180,
		SwanSpeed:      200,
		AIBaseSpeed:    110,
		AISpeedPerWave: 15,
		AIMaxSpeed:     220,

		TagRange:   40,
		StealRange: 28,

		KingInvulnerability: 3 * time.Second,
		WaveInterval:        20 * time.Second,
		WaveBaseCount:       2,

		Sprint: AbilityTuning{
			Charges:    3,
			Duration:   1500 * time.Millisecond,
			Cooldown:   5 * time.Second,
			Multiplier: 1.6,
		},
		Dash: AbilityTuning{
			Charges:    2,
			Duration:   400 * time.Millisecond,
			Cooldown:   4 * time.Second,
			Multiplier: 2.6,
		},
	}
}

// normalized fills zero fields from the defaults.
func (t Tuning) normalized() Tuning {
	d := DefaultTuning()
	if t.TickRate <= 0 {
		t.TickRate = d.TickRate
	}
	if t.Countdown < 0 {
		t.Countdown = 0
	}
	if t.ArenaWidth <= 0 || t.ArenaHeight <= 0 {
		t.ArenaWidth, t.ArenaHeight = d.ArenaWidth, d.ArenaHeight
	}
	if t.PlayerHalfWidth <= 0 {
		t.PlayerHalfWidth = d.PlayerHalfWidth
	}
	if t.BoatSpeed <= 0 {
		t.BoatSpeed = d.BoatSpeed
	}
	if t.SwanSpeed <= 0 {
		t.SwanSpeed = d.SwanSpeed
	}
	if t.AIBaseSpeed <= 0 {
		t.AIBaseSpeed = d.AIBaseSpeed
	}
	if t.AIMaxSpeed < t.AIBaseSpeed {
		t.AIMaxSpeed = t.AIBaseSpeed
	}
	if t.TagRange <= 0 {
		t.TagRange = d.TagRange
	}
	if t.StealRange <= 0 {
		t.StealRange = d.StealRange
	}
	if t.WaveInterval <= 0 {
		t.WaveInterval = d.WaveInterval
	}
	if t.WaveBaseCount <= 0 {
		t.WaveBaseCount = d.WaveBaseCount
	}
	if t.Sprint.Multiplier <= 0 {
		t.Sprint = d.Sprint
	}
	if t.Dash.Multiplier <= 0 {
		t.Dash = d.Dash
	}
	return t
}
