package party

import (
	"time"

	"github.com/partyhost/partyhost/internal/audio"
	"github.com/partyhost/partyhost/internal/database"
	"github.com/partyhost/partyhost/internal/game"
	"github.com/partyhost/partyhost/internal/hub"
	"github.com/partyhost/partyhost/internal/streaming"
)

type Config struct {
	Debug          bool          `envconfig:"PARTYHOST_DEBUG" default:"false"`
	Port           string        `envconfig:"PARTYHOST_PORT" default:"8080"`
	ProfPort       string        `envconfig:"PARTYHOST_PROF_PORT" default:"6060"`
	CacheSize      int           `envconfig:"PARTYHOST_CACHE_SIZE" default:"1024"`
	SessionTimeout time.Duration `envconfig:"PARTYHOST_SESSION_TIMEOUT" default:"2h"`
	CleanInterval  time.Duration `envconfig:"PARTYHOST_CLEAN_INTERVAL" default:"1m"`

	Game      GameConfig
	Audio     audio.Config
	Hub       hub.Config
	Streaming streaming.Config
	DB        database.Config
}

// GameConfig exposes the balance knobs of the mini-game.
type GameConfig struct {
	TickRate  int           `envconfig:"GAME_TICK_RATE" default:"30"`
	Countdown time.Duration `envconfig:"GAME_COUNTDOWN" default:"3s"`

	BoatSpeed      float64 `envconfig:"GAME_BOAT_SPEED" default:"180"`
	SwanSpeed      float64 `envconfig:"GAME_SWAN_SPEED" default:"200"`
	AIBaseSpeed    float64 `envconfig:"GAME_AI_BASE_SPEED" default:"110"`
	AISpeedPerWave float64 `envconfig:"GAME_AI_SPEED_PER_WAVE" default:"15"`
	AIMaxSpeed     float64 `envconfig:"GAME_AI_MAX_SPEED" default:"220"`

	TagRange            float64       `envconfig:"GAME_TAG_RANGE" default:"40"`
	StealRange          float64       `envconfig:"GAME_STEAL_RANGE" default:"28"`
	KingInvulnerability time.Duration `envconfig:"GAME_KING_INVULNERABILITY" default:"3s"`
	WaveInterval        time.Duration `envconfig:"GAME_WAVE_INTERVAL" default:"20s"`
	WaveBaseCount       int           `envconfig:"GAME_WAVE_BASE_COUNT" default:"2"`

	SprintCharges    int           `envconfig:"GAME_SPRINT_CHARGES" default:"3"`
	SprintDuration   time.Duration `envconfig:"GAME_SPRINT_DURATION" default:"1500ms"`
	SprintCooldown   time.Duration `envconfig:"GAME_SPRINT_COOLDOWN" default:"5s"`
	SprintMultiplier float64       `envconfig:"GAME_SPRINT_MULTIPLIER" default:"1.6"`

	DashCharges    int           `envconfig:"GAME_DASH_CHARGES" default:"2"`
	DashDuration   time.Duration `envconfig:"GAME_DASH_DURATION" default:"400ms"`
	DashCooldown   time.Duration `envconfig:"GAME_DASH_COOLDOWN" default:"4s"`
	DashMultiplier float64       `envconfig:"GAME_DASH_MULTIPLIER" default:"2.6"`
}

// Tuning maps the knobs onto the engine's tuning; unset fields keep the
// engine defaults.
func (c GameConfig) Tuning() game.Tuning {
	t := game.DefaultTuning()
	t.TickRate = c.TickRate
	t.Countdown = c.Countdown

	t.BoatSpeed = c.BoatSpeed
	t.SwanSpeed = c.SwanSpeed
	t.AIBaseSpeed = c.AIBaseSpeed
	t.AISpeedPerWave = c.AISpeedPerWave
	t.AIMaxSpeed = c.AIMaxSpeed

	t.TagRange = c.TagRange
	t.StealRange = c.StealRange
	t.KingInvulnerability = c.KingInvulnerability
	t.WaveInterval = c.WaveInterval
	t.WaveBaseCount = c.WaveBaseCount

	t.Sprint = game.AbilityTuning{
		Charges:    c.SprintCharges,
		Duration:   c.SprintDuration,
		Cooldown:   c.SprintCooldown,
		Multiplier: c.SprintMultiplier,
	}
	t.Dash = game.AbilityTuning{
		Charges:    c.DashCharges,
		Duration:   c.DashDuration,
		Cooldown:   c.DashCooldown,
		Multiplier: c.DashMultiplier,
	}
	return t
}
