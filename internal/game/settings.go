package game

import (
	"fmt"
	"math"
	"time"

	"github.com/partyhost/partyhost/internal/geom"
	"github.com/valyala/fastrand"
)

const (
	maxObstacles        = 10
	obstacleMinRadius   = 30.0
	obstacleMaxRadius   = 60.0
	obstacleMargin      = 120.0
	obstacleClearance   = 40.0
	safeZoneInset       = 200.0
	maxSafeZoneRadius   = 260.0
	maxTeamDuration     = 90 * time.Second
	kingDuration        = 120 * time.Second
	swarmDuration       = 150 * time.Second
	boatShare           = 0.66
	teamBaseDuration    = 45 * time.Second
	teamDurationPerHead = 2 * time.Second
	safeZoneBaseRadius  = 120.0
	safeZoneRadiusStep  = 8.0
)

type Arena struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Obstacle struct {
	ID       string     `json:"id"`
	Position geom.Point `json:"position"`
	Radius   float64    `json:"radius"`
}

type SafeZone struct {
	Center geom.Point `json:"center"`
	Radius float64    `json:"radius"`
}

type Speeds struct {
	Boat float64 `json:"boat"`
	Swan float64 `json:"swan"`
	AI   float64 `json:"ai"`
}

// Settings are derived once per instance from mode and head count.
type Settings struct {
	Arena           Arena      `json:"arena"`
	Obstacles       []Obstacle `json:"obstacles"`
	ObstacleCount   int        `json:"-"`
	SafeZone        *SafeZone  `json:"safeZone,omitempty"`
	Speeds          Speeds     `json:"speeds"`
	TagRange        float64    `json:"tagRange"`
	StealRange      float64    `json:"stealRange,omitempty"`
	PlayerHalfWidth float64    `json:"playerHalfWidth"`
	BoatsCount      int        `json:"boatsCount,omitempty"`
	SwansCount      int        `json:"swansCount,omitempty"`
	// seconds, for clients
	DurationSec int `json:"durationSec"`

	Duration            time.Duration `json:"-"`
	KingInvulnerability time.Duration `json:"-"`
	WaveInterval        time.Duration `json:"-"`
	WaveBaseCount       int           `json:"-"`
}

func (s Settings) clone() Settings {
	c := s
	c.Obstacles = append([]Obstacle(nil), s.Obstacles...)
	if s.SafeZone != nil {
		zone := *s.SafeZone
		c.SafeZone = &zone
	}
	return c
}

// TeamSplit returns the boats/swans head counts for n players.
func TeamSplit(n int) (boats, swans int) {
	boats = int(math.Round(float64(n) * boatShare))
	if boats < 1 {
		boats = 1
	}
	swans = n - boats
	if swans < 1 {
		swans = 1
	}
	return n - swans, swans
}

// DeriveSettings computes everything except obstacle placement, which depends
// on spawn points and the instance RNG.
func DeriveSettings(mode Mode, n int, tuning Tuning) Settings {
	tuning = tuning.normalized()
	s := Settings{
		Arena:           Arena{Width: tuning.ArenaWidth, Height: tuning.ArenaHeight},
		ObstacleCount:   obstacleCount(n),
		Speeds:          Speeds{Boat: tuning.BoatSpeed, Swan: tuning.SwanSpeed, AI: tuning.AIBaseSpeed},
		TagRange:        tuning.TagRange,
		PlayerHalfWidth: tuning.PlayerHalfWidth,
	}

	switch {
	case mode.TeamBased():
		s.BoatsCount, s.SwansCount = TeamSplit(n)
		s.Duration = teamBaseDuration + time.Duration(n)*teamDurationPerHead
		if s.Duration > maxTeamDuration {
			s.Duration = maxTeamDuration
		}
		radius := math.Min(safeZoneBaseRadius+safeZoneRadiusStep*float64(n), maxSafeZoneRadius)
		s.SafeZone = &SafeZone{
			Center: geom.Pt(s.Arena.Width-safeZoneInset, s.Arena.Height/2),
			Radius: radius,
		}
	case mode == ModeKingOfLake:
		s.Duration = kingDuration
		s.StealRange = tuning.StealRange
		s.KingInvulnerability = tuning.KingInvulnerability
	case mode == ModeSwanSwarm:
		s.Duration = swarmDuration
		s.WaveInterval = tuning.WaveInterval
		s.WaveBaseCount = tuning.WaveBaseCount
	}

	s.DurationSec = int(s.Duration / time.Second)
	return s
}

func (s *Settings) overrideDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	s.Duration = d
	s.DurationSec = int(math.Ceil(d.Seconds()))
}

func obstacleCount(n int) int {
	c := 3 + n/2
	if c > maxObstacles {
		c = maxObstacles
	}
	return c
}

// generateObstacles scatters circular rocks, keeping clear of spawns and the safe zone.
func generateObstacles(rng *fastrand.RNG, s Settings, avoid []geom.Point) []Obstacle {
	obstacles := make([]Obstacle, 0, s.ObstacleCount)
	attempts := 0
	maxAttempts := s.ObstacleCount * 20

	for len(obstacles) < s.ObstacleCount && attempts < maxAttempts {
		attempts++

		radius := obstacleMinRadius + randFloat(rng)*(obstacleMaxRadius-obstacleMinRadius)
		minX, maxX := obstacleMargin+radius, s.Arena.Width-obstacleMargin-radius
		minY, maxY := obstacleMargin/2+radius, s.Arena.Height-obstacleMargin/2-radius
		if maxX <= minX || maxY <= minY {
			break
		}

		candidate := Obstacle{
			ID:       fmt.Sprintf("rock-%d", len(obstacles)+1),
			Position: geom.Pt(minX+randFloat(rng)*(maxX-minX), minY+randFloat(rng)*(maxY-minY)),
			Radius:   radius,
		}

		if !obstacleFits(candidate, s, avoid, obstacles) {
			continue
		}

		obstacles = append(obstacles, candidate)
	}

	return obstacles
}

func obstacleFits(candidate Obstacle, s Settings, avoid []geom.Point, placed []Obstacle) bool {
	clearance := candidate.Radius + s.PlayerHalfWidth + obstacleClearance
	if s.SafeZone != nil && geom.Distance(candidate.Position, s.SafeZone.Center) < s.SafeZone.Radius+clearance {
		return false
	}

	for _, p := range avoid {
		if geom.Distance(candidate.Position, p) < clearance {
			return false
		}
	}

	for _, o := range placed {
		if geom.Distance(candidate.Position, o.Position) < candidate.Radius+o.Radius+2*s.PlayerHalfWidth {
			return false
		}
	}

	return true
}

func randFloat(rng *fastrand.RNG) float64 {
	return float64(rng.Uint32()) / float64(math.MaxUint32+1.0)
}
