package game

import (
	"testing"
	"time"

	"github.com/partyhost/partyhost/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"
)

func TestTeamSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n     int
		boats int
		swans int
	}{
		{n: 2, boats: 1, swans: 1},
		{n: 3, boats: 2, swans: 1},
		{n: 6, boats: 4, swans: 2},
		{n: 10, boats: 7, swans: 3},
	}

	for _, tc := range tests {
		boats, swans := TeamSplit(tc.n)
		assert.Equal(t, tc.boats, boats, "boats for %d", tc.n)
		assert.Equal(t, tc.swans, swans, "swans for %d", tc.n)
	}
}

func TestDeriveSettingsClassicSixPlayers(t *testing.T) {
	t.Parallel()

	s := DeriveSettings(ModeClassic, 6, DefaultTuning())

	assert.Equal(t, 4, s.BoatsCount)
	assert.Equal(t, 2, s.SwansCount)
	assert.Equal(t, 57*time.Second, s.Duration)
	assert.Equal(t, 57, s.DurationSec)
	assert.Equal(t, 6, s.ObstacleCount)
	require.NotNil(t, s.SafeZone)
	assert.InDelta(t, 168, s.SafeZone.Radius, 1e-9)
	assert.Equal(t, geom.Pt(1000, 400), s.SafeZone.Center)
	assert.Equal(t, Arena{Width: 1200, Height: 800}, s.Arena)
	assert.Equal(t, 180.0, s.Speeds.Boat)
	assert.Equal(t, 200.0, s.Speeds.Swan)
}

func TestDeriveSettingsCaps(t *testing.T) {
	t.Parallel()

	s := DeriveSettings(ModeRounds, 30, DefaultTuning())
	assert.Equal(t, 90*time.Second, s.Duration)
	assert.Equal(t, 260.0, s.SafeZone.Radius)
	assert.Equal(t, 10, s.ObstacleCount)
}

func TestDeriveSettingsFixedModes(t *testing.T) {
	t.Parallel()

	king := DeriveSettings(ModeKingOfLake, 4, DefaultTuning())
	assert.Equal(t, 120*time.Second, king.Duration)
	assert.Nil(t, king.SafeZone)
	assert.Equal(t, 3*time.Second, king.KingInvulnerability)
	assert.Equal(t, 28.0, king.StealRange)

	swarm := DeriveSettings(ModeSwanSwarm, 4, DefaultTuning())
	assert.Equal(t, 150*time.Second, swarm.Duration)
	assert.Nil(t, swarm.SafeZone)
	assert.Equal(t, 20*time.Second, swarm.WaveInterval)
	assert.Equal(t, 2, swarm.WaveBaseCount)
}

func TestGenerateObstaclesKeepsClear(t *testing.T) {
	t.Parallel()

	s := DeriveSettings(ModeClassic, 8, DefaultTuning())
	spawns := []geom.Point{geom.Pt(100, 200), geom.Pt(100, 400), geom.Pt(600, 400)}

	rng := &fastrand.RNG{}
	rng.Seed(7)
	obstacles := generateObstacles(rng, s, spawns)

	require.NotEmpty(t, obstacles)
	assert.LessOrEqual(t, len(obstacles), s.ObstacleCount)
	for i, o := range obstacles {
		assert.GreaterOrEqual(t, o.Radius, obstacleMinRadius)
		assert.LessOrEqual(t, o.Radius, obstacleMaxRadius)
		assert.Greater(t, geom.Distance(o.Position, s.SafeZone.Center), s.SafeZone.Radius+o.Radius)
		for _, p := range spawns {
			assert.Greater(t, geom.Distance(o.Position, p), o.Radius+s.PlayerHalfWidth)
		}
		for j, other := range obstacles {
			if i == j {
				continue
			}
			assert.Greater(t, geom.Distance(o.Position, other.Position), o.Radius+other.Radius)
		}
	}
}
