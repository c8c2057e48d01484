package game

import (
	"math/rand"

	"survivor/internal/game/spatial"
)

// SpawnPoint is a location and facing an enemy can enter from.
type SpawnPoint struct {
	Position spatial.Vec3
	Yaw      float64
}

// Spawner places requested enemies at random spawn points.
type Spawner struct {
	rng *rand.Rand
}

func NewSpawner(rng *rand.Rand) *Spawner {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Spawner{rng: rng}
}

// Spawn puts e at a uniformly chosen point and resets it to full state.
// e must come from Pool.Request.
func (s *Spawner) Spawn(e *Enemy, points []SpawnPoint) (SpawnPoint, error) {
	if len(points) == 0 {
		return SpawnPoint{}, ErrNoSpawnPoints
	}
	p := points[s.rng.Intn(len(points))]
	e.Place(p.Position, p.Yaw)
	e.ResetState()
	return p, nil
}
