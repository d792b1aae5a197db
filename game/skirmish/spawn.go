package skirmish

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils/trigo"
	"github.com/bytearena/skirmish/common/utils/vector"
)

// team B spawns within the map bounds shrunk by this margin
const teamBSpawnMargin = 5.0

// SpawnPoint samples a spawn position: team A over the disk stretched onto a square of half-side spawnRadius,
// team B over a plain disk of radius bounds - 5
func SpawnPoint(team types.TeamID, spawnRadius float64, bounds float64, sample func() vector.Vector2) vector.Vector2 {
	if team == types.TeamA {
		return sample().SquareNormalize().Scale(spawnRadius)
	}

	return sample().Scale(math.Max(0, bounds-teamBSpawnMargin))
}

// spawn places the agent at a random position clear of the terrain, facing a random direction
func (game *SkirmishGame) spawn(physicalAspect *PhysicalBody, team types.TeamID) error {
	sample := func() vector.Vector2 {
		return trigo.RandomInsideUnitCircle(game.rng)
	}

	for attempt := 0; attempt < maxSpawnAttempts; attempt++ {
		position := SpawnPoint(team, game.config.SpawnRadius, game.arena.Data.Bounds, sample)
		orientation := trigo.RandomRange(game.rng, -math.Pi, math.Pi)

		physicalAspect.SetTransform(position, orientation)
		if !game.provider.IsColliding(physicalAspect.id, types.TerrainLayers) {
			return nil
		}

		game.logDebug(fmt.Sprintf("spawn of %s at %s collides with terrain; resampling", team, position))
	}

	return errors.Wrapf(ErrSpawnExhausted, "%s agent %d after %d attempts", team, physicalAspect.id, maxSpawnAttempts)
}
