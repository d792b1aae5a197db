package skirmish

import (
	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/types/mapcontainer"
)

// NewEntityObstacle registers a static convex obstacle with the physics provider; obstacles carry no components
func (game *SkirmishGame) NewEntityObstacle(obstacle mapcontainer.MapObstacle) error {
	if err := game.provider.AddObstacle(obstacle.Polygon.Vertices()); err != nil {
		return errors.Wrapf(err, "could not create obstacle %s", obstacle.Id)
	}

	return nil
}
