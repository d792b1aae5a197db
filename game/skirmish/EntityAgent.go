package skirmish

import (
	"github.com/bytearena/ecs"
	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/types"
)

func (game *SkirmishGame) NewEntityAgent(team types.TeamID, index int) (*ecs.Entity, error) {

	agent := game.manager.NewEntity()

	radius := game.config.Motion.AgentRadius
	if err := game.provider.AddAgent(agent.GetID(), team.UnitTag(), radius); err != nil {
		return nil, errors.Wrapf(err, "could not create body of %s", PlayerID(team, index))
	}

	game.roster.add(agent.GetID(), team)

	return agent.
		AddComponent(game.physicalBodyComponent, &PhysicalBody{
			id:       agent.GetID(),
			provider: game.provider,
			radius:   radius,
		}).
		AddComponent(game.playerComponent, &Player{
			playerID: PlayerID(team, index),
			team:     team,
			index:    index,
			active:   true,
		}).
		AddComponent(game.weaponComponent, NewWeapon(game.config.Weapon)).
		AddComponent(game.perceptionComponent, &Perception{
			params: game.config.Perception,
			rays:   game.config.RaySensor,
		}).
		AddComponent(game.actionsComponent, NewActions()), nil
}
