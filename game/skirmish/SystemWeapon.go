package skirmish

import (
	"math"

	"github.com/bytearena/ecs"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils/number"
)

// systemWeapon runs the weapon state machine of every active agent, in roster order.
// An agent struck earlier in the tick no longer acts.
func systemWeapon(game *SkirmishGame, result *StepResult) {
	dt := game.config.TickDuration

	for _, id := range game.roster.agents {
		qr := game.getEntity(id,
			game.weaponComponent,
			game.actionsComponent,
			game.playerComponent,
			game.physicalBodyComponent,
		)

		if qr == nil {
			continue
		}

		playerAspect := game.CastPlayer(qr.Components[game.playerComponent])
		if !playerAspect.IsActive() {
			continue
		}

		weaponAspect := game.CastWeapon(qr.Components[game.weaponComponent])
		actionsAspect := game.CastActions(qr.Components[game.actionsComponent])
		physicalAspect := game.CastPhysicalBody(qr.Components[game.physicalBodyComponent])

		action := actionsAspect.GetCurrent()

		switch weaponAspect.Trigger(action.Fire, action.Reload) {
		case WeaponTriggerFire:
			shoot(game, result, id, playerAspect, weaponAspect, physicalAspect)
		case WeaponTriggerReload:
			weaponAspect.Reload()
			playerAspect.Stats.nbReloads++
			game.notifyAmmo(id, weaponAspect.GetAmmo())
		}

		weaponAspect.Recover(dt)
	}
}

// shoot resolves a single hitscan shot from the agent's muzzle
func shoot(game *SkirmishGame, result *StepResult, id ecs.EntityID, playerAspect *Player, weaponAspect *Weapon, physicalAspect *PhysicalBody) {
	offset := weaponAspect.Fire(game.rng)
	playerAspect.Stats.nbShots++

	muzzle := physicalAspect.PointAhead(game.config.Weapon.MuzzleOffset)
	direction := physicalAspect.GetForward().Rotate(number.DegreeToRadian(offset))

	hit, ok := game.provider.RayCast(muzzle, direction, math.Inf(1), types.ShootableLayers)
	if ok && hit.Descriptor.Tag.IsAgent() && hit.Descriptor.ID != id {
		onHit(game, result, id, playerAspect, hit.Descriptor.ID)
	}

	weaponAspect.Recoil()
	game.notifyAmmo(id, weaponAspect.GetAmmo())
}

func onHit(game *SkirmishGame, result *StepResult, firerID ecs.EntityID, firerAspect *Player, targetID ecs.EntityID) {
	targetBody, targetAspect, _, ok := game.getAgent(targetID)
	if !ok || !targetAspect.IsActive() {
		return
	}

	same, diff := game.config.RewardPolarity.Rewards()
	sameTeam := firerAspect.GetTeam() == targetAspect.GetTeam()

	reward := diff
	if sameTeam {
		reward = same
	}

	firerAspect.addReward(reward)
	firerAspect.Stats.nbHasHit++
	result.Rewards[firerID] += reward

	// the struck agent leaves the episode
	targetAspect.addReward(game.config.HitPenalty)
	targetAspect.active = false
	targetBody.SetEnabled(false)
	result.Rewards[targetID] += game.config.HitPenalty
	game.roster.Team(targetAspect.GetTeam()).memberDeactivated()

	game.log.AddEntry(HitEvent{
		Tick:           game.ticknum,
		Firer:          firerID,
		FirerPlayerID:  firerAspect.GetPlayerID(),
		Target:         targetID,
		TargetPlayerID: targetAspect.GetPlayerID(),
		SameTeam:       sameTeam,
		Reward:         reward,
	})
}
