package skirmish

import (
	"github.com/bytearena/skirmish/common/utils/number"
	"github.com/bytearena/skirmish/common/utils/trigo"
)

// systemSteering applies the movement force and the turning torque. Momentum persists across ticks;
// both motions widen the bullet spread.
func systemSteering(game *SkirmishGame) {
	motion := game.config.Motion

	for _, entityresult := range game.steeringView.Get() {
		playerAspect := game.CastPlayer(entityresult.Components[game.playerComponent])
		if !playerAspect.IsActive() {
			continue
		}

		actionsAspect := game.CastActions(entityresult.Components[game.actionsComponent])
		weaponAspect := game.CastWeapon(entityresult.Components[game.weaponComponent])
		physicalAspect := game.CastPhysicalBody(entityresult.Components[game.physicalBodyComponent])

		action := actionsAspect.GetCurrent()

		// Move
		move := action.Move
		if move.MagSq() > 1 {
			move = move.Normalize()
		}

		physicalAspect.ApplyForce(move.Scale(motion.MaxRunForce))
		weaponAspect.AddRunSpread(physicalAspect.GetVelocity().Mag(), motion.MaxRunSpeed)

		// Turn; a null aim means no turn
		if action.Aim.IsNull() {
			continue
		}

		turnRate := number.RadianToDegree(physicalAspect.GetAngularVelocity())
		angle := trigo.SignedAngleDeg(physicalAspect.GetForward(), action.Aim)
		torque := number.Clamp(angle-turnRate*motion.AngularDamping, -motion.MaxTurnTorque, motion.MaxTurnTorque)

		physicalAspect.ApplyTorque(torque)
		weaponAspect.AddTurnSpread(turnRate, motion.MaxTurnSpeed)
	}
}
