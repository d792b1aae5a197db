package arenatrainer

import (
	"math"
	"math/rand"

	"github.com/bytearena/ecs"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils/number"
	"github.com/bytearena/skirmish/common/utils/trigo"
	"github.com/bytearena/skirmish/common/utils/vector"
	"github.com/bytearena/skirmish/game/skirmish"
)

// Policy chooses an agent's action from its own observation; the mask tells which weapon inputs are meaningful
type Policy interface {
	Act(observation skirmish.Observation, mask skirmish.ActionMask) skirmish.Action
}

type PolicyFunc func(observation skirmish.Observation, mask skirmish.ActionMask) skirmish.Action

func (f PolicyFunc) Act(observation skirmish.Observation, mask skirmish.ActionMask) skirmish.Action {
	return f(observation, mask)
}

// Idle never acts
var Idle = PolicyFunc(func(skirmish.Observation, skirmish.ActionMask) skirmish.Action {
	return skirmish.Action{}
})

// RandomPolicy samples every action branch uniformly
type RandomPolicy struct {
	rng *rand.Rand
}

func NewRandomPolicy(rng *rand.Rand) *RandomPolicy {
	return &RandomPolicy{rng: rng}
}

func (p *RandomPolicy) Act(observation skirmish.Observation, mask skirmish.ActionMask) skirmish.Action {
	action := skirmish.DecodeActionBuffers(skirmish.ActionBuffers{
		Continuous: [2]float64{p.rng.Float64()*2 - 1, p.rng.Float64()*2 - 1},
		Discrete:   [4]int{p.rng.Intn(3), p.rng.Intn(3), p.rng.Intn(2), p.rng.Intn(2)},
	})

	return mask.Apply(action)
}

// HeuristicPolicy aims at the nearest fully visible enemy and fires once aligned within half the current spread;
// it reloads an empty weapon, strafes around its target and wanders when nothing is in sight.
type HeuristicPolicy struct {
	MaxSpread    float64 // deg, decodes the spread slot of the self vector
	AimTolerance float64 // deg, lower bound of the firing cone
	StrafePeriod int     // ticks between strafe direction changes
	ScanAngle    float64 // deg, turn applied while wandering

	ticks map[ecs.EntityID]int
}

func NewHeuristicPolicy(weapon skirmish.WeaponSpecs) *HeuristicPolicy {
	return &HeuristicPolicy{
		MaxSpread:    weapon.MaxSpread,
		AimTolerance: 2,
		StrafePeriod: 50,
		ScanAngle:    30,
		ticks:        make(map[ecs.EntityID]int),
	}
}

const (
	selfForwardX = 2
	selfForwardY = 3
	selfAmmo     = 8
	selfSpread   = 9

	targetDistance      = 2
	targetDisplacementX = 3
	targetDisplacementY = 4
	targetTeam          = 8
)

// nearestEnemy returns the index of the closest visible enemy among the observed targets, or -1
func nearestEnemy(observation skirmish.Observation) int {
	best := -1
	for i, target := range observation.Targets {
		if observation.Classes[i] != skirmish.VisibilityVisible || target[targetTeam] >= 0 {
			continue
		}

		if best < 0 || target[targetDistance] < observation.Targets[best][targetDistance] {
			best = i
		}
	}

	return best
}

func (p *HeuristicPolicy) Act(observation skirmish.Observation, mask skirmish.ActionMask) skirmish.Action {
	if !observation.Active {
		return skirmish.Action{}
	}

	tick := p.ticks[observation.ID]
	p.ticks[observation.ID] = tick + 1

	self := observation.Self
	forward := vector.MakeVector2(self[selfForwardX], self[selfForwardY])

	action := skirmish.Action{}
	if self[selfAmmo] <= -1 {
		action.Reload = true
	}

	enemy := nearestEnemy(observation)
	if enemy < 0 {
		// wander: walk ahead, sweeping the view; turn away from walls close ahead
		scan := p.ScanAngle
		if len(observation.Rays) > 0 && observation.Rays[0].Tag == types.PhysicalBodyTag.Terrain && observation.Rays[0].Fraction < 0.15 {
			scan = 90
		}

		action.Aim = forward.Rotate(number.DegreeToRadian(scan)).Normalize()
		action.Move = forward
		return mask.Apply(action.Sanitize())
	}

	target := observation.Targets[enemy]
	displacement := vector.MakeVector2(target[targetDisplacementX], target[targetDisplacementY])
	action.Aim = displacement.Normalize()

	spread := (self[selfSpread] + 1) / 2 * p.MaxSpread
	if trigo.AngleBetweenDeg(forward, displacement) <= math.Max(spread/2, p.AimTolerance) {
		action.Fire = true
	}

	strafe := displacement.OrthogonalClockwise()
	if p.StrafePeriod > 0 && (tick/p.StrafePeriod)%2 == 1 {
		strafe = displacement.OrthogonalCounterClockwise()
	}
	action.Move = strafe

	return mask.Apply(action.Sanitize())
}

// Forget drops the per-agent state, e.g. between episodes
func (p *HeuristicPolicy) Forget() {
	p.ticks = make(map[ecs.EntityID]int)
}
