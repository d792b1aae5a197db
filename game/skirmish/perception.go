package skirmish

import (
	"github.com/bytearena/ecs"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils/number"
	"github.com/bytearena/skirmish/common/utils/trigo"
	"github.com/bytearena/skirmish/common/utils/vector"
	"github.com/bytearena/skirmish/game/physics"
)

// AgentState is a read-only snapshot of one agent, taken once per tick
type AgentState struct {
	ID              ecs.EntityID   `json:"id"`
	PlayerID        string         `json:"playerid"`
	Team            types.TeamID   `json:"team"`
	Position        vector.Vector2 `json:"position"`
	Orientation     float64        `json:"orientation"`     // rad
	Velocity        vector.Vector2 `json:"velocity"`        // m/s
	AngularVelocity float64        `json:"angularvelocity"` // rad/s
	Ammo            int            `json:"ammo"`
	Cooldown        float64        `json:"cooldown"` // s
	Spread          float64        `json:"spread"`   // deg
	Active          bool           `json:"active"`
}

func (s AgentState) Forward() vector.Vector2 {
	return vector.MakeUnitVector2(s.Orientation)
}

// TurnRate is the angular velocity in deg/s
func (s AgentState) TurnRate() float64 {
	return number.RadianToDegree(s.AngularVelocity)
}

// PointAhead returns the point offset meters in front of the agent center
func (s AgentState) PointAhead(offset float64) vector.Vector2 {
	return s.Position.Add(s.Forward().Scale(offset))
}

// LineCaster answers the nearest-hit segment queries perception relies on
type LineCaster func(from vector.Vector2, to vector.Vector2, mask types.LayerMask) (physics.Hit, bool)

// CanObserve is true when the target stands within the observer's proximity radius,
// or lies within the perception radius and cone with nothing blocking the line of sight
func CanObserve(observer AgentState, target AgentState, params PerceptionParams, linecast LineCaster) bool {
	if observer.Position.DistanceTo(target.Position)-1 <= params.ProximityRadius {
		return true
	}

	eye := observer.PointAhead(params.EyeOffset)
	toTarget := target.Position.Sub(eye)

	if toTarget.Mag() > params.Radius {
		return false
	}

	if 2*trigo.AngleBetweenDeg(observer.Forward(), toTarget) > params.ConeAngle {
		return false
	}

	hit, ok := linecast(eye, target.Position, types.VisionLayers)
	if !ok {
		return false
	}

	return hit.Descriptor.Tag.IsAgent() && hit.Descriptor.ID == target.ID
}

type VisibilityClass int

const (
	VisibilityOccluded VisibilityClass = iota
	VisibilityOutline
	VisibilityVisible
)

func (c VisibilityClass) String() string {
	switch c {
	case VisibilityOutline:
		return "outline"
	case VisibilityVisible:
		return "visible"
	}

	return "occluded"
}

// Classify grades how much the observer learns about the target; teammates always show their outline
func Classify(observer AgentState, target AgentState, observable bool) VisibilityClass {
	if observable {
		return VisibilityVisible
	}

	if observer.Team == target.Team {
		return VisibilityOutline
	}

	return VisibilityOccluded
}

// Normalization holds the domain constants dividing every observed quantity
type Normalization struct {
	Bounds           float64 // map half-extent
	PerceptionRadius float64
	EyeOffset        float64
	MaxRunSpeed      float64 // m/s
	MaxTurnSpeed     float64 // deg/s
	MaxAmmo          int
	MaxSpread        float64 // deg
	ReloadCooldown   float64 // s

	RevealOccludedPositions bool
}

func (n Normalization) position(p vector.Vector2) vector.Vector2 {
	return p.DivScalar(n.Bounds).Clamp11()
}

func (n Normalization) speed(v vector.Vector2) float64 {
	return number.Clamp11(v.Mag() / n.MaxRunSpeed)
}

func (n Normalization) turnRate(state AgentState) float64 {
	return number.Clamp11(state.TurnRate() / n.MaxTurnSpeed)
}

func (n Normalization) cooldown(c float64) float64 {
	return number.Clamp11(2*c/n.ReloadCooldown - 1)
}

// direction maps a vector's heading onto the unit square; the null vector stays null
func direction(v vector.Vector2) vector.Vector2 {
	return v.Normalize().SquareNormalize().Clamp11()
}

const (
	SelfVectorSize   = 11
	TargetVectorSize = 13
)

// SelfVector: position (2), forward (2), move direction (2), speed, turn rate, ammo, spread, cooldown
type SelfVector [SelfVectorSize]float64

// TargetVector: position (2), distance, displacement (2), move direction (2), speed, team flag, forward (2), turn rate, cooldown
type TargetVector [TargetVectorSize]float64

func EncodeSelf(state AgentState, norm Normalization) SelfVector {
	position := norm.position(state.Position)
	forward := direction(state.Forward())
	move := direction(state.Velocity)

	return SelfVector{
		position.GetX(),
		position.GetY(),
		forward.GetX(),
		forward.GetY(),
		move.GetX(),
		move.GetY(),
		norm.speed(state.Velocity),
		norm.turnRate(state),
		number.Clamp11(2*float64(state.Ammo)/float64(norm.MaxAmmo) - 1),
		number.Clamp11(2*state.Spread/norm.MaxSpread - 1),
		norm.cooldown(state.Cooldown),
	}
}

// Perceive encodes the target as seen by the observer.
// Occluded targets encode as all zeros, or as their position alone with RevealOccludedPositions.
func Perceive(observer AgentState, target AgentState, class VisibilityClass, norm Normalization) TargetVector {
	var v TargetVector

	position := norm.position(target.Position)

	if class == VisibilityOccluded {
		if norm.RevealOccludedPositions {
			v[0], v[1] = position.Get()
		}

		return v
	}

	eye := observer.PointAhead(norm.EyeOffset)
	distance := eye.DistanceTo(target.Position)
	displacement := direction(target.Position.Sub(observer.Position))
	move := direction(target.Velocity)

	teamFlag := -1.0
	if observer.Team == target.Team {
		teamFlag = 1.0
	}

	v[0], v[1] = position.Get()
	v[2] = number.Clamp11(2*(distance-1)/(norm.PerceptionRadius-0.5) - 1)
	v[3], v[4] = displacement.Get()
	v[5], v[6] = move.Get()
	v[7] = norm.speed(target.Velocity)
	v[8] = teamFlag

	if class == VisibilityVisible {
		forward := direction(target.Forward())
		v[9], v[10] = forward.Get()
		v[11] = norm.turnRate(target)
		v[12] = norm.cooldown(target.Cooldown)
	}

	return v
}
