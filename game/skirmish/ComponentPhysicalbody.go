package skirmish

import (
	"github.com/bytearena/ecs"

	"github.com/bytearena/skirmish/common/utils/vector"
	"github.com/bytearena/skirmish/game/physics"
)

func (game SkirmishGame) CastPhysicalBody(data interface{}) *PhysicalBody {
	return data.(*PhysicalBody)
}

// PhysicalBody is the agent's handle on its rigid body in the physics provider
type PhysicalBody struct {
	id       ecs.EntityID
	provider physics.Provider
	radius   float64 // expressed in m
}

func (p PhysicalBody) GetPosition() vector.Vector2 {
	position, _ := p.provider.GetTransform(p.id)
	return position
}

// GetOrientation is the heading in radians, counter-clockwise from +X
func (p PhysicalBody) GetOrientation() float64 {
	_, angle := p.provider.GetTransform(p.id)
	return angle
}

func (p PhysicalBody) GetForward() vector.Vector2 {
	return vector.MakeUnitVector2(p.GetOrientation())
}

func (p *PhysicalBody) SetTransform(position vector.Vector2, angle float64) *PhysicalBody {
	p.provider.SetTransform(p.id, position, angle)
	return p
}

func (p PhysicalBody) GetVelocity() vector.Vector2 {
	linear, _ := p.provider.GetVelocity(p.id)
	return linear
}

// GetAngularVelocity is expressed in rad/s
func (p PhysicalBody) GetAngularVelocity() float64 {
	_, angular := p.provider.GetVelocity(p.id)
	return angular
}

func (p *PhysicalBody) Stop() *PhysicalBody {
	p.provider.SetVelocity(p.id, vector.MakeNullVector2(), 0)
	return p
}

func (p PhysicalBody) GetRadius() float64 {
	return p.radius
}

func (p *PhysicalBody) ApplyForce(force vector.Vector2) {
	p.provider.ApplyForce(p.id, force)
}

func (p *PhysicalBody) ApplyTorque(torque float64) {
	p.provider.ApplyTorque(p.id, torque)
}

func (p *PhysicalBody) SetEnabled(enabled bool) {
	p.provider.SetEnabled(p.id, enabled)
}

// PointAhead returns the point offset meters in front of the body center
func (p PhysicalBody) PointAhead(offset float64) vector.Vector2 {
	position, angle := p.provider.GetTransform(p.id)
	return position.Add(vector.MakeUnitVector2(angle).Scale(offset))
}
