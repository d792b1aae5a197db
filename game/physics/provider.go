package physics

import (
	"github.com/bytearena/ecs"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils/vector"
)

// Hit is the nearest body struck by a ray or line query
type Hit struct {
	Descriptor types.PhysicalBodyDescriptor
	Point      vector.Vector2
	Fraction   float64 // along the queried segment, in [0, 1]
}

// Provider integrates 2D rigid-body motion and answers geometric queries.
// All calls are synchronous and happen on the simulation thread.
type Provider interface {
	AddAgent(id ecs.EntityID, tag types.BodyTag, radius float64) error
	AddObstacle(vertices []vector.Vector2) error

	// RayCast returns the nearest hit within maxDistance; a non-finite maxDistance means unbounded
	RayCast(origin vector.Vector2, direction vector.Vector2, maxDistance float64, mask types.LayerMask) (Hit, bool)
	LineCast(from vector.Vector2, to vector.Vector2, mask types.LayerMask) (Hit, bool)

	ApplyForce(id ecs.EntityID, force vector.Vector2)
	ApplyTorque(id ecs.EntityID, torque float64)

	// IsColliding reports whether the agent's body overlaps any body selected by mask
	IsColliding(id ecs.EntityID, mask types.LayerMask) bool

	GetTransform(id ecs.EntityID) (position vector.Vector2, angle float64)
	SetTransform(id ecs.EntityID, position vector.Vector2, angle float64)
	GetVelocity(id ecs.EntityID) (linear vector.Vector2, angular float64)
	SetVelocity(id ecs.EntityID, linear vector.Vector2, angular float64)

	// SetEnabled removes a body from simulation and queries, or restores it
	SetEnabled(id ecs.EntityID, enabled bool)

	Step(dt float64)
}
