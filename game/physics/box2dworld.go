package physics

import (
	"fmt"
	"math"

	"github.com/bytearena/box2d"
	"github.com/bytearena/ecs"
	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils"
	"github.com/bytearena/skirmish/common/utils/vector"
)

// Box2D polygons are limited to 8 vertices
const maxPolygonVertices = 8

type Box2DOptions struct {
	LinearDamping      float64 // agents reach MaxRunForce/LinearDamping m/s with unit mass
	AngularDamping     float64
	MaxRayLength       float64 // stands in for unbounded rays
	VelocityIterations int
	PositionIterations int
}

func DefaultBox2DOptions() Box2DOptions {
	return Box2DOptions{
		LinearDamping:      10,
		AngularDamping:     10,
		MaxRayLength:       1000,
		VelocityIterations: 8, // higher improves stability; default 8 in testbed
		PositionIterations: 3, // higher improve overlap resolution; default 3 in testbed
	}
}

// Box2DWorld is the Provider backed by a zero-gravity Box2D world; the simulation is seen from the top
type Box2DWorld struct {
	world   *box2d.B2World
	bodies  map[ecs.EntityID]*box2d.B2Body
	options Box2DOptions
}

var _ Provider = (*Box2DWorld)(nil)

func NewBox2DWorld(options Box2DOptions) *Box2DWorld {
	gravity := box2d.MakeB2Vec2(0.0, 0.0)
	world := box2d.MakeB2World(gravity)

	return &Box2DWorld{
		world:   &world,
		bodies:  make(map[ecs.EntityID]*box2d.B2Body),
		options: options,
	}
}

func (w *Box2DWorld) AddAgent(id ecs.EntityID, tag types.BodyTag, radius float64) error {
	if _, exists := w.bodies[id]; exists {
		return errors.Errorf("agent %d already has a body", id)
	}

	if radius <= 0 {
		return errors.Errorf("agent %d radius must be positive, got %v", id, radius)
	}

	bodydef := box2d.MakeB2BodyDef()
	bodydef.Type = box2d.B2BodyType.B2_dynamicBody
	bodydef.AllowSleep = false
	bodydef.LinearDamping = w.options.LinearDamping
	bodydef.AngularDamping = w.options.AngularDamping

	body := w.world.CreateBody(&bodydef)

	shape := box2d.MakeB2CircleShape()
	shape.SetRadius(radius)

	fixturedef := box2d.MakeB2FixtureDef()
	fixturedef.Shape = &shape
	fixturedef.Density = 1.0 / (math.Pi * radius * radius) // unit mass
	fixturedef.Filter.CategoryBits = uint16(tag)
	body.CreateFixtureFromDef(&fixturedef)
	body.SetUserData(types.MakePhysicalBodyDescriptor(tag, id))

	w.bodies[id] = body
	return nil
}

func (w *Box2DWorld) AddObstacle(vertices []vector.Vector2) (err error) {
	if len(vertices) < 3 || len(vertices) > maxPolygonVertices {
		return errors.Errorf("obstacle must have between 3 and %d vertices, got %d", maxPolygonVertices, len(vertices))
	}

	bodydef := box2d.MakeB2BodyDef()
	bodydef.Type = box2d.B2BodyType.B2_staticBody

	body := w.world.CreateBody(&bodydef)

	points := make([]box2d.B2Vec2, len(vertices))
	for i, vertex := range vertices {
		points[i] = vertex.ToB2Vec2()
	}

	defer func() {
		if r := recover(); r != nil {
			w.world.DestroyBody(body)
			err = errors.Errorf("obstacle is not a valid polygon; perhaps some vertices are duplicated? (%v)", r)
		}
	}()

	shape := box2d.MakeB2PolygonShape()
	shape.Set(points, len(points))

	fixturedef := box2d.MakeB2FixtureDef()
	fixturedef.Shape = &shape
	fixturedef.Filter.CategoryBits = uint16(types.PhysicalBodyTag.Terrain)
	body.CreateFixtureFromDef(&fixturedef)
	body.SetUserData(types.MakePhysicalBodyDescriptor(types.PhysicalBodyTag.Terrain, 0))

	return nil
}

func (w *Box2DWorld) RayCast(origin vector.Vector2, direction vector.Vector2, maxDistance float64, mask types.LayerMask) (Hit, bool) {
	if direction.IsNull() {
		return Hit{}, false
	}

	if math.IsInf(maxDistance, 0) || math.IsNaN(maxDistance) || maxDistance > w.options.MaxRayLength {
		maxDistance = w.options.MaxRayLength
	}

	return w.LineCast(origin, origin.Add(direction.SetMag(maxDistance)), mask)
}

func (w *Box2DWorld) LineCast(from vector.Vector2, to vector.Vector2, mask types.LayerMask) (Hit, bool) {
	if from.Equals(to) {
		return Hit{}, false
	}

	nearest := Hit{Fraction: math.Inf(1)}
	found := false

	w.world.RayCast(
		func(fixture *box2d.B2Fixture, point box2d.B2Vec2, normal box2d.B2Vec2, fraction float64) float64 {
			descriptor, ok := fixture.GetBody().GetUserData().(types.PhysicalBodyDescriptor)
			if !ok || !mask.Contains(descriptor.Tag) {
				return -1.0 // ignore this fixture
			}

			if fraction < nearest.Fraction {
				nearest = Hit{
					Descriptor: descriptor,
					Point:      vector.FromB2Vec2(point),
					Fraction:   fraction,
				}
				found = true
			}

			return fraction // clip the ray to the closest hit so far
		},
		from.ToB2Vec2(),
		to.ToB2Vec2(),
	)

	return nearest, found
}

func (w *Box2DWorld) ApplyForce(id ecs.EntityID, force vector.Vector2) {
	w.mustGetBody(id).ApplyForceToCenter(force.ToB2Vec2(), true)
}

func (w *Box2DWorld) ApplyTorque(id ecs.EntityID, torque float64) {
	w.mustGetBody(id).ApplyTorque(torque, true)
}

func (w *Box2DWorld) IsColliding(id ecs.EntityID, mask types.LayerMask) bool {
	body := w.mustGetBody(id)
	shape := body.GetFixtureList().GetShape()

	for other := w.world.GetBodyList(); other != nil; other = other.GetNext() {
		if other == body || !other.IsActive() {
			continue
		}

		descriptor, ok := other.GetUserData().(types.PhysicalBodyDescriptor)
		if !ok || !mask.Contains(descriptor.Tag) {
			continue
		}

		for fixture := other.GetFixtureList(); fixture != nil; fixture = fixture.GetNext() {
			if box2d.B2TestOverlapShapes(shape, 0, fixture.GetShape(), 0, body.GetTransform(), other.GetTransform()) {
				return true
			}
		}
	}

	return false
}

func (w *Box2DWorld) GetTransform(id ecs.EntityID) (vector.Vector2, float64) {
	body := w.mustGetBody(id)
	return vector.FromB2Vec2(body.GetPosition()), body.GetAngle()
}

func (w *Box2DWorld) SetTransform(id ecs.EntityID, position vector.Vector2, angle float64) {
	w.mustGetBody(id).SetTransform(position.ToB2Vec2(), angle)
}

func (w *Box2DWorld) GetVelocity(id ecs.EntityID) (vector.Vector2, float64) {
	body := w.mustGetBody(id)
	return vector.FromB2Vec2(body.GetLinearVelocity()), body.GetAngularVelocity()
}

func (w *Box2DWorld) SetVelocity(id ecs.EntityID, linear vector.Vector2, angular float64) {
	body := w.mustGetBody(id)
	body.SetLinearVelocity(linear.ToB2Vec2())
	body.SetAngularVelocity(angular)
}

func (w *Box2DWorld) SetEnabled(id ecs.EntityID, enabled bool) {
	w.mustGetBody(id).SetActive(enabled)
}

func (w *Box2DWorld) Step(dt float64) {
	w.world.Step(
		dt,
		w.options.VelocityIterations,
		w.options.PositionIterations,
	)
}

func (w *Box2DWorld) mustGetBody(id ecs.EntityID) *box2d.B2Body {
	body, ok := w.bodies[id]
	utils.Assert(ok, fmt.Sprintf("no physical body registered for agent %d", id))
	return body
}
