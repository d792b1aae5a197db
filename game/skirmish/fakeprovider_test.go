package skirmish

import (
	"math"

	"github.com/bytearena/ecs"

	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/types/mapcontainer"
	"github.com/bytearena/skirmish/common/utils/vector"
	"github.com/bytearena/skirmish/game/physics"
)

type fakeBody struct {
	id       ecs.EntityID
	tag      types.BodyTag
	radius   float64
	position vector.Vector2
	angle    float64
	velocity vector.Vector2
	angular  float64
	enabled  bool

	force      vector.Vector2
	torque     float64
	lastForce  vector.Vector2
	lastTorque float64
}

type fakeBox struct {
	min, max vector.Vector2
}

// fakeProvider is a deterministic stand-in for the physics engine: agents are circles,
// obstacles their bounding boxes, and integration is explicit Euler with linear damping.
type fakeProvider struct {
	bodies    map[ecs.EntityID]*fakeBody
	order     []ecs.EntityID
	obstacles []fakeBox
	damping   float64
	steps     int

	// number of upcoming IsColliding calls answering true regardless of geometry
	forcedCollisions int
	alwaysColliding  bool
}

var _ physics.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		bodies:  make(map[ecs.EntityID]*fakeBody),
		damping: 10,
	}
}

func (p *fakeProvider) AddAgent(id ecs.EntityID, tag types.BodyTag, radius float64) error {
	p.bodies[id] = &fakeBody{id: id, tag: tag, radius: radius, enabled: true}
	p.order = append(p.order, id)
	return nil
}

func (p *fakeProvider) AddObstacle(vertices []vector.Vector2) error {
	box := fakeBox{
		min: vector.MakeVector2(math.Inf(1), math.Inf(1)),
		max: vector.MakeVector2(math.Inf(-1), math.Inf(-1)),
	}

	for _, v := range vertices {
		box.min = vector.MakeVector2(math.Min(box.min.GetX(), v.GetX()), math.Min(box.min.GetY(), v.GetY()))
		box.max = vector.MakeVector2(math.Max(box.max.GetX(), v.GetX()), math.Max(box.max.GetY(), v.GetY()))
	}

	p.obstacles = append(p.obstacles, box)
	return nil
}

func (p *fakeProvider) RayCast(origin vector.Vector2, direction vector.Vector2, maxDistance float64, mask types.LayerMask) (physics.Hit, bool) {
	if direction.IsNull() {
		return physics.Hit{}, false
	}

	if math.IsInf(maxDistance, 0) || maxDistance > 1000 {
		maxDistance = 1000
	}

	return p.LineCast(origin, origin.Add(direction.SetMag(maxDistance)), mask)
}

func (p *fakeProvider) LineCast(from vector.Vector2, to vector.Vector2, mask types.LayerMask) (physics.Hit, bool) {
	segment := to.Sub(from)
	length := segment.Mag()
	if length == 0 {
		return physics.Hit{}, false
	}

	dir := segment.DivScalar(length)
	best := physics.Hit{Fraction: math.Inf(1)}
	found := false

	consider := func(t float64, descriptor types.PhysicalBodyDescriptor) {
		if t < 0 || t > length {
			return
		}

		fraction := t / length
		if fraction < best.Fraction {
			best = physics.Hit{
				Descriptor: descriptor,
				Point:      from.Add(dir.Scale(t)),
				Fraction:   fraction,
			}
			found = true
		}
	}

	if mask.Contains(types.PhysicalBodyTag.Terrain) {
		for _, box := range p.obstacles {
			if t, ok := rayBox(from, dir, box); ok {
				consider(t, types.MakePhysicalBodyDescriptor(types.PhysicalBodyTag.Terrain, 0))
			}
		}
	}

	for _, id := range p.order {
		body := p.bodies[id]
		if !body.enabled || !mask.Contains(body.tag) {
			continue
		}

		if t, ok := rayCircle(from, dir, body.position, body.radius); ok {
			consider(t, types.MakePhysicalBodyDescriptor(body.tag, body.id))
		}
	}

	return best, found
}

// rayCircle ignores circles containing the origin
func rayCircle(origin vector.Vector2, dir vector.Vector2, center vector.Vector2, radius float64) (float64, bool) {
	s := origin.Sub(center)
	b := s.MagSq() - radius*radius
	if b < 0 {
		return 0, false
	}

	c := s.Dot(dir)
	sigma := c*c - b
	if sigma < 0 {
		return 0, false
	}

	return -c - math.Sqrt(sigma), true
}

func rayBox(origin vector.Vector2, dir vector.Vector2, box fakeBox) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)

	o := origin.ToFloatArray()
	d := dir.ToFloatArray()
	lo := box.min.ToFloatArray()
	hi := box.max.ToFloatArray()

	for axis := 0; axis < 2; axis++ {
		if d[axis] == 0 {
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return 0, false
			}
			continue
		}

		t1 := (lo[axis] - o[axis]) / d[axis]
		t2 := (hi[axis] - o[axis]) / d[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}

	if tmin > tmax || tmax < 0 {
		return 0, false
	}

	return math.Max(tmin, 0), true
}

func (p *fakeProvider) ApplyForce(id ecs.EntityID, force vector.Vector2) {
	body := p.bodies[id]
	body.force = body.force.Add(force)
}

func (p *fakeProvider) ApplyTorque(id ecs.EntityID, torque float64) {
	p.bodies[id].torque += torque
}

func (p *fakeProvider) IsColliding(id ecs.EntityID, mask types.LayerMask) bool {
	if p.alwaysColliding {
		return true
	}

	if p.forcedCollisions > 0 {
		p.forcedCollisions--
		return true
	}

	body := p.bodies[id]

	if mask.Contains(types.PhysicalBodyTag.Terrain) {
		for _, box := range p.obstacles {
			closest := vector.MakeVector2(
				math.Max(box.min.GetX(), math.Min(body.position.GetX(), box.max.GetX())),
				math.Max(box.min.GetY(), math.Min(body.position.GetY(), box.max.GetY())),
			)

			if closest.DistanceTo(body.position) < body.radius {
				return true
			}
		}
	}

	for _, other := range p.bodies {
		if other == body || !other.enabled || !mask.Contains(other.tag) {
			continue
		}

		if other.position.DistanceTo(body.position) < other.radius+body.radius {
			return true
		}
	}

	return false
}

func (p *fakeProvider) GetTransform(id ecs.EntityID) (vector.Vector2, float64) {
	body := p.bodies[id]
	return body.position, body.angle
}

func (p *fakeProvider) SetTransform(id ecs.EntityID, position vector.Vector2, angle float64) {
	body := p.bodies[id]
	body.position = position
	body.angle = angle
}

func (p *fakeProvider) GetVelocity(id ecs.EntityID) (vector.Vector2, float64) {
	body := p.bodies[id]
	return body.velocity, body.angular
}

func (p *fakeProvider) SetVelocity(id ecs.EntityID, linear vector.Vector2, angular float64) {
	body := p.bodies[id]
	body.velocity = linear
	body.angular = angular
}

func (p *fakeProvider) SetEnabled(id ecs.EntityID, enabled bool) {
	p.bodies[id].enabled = enabled
}

func (p *fakeProvider) Step(dt float64) {
	p.steps++

	for _, id := range p.order {
		body := p.bodies[id]
		body.lastForce, body.lastTorque = body.force, body.torque
		body.force, body.torque = vector.MakeNullVector2(), 0

		if !body.enabled {
			continue
		}

		inertia := body.radius * body.radius / 2
		body.velocity = body.velocity.Add(body.lastForce.Scale(dt)).Scale(1 / (1 + dt*p.damping))
		body.angular = (body.angular + body.lastTorque/inertia*dt) / (1 + dt*p.damping)
		body.position = body.position.Add(body.velocity.Scale(dt))
		body.angle += body.angular * dt
	}
}

// openArena has no obstacle and no wall
func openArena() *mapcontainer.MapContainer {
	arena := &mapcontainer.MapContainer{}
	arena.Data.Bounds = 18.5
	arena.Data.Size = 20
	return arena
}

func ecsID(id int) ecs.EntityID {
	return ecs.EntityID(id)
}

func box(cx, cy, hw, hh float64) []vector.Vector2 {
	return []vector.Vector2{
		vector.MakeVector2(cx-hw, cy-hh),
		vector.MakeVector2(cx+hw, cy-hh),
		vector.MakeVector2(cx+hw, cy+hh),
		vector.MakeVector2(cx-hw, cy+hh),
	}
}
