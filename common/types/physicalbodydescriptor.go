package types

import (
	"github.com/bytearena/ecs"
)

// BodyTag classifies a collidable once, at creation; tags are single bits so they compose into layer masks
type BodyTag uint16

func (t BodyTag) String() string {
	switch t {
	case PhysicalBodyTag.Terrain:
		return "Terrain"
	case PhysicalBodyTag.TeamAUnit:
		return "TeamAUnit"
	case PhysicalBodyTag.TeamBUnit:
		return "TeamBUnit"
	}

	return "UnknownTag"
}

// IsAgent reports whether the tag belongs to a team unit
func (t BodyTag) IsAgent() bool {
	return t == PhysicalBodyTag.TeamAUnit || t == PhysicalBodyTag.TeamBUnit
}

var PhysicalBodyTag = struct {
	Terrain   BodyTag
	TeamAUnit BodyTag
	TeamBUnit BodyTag
}{
	Terrain:   BodyTag(1 << 0),
	TeamAUnit: BodyTag(1 << 1),
	TeamBUnit: BodyTag(1 << 2),
}

// TeamID is 0 for team A and 1 for team B
type TeamID int

const (
	TeamA TeamID = 0
	TeamB TeamID = 1
)

func (team TeamID) String() string {
	if team == TeamA {
		return "TeamA"
	}

	return "TeamB"
}

// Opponent returns the other team
func (team TeamID) Opponent() TeamID {
	return 1 - team
}

// UnitTag returns the body tag carried by the team's agents
func (team TeamID) UnitTag() BodyTag {
	if team == TeamA {
		return PhysicalBodyTag.TeamAUnit
	}

	return PhysicalBodyTag.TeamBUnit
}

// LayerMask selects the body tags a query may hit
type LayerMask uint16

func MakeLayerMask(tags ...BodyTag) LayerMask {
	var mask LayerMask
	for _, tag := range tags {
		mask |= LayerMask(tag)
	}

	return mask
}

func (mask LayerMask) Contains(tag BodyTag) bool {
	return uint16(mask)&uint16(tag) != 0
}

var (
	// VisionLayers block sight; agents occlude one another
	VisionLayers = MakeLayerMask(PhysicalBodyTag.Terrain, PhysicalBodyTag.TeamAUnit, PhysicalBodyTag.TeamBUnit)

	// ShootableLayers are hit by fired rays
	ShootableLayers = MakeLayerMask(PhysicalBodyTag.Terrain, PhysicalBodyTag.TeamAUnit, PhysicalBodyTag.TeamBUnit)

	// TerrainLayers are the static obstacles spawns must avoid
	TerrainLayers = MakeLayerMask(PhysicalBodyTag.Terrain)
)

// PhysicalBodyDescriptor is set as UserData on Box2D Physical bodies to be able to determine the hit body from ray queries
type PhysicalBodyDescriptor struct {
	Tag BodyTag
	ID  ecs.EntityID
}

func MakePhysicalBodyDescriptor(tag BodyTag, id ecs.EntityID) PhysicalBodyDescriptor {
	return PhysicalBodyDescriptor{
		Tag: tag,
		ID:  id,
	}
}

// Team returns the team of an agent descriptor
func (d PhysicalBodyDescriptor) Team() TeamID {
	if d.Tag == PhysicalBodyTag.TeamBUnit {
		return TeamB
	}

	return TeamA
}
