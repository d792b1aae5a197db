package skirmish

import (
	"github.com/bytearena/ecs"

	"github.com/bytearena/skirmish/common/types"
)

// Observation is everything an agent learns about the world at the end of a tick
type Observation struct {
	ID       ecs.EntityID      `json:"id"`
	PlayerID string            `json:"playerid"`
	Team     types.TeamID      `json:"team"`
	Active   bool              `json:"active"`
	Self     SelfVector        `json:"self"`
	Targets  []TargetVector    `json:"targets"` // other active agents, roster order
	Classes  []VisibilityClass `json:"classes"`
	Rays     []RayReading      `json:"rays"`
}

// Flatten concatenates the self vector and the encoded rays; targets stay a separate variable-length buffer
func (o Observation) Flatten() []float64 {
	flat := make([]float64, 0, SelfVectorSize+len(o.Rays)*RayReadingSize)
	flat = append(flat, o.Self[:]...)
	for _, ray := range o.Rays {
		flat = append(flat, ray.Encode()...)
	}

	return flat
}
