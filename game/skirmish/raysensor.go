package skirmish

import (
	"github.com/bytearena/skirmish/common/types"
	"github.com/bytearena/skirmish/common/utils/number"
	"github.com/bytearena/skirmish/common/utils/vector"
	"github.com/bytearena/skirmish/game/physics"
)

// RayCaster answers the nearest-hit ray queries of the ray sensor
type RayCaster func(origin vector.Vector2, direction vector.Vector2, maxDistance float64, mask types.LayerMask) (physics.Hit, bool)

type RayReading struct {
	Start    vector.Vector2 `json:"start"`
	End      vector.Vector2 `json:"end"`
	Fraction float64        `json:"fraction"` // 1 when nothing was hit
	Tag      types.BodyTag  `json:"tag"`      // 0 when nothing was hit
}

func (r RayReading) HasHit() bool {
	return r.Tag != 0
}

// At returns the point at the given fraction of the ray
func (r RayReading) At(fraction float64) vector.Vector2 {
	return r.Start.Lerp(r.End, fraction)
}

var detectableTags = []types.BodyTag{
	types.PhysicalBodyTag.Terrain,
	types.PhysicalBodyTag.TeamAUnit,
	types.PhysicalBodyTag.TeamBUnit,
}

// RayReadingSize is the encoded length of a ray: one slot per detectable tag, a no-hit flag and the hit fraction
var RayReadingSize = len(detectableTags) + 2

func (r RayReading) Encode() []float64 {
	encoded := make([]float64, RayReadingSize)
	for i, tag := range detectableTags {
		if r.Tag == tag {
			encoded[i] = 1
		}
	}

	if !r.HasHit() {
		encoded[len(detectableTags)] = 1
	}

	encoded[len(detectableTags)+1] = r.Fraction
	return encoded
}

// RayAngles returns the offsets from forward, in degrees: straight ahead first, then alternately right and left
func (specs RaySensorSpecs) RayAngles() []float64 {
	n := specs.RaysPerDirection
	angles := make([]float64, 2*n+1)

	if n == 0 {
		return angles
	}

	step := specs.MaxRayDegrees / float64(n)
	for i := 0; i < n; i++ {
		delta := step * float64(i+1)
		angles[2*i+1] = -delta
		angles[2*i+2] = delta
	}

	return angles
}

// CastRays sweeps the fan of rays from origin around the given heading, in radians
func CastRays(origin vector.Vector2, orientation float64, specs RaySensorSpecs, raycast RayCaster) []RayReading {
	angles := specs.RayAngles()
	readings := make([]RayReading, len(angles))

	for i, offset := range angles {
		direction := vector.MakeUnitVector2(orientation + number.DegreeToRadian(offset))
		reading := RayReading{
			Start:    origin,
			End:      origin.Add(direction.Scale(specs.RayLength)),
			Fraction: 1,
		}

		if specs.RayLength > 0 {
			if hit, ok := raycast(origin, direction, specs.RayLength, types.VisionLayers); ok {
				reading.Fraction = hit.Fraction
				reading.Tag = hit.Descriptor.Tag
			}
		}

		readings[i] = reading
	}

	return readings
}
