package trigo

import (
	"math"
	"math/rand"

	"github.com/bytearena/skirmish/common/utils/number"
	"github.com/bytearena/skirmish/common/utils/vector"
)

// NormalizeAngle wraps an angle in radians to ]-π, π]
func NormalizeAngle(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad > math.Pi {
		rad -= 2 * math.Pi
	} else if rad <= -math.Pi {
		rad += 2 * math.Pi
	}

	return rad
}

// SignedAngleDeg is the signed angle in degrees rotating from onto to
func SignedAngleDeg(from vector.Vector2, to vector.Vector2) float64 {
	return number.RadianToDegree(from.SignedAngle(to))
}

// AngleBetweenDeg is the unsigned angle in degrees between a and b, in [0, 180]
func AngleBetweenDeg(a vector.Vector2, b vector.Vector2) float64 {
	return number.RadianToDegree(a.UnsignedAngle(b))
}

// RandomInsideUnitCircle samples a point uniformly over the unit disk
func RandomInsideUnitCircle(rng *rand.Rand) vector.Vector2 {
	radius := math.Sqrt(rng.Float64())
	return vector.MakeRandomVector2(rng).Scale(radius)
}

// RandomRange samples uniformly in [min, max)
func RandomRange(rng *rand.Rand, min float64, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
