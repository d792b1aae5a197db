package vector

import (
	"encoding/json"
	"math"
	"math/rand"
	"strconv"

	"github.com/bytearena/box2d"
	"github.com/bytearena/skirmish/common/utils/number"
)

// Vector2 is an immutable 2D vector; angles are radians, counter-clockwise from +X.
type Vector2 struct {
	x float64
	y float64
}

func MakeVector2(x float64, y float64) Vector2 {
	return Vector2{x, y}
}

// Returns a random unit vector
func MakeRandomVector2(rng *rand.Rand) Vector2 {
	radians := rng.Float64() * math.Pi * 2
	return MakeVector2(
		math.Cos(radians),
		math.Sin(radians),
	)
}

// Returns a null vector2
func MakeNullVector2() Vector2 {
	return MakeVector2(0, 0)
}

// Returns the unit vector pointing at the given angle
func MakeUnitVector2(radians float64) Vector2 {
	return MakeVector2(math.Cos(radians), math.Sin(radians))
}

func (v Vector2) Get() (float64, float64) {
	return v.x, v.y
}

func (v Vector2) GetX() float64 {
	return v.x
}

func (v Vector2) GetY() float64 {
	return v.y
}

var floatformat = byte('f')

func (v Vector2) MarshalJSON() ([]byte, error) {
	b := []byte{'['}
	b = strconv.AppendFloat(b, v.x, floatformat, 4, 64)
	b = append(b, byte(','))
	b = strconv.AppendFloat(b, v.y, floatformat, 4, 64)
	return append(b, byte(']')), nil
}

func (v *Vector2) UnmarshalJSON(b []byte) error {
	var floats [2]float64
	if err := json.Unmarshal(b, &floats); err != nil {
		return err
	}

	v.x = floats[0]
	v.y = floats[1]

	return nil
}

func (a Vector2) Add(b Vector2) Vector2 {
	a.x += b.x
	a.y += b.y
	return a
}

func (a Vector2) Sub(b Vector2) Vector2 {
	a.x -= b.x
	a.y -= b.y
	return a
}

func (a Vector2) Scale(scale float64) Vector2 {
	a.x *= scale
	a.y *= scale
	return a
}

func (a Vector2) DivScalar(f float64) Vector2 {
	a.x /= f
	a.y /= f
	return a
}

func (a Vector2) Mag() float64 {
	return math.Sqrt(a.MagSq())
}

func (a Vector2) MagSq() float64 {
	return (a.x*a.x + a.y*a.y)
}

func (a Vector2) SetMag(mag float64) Vector2 {
	return a.Normalize().Scale(mag)
}

func (a Vector2) Normalize() Vector2 {
	mag := a.Mag()
	if mag > 0 {
		return a.DivScalar(mag)
	}
	return a
}

func (a Vector2) OrthogonalClockwise() Vector2 {
	return MakeVector2(a.y, -a.x)
}

func (a Vector2) OrthogonalCounterClockwise() Vector2 {
	return MakeVector2(-a.y, a.x)
}

// SetAngle keeps the magnitude and points the vector at the given angle
func (a Vector2) SetAngle(radians float64) Vector2 {
	return MakeUnitVector2(radians).Scale(a.Mag())
}

// Rotate turns the vector counter-clockwise by the given angle
func (a Vector2) Rotate(radians float64) Vector2 {
	cos, sin := math.Cos(radians), math.Sin(radians)
	return MakeVector2(
		a.x*cos-a.y*sin,
		a.x*sin+a.y*cos,
	)
}

func (a Vector2) Limit(max float64) Vector2 {

	mSq := a.MagSq()

	if mSq > max*max {
		return a.Normalize().Scale(max)
	}

	return a
}

// Angle in ]-π, π]; the null vector has angle 0
func (a Vector2) Angle() float64 {
	if a.x == 0 && a.y == 0 {
		return 0
	}

	return math.Atan2(a.y, a.x)
}

// SignedAngle is the angle to rotate a onto b, in ]-π, π]
func (a Vector2) SignedAngle(b Vector2) float64 {
	if a.IsNull() || b.IsNull() {
		return 0
	}

	return math.Atan2(a.Cross(b), a.Dot(b))
}

// UnsignedAngle is the absolute angle between a and b, in [0, π]
func (a Vector2) UnsignedAngle(b Vector2) float64 {
	return math.Abs(a.SignedAngle(b))
}

func (a Vector2) Cross(v Vector2) float64 {
	return a.x*v.y - a.y*v.x
}

func (a Vector2) Dot(v Vector2) float64 {
	return a.x*v.x + a.y*v.y
}

// SquareNormalize maps the unit disk onto the unit square, preserving direction:
// unit vectors land on the square's boundary, the null vector stays null.
func (a Vector2) SquareNormalize() Vector2 {
	m := math.Max(math.Abs(a.x), math.Abs(a.y))
	if isZero(m) {
		return MakeNullVector2()
	}

	return a.Scale(a.Mag() / m)
}

// Clamp11 clamps each component to [-1, 1]
func (a Vector2) Clamp11() Vector2 {
	return MakeVector2(number.Clamp11(a.x), number.Clamp11(a.y))
}

func (a Vector2) Lerp(b Vector2, t float64) Vector2 {
	return a.Add(b.Sub(a).Scale(t))
}

// Floor returns the integer lattice coordinates containing the point
func (a Vector2) Floor() (int, int) {
	return int(math.Floor(a.x)), int(math.Floor(a.y))
}

func (a Vector2) DistanceTo(b Vector2) float64 {
	return b.Sub(a).Mag()
}

func (a Vector2) IsNull() bool {
	return isZero(a.x) && isZero(a.y)
}

func (a Vector2) Equals(b Vector2) bool {
	return b.Sub(a).IsNull()
}

func (a Vector2) String() string {
	return "<Vector2(" + number.FloatToStr(a.x, 5) + ", " + number.FloatToStr(a.y, 5) + ")>"
}

func (a Vector2) ToFloatArray() [2]float64 {
	return [2]float64{a.GetX(), a.GetY()}
}

func (a Vector2) ToB2Vec2() box2d.B2Vec2 {
	return box2d.MakeB2Vec2(a.GetX(), a.GetY())
}

func FromB2Vec2(v box2d.B2Vec2) Vector2 {
	return MakeVector2(v.X, v.Y)
}

var epsilon float64 = 0.000001

func isZero(f float64) bool {
	return math.Abs(f) < epsilon
}
