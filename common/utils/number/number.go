package number

import (
	"math"
	"strconv"
)

func ToFixed(val float64, places int) (newVal float64) {
	roundOn := 0.5
	var round float64
	pow := math.Pow(10, float64(places))
	digit := pow * val
	_, div := math.Modf(digit)
	if div >= roundOn {
		round = math.Ceil(digit)
	} else {
		round = math.Floor(digit)
	}
	newVal = round / pow
	return
}

func FloatToStr(f float64, places int) string {
	return strconv.FormatFloat(f, 'f', places, 64)
}

func DegreeToRadian(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

func RadianToDegree(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

func Clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}

// Clamp11 bounds an observation scalar to [-1, 1]
func Clamp11(val float64) float64 {
	return Clamp(val, -1, 1)
}

func ClampInt(val, min, max int) int {
	if val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}

const epsilon = 0.000001

func IsZero(f float64) bool {
	return math.Abs(f) < epsilon
}
