package physics

// SensorRange is the hard cap, in world units, of a single ray.
const SensorRange = 20

// SensorHeadings are the ray directions relative to the force heading, in degrees.
var SensorHeadings = [SensorCount]float64{0, 45, -45, 90, -90}

// RayMarch walks from origin along heading in unit steps and returns the
// first length whose probe point is occupied, or SensorRange if none is.
func RayMarch(env Environment, origin Vector2D, heading PolarForce, delta float64) float64 {
	for length := 1; length <= SensorRange; length++ {
		probe := origin.Add(heading.Offset(delta, float64(length)))
		if env.Occupied(probe) {
			return float64(length)
		}
	}
	return SensorRange
}

// Sense casts one ray per entry in SensorHeadings.
func Sense(env Environment, origin Vector2D, heading PolarForce) Readings {
	var r Readings
	for i, delta := range SensorHeadings {
		r[i] = RayMarch(env, origin, heading, delta)
	}
	return r
}

// OpenSpace is an Environment with no obstructions.
type OpenSpace struct{}

func (OpenSpace) Occupied(Vector2D) bool { return false }
