package physics

// Contracts shared between bodies, the world that moves them and the policies
// that steer them. Kept free of world and track types so that both can depend
// on this package.

// Environment answers spatial queries against whatever a body moves through.
type Environment interface {
	// Occupied reports whether the point is obstructed. Points the
	// environment cannot resolve must be reported as occupied.
	Occupied(p Vector2D) bool
}

// Controller is the control hook of a Controlled body. It runs once per tick
// after integration, with the body's freshly computed position.
type Controller interface {
	Act(body *Body, position Vector2D, env Environment) error
}

// Bounded exposes an axis-aligned bounding box around a position.
type Bounded interface {
	Boundaries(position Vector2D) (lower, upper Vector2D)
}

// SensorCount is the number of rays a car casts per tick.
const SensorCount = 5

// Readings are the free distances measured by each sensor ray, in
// SensorHeadings order.
type Readings [SensorCount]float64

// Command is a policy decision. Both fields must lie in [-1, 1].
type Command struct {
	Turn         float64 `json:"turn"`
	Acceleration float64 `json:"acceleration"`
}

// Policy maps sensor readings to a steering/throttle command.
type Policy interface {
	Decide(r Readings) Command
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(r Readings) Command

func (f PolicyFunc) Decide(r Readings) Command { return f(r) }
