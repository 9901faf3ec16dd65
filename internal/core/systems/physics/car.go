package physics

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidControlCommand = errors.New("invalid control command")
	ErrNoPolicy              = errors.New("car has no policy attached")
)

// Car steers a body with a Policy. MaxTurn is in degrees per tick at full
// deflection; MaxAccel is the force length at full throttle.
type Car struct {
	MaxAccel float64
	MaxTurn  float64
	policy   Policy
}

var _ Controller = (*Car)(nil)

// NewCar creates a car controller. The policy is borrowed, not owned.
func NewCar(maxAccel, maxTurn float64, policy Policy) *Car {
	return &Car{MaxAccel: maxAccel, MaxTurn: maxTurn, policy: policy}
}

// NewCarBody builds a controlled body with the given footprint driven by car.
func NewCarBody(mass, xLength, yLength float64, car *Car, opts ...BodyOption) *Body {
	opts = append([]BodyOption{WithExtent(xLength, yLength), WithController(car)}, opts...)
	return NewBody(mass, opts...)
}


// Act senses the environment, asks the policy for a command and applies it
// to the body's force.
func (c *Car) Act(body *Body, position Vector2D, env Environment) error {
	if c.policy == nil {
		return ErrNoPolicy
	}
	readings := Sense(env, position, body.Force)
	cmd := c.policy.Decide(readings)
	// A rejected command leaves the force untouched.
	if err := checkUnit("acceleration", cmd.Acceleration); err != nil {
		return err
	}
	if err := checkUnit("turn", cmd.Turn); err != nil {
		return err
	}
	if err := c.SetAcceleration(body, cmd.Acceleration); err != nil {
		return err
	}
	return c.Turn(body, cmd.Turn)
}

// Turn rotates the body's force by value * MaxTurn degrees.
func (c *Car) Turn(body *Body, value float64) error {
	if err := checkUnit("turn", value); err != nil {
		return err
	}
	body.Force.Turn(c.MaxTurn * value)
	return nil
}

// SetAcceleration sets the body's force length to value * MaxAccel.
func (c *Car) SetAcceleration(body *Body, value float64) error {
	if err := checkUnit("acceleration", value); err != nil {
		return err
	}
	body.Force.SetLength(c.MaxAccel * value)
	return nil
}

func checkUnit(name string, value float64) error {
	// NaN fails both comparisons.
	if !(value >= -1 && value <= 1) {
		return fmt.Errorf("%w: %s %v outside [-1, 1]", ErrInvalidControlCommand, name, value)
	}
	return nil
}
