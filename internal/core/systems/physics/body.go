package physics

import "fmt"

// State is the dynamic record every body carries.
type State struct {
	Mass     float64    `json:"mass"`
	Velocity Vector2D   `json:"velocity"`
	Force    PolarForce `json:"force"`
}

// Integrate updates the velocity for one tick of length dt.
//
// Each axis gains (mass / force component) * dt. An axis whose force
// component is exactly zero keeps its velocity.
func (s *State) Integrate(dt float64) {
	fx, fy := s.Force.X(), s.Force.Y()
	if fx != 0 {
		s.Velocity.X += (s.Mass / fx) * dt
	}
	if fy != 0 {
		s.Velocity.Y += (s.Mass / fy) * dt
	}
}

// Extent is the rectangular footprint of a body, centered on its position.
type Extent struct {
	XLength float64 `json:"x_length"`
	YLength float64 `json:"y_length"`
}

func (e Extent) Boundaries(position Vector2D) (lower, upper Vector2D) {
	hx, hy := e.XLength/2, e.YLength/2
	return Vector2D{X: position.X - hx, Y: position.Y - hy},
		Vector2D{X: position.X + hx, Y: position.Y + hy}
}

// ControlKind tags the Control union.
type ControlKind uint8

const (
	Uncontrolled ControlKind = iota
	Controlled
)

func (k ControlKind) String() string {
	switch k {
	case Uncontrolled:
		return "uncontrolled"
	case Controlled:
		return "controlled"
	default:
		return fmt.Sprintf("ControlKind(%d)", uint8(k))
	}
}

// Control is either Uncontrolled or Controlled by a Controller.
// The zero value is Uncontrolled.
type Control struct {
	kind       ControlKind
	controller Controller
}

// NoControl returns the Uncontrolled variant.
func NoControl() Control { return Control{} }

// ControlledBy returns the Controlled variant. A nil controller yields
// Uncontrolled.
func ControlledBy(c Controller) Control {
	if c == nil {
		return Control{}
	}
	return Control{kind: Controlled, controller: c}
}

func (c Control) Kind() ControlKind { return c.kind }

// Controller returns the attached controller and whether the body is Controlled.
func (c Control) Controller() (Controller, bool) {
	return c.controller, c.kind == Controlled
}

// Body is a point mass with optional footprint and control capabilities.
type Body struct {
	State
	Extent  *Extent
	Control Control
}

// BodyOption customizes a Body at construction.
type BodyOption func(*Body)

// WithForce sets the initial force.
func WithForce(f PolarForce) BodyOption { return func(b *Body) { b.Force = f } }

// WithVelocity sets the initial velocity.
func WithVelocity(v Vector2D) BodyOption { return func(b *Body) { b.Velocity = v } }

// WithExtent gives the body a rectangular footprint.
func WithExtent(xLength, yLength float64) BodyOption {
	return func(b *Body) { b.Extent = &Extent{XLength: xLength, YLength: yLength} }
}

// WithController attaches a control hook.
func WithController(c Controller) BodyOption { return func(b *Body) { b.Control = ControlledBy(c) } }

// NewBody creates an uncontrolled body at rest with a zero force.
func NewBody(mass float64, opts ...BodyOption) *Body {
	b := &Body{State: State{Mass: mass}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bounded returns the body's footprint as a Bounded, if it has one.
func (b *Body) Bounded() (Bounded, bool) {
	if b.Extent == nil {
		return nil, false
	}
	return *b.Extent, true
}

func (b *Body) String() string {
	return fmt.Sprintf("V: %s, F: %s, m: %g", b.Velocity, b.Force, b.Mass)
}
