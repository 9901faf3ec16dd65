package physics

import (
	"fmt"
	"math"
)

// Vector2D is a Cartesian pair used for positions and velocities.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec returns the vector (x, y).
func Vec(x, y float64) Vector2D { return Vector2D{X: x, Y: y} }

func (v Vector2D) Add(o Vector2D) Vector2D { return Vector2D{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vector2D) Scale(k float64) Vector2D { return Vector2D{X: v.X * k, Y: v.Y * k} }

// Equal compares components exactly, without tolerance.
func (v Vector2D) Equal(o Vector2D) bool { return v.X == o.X && v.Y == o.Y }

func (v Vector2D) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }

// PolarForce is a force given as a length and a heading in degrees.
// Heading 0 points along +Y, 90 along +X. The angle is never wrapped.
type PolarForce struct {
	Length float64 `json:"length"`
	Angle  float64 `json:"angle"`
}

// Polar returns a force of the given length and heading.
func Polar(length, angle float64) PolarForce { return PolarForce{Length: length, Angle: angle} }

func (f PolarForce) X() float64 { return math.Sin(radians(f.Angle)) * f.Length }

func (f PolarForce) Y() float64 { return math.Cos(radians(f.Angle)) * f.Length }

// Cartesian projects the force onto the X and Y axes.
func (f PolarForce) Cartesian() Vector2D { return Vector2D{X: f.X(), Y: f.Y()} }

// Turn adds degrees to the heading.
func (f *PolarForce) Turn(degrees float64) { f.Angle += degrees }

// SetLength replaces the length and keeps the heading.
func (f *PolarForce) SetLength(length float64) { f.Length = length }

// Offset returns the displacement of a point at the given length along the
// force heading rotated by delta degrees.
func (f PolarForce) Offset(delta, length float64) Vector2D {
	return PolarForce{Length: length, Angle: f.Angle + delta}.Cartesian()
}

// Equal compares the projected components exactly.
func (f PolarForce) Equal(o PolarForce) bool { return f.X() == o.X() && f.Y() == o.Y() }

func (f PolarForce) String() string { return fmt.Sprintf("(%g, %g)", f.X(), f.Y()) }

func radians(deg float64) float64 { return deg * math.Pi / 180 }
