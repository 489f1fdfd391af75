// Package orientation holds the quaternion and vector helpers used to carry
// vessel attitude across frame changes. Algebra is delegated to gonum.
package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a 3D vector in host world space.
type Vec = r3.Vec

// Up is the axis the host's global frame rotates about.
var Up = Vec{X: 0, Y: 1, Z: 0}

// degenerateEpsilon is the squared norm below which a quaternion or vector is
// treated as zero.
const degenerateEpsilon = 1e-12

// Quat is a rotation quaternion laid out the way the host stores it.
type Quat struct {
	X, Y, Z, W float64
}

// Identity returns the rotation that leaves every vector unchanged.
func Identity() Quat {
	return Quat{W: 1}
}

func (q Quat) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quat {
	return Quat{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

// Mul composes two rotations; the result applies o first, then q.
func (q Quat) Mul(o Quat) Quat {
	return fromNumber(quat.Mul(q.number(), o.number()))
}

// Conj returns the conjugate, which is the inverse for unit quaternions.
func (q Quat) Conj() Quat {
	return fromNumber(quat.Conj(q.number()))
}

// Norm returns the quaternion magnitude.
func (q Quat) Norm() float64 {
	return quat.Abs(q.number())
}

// Normalize scales q to unit length. A zero quaternion becomes the identity.
func (q Quat) Normalize() Quat {
	n := q.Norm()
	if n*n < degenerateEpsilon {
		return Identity()
	}
	return fromNumber(quat.Scale(1/n, q.number()))
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec) Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q.number(), p), quat.Conj(q.number()))
	return Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Angle returns the rotation angle of q in degrees, in [0, 180].
func (q Quat) Angle() float64 {
	u := q.Normalize()
	w := math.Min(1, math.Abs(u.W))
	return 2 * math.Acos(w) * 180 / math.Pi
}

// ApproxEqual reports whether q and o describe the same rotation within eps.
// q and -q are the same rotation.
func (q Quat) ApproxEqual(o Quat, eps float64) bool {
	d := q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
	return 1-math.Abs(d) <= eps
}

// AngleAxis builds a rotation of degrees about axis. A zero axis yields the
// identity.
func AngleAxis(degrees float64, axis Vec) Quat {
	if r3.Norm2(axis) < degenerateEpsilon {
		return Identity()
	}
	u := r3.Unit(axis)
	half := degrees * math.Pi / 360
	s := math.Sin(half)
	return Quat{X: u.X * s, Y: u.Y * s, Z: u.Z * s, W: math.Cos(half)}
}

// ShortestArc returns the minimum-angle rotation carrying from onto to.
// Inputs need not be normalized and may be arbitrarily small. When either
// vector is zero the identity is returned; when they are anti-parallel the
// result is a half turn about an axis perpendicular to from.
func ShortestArc(from, to Vec) Quat {
	if r3.Norm2(from) == 0 || r3.Norm2(to) == 0 {
		return Identity()
	}
	a, b := r3.Unit(from), r3.Unit(to)
	c := r3.Cross(a, b)
	q := Quat{X: c.X, Y: c.Y, Z: c.Z, W: r3.Dot(a, b) + 1}
	if q.X*q.X+q.Y*q.Y+q.Z*q.Z+q.W*q.W < degenerateEpsilon {
		axis := Perpendicular(a)
		return Quat{X: axis.X, Y: axis.Y, Z: axis.Z}
	}
	return q.Normalize()
}

// Perpendicular returns a unit vector orthogonal to v.
func Perpendicular(v Vec) Vec {
	// cross with the basis axis least aligned with v
	basis := Vec{X: 1}
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case ay <= ax && ay <= az:
		basis = Vec{Y: 1}
	case az <= ax && az <= ay:
		basis = Vec{Z: 1}
	}
	return r3.Unit(r3.Cross(v, basis))
}

// FrameShift returns the rotation of the global frame between two frame
// angle readings, stored and current, in degrees.
func FrameShift(stored, current float64) Quat {
	return AngleAxis(current-stored, Up)
}

// Direction returns the unit vector from "from" to "to", or the zero vector
// when the points coincide.
func Direction(from, to Vec) Vec {
	d := r3.Sub(to, from)
	if r3.Norm2(d) < degenerateEpsilon {
		return Vec{}
	}
	return r3.Unit(d)
}

// Magnitude is a shorthand for the vector norm.
func Magnitude(v Vec) float64 {
	return r3.Norm(v)
}
