package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}

func TestShortestArc_SameVectorIsIdentity(t *testing.T) {
	for _, v := range []Vec{
		{X: 1},
		{X: 3, Y: -4, Z: 12},
		{X: 1e-3, Y: 2e-3, Z: -1e-3},
		{X: -1000, Y: 0.5, Z: 7},
	} {
		q := ShortestArc(v, v)
		assert.True(t, q.ApproxEqual(Identity(), eps), "v=%v q=%+v", v, q)
	}
}

func TestShortestArc_MapsFromOntoTo(t *testing.T) {
	tests := []struct {
		name     string
		from, to Vec
	}{
		{"axes", Vec{X: 1}, Vec{Y: 1}},
		{"unnormalized", Vec{X: 10}, Vec{Y: 0.5, Z: 0.5}},
		{"small angle", Vec{X: 1, Y: 0.0001}, Vec{X: 1, Y: 0.0002}},
		{"obtuse", Vec{X: 1, Y: 1}, Vec{X: -1, Y: 0.1, Z: -0.3}},
		{"nearly opposite", Vec{X: 1}, Vec{X: -1, Y: 1e-4}},
		{"tiny", Vec{X: 1e-4}, Vec{Y: 1e-4}},
		{"tiny and large", Vec{X: 1e-9, Z: 1e-9}, Vec{Y: 1e6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ShortestArc(tt.from, tt.to)
			assert.InDelta(t, 1.0, q.Norm(), 1e-12)
			assertVec(t, r3.Unit(tt.to), q.Rotate(r3.Unit(tt.from)))
		})
	}
}

func TestShortestArc_IsMinimumAngle(t *testing.T) {
	from := Vec{X: 1}
	to := Vec{X: 1, Y: 1}
	q := ShortestArc(from, to)
	assert.InDelta(t, 45.0, q.Angle(), 1e-9)
}

func TestShortestArc_AntiParallel(t *testing.T) {
	from := Vec{X: 2, Y: 1, Z: -1}
	to := r3.Scale(-3, from)

	q := ShortestArc(from, to)

	assert.InDelta(t, 0.0, q.W, 1e-12)
	assert.InDelta(t, 1.0, q.Norm(), 1e-12)
	assert.InDelta(t, 0.0, r3.Dot(Vec{X: q.X, Y: q.Y, Z: q.Z}, from), 1e-12)
	assertVec(t, r3.Unit(to), q.Rotate(r3.Unit(from)))
}

func TestShortestArc_ZeroVector(t *testing.T) {
	assert.Equal(t, Identity(), ShortestArc(Vec{}, Vec{X: 1}))
	assert.Equal(t, Identity(), ShortestArc(Vec{Y: 1}, Vec{}))
}

func TestAngleAxis(t *testing.T) {
	q := AngleAxis(90, Vec{Z: 2})
	assertVec(t, Vec{Y: 1}, q.Rotate(Vec{X: 1}))
	assert.InDelta(t, 90.0, q.Angle(), 1e-9)

	assert.Equal(t, Identity(), AngleAxis(45, Vec{}))
}

func TestMul_ComposesRightToLeft(t *testing.T) {
	a := AngleAxis(90, Vec{Z: 1})
	b := AngleAxis(90, Vec{X: 1})
	v := Vec{Y: 1}

	assertVec(t, a.Rotate(b.Rotate(v)), a.Mul(b).Rotate(v))
}

func TestConjInverts(t *testing.T) {
	q := AngleAxis(33, Vec{X: 1, Y: 2, Z: 3})
	assert.True(t, q.Mul(q.Conj()).ApproxEqual(Identity(), eps))
}

func TestNormalize_Zero(t *testing.T) {
	assert.Equal(t, Identity(), Quat{}.Normalize())
	n := Quat{X: 0, Y: 0, Z: 0, W: 4}.Normalize()
	assert.Equal(t, Identity(), n)
}

func TestApproxEqual_DoubleCover(t *testing.T) {
	q := AngleAxis(70, Vec{X: 1, Y: -1})
	neg := Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	assert.True(t, q.ApproxEqual(neg, eps))
	assert.False(t, q.ApproxEqual(Identity(), eps))
}

func TestFrameShift(t *testing.T) {
	q := FrameShift(10, 100)
	assertVec(t, Vec{Z: -1}, q.Rotate(Vec{X: 1}))
	assert.True(t, FrameShift(42, 42).ApproxEqual(Identity(), eps))
}

func TestPerpendicular(t *testing.T) {
	for _, v := range []Vec{{X: 1}, {Y: 1}, {Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -5, Y: 0.1, Z: 2}} {
		p := Perpendicular(v)
		assert.InDelta(t, 1.0, r3.Norm(p), 1e-12)
		assert.InDelta(t, 0.0, r3.Dot(p, v), 1e-12)
	}
}

func TestDirection(t *testing.T) {
	assertVec(t, Vec{X: 0.6, Y: 0.8}, Direction(Vec{X: 1, Y: 1}, Vec{X: 4, Y: 5}))
	assert.Equal(t, Vec{}, Direction(Vec{X: 1}, Vec{X: 1}))
	assert.InDelta(t, 5.0, Magnitude(Vec{X: 3, Y: 4}), 1e-12)
	assert.False(t, math.IsNaN(Direction(Vec{}, Vec{}).X))
}
