package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPoly(t *testing.T, xs, ys []float64, closed bool) *Polygon {
	t.Helper()
	p, err := New(xs, ys, closed)
	require.NoError(t, err)
	return p
}

func TestNew_ShapeMismatch(t *testing.T) {
	_, err := New([]float64{0, 1}, []float64{0, 1, 2}, true)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNew_ClosesPolygon(t *testing.T) {
	p := mustPoly(t, []float64{0, 1, 1}, []float64{0, 0, 1}, true)
	require.Len(t, p.Points, 4)
	assert.Equal(t, p.Points[0], p.Points[3])
}

func TestNew_AlreadyClosedNotDuplicated(t *testing.T) {
	p := mustPoly(t, []float64{0, 1, 1, 0}, []float64{0, 0, 1, 0}, true)
	assert.Len(t, p.Points, 4)
}

// Scenario 1 — triangle self-overlap (spec §8).
func TestScenario1_TriangleSelfOverlap(t *testing.T) {
	tri := mustPoly(t, []float64{0, 1, 1}, []float64{0, 0, 1}, true)

	assert.True(t, tri.CollidesWith(tri))

	shifted, err := tri.Translated(0.5, 0)
	require.NoError(t, err)
	assert.True(t, tri.CollidesWith(shifted))

	far, err := tri.Translated(10, 0)
	require.NoError(t, err)
	assert.False(t, tri.CollidesWith(far))

	shiftedRotated, err := shifted.Rotated(30)
	require.NoError(t, err)
	assert.True(t, tri.CollidesWith(shiftedRotated))
}

// Scenario 2 — disjoint polylines.
func TestScenario2_DisjointPolylines(t *testing.T) {
	tri := mustPoly(t, []float64{0, 1, 1}, []float64{0, 0, 1}, true)

	xs := make([]float64, 10)
	ys := make([]float64, 10)
	for i := 0; i < 10; i++ {
		xs[i] = float64(i)
		ys[i] = float64(i + 10)
	}
	a := mustPoly(t, xs, ys, false)
	assert.False(t, a.CollidesWith(tri))

	// Rotating (i, i+10) by 45 degrees puts every point on x = -10/sqrt(2),
	// outside the original polyline's x-range [0,9]: the bounding boxes are
	// disjoint, so the rotated copy does not collide with the original.
	rotated, err := a.Rotated(45)
	require.NoError(t, err)
	assert.False(t, a.CollidesWith(rotated))
}

// Scenario 3 — placement identity.
func TestScenario3_PlacementIdentity(t *testing.T) {
	tri := mustPoly(t, []float64{0, 1, 1}, []float64{0, 0, 1}, true)

	const theta, phi, x0, y0, r1 = 20.0, -100.0, 10.0, -4.0, 3.0

	manual, err := tri.Rotated(phi)
	require.NoError(t, err)
	manual, err = manual.Translated(r1, 0)
	require.NoError(t, err)
	manual, err = manual.Rotated(theta)
	require.NoError(t, err)
	manual, err = manual.Translated(x0, y0)
	require.NoError(t, err)

	placed, err := tri.PlaceAsPhiArm(theta, phi, x0, y0, r1)
	require.NoError(t, err)

	require.Len(t, placed.Points, len(manual.Points))
	for i := range placed.Points {
		assert.InDelta(t, manual.Points[i].X(), placed.Points[i].X(), 1e-9)
		assert.InDelta(t, manual.Points[i].Y(), placed.Points[i].Y(), 1e-9)
	}
}

// Invariant 1 — rotation preserves vertex count and |signed area|.
func TestInvariant_RotationPreservesAreaAndCount(t *testing.T) {
	square := mustPoly(t, []float64{0, 2, 2, 0}, []float64{0, 0, 2, 2}, true)
	rotated, err := square.Rotated(37)
	require.NoError(t, err)

	assert.Equal(t, len(square.Points), len(rotated.Points))
	assert.InDelta(t, math.Abs(signedArea(square)), math.Abs(signedArea(rotated)), 1e-9)
}

func signedArea(p *Polygon) float64 {
	var sum float64
	for i := 0; i+1 < len(p.Points); i++ {
		a, b := p.Points[i], p.Points[i+1]
		sum += a.X()*b.Y() - b.X()*a.Y()
	}
	return sum / 2
}

// Invariant 2 — translation is additive.
func TestInvariant_TranslationAdditive(t *testing.T) {
	tri := mustPoly(t, []float64{0, 1, 1}, []float64{0, 0, 1}, true)

	step, err := tri.Translated(1, 2)
	require.NoError(t, err)
	step, err = step.Translated(3, -4)
	require.NoError(t, err)

	direct, err := tri.Translated(4, -2)
	require.NoError(t, err)

	for i := range direct.Points {
		assert.Equal(t, direct.Points[i], step.Points[i])
	}
}

// Invariant 3 — rotation is additive.
func TestInvariant_RotationAdditive(t *testing.T) {
	tri := mustPoly(t, []float64{0, 1, 1}, []float64{0, 0, 1}, true)

	step, err := tri.Rotated(10)
	require.NoError(t, err)
	step, err = step.Rotated(20)
	require.NoError(t, err)

	direct, err := tri.Rotated(30)
	require.NoError(t, err)

	for i := range direct.Points {
		assert.InDelta(t, direct.Points[i].X(), step.Points[i].X(), 1e-9)
		assert.InDelta(t, direct.Points[i].Y(), step.Points[i].Y(), 1e-9)
	}
}

// Round-trip laws.
func TestRoundTrip_TranslationInverse(t *testing.T) {
	tri := mustPoly(t, []float64{0, 1, 1}, []float64{0, 0, 1}, true)
	out, err := tri.Translated(5, -3)
	require.NoError(t, err)
	out, err = out.Translated(-5, 3)
	require.NoError(t, err)
	for i := range tri.Points {
		assert.InDelta(t, tri.Points[i].X(), out.Points[i].X(), 1e-9)
		assert.InDelta(t, tri.Points[i].Y(), out.Points[i].Y(), 1e-9)
	}
}

func TestRoundTrip_RotationInverse(t *testing.T) {
	tri := mustPoly(t, []float64{0, 1, 1}, []float64{0, 0, 1}, true)
	out, err := tri.Rotated(63)
	require.NoError(t, err)
	out, err = out.Rotated(-63)
	require.NoError(t, err)
	for i := range tri.Points {
		assert.InDelta(t, tri.Points[i].X(), out.Points[i].X(), 1e-9)
		assert.InDelta(t, tri.Points[i].Y(), out.Points[i].Y(), 1e-9)
	}
}

func TestRoundTrip_RadialExpansionInverse(t *testing.T) {
	poly := mustPoly(t, []float64{3, 0, -3}, []float64{4, 5, -4}, false)
	out, err := poly.ExpandedRadially(2)
	require.NoError(t, err)
	out, err = out.ExpandedRadially(-2)
	require.NoError(t, err)
	for i := range poly.Points {
		assert.InDelta(t, poly.Points[i].X(), out.Points[i].X(), 1e-9)
		assert.InDelta(t, poly.Points[i].Y(), out.Points[i].Y(), 1e-9)
	}
}

// Invariant 6 — bounding-box rejection is sound.
func TestInvariant_BoundingBoxRejectionSound(t *testing.T) {
	a := mustPoly(t, []float64{0, 1, 1, 0}, []float64{0, 0, 1, 1}, true)
	b := mustPoly(t, []float64{10, 11, 11, 10}, []float64{10, 10, 11, 11}, true)
	assert.False(t, a.CollidesWith(b))
}

// Invariant 7 — circle approximation radius bound.
func TestInvariant_CircleApproximationRadius(t *testing.T) {
	const d = 10.0
	const n = 16

	inscribed, err := CirclePolyPoints(d, n, false)
	require.NoError(t, err)
	for _, v := range inscribed.Points {
		assert.InDelta(t, d/2, math.Hypot(v.X(), v.Y()), 1e-9)
	}

	circumscribed, err := CirclePolyPoints(d, n, true)
	require.NoError(t, err)
	expectedTangentRadius := d / 2
	for i := 0; i+1 < len(circumscribed.Points); i++ {
		mid := circumscribed.Points[i].Add(circumscribed.Points[i+1]).Mul(0.5)
		assert.InDelta(t, expectedTangentRadius, math.Hypot(mid.X(), mid.Y()), 1e-9)
	}
}

func TestCirclePolyPoints_InvalidArgument(t *testing.T) {
	_, err := CirclePolyPoints(0, 8, false)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = CirclePolyPoints(5, 2, false)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExpandedX(t *testing.T) {
	p := mustPoly(t, []float64{-2, 0, 3}, []float64{1, 1, 1}, false)
	out, err := p.ExpandedX(1, 2)
	require.NoError(t, err)
	assert.InDelta(t, -3, out.Points[0].X(), 1e-9)
	assert.InDelta(t, 0, out.Points[1].X(), 1e-9)
	assert.InDelta(t, 5, out.Points[2].X(), 1e-9)
}

func TestCollidesWithCircle(t *testing.T) {
	p := mustPoly(t, []float64{0, 1}, []float64{0, 0}, false)
	assert.True(t, p.CollidesWithCircle(0.5, 0, 1))
	assert.False(t, p.CollidesWithCircle(10, 10, 1))
}

func TestSegmentsIntersect_Parallel(t *testing.T) {
	a1, a2 := mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}
	b1, b2 := mgl64.Vec2{0, 1}, mgl64.Vec2{1, 1}
	assert.False(t, segmentsIntersect(a1, a2, b1, b2))
}
