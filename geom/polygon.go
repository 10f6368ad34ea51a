// Package geom is the anti-collision kernel's polygon engine: allocation,
// affine placement, radial/angular/asymmetric expansion, circle
// approximation and segment-intersection overlap testing.
//
// Every transform returns a freshly allocated Polygon; inputs are never
// mutated, which makes a Polygon safe to share read-only across goroutines
// once built (see spec §5, Shared resource policy).
package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const degToRad = math.Pi / 180

// Polygon is an ordered sequence of 2-D points with an optional implicit
// closing edge. Closed polygons carry an explicit trailing copy of the
// first point, so that the segment (Points[i], Points[i+1]) for
// i == len(Points)-2 closes the boundary without a special case anywhere
// downstream.
type Polygon struct {
	Points []mgl64.Vec2
	Closed bool
}

// New constructs a Polygon from two parallel coordinate slices. When close
// is true and the last point differs from the first, a copy of the first
// point is appended to close the boundary.
func New(xs, ys []float64, closed bool) (*Polygon, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("geom.New: len(xs)=%d len(ys)=%d: %w", len(xs), len(ys), ErrShapeMismatch)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("geom.New: no points: %w", ErrInvalidArgument)
	}
	if len(xs) > maxAllocPoints {
		return nil, fmt.Errorf("geom.New: %d points: %w", len(xs), ErrOutOfMemory)
	}
	points := make([]mgl64.Vec2, len(xs))
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			return nil, fmt.Errorf("geom.New: point %d: %w", i, ErrNumericDegenerate)
		}
		points[i] = mgl64.Vec2{xs[i], ys[i]}
	}
	if closed && len(points) > 0 && points[len(points)-1] != points[0] {
		points = append(points, points[0])
	}
	return &Polygon{Points: points, Closed: closed}, nil
}

// NewFromPoints builds a Polygon directly from points already in the
// phi-pivot or petal frame, applying the same closing rule as New.
func NewFromPoints(points []mgl64.Vec2, closed bool) (*Polygon, error) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X(), p.Y()
	}
	return New(xs, ys, closed)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clone returns a Polygon with its own backing array, same Closed flag.
func (p *Polygon) clone() *Polygon {
	out := make([]mgl64.Vec2, len(p.Points))
	copy(out, p.Points)
	return &Polygon{Points: out, Closed: p.Closed}
}

func (p *Polygon) transform(name string, f func(mgl64.Vec2) mgl64.Vec2) (*Polygon, error) {
	out := p.clone()
	for i, pt := range out.Points {
		np := f(pt)
		if !finite(np.X()) || !finite(np.Y()) {
			return nil, fmt.Errorf("geom.%s: point %d: %w", name, i, ErrNumericDegenerate)
		}
		out.Points[i] = np
	}
	return out, nil
}

// Rotated applies a 2-D rotation about the origin by phiDeg degrees.
func (p *Polygon) Rotated(phiDeg float64) (*Polygon, error) {
	rot := mgl64.Rotate2D(phiDeg * degToRad)
	return p.transform("Rotated", func(v mgl64.Vec2) mgl64.Vec2 {
		return rot.Mul2x1(v)
	})
}

// Translated adds (dx, dy) to every point.
func (p *Polygon) Translated(dx, dy float64) (*Polygon, error) {
	d := mgl64.Vec2{dx, dy}
	return p.transform("Translated", func(v mgl64.Vec2) mgl64.Vec2 {
		return v.Add(d)
	})
}

// ExpandedRadially moves each point by dR along the ray from the origin
// through that point. Negative dR contracts. A point exactly at the origin
// is an undefined input (spec §9, Open Questions): atan2(0,0) is 0, so such
// a point is moved to (dR,0) without any error. This behavior is documented
// here, not load-bearing.
func (p *Polygon) ExpandedRadially(dR float64) (*Polygon, error) {
	return p.transform("ExpandedRadially", func(v mgl64.Vec2) mgl64.Vec2 {
		theta := math.Atan2(v.Y(), v.X())
		return mgl64.Vec2{v.X() + dR*math.Cos(theta), v.Y() + dR*math.Sin(theta)}
	})
}

// ExpandedAngularly fans points out (or collapses them) symmetrically about
// the x-axis: points with theta > 0 rotate further positive by dAdeg,
// points with theta < 0 rotate further negative, and points on the axis
// are unchanged.
func (p *Polygon) ExpandedAngularly(dAdeg float64) (*Polygon, error) {
	dA := dAdeg * degToRad
	return p.transform("ExpandedAngularly", func(v mgl64.Vec2) mgl64.Vec2 {
		r := math.Hypot(v.X(), v.Y())
		theta := math.Atan2(v.Y(), v.X())
		switch {
		case theta > 0:
			theta += dA
		case theta < 0:
			theta -= dA
		}
		return mgl64.Vec2{r * math.Cos(theta), r * math.Sin(theta)}
	})
}

// ExpandedX adds right to x when x > 0, subtracts left when x < 0, and
// leaves x == 0 unchanged. y is untouched.
func (p *Polygon) ExpandedX(left, right float64) (*Polygon, error) {
	return p.transform("ExpandedX", func(v mgl64.Vec2) mgl64.Vec2 {
		x := v.X()
		switch {
		case x > 0:
			x += right
		case x < 0:
			x -= left
		}
		return mgl64.Vec2{x, v.Y()}
	})
}

// PlaceAsPhiArm places a polygon defined in the phi-pivot frame into petal
// coordinates: rotate by (theta+phi) degrees, then translate by
// (x0 + R1*cos(theta), y0 + R1*sin(theta)).
func (p *Polygon) PlaceAsPhiArm(theta, phi, x0, y0, r1 float64) (*Polygon, error) {
	rotated, err := p.Rotated(theta + phi)
	if err != nil {
		return nil, err
	}
	thetaRad := theta * degToRad
	return rotated.Translated(x0+r1*math.Cos(thetaRad), y0+r1*math.Sin(thetaRad))
}

// PlaceAsCentralBody places a polygon defined in the positioner-local frame
// into petal coordinates: rotate by theta, then translate by (x0, y0).
func (p *Polygon) PlaceAsCentralBody(theta, x0, y0 float64) (*Polygon, error) {
	rotated, err := p.Rotated(theta)
	if err != nil {
		return nil, err
	}
	return rotated.Translated(x0, y0)
}

// BoundingBox returns the axis-aligned bounding box of p. Panics on an
// empty polygon — callers never construct one (New requires at least one
// coordinate pair and rejects shape mismatches before this is reachable).
func (p *Polygon) BoundingBox() (minX, minY, maxX, maxY float64) {
	minX, minY = p.Points[0].X(), p.Points[0].Y()
	maxX, maxY = minX, minY
	for _, pt := range p.Points[1:] {
		minX = math.Min(minX, pt.X())
		maxX = math.Max(maxX, pt.X())
		minY = math.Min(minY, pt.Y())
		maxY = math.Max(maxY, pt.Y())
	}
	return
}

// CollidesWith first rejects on disjoint bounding boxes, then runs the
// segment-intersection overlap test over every pair of consecutive-vertex
// segments. It returns on the first intersecting pair.
func (p *Polygon) CollidesWith(other *Polygon) bool {
	aMinX, aMinY, aMaxX, aMaxY := p.BoundingBox()
	bMinX, bMinY, bMaxX, bMaxY := other.BoundingBox()
	if aMaxX < bMinX || bMaxX < aMinX || aMaxY < bMinY || bMaxY < aMinY {
		return false
	}

	for i := 0; i+1 < len(p.Points); i++ {
		for j := 0; j+1 < len(other.Points); j++ {
			if segmentsIntersect(p.Points[i], p.Points[i+1], other.Points[j], other.Points[j+1]) {
				return true
			}
		}
	}
	return false
}

// segmentsIntersect implements the 2-D segment intersection test of spec
// §4.1: parallel segments (det == 0) are treated as non-intersecting —
// tangent contact is not a collision.
func segmentsIntersect(a1, a2, b1, b2 mgl64.Vec2) bool {
	dA := a2.Sub(a1)
	dB := b2.Sub(b1)
	det := dB.X()*dA.Y() - dB.Y()*dA.X()
	if det == 0 {
		return false
	}
	s := (dA.X()*(b1.Y()-a1.Y()) + dA.Y()*(a1.X()-b1.X())) / det
	t := (dB.X()*(a1.Y()-b1.Y()) + dB.Y()*(b1.X()-a1.X())) / -det
	return s >= 0 && s <= 1 && t >= 0 && t <= 1
}

// CollidesWithCircle is a loose, cheap screen used only against circular
// "retracted" envelopes: it returns true iff any vertex of p lies strictly
// inside the disk of radius r centered at (cx, cy). Pure edge crossings
// that avoid every vertex are intentionally missed.
func (p *Polygon) CollidesWithCircle(cx, cy, r float64) bool {
	for _, v := range p.Points {
		if math.Hypot(v.X()-cx, v.Y()-cy) < r {
			return true
		}
	}
	return false
}

// CirclePolyPoints produces npts evenly spaced points approximating a
// circle of the given diameter. With outside == false, vertices lie on the
// circle (inscribed); with outside == true, every segment is tangent to
// the circle (circumscribed), using radius d/(2*cos(pi/n)) — half the
// central angle between consecutive points, per spec §9's resolution of
// the source's ambiguous half-angle formula.
func CirclePolyPoints(diameter float64, npts int, outside bool) (*Polygon, error) {
	if diameter <= 0 {
		return nil, fmt.Errorf("geom.CirclePolyPoints: diameter=%g: %w", diameter, ErrInvalidArgument)
	}
	if npts <= 2 {
		return nil, fmt.Errorf("geom.CirclePolyPoints: npts=%d: %w", npts, ErrInvalidArgument)
	}
	if npts > maxAllocPoints {
		return nil, fmt.Errorf("geom.CirclePolyPoints: npts=%d: %w", npts, ErrOutOfMemory)
	}

	radius := diameter / 2
	if outside {
		radius = diameter / (2 * math.Cos(math.Pi/float64(npts)))
	}

	points := make([]mgl64.Vec2, npts)
	for i := 0; i < npts; i++ {
		angle := 2 * math.Pi * float64(i) / float64(npts)
		points[i] = mgl64.Vec2{radius * math.Cos(angle), radius * math.Sin(angle)}
	}
	points = append(points, points[0])
	return &Polygon{Points: points, Closed: true}, nil
}
