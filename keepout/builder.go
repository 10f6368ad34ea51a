// Package keepout translates raw configured polygon point lists and scalar
// parameters into the per-positioner placed keepouts and circular clear
// rotation envelopes consumed by the collision classifier (spec §4.2,
// component B).
package keepout

import (
	"fmt"
	"math"

	"github.com/fiberassign/petalcollide/geom"
)

// LoadFixed rotates the two raw fixed-envelope polygons by petalRot degrees
// and translates them by (petalX0, petalY0), producing the petal-frame
// keepout_PTL and keepout_GFA polygons plus the fixed-case lookup map used
// by the classifier's fixed-envelope variant.
func LoadFixed(ptlRaw, gfaRaw *geom.Polygon, petalX0, petalY0, petalRot float64) (ptl, gfa *geom.Polygon, fixedCases map[string]*geom.Polygon, err error) {
	ptl, err = placeFixed(ptlRaw, petalX0, petalY0, petalRot)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("keepout.LoadFixed: PTL: %w", err)
	}
	gfa, err = placeFixed(gfaRaw, petalX0, petalY0, petalRot)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("keepout.LoadFixed: GFA: %w", err)
	}
	fixedCases = map[string]*geom.Polygon{
		"PTL": ptl,
		"GFA": gfa,
	}
	return ptl, gfa, fixedCases, nil
}

func placeFixed(raw *geom.Polygon, x0, y0, rotDeg float64) (*geom.Polygon, error) {
	rotated, err := raw.Rotated(rotDeg)
	if err != nil {
		return nil, err
	}
	return rotated.Translated(x0, y0)
}

// PerPositionerParams carries the per-positioner scalars consumed by
// BuildPerPositioner (spec §4.2).
type PerPositionerParams struct {
	DRPhi, DAPhi     float64 // keepout expansion for the phi arm (radial mm, angular deg)
	DRTheta, DATheta float64 // keepout expansion for the central body
	R1, R2           float64 // this positioner's calibrated arm lengths
	R1Nominal        float64
	R2Nominal        float64
}

// BuildPerPositioner applies the fixed-order transform sequence of spec
// §4.2 to the general (nominal) phi-arm and theta-body keepout polygons,
// producing this positioner's P[p] and T[p] in the phi-pivot / theta-local
// frame. The order is load-bearing: radial expansion, then angular
// expansion, then the R1 error translation, then the asymmetric x
// expansion that accounts for R2 error. R2 error is clamped to
// non-negative since the true mechanical shape cannot be safely
// contracted.
func BuildPerPositioner(generalPhiRaw, generalThetaRaw *geom.Polygon, params PerPositionerParams) (phiArm, centralBody *geom.Polygon, err error) {
	r1Err := params.R1 - params.R1Nominal
	r2Err := params.R2 - params.R2Nominal
	if r2Err < 0 {
		r2Err = 0
	}

	phiArm, err = generalPhiRaw.ExpandedRadially(params.DRPhi)
	if err != nil {
		return nil, nil, fmt.Errorf("keepout.BuildPerPositioner: phi radial: %w", err)
	}
	phiArm, err = phiArm.ExpandedAngularly(params.DAPhi)
	if err != nil {
		return nil, nil, fmt.Errorf("keepout.BuildPerPositioner: phi angular: %w", err)
	}
	phiArm, err = phiArm.Translated(r1Err, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("keepout.BuildPerPositioner: phi R1 translate: %w", err)
	}
	phiArm, err = phiArm.ExpandedX(r1Err, r2Err)
	if err != nil {
		return nil, nil, fmt.Errorf("keepout.BuildPerPositioner: phi x expand: %w", err)
	}

	centralBody, err = generalThetaRaw.ExpandedRadially(params.DRTheta)
	if err != nil {
		return nil, nil, fmt.Errorf("keepout.BuildPerPositioner: theta radial: %w", err)
	}
	centralBody, err = centralBody.ExpandedAngularly(params.DATheta)
	if err != nil {
		return nil, nil, fmt.Errorf("keepout.BuildPerPositioner: theta angular: %w", err)
	}
	return phiArm, centralBody, nil
}

// Circles are the three nested clear-rotation-envelope polygons plus the
// retracted envelope widened by a margin, all built as circumscribed
// (tangent) circle approximations per spec §4.1/§4.2.
type Circles struct {
	Eo           *geom.Polygon
	Ei           *geom.Polygon
	Ee           *geom.Polygon
	EoWithMargin *geom.Polygon
}

// BuildCircles constructs the Eo/Ei/Ee clear-rotation-envelope polygons at
// the given diameters and resolutions, plus an Eo polygon widened by
// 2*margin used against positioners flagged as classified_as_retracted.
func BuildCircles(eoDiam, eiDiam, eeDiam float64, resEo, resEi, resEe int, margin float64) (*Circles, error) {
	eo, err := geom.CirclePolyPoints(eoDiam, resEo, true)
	if err != nil {
		return nil, fmt.Errorf("keepout.BuildCircles: Eo: %w", err)
	}
	ei, err := geom.CirclePolyPoints(eiDiam, resEi, true)
	if err != nil {
		return nil, fmt.Errorf("keepout.BuildCircles: Ei: %w", err)
	}
	ee, err := geom.CirclePolyPoints(eeDiam, resEe, true)
	if err != nil {
		return nil, fmt.Errorf("keepout.BuildCircles: Ee: %w", err)
	}
	eoMargin, err := geom.CirclePolyPoints(eoDiam+2*margin, resEo, true)
	if err != nil {
		return nil, fmt.Errorf("keepout.BuildCircles: Eo+margin: %w", err)
	}
	return &Circles{Eo: eo, Ei: ei, Ee: ee, EoWithMargin: eoMargin}, nil
}

// BuildArcP produces the polygon representing the phi arm swept through
// its full mechanical range, for use when phi is unpredictable (spec
// §4.2). phiArm is this positioner's already-built P[p]. toPoslocTP
// converts the center of the internal-TP full-range interval into the
// poslocTP frame — the one coupling the keepout builder must take as a
// callback rather than importing the positioner model directly (spec §9).
func BuildArcP(phiArm *geom.Polygon, rangePhiMin, rangePhiMax float64, nArc int, r1 float64, toPoslocTP func(internalTPCenter float64) float64) (*geom.Polygon, error) {
	angularRange := rangePhiMax - rangePhiMin

	expanded, err := phiArm.ExpandedAngularly(angularRange / 2)
	if err != nil {
		return nil, fmt.Errorf("keepout.BuildArcP: angular expand: %w", err)
	}

	tipIdx, tipR, err := findTipVertex(phiArm)
	if err != nil {
		return nil, fmt.Errorf("keepout.BuildArcP: %w", err)
	}

	arc := make([]struct{ x, y float64 }, nArc+1)
	for i := 0; i <= nArc; i++ {
		frac := float64(i)/float64(nArc) - 0.5
		angle := frac * angularRange * degToRadArc
		arc[i] = struct{ x, y float64 }{tipR * math.Cos(angle), tipR * math.Sin(angle)}
	}

	points := make([][2]float64, 0, len(expanded.Points)-1+len(arc))
	for i, p := range expanded.Points {
		if i == tipIdx {
			for _, a := range arc {
				points = append(points, [2]float64{a.x, a.y})
			}
			continue
		}
		points = append(points, [2]float64{p.X(), p.Y()})
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p[0], p[1]
	}
	composite, err := geom.New(xs, ys, true)
	if err != nil {
		return nil, fmt.Errorf("keepout.BuildArcP: assemble: %w", err)
	}

	center := toPoslocTP(rangePhiMin + angularRange/2)
	rotated, err := composite.Rotated(center)
	if err != nil {
		return nil, fmt.Errorf("keepout.BuildArcP: rotate: %w", err)
	}
	return rotated.Translated(r1, 0)
}

const degToRadArc = math.Pi / 180

// findTipVertex locates the phi-arm's nominal-axis tip: the vertex on the
// positive x-axis (y == 0), and its radial distance from the origin.
func findTipVertex(p *geom.Polygon) (idx int, r float64, err error) {
	const eps = 1e-6
	for i, v := range p.Points {
		if v.X() > 0 && math.Abs(v.Y()) < eps {
			return i, math.Hypot(v.X(), v.Y()), nil
		}
	}
	return 0, 0, ErrTipVertexNotFound
}
