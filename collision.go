package petalcollide

import (
	"fmt"

	"github.com/fiberassign/petalcollide/geom"
)

func placePhiArm(p *Positioner, pose Pose) (*geom.Polygon, error) {
	return p.PhiArm.PlaceAsPhiArm(pose[0], pose[1], p.Calibration.X0, p.Calibration.Y0, p.Calibration.R1)
}

func placeCentralBody(p *Positioner, theta float64) (*geom.Polygon, error) {
	return p.CentralBody.PlaceAsCentralBody(theta, p.Calibration.X0, p.Calibration.Y0)
}

// placePhiArc places a positioner's full-phi-range swept polygon. arcP
// already has the phi range baked in by keepout.BuildArcP, so only the
// theta rotation and the positioner's (x0,y0) offset remain — the same
// placement law as a central body, not a phi arm.
func placePhiArc(p *Positioner, theta float64) (*geom.Polygon, error) {
	if p.ArcP == nil {
		return nil, fmt.Errorf("petalcollide: placePhiArc(%s): no arcP built", p.PosID)
	}
	return p.ArcP.PlaceAsCentralBody(theta, p.Calibration.X0, p.Calibration.Y0)
}

// circleRadius recovers the radius of a circle polygon built by
// geom.CirclePolyPoints and centered at the origin.
func circleRadius(circle *geom.Polygon) float64 {
	v := circle.Points[0]
	return v.Len()
}

// ClassifyPair implements the §4.5 decision table for two positioners A, B
// posed at poseA, poseB in the poslocTP frame. Only the case is returned;
// the caller (the spacetime driver) already knows both posids and fills in
// collision_neighbor itself.
func ClassifyPair(phiEo, phiEi float64, a, b *Positioner, poseA, poseB Pose) (CollisionCase, error) {
	aWithinEo := poseA[1] >= phiEo || a.ClassifiedAsRetracted
	bWithinEo := poseB[1] >= phiEo || b.ClassifiedAsRetracted

	switch {
	case aWithinEo && bWithinEo:
		return CaseI, nil

	case !aWithinEo && b.ClassifiedAsRetracted:
		armA, err := placePhiArm(a, poseA)
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		if armA.CollidesWithCircle(b.Calibration.X0, b.Calibration.Y0, circleRadius(b.EoWithMargin)) {
			return CaseIV, nil
		}
		return CaseI, nil

	case !bWithinEo && a.ClassifiedAsRetracted:
		armB, err := placePhiArm(b, poseB)
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		if armB.CollidesWithCircle(a.Calibration.X0, a.Calibration.Y0, circleRadius(a.EoWithMargin)) {
			return CaseIV, nil
		}
		return CaseI, nil

	case poseA[1] < phiEo && poseB[1] >= phiEi:
		armA, err := placePhiArm(a, poseA)
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		bodyB, err := placeCentralBody(b, poseB[0])
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		if armA.CollidesWith(bodyB) {
			return CaseIII, nil
		}
		return CaseI, nil

	case poseB[1] < phiEo && poseA[1] >= phiEi:
		armB, err := placePhiArm(b, poseB)
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		bodyA, err := placeCentralBody(a, poseA[0])
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		if armB.CollidesWith(bodyA) {
			return CaseIII, nil
		}
		return CaseI, nil

	default:
		armA, err := placePhiArm(a, poseA)
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		armB, err := placePhiArm(b, poseB)
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		bodyA, err := placeCentralBody(a, poseA[0])
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		bodyB, err := placeCentralBody(b, poseB[0])
		if err != nil {
			return CaseI, fmt.Errorf("petalcollide: ClassifyPair: %w", err)
		}
		switch {
		case armA.CollidesWith(bodyB):
			return CaseIII, nil
		case armB.CollidesWith(bodyA):
			return CaseIII, nil
		case armA.CollidesWith(armB):
			return CaseII, nil
		default:
			return CaseI, nil
		}
	}
}

// ClassifyFixed is the fixed-envelope variant of §4.5: test positioner A
// against every fixed envelope it can reach (a.FixedCases()), in order,
// returning the first hit. useArc selects place_phi_arc over place_phi_arm.
func ClassifyFixed(a *Positioner, poseA Pose, fixedPolys map[string]*geom.Polygon, useArc bool) (hit bool, fixedCase CollisionCase, err error) {
	var armPoly *geom.Polygon
	if useArc {
		armPoly, err = placePhiArc(a, poseA[0])
	} else {
		armPoly, err = placePhiArm(a, poseA)
	}
	if err != nil {
		return false, CaseI, fmt.Errorf("petalcollide: ClassifyFixed(%s): %w", a.PosID, err)
	}

	for _, name := range a.FixedCases() {
		poly, ok := fixedPolys[name]
		if !ok {
			continue
		}
		if armPoly.CollidesWith(poly) {
			return true, CollisionCase(name), nil
		}
	}
	return false, CaseI, nil
}

// ClassifyPhiRange implements §4.5's full-range phi variant: whether it is
// safe to unretract A's phi arm at thetaA without knowing B's exact phi,
// by testing A's full-range arc against B's central body, B's full-range
// arc if it has one, and B's retracted circle if B is classified_as_retracted.
func ClassifyPhiRange(a *Positioner, thetaA float64, b *Positioner, thetaB float64) (bool, error) {
	arcA, err := placePhiArc(a, thetaA)
	if err != nil {
		return false, fmt.Errorf("petalcollide: ClassifyPhiRange: %w", err)
	}

	bodyB, err := placeCentralBody(b, thetaB)
	if err != nil {
		return false, fmt.Errorf("petalcollide: ClassifyPhiRange: %w", err)
	}
	if arcA.CollidesWith(bodyB) {
		return true, nil
	}

	if b.ArcP != nil {
		arcB, err := placePhiArc(b, thetaB)
		if err != nil {
			return false, fmt.Errorf("petalcollide: ClassifyPhiRange: %w", err)
		}
		if arcA.CollidesWith(arcB) {
			return true, nil
		}
	}

	if b.ClassifiedAsRetracted {
		if arcA.CollidesWithCircle(b.Calibration.X0, b.Calibration.Y0, circleRadius(b.EoWithMargin)) {
			return true, nil
		}
	}
	return false, nil
}

// ClassifyPhiRangeFixed tests A's full-range arc against a single fixed
// envelope, for the same "safe to unretract" question against PTL/GFA.
func ClassifyPhiRangeFixed(a *Positioner, thetaA float64, fixed *geom.Polygon) (bool, error) {
	arcA, err := placePhiArc(a, thetaA)
	if err != nil {
		return false, fmt.Errorf("petalcollide: ClassifyPhiRangeFixed: %w", err)
	}
	return arcA.CollidesWith(fixed), nil
}
