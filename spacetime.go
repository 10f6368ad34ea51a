package petalcollide

import (
	"fmt"
	"math"

	"github.com/fiberassign/petalcollide/geom"
	"github.com/google/uuid"
)

// Driver walks one or two sweeps in lockstep, invoking the spatial
// classifier at each quantized step (spec §4.6, component F). A Driver
// holds no per-run mutable state; RunPair/RunFixed are safe to call
// concurrently on the same Driver for independent positioner pairs.
type Driver struct {
	PhiEo, PhiEi float64
	Log          Logger
}

// NewDriver constructs a Driver with the classifier's global phi
// thresholds. A nil logger is replaced with a no-op logger.
func NewDriver(phiEo, phiEi float64, logger Logger) *Driver {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Driver{PhiEo: phiEo, PhiEi: phiEi, Log: logger}
}

// RunSummary reports the outcome of one driver call, stamped with a
// correlation id for log/trace association across the two participants'
// sweeps.
type RunSummary struct {
	RunID     uuid.UUID
	Collided  bool
	Case      CollisionCase
	Time      float64
	Neighbor  string
}

type participant struct {
	id             string
	sweep          *Sweep
	stepsRemaining int
	step           int
}

func newParticipant(id string, sweep *Sweep) *participant {
	return &participant{id: id, sweep: sweep, stepsRemaining: len(sweep.Time), step: 0}
}

func (pt *participant) advance() {
	if pt.stepsRemaining == 0 {
		return
	}
	pt.stepsRemaining--
	if pt.stepsRemaining > 0 {
		pt.step++
	}
}

func anyRemaining(pts ...*participant) bool {
	for _, p := range pts {
		if p.stepsRemaining > 0 {
			return true
		}
	}
	return false
}

// RunPair builds the exact then quantized sweeps for two positioners from
// their initial poses and move tables, then walks them in lockstep,
// recording the first collision on both sweeps (spec §4.6, mode=2). skip
// suppresses collision checks for step indices below it; step 0 is always
// skipped regardless, since was_moving(0) is false by construction.
func (d *Driver) RunPair(
	posidA string, a *Positioner, initPoseA Pose, tableA MoveTable,
	posidB string, b *Positioner, initPoseB Pose, tableB MoveTable,
	dt float64, skip int,
) (*Sweep, *Sweep, RunSummary, error) {
	runID := uuid.New()

	sweepA := NewSweep(posidA)
	if err := sweepA.FillExact(initPoseA, tableA, 0); err != nil {
		return nil, nil, RunSummary{}, fmt.Errorf("petalcollide: RunPair: %w", err)
	}
	if err := sweepA.Quantize(dt); err != nil {
		return nil, nil, RunSummary{}, fmt.Errorf("petalcollide: RunPair: %w", err)
	}

	sweepB := NewSweep(posidB)
	if err := sweepB.FillExact(initPoseB, tableB, 0); err != nil {
		return nil, nil, RunSummary{}, fmt.Errorf("petalcollide: RunPair: %w", err)
	}
	if err := sweepB.Quantize(dt); err != nil {
		return nil, nil, RunSummary{}, fmt.Errorf("petalcollide: RunPair: %w", err)
	}

	pa := newParticipant(posidA, sweepA)
	pb := newParticipant(posidB, sweepB)

	summary := RunSummary{RunID: runID, Case: CaseI}

	for anyRemaining(pa, pb) {
		checkThisLoop := (pa.sweep.WasMoving(pa.step) && pa.step >= skip) ||
			(pb.sweep.WasMoving(pb.step) && pb.step >= skip)

		if checkThisLoop {
			poseA := pa.sweep.TP[pa.step]
			poseB := pb.sweep.TP[pb.step]
			c, err := ClassifyPair(d.PhiEo, d.PhiEi, a, b, poseA, poseB)
			if err != nil {
				return nil, nil, RunSummary{}, fmt.Errorf("petalcollide: RunPair: %w", err)
			}
			if c != CaseI {
				t := math.Max(pa.sweep.Time[pa.step], pb.sweep.Time[pb.step])
				sweepA.recordCollision(c, posidB, t, pa.step)
				sweepB.recordCollision(c, posidA, t, pb.step)
				d.Log.Infof("run %s: collision case %s between %s and %s at t=%g", runID, c, posidA, posidB, t)

				summary.Collided = true
				summary.Case = c
				summary.Time = t
				summary.Neighbor = posidB
				pa.stepsRemaining = 0
				pb.stepsRemaining = 0
				break
			}
		}

		pa.advance()
		pb.advance()
	}

	return sweepA, sweepB, summary, nil
}

// RunFixed is the single-positioner mode of spec §4.6 (mode=1): it walks
// one sweep, testing each moving step against A's fixed envelopes via
// ClassifyFixed.
func (d *Driver) RunFixed(
	posidA string, a *Positioner, initPoseA Pose, tableA MoveTable, dt float64, skip int,
	fixedPolys map[string]*geom.Polygon, useArc bool,
) (*Sweep, RunSummary, error) {
	runID := uuid.New()

	sweepA := NewSweep(posidA)
	if err := sweepA.FillExact(initPoseA, tableA, 0); err != nil {
		return nil, RunSummary{}, fmt.Errorf("petalcollide: RunFixed: %w", err)
	}
	if err := sweepA.Quantize(dt); err != nil {
		return nil, RunSummary{}, fmt.Errorf("petalcollide: RunFixed: %w", err)
	}

	pa := newParticipant(posidA, sweepA)
	summary := RunSummary{RunID: runID, Case: CaseI}

	for anyRemaining(pa) {
		if pa.sweep.WasMoving(pa.step) && pa.step >= skip {
			hit, fixedCase, err := ClassifyFixed(a, pa.sweep.TP[pa.step], fixedPolys, useArc)
			if err != nil {
				return nil, RunSummary{}, fmt.Errorf("petalcollide: RunFixed: %w", err)
			}
			if hit {
				t := pa.sweep.Time[pa.step]
				sweepA.recordCollision(fixedCase, string(fixedCase), t, pa.step)
				d.Log.Infof("run %s: collision case %s between %s and %s at t=%g", runID, fixedCase, posidA, fixedCase, t)

				summary.Collided = true
				summary.Case = fixedCase
				summary.Time = t
				summary.Neighbor = string(fixedCase)
				pa.stepsRemaining = 0
				break
			}
		}
		pa.advance()
	}

	return sweepA, summary, nil
}
