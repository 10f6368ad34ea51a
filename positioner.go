package petalcollide

import (
	"fmt"
	"math"

	"github.com/fiberassign/petalcollide/geom"
	"github.com/fiberassign/petalcollide/keepout"
	"github.com/katalvlaran/lvlath/graph/core"
)

// Calibration is the per-positioner calibration record of spec §3:
// arm lengths in millimetres and mount offsets in millimetres/degrees.
type Calibration struct {
	R1, R2     float64
	X0, Y0     float64
	T0, P0     float64
}

func (c Calibration) finite() bool {
	return finite64(c.R1) && finite64(c.R2) && finite64(c.X0) &&
		finite64(c.Y0) && finite64(c.T0) && finite64(c.P0)
}

func finite64(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// KeepoutExpansion is the per-positioner keepout-expansion set of spec §3.
type KeepoutExpansion struct {
	DRPhi, DAPhi     float64
	DRTheta, DATheta float64
}

// Positioner is the registry's record for one two-arm robotic positioner
// (spec §3, P[p]).
type Positioner struct {
	PosID     string
	DeviceLoc int
	AnimIndex int

	Calibration Calibration
	Expansion   KeepoutExpansion

	ClassifiedAsRetracted bool
	CtrlEnabled           bool

	// Derived polygons, valid after RefreshCalibrations (except ArcP).
	PhiArm       *geom.Polygon // P[p], phi-pivot frame
	CentralBody  *geom.Polygon // T[p], positioner-local frame
	// ArcP is the optional full-phi-range sweep from keepout.BuildArcP, in
	// the positioner-local frame (already offset by R1). RefreshCalibrations
	// does not build it.
	ArcP         *geom.Polygon
	Eo           *geom.Polygon
	Ei           *geom.Polygon
	Ee           *geom.Polygon
	EoWithMargin *geom.Polygon

	neighbors  []string
	fixedCases []string
}

// Neighbors returns the positioner ids this positioner can possibly
// interact with, per the last IdentifyNeighbors call.
func (p *Positioner) Neighbors() []string { return append([]string(nil), p.neighbors...) }

// FixedCases returns the subset of {"PTL","GFA"} this positioner's extreme
// envelope can reach.
func (p *Positioner) FixedCases() []string { return append([]string(nil), p.fixedCases...) }

// CalibrationSource supplies a positioner's calibration and keepout
// expansion on demand; the ClassifiedAsRetracted and CtrlEnabled flags are
// not part of it and are set on the Positioner directly. The registry
// never reads ambient/global state
// (spec §9's anti-pattern note on "global configuration as shared mutable
// state").
type CalibrationSource func(posid string) (Calibration, KeepoutExpansion, error)

// RegistryConfig is the explicit, caller-supplied configuration record the
// registry is constructed from (spec §6, inputs 1-5).
type RegistryConfig struct {
	GeneralPhiRaw   *geom.Polygon
	GeneralThetaRaw *geom.Polygon
	R1Nominal       float64
	R2Nominal       float64

	EoDiam, EiDiam, EeDiam float64
	ResEo, ResEi, ResEe    int
	EoRadialTol            float64

	PhiEo, PhiEi float64

	// LocationalAdjacency maps a device location to the device locations the
	// instrument's fixed geometry considers adjacent, for IdentifyNeighborsLocational.
	LocationalAdjacency map[int][]int

	Calibrations CalibrationSource
}

// Registry owns calibration and derived keepouts for every positioner on a
// petal (spec §4.3, component C). A Registry is owned by one caller
// goroutine; concurrent drivers reading while a registry mutates must
// serialize externally (spec §5).
type Registry struct {
	cfg RegistryConfig
	log Logger

	positioners map[string]*Positioner
	order       []string

	graph      *core.Graph
	fixedPolys map[string]*geom.Polygon

	nextAnimIndex int
}

// NewRegistry constructs an empty Registry from an explicit configuration
// record. A nil logger is replaced with a no-op logger.
func NewRegistry(cfg RegistryConfig, logger Logger) *Registry {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Registry{
		cfg:           cfg,
		log:           logger,
		positioners:   make(map[string]*Positioner),
		graph:         core.NewGraph(false, false),
		fixedPolys:    make(map[string]*geom.Polygon),
		nextAnimIndex: 1,
	}
}

// LoadFixed rotates and translates the petal's two fixed envelopes into
// petal coordinates (spec §4.2's load_fixed).
func (r *Registry) LoadFixed(ptlRaw, gfaRaw *geom.Polygon, petalX0, petalY0, petalRot float64) error {
	ptl, gfa, fixedCases, err := keepout.LoadFixed(ptlRaw, gfaRaw, petalX0, petalY0, petalRot)
	if err != nil {
		return fmt.Errorf("petalcollide: LoadFixed: %w", err)
	}
	r.fixedPolys = fixedCases
	r.fixedPolys["PTL"] = ptl
	r.fixedPolys["GFA"] = gfa
	return nil
}

// FixedPolygon returns the placed keepout_PTL or keepout_GFA polygon.
func (r *Registry) FixedPolygon(name string) (*geom.Polygon, bool) {
	p, ok := r.fixedPolys[name]
	return p, ok
}

// Add registers a positioner, assigning it a dense 1-based animation
// index (spec §4.3's add).
func (r *Registry) Add(posid string, deviceLoc int) (*Positioner, error) {
	if _, exists := r.positioners[posid]; exists {
		return r.positioners[posid], nil
	}
	p := &Positioner{PosID: posid, DeviceLoc: deviceLoc, AnimIndex: r.nextAnimIndex}
	r.nextAnimIndex++
	r.positioners[posid] = p
	r.order = append(r.order, posid)
	r.graph.AddVertex(&core.Vertex{ID: posid, Metadata: make(map[string]interface{})})
	r.log.Debugf("registered positioner %s at device loc %d (anim index %d)", posid, deviceLoc, p.AnimIndex)
	return p, nil
}

// Get returns the registered positioner or ErrUnknownPositioner.
func (r *Registry) Get(posid string) (*Positioner, error) {
	p, ok := r.positioners[posid]
	if !ok {
		return nil, fmt.Errorf("petalcollide: %s: %w", posid, ErrUnknownPositioner)
	}
	return p, nil
}

// RefreshCalibrations re-reads {R1,R2,x0,y0,t0,p0} and the keepout
// expansion scalars for every registered positioner, then rebuilds its
// derived keepouts and circles via the keepout builder (spec §4.3's
// refresh_calibrations).
func (r *Registry) RefreshCalibrations() error {
	for _, posid := range r.order {
		p := r.positioners[posid]
		calib, expansion, err := r.cfg.Calibrations(posid)
		if err != nil {
			return fmt.Errorf("petalcollide: RefreshCalibrations(%s): %w", posid, err)
		}
		if !calib.finite() {
			return fmt.Errorf("petalcollide: RefreshCalibrations(%s): non-finite calibration: %w", posid, ErrCalibrationInvalid)
		}
		p.Calibration = calib
		p.Expansion = expansion

		phiArm, centralBody, err := keepout.BuildPerPositioner(r.cfg.GeneralPhiRaw, r.cfg.GeneralThetaRaw, keepout.PerPositionerParams{
			DRPhi: expansion.DRPhi, DAPhi: expansion.DAPhi,
			DRTheta: expansion.DRTheta, DATheta: expansion.DATheta,
			R1: calib.R1, R2: calib.R2,
			R1Nominal: r.cfg.R1Nominal, R2Nominal: r.cfg.R2Nominal,
		})
		if err != nil {
			return fmt.Errorf("petalcollide: RefreshCalibrations(%s): %w", posid, err)
		}
		p.PhiArm = phiArm
		p.CentralBody = centralBody

		circles, err := keepout.BuildCircles(r.cfg.EoDiam, r.cfg.EiDiam, r.cfg.EeDiam, r.cfg.ResEo, r.cfg.ResEi, r.cfg.ResEe, r.cfg.EoRadialTol)
		if err != nil {
			return fmt.Errorf("petalcollide: RefreshCalibrations(%s): %w", posid, err)
		}
		p.Eo, p.Ei, p.Ee, p.EoWithMargin = circles.Eo, circles.Ei, circles.Ee, circles.EoWithMargin
	}
	r.log.Infof("refreshed calibrations for %d positioners", len(r.order))
	return nil
}

// IdentifyNeighbors builds neighbors[p] and fixed_cases[p] for posid using
// the geometric strategy: Ee placed at p's offset tested against every
// other registered positioner's Ee (spec §4.3).
func (r *Registry) IdentifyNeighbors(posid string) error {
	p, err := r.Get(posid)
	if err != nil {
		return err
	}

	pEe, err := p.Ee.Translated(p.Calibration.X0, p.Calibration.Y0)
	if err != nil {
		return fmt.Errorf("petalcollide: IdentifyNeighbors(%s): %w", posid, err)
	}

	var neighbors []string
	for _, otherID := range r.order {
		if otherID == posid {
			continue
		}
		q := r.positioners[otherID]
		qEe, err := q.Ee.Translated(q.Calibration.X0, q.Calibration.Y0)
		if err != nil {
			return fmt.Errorf("petalcollide: IdentifyNeighbors(%s): %w", posid, err)
		}
		if pEe.CollidesWith(qEe) {
			neighbors = append(neighbors, otherID)
		}
	}
	return r.setNeighbors(p, neighbors)
}

// IdentifyNeighborsLocational builds neighbors[p] from a precomputed
// device_loc adjacency map instead of a geometric test (spec §4.3's
// locational strategy).
func (r *Registry) IdentifyNeighborsLocational(posid string) error {
	p, err := r.Get(posid)
	if err != nil {
		return err
	}
	adjacentLocs := r.cfg.LocationalAdjacency[p.DeviceLoc]

	registeredByLoc := make(map[int]string, len(r.order))
	for _, id := range r.order {
		registeredByLoc[r.positioners[id].DeviceLoc] = id
	}

	var neighbors []string
	for _, loc := range adjacentLocs {
		if id, ok := registeredByLoc[loc]; ok && id != posid {
			neighbors = append(neighbors, id)
		}
	}
	return r.setNeighbors(p, neighbors)
}

func (r *Registry) setNeighbors(p *Positioner, neighbors []string) error {
	if len(neighbors) > maxNeighbors {
		return fmt.Errorf("petalcollide: %s has %d neighbors (max %d): %w", p.PosID, len(neighbors), maxNeighbors, ErrCalibrationInvalid)
	}
	p.neighbors = neighbors
	for _, n := range neighbors {
		r.graph.AddEdge(p.PosID, n, 0)
	}

	var fixedCases []string
	pEe, err := p.Ee.Translated(p.Calibration.X0, p.Calibration.Y0)
	if err != nil {
		return fmt.Errorf("petalcollide: setNeighbors(%s): %w", p.PosID, err)
	}
	for _, name := range []string{"PTL", "GFA"} {
		fixed, ok := r.fixedPolys[name]
		if !ok {
			continue
		}
		if pEe.CollidesWith(fixed) {
			fixedCases = append(fixedCases, name)
		}
	}
	p.fixedCases = fixedCases
	return nil
}

// GraphNeighbors returns the neighbor ids recorded in the registry's
// adjacency graph, independent of which positioner's derived fields are
// current — useful for diagnostics and for callers asserting the ≤6 bound
// across the whole petal at once.
func (r *Registry) GraphNeighbors(posid string) []string {
	vertices := r.graph.Neighbors(posid)
	ids := make([]string, len(vertices))
	for i, v := range vertices {
		ids[i] = v.ID
	}
	return ids
}

// PosIDs returns every registered positioner id in registration order.
func (r *Registry) PosIDs() []string { return append([]string(nil), r.order...) }
