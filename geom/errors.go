package geom

import "errors"

// Sentinel errors returned by the polygon kernel. Callers should match them
// with errors.Is; every wrapping adds context with fmt.Errorf("...: %w", err).
var (
	// ErrShapeMismatch is returned when two parallel coordinate slices passed
	// to New have different lengths.
	ErrShapeMismatch = errors.New("geom: x/y coordinate slices have different lengths")

	// ErrInvalidArgument is returned for a non-positive circle diameter or a
	// point count too small to describe a polygon.
	ErrInvalidArgument = errors.New("geom: invalid argument")

	// ErrOutOfMemory is returned when a caller requests an allocation large
	// enough that satisfying it would be unreasonable (e.g. a circle
	// resolution in the billions). The kernel never retries internally.
	ErrOutOfMemory = errors.New("geom: allocation too large")

	// ErrNumericDegenerate is returned when a transform would produce a
	// non-finite coordinate. The kernel never silently clamps this.
	ErrNumericDegenerate = errors.New("geom: transform produced a non-finite coordinate")
)

// maxAllocPoints bounds New/CirclePolyPoints against pathological inputs;
// it exists only to give ErrOutOfMemory a reachable trigger.
const maxAllocPoints = 1 << 24
