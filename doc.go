// Package petalcollide is the anti-collision kernel of a robotic fiber
// positioner petal. Given the planned theta/phi rotation schedules of many
// two-arm robotic positioners on a petal of a focal-plane instrument, it
// determines whether any of them will strike a neighbor or a fixed
// envelope during a move, and at what time the first strike occurs.
//
// The kernel is organized into six components: geom (package geom) is the
// polygon engine; keepout (package keepout) builds per-positioner keepouts
// and clear-rotation-envelope circles from calibration; the root package
// owns the positioner registry, the move-table sweep builder, the spatial
// collision classifier, and the spacetime driver that walks sweeps in
// lockstep. The kernel is single-threaded and synchronous: no operation
// suspends or blocks, and it holds no process-wide mutable state.
package petalcollide
