package cc

import "math"

// GroupFields holds the per-group transient state the original engine
// bundled directly onto Cell/Edge: potential, known/candidate flags, and
// directional speed/cost per cell, plus directional velocity and
// potential-delta per edge. It is kept separate from Cell/Edge because
// several groups can exist over the same static grid at once, each with
// its own potential field — sharing storage between them would mean one
// group's solve clobbers another's.
//
// When the configured update interval is 1 this is rebuilt fresh every
// tick; otherwise it persists across the ticks between solves so
// advection always has a valid (if slightly stale) field to read.
type GroupFields struct {
	// potential[i][0] is the cell's scalar potential; [1] and [2] hold the
	// x/z components of its potential gradient, set once when the cell is
	// first queued as a candidate. [3] is unused.
	potential [][NumDirections]float32
	known     []bool
	candidate []bool
	speed     [][NumDirections]float32
	cost      [][NumDirections]float32

	edgeVelocity       [][NumDirections]Vec2
	edgePotentialDelta [][NumDirections]Vec2

	// heapIndex tracks each cell's slot in the FMM candidate heap during a
	// solve; -1 when the cell is not currently queued. Scratch-only, but
	// sized with everything else since it is indexed by cell.
	heapIndex []int32
}

func newGroupFields(numCells, numEdges int) *GroupFields {
	gf := &GroupFields{
		potential:          make([][NumDirections]float32, numCells),
		known:              make([]bool, numCells),
		candidate:          make([]bool, numCells),
		speed:              make([][NumDirections]float32, numCells),
		cost:               make([][NumDirections]float32, numCells),
		edgeVelocity:       make([][NumDirections]Vec2, numEdges),
		edgePotentialDelta: make([][NumDirections]Vec2, numEdges),
		heapIndex:          make([]int32, numCells),
	}
	gf.reset()
	return gf
}

// Potential returns the cell's scalar potential.
func (gf *GroupFields) Potential(cellIdx int32) float32 { return gf.potential[cellIdx][0] }

func (gf *GroupFields) setPotential(cellIdx int32, v float32) { gf.potential[cellIdx][0] = v }

// reset reinitializes every per-group transient field to its pre-solve
// state: infinite potential, unknown, not a candidate, zero speed/cost,
// zero edge velocity/gradient. This is the full-sweep equivalent of the
// original's resetGroupVars, run once at the start of every solve rather
// than lazily per touched neighbor — see DESIGN.md for why this
// collapsed form was chosen over the two-buffer scheme.
func (gf *GroupFields) reset() {
	inf := float32(math.Inf(1))
	for i := range gf.potential {
		gf.potential[i] = [NumDirections]float32{inf, 0, 0, 0}
		gf.known[i] = false
		gf.candidate[i] = false
		gf.speed[i] = [NumDirections]float32{}
		gf.cost[i] = [NumDirections]float32{}
		gf.heapIndex[i] = -1
	}
	for i := range gf.edgeVelocity {
		gf.edgeVelocity[i] = [NumDirections]Vec2{}
		gf.edgePotentialDelta[i] = [NumDirections]Vec2{}
	}
}
