package cc

import (
	"container/heap"
	"math"

	"github.com/error323/continuumcrowds/simagent"
)

// candidateHeap is the FMM min-heap of candidate cells keyed by tentative
// potential, reused across every group's solve the way the A*-planner's
// open-set heap is reused across searches: cleared to empty before each
// use and asserted empty again on exit (§5, §9 "min-heap reuse").
type candidateHeap struct {
	items []int32
	gf    *GroupFields
}

func (h *candidateHeap) reset(gf *GroupFields) {
	h.items = h.items[:0]
	h.gf = gf
}

func (h *candidateHeap) Len() int { return len(h.items) }
func (h *candidateHeap) Less(i, j int) bool {
	return h.gf.Potential(h.items[i]) < h.gf.Potential(h.items[j])
}
func (h *candidateHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.gf.heapIndex[h.items[i]] = int32(i)
	h.gf.heapIndex[h.items[j]] = int32(j)
}
func (h *candidateHeap) Push(x any) {
	idx := x.(int32)
	h.gf.heapIndex[idx] = int32(len(h.items))
	h.items = append(h.items, idx)
}
func (h *candidateHeap) Pop() any {
	old := h.items
	n := len(old)
	idx := old[n-1]
	h.gf.heapIndex[idx] = -1
	h.items = old[:n-1]
	return idx
}

// MemberSample is the subset of an agent's state the per-group potential
// solve needs to recompute its fMin/fMax/sMin/sMax/maxGroupRadius
// aggregates (§4.4).
type MemberSample struct {
	Def    simagent.Def
	Radius float32
}

// recomputeGroupAggregates derives the group-level speed/slope/radius
// extrema from the current member set. computeCellSpeedAndCost reads the
// speed and radius extrema; the slope pair is stored but not read.
func (g *Grid) recomputeGroupAggregates(gs *groupState, members []MemberSample) {
	fMin, fMax := float32(math.Inf(1)), float32(math.Inf(-1))
	sMin, sMax := float32(math.Inf(1)), float32(math.Inf(-1))
	maxRadius := float32(0)

	for _, m := range members {
		if m.Def.MaxForwardSpeed < fMin {
			fMin = m.Def.MaxForwardSpeed
		}
		if m.Def.MaxForwardSpeed > fMax {
			fMax = m.Def.MaxForwardSpeed
		}
		if m.Def.MinSlope < sMin {
			sMin = m.Def.MinSlope
		}
		if m.Def.MaxSlope > sMax {
			sMax = m.Def.MaxSlope
		}
		if m.Radius > maxRadius {
			maxRadius = m.Radius
		}
	}

	gs.fMin, gs.fMax = fMin, fMax
	gs.sMin, gs.sMax = sMin, sMax
	gs.maxGroupRadius = maxRadius
}

// UpdateGroupPotentialField solves group id's potential field by fast
// marching (§4.4). members supplies the current def/radius of every agent
// in the group, used to derive the per-solve speed/slope/radius
// aggregates. It is a no-op if the group is unknown, has no goals, or has
// no members.
func (g *Grid) UpdateGroupPotentialField(id simagent.GroupID, members []MemberSample) {
	gs, ok := g.groups[id]
	if !ok || len(gs.goals) == 0 || len(members) == 0 {
		return
	}

	g.recomputeGroupAggregates(gs, members)
	gf := gs.fields
	gf.reset()

	g.heap.reset(gf)
	g.invariant(g.heap.Len() == 0, "candidate heap not empty at solve entry")

	for _, goalIdx := range gs.goals {
		gf.known[goalIdx] = true
		gf.setPotential(goalIdx, 0)
		g.computeCellSpeedAndCost(gs, goalIdx)
	}
	for _, goalIdx := range gs.goals {
		g.offerNeighbors(gs, goalIdx)
	}

	lastPopped := float32(math.Inf(-1))
	for g.heap.Len() > 0 {
		idx := heap.Pop(&g.heap).(int32)
		pot := gf.Potential(idx)
		g.invariant(pot+epsilon >= lastPopped, "fmm popped out of order: %v after %v", pot, lastPopped)
		lastPopped = pot

		gf.known[idx] = true
		gf.candidate[idx] = false
		g.offerNeighbors(gs, idx)
	}

	g.invariant(g.heap.Len() == 0, "candidate heap not empty at solve exit")
	g.finalizeVelocities(gs)
}

// offerNeighbors computes speed+cost and a tentative potential for every
// neighbor of cellIdx that is neither known nor already a candidate, then
// queues it.
func (g *Grid) offerNeighbors(gs *groupState, cellIdx int32) {
	c := &g.cells[cellIdx]
	gf := gs.fields

	for d := Dir(0); d < NumDirections; d++ {
		nbrIdx := c.Neighbors[d]
		if nbrIdx == noNeighbor {
			continue
		}
		if gf.known[nbrIdx] || gf.candidate[nbrIdx] {
			continue
		}

		g.computeCellSpeedAndCost(gs, nbrIdx)
		g.updateCandidate(gs, nbrIdx)
		gf.candidate[nbrIdx] = true
		heap.Push(&g.heap, nbrIdx)
	}
}

// updateCandidate applies the eikonal update of §4.4 to cellIdx using its
// currently-known neighbors, setting its tentative potential and
// direction-aligned gradient.
func (g *Grid) updateCandidate(gs *groupState, cellIdx int32) {
	c := &g.cells[cellIdx]
	gf := gs.fields

	var dirCost [NumDirections]float32
	for d := Dir(0); d < NumDirections; d++ {
		nbrIdx := c.Neighbors[d]
		if nbrIdx != noNeighbor && gf.known[nbrIdx] && !math.IsInf(float64(gf.Potential(nbrIdx)), 1) {
			dirCost[d] = gf.Potential(nbrIdx) + gf.cost[nbrIdx][d]
		} else {
			dirCost[d] = float32(math.Inf(1))
		}
	}

	xDefined := !math.IsInf(float64(dirCost[DirE]), 1) || !math.IsInf(float64(dirCost[DirW]), 1)
	zDefined := !math.IsInf(float64(dirCost[DirN]), 1) || !math.IsInf(float64(dirCost[DirS]), 1)
	g.invariant(xDefined || zDefined, "cell %d has no known neighbor on either axis", cellIdx)

	var phi float32
	var gradX, gradZ float32

	var dx, dy Dir
	var havePhiX, havePhiY bool
	var phiX, phiY, cx, cy float32

	if xDefined {
		if dirCost[DirE] <= dirCost[DirW] {
			dx = DirE
		} else {
			dx = DirW
		}
		phiX = gf.Potential(c.Neighbors[dx])
		cx = gf.cost[cellIdx][dx]
		havePhiX = true
	}
	if zDefined {
		if dirCost[DirN] <= dirCost[DirS] {
			dy = DirN
		} else {
			dy = DirS
		}
		phiY = gf.Potential(c.Neighbors[dy])
		cy = gf.cost[cellIdx][dy]
		havePhiY = true
	}

	switch {
	case havePhiX && havePhiY:
		phi = potential2D(phiX, cx, phiY, cy)
	case havePhiX:
		phi = potential1D(phiX, cx)
	default:
		phi = potential1D(phiY, cy)
	}

	if havePhiX {
		sign := float32(1)
		if dx == DirW {
			sign = -1
		}
		gradX = (phiX - phi) * sign
	}
	if havePhiY {
		sign := float32(1)
		if dy == DirS {
			sign = -1
		}
		gradZ = (phiY - phi) * sign
	}

	gf.setPotential(cellIdx, phi)
	gf.potential[cellIdx][1] = gradX
	gf.potential[cellIdx][2] = gradZ
}

// potential1D implements §4.4's single-axis eikonal update. The (p-c) root
// is always <= (p+c) and is discarded.
func potential1D(p, c float32) float32 {
	return p + c
}

// potential2D implements §4.4's two-axis eikonal update.
func potential2D(p1, c1, p2, c2 float32) float32 {
	sq1, sq2 := c1*c1, c2*c2
	denom := sq1 + sq2
	if denom < epsilon {
		denom = epsilon
	}
	a := (sq1*p2 + sq2*p1) / denom
	b := float32(math.Sqrt(float64(denom)))
	cc := (c1 * c2) / b
	return a + cc
}

// finalizeVelocities sets every known cell's 4 directional edge velocities
// from its speed field and its stored potential gradient, per §4.4's final
// step. The gradient is a single per-cell vector (set once, when the cell
// was inserted as a candidate); each direction's edge velocity reuses that
// same direction but is scaled by that direction's own speed.
func (g *Grid) finalizeVelocities(gs *groupState) {
	gf := gs.fields
	for idx := range g.cells {
		if !gf.known[idx] {
			continue
		}
		c := &g.cells[idx]
		grad := Vec2{gf.potential[idx][1], gf.potential[idx][2]}
		dir := grad.Normalize()

		for d := Dir(0); d < NumDirections; d++ {
			edgeIdx := c.Edges[d]
			v := dir.Scale(-gf.speed[idx][d])
			gf.edgeVelocity[edgeIdx][d] = v
			gf.edgePotentialDelta[edgeIdx][d] = grad
		}
	}
}
