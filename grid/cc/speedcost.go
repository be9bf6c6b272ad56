package cc

import "math"

// cellAtOffset walks `steps` cells from c in direction d, clamped to the
// grid interior, and returns the resulting cell index. Used to find the
// "far" neighbor sampled for speed (offset by the group's radius) as
// distinct from the immediate neighbor sampled for cost (§4.3 step 1-2).
func (g *Grid) cellAtOffset(c *Cell, d Dir, steps int) int32 {
	dx, dz := d.delta()
	return g.ClampedCellIndex(c.X+dx*steps, c.Z+dz*steps)
}

// computeCellSpeedAndCost fills gf.speed[cellIdx] and gf.cost[cellIdx] for
// all 4 directions, per §4.3.
func (g *Grid) computeCellSpeedAndCost(gs *groupState, cellIdx int32) {
	c := &g.cells[cellIdx]
	gf := gs.fields

	farSteps := g.cellsInRadius(gs.maxGroupRadius)

	cfg := g.cfg
	var speeds, costs [NumDirections]float32

	for d := Dir(0); d < NumDirections; d++ {
		farIdx := g.cellAtOffset(c, d, farSteps)
		nearIdx := c.Neighbors[d]
		if nearIdx == noNeighbor {
			nearIdx = cellIdx
		}

		edgeIdx := c.Edges[d]
		s := g.directionalSlope(edgeIdx, d)
		sMod := directionalSlopeMod(d, s)

		fR := g.blendedSpeed(gs, d, sMod, &g.cells[farIdx])
		fC := g.blendedSpeed(gs, d, sMod, &g.cells[nearIdx])

		speeds[d] = fR

		gVal := g.directionalDiscomfort(&g.cells[nearIdx], d, cfg.Discomfort.Directional)

		if fC <= epsilon {
			fC = epsilon
		}
		costs[d] = (float32(cfg.Cost.Alpha)*fC + float32(cfg.Cost.Beta) + float32(cfg.Cost.Gamma)*gVal) / (fC * fC)
	}

	gf.speed[cellIdx] = speeds
	gf.cost[cellIdx] = costs
}

// directionalSlopeMod applies the sign convention of §4.3 step 3: positive
// when the slope runs uphill along the travel direction.
func directionalSlopeMod(d Dir, s float32) float32 {
	uphillAlongTravel := (d == DirN || d == DirW) && s < 0 || (d == DirS || d == DirE) && s >= 0
	if uphillAlongTravel {
		return float32(math.Abs(float64(s)))
	}
	return -float32(math.Abs(float64(s)))
}

// blendedSpeed implements §4.3 steps 4-6 for one sampled neighbor n,
// traveling in direction d. The directional terrain slope sMod is
// normalized against the grid's terrain-wide slope extrema
// (minTerrainSlope/maxTerrainSlope), not the group's def-slope range —
// the group's sMin/sMax bound the def domain a cosine/angle falls in, a
// different axis entirely from the |heightDelta| slope sMod carries.
func (g *Grid) blendedSpeed(gs *groupState, d Dir, sMod float32, n *Cell) float32 {
	fMin, fMax := gs.fMin, gs.fMax
	sMin, sMax := g.minTerrainSlope, g.maxTerrainSlope

	var slopeScale float32
	if !g.flatTerrain && sMax-sMin > epsilon {
		t := (sMod - sMin) / (sMax - sMin)
		if t > 1 {
			t = 1
		}
		if t < -1 {
			t = -1
		}
		slopeScale = t
	}
	fTopo := fMax + slopeScale*(fMin-fMax)

	flow := n.AvgVelocity.Dot(d.Vector())
	if flow < 0 {
		flow = 0
	}

	rhoMin, rhoMax := g.cfg.Derived.RhoMin32, g.cfg.Derived.RhoMax32

	switch {
	case n.Density >= rhoMax:
		return flow
	case n.Density <= rhoMin:
		return fTopo
	default:
		return fTopo + ((n.Density-rhoMin)/(rhoMax-rhoMin))*(fTopo-flow)
	}
}

// directionalDiscomfort computes g = staticDiscomfort-component +
// mobileDiscomfort-component at the immediate neighbor, per §4.3 step 7.
func (g *Grid) directionalDiscomfort(n *Cell, d Dir, directional bool) float32 {
	if !directional {
		return n.StaticDiscomfort.Y + n.MobileDiscomfort.Y
	}
	dHat := d.Vector()
	sD := (n.StaticDiscomfort.XZ().Dot(dHat)*(-1) + 1) / 2
	mD := (n.MobileDiscomfort.XZ().Dot(dHat)*(-1) + 1) / 2
	return n.StaticDiscomfort.Y*sD + n.MobileDiscomfort.Y*mD
}
