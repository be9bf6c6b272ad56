package cc

import "math"

// cellsInRadius returns the Chebyshev cell radius a disc of world-space
// radius r spans, per §4.2: ceil(r/(squareSize/2)) + 1.
func (g *Grid) cellsInRadius(r float32) int {
	return int(math.Ceil(float64(r/(g.squareSize*0.5)))) + 1
}

// forEachCellInDisc visits every cell within the Chebyshev box around the
// center cell of (worldX, worldZ) that also lies within the Euclidean disc
// of radius r, clamping out-of-bounds candidates to the grid interior
// rather than skipping them (§4.2 failure semantics).
func (g *Grid) forEachCellInDisc(worldX, worldZ, r float32, fn func(idx int32)) {
	centerX := int(worldX / g.squareSize)
	centerZ := int(worldZ / g.squareSize)
	box := g.cellsInRadius(r)

	// visitStamp is a grid-owned scratch set, reused across calls (one per
	// agent per splat/discomfort frame) instead of allocating a fresh map
	// each time: a cell is "visited this call" when its stamp equals the
	// current generation.
	g.visitGen++
	gen := g.visitGen

	for dz := -box; dz <= box; dz++ {
		for dx := -box; dx <= box; dx++ {
			cx, cz := centerX+dx, centerZ+dz

			// Euclidean disc test uses the unclamped cell-center distance,
			// so clamping below never lets an out-of-range offset sneak in
			// under a falsely short clamped distance.
			ccx, ccz := float32(cx)+0.5, float32(cz)+0.5
			wx, wz := worldX/g.squareSize, worldZ/g.squareSize
			ddx, ddz := ccx-wx, ccz-wz
			if ddx*ddx+ddz*ddz > (r/g.squareSize)*(r/g.squareSize) {
				continue
			}

			idx := g.ClampedCellIndex(cx, cz)
			if g.visitStamp[idx] == gen {
				continue
			}
			g.visitStamp[idx] = gen
			fn(idx)
		}
	}
}

// AddDensityAndVelocity splats one agent's density and velocity
// contribution onto the grid (§4.2 addDensity).
func (g *Grid) AddDensityAndVelocity(worldX, worldZ, velX, velZ, radius float32) {
	rhoBar := g.cfg.Derived.RhoBar32
	g.forEachCellInDisc(worldX, worldZ, radius, func(idx int32) {
		c := &g.cells[idx]
		c.Density += rhoBar
		c.AvgVelocity.X += velX * rhoBar
		c.AvgVelocity.Z += velZ * rhoBar
		g.markTouched(idx)
	})
}

// AddDiscomfort splats one agent's predictive mobile-discomfort trail onto
// the grid (§4.2 addDiscomfort). Stationary agents (|vel|^2 <= eps) are
// skipped entirely.
func (g *Grid) AddDiscomfort(worldX, worldZ, velX, velZ, radius float32, numFrames int, stepSize float32) {
	if velX*velX+velZ*velZ <= epsilon {
		return
	}
	rhoBar := g.cfg.Derived.RhoBar32
	for n := 0; n <= numFrames; n++ {
		px := worldX + velX*float32(n)*stepSize
		pz := worldZ + velZ*float32(n)*stepSize
		g.forEachCellInDisc(px, pz, radius, func(idx int32) {
			c := &g.cells[idx]
			c.MobileDiscomfort.X += velX
			c.MobileDiscomfort.Z += velZ
			c.MobileDiscomfort.Y += rhoBar
			g.markTouched(idx)
		})
	}
}

// ComputeAvgVelocity normalizes the touched cells' accumulated density and
// mobile-discomfort into the average velocity field and a unit discomfort
// direction, per §4.2.
func (g *Grid) ComputeAvgVelocity() {
	for _, idx := range g.touched {
		c := &g.cells[idx]
		if c.Density > epsilon {
			c.AvgVelocity.X /= c.Density
			c.AvgVelocity.Z /= c.Density
		}
		dirSq := c.MobileDiscomfort.X*c.MobileDiscomfort.X + c.MobileDiscomfort.Z*c.MobileDiscomfort.Z
		if dirSq > epsilon {
			l := float32(math.Sqrt(float64(dirSq)))
			c.MobileDiscomfort.X /= l
			c.MobileDiscomfort.Z /= l
		}
	}
}
