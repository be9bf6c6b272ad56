package cc

import (
	"math"

	"github.com/error323/continuumcrowds/simagent"
)

// cellEdgeVelocities returns the cell's own velocity reading in each of
// the 4 directions for group gs: gf.edgeVelocity[c.Edges[d]][d], i.e. the
// direction-indexed slot this cell itself wrote during finalizeVelocities.
func (g *Grid) cellEdgeVelocities(gs *groupState, cellIdx int32) (n, s, e, w Vec2) {
	c := &g.cells[cellIdx]
	gf := gs.fields
	n = gf.edgeVelocity[c.Edges[DirN]][DirN]
	s = gf.edgeVelocity[c.Edges[DirS]][DirS]
	e = gf.edgeVelocity[c.Edges[DirE]][DirE]
	w = gf.edgeVelocity[c.Edges[DirW]][DirW]
	return
}

// interpolatedVelocity computes the velocity at a world position inside
// cellIdx, per §4.5's bilinear or cardinal mode.
func (g *Grid) interpolatedVelocity(gs *groupState, cellIdx int32, worldX, worldZ, facingX, facingZ float32) Vec2 {
	c := &g.cells[cellIdx]
	n, s, e, w := g.cellEdgeVelocities(gs, cellIdx)

	if g.cfg.Advection.Mode == "cardinal" {
		var vx, vz Vec2
		if facingX >= 0 {
			vx = e
		} else {
			vx = w
		}
		if facingZ >= 0 {
			vz = n
		} else {
			vz = s
		}
		return vx.Scale(float32(math.Abs(float64(facingX)))).Add(vz.Scale(float32(math.Abs(float64(facingZ)))))
	}

	a := (worldX - float32(c.X)*g.squareSize) / g.squareSize
	b := (worldZ - float32(c.Z)*g.squareSize) / g.squareSize
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	if b < 0 {
		b = 0
	}
	if b > 1 {
		b = 1
	}

	vBL := s.Add(w).Scale(0.5) // south-west corner
	vBR := s.Add(e).Scale(0.5) // south-east corner
	vTL := n.Add(w).Scale(0.5) // north-west corner
	vTR := n.Add(e).Scale(0.5) // north-east corner

	return vBL.Scale((1 - a) * (1 - b)).
		Add(vBR.Scale(a * (1 - b))).
		Add(vTL.Scale((1 - a) * b)).
		Add(vTR.Scale(a * b))
}

// clampRate steps current toward wanted by at most maxUp (when increasing)
// or maxDown (when decreasing), per tick duration dt.
func clampRate(current, wanted, maxUp, maxDown, dt float32) float32 {
	delta := wanted - current
	if delta > 0 {
		step := maxUp * dt
		if delta > step {
			delta = step
		}
	} else {
		step := maxDown * dt
		if -delta > step {
			delta = -step
		}
	}
	return current + delta
}

// clampTurn rotates current (a unit direction) toward wanted by at most
// maxRate*dt radians, using the shortest signed angular delta on xz.
func clampTurn(current, wanted Vec2, maxRate, dt float32) Vec2 {
	if current.SqLen() <= epsilon {
		return wanted
	}
	if wanted.SqLen() <= epsilon {
		return current
	}

	curAngle := math.Atan2(float64(current.Z), float64(current.X))
	wantAngle := math.Atan2(float64(wanted.Z), float64(wanted.X))

	delta := wantAngle - curAngle
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta < -math.Pi {
		delta += 2 * math.Pi
	}

	maxDelta := float64(maxRate * dt)
	if delta > maxDelta {
		delta = maxDelta
	}
	if delta < -maxDelta {
		delta = -maxDelta
	}

	newAngle := curAngle + delta
	return Vec2{float32(math.Cos(newAngle)), float32(math.Sin(newAngle))}
}

// UpdateSimObjectLocation advects one agent: it samples the group's
// velocity field at the agent's position, clamps the speed change and the
// turn rate to the agent's kinematic limits, and writes the new
// position/facing/speed back through sink (§4.5).
func (g *Grid) UpdateSimObjectLocation(
	gid simagent.GroupID,
	id simagent.AgentID,
	src simagent.AgentSource,
	sink simagent.AgentSink,
	dt float32,
) {
	gs, ok := g.groups[gid]
	if !ok {
		return
	}

	x, z := src.Position(id)
	dirX, dirZ := src.Direction(id)
	speed := src.CurrentForwardSpeed(id)
	def := src.Def(id)

	cellIdx := g.World2Cell(x, z)
	v := g.interpolatedVelocity(gs, cellIdx, x, z, dirX, dirZ)

	wantedSpeed := v.Len()
	if wantedSpeed*wantedSpeed <= epsilon {
		newSpeed := clampRate(speed, 0, def.MaxAccRate, def.MaxDecRate, dt)
		sink.SetRawPhysicalState(id, x, z, dirX, dirZ, newSpeed)
		return
	}

	wantedDir := v.Normalize()
	newSpeed := clampRate(speed, wantedSpeed, def.MaxAccRate, def.MaxDecRate, dt)
	newDir := clampTurn(Vec2{dirX, dirZ}, wantedDir, def.MaxTurnRate, dt)

	newX := x + newDir.X*newSpeed*dt
	newZ := z + newDir.Z*newSpeed*dt

	sink.SetRawPhysicalState(id, newX, newZ, newDir.X, newDir.Z, newSpeed)
}
