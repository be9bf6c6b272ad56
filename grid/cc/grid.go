package cc

import (
	"fmt"
	"math"

	"github.com/error323/continuumcrowds/config"
	"github.com/error323/continuumcrowds/simagent"
)

// groupState is everything the grid tracks for one active group: its goal
// cells, its per-group transient fields, and the per-group aggregates
// (fMin/fMax/sMin/sMax/maxGroupRadius) recomputed from member defs at the
// start of every solve. sMin/sMax mirror the original's mMinGroupSlope/
// mMaxGroupSlope: computed every solve, consumed nowhere — blendedSpeed
// normalizes against the grid's terrain-wide slope extrema instead.
type groupState struct {
	goals  []int32
	fields *GroupFields

	fMin, fMax, sMin, sMax, maxGroupRadius float32
}

// Grid is the continuum-crowds grid: static cell/edge topology, global
// dynamic fields (density, average velocity, mobile discomfort), and a
// map of per-group transient fields keyed by GroupID.
type Grid struct {
	cfg *config.Config

	nx, nz     int
	squareSize float32
	downscale  int

	cells []Cell
	edges []Edge

	minTerrainSlope, maxTerrainSlope float32
	flatTerrain                      bool

	touched     []int32
	touchedFlag []bool

	visitStamp []int32
	visitGen   int32

	groups map[simagent.GroupID]*groupState

	heap candidateHeap
}

// New allocates and statically initializes a grid from the given terrain
// and configuration. downscale is terrain cells per grid cell (D>=1 from
// §4.1); it is read from cfg.Grid.Downscale.
func New(terrain simagent.Terrain, cfg *config.Config) *Grid {
	downscale := cfg.Grid.Downscale
	if downscale < 1 {
		downscale = 1
	}

	tw, th := terrain.GridSize()
	nx := tw / downscale
	nz := th / downscale
	if nx < 1 {
		nx = 1
	}
	if nz < 1 {
		nz = 1
	}

	g := &Grid{
		cfg:        cfg,
		nx:         nx,
		nz:         nz,
		squareSize: terrain.SquareSize() * float32(downscale),
		downscale:  downscale,
		cells:      make([]Cell, nx*nz),
		groups:     make(map[simagent.GroupID]*groupState),
	}
	g.touchedFlag = make([]bool, nx*nz)
	g.visitStamp = make([]int32, nx*nz)
	g.initTopology(terrain, downscale)
	return g
}

// GridWidth returns the number of cells along x.
func (g *Grid) GridWidth() int { return g.nx }

// GridHeight returns the number of cells along z.
func (g *Grid) GridHeight() int { return g.nz }

// SquareSize returns the world-space size of one grid cell.
func (g *Grid) SquareSize() float32 { return g.squareSize }

// UpdateInterval returns the configured number of ticks between group
// potential-field resolves.
func (g *Grid) UpdateInterval() int { return g.cfg.Grid.UpdateInterval }

func (g *Grid) cellIndex(x, z int) int32 { return int32(z*g.nx + x) }

// ClampedCellIndex clamps (x,z) to the grid interior and returns the cell
// index. Used by World2Cell, the splat loop and far-neighbor lookups, per
// §4.2's "clamping is the defined behavior" rule.
func (g *Grid) ClampedCellIndex(x, z int) int32 {
	if x < 0 {
		x = 0
	}
	if x >= g.nx {
		x = g.nx - 1
	}
	if z < 0 {
		z = 0
	}
	if z >= g.nz {
		z = g.nz - 1
	}
	return g.cellIndex(x, z)
}

// World2Cell maps a world-space xz position to a clamped cell index.
func (g *Grid) World2Cell(x, z float32) int32 {
	cx := int(x / g.squareSize)
	cz := int(z / g.squareSize)
	return g.ClampedCellIndex(cx, cz)
}

// CellMidPos returns the world-space center of a cell.
func (g *Grid) CellMidPos(cellIdx int32) (x, z float32) {
	c := &g.cells[cellIdx]
	return (float32(c.X) + 0.5) * g.squareSize, (float32(c.Z) + 0.5) * g.squareSize
}

// initTopology allocates edges and links each cell to its up-to-4
// neighbors and edges, sets static heights/discomfort, and computes the
// terrain slope extrema and flat-terrain flag (§4.1).
func (g *Grid) initTopology(terrain simagent.Terrain, downscale int) {
	// One edge per N-face and one per E-face, including border faces:
	// (nx)*(nz+1) north-south faces, (nx+1)*(nz) east-west faces.
	numNSFaces := g.nx * (g.nz + 1)
	numEWFaces := (g.nx + 1) * g.nz
	g.edges = make([]Edge, numNSFaces+numEWFaces)

	nsEdge := func(x, z int) int32 { return int32(z*g.nx + x) } // face south of row z
	ewEdge := func(x, z int) int32 { return int32(numNSFaces + z*(g.nx+1) + x) }

	minH, maxH := terrain.MinHeight(), terrain.MaxHeight()
	hRange := maxH - minH
	g.flatTerrain = hRange < epsilon

	for z := 0; z < g.nz; z++ {
		for x := 0; x < g.nx; x++ {
			idx := g.cellIndex(x, z)
			c := &g.cells[idx]
			c.X, c.Z = x, z
			c.Height = terrain.CenterHeight(x*downscale, z*downscale)

			if hRange < epsilon {
				c.StaticDiscomfort = Vec3{}
			} else {
				c.StaticDiscomfort = Vec3{0, (c.Height - minH) / hRange, 0}
			}

			// Neighbor links; noNeighbor at borders.
			c.Neighbors = [NumDirections]int32{noNeighbor, noNeighbor, noNeighbor, noNeighbor}
			if z+1 < g.nz {
				c.Neighbors[DirN] = g.cellIndex(x, z+1)
			}
			if z-1 >= 0 {
				c.Neighbors[DirS] = g.cellIndex(x, z-1)
			}
			if x+1 < g.nx {
				c.Neighbors[DirE] = g.cellIndex(x+1, z)
			}
			if x-1 >= 0 {
				c.Neighbors[DirW] = g.cellIndex(x-1, z)
			}

			// Edge links. The N-face of (x,z) is the S-face of (x,z+1):
			// both index nsEdge(x, z+1). The face "south" of row z is
			// nsEdge(x,z); that is this cell's S-edge.
			c.Edges[DirN] = nsEdge(x, z+1)
			c.Edges[DirS] = nsEdge(x, z)
			c.Edges[DirE] = ewEdge(x+1, z)
			c.Edges[DirW] = ewEdge(x, z)
		}
	}

	// Height-deltas: each NS face stores the signed elevation difference
	// walking north across it; each EW face stores the difference walking
	// east. Border faces (no cell on one side) reuse the in-bounds cell's
	// own height on the missing side, giving a zero delta there.
	for z := 0; z <= g.nz; z++ {
		for x := 0; x < g.nx; x++ {
			var south, north float32
			if z-1 >= 0 {
				south = g.cells[g.cellIndex(x, z-1)].Height
			} else {
				south = g.cells[g.cellIndex(x, 0)].Height
			}
			if z < g.nz {
				north = g.cells[g.cellIndex(x, z)].Height
			} else {
				north = g.cells[g.cellIndex(x, g.nz-1)].Height
			}
			g.edges[nsEdge(x, z)].HeightDelta = Vec3{0, north - south, 1}
		}
	}
	for z := 0; z < g.nz; z++ {
		for x := 0; x <= g.nx; x++ {
			var west, east float32
			if x-1 >= 0 {
				west = g.cells[g.cellIndex(x-1, z)].Height
			} else {
				west = g.cells[g.cellIndex(0, z)].Height
			}
			if x < g.nx {
				east = g.cells[g.cellIndex(x, z)].Height
			} else {
				east = g.cells[g.cellIndex(g.nx-1, z)].Height
			}
			g.edges[ewEdge(x, z)].HeightDelta = Vec3{1, east - west, 0}
		}
	}

	minSlope := float32(math.Inf(1))
	maxSlope := float32(math.Inf(-1))
	for i := range g.edges {
		mag := float32(math.Abs(float64(g.edges[i].HeightDelta.Y)))
		if mag < minSlope {
			minSlope = mag
		}
		if mag > maxSlope {
			maxSlope = mag
		}
	}
	g.minTerrainSlope, g.maxTerrainSlope = minSlope, maxSlope
}

// directionalSlope returns the signed slope of edge e as seen from a cell
// traveling in direction d: edge.HeightDelta's xz axis direction dotted
// with d's unit vector gives +1 when d agrees with the edge's stored
// canonical axis and -1 when it opposes it, so the stored elevation delta
// is negated exactly when read from the opposite side (§3 edge symmetry
// invariant).
func (g *Grid) directionalSlope(edgeIdx int32, d Dir) float32 {
	hd := g.edges[edgeIdx].HeightDelta
	axis := Vec2{hd.X, hd.Z}
	sign := d.Vector().Dot(axis)
	return hd.Y * sign
}

// AddGroup registers a new group with empty goals and fresh per-group
// fields. It is a no-op if the group already exists.
func (g *Grid) AddGroup(id simagent.GroupID) {
	if _, ok := g.groups[id]; ok {
		return
	}
	g.groups[id] = &groupState{
		fields: newGroupFields(len(g.cells), len(g.edges)),
	}
}

// DelGroup removes a group and its fields.
func (g *Grid) DelGroup(id simagent.GroupID) {
	delete(g.groups, id)
}

// AddGoal appends a world-space goal position's cell to the group's goal
// set, clamped to the grid interior (§4.6, scenario 6).
func (g *Grid) AddGoal(id simagent.GroupID, worldX, worldZ float32) {
	gs, ok := g.groups[id]
	if !ok {
		return
	}
	gs.goals = append(gs.goals, g.World2Cell(worldX, worldZ))
}

// HasGroup reports whether id is a currently tracked group.
func (g *Grid) HasGroup(id simagent.GroupID) bool {
	_, ok := g.groups[id]
	return ok
}

// Reset clears the global-dynamic fields of every cell touched since the
// last reset, then clears the touched set itself (§4.2, idempotence
// property of §8).
func (g *Grid) Reset() {
	for _, idx := range g.touched {
		g.cells[idx].resetGlobalDynamic()
		g.touchedFlag[idx] = false
	}
	g.touched = g.touched[:0]
}

func (g *Grid) markTouched(idx int32) {
	if !g.touchedFlag[idx] {
		g.touchedFlag[idx] = true
		g.touched = append(g.touched, idx)
	}
}

// Kill releases per-group state; after Kill the grid must not be used.
func (g *Grid) Kill() {
	g.groups = nil
	g.cells = nil
	g.edges = nil
	g.touched = nil
	g.touchedFlag = nil
	g.visitStamp = nil
}

func (g *Grid) invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("cc: invariant violation: "+format, args...))
	}
}
