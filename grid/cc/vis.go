package cc

import "github.com/error323/continuumcrowds/simagent"

// FieldDims describes a visualization field's layout: a flat array of
// length sizeX*sizeZ*stride, row-major over z then x, stride 1 for
// cell-centered fields and 4 (N,S,E,W) for edge-centered fields (§6).
type FieldDims struct {
	SizeX, SizeZ, Stride int
}

func (g *Grid) dims(stride int) FieldDims {
	return FieldDims{SizeX: g.nx, SizeZ: g.nz, Stride: stride}
}

// ScalarField returns a read-only snapshot of one of the scalar
// visualization fields (density, height, speed, cost, potential). group is
// ignored for density/height and required (existing group) for
// speed/cost/potential.
func (g *Grid) ScalarField(key DataKey, group simagent.GroupID) ([]float32, FieldDims) {
	switch key {
	case DataDensity:
		out := make([]float32, len(g.cells))
		for i := range g.cells {
			out[i] = g.cells[i].Density
		}
		return out, g.dims(1)

	case DataHeight:
		out := make([]float32, len(g.cells))
		for i := range g.cells {
			out[i] = g.cells[i].Height
		}
		return out, g.dims(1)

	case DataSpeed:
		gs := g.groups[group]
		out := make([]float32, len(g.cells)*NumDirections)
		if gs != nil {
			for i := range g.cells {
				copy(out[i*NumDirections:(i+1)*NumDirections], gs.fields.speed[i][:])
			}
		}
		return out, g.dims(NumDirections)

	case DataCost:
		gs := g.groups[group]
		out := make([]float32, len(g.cells)*NumDirections)
		if gs != nil {
			for i := range g.cells {
				copy(out[i*NumDirections:(i+1)*NumDirections], gs.fields.cost[i][:])
			}
		}
		return out, g.dims(NumDirections)

	case DataPotential:
		gs := g.groups[group]
		out := make([]float32, len(g.cells))
		if gs != nil {
			for i := range g.cells {
				out[i] = gs.fields.Potential(int32(i))
			}
		}
		return out, g.dims(1)
	}
	return nil, FieldDims{}
}

// VectorField returns a read-only snapshot of one of the vector
// visualization fields (discomfort, heightDelta, avgVelocity, velocity,
// potentialDelta).
func (g *Grid) VectorField(key DataKey, group simagent.GroupID) ([]Vec2, FieldDims) {
	switch key {
	case DataDiscomfort:
		out := make([]Vec2, len(g.cells))
		for i := range g.cells {
			c := &g.cells[i]
			out[i] = c.StaticDiscomfort.XZ().Scale(c.StaticDiscomfort.Y).
				Add(c.MobileDiscomfort.XZ().Scale(c.MobileDiscomfort.Y))
		}
		return out, g.dims(1)

	case DataAvgVelocity:
		out := make([]Vec2, len(g.cells))
		for i := range g.cells {
			out[i] = g.cells[i].AvgVelocity
		}
		return out, g.dims(1)

	case DataHeightDelta:
		// Preserved verbatim for display only, per §9's open question: the
		// scaling has no physical meaning and must never feed back into
		// the solve.
		scale := g.squareSize / float32(g.downscale) / 2
		out := make([]Vec2, len(g.cells)*NumDirections)
		for i := range g.cells {
			c := &g.cells[i]
			for d := Dir(0); d < NumDirections; d++ {
				slope := g.directionalSlope(c.Edges[d], d)
				out[i*NumDirections+int(d)] = d.Vector().Scale(slope * scale)
			}
		}
		return out, g.dims(NumDirections)

	case DataVelocity:
		gs := g.groups[group]
		out := make([]Vec2, len(g.cells)*NumDirections)
		if gs != nil {
			for i := range g.cells {
				c := &g.cells[i]
				for d := Dir(0); d < NumDirections; d++ {
					out[i*NumDirections+int(d)] = gs.fields.edgeVelocity[c.Edges[d]][d]
				}
			}
		}
		return out, g.dims(NumDirections)

	case DataPotentialDelta:
		gs := g.groups[group]
		out := make([]Vec2, len(g.cells)*NumDirections)
		if gs != nil {
			for i := range g.cells {
				c := &g.cells[i]
				for d := Dir(0); d < NumDirections; d++ {
					out[i*NumDirections+int(d)] = gs.fields.edgePotentialDelta[c.Edges[d]][d]
				}
			}
		}
		return out, g.dims(NumDirections)
	}
	return nil, FieldDims{}
}
