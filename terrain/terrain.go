// Package terrain provides a read-only heightmap adapter the grid package
// initializes static cell/edge state from. It satisfies simagent.Terrain.
package terrain

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/error323/continuumcrowds/simagent"
)

// Heightmap is a dense, row-major grid of per-cell heights. It is the
// terrain adapter's concrete backing store, built by NewFlat (uniform
// height) or NewProcedural (noise-generated heights).
type Heightmap struct {
	widthX, heightZ int
	squareSize      float32
	heights         []float32
	minHeight       float32
	maxHeight       float32
}

var _ simagent.Terrain = (*Heightmap)(nil)

// NewFlat builds a heightmap of uniform height h, useful for the flat-terrain
// scenarios described in the testable properties (zero slope range,
// fMin==fMax).
func NewFlat(widthX, heightZ int, squareSize, h float32) *Heightmap {
	hm := &Heightmap{
		widthX:     widthX,
		heightZ:    heightZ,
		squareSize: squareSize,
		heights:    make([]float32, widthX*heightZ),
		minHeight:  h,
		maxHeight:  h,
	}
	for i := range hm.heights {
		hm.heights[i] = h
	}
	return hm
}

// NewProcedural builds a heightmap using tiled OpenSimplex noise, the same
// noise family the rest of this corpus leans on for terrain and resource
// fields. octaves layers of fractal Brownian motion are summed at the given
// frequency/amplitude falloff.
func NewProcedural(widthX, heightZ int, squareSize float32, seed int64, octaves int, frequency, amplitude float64) *Heightmap {
	noise := opensimplex.New(seed)

	hm := &Heightmap{
		widthX:     widthX,
		heightZ:    heightZ,
		squareSize: squareSize,
		heights:    make([]float32, widthX*heightZ),
	}

	min := float32(1e30)
	max := float32(-1e30)
	for z := 0; z < heightZ; z++ {
		for x := 0; x < widthX; x++ {
			h := float32(fbm(noise, float64(x), float64(z), octaves, frequency, amplitude))
			hm.heights[z*widthX+x] = h
			if h < min {
				min = h
			}
			if h > max {
				max = h
			}
		}
	}
	hm.minHeight = min
	hm.maxHeight = max
	return hm
}

func fbm(noise opensimplex.Noise, x, z float64, octaves int, frequency, amplitude float64) float64 {
	var sum float64
	freq, amp := frequency, amplitude
	for o := 0; o < octaves; o++ {
		sum += noise.Eval2(x*freq, z*freq) * amp
		freq *= 2
		amp *= 0.5
	}
	return sum
}

// GridSize implements simagent.Terrain.
func (hm *Heightmap) GridSize() (nx, nz int) { return hm.widthX, hm.heightZ }

// SquareSize implements simagent.Terrain.
func (hm *Heightmap) SquareSize() float32 { return hm.squareSize }

// MinHeight implements simagent.Terrain.
func (hm *Heightmap) MinHeight() float32 { return hm.minHeight }

// MaxHeight implements simagent.Terrain.
func (hm *Heightmap) MaxHeight() float32 { return hm.maxHeight }

// CenterHeight implements simagent.Terrain. x, z are clamped to the
// heightmap bounds so callers at the grid's border never read out of
// range.
func (hm *Heightmap) CenterHeight(x, z int) float32 {
	if x < 0 {
		x = 0
	}
	if x >= hm.widthX {
		x = hm.widthX - 1
	}
	if z < 0 {
		z = 0
	}
	if z >= hm.heightZ {
		z = hm.heightZ - 1
	}
	return hm.heights[z*hm.widthX+x]
}
