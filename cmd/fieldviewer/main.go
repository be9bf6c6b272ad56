// Field viewer - interactive visualization of a running grid's scalar taps.
//
// Usage: go run ./cmd/fieldviewer [-config path.yaml]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"math/rand"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/error323/continuumcrowds/config"
	"github.com/error323/continuumcrowds/ecsagent"
	"github.com/error323/continuumcrowds/grid/cc"
	"github.com/error323/continuumcrowds/path"
	"github.com/error323/continuumcrowds/simagent"
	"github.com/error323/continuumcrowds/telemetry"
	"github.com/error323/continuumcrowds/terrain"
)

const (
	windowWidth  = 1040
	windowHeight = 760
	previewSize  = 560
	panelWidth   = windowWidth - previewSize - 30
	gridCells    = 64
	agentCount   = 80
)

// fieldSpec names one of the scalar taps a viewer can cycle through.
// Edge-centered fields (stride 4: speed, cost) are averaged over direction
// for display.
type fieldSpec struct {
	name string
	key  cc.DataKey
}

var fields = []fieldSpec{
	{"density", cc.DataDensity},
	{"height", cc.DataHeight},
	{"speed", cc.DataSpeed},
	{"cost", cc.DataCost},
	{"potential", cc.DataPotential},
}

func main() {
	configPath := flag.String("config", "", "override YAML config path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	hm := terrain.NewProcedural(gridCells, gridCells, 1.0, 7, 4, 0.08, 6.0)
	grid := cc.New(hm, cfg)
	module := path.New(grid, cfg)

	world := ecs.NewWorld()
	adapter := ecsagent.NewAdapter(&world)

	perf := telemetry.NewPerfCollector(60)
	module.SetPerfCollector(perf)

	nx, nz := hm.GridSize()
	agents := spawnRing(adapter, module, nx, nz, hm.SquareSize())
	goalX, goalZ := float32(nx)*hm.SquareSize()/2, float32(nz)*hm.SquareSize()/2
	module.HandleEvent(path.Event{Kind: path.MoveOrder, IDs: agents, GoalX: goalX, GoalZ: goalZ}, adapter, adapter)

	rl.InitWindow(windowWidth, windowHeight, "Continuum Crowds Field Viewer")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	img := rl.GenImageColor(gridCells, gridCells, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	running := true
	fieldIdx := 0
	// group is the demo crowd's current group; every click issues a new
	// MoveOrder, which allocates a fresh group id.
	var group simagent.GroupID

	for !rl.WindowShouldClose() {
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
			mx, my := rl.GetMouseX(), rl.GetMouseY()
			if mx >= 10 && mx < 10+previewSize && my >= 10 && my < 10+previewSize {
				u := float32(mx-10) / previewSize
				v := float32(my-10) / previewSize
				goalX = u * float32(nx) * hm.SquareSize()
				goalZ = v * float32(nz) * hm.SquareSize()
				module.HandleEvent(path.Event{Kind: path.MoveOrder, IDs: agents, GoalX: goalX, GoalZ: goalZ}, adapter, adapter)
			}
		}
		if rl.IsKeyPressed(rl.KeyRight) {
			fieldIdx = (fieldIdx + 1) % len(fields)
		}
		if rl.IsKeyPressed(rl.KeyLeft) {
			fieldIdx = (fieldIdx - 1 + len(fields)) % len(fields)
		}
		if rl.IsKeyPressed(rl.KeySpace) {
			running = !running
		}

		if running {
			module.Tick(adapter, adapter, rl.GetFrameTime())
		}
		perf.RecordFrame()

		if gid, ok := module.GroupOf(agents[0]); ok {
			group = gid
		}
		values, dims := grid.ScalarField(fields[fieldIdx].key, group)
		reduced := reduceStride(values, dims)
		minV, maxV, avgV := updateTexture(texture, reduced, dims.SizeX, dims.SizeZ)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(dims.SizeX), Height: float32(dims.SizeZ)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)
		for _, id := range agents {
			x, z := adapter.Position(id)
			px := 10 + x/(float32(nx)*hm.SquareSize())*previewSize
			pz := 10 + z/(float32(nz)*hm.SquareSize())*previewSize
			rl.DrawCircle(int32(px), int32(pz), 2, rl.Red)
		}

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Field: %s  Min: %.3f  Max: %.3f  Avg: %.3f", fields[fieldIdx].name, minV, maxV, avgV), 15, statsY, 16, rl.DarkGray)
		rl.DrawText("Left/Right cycle field, Space pause, click to set goal", 15, statsY+20, 14, rl.Gray)

		ps := perf.Stats()
		rl.DrawText(fmt.Sprintf("Tick: %.2fms (solve %.0f%% advect %.0f%% splat %.0f%%)  %.0f tps",
			float64(ps.AvgTickDuration.Microseconds())/1000.0, ps.PhasePct[telemetry.PhaseSolve],
			ps.PhasePct[telemetry.PhaseAdvect], ps.PhasePct[telemetry.PhaseSplat], ps.TicksPerSecond),
			15, statsY+40, 14, rl.Gray)

		drawWeightPanel(cfg, grid)

		rl.EndDrawing()
	}
}

// spawnRing places agentCount agents evenly on a ring around the grid's
// centre (radius 0.45 of the grid extent), facing inward, and fires an
// ObjectCreated event for each.
func spawnRing(adapter *ecsagent.Adapter, module *path.Module, nx, nz int, squareSize float32) []simagent.AgentID {
	ids := make([]simagent.AgentID, 0, agentCount)
	w := float32(nx) * squareSize
	h := float32(nz) * squareSize
	def := simagent.Def{
		MinSlope:        0.2,
		MaxSlope:        0.7,
		MaxForwardSpeed: 1.4,
		MaxAccRate:      2.0,
		MaxDecRate:      3.0,
		MaxTurnRate:     3.0,
	}
	for i := 0; i < agentCount; i++ {
		a := float64(i) / float64(agentCount) * 2 * math.Pi
		x := w/2 + float32(math.Cos(a))*w*0.45
		z := h/2 + float32(math.Sin(a))*h*0.45
		x += (rand.Float32() - 0.5) * squareSize
		z += (rand.Float32() - 0.5) * squareSize

		id := adapter.Spawn(x, z, -float32(math.Cos(a)), -float32(math.Sin(a)), 0.3, def)
		module.HandleEvent(path.Event{Kind: path.ObjectCreated, ID: id}, adapter, adapter)
		ids = append(ids, id)
	}
	return ids
}

// reduceStride collapses a stride-4 edge-centered field into a stride-1
// cell-centered one by averaging across directions; stride-1 fields pass
// through unchanged.
func reduceStride(values []float32, dims cc.FieldDims) []float32 {
	if dims.Stride <= 1 {
		return values
	}
	n := dims.SizeX * dims.SizeZ
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for d := 0; d < dims.Stride; d++ {
			sum += values[i*dims.Stride+d]
		}
		out[i] = sum / float32(dims.Stride)
	}
	return out
}

// drawWeightPanel renders live sliders over the cost/density weights that
// drive the solve. Any change re-finalizes cfg so the next tick picks it up.
func drawWeightPanel(cfg *config.Config, grid *cc.Grid) {
	panelX := float32(previewSize + 20)
	panelY := float32(10)

	rl.DrawText("Cost & Density Weights", int32(panelX), int32(panelY), 20, rl.DarkGray)
	panelY += 35

	changed := false
	changed = slider(panelX, &panelY, "alpha", &cfg.Cost.Alpha, 0, 5) || changed
	changed = slider(panelX, &panelY, "beta", &cfg.Cost.Beta, 0, 5) || changed
	changed = slider(panelX, &panelY, "gamma", &cfg.Cost.Gamma, 0, 10) || changed
	panelY += 10
	changed = slider(panelX, &panelY, "rho_bar", &cfg.Density.RhoBar, 0.01, 1) || changed
	changed = slider(panelX, &panelY, "rho_min", &cfg.Density.RhoMin, 0.01, 2) || changed
	changed = slider(panelX, &panelY, "rho_max", &cfg.Density.RhoMax, 0.1, 4) || changed

	if changed {
		if err := cfg.Finalize(); err != nil {
			// Leave the previous valid values in effect; the invalid edit
			// (e.g. rho_min crossing rho_max) is silently rejected until
			// the slider settles back into a valid range.
			return
		}
	}

	panelY += 25
	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 160, Height: 30}, "Save fieldviewer-config.yaml") {
		_ = cfg.WriteYAML("fieldviewer-config.yaml")
	}
	_ = grid
}

func slider(panelX float32, panelY *float32, label string, value *float64, lo, hi float64) bool {
	rl.DrawText(label, int32(panelX), int32(*panelY), 14, rl.Gray)
	*panelY += 18
	newVal := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: *panelY, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf("%.2f", lo), fmt.Sprintf("%.2f", hi),
		float32(*value), float32(lo), float32(hi),
	)
	rl.DrawText(fmt.Sprintf("%.3f", *value), int32(panelX+float32(panelWidth-70)), int32(*panelY+2), 14, rl.DarkGray)
	*panelY += 30

	if float64(newVal) != *value {
		*value = float64(newVal)
		return true
	}
	return false
}

// updateTexture paints grid into texture using the same four-stop color
// gradient (dark blue -> cyan -> yellow -> white) used for every scalar tap,
// normalizing against the field's own min/max so every field is visible
// regardless of its native range. Returns the pre-normalization min/max/avg.
func updateTexture(texture rl.Texture2D, grid []float32, sizeX, sizeZ int) (minV, maxV, avgV float32) {
	minV, maxV = grid[0], grid[0]
	var sum float32
	for _, v := range grid {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	avgV = sum / float32(len(grid))

	span := maxV - minV
	if span < 1e-6 {
		span = 1
	}

	pixels := make([]color.RGBA, sizeX*sizeZ)
	for i, raw := range grid {
		v := (raw - minV) / span
		pixels[i] = gradient(v)
	}
	rl.UpdateTexture(texture, pixels)
	return minV, maxV, avgV
}

// gradient maps a normalized [0,1] value to a dark-blue -> cyan -> yellow ->
// white color ramp.
func gradient(v float32) color.RGBA {
	var r, g, b uint8
	switch {
	case v < 0.25:
		t := v / 0.25
		r = uint8(10 + t*30)
		g = uint8(20 + t*60)
		b = uint8(60 + t*100)
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r = uint8(40 + t*20)
		g = uint8(80 + t*120)
		b = uint8(160 + t*40)
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r = uint8(60 + t*140)
		g = uint8(200 - t*40)
		b = uint8(200 - t*150)
	default:
		t := (v - 0.75) / 0.25
		r = uint8(200 + t*55)
		g = uint8(160 + t*95)
		b = uint8(50 + t*205)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
