// Spawn field preview tool - interactive view of target placement with sliders.
//
// Usage: go run ./cmd/fieldpreview [-config file]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orbs/config"
	"github.com/pthm-cable/orbs/renderer"
	"github.com/pthm-cable/orbs/systems"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	previewWidth = 720
	panelWidth   = windowWidth - previewWidth - 30
	gridCols     = 180
)

// fieldParams holds the editable target placement settings.
type fieldParams struct {
	Clustered  bool
	NoiseScale float32
	Contrast   float32
	Seed       int64
	Count      int
}

func paramsFromConfig(cfg *config.Config) fieldParams {
	return fieldParams{
		Clustered:  cfg.Target.Distribution == config.DistributionClustered,
		NoiseScale: float32(cfg.Target.NoiseScale),
		Contrast:   float32(cfg.Target.Contrast),
		Seed:       1,
		Count:      cfg.Target.Count,
	}
}

func (p fieldParams) yaml() string {
	dist := config.DistributionUniform
	if p.Clustered {
		dist = config.DistributionClustered
	}
	return fmt.Sprintf("target:\n  count: %d\n  distribution: %s\n  noise_scale: %.4f\n  contrast: %.2f",
		p.Count, dist, p.NoiseScale, p.Contrast)
}

func main() {
	configPath := flag.String("config", "", "Config file, YAML or INI (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	arena := systems.Rect{W: cfg.Derived.ArenaW32, H: cfg.Derived.ArenaH32}
	margin := float32(cfg.Target.Radius)
	scale := float32(previewWidth) / arena.W
	previewHeight := arena.H * scale
	gridRows := int(float32(gridCols) * arena.H / arena.W)
	if gridRows < 1 {
		gridRows = 1
	}

	rl.InitWindow(windowWidth, windowHeight, "Spawn Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	backdrop := renderer.NewDensityRenderer(gridCols, gridRows, renderer.HeatRamp)
	backdrop.Init()
	defer backdrop.Unload()

	defaults := paramsFromConfig(cfg)
	params := defaults
	var density []float32
	var points []rl.Vector2
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			field := systems.NewSpawnField(params.Seed, arena, margin, params.Clustered,
				float64(params.NoiseScale), float64(params.Contrast))
			density = field.Rasterize(gridCols, gridRows, density)
			backdrop.Update(density)
			points = samplePoints(field, params, points[:0])
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		backdrop.Draw(rl.Rectangle{X: 10, Y: 10, Width: previewWidth, Height: previewHeight})
		for _, p := range points {
			rl.DrawCircleV(rl.Vector2{X: 10 + p.X*scale, Y: 10 + p.Y*scale}, 2, rl.Orange)
		}
		rl.DrawRectangleLines(10, 10, previewWidth, int32(previewHeight), rl.DarkGray)

		var sum, maxVal float32
		minVal := float32(1)
		for _, v := range density {
			sum += v
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
		statsY := int32(previewHeight + 25)
		rl.DrawText(fmt.Sprintf("Density min: %.3f  max: %.3f  avg: %.3f", minVal, maxVal, sum/float32(len(density))), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Arena %.0fx%.0f  targets: %d", arena.W, arena.H, len(points)), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewWidth + 20)
		panelY := float32(10)
		rl.DrawText("Target Placement", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 160, Height: 30}, toggleText(params.Clustered, "Clustered", "Uniform")) {
			params.Clustered = !params.Clustered
			needsRegen = true
		}
		panelY += 45

		slider := func(label, lo, hi string, value, minV, maxV float32, format string) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				lo, hi, value, minV, maxV,
			)
			rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		if v := slider("Noise scale (patch frequency)", "0.0005", "0.02", params.NoiseScale, 0.0005, 0.02, "%.4f"); v != params.NoiseScale {
			params.NoiseScale = v
			needsRegen = true
		}
		if v := slider("Contrast (exponent - higher = tighter)", "0.5", "8", params.Contrast, 0.5, 8, "%.2f"); v != params.Contrast {
			params.Contrast = v
			needsRegen = true
		}
		if v := slider("Target count", "10", "1000", float32(params.Count), 10, 1000, "%.0f"); int(v) != params.Count {
			params.Count = int(v)
			needsRegen = true
		}
		if v := slider("Seed", "0", "99999", float32(params.Seed), 0, 99999, "%.0f"); int64(v) != params.Seed {
			params.Seed = int64(v)
			needsRegen = true
		}
		panelY += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(params.yaml(), int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(params.yaml())
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// samplePoints draws target positions with the same sampler the simulation uses.
func samplePoints(field *systems.SpawnField, params fieldParams, dst []rl.Vector2) []rl.Vector2 {
	rng := rand.New(rand.NewSource(params.Seed))
	for i := 0; i < params.Count; i++ {
		x, y := field.Sample(rng)
		dst = append(dst, rl.Vector2{X: x, Y: y})
	}
	return dst
}
