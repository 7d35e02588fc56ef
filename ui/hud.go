package ui

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orbs/telemetry"
)

// HUDData holds everything the main HUD shows.
type HUDData struct {
	Title          string
	Generation     int
	GenerationTick int32
	GenerationLen  int32
	Tick           int32
	Orbs           int
	Targets        int
	Best           float32
	Mean           float32
	HighScore      float32
	Steps          int
	FPS            int32
	Paused         bool
}

// HUDActions reports which HUD buttons were clicked this frame.
type HUDActions struct {
	SpawnOrb    bool
	SpawnTarget bool
	TogglePause bool
}

// HUD renders the main heads-up display.
type HUD struct {
	painter *Painter
}

// NewHUD creates a new HUD.
func NewHUD() *HUD {
	return &HUD{painter: NewPainter()}
}

// Draw renders the HUD and its buttons.
func (h *HUD) Draw(data HUDData) HUDActions {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Generation %d | %d/%d ticks | High score %.1f", data.Generation, data.GenerationTick, data.GenerationLen, data.HighScore),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Orbs: %d | Targets: %d | Best: %.1f | Mean: %.1f", data.Orbs, data.Targets, data.Best, data.Mean),
		10, 55, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d", data.Tick, data.Steps, data.FPS),
		10, 75, 16, rl.LightGray,
	)

	// Generation progress
	progress := float32(0)
	if data.GenerationLen > 0 {
		progress = float32(data.GenerationTick) / float32(data.GenerationLen)
	}
	h.painter.Meter(10, 95, "Generation", progress, 260)

	if data.Paused {
		rl.DrawText("PAUSED", 10, 115, 16, rl.Yellow)
	}

	var actions HUDActions
	pauseLabel := "Pause"
	if data.Paused {
		pauseLabel = "Resume"
	}
	actions.TogglePause = gui.Button(rl.Rectangle{X: 10, Y: 140, Width: 90, Height: 26}, pauseLabel)
	actions.SpawnOrb = gui.Button(rl.Rectangle{X: 105, Y: 140, Width: 90, Height: 26}, "Spawn Orb")
	actions.SpawnTarget = gui.Button(rl.Rectangle{X: 200, Y: 140, Width: 100, Height: 26}, "Spawn Target")
	return actions
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders step timings per phase.
type PerfPanel struct {
	painter *Painter
	x, y    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{painter: NewPainter(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	phases := telemetry.Phases()
	lineHeight := int32(14)
	height := int32(len(phases))*lineHeight + 60
	p.painter.Panel(p.x-6, p.y-6, 250, height)

	x, y := p.x, p.y
	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Tick: %s  (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 18

	for _, phase := range phases {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += lineHeight
	}
}
