package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orbs/camera"
	"github.com/pthm-cable/orbs/components"
	"github.com/pthm-cable/orbs/game"
	"github.com/pthm-cable/orbs/renderer"
	"github.com/pthm-cable/orbs/systems"
	"github.com/pthm-cable/orbs/telemetry"
)

// densityCols is the horizontal resolution of the target density backdrop.
const densityCols = 160

const controlsLegend = "[Arrows/WASD] Steer  [Space] Pause  [<][>] Speed  [O] Orb  [T] Target  [Click] Select  [Wheel/Middle] Zoom/Pan  [Home] Reset view  [H] Overlays  [F11] Fullscreen"

var (
	backgroundColor = rl.Color{R: 12, G: 16, B: 22, A: 255}
	targetColor     = rl.Color{R: 240, G: 200, B: 80, A: 255}
	playerColor     = rl.Color{R: 90, G: 200, B: 255, A: 255}
	rayColor        = rl.Color{R: 120, G: 120, B: 140, A: 60}
	rayHitColor     = rl.Color{R: 255, G: 120, B: 90, A: 120}
	visionColor     = rl.Color{R: 120, G: 160, B: 220, A: 40}
	quadTreeColor   = rl.Color{R: 70, G: 200, B: 120, A: 90}
)

// App is the windowed front end for a game. It must be used from the
// goroutine that owns the raylib window.
type App struct {
	game     *game.Game
	title    string
	camera   *camera.Camera
	hud      *HUD
	perf     *PerfPanel
	controls *ControlsPanel
	inspect  *Inspector
	overlays *OverlayRegistry
	density  *renderer.DensityRenderer

	selected    uint32
	hasSelected bool
}

// NewApp creates the front end. The raylib window must already be open.
func NewApp(g *game.Game, title string) *App {
	w := int32(rl.GetScreenWidth())
	arena := g.Arena()
	a := &App{
		game:     g,
		title:    title,
		camera:   camera.New(float32(w), float32(rl.GetScreenHeight()), arena.W, arena.H),
		hud:      NewHUD(),
		perf:     NewPerfPanel(w-250, 10),
		controls: NewControlsPanel(10, 180, 200),
		inspect:  NewInspector(w-240, 200, 230),
		overlays: NewOverlayRegistry(),
	}
	if g.ClusteredTargets() {
		rows := max(1, int(densityCols*arena.H/arena.W))
		a.density = renderer.NewDensityRenderer(densityCols, rows, renderer.FogRamp)
		a.density.Update(g.TargetDensity(densityCols, rows, nil))
		a.overlays.SetEnabled(OverlayDensity, true)
	}
	return a
}

// Close releases GPU resources. Call it before the window closes.
func (a *App) Close() {
	if a.density != nil {
		a.density.Unload()
	}
}

// Overlays exposes the overlay registry.
func (a *App) Overlays() *OverlayRegistry { return a.overlays }

// Update handles input, advances the game and draws one frame.
func (a *App) Update() {
	a.HandleInput()
	a.game.Update()
	a.Draw()
}

// HandleInput processes keyboard and mouse input.
func (a *App) HandleInput() {
	if rl.IsWindowResized() {
		w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
		a.camera.Resize(float32(w), float32(h))
		a.perf.SetPosition(w-250, 10)
		a.inspect.SetPosition(w-240, 200)
	}

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.game.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyComma) {
		a.game.AdjustSteps(-1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		a.game.AdjustSteps(1)
	}
	if rl.IsKeyPressed(rl.KeyH) {
		a.controls.Toggle()
	}
	for _, key := range a.overlays.Keys() {
		if rl.IsKeyPressed(key) {
			a.overlays.HandleKeyPress(key)
		}
	}

	a.handleCameraInput()

	mouse := rl.GetMousePosition()
	wx, wy := a.camera.ScreenToWorld(mouse.X, mouse.Y)
	if rl.IsKeyPressed(rl.KeyO) {
		a.game.RequestSpawn(components.KindOrb, wx, wy, true)
	}
	if rl.IsKeyPressed(rl.KeyT) {
		a.game.RequestSpawn(components.KindTarget, wx, wy, true)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !overHUD(mouse) && !a.controls.Contains(a.overlays, mouse) {
		a.selected, a.hasSelected = a.game.OrbAt(wx, wy)
	}

	a.game.SetPlayerSteer(steerInput())
}

func (a *App) handleCameraInput() {
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		a.camera.Pan(-d.X, -d.Y)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		a.camera.Reset()
	}
}

func (a *App) camera2D() rl.Camera2D {
	return rl.Camera2D{
		Offset: rl.Vector2{X: a.camera.ViewportW / 2, Y: a.camera.ViewportH / 2},
		Target: rl.Vector2{X: a.camera.X, Y: a.camera.Y},
		Zoom:   a.camera.Zoom,
	}
}

func steerInput() (float32, float32) {
	var x, y float32
	if rl.IsKeyDown(rl.KeyRight) || rl.IsKeyDown(rl.KeyD) {
		x++
	}
	if rl.IsKeyDown(rl.KeyLeft) || rl.IsKeyDown(rl.KeyA) {
		x--
	}
	if rl.IsKeyDown(rl.KeyDown) || rl.IsKeyDown(rl.KeyS) {
		y++
	}
	if rl.IsKeyDown(rl.KeyUp) || rl.IsKeyDown(rl.KeyW) {
		y--
	}
	return x, y
}

// overHUD reports whether the point falls on the HUD buttons.
func overHUD(p rl.Vector2) bool {
	return p.X < 310 && p.Y < 170
}

// Draw renders the arena and all panels.
func (a *App) Draw() {
	frame := a.game.Frame()
	best, hasBest := frame.Best()

	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)
	rl.BeginMode2D(a.camera2D())

	arena := a.game.Arena()
	bounds := rl.Rectangle{X: arena.X, Y: arena.Y, Width: arena.W, Height: arena.H}
	if a.density != nil && a.overlays.IsEnabled(OverlayDensity) {
		a.density.Draw(bounds)
	}
	rl.DrawRectangleLinesEx(bounds, 1, rl.DarkGray)

	if a.overlays.IsEnabled(OverlayQuadTree) {
		a.drawQuadTree()
	}
	for _, t := range frame.Targets {
		if !a.camera.IsVisible(t.X, t.Y, t.Radius) {
			continue
		}
		rl.DrawCircleV(rl.Vector2{X: t.X, Y: t.Y}, t.Radius, targetColor)
	}
	if a.overlays.IsEnabled(OverlayRays) {
		a.drawRays()
	}
	if a.overlays.IsEnabled(OverlayVision) {
		vr := a.game.VisionRange()
		for _, o := range frame.Orbs {
			rl.DrawCircleLines(int32(o.X), int32(o.Y), vr, visionColor)
		}
	}
	a.drawOrbs(frame, best, hasBest)
	if frame.Player != nil {
		rl.DrawCircleV(rl.Vector2{X: frame.Player.X, Y: frame.Player.Y}, frame.Player.Radius, playerColor)
	}
	rl.EndMode2D()

	a.drawPanels(frame, best, hasBest)

	rl.EndDrawing()
	a.game.RecordFrame()
}

func (a *App) drawOrbs(frame *telemetry.Frame, best telemetry.FrameOrb, hasBest bool) {
	lo, hi := fitnessRange(frame.Orbs)
	for _, o := range frame.Orbs {
		c := orbColor(o.Fitness, lo, hi)
		center := rl.Vector2{X: o.X, Y: o.Y}
		rl.DrawCircleV(center, o.Radius, c)

		if hasBest && o.ID == best.ID && a.overlays.IsEnabled(OverlayBest) {
			rl.DrawCircleLines(int32(o.X), int32(o.Y), o.Radius+4, rl.Gold)
		}
		if a.hasSelected && o.ID == a.selected {
			rl.DrawCircleLines(int32(o.X), int32(o.Y), o.Radius+7, rl.White)
		}
	}
}

func (a *App) drawRays() {
	a.game.VisitRays(func(fromX, fromY float32, hit components.RayHit) {
		c := rayColor
		if hit.Hit {
			c = rayHitColor
		}
		rl.DrawLineV(rl.Vector2{X: fromX, Y: fromY}, rl.Vector2{X: hit.EndX, Y: hit.EndY}, c)
	})
}

func (a *App) drawQuadTree() {
	a.game.VisitIndex(func(b systems.Rect, level, entries int) {
		rl.DrawRectangleLinesEx(rl.Rectangle{X: b.X, Y: b.Y, Width: b.W, Height: b.H}, 1, quadTreeColor)
	})
}

func (a *App) drawPanels(frame *telemetry.Frame, best telemetry.FrameOrb, hasBest bool) {
	ws := a.game.WorldState()
	actions := a.hud.Draw(HUDData{
		Title:          a.title,
		Generation:     frame.Generation,
		GenerationTick: frame.GenerationTick,
		GenerationLen:  frame.GenerationLen,
		Tick:           frame.Tick,
		Orbs:           ws.Orbs,
		Targets:        ws.Targets,
		Best:           ws.BestFitness,
		Mean:           ws.MeanFitness,
		HighScore:      frame.HighScore,
		Steps:          a.game.StepsPerUpdate(),
		FPS:            rl.GetFPS(),
		Paused:         frame.Paused,
	})
	if actions.TogglePause {
		a.game.TogglePause()
	}
	if actions.SpawnOrb {
		a.game.RequestSpawn(components.KindOrb, 0, 0, false)
	}
	if actions.SpawnTarget {
		a.game.RequestSpawn(components.KindTarget, 0, 0, false)
	}

	if a.overlays.IsEnabled(OverlayInspector) {
		id, selected := best.ID, false
		if a.hasSelected {
			id, selected = a.selected, true
		}
		if detail, ok := a.game.OrbDetail(id); ok && (selected || hasBest) {
			a.inspect.Draw(detail, selected)
		}
	}
	if a.overlays.IsEnabled(OverlayPerf) {
		a.perf.Draw(a.game.PerfStats())
	}
	a.controls.Draw(a.overlays)
	a.hud.DrawControls(int32(rl.GetScreenHeight()), controlsLegend)
}

func fitnessRange(orbs []telemetry.FrameOrb) (float32, float32) {
	if len(orbs) == 0 {
		return 0, 0
	}
	lo, hi := orbs[0].Fitness, orbs[0].Fitness
	for _, o := range orbs[1:] {
		lo = min(lo, o.Fitness)
		hi = max(hi, o.Fitness)
	}
	return lo, hi
}

// orbColor shades from red (worst) to green (best) within the generation.
func orbColor(fitness, lo, hi float32) rl.Color {
	t := float32(0.5)
	if hi > lo {
		t = (fitness - lo) / (hi - lo)
	}
	return rl.Color{
		R: uint8(220 - 150*t),
		G: uint8(70 + 150*t),
		B: 90,
		A: 230,
	}
}
