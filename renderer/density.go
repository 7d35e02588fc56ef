// Package renderer draws precomputed scalar fields as textures.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ColorMap turns a value in [0, 1] into a pixel color.
type ColorMap func(v float32) color.RGBA

// DensityRenderer renders a row-major grid of values stretched over a
// rectangle. Init must run after the raylib window is created.
type DensityRenderer struct {
	tex        rl.Texture2D
	texW, texH int
	colors     ColorMap
	pixels     []color.RGBA

	initialized bool
}

// NewDensityRenderer creates a renderer for a cols x rows grid. A nil
// ColorMap uses FogRamp.
func NewDensityRenderer(cols, rows int, colors ColorMap) *DensityRenderer {
	if colors == nil {
		colors = FogRamp
	}
	return &DensityRenderer{texW: cols, texH: rows, colors: colors}
}

// Size returns the grid dimensions.
func (r *DensityRenderer) Size() (cols, rows int) { return r.texW, r.texH }

// Init creates the GPU texture.
func (r *DensityRenderer) Init() {
	if r.initialized {
		return
	}
	img := rl.GenImageColor(r.texW, r.texH, rl.Blank)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterBilinear)
	rl.UnloadImage(img)
	r.pixels = make([]color.RGBA, r.texW*r.texH)
	r.initialized = true
}

// Update uploads new grid values. Data of the wrong length is ignored.
func (r *DensityRenderer) Update(data []float32) {
	if !r.initialized {
		r.Init()
	}
	if len(data) != len(r.pixels) {
		return
	}
	for i, v := range data {
		r.pixels[i] = r.colors(clamp01(v))
	}
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw stretches the texture over dst. Inside BeginMode2D dst is in world
// coordinates.
func (r *DensityRenderer) Draw(dst rl.Rectangle) {
	if !r.initialized {
		return
	}
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(r.texW), Height: float32(r.texH)}
	rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *DensityRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}

// FogRamp is a translucent green wash, transparent at zero.
func FogRamp(v float32) color.RGBA {
	return color.RGBA{R: uint8(40 + v*30), G: uint8(90 + v*110), B: uint8(60 + v*20), A: uint8(v * 110)}
}

// HeatRamp is an opaque dark blue -> cyan -> yellow -> white gradient.
func HeatRamp(v float32) color.RGBA {
	var r, g, b uint8
	switch {
	case v < 0.25:
		t := v / 0.25
		r, g, b = uint8(10+t*30), uint8(20+t*60), uint8(60+t*100)
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r, g, b = uint8(40+t*20), uint8(80+t*120), uint8(160+t*40)
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r, g, b = uint8(60+t*140), uint8(200-t*40), uint8(200-t*150)
	default:
		t := (v - 0.75) / 0.25
		r, g, b = uint8(200+t*55), uint8(160+t*95), uint8(50+t*205)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
