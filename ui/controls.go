package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsPanel is a clickable checklist of overlays grouped by category.
type ControlsPanel struct {
	painter *Painter
	x, y    int32
	width   int32
	visible bool
}

// NewControlsPanel creates a hidden controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{painter: NewPainter(), x: x, y: y, width: width}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Visible reports whether the panel is shown.
func (c *ControlsPanel) Visible() bool { return c.visible }

// Contains reports whether a screen point falls on the visible panel.
func (c *ControlsPanel) Contains(overlays *OverlayRegistry, p rl.Vector2) bool {
	if !c.visible {
		return false
	}
	return rl.CheckCollisionPointRec(p, rl.Rectangle{
		X: float32(c.x), Y: float32(c.y),
		Width: float32(c.width), Height: float32(c.height(overlays)),
	})
}

func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	t := c.painter.Theme
	cats := overlays.Categories()
	rows := len(cats)
	for _, cat := range cats {
		rows += len(overlays.ByCategory(cat))
	}
	return int32(rows)*t.LineHeight + t.LineHeight + t.Padding*2 + int32(len(cats))*4 + 4
}

// Draw renders the checklist, applying clicks to overlays. It returns the Y
// below the panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}
	t := c.painter.Theme
	c.painter.Panel(c.x, c.y, c.width, c.height(overlays))

	x := c.x + t.Padding
	y := c.y + t.Padding
	rl.DrawText("Overlays [H]", x, y, 16, rl.White)
	y += t.LineHeight + 4

	box := float32(t.LineHeight - 4)
	for _, cat := range overlays.Categories() {
		y = c.painter.Header(x, y, categoryLabel(cat))
		for _, desc := range overlays.ByCategory(cat) {
			label := desc.Name
			if desc.KeyLabel != "" {
				label += " [" + desc.KeyLabel + "]"
			}
			on := overlays.IsEnabled(desc.ID)
			bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: box, Height: box}
			if gui.CheckBox(bounds, label, on) != on {
				overlays.Toggle(desc.ID)
			}
			y += t.LineHeight
		}
		y += 4
	}
	return y
}

var categoryLabels = map[string]string{
	"visual":     "Visual",
	"perception": "Perception",
	"debug":      "Debug",
}

func categoryLabel(cat string) string {
	if l, ok := categoryLabels[cat]; ok {
		return l
	}
	return cat
}
