package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Painter draws panels and descriptor-driven rows with one theme.
type Painter struct {
	Theme Theme
}

// NewPainter creates a painter with the default theme.
func NewPainter() *Painter {
	return &Painter{Theme: DefaultTheme()}
}

// Panel fills a bordered background.
func (p *Painter) Panel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, p.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, p.Theme.PanelBorder)
}

// Header writes a section title. It returns the next row.
func (p *Painter) Header(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, p.Theme.HeaderFontSize, p.Theme.SectionHeader)
	return y + p.Theme.LineHeight
}

// Row writes "label: value". It returns the next row.
func (p *Painter) Row(x, y int32, label, value string) int32 {
	t := p.Theme
	rl.DrawText(label+":", x, y, t.FontSize, t.LabelColor)
	rl.DrawText(value, x+t.LabelWidth, y, t.FontSize, t.ValueColor)
	return y + t.LineHeight
}

// meterBounds is the bar rectangle right of a label.
func (p *Painter) meterBounds(x, y, width int32) rl.Rectangle {
	t := p.Theme
	return rl.Rectangle{
		X:      float32(x + t.LabelWidth),
		Y:      float32(y + 2),
		Width:  float32(width - t.LabelWidth - 50),
		Height: float32(t.BarHeight),
	}
}

// Meter shows a fraction in [0, 1] with a raygui progress bar.
func (p *Painter) Meter(x, y int32, label string, value float32, width int32) int32 {
	t := p.Theme
	value = min(max(value, 0), 1)
	rl.DrawText(label+":", x, y, t.FontSize, t.LabelColor)
	gui.ProgressBar(p.meterBounds(x, y, width), "", fmt.Sprintf("%.2f", value), value, 0, 1)
	return y + t.LineHeight + 2
}

// SignedMeter fills left or right of the center line in proportion to
// value over the wider side of rng.
func (p *Painter) SignedMeter(x, y int32, label string, value float32, rng FieldRange, width int32) int32 {
	t := p.Theme
	b := p.meterBounds(x, y, width)
	rl.DrawText(label+":", x, y, t.FontSize, t.LabelColor)
	rl.DrawRectangleRec(b, t.BarBg)

	mid := b.X + b.Width/2
	span := max(rng.Max, -rng.Min)
	if span <= 0 {
		span = 1
	}
	fill := b.Width / 2 * min(abs32(value)/span, 1)
	bar := rl.Rectangle{X: mid, Y: b.Y, Width: fill, Height: b.Height}
	c := t.BarFillPositive
	if value < 0 {
		bar.X = mid - fill
		c = t.BarFillNegative
	}
	rl.DrawRectangleRec(bar, c)
	rl.DrawLineV(rl.Vector2{X: mid, Y: b.Y}, rl.Vector2{X: mid, Y: b.Y + b.Height}, t.PanelBorder)
	rl.DrawText(fmt.Sprintf("%+.2f", value), int32(b.X+b.Width)+5, y, t.FontSize, t.ValueColor)
	return y + t.LineHeight + 2
}

// Field draws one descriptor against data.
func (p *Painter) Field(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	switch fd.Widget {
	case WidgetText:
		return p.Row(x, y, fd.Label, fd.text(data))
	case WidgetBar:
		return p.Meter(x, y, fd.Label, fd.Getter(data), width)
	case WidgetCenteredBar:
		return p.SignedMeter(x, y, fd.Label, fd.Getter(data), fd.Range, width)
	case WidgetSection:
		return p.Header(x, y, fd.Label)
	case WidgetSpacer:
		return y + 6
	}
	return y
}

// Section draws a titled group of fields unless it is hidden for data.
func (p *Painter) Section(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}
	if sd.Title != "" {
		y = p.Header(x, y, sd.Title)
	}
	for _, fd := range sd.Fields {
		y = p.Field(x, y, fd, data, width)
	}
	return y + 4
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
