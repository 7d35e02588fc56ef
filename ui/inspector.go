package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orbs/game"
)

// Inspector shows one orb's state.
type Inspector struct {
	painter  *Painter
	x, y     int32
	width    int32
	sections []SectionDescriptor
}

// NewInspector creates an inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		painter:  NewPainter(),
		x:        x,
		y:        y,
		width:    width,
		sections: orbSections(),
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the panel for an orb. selected marks a clicked orb as
// opposed to the current best.
func (ins *Inspector) Draw(orb game.OrbDetail, selected bool) {
	r := ins.painter
	padding := r.Theme.Padding
	r.Panel(ins.x, ins.y, ins.width, 230)

	title := fmt.Sprintf("Best orb #%d", orb.ID)
	if selected {
		title = fmt.Sprintf("Orb #%d", orb.ID)
	}
	y := ins.y + padding
	rl.DrawText(title, ins.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 6

	for _, sd := range ins.sections {
		y = r.Section(ins.x+padding, y, sd, orb, ins.width-padding*2)
	}
}

func orbSections() []SectionDescriptor {
	orb := func(data any) game.OrbDetail { return data.(game.OrbDetail) }
	return []SectionDescriptor{
		{
			Title: "Score",
			Fields: []FieldDescriptor{
				{Label: "Fitness", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float32 { return orb(d).Fitness }},
				{Label: "Consumed", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprint(orb(d).Consumed) }},
				{Label: "Wall ticks", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprint(orb(d).WallTicks) }},
				{Label: "Contacts", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprint(orb(d).Contacts) }},
			},
		},
		{
			Title: "Motion",
			Fields: []FieldDescriptor{
				{Label: "Position", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprintf("%.0f, %.0f", orb(d).X, orb(d).Y) }},
				{Label: "Velocity", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprintf("%.2f, %.2f", orb(d).VelX, orb(d).VelY) }},
				{Label: "Steer X", Widget: WidgetCenteredBar, Range: CenteredRange(), Getter: func(d any) float32 { return orb(d).SteerX }},
				{Label: "Steer Y", Widget: WidgetCenteredBar, Range: CenteredRange(), Getter: func(d any) float32 { return orb(d).SteerY }},
			},
		},
	}
}
