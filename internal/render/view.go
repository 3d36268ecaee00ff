package render

import "strings"

// Mode is the map display mode.
type Mode string

const (
	ModeOverview Mode = "overview"
	ModeDetailed Mode = "detailed"
)

// View is the renderer's display state. The zero value is the overview; a
// detailed view always carries a non-empty selected storm id.
type View struct {
	selected string
}

// Overview returns the all-storms view.
func Overview() View {
	return View{}
}

// Detailed returns the drill-down view for one storm. A blank id yields the overview.
func Detailed(stormID string) View {
	return View{selected: strings.TrimSpace(stormID)}
}

// Mode reports whether the view is the overview or a drill-down.
func (v View) Mode() Mode {
	if v.selected == "" {
		return ModeOverview
	}
	return ModeDetailed
}

// Selected returns the selected storm id when the view is detailed.
func (v View) Selected() (string, bool) {
	return v.selected, v.selected != ""
}

// Select transitions to the detailed view of stormID. A blank id leaves the view unchanged.
func (v View) Select(stormID string) View {
	next := Detailed(stormID)
	if next.Mode() == ModeOverview {
		return v
	}
	return next
}

// Back returns to the overview, clearing the selection.
func (v View) Back() View {
	return Overview()
}

func (v View) String() string {
	if id, ok := v.Selected(); ok {
		return string(ModeDetailed) + "(" + id + ")"
	}
	return string(ModeOverview)
}
