package render

import (
	"log/slog"
	"sync"
)

// EventSink receives user interactions forwarded from a map surface.
type EventSink interface {
	OnHover(stormID string, observation int)
	OnSelect(stormID string)
}

// Interactions owns the current View and routes surface events: hovers go
// straight to the sink, selections and back-navigation also move the view.
type Interactions struct {
	mu     sync.Mutex
	view   View
	sink   EventSink
	logger *slog.Logger
}

// NewInteractions starts in the overview. sink may be nil.
func NewInteractions(sink EventSink, logger *slog.Logger) *Interactions {
	return &Interactions{view: Overview(), sink: sink, logger: logger}
}

// View returns the current view.
func (i *Interactions) View() View {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.view
}

// Hover forwards a hover over observation obs of stormID. obs is -1 for a
// whole-track hover in the overview.
func (i *Interactions) Hover(stormID string, obs int) {
	if i.sink != nil {
		i.sink.OnHover(stormID, obs)
	}
}

// Select drills into stormID and returns the new view. A blank id, or the
// storm already selected, is ignored.
func (i *Interactions) Select(stormID string) View {
	i.mu.Lock()
	prev := i.view
	i.view = i.view.Select(stormID)
	next := i.view
	i.mu.Unlock()

	if next == prev {
		return next
	}
	id, _ := next.Selected()
	i.logger.Info("storm selected", "storm_id", id)
	if i.sink != nil {
		i.sink.OnSelect(id)
	}
	return next
}

// Back returns to the overview and clears the selection.
func (i *Interactions) Back() View {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.view.Mode() == ModeDetailed {
		i.logger.Info("returning to overview")
	}
	i.view = i.view.Back()
	return i.view
}
