// Package timeline implements the trial timeline widget: one lane per
// sensor with a vertical tick for every counted trigger, in the style
// of the original pyqtgraph raster display.
package timeline

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"image/color"

	"github.com/pittjames/golrt/pkg/config"
	"github.com/pittjames/golrt/pkg/trial"
)

// tick is one mark on the raster: which lane and where in trial time.
type tick struct {
	channel int
	offset  time.Duration
}

// Widget is a custom Fyne widget that displays the active (or last)
// trial's triggers over trial time.
type Widget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu       sync.RWMutex
	names    []string
	pins     []int
	ticks    []tick
	duration time.Duration
	ended    bool
}

// New creates a timeline widget labeled from the configured sensors.
func New(cfg *config.Config) *Widget {
	w := &Widget{
		names: cfg.Names(),
		pins:  make([]int, len(cfg.Sensors)),
	}
	for i, s := range cfg.Sensors {
		w.pins[i] = s.Pin
	}
	w.ExtendBaseWidget(w)
	w.Refresh()
	return w
}

// SetMapping updates the pin numbers shown in the lane labels.
// This should be called from the session callback using fyne.Do().
func (w *Widget) SetMapping(pins []int) {
	w.mu.Lock()
	w.pins = append(w.pins[:0], pins...)
	w.mu.Unlock()

	w.Refresh()
}

// ShowTrial replaces the displayed data with a snapshot of the given
// trial's counted triggers. Safe to call repeatedly while the trial is
// still filling up.
func (w *Widget) ShowTrial(t *trial.Trial) {
	w.mu.Lock()
	w.ticks = w.ticks[:0]
	for _, ev := range t.Events {
		if ev.Counted {
			w.ticks = append(w.ticks, tick{channel: ev.Channel, offset: ev.Offset})
		}
	}
	w.duration = t.Duration()
	w.ended = !t.Active()
	w.mu.Unlock()

	w.Refresh()
}

// Clear empties the raster, e.g. when a new trial starts.
func (w *Widget) Clear() {
	w.mu.Lock()
	w.ticks = w.ticks[:0]
	w.duration = 0
	w.ended = false
	w.mu.Unlock()

	w.Refresh()
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &timelineRenderer{
		timeline: w,
		bg:       bg,
		objects:  []fyne.CanvasObject{bg},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
