package timeline

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
)

// Lane colors follow the original tool: red for the foot error beam,
// blue for the interface beam.
var laneColors = []color.RGBA{
	{R: 0xe7, G: 0x4c, B: 0x3c, A: 255},
	{R: 0x34, G: 0x98, B: 0xdb, A: 255},
}

// minWindowSeconds is the smallest time axis shown, so an empty or
// fresh trial does not collapse to a zero-width scale.
const minWindowSeconds = 5

// timelineRenderer renders the timeline widget.
type timelineRenderer struct {
	timeline *Widget

	// Background
	bg *canvas.Rectangle

	// Rebuilt on every refresh
	gridLines []*canvas.Line
	gridTexts []*canvas.Text
	tickLines []*canvas.Line
	endLine   *canvas.Line

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *timelineRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 200)
}

// Layout arranges the widget components.
func (r *timelineRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		r.timeline.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *timelineRenderer) Refresh() {
	r.timeline.mu.RLock()
	names := r.timeline.names
	pins := r.timeline.pins
	ticks := r.timeline.ticks
	duration := r.timeline.duration
	ended := r.timeline.ended
	r.timeline.mu.RUnlock()

	size := r.timeline.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep background)
	r.objects = []fyne.CanvasObject{r.bg}
	r.gridLines = r.gridLines[:0]
	r.gridTexts = r.gridTexts[:0]
	r.tickLines = r.tickLines[:0]
	r.endLine = nil

	marginLeft := float32(120.0)
	marginRight := float32(20.0)
	marginTop := float32(15.0)
	marginBottom := float32(30.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	window := math32.Max(minWindowSeconds, math32.Ceil(float32(duration.Seconds())))
	lanes := len(names)
	if lanes == 0 {
		return
	}
	laneHeight := plotHeight / float32(lanes)

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, window, names, pins, laneHeight)
	r.drawTicks(plotX, plotY, plotWidth, ticks, window, laneHeight)
	if ended {
		r.drawEndMarker(plotX, plotY, plotWidth, plotHeight, float32(duration.Seconds()), window)
	}
}

// drawGrid draws the lane separators, lane labels and the time axis.
func (r *timelineRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight, window float32, names []string, pins []int, laneHeight float32) {
	gridColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	textColor := color.RGBA{R: 150, G: 150, B: 150, A: 255}

	// Lane separators and labels
	for i, name := range names {
		y := plotY + float32(i)*laneHeight
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		label := name
		if i < len(pins) {
			label += " (Pin " + strconv.Itoa(pins[i]) + ")"
		}
		text := canvas.NewText(label, textColor)
		text.TextSize = 11
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y+laneHeight/2-8))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}

	bottom := canvas.NewLine(gridColor)
	bottom.Position1 = fyne.NewPos(plotX, plotY+plotHeight)
	bottom.Position2 = fyne.NewPos(plotX+plotWidth, plotY+plotHeight)
	bottom.StrokeWidth = 1
	r.gridLines = append(r.gridLines, bottom)
	r.objects = append(r.objects, bottom)

	// Vertical time grid, aiming for ~10 divisions on a round step.
	step := niceStep(window / 10)
	for t := float32(0); t <= window; t += step {
		x := plotX + t/window*plotWidth
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		text := canvas.NewText(formatSeconds(t), textColor)
		text.TextSize = 10
		text.Move(fyne.NewPos(x-8, plotY+plotHeight+5))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}
}

// drawTicks draws one vertical mark per counted trigger.
func (r *timelineRenderer) drawTicks(plotX, plotY, plotWidth float32, ticks []tick, window, laneHeight float32) {
	for _, tk := range ticks {
		x := plotX + float32(tk.offset.Seconds())/window*plotWidth
		yCenter := plotY + (float32(tk.channel)+0.5)*laneHeight
		half := laneHeight * 0.3

		c := laneColors[tk.channel%len(laneColors)]
		line := canvas.NewLine(c)
		line.Position1 = fyne.NewPos(x, yCenter-half)
		line.Position2 = fyne.NewPos(x, yCenter+half)
		line.StrokeWidth = 2
		r.tickLines = append(r.tickLines, line)
		r.objects = append(r.objects, line)
	}
}

// drawEndMarker draws the end-of-trial line with its duration label.
func (r *timelineRenderer) drawEndMarker(plotX, plotY, plotWidth, plotHeight, endSeconds, window float32) {
	x := plotX + endSeconds/window*plotWidth
	line := canvas.NewLine(color.RGBA{R: 0xff, G: 0x55, B: 0x55, A: 255})
	line.Position1 = fyne.NewPos(x, plotY)
	line.Position2 = fyne.NewPos(x, plotY+plotHeight)
	line.StrokeWidth = 2
	r.endLine = line
	r.objects = append(r.objects, line)

	text := canvas.NewText("End: "+formatSeconds(endSeconds)+"s", color.RGBA{R: 200, G: 0, B: 0, A: 255})
	text.TextSize = 11
	text.Move(fyne.NewPos(x+4, plotY))
	r.gridTexts = append(r.gridTexts, text)
	r.objects = append(r.objects, text)
}

// Objects returns the rendered objects.
func (r *timelineRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up renderer resources.
func (r *timelineRenderer) Destroy() {}

// niceStep rounds a raw grid step up to a 1/2/5 multiple.
func niceStep(raw float32) float32 {
	if raw <= 0 {
		return 1
	}
	mag := math32.Pow(10, math32.Floor(math32.Log10(raw)))
	switch {
	case raw <= mag:
		return mag
	case raw <= 2*mag:
		return 2 * mag
	case raw <= 5*mag:
		return 5 * mag
	default:
		return 10 * mag
	}
}

// formatSeconds formats a second count with at most two decimals,
// dropping the fraction for whole values.
func formatSeconds(v float32) string {
	if v == math32.Trunc(v) {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(float64(v), 'f', 2, 32)
}
