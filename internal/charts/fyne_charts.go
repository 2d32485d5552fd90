package charts

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/actions"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/timeline"
)

// FyneChartConfig holds configuration for desktop charts.
type FyneChartConfig struct {
	Width       float32
	Height      float32
	LegendWidth float32
	ShowGrid    bool
	GridColor   color.Color
	TextColor   color.Color
}

// DefaultFyneChartConfig returns default desktop chart configuration.
func DefaultFyneChartConfig() FyneChartConfig {
	return FyneChartConfig{
		Width:       1100,
		Height:      420,
		LegendWidth: 260,
		ShowGrid:    true,
		GridColor:   color.RGBA{R: 200, G: 200, B: 200, A: 255},
		TextColor:   color.RGBA{R: 66, G: 66, B: 66, A: 255},
	}
}

const (
	leftMargin   = float32(60)
	topMargin    = float32(50)
	bottomMargin = float32(50)
	barFill      = float32(0.8)
)

// barRect is the drawn area of one segment.
type barRect struct {
	segment Segment
	pos     fyne.Position
	size    fyne.Size
}

func (b barRect) contains(p fyne.Position) bool {
	return p.X >= b.pos.X && p.X <= b.pos.X+b.size.Width &&
		p.Y >= b.pos.Y && p.Y <= b.pos.Y+b.size.Height
}

// HoverHandler shows a tooltip for the bar segment under the pointer.
// It owns the bar geometry and colour mapping of one player chart.
type HoverHandler struct {
	widget.BaseWidget

	bars    []barRect
	colors  map[string]color.Color
	size    fyne.Size
	content *fyne.Container

	tooltip    *fyne.Container
	tooltipBg  *canvas.Rectangle
	tooltipTxt *widget.Label
	active     *Segment
}

var _ desktop.Hoverable = (*HoverHandler)(nil)

// NewPlayerCanvas draws one player's stacked bars and returns the hover
// handler that wraps them.
func NewPlayerCanvas(layout PlayerChart, config FyneChartConfig) *HoverHandler {
	h := &HoverHandler{
		colors: make(map[string]color.Color, len(layout.Stack)),
		size:   fyne.NewSize(config.Width, config.Height),
	}
	for _, entry := range layout.Stack {
		h.colors[entry.Type] = parseHex(entry.Color)
	}

	objects := h.draw(layout, config)

	h.tooltipBg = canvas.NewRectangle(color.White)
	h.tooltipBg.StrokeColor = color.Black
	h.tooltipBg.StrokeWidth = 1
	h.tooltipTxt = widget.NewLabel("")
	h.tooltip = container.NewStack(h.tooltipBg, h.tooltipTxt)
	h.tooltip.Hide()
	objects = append(objects, h.tooltip)

	h.content = container.NewWithoutLayout(objects...)
	h.ExtendBaseWidget(h)
	return h
}

func (h *HoverHandler) draw(layout PlayerChart, config FyneChartConfig) []fyne.CanvasObject {
	plotWidth := config.Width - leftMargin - config.LegendWidth
	plotHeight := config.Height - topMargin - bottomMargin

	var objects []fyne.CanvasObject

	title := canvas.NewText(layout.Title(), config.TextColor)
	title.TextSize = 16
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Move(fyne.NewPos(leftMargin, 8))
	objects = append(objects, title)

	apm := canvas.NewText(layout.APMLabel(), config.TextColor)
	apm.TextSize = 12
	apm.Move(fyne.NewPos(leftMargin+plotWidth*0.02, topMargin-20))
	objects = append(objects, apm)

	maxTotal := 0
	for i := range layout.Minutes {
		if t := layout.ColumnTotal(i); t > maxTotal {
			maxTotal = t
		}
	}
	if maxTotal == 0 {
		maxTotal = 1
	}
	scale := plotHeight / float32(maxTotal)

	if config.ShowGrid {
		for i := 0; i <= 5; i++ {
			y := topMargin + plotHeight/5*float32(i)
			line := canvas.NewLine(config.GridColor)
			line.Position1 = fyne.NewPos(leftMargin, y)
			line.Position2 = fyne.NewPos(leftMargin+plotWidth, y)
			line.StrokeWidth = 1
			objects = append(objects, line)

			value := float64(maxTotal) - float64(maxTotal)/5*float64(i)
			label := canvas.NewText(fmt.Sprintf("%.0f", value), config.TextColor)
			label.TextSize = 10
			label.Move(fyne.NewPos(5, y-7))
			objects = append(objects, label)
		}
	}

	columns := len(layout.Minutes)
	if columns > 0 {
		slot := plotWidth / float32(columns)
		barWidth := slot * barFill
		labelStep := int(math.Ceil(float64(columns) / 20.0))

		for col, minute := range layout.Minutes {
			x := leftMargin + slot*float32(col) + (slot-barWidth)/2
			y := topMargin + plotHeight

			for _, seg := range layout.Segments(col) {
				height := float32(seg.Count) * scale
				y -= height

				rect := canvas.NewRectangle(h.colors[seg.Type])
				rect.Move(fyne.NewPos(x, y))
				rect.Resize(fyne.NewSize(barWidth, height))
				objects = append(objects, rect)

				h.bars = append(h.bars, barRect{
					segment: seg,
					pos:     fyne.NewPos(x, y),
					size:    fyne.NewSize(barWidth, height),
				})
			}

			if col%labelStep == 0 {
				label := canvas.NewText(strconv.Itoa(minute), config.TextColor)
				label.TextSize = 9
				label.Move(fyne.NewPos(x, topMargin+plotHeight+5))
				objects = append(objects, label)
			}
		}
	}

	xName := canvas.NewText("Relative Minute", config.TextColor)
	xName.TextSize = 11
	xName.Move(fyne.NewPos(leftMargin+plotWidth/2-40, config.Height-20))
	objects = append(objects, xName)

	// Legend
	legendX := config.Width - config.LegendWidth + 10
	for i, entry := range layout.Stack {
		y := topMargin + float32(i)*18
		swatch := canvas.NewRectangle(h.colors[entry.Type])
		swatch.Move(fyne.NewPos(legendX, y+3))
		swatch.Resize(fyne.NewSize(10, 10))
		text := canvas.NewText(entry.Label(), config.TextColor)
		text.TextSize = 10
		text.Move(fyne.NewPos(legendX+16, y))
		objects = append(objects, swatch, text)
	}

	return objects
}

// SegmentAt returns the segment drawn at p, if any.
func (h *HoverHandler) SegmentAt(p fyne.Position) (Segment, bool) {
	for _, b := range h.bars {
		if b.contains(p) {
			return b.segment, true
		}
	}
	return Segment{}, false
}

// Active returns the segment the tooltip currently describes.
func (h *HoverHandler) Active() (Segment, bool) {
	if h.active == nil {
		return Segment{}, false
	}
	return *h.active, true
}

// TooltipText returns the current tooltip text.
func (h *HoverHandler) TooltipText() string {
	return h.tooltipTxt.Text
}

// MouseIn is called when the pointer enters the chart.
func (h *HoverHandler) MouseIn(ev *desktop.MouseEvent) {
	h.MouseMoved(ev)
}

// MouseMoved updates the tooltip for the segment under the pointer.
func (h *HoverHandler) MouseMoved(ev *desktop.MouseEvent) {
	seg, ok := h.SegmentAt(ev.Position)
	if !ok {
		h.MouseOut()
		return
	}
	if h.active != nil && *h.active == seg {
		return
	}

	h.active = &seg
	text := fmt.Sprintf("%s\nMinute: %d\nCount: %d", seg.Type, seg.Minute, seg.Count)
	if desc, ok := actions.Describe(seg.Type); ok {
		text += "\n" + desc
	}
	h.tooltipTxt.SetText(text)
	if c, ok := h.colors[seg.Type]; ok {
		h.tooltipBg.FillColor = withAlpha(c, 180)
	}
	h.tooltipBg.Refresh()

	h.tooltip.Resize(h.tooltip.MinSize())
	h.tooltip.Move(ev.Position.Add(fyne.NewPos(15, 15)))
	h.tooltip.Show()
}

// MouseOut hides the tooltip.
func (h *HoverHandler) MouseOut() {
	if h.active == nil {
		return
	}
	h.active = nil
	h.tooltipTxt.SetText("")
	h.tooltip.Hide()
}

// MinSize keeps the chart at its configured size inside scroll containers.
func (h *HoverHandler) MinSize() fyne.Size {
	return h.size
}

// CreateRenderer implements fyne.Widget.
func (h *HoverHandler) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(h.content)
}

// NewDesktopView stacks every player's chart in a vertical scroll container.
func NewDesktopView(table *timeline.AggregatedTable, config FyneChartConfig) fyne.CanvasObject {
	if table.Len() == 0 {
		return widget.NewLabel("No data available")
	}

	layouts := BuildPlayerCharts(table, ColorMap(table.Types()))
	items := make([]fyne.CanvasObject, 0, len(layouts))
	for _, layout := range layouts {
		items = append(items, NewPlayerCanvas(layout, config))
	}
	return container.NewVScroll(container.NewVBox(items...))
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}
