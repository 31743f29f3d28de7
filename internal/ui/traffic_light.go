package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/trafficview/internal/render"
)

const (
	lampDiameter = float32(90)
	lampSpacing  = float32(24)
	housingPad   = float32(18)
)

var (
	housingColor     = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	housingColorDark = color.NRGBA{R: 58, G: 58, B: 58, A: 255}
)

// housingColorFor keeps the housing distinguishable from the window
// background; dim lamps stay the same grey on both variants.
func housingColorFor(variant fyne.ThemeVariant) color.NRGBA {
	if variant == theme.VariantDark {
		return housingColorDark
	}

	return housingColor
}

// trafficLight draws the three lamps left to right on a dark housing.
type trafficLight struct {
	widget.BaseWidget

	housing *canvas.Rectangle
	lamps   [len(render.AllSignals)]*canvas.Circle
	visual  render.VisualState
}

func newTrafficLight() *trafficLight {
	t := &trafficLight{
		housing: canvas.NewRectangle(housingColor),
	}
	t.housing.CornerRadius = housingPad
	for i := range t.lamps {
		t.lamps[i] = canvas.NewCircle(render.DimColor)
		t.lamps[i].StrokeColor = housingColor
		t.lamps[i].StrokeWidth = 2
	}
	t.ExtendBaseWidget(t)

	return t
}

// Apply recolours lamps whose slot changed since the previous frame.
func (t *trafficLight) Apply(visual render.VisualState) {
	previous := t.visual
	t.visual = visual
	for i, signal := range render.AllSignals {
		slot := visual.Slot(signal)
		if slot == previous.Slot(signal) {
			continue
		}
		t.lamps[i].FillColor = slot.Color()
		t.lamps[i].Refresh()
	}
}

// ApplyTheme must run on the UI goroutine.
func (t *trafficLight) ApplyTheme(variant fyne.ThemeVariant) {
	fill := housingColorFor(variant)
	t.housing.FillColor = fill
	t.housing.Refresh()
	for _, lamp := range t.lamps {
		lamp.StrokeColor = fill
		lamp.Refresh()
	}
}

// Visual returns the last applied state.
func (t *trafficLight) Visual() render.VisualState {
	return t.visual
}

func (t *trafficLight) CreateRenderer() fyne.WidgetRenderer {
	objects := []fyne.CanvasObject{t.housing}
	for _, lamp := range t.lamps {
		objects = append(objects, lamp)
	}

	return &trafficLightRenderer{light: t, objects: objects}
}

type trafficLightRenderer struct {
	light   *trafficLight
	objects []fyne.CanvasObject
}

func (r *trafficLightRenderer) Layout(size fyne.Size) {
	count := float32(len(r.light.lamps))
	natural := r.MinSize()
	scale := min(size.Width/natural.Width, size.Height/natural.Height)
	if scale <= 0 {
		scale = 1
	}

	diameter := lampDiameter * scale
	spacing := lampSpacing * scale
	pad := housingPad * scale
	width := count*diameter + (count-1)*spacing + 2*pad
	height := diameter + 2*pad
	origin := fyne.NewPos((size.Width-width)/2, (size.Height-height)/2)

	r.light.housing.CornerRadius = pad
	r.light.housing.Move(origin)
	r.light.housing.Resize(fyne.NewSize(width, height))
	for i, lamp := range r.light.lamps {
		x := origin.X + pad + float32(i)*(diameter+spacing)
		lamp.Move(fyne.NewPos(x, origin.Y+pad))
		lamp.Resize(fyne.NewSize(diameter, diameter))
	}
}

func (r *trafficLightRenderer) MinSize() fyne.Size {
	count := float32(len(r.light.lamps))

	return fyne.NewSize(
		count*lampDiameter+(count-1)*lampSpacing+2*housingPad,
		lampDiameter+2*housingPad,
	)
}

func (r *trafficLightRenderer) Refresh() {
	for _, object := range r.objects {
		canvas.Refresh(object)
	}
}

func (r *trafficLightRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *trafficLightRenderer) Destroy() {}
