package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/device"
	"github.com/skobkin/trafficview/internal/domain"
	"github.com/skobkin/trafficview/internal/render"
)

const (
	noStateText = "Waiting for device data"
	// statsEveryFrames throttles the counters line to a few updates per second.
	statsEveryFrames = 15
)

// trafficView is the light tab: mode header, lamps, one read-only brightness
// slider per lamp and the session counters.
type trafficView struct {
	root         fyne.CanvasObject
	light        *trafficLight
	modeLabel    *widget.Label
	lightLabel   *widget.Label
	sliders      [len(render.AllSignals)]*widget.Slider
	statsLabel   *widget.Label
	failureLabel *widget.Label
	stats        func() device.Stats

	lastState domain.DeviceState
	hasState  bool
}

func newTrafficView(stats func() device.Stats, statusRow fyne.CanvasObject) *trafficView {
	v := &trafficView{
		light:        newTrafficLight(),
		modeLabel:    widget.NewLabelWithStyle(noStateText, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		lightLabel:   widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{}),
		statsLabel:   widget.NewLabel(""),
		failureLabel: widget.NewLabel(""),
		stats:        stats,
	}
	v.failureLabel.Truncation = fyne.TextTruncateEllipsis

	sliderRows := container.New(layout.NewFormLayout())
	for i, signal := range render.AllSignals {
		slider := widget.NewSlider(0, domain.MaxBrightness)
		slider.Step = 1
		slider.Disable()
		v.sliders[i] = slider
		sliderRows.Add(widget.NewLabel(signalLabel(signal)))
		sliderRows.Add(slider)
	}

	body := container.NewVBox(
		v.modeLabel,
		v.lightLabel,
		container.NewPadded(v.light),
		widget.NewCard("Brightness", "", sliderRows),
		layout.NewSpacer(),
	)
	footer := container.NewVBox(widget.NewSeparator(), statusRow, v.statsLabel, v.failureLabel)
	v.root = container.NewBorder(nil, footer, nil, nil, body)

	return v
}

func (v *trafficView) Content() fyne.CanvasObject {
	return v.root
}

// ApplyFrame must run on the UI goroutine.
func (v *trafficView) ApplyFrame(frame render.Frame) {
	v.light.Apply(frame.Visual)
	v.applyState(frame.State, frame.HasState)
	if v.stats != nil && frame.Number%statsEveryFrames == 0 {
		v.statsLabel.SetText(formatStats(v.stats()))
	}
}

// ShowDecodeFailure must run on the UI goroutine.
func (v *trafficView) ShowDecodeFailure(failure connectors.DecodeFailure) {
	v.failureLabel.SetText(fmt.Sprintf("Last rejected line (%s): %s", failure.Kind, failure.Line))
}

func (v *trafficView) applyState(state domain.DeviceState, ok bool) {
	if ok == v.hasState && (!ok || state.Equal(v.lastState)) {
		return
	}
	v.lastState = state
	v.hasState = ok

	if !ok {
		v.modeLabel.SetText(noStateText)
		v.lightLabel.SetText("")
		for _, slider := range v.sliders {
			slider.SetValue(0)
		}
		return
	}

	v.modeLabel.SetText("Mode: " + displayValue(state.Mode))
	v.lightLabel.SetText("Light: " + displayValue(state.Light))
	value := float64(min(max(state.Brightness, 0), domain.MaxBrightness))
	for _, slider := range v.sliders {
		slider.SetValue(value)
	}
}

func signalLabel(signal render.Signal) string {
	switch signal {
	case render.SignalRed:
		return "Red"
	case render.SignalYellow:
		return "Yellow"
	case render.SignalBlue:
		return "Blue"
	default:
		return signal.String()
	}
}

func displayValue(value string) string {
	if value == "" {
		return "-"
	}

	return value
}

func formatStats(stats device.Stats) string {
	return fmt.Sprintf("Lines: %d  States: %d  Decode errors: %d", stats.Lines, stats.States, stats.DecodeErrors)
}
