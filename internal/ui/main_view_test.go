package ui

import (
	"errors"
	"strings"
	"testing"

	"fyne.io/fyne/v2"
	fynetest "fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/device"
	"github.com/skobkin/trafficview/internal/domain"
	"github.com/skobkin/trafficview/internal/render"
)

func TestBuildMainViewBuildsTabsAndPresenter(t *testing.T) {
	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	window := app.NewWindow("main")
	dep := RuntimeDependencies{
		Data: DataDependencies{
			Config: config.Default(),
			ListPorts: func() ([]string, error) {
				return nil, nil
			},
		},
	}

	view := buildMainView(
		dep,
		window,
		app.Settings().ThemeVariant(),
		connectors.ConnectionStatus{
			State:         connectors.ConnectionStateConnecting,
			TransportName: "serial",
			Target:        "/dev/ttyACM0@9600",
		},
	)

	if view.traffic == nil || view.tabs == nil {
		t.Fatalf("expected main view components to be initialized")
	}
	if len(view.tabs.Items) != 2 {
		t.Fatalf("expected two tabs, got %d", len(view.tabs.Items))
	}
	if view.connStatusPresenter == nil {
		t.Fatalf("expected connection status presenter to be initialized")
	}
	if !strings.Contains(window.Title(), "connecting") {
		t.Fatalf("expected status in window title, got %q", window.Title())
	}
	mustFindButtonByText(t, view.traffic.Content(), disconnectButtonText)
}

func TestConnectButtonTogglesBetweenActions(t *testing.T) {
	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	var connectCalls, disconnectCalls int
	var shown error
	dep := RuntimeDependencies{
		Data: DataDependencies{Config: config.Default()},
		Actions: ActionDependencies{
			OnConnect: func() error {
				connectCalls++

				return errors.New("port busy")
			},
			OnDisconnect: func() error {
				disconnectCalls++

				return nil
			},
		},
		UIHooks: UIHooks{
			RunOnUI:  func(fn func()) { fn() },
			RunAsync: func(fn func()) { fn() },
			ShowErrorDialog: func(err error, _ fyne.Window) {
				shown = err
			},
		},
	}

	window := app.NewWindow("main")
	view := buildMainView(dep, window, app.Settings().ThemeVariant(), connectors.ConnectionStatus{
		State: connectors.ConnectionStateDisconnected,
	})
	content := view.traffic.Content()
	_ = fynetest.NewTempWindow(t, content)

	fynetest.Tap(mustFindButtonByText(t, content, connectButtonText))
	if connectCalls != 1 {
		t.Fatalf("expected connect once, got %d", connectCalls)
	}
	if shown == nil || shown.Error() != "port busy" {
		t.Fatalf("expected connect error to be shown, got %v", shown)
	}

	view.connStatusPresenter.Set(connectors.ConnectionStatus{
		State: connectors.ConnectionStateConnected,
	}, app.Settings().ThemeVariant())
	fynetest.Tap(mustFindButtonByText(t, content, disconnectButtonText))
	if disconnectCalls != 1 {
		t.Fatalf("expected disconnect once, got %d", disconnectCalls)
	}
}

func TestTrafficViewApplyFrameShowsState(t *testing.T) {
	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	stats := device.Stats{Lines: 4, States: 3, DecodeErrors: 1}
	view := newTrafficView(func() device.Stats { return stats }, widget.NewLabel(""))
	_ = fynetest.NewTempWindow(t, view.Content())

	if view.modeLabel.Text != noStateText {
		t.Fatalf("expected placeholder before data, got %q", view.modeLabel.Text)
	}

	state := domain.DeviceState{Brightness: 300, Mode: domain.ModeNormal, Light: domain.LightYellow}
	view.ApplyFrame(render.Frame{
		Number:   0,
		State:    state,
		HasState: true,
		Visual:   render.Render(state, 0),
	})

	if view.modeLabel.Text != "Mode: Normal" {
		t.Fatalf("unexpected mode text %q", view.modeLabel.Text)
	}
	if view.lightLabel.Text != "Light: Yellow" {
		t.Fatalf("unexpected light text %q", view.lightLabel.Text)
	}
	for i, slider := range view.sliders {
		if slider.Value != domain.MaxBrightness {
			t.Fatalf("slider %d: expected clamped brightness %d, got %v", i, domain.MaxBrightness, slider.Value)
		}
		if !slider.Disabled() {
			t.Fatalf("slider %d: expected read-only slider", i)
		}
	}
	if view.statsLabel.Text != "Lines: 4  States: 3  Decode errors: 1" {
		t.Fatalf("unexpected stats text %q", view.statsLabel.Text)
	}
	yellow := view.light.lamps[1].FillColor
	if yellow != render.SignalYellow.Hue() {
		t.Fatalf("expected lit yellow lamp, got %v", yellow)
	}
	if view.light.lamps[0].FillColor != render.DimColor {
		t.Fatalf("expected dim red lamp, got %v", view.light.lamps[0].FillColor)
	}

	view.ApplyFrame(render.Frame{Number: 1, Visual: render.Render(domain.DeviceState{}, 1)})
	if view.modeLabel.Text != noStateText {
		t.Fatalf("expected placeholder after state reset, got %q", view.modeLabel.Text)
	}
}

func TestTrafficViewShowDecodeFailure(t *testing.T) {
	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	view := newTrafficView(nil, widget.NewLabel(""))
	view.ShowDecodeFailure(connectors.DecodeFailure{Kind: "malformed", Line: "Blink Mode ON"})

	if !strings.HasSuffix(view.failureLabel.Text, "Blink Mode ON") {
		t.Fatalf("unexpected failure text %q", view.failureLabel.Text)
	}
}

func TestTrafficLightApplyRecoloursChangedLamps(t *testing.T) {
	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	light := newTrafficLight()
	_ = fynetest.NewTempWindow(t, light)

	blink := domain.DeviceState{Brightness: 128, Mode: domain.ModeBlink}
	on := render.Render(blink, 0)
	light.Apply(on)
	if light.lamps[1].FillColor != on.Yellow.Color() {
		t.Fatalf("expected yellow lamp lit in blink on phase, got %v", light.lamps[1].FillColor)
	}

	off := render.Render(blink, 15)
	light.Apply(off)
	if light.lamps[1].FillColor != render.DimColor {
		t.Fatalf("expected yellow lamp dim in blink off phase, got %v", light.lamps[1].FillColor)
	}
	if light.Visual() != off {
		t.Fatalf("expected last visual to be stored")
	}
}
