package ui

import (
	"fyne.io/fyne/v2"

	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/device"
	"github.com/skobkin/trafficview/internal/render"
)

type DataDependencies struct {
	Config            config.AppConfig
	CurrentConfig     func() config.AppConfig
	Bus               bus.MessageBus
	Animator          *render.Animator
	CurrentConnStatus func() (connectors.ConnectionStatus, bool)
	SessionStats      func() device.Stats
	ListPorts         func() ([]string, error)
	LogDir            string
}

type ActionDependencies struct {
	OnConnect    func() error
	OnDisconnect func() error
	OnSave       func(cfg config.AppConfig) error
	OpenPath     func(path string) error
	OnQuit       func()
}

type UIHooks struct {
	CurrentWindow   func() fyne.Window
	RunOnUI         func(func())
	RunAsync        func(func())
	ShowErrorDialog func(err error, window fyne.Window)
}

type LaunchOptions struct {
	StartHidden bool
	// Connect opens the session at startup even when auto-connect is off.
	Connect bool
}

type RuntimeDependencies struct {
	Data    DataDependencies
	Actions ActionDependencies
	UIHooks UIHooks
	Launch  LaunchOptions
}
