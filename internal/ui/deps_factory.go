package ui

import (
	"path/filepath"

	trafficapp "github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/platform"
	"github.com/skobkin/trafficview/internal/transport"
)

func BuildRuntimeDependencies(rt *trafficapp.Runtime, launch LaunchOptions, onQuit func()) RuntimeDependencies {
	systemActions := platform.NewSystemActions()
	dep := RuntimeDependencies{
		Launch: launch,
		Data: DataDependencies{
			ListPorts: transport.ListPorts,
		},
		Actions: ActionDependencies{
			OpenPath: systemActions.OpenPath,
			OnQuit:   onQuit,
		},
	}

	if rt == nil {
		return dep
	}

	dep.Data.Config = rt.CurrentConfig()
	dep.Data.CurrentConfig = rt.CurrentConfig
	dep.Data.Bus = rt.Bus
	dep.Data.Animator = rt.Animator
	dep.Data.CurrentConnStatus = rt.CurrentConnStatus
	dep.Data.LogDir = filepath.Dir(rt.Paths.LogFile)

	dep.Actions.OnConnect = rt.Connect
	dep.Actions.OnDisconnect = rt.Disconnect
	dep.Actions.OnSave = rt.SaveAndApplyConfig
	if rt.Session != nil {
		dep.Data.SessionStats = rt.Session.Stats
	}

	return dep
}
