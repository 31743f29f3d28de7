package ui

import (
	"fyne.io/fyne/v2"

	"github.com/skobkin/trafficview/internal/resources"
)

// themeRuntime re-applies variant dependent resources: tray icon, status
// icons and the traffic light housing.
type themeRuntime struct {
	fyApp               fyne.App
	connStatusPresenter *connectionStatusPresenter
	light               *trafficLight
	setTrayIcon         func(fyne.ThemeVariant)
	current             fyne.ThemeVariant
	applied             bool
}

func newThemeRuntime(fyApp fyne.App, connStatusPresenter *connectionStatusPresenter, light *trafficLight) *themeRuntime {
	return &themeRuntime{
		fyApp:               fyApp,
		connStatusPresenter: connStatusPresenter,
		light:               light,
		setTrayIcon:         func(fyne.ThemeVariant) {},
	}
}

func (r *themeRuntime) SetTrayIconSetter(setter func(fyne.ThemeVariant)) {
	if setter == nil {
		r.setTrayIcon = func(fyne.ThemeVariant) {}

		return
	}
	r.setTrayIcon = setter
}

// BindSettings follows system theme switches. Settings listeners also fire on
// unrelated changes (scale, primary colour), those are skipped.
func (r *themeRuntime) BindSettings() {
	r.fyApp.Settings().AddListener(func(settings fyne.Settings) {
		variant := settings.ThemeVariant()
		if r.applied && variant == r.current {
			return
		}
		appLogger.Debug("theme variant changed", "theme", variant)
		r.Apply(variant)
	})
}

func (r *themeRuntime) Apply(variant fyne.ThemeVariant) {
	appLogger.Debug("applying theme resources", "theme", variant)
	r.current = variant
	r.applied = true
	r.fyApp.SetIcon(resources.AppIconResource())
	r.setTrayIcon(variant)
	if r.connStatusPresenter != nil {
		r.connStatusPresenter.ApplyTheme(variant)
	}
	if r.light != nil {
		r.light.ApplyTheme(variant)
	}
}
