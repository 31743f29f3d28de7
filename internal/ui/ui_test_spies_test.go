package ui

import "fyne.io/fyne/v2"

// desktopAppSpy stands in for the desktop driver: it has a tray and records
// the run, quit and window calls made by the runtime.
type desktopAppSpy struct {
	fyne.App
	runCalls      int
	quitCalls     int
	createdWindow *windowSpy
	trayMenu      *fyne.Menu
	trayIcon      fyne.Resource
	lifecycle     fyne.Lifecycle
}

func (a *desktopAppSpy) Run() {
	a.runCalls++
}

func (a *desktopAppSpy) Quit() {
	a.quitCalls++
}

func (a *desktopAppSpy) NewWindow(title string) fyne.Window {
	window := &windowSpy{Window: a.App.NewWindow(title)}
	a.createdWindow = window

	return window
}

func (a *desktopAppSpy) SetSystemTrayMenu(menu *fyne.Menu) {
	a.trayMenu = menu
}

func (a *desktopAppSpy) SetSystemTrayIcon(icon fyne.Resource) {
	a.trayIcon = icon
}

func (a *desktopAppSpy) SetSystemTrayWindow(fyne.Window) {}

func (a *desktopAppSpy) Lifecycle() fyne.Lifecycle {
	if a.lifecycle != nil {
		return a.lifecycle
	}

	return a.App.Lifecycle()
}

// noTrayAppSpy exposes only fyne.App, like a mobile or web driver.
type noTrayAppSpy struct {
	fyne.App
	runCalls  int
	quitCalls int
}

func (a *noTrayAppSpy) Run() {
	a.runCalls++
}

func (a *noTrayAppSpy) Quit() {
	a.quitCalls++
}

type windowSpy struct {
	fyne.Window
	showCalls      int
	hideCalls      int
	focusCalls     int
	closeIntercept func()
}

func (w *windowSpy) Show() {
	w.showCalls++
	if w.Window != nil {
		w.Window.Show()
	}
}

func (w *windowSpy) Hide() {
	w.hideCalls++
	if w.Window != nil {
		w.Window.Hide()
	}
}

func (w *windowSpy) RequestFocus() {
	w.focusCalls++
	if w.Window != nil {
		w.Window.RequestFocus()
	}
}

func (w *windowSpy) SetCloseIntercept(fn func()) {
	w.closeIntercept = fn
	if w.Window != nil {
		w.Window.SetCloseIntercept(fn)
	}
}

type lifecycleSpy struct {
	onEnteredForeground func()
	onExitedForeground  func()
	onStarted           func()
	onStopped           func()
}

func (l *lifecycleSpy) SetOnEnteredForeground(fn func()) {
	l.onEnteredForeground = fn
}

func (l *lifecycleSpy) SetOnExitedForeground(fn func()) {
	l.onExitedForeground = fn
}

func (l *lifecycleSpy) SetOnStarted(fn func()) {
	l.onStarted = fn
}

func (l *lifecycleSpy) SetOnStopped(fn func()) {
	l.onStopped = fn
}
