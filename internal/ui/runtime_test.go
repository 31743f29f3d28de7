package ui

import (
	"reflect"
	"testing"

	fynetest "fyne.io/fyne/v2/test"
)

func TestUIRuntimeQuitRunsStopsInOrderOnce(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)
	app := &desktopAppSpy{App: base}

	var calls []string
	runtime := newUIRuntime(
		app,
		nil,
		func() { calls = append(calls, "frames") },
		nil,
		func() { calls = append(calls, "listeners") },
		func() { calls = append(calls, "quit") },
	)

	runtime.Quit()
	runtime.Quit()

	if app.quitCalls != 1 {
		t.Fatalf("expected app quit once, got %d", app.quitCalls)
	}
	want := []string{"frames", "listeners", "quit"}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("expected stops %v, got %v", want, calls)
	}
}

func TestUIRuntimeCloseHidesToTray(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)
	app := &desktopAppSpy{App: base}

	window := &windowSpy{Window: base.NewWindow("runtime")}
	runtime := newUIRuntime(app, window)

	runtime.BindCloseIntercept()
	if window.closeIntercept == nil {
		t.Fatalf("expected close intercept to be set")
	}

	window.closeIntercept()
	if window.hideCalls != 1 {
		t.Fatalf("expected intercept to hide window once, got %d", window.hideCalls)
	}
	if app.quitCalls != 0 {
		t.Fatalf("expected app to keep running, got %d quit calls", app.quitCalls)
	}
}

func TestUIRuntimeCloseQuitsWithoutTray(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)
	app := &noTrayAppSpy{App: base}

	var stopCalls int
	window := &windowSpy{Window: base.NewWindow("runtime")}
	runtime := newUIRuntime(app, window, func() { stopCalls++ })

	runtime.BindCloseIntercept()
	window.closeIntercept()

	if window.hideCalls != 0 {
		t.Fatalf("expected window not to be hidden, got %d hide calls", window.hideCalls)
	}
	if app.quitCalls != 1 || stopCalls != 1 {
		t.Fatalf("expected quit and stop once, got quit=%d stop=%d", app.quitCalls, stopCalls)
	}
}

func TestUIRuntimeRunStartsHiddenAndStopsAfterRunReturns(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)
	app := &desktopAppSpy{App: base}
	window := &windowSpy{Window: base.NewWindow("runtime")}

	var stopCalls int
	runtime := newUIRuntime(app, window, func() { stopCalls++ })

	runtime.Run(true)

	if app.runCalls != 1 {
		t.Fatalf("expected app run once, got %d", app.runCalls)
	}
	if window.showCalls != 1 || window.hideCalls != 1 {
		t.Fatalf("expected show and hide once, got show=%d hide=%d", window.showCalls, window.hideCalls)
	}
	if stopCalls != 1 {
		t.Fatalf("expected stop callback once, got %d", stopCalls)
	}
}

func TestUIRuntimeStartHiddenIgnoredWithoutTray(t *testing.T) {
	base := fynetest.NewApp()
	t.Cleanup(base.Quit)
	app := &noTrayAppSpy{App: base}
	window := &windowSpy{Window: base.NewWindow("runtime")}

	newUIRuntime(app, window).Run(true)

	if window.hideCalls != 0 {
		t.Fatalf("expected window to stay visible without tray, got %d hide calls", window.hideCalls)
	}
}
