package ui

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/config"
)

const (
	sourceOptionSerial = "Serial"
	sourceOptionTCP    = "TCP bridge"
	sourceOptionReplay = "Replay file"
)

var (
	defaultSerialBaudOptions = []string{"9600", "19200", "38400", "57600", "115200"}
	frameRateOptions         = []string{"30", "60", "120"}
)

func newSettingsTab(dep RuntimeDependencies, connStatusLabel *widget.Label) fyne.CanvasObject {
	current := dep.Data.Config
	current.FillMissingDefaults()

	status := widget.NewLabel("")
	status.Wrapping = fyne.TextWrapWord

	sourceSelect := widget.NewSelect([]string{
		sourceOptionSerial,
		sourceOptionTCP,
		sourceOptionReplay,
	}, nil)
	sourceSelect.SetSelected(sourceOptionFromType(current.Connection.Source))

	serialPortSelect := widget.NewSelect(uniqueValues([]string{current.Connection.SerialPort}), nil)
	serialPortSelect.PlaceHolder = "Select serial port"
	serialPortSelect.SetSelected(current.Connection.SerialPort)

	serialBaudSelect := widget.NewSelect(uniqueValues(append(defaultSerialBaudOptions, strconv.Itoa(current.Connection.SerialBaud))), nil)
	serialBaudSelect.SetSelected(strconv.Itoa(current.Connection.SerialBaud))

	tcpAddressEntry := widget.NewEntry()
	tcpAddressEntry.SetText(current.Connection.TCPAddress)
	tcpAddressEntry.SetPlaceHolder("host:2000")

	replayPathEntry := widget.NewEntry()
	replayPathEntry.SetText(current.Connection.ReplayPath)
	replayPathEntry.SetPlaceHolder("Path to a captured session")

	replayPaceEntry := widget.NewEntry()
	replayPaceEntry.SetText(strconv.Itoa(current.Connection.ReplayPaceMillis))
	replayPaceEntry.SetPlaceHolder("Delay per chunk, ms")

	autoConnect := widget.NewCheck("", nil)
	autoConnect.SetChecked(current.Connection.AutoConnect)

	listPorts := dep.Data.ListPorts
	if listPorts == nil {
		listPorts = func() ([]string, error) {
			return nil, errors.New("port listing is not available")
		}
	}
	refreshPorts := func() {
		selectedPort := strings.TrimSpace(serialPortSelect.Selected)
		ports, err := listPorts()
		if err != nil {
			status.SetText("Failed to list serial ports: " + err.Error())
			return
		}
		sort.Strings(ports)

		if currentPort := strings.TrimSpace(current.Connection.SerialPort); currentPort != "" {
			ports = append(ports, currentPort)
		}
		if selectedPort != "" {
			ports = append(ports, selectedPort)
		}
		ports = uniqueValues(ports)
		serialPortSelect.SetOptions(ports)

		if selectedPort != "" {
			serialPortSelect.SetSelected(selectedPort)
		} else if current.Connection.SerialPort != "" {
			serialPortSelect.SetSelected(current.Connection.SerialPort)
		}

		if len(ports) == 0 {
			status.SetText("No serial ports detected")
			return
		}
		status.SetText("")
	}

	refreshPortsButton := widget.NewButton("Refresh", refreshPorts)
	serialPortRow := container.NewBorder(nil, nil, nil, refreshPortsButton, serialPortSelect)

	serialPortLabel := widget.NewLabel("Serial Port")
	serialBaudLabel := widget.NewLabel("Serial Baud")
	tcpAddressLabel := widget.NewLabel("Bridge Address")
	replayPathLabel := widget.NewLabel("Replay File")
	replayPaceLabel := widget.NewLabel("Replay Pace (ms)")

	connectionFields := container.New(layout.NewFormLayout(),
		widget.NewLabel("Source"), sourceSelect,
		serialPortLabel, serialPortRow,
		serialBaudLabel, serialBaudSelect,
		tcpAddressLabel, tcpAddressEntry,
		replayPathLabel, replayPathEntry,
		replayPaceLabel, replayPaceEntry,
		widget.NewLabel("Connect on start"), autoConnect,
	)

	setSourceFields := func(source config.SourceType) {
		setVisible(source == config.SourceSerial, serialPortLabel, serialPortRow, serialBaudLabel, serialBaudSelect)
		setVisible(source == config.SourceTCP, tcpAddressLabel, tcpAddressEntry)
		setVisible(source == config.SourceReplay, replayPathLabel, replayPathEntry, replayPaceLabel, replayPaceEntry)
	}
	sourceSelect.OnChanged = func(value string) {
		next := sourceTypeFromOption(value)
		setSourceFields(next)
		if next == config.SourceSerial {
			refreshPorts()
			return
		}
		status.SetText("")
	}
	setSourceFields(current.Connection.Source)
	if current.Connection.Source == config.SourceSerial {
		refreshPorts()
	}

	frameRateSelect := widget.NewSelect(uniqueValues(append(frameRateOptions, strconv.Itoa(current.UI.FrameRate))), nil)
	frameRateSelect.SetSelected(strconv.Itoa(current.UI.FrameRate))

	notifyWhenFocused := widget.NewCheck("", nil)
	notifyWhenFocused.SetChecked(current.UI.Notifications.NotifyWhenFocused)
	notifyConnection := widget.NewCheck("", nil)
	notifyConnection.SetChecked(current.UI.Notifications.Events.ConnectionStatus)
	notifyModeChange := widget.NewCheck("", nil)
	notifyModeChange.SetChecked(current.UI.Notifications.Events.ModeChange)

	levelSelect := widget.NewSelect([]string{"debug", "info", "warn", "error"}, nil)
	levelSelect.SetSelected(strings.ToLower(current.Logging.Level))
	if levelSelect.Selected == "" {
		levelSelect.SetSelected("info")
	}
	logToFile := widget.NewCheck("", nil)
	logToFile.SetChecked(current.Logging.LogToFile)

	openLogsButton := widget.NewButton("Open log folder", func() {
		if dep.Actions.OpenPath == nil || dep.Data.LogDir == "" {
			status.SetText("Log folder is not available")
			return
		}
		if err := dep.Actions.OpenPath(dep.Data.LogDir); err != nil {
			status.SetText("Failed to open log folder: " + err.Error())
			return
		}
		status.SetText("")
	})
	if dep.Actions.OpenPath == nil || dep.Data.LogDir == "" {
		openLogsButton.Disable()
	}

	saveButton := widget.NewButton("Save", func() {
		source := sourceTypeFromOption(sourceSelect.Selected)

		baud := current.Connection.SerialBaud
		if source == config.SourceSerial {
			var err error
			baud, err = parseSerialBaud(serialBaudSelect.Selected)
			if err != nil {
				status.SetText("Save failed: " + err.Error())
				return
			}
		}
		pace := current.Connection.ReplayPaceMillis
		if source == config.SourceReplay {
			var err error
			pace, err = parseReplayPace(replayPaceEntry.Text)
			if err != nil {
				status.SetText("Save failed: " + err.Error())
				return
			}
		}
		frameRate, err := strconv.Atoi(strings.TrimSpace(frameRateSelect.Selected))
		if err != nil {
			status.SetText("Save failed: invalid frame rate")
			return
		}

		cfg := current
		cfg.Connection.Source = source
		cfg.Connection.SerialPort = strings.TrimSpace(serialPortSelect.Selected)
		cfg.Connection.SerialBaud = baud
		cfg.Connection.TCPAddress = strings.TrimSpace(tcpAddressEntry.Text)
		cfg.Connection.ReplayPath = strings.TrimSpace(replayPathEntry.Text)
		cfg.Connection.ReplayPaceMillis = pace
		cfg.Connection.AutoConnect = autoConnect.Checked
		cfg.UI.FrameRate = frameRate
		cfg.UI.Notifications.NotifyWhenFocused = notifyWhenFocused.Checked
		cfg.UI.Notifications.Events.ConnectionStatus = notifyConnection.Checked
		cfg.UI.Notifications.Events.ModeChange = notifyModeChange.Checked
		cfg.Logging.Level = levelSelect.Selected
		cfg.Logging.LogToFile = logToFile.Checked

		if dep.Actions.OnSave == nil {
			status.SetText("Save failed: saving is not available")
			return
		}
		if err := dep.Actions.OnSave(cfg); err != nil {
			status.SetText("Save failed: " + err.Error())
			return
		}
		current = cfg
		if cfg.UI.FrameRate != dep.Data.Config.UI.FrameRate {
			status.SetText("Saved. Frame rate applies after restart")
			return
		}
		status.SetText("Saved")
	})
	saveButton.Importance = widget.HighImportance

	connectionBlock := widget.NewCard("Connection", "", container.NewVBox(
		connStatusLabel,
		connectionFields,
	))
	displayBlock := widget.NewCard("Display", "", widget.NewForm(
		widget.NewFormItem("Frame rate", frameRateSelect),
	))
	notificationsBlock := widget.NewCard("Notifications", "", widget.NewForm(
		widget.NewFormItem("Notify when focused", notifyWhenFocused),
		widget.NewFormItem("Connection changes", notifyConnection),
		widget.NewFormItem("Mode changes", notifyModeChange),
	))
	loggingBlock := widget.NewCard("Logging", "", container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Log Level", levelSelect),
			widget.NewFormItem("Log to file", logToFile),
		),
		openLogsButton,
	))
	versionBlock := widget.NewCard("", "", container.NewVBox(
		widget.NewLabel("Version: "+app.BuildVersionWithDate()),
		newSafeHyperlink("Source", app.SourceURL, status),
	))

	content := container.NewVBox(
		connectionBlock,
		displayBlock,
		notificationsBlock,
		loggingBlock,
		saveButton,
		versionBlock,
		status,
	)

	return container.NewVScroll(content)
}

// newSafeHyperlink falls back to a button reporting the bad URL when tapped.
func newSafeHyperlink(text, rawURL string, status *widget.Label) fyne.CanvasObject {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err == nil && parsed.Scheme == "" {
		err = fmt.Errorf("missing scheme in %q", rawURL)
	}
	if err != nil {
		return widget.NewButton(text, func() {
			if status != nil {
				status.SetText(text + " link is unavailable: " + err.Error())
			}
		})
	}

	return widget.NewHyperlink(text, parsed)
}

func setVisible(visible bool, objects ...fyne.CanvasObject) {
	for _, object := range objects {
		if visible {
			object.Show()
			continue
		}
		object.Hide()
	}
}

func uniqueValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		unique = append(unique, trimmed)
	}
	return unique
}

func currentWindow() fyne.Window {
	currentApp := fyne.CurrentApp()
	if currentApp == nil || currentApp.Driver() == nil {
		return nil
	}
	windows := currentApp.Driver().AllWindows()
	if len(windows) == 0 {
		return nil
	}
	return windows[0]
}

func sourceOptionFromType(source config.SourceType) string {
	switch source {
	case config.SourceTCP:
		return sourceOptionTCP
	case config.SourceReplay:
		return sourceOptionReplay
	default:
		return sourceOptionSerial
	}
}

func sourceTypeFromOption(value string) config.SourceType {
	switch strings.TrimSpace(value) {
	case sourceOptionTCP:
		return config.SourceTCP
	case sourceOptionReplay:
		return config.SourceReplay
	default:
		return config.SourceSerial
	}
}

func parseSerialBaud(value string) (int, error) {
	baud, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid serial baud %q", value)
	}
	if baud <= 0 {
		return 0, fmt.Errorf("serial baud must be positive")
	}
	return baud, nil
}

func parseReplayPace(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	pace, err := strconv.Atoi(trimmed)
	if err != nil || pace < 0 {
		return 0, fmt.Errorf("invalid replay pace %q", value)
	}
	return pace, nil
}
