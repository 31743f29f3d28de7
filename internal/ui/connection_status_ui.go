package ui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	trafficapp "github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/resources"
)

const (
	connectButtonText    = "Connect"
	disconnectButtonText = "Disconnect"
)

type connectionStatusPresenter struct {
	window        fyne.Window
	statusLabel   *widget.Label
	statusIcon    *widget.Icon
	connectButton *widget.Button

	mu      sync.RWMutex
	current connectors.ConnectionStatus
}

func newConnectionStatusPresenter(
	window fyne.Window,
	statusLabel *widget.Label,
	connectButton *widget.Button,
	initialStatus connectors.ConnectionStatus,
	initialVariant fyne.ThemeVariant,
) *connectionStatusPresenter {
	presenter := &connectionStatusPresenter{
		window:        window,
		statusLabel:   statusLabel,
		statusIcon:    widget.NewIcon(resources.UIIconResource(statusIconFor(initialStatus), initialVariant)),
		connectButton: connectButton,
		current:       initialStatus,
	}
	presenter.applyUI(initialStatus, initialVariant)

	return presenter
}

func (p *connectionStatusPresenter) StatusIcon() *widget.Icon {
	return p.statusIcon
}

func (p *connectionStatusPresenter) Set(status connectors.ConnectionStatus, variant fyne.ThemeVariant) {
	p.mu.Lock()
	p.current = status
	p.mu.Unlock()
	p.applyUI(status, variant)
}

func (p *connectionStatusPresenter) ApplyTheme(variant fyne.ThemeVariant) {
	p.mu.RLock()
	status := p.current
	p.mu.RUnlock()
	if p.statusIcon != nil {
		setConnStatusIcon(p.statusIcon, status, variant)
	}
}

func (p *connectionStatusPresenter) CurrentStatus() connectors.ConnectionStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.current
}

func (p *connectionStatusPresenter) applyUI(status connectors.ConnectionStatus, variant fyne.ThemeVariant) {
	if p.window != nil {
		p.window.SetTitle(formatWindowTitle(status))
	}
	if p.statusLabel != nil {
		p.statusLabel.SetText(trafficapp.ConnectionStatusText(status))
	}
	if p.statusIcon != nil {
		setConnStatusIcon(p.statusIcon, status, variant)
	}
	if p.connectButton != nil {
		applyConnectButton(p.connectButton, status)
	}
}

func formatWindowTitle(status connectors.ConnectionStatus) string {
	return fmt.Sprintf("%s %s - %s", trafficapp.DisplayName, trafficapp.BuildVersion(), trafficapp.ConnectionStatusText(status))
}

// sessionActive reports whether the button should offer Disconnect.
func sessionActive(status connectors.ConnectionStatus) bool {
	return status.State == connectors.ConnectionStateConnecting || status.State == connectors.ConnectionStateConnected
}

func applyConnectButton(button *widget.Button, status connectors.ConnectionStatus) {
	if sessionActive(status) {
		button.SetText(disconnectButtonText)
		button.Importance = widget.MediumImportance
	} else {
		button.SetText(connectButtonText)
		button.Importance = widget.HighImportance
	}
	button.Enable()
	button.Refresh()
}

func setConnStatusIcon(icon *widget.Icon, status connectors.ConnectionStatus, variant fyne.ThemeVariant) {
	icon.SetResource(resources.UIIconResource(statusIconFor(status), variant))
}

func statusIconFor(status connectors.ConnectionStatus) resources.UIIcon {
	if status.State == connectors.ConnectionStateConnected {
		return resources.UIIconConnected
	}

	return resources.UIIconDisconnected
}
