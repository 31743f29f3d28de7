package mirror

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/domain"
)

const (
	MessageTypeState  = "state"
	MessageTypeStatus = "status"
)

// Message is the envelope both mirrors send to their clients.
type Message struct {
	Type   string         `json:"type"`
	State  *StatePayload  `json:"state,omitempty"`
	Status *StatusPayload `json:"status,omitempty"`
	At     time.Time      `json:"at"`
}

type StatePayload struct {
	Brightness int             `json:"brightness"`
	Mode       string          `json:"mode"`
	Light      string          `json:"light"`
	Signals    *SignalsPayload `json:"signals,omitempty"`
}

type SignalsPayload struct {
	Red    bool `json:"red"`
	Yellow bool `json:"yellow"`
	Blue   bool `json:"blue"`
}

type StatusPayload struct {
	State     string `json:"state"`
	Transport string `json:"transport,omitempty"`
	Target    string `json:"target,omitempty"`
	Error     string `json:"error,omitempty"`
}

func StateMessage(state domain.DeviceState) Message {
	payload := &StatePayload{
		Brightness: state.Brightness,
		Mode:       state.Mode,
		Light:      state.Light,
	}
	if state.Signals != nil {
		payload.Signals = &SignalsPayload{
			Red:    state.Signals.Red,
			Yellow: state.Signals.Yellow,
			Blue:   state.Signals.Blue,
		}
	}

	at := state.ReceivedAt
	if at.IsZero() {
		at = time.Now()
	}

	return Message{Type: MessageTypeState, State: payload, At: at.UTC()}
}

func StatusMessage(status connectors.ConnectionStatus) Message {
	at := status.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	return Message{
		Type: MessageTypeStatus,
		Status: &StatusPayload{
			State:     string(status.State),
			Transport: status.TransportName,
			Target:    status.Target,
			Error:     status.Err,
		},
		At: at.UTC(),
	}
}

func (m Message) Encode() ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode mirror message: %w", err)
	}

	return raw, nil
}
