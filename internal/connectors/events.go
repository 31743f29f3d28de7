package connectors

import "time"

// ConnectionState describes the session lifecycle state shown in UI.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateFailed       ConnectionState = "failed"
)

// ConnectionStatus is a bus event snapshot of current session status.
type ConnectionStatus struct {
	State         ConnectionState
	Err           string
	TransportName string
	Target        string
	Timestamp     time.Time
}

// RawLine carries a framed line before decoding, for debug views.
type RawLine struct {
	Text string
	Len  int
	At   time.Time
}

// DecodeFailure reports a line the decoder rejected. The read loop keeps going.
type DecodeFailure struct {
	Kind string
	Line string
	Err  string
	At   time.Time
}
