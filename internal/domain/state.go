package domain

import "time"

// Mode values reported by the traffic light firmware. The set is open: unknown
// values are kept as-is and rendered with the fallback branch.
const (
	ModeNormal    = "Normal"
	ModeAllOff    = "All Off"
	ModeRedOnly   = "Red Only"
	ModeBlink     = "Blink"
	ModeAllBlink  = "All Blink"
	LightOff      = "Off"
	LightRed      = "Red"
	LightYellow   = "Yellow"
	LightBlue     = "Blue"
	LightBlinking = "Blinking"
	// LightAllBlinking is what the firmware reports while in All Blink mode.
	LightAllBlinking = "All Blinking"
)

// MinBrightness and MaxBrightness bound the PWM duty the firmware derives
// from its potentiometer. The decoder does not enforce them.
const (
	MinBrightness = 5
	MaxBrightness = 255
)

// SignalFlags mirrors the optional per-LED on/off fields the firmware sends
// next to the required ones.
type SignalFlags struct {
	Red    bool
	Yellow bool
	Blue   bool
}

// DeviceState is the last condition reported by the device.
type DeviceState struct {
	Brightness int
	Mode       string
	Light      string
	Signals    *SignalFlags
	ReceivedAt time.Time
}

// Equal compares the reported fields, ignoring the receive timestamp.
func (s DeviceState) Equal(other DeviceState) bool {
	if s.Brightness != other.Brightness || s.Mode != other.Mode || s.Light != other.Light {
		return false
	}
	if s.Signals == nil || other.Signals == nil {
		return s.Signals == nil && other.Signals == nil
	}

	return *s.Signals == *other.Signals
}
