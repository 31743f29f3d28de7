package simulator

import (
	"time"

	"github.com/skobkin/trafficview/internal/domain"
)

const maxPotReading = 1023

// MapBrightness converts a 10-bit potentiometer reading into the PWM duty
// the firmware reports, using the same integer arithmetic.
func MapBrightness(raw int) int {
	raw = min(max(raw, 0), maxPotReading)
	span := domain.MaxBrightness - domain.MinBrightness

	return raw*span/maxPotReading + domain.MinBrightness
}

// Device is a deterministic model of the traffic light firmware. All
// queries take the time elapsed since the device started.
type Device struct {
	profile    Profile
	cycle      time.Duration
	mode       string
	cycleStart time.Duration
	modeStart  time.Duration
}

func NewDevice(profile Profile) *Device {
	return &Device{
		profile: profile,
		cycle:   profile.cycleLength(),
		mode:    domain.ModeNormal,
	}
}

func (d *Device) Mode() string {
	return d.mode
}

// Press emulates a mode button: it enters mode, or returns to Normal if mode
// is already active. It returns the status line the firmware prints.
func (d *Device) Press(mode string, at time.Duration) string {
	if mode == d.mode || mode == domain.ModeNormal {
		prev := d.mode
		d.mode = domain.ModeNormal
		d.cycleStart = at
		d.modeStart = at
		return leaveChatter(prev)
	}

	d.mode = mode
	d.modeStart = at

	return enterChatter(mode)
}

func enterChatter(mode string) string {
	switch mode {
	case domain.ModeBlink:
		return "Blink Mode ON"
	case domain.ModeRedOnly:
		return "Red Only Mode ON"
	case domain.ModeAllOff:
		return "All LEDs Off"
	default:
		return mode + " Mode ON"
	}
}

func leaveChatter(mode string) string {
	switch mode {
	case domain.ModeBlink:
		return "Blink Mode OFF"
	case domain.ModeRedOnly:
		return "Red Only Mode OFF"
	case domain.ModeAllOff, domain.ModeNormal:
		return "Traffic Light Mode ON"
	default:
		return mode + " Mode OFF"
	}
}

// Brightness is the reported brightness at the given time.
func (d *Device) Brightness(at time.Duration) int {
	b := d.profile.Brightness
	if b.SweepMS <= 0 {
		return MapBrightness(b.Raw)
	}

	period := time.Duration(b.SweepMS) * time.Millisecond
	pos := at % period
	half := period / 2
	if pos > half {
		pos = period - pos
	}
	if half == 0 {
		return MapBrightness(b.Raw)
	}

	return MapBrightness(int(int64(pos) * maxPotReading / int64(half)))
}

// phaseAt returns the active Normal cycle phase and the time spent in it.
func (d *Device) phaseAt(at time.Duration) (Phase, time.Duration) {
	if d.cycle <= 0 {
		return Phase{Light: domain.LightOff}, 0
	}
	offset := (at - d.cycleStart) % d.cycle
	if offset < 0 {
		offset += d.cycle
	}
	for _, phase := range d.profile.Cycle {
		if offset < phase.Duration() {
			return phase, offset
		}
		offset -= phase.Duration()
	}

	last := d.profile.Cycle[len(d.profile.Cycle)-1]
	return last, last.Duration()
}

// BlueBlinkOn reports whether the blue lamp is lit inside a Blinking phase.
func (d *Device) BlueBlinkOn(at time.Duration) bool {
	phase, in := d.phaseAt(at)
	if d.mode != domain.ModeNormal || phase.Light != domain.LightBlinking {
		return false
	}
	step := time.Duration(d.profile.BlueBlinkMS) * time.Millisecond

	return (in/step)%2 == 1
}

func (d *Device) blinkOn(at time.Duration) bool {
	step := time.Duration(d.profile.BlinkIntervalMS) * time.Millisecond

	return ((at-d.modeStart)/step)%2 == 0
}

// State is the record the firmware would print at the given time.
func (d *Device) State(at time.Duration) domain.DeviceState {
	state := domain.DeviceState{
		Brightness: d.Brightness(at),
		Mode:       d.mode,
		Light:      domain.LightOff,
		Signals:    &domain.SignalFlags{},
	}

	switch d.mode {
	case domain.ModeNormal:
		phase, _ := d.phaseAt(at)
		state.Light = phase.Light
		switch phase.Light {
		case domain.LightRed:
			state.Signals.Red = true
		case domain.LightYellow:
			state.Signals.Yellow = true
		case domain.LightBlue, domain.LightBlinking:
			state.Signals.Blue = true
		}
	case domain.ModeRedOnly:
		state.Light = domain.LightRed
		state.Signals.Red = true
	case domain.ModeBlink:
		on := d.blinkOn(at)
		*state.Signals = domain.SignalFlags{Red: on, Yellow: on, Blue: on}
	case domain.ModeAllBlink:
		state.Light = domain.LightAllBlinking
		on := d.blinkOn(at)
		*state.Signals = domain.SignalFlags{Red: on, Yellow: on, Blue: on}
	}

	return state
}
