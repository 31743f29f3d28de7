package render

import "github.com/skobkin/trafficview/internal/domain"

const (
	// BlinkPeriod is the length of one blink cycle in frames; the lamp is on
	// for the first BlinkOnFrames of it.
	BlinkPeriod   = 30
	BlinkOnFrames = 15

	allBlinkHighAlpha = 255
	allBlinkLowAlpha  = 100
)

// BlinkOn reports the shared blink phase for a frame.
func BlinkOn(frame uint64) bool {
	return frame%BlinkPeriod < BlinkOnFrames
}

// Render derives the lamp picture for a state at a given frame. It is pure:
// the same arguments always produce the same result, and unknown modes or
// lights render every lamp dim.
func Render(state domain.DeviceState, frame uint64) VisualState {
	out := dimAll()
	alpha := clampAlpha(state.Brightness)
	on := BlinkOn(frame)

	switch state.Mode {
	case domain.ModeAllOff:
	case domain.ModeRedOnly:
		out.Red = lit(SignalRed, alpha)
	case domain.ModeBlink:
		if on {
			out.Red = lit(SignalRed, alpha)
			out.Yellow = lit(SignalYellow, alpha)
			out.Blue = lit(SignalBlue, alpha)
		}
	case domain.ModeAllBlink:
		level := uint8(allBlinkLowAlpha)
		if on {
			level = allBlinkHighAlpha
		}
		out.Red = lit(SignalRed, level)
		out.Yellow = lit(SignalYellow, level)
		out.Blue = lit(SignalBlue, level)
	case domain.ModeNormal:
		switch state.Light {
		case domain.LightRed:
			out.Red = lit(SignalRed, alpha)
		case domain.LightYellow:
			out.Yellow = lit(SignalYellow, alpha)
		case domain.LightBlue:
			out.Blue = lit(SignalBlue, alpha)
		case domain.LightBlinking:
			if on {
				out.Blue = lit(SignalBlue, alpha)
			}
		}
	}

	return out
}

func dimAll() VisualState {
	return VisualState{
		Red:    Slot{Signal: SignalRed},
		Yellow: Slot{Signal: SignalYellow},
		Blue:   Slot{Signal: SignalBlue},
	}
}

func lit(signal Signal, alpha uint8) Slot {
	return Slot{Signal: signal, Lit: true, Alpha: alpha}
}

// clampAlpha is the only place brightness is bounded; decoded states keep
// the raw value.
func clampAlpha(brightness int) uint8 {
	switch {
	case brightness < 0:
		return 0
	case brightness > 255:
		return 255
	default:
		return uint8(brightness)
	}
}
