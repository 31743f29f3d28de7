package render

import (
	"fmt"
	"image/color"
)

// Signal identifies one of the three lamps of the traffic light.
type Signal int

const (
	SignalRed Signal = iota
	SignalYellow
	SignalBlue
)

// AllSignals lists the lamps in drawing order, left to right.
var AllSignals = [...]Signal{SignalRed, SignalYellow, SignalBlue}

func (s Signal) String() string {
	switch s {
	case SignalRed:
		return "red"
	case SignalYellow:
		return "yellow"
	case SignalBlue:
		return "blue"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Hue is the fully opaque lamp colour.
func (s Signal) Hue() color.NRGBA {
	switch s {
	case SignalRed:
		return color.NRGBA{R: 255, A: 255}
	case SignalYellow:
		return color.NRGBA{R: 255, G: 255, A: 255}
	case SignalBlue:
		return color.NRGBA{B: 255, A: 255}
	default:
		return DimColor
	}
}

// DimColor is the unlit lamp: opaque mid grey.
var DimColor = color.NRGBA{R: 100, G: 100, B: 100, A: 255}

// Slot is the render instruction for one lamp. An unlit slot ignores Alpha.
type Slot struct {
	Signal Signal
	Lit    bool
	Alpha  uint8
}

func (s Slot) Color() color.NRGBA {
	if !s.Lit {
		return DimColor
	}
	c := s.Signal.Hue()
	c.A = s.Alpha

	return c
}

func (s Slot) String() string {
	if !s.Lit {
		return s.Signal.String() + ":dim"
	}

	return fmt.Sprintf("%s@%d", s.Signal, s.Alpha)
}

// VisualState holds one slot per lamp.
type VisualState struct {
	Red    Slot
	Yellow Slot
	Blue   Slot
}

func (v VisualState) Slot(signal Signal) Slot {
	switch signal {
	case SignalYellow:
		return v.Yellow
	case SignalBlue:
		return v.Blue
	default:
		return v.Red
	}
}

func (v VisualState) Slots() [3]Slot {
	return [3]Slot{v.Red, v.Yellow, v.Blue}
}

// AnyLit reports whether at least one lamp is on.
func (v VisualState) AnyLit() bool {
	return v.Red.Lit || v.Yellow.Lit || v.Blue.Lit
}

func (v VisualState) String() string {
	return fmt.Sprintf("[%s %s %s]", v.Red, v.Yellow, v.Blue)
}
