package simulator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skobkin/trafficview/internal/domain"
)

// Phase is one step of the Normal mode cycle.
type Phase struct {
	Light      string `yaml:"light"`
	DurationMS int    `yaml:"duration_ms"`
}

func (p Phase) Duration() time.Duration {
	return time.Duration(p.DurationMS) * time.Millisecond
}

// ModeEvent presses the button for Mode at AtMS after start. Pressing the
// button of the active mode returns the device to Normal.
type ModeEvent struct {
	AtMS int    `yaml:"at_ms"`
	Mode string `yaml:"mode"`
}

// BrightnessProfile drives the simulated potentiometer. Raw is the 10-bit
// reading; a positive SweepMS turns it into a triangle wave over 0..1023.
type BrightnessProfile struct {
	Raw     int `yaml:"raw"`
	SweepMS int `yaml:"sweep_ms"`
}

// Profile describes how the simulated traffic light behaves.
type Profile struct {
	Name             string            `yaml:"name"`
	ReportIntervalMS int               `yaml:"report_interval_ms"`
	BlinkIntervalMS  int               `yaml:"blink_interval_ms"`
	BlueBlinkMS      int               `yaml:"blue_blink_ms"`
	Chatter          bool              `yaml:"chatter"`
	Brightness       BrightnessProfile `yaml:"brightness"`
	Cycle            []Phase           `yaml:"cycle"`
	Script           []ModeEvent       `yaml:"script"`
}

// DefaultProfile reproduces the stock firmware: red 2 s, yellow 0.5 s,
// blue 2 s, blue blinking 1 s, yellow 0.5 s, reporting every 100 ms.
func DefaultProfile() Profile {
	return Profile{
		Name:             "firmware",
		ReportIntervalMS: 100,
		BlinkIntervalMS:  500,
		BlueBlinkMS:      167,
		Chatter:          true,
		Brightness:       BrightnessProfile{Raw: 1023},
		Cycle: []Phase{
			{Light: domain.LightRed, DurationMS: 2000},
			{Light: domain.LightYellow, DurationMS: 500},
			{Light: domain.LightBlue, DurationMS: 2000},
			{Light: domain.LightBlinking, DurationMS: 1000},
			{Light: domain.LightYellow, DurationMS: 500},
		},
	}
}

// LoadProfile reads a YAML profile; omitted keys keep their defaults.
func LoadProfile(path string) (Profile, error) {
	// #nosec G304 -- profile path is chosen by the user on the command line.
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	return ParseProfile(raw)
}

func ParseProfile(raw []byte) (Profile, error) {
	profile := DefaultProfile()
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile yaml: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}

	return profile, nil
}

func (p Profile) Validate() error {
	if p.ReportIntervalMS <= 0 {
		return errors.New("report_interval_ms must be positive")
	}
	if p.BlinkIntervalMS <= 0 {
		return errors.New("blink_interval_ms must be positive")
	}
	if p.BlueBlinkMS <= 0 {
		return errors.New("blue_blink_ms must be positive")
	}
	if len(p.Cycle) == 0 {
		return errors.New("cycle must have at least one phase")
	}
	for i, phase := range p.Cycle {
		if phase.DurationMS <= 0 {
			return fmt.Errorf("cycle phase %d: duration_ms must be positive", i)
		}
		if phase.Light == "" {
			return fmt.Errorf("cycle phase %d: light is required", i)
		}
	}
	prev := -1
	for i, ev := range p.Script {
		if ev.AtMS < prev {
			return fmt.Errorf("script event %d: at_ms must not go backwards", i)
		}
		switch ev.Mode {
		case domain.ModeNormal, domain.ModeBlink, domain.ModeRedOnly, domain.ModeAllOff, domain.ModeAllBlink:
		default:
			return fmt.Errorf("script event %d: unknown mode %q", i, ev.Mode)
		}
		prev = ev.AtMS
	}

	return nil
}

func (p Profile) cycleLength() time.Duration {
	var total time.Duration
	for _, phase := range p.Cycle {
		total += phase.Duration()
	}

	return total
}
