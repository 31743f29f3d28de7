package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/skobkin/trafficview/internal/domain"
)

// DecodeErrorKind classifies why a line did not produce a DeviceState.
type DecodeErrorKind string

const (
	DecodeEmpty        DecodeErrorKind = "empty"
	DecodeMalformed    DecodeErrorKind = "malformed"
	DecodeMissingField DecodeErrorKind = "missing_field"
)

// DecodeError keeps the offending line so it can be logged verbatim.
type DecodeError struct {
	Kind  DecodeErrorKind
	Line  string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case DecodeEmpty:
		return "empty line"
	case DecodeMissingField:
		return fmt.Sprintf("missing field %q in %q", e.Field, e.Line)
	default:
		if e.Err != nil {
			return fmt.Sprintf("malformed line %q: %v", e.Line, e.Err)
		}
		return fmt.Sprintf("malformed line %q", e.Line)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsEmptyLine reports whether err is a DecodeError for a blank line.
func IsEmptyLine(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr) && decodeErr.Kind == DecodeEmpty
}

// wireState is the firmware's record as it goes over the line.
type wireState struct {
	Light      string `json:"Light"`
	Red        *int   `json:"Red,omitempty"`
	Yellow     *int   `json:"Yellow,omitempty"`
	Blue       *int   `json:"Blue,omitempty"`
	Mode       string `json:"Mode"`
	Brightness int    `json:"Brightness"`
}

// Codec decodes device lines. The zero value is ready to use.
type Codec struct {
	now func() time.Time
}

func NewCodec() *Codec {
	return &Codec{now: time.Now}
}

// Decode never panics: every input yields either a state or a *DecodeError.
func (c *Codec) Decode(line string) (domain.DeviceState, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return domain.DeviceState{}, &DecodeError{Kind: DecodeEmpty, Line: line}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return domain.DeviceState{}, &DecodeError{Kind: DecodeMalformed, Line: line, Err: err}
	}

	state := domain.DeviceState{ReceivedAt: c.timestamp()}
	brightness, err := requireBrightness(fields, line)
	if err != nil {
		return domain.DeviceState{}, err
	}
	state.Brightness = brightness
	if err := requireField(fields, line, "Mode", &state.Mode); err != nil {
		return domain.DeviceState{}, err
	}
	if err := requireField(fields, line, "Light", &state.Light); err != nil {
		return domain.DeviceState{}, err
	}

	red, redOK := optionalFlag(fields, "Red")
	yellow, yellowOK := optionalFlag(fields, "Yellow")
	blue, blueOK := optionalFlag(fields, "Blue")
	if redOK || yellowOK || blueOK {
		state.Signals = &domain.SignalFlags{Red: red, Yellow: yellow, Blue: blue}
	}

	return state, nil
}

// requireField looks the key up by its exact name; encoding/json alone would
// also accept "brightness" or "MODE".
func requireField(fields map[string]json.RawMessage, line, key string, dst any) error {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return &DecodeError{Kind: DecodeMissingField, Line: line, Field: key}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &DecodeError{Kind: DecodeMalformed, Line: line, Field: key, Err: fmt.Errorf("field %s: %w", key, err)}
	}

	return nil
}

// maxExactBrightness bounds the integers a float64 holds exactly.
const maxExactBrightness = 1 << 53

// requireBrightness accepts any integral JSON number, so 128, 128.0 and
// 1.28e2 are the same reading. Fractions and quoted numbers are malformed.
func requireBrightness(fields map[string]json.RawMessage, line string) (int, error) {
	var value float64
	if err := requireField(fields, line, "Brightness", &value); err != nil {
		return 0, err
	}
	if value != math.Trunc(value) || math.Abs(value) > maxExactBrightness {
		return 0, &DecodeError{
			Kind:  DecodeMalformed,
			Line:  line,
			Field: "Brightness",
			Err:   fmt.Errorf("field Brightness: %v is not an integer", value),
		}
	}

	return int(value), nil
}

// optionalFlag reads the firmware's 0/1 LED fields. Unreadable values count as absent.
func optionalFlag(fields map[string]json.RawMessage, key string) (bool, bool) {
	raw, ok := fields[key]
	if !ok {
		return false, false
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, false
	}

	return v != 0, true
}

func (c *Codec) timestamp() time.Time {
	if c == nil || c.now == nil {
		return time.Now()
	}

	return c.now()
}

// Encode renders a state the way the firmware prints it, without the newline.
func Encode(state domain.DeviceState) ([]byte, error) {
	wire := wireState{
		Brightness: state.Brightness,
		Mode:       state.Mode,
		Light:      state.Light,
	}
	if state.Signals != nil {
		wire.Red = flagValue(state.Signals.Red)
		wire.Yellow = flagValue(state.Signals.Yellow)
		wire.Blue = flagValue(state.Signals.Blue)
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode device state: %w", err)
	}

	return raw, nil
}

func flagValue(on bool) *int {
	v := 0
	if on {
		v = 1
	}

	return &v
}
