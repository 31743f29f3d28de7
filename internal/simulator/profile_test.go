package simulator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skobkin/trafficview/internal/domain"
)

func TestDefaultProfileMatchesFirmwareCycle(t *testing.T) {
	p := DefaultProfile()
	if err := p.Validate(); err != nil {
		t.Fatalf("default profile must validate: %v", err)
	}
	if got := p.cycleLength().Milliseconds(); got != 6000 {
		t.Fatalf("expected a 6 s cycle, got %d ms", got)
	}
	if p.Cycle[3].Light != domain.LightBlinking {
		t.Fatalf("expected the fourth phase to blink, got %q", p.Cycle[3].Light)
	}
}

func TestParseProfileOverridesDefaults(t *testing.T) {
	raw := []byte(`
name: fast
report_interval_ms: 50
chatter: false
brightness:
  raw: 512
script:
  - at_ms: 1000
    mode: Blink
  - at_ms: 3000
    mode: Blink
`)
	p, err := ParseProfile(raw)
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}
	if p.Name != "fast" || p.ReportIntervalMS != 50 || p.Chatter {
		t.Fatalf("unexpected overrides: %+v", p)
	}
	if len(p.Cycle) != len(DefaultProfile().Cycle) {
		t.Fatalf("expected default cycle to be kept, got %d phases", len(p.Cycle))
	}
	if len(p.Script) != 2 || p.Script[1].AtMS != 3000 {
		t.Fatalf("unexpected script %+v", p.Script)
	}
}

func TestParseProfileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "bad yaml", raw: "cycle: [", want: "decode profile yaml"},
		{name: "zero interval", raw: "report_interval_ms: 0", want: "report_interval_ms"},
		{name: "empty cycle", raw: "cycle: []", want: "at least one phase"},
		{name: "zero phase", raw: "cycle: [{light: Red, duration_ms: 0}]", want: "duration_ms"},
		{name: "phase without light", raw: "cycle: [{duration_ms: 10}]", want: "light is required"},
		{name: "unknown mode", raw: "script: [{at_ms: 1, mode: Disco}]", want: "unknown mode"},
		{name: "script backwards", raw: "script: [{at_ms: 10, mode: Blink}, {at_ms: 5, mode: Blink}]", want: "backwards"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("name: from-file\n"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if p.Name != "from-file" {
		t.Fatalf("unexpected name %q", p.Name)
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
