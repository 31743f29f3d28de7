package platform

import "testing"

func TestNormalizeLockComponent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback string
		want     string
	}{
		{name: "unix device path", raw: "/dev/ttyACM0", fallback: "port", want: "dev_ttyACM0"},
		{name: "windows port", raw: "COM3", fallback: "port", want: "COM3"},
		{name: "windows device namespace", raw: `\\.\COM12`, fallback: "port", want: "COM12"},
		{name: "keeps separators inside", raw: "trafficview-v1.2_3", fallback: "app", want: "trafficview-v1.2_3"},
		{name: "empty uses fallback", raw: "   ", fallback: "port", want: "port"},
		{name: "all unsupported uses fallback", raw: "[]{}", fallback: "port", want: "port"},
	}

	for _, tc := range tests {
		got := normalizeLockComponent(tc.raw, tc.fallback)
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
