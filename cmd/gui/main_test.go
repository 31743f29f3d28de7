package main

import "testing"

func TestParseLaunchOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    launchOptions
		wantErr bool
	}{
		{name: "defaults", args: nil, want: launchOptions{}},
		{name: "start hidden", args: []string{"--start-hidden"}, want: launchOptions{StartHidden: true}},
		{name: "connect", args: []string{"-connect"}, want: launchOptions{Connect: true}},
		{
			name: "tray session",
			args: []string{"--start-hidden", "--connect"},
			want: launchOptions{StartHidden: true, Connect: true},
		},
		{name: "explicit false", args: []string{"--connect=false"}, want: launchOptions{}},
		{name: "serial port as positional", args: []string{"/dev/ttyACM0"}, wantErr: true},
		{name: "unknown flag", args: []string{"--port=/dev/ttyACM0"}, wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseLaunchOptions(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error, got nil", tc.name)
			}

			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}
