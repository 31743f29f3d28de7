package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_ResolvesConfigAndCacheDirectories(t *testing.T) {
	configHome := filepath.Join(t.TempDir(), "cfg")
	cacheHome := filepath.Join(t.TempDir(), "cache")
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("resolve paths: %v", err)
	}

	if paths.RootDir != filepath.Join(configHome, Name) {
		t.Fatalf("unexpected root dir: %q", paths.RootDir)
	}
	if paths.ConfigFile != filepath.Join(configHome, Name, ConfigFilename) {
		t.Fatalf("unexpected config file: %q", paths.ConfigFile)
	}
	if paths.LogFile != filepath.Join(configHome, Name, LogFilename) {
		t.Fatalf("unexpected log file: %q", paths.LogFile)
	}
	if paths.CacheDir != filepath.Join(cacheHome, Name) {
		t.Fatalf("unexpected cache dir: %q", paths.CacheDir)
	}
	if _, err := os.Stat(paths.CacheDir); err != nil {
		t.Fatalf("expected cache directory to exist: %v", err)
	}
}

func TestPathsProfilePath(t *testing.T) {
	paths := Paths{ProfilesDir: filepath.Join("base", "profiles")}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "bare name", in: "fast", want: filepath.Join("base", "profiles", "fast.yaml")},
		{name: "with extension", in: "fast.yml", want: "fast.yml"},
		{name: "relative path", in: filepath.Join("dir", "fast"), want: filepath.Join("dir", "fast")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paths.ProfilePath(tt.in); got != tt.want {
				t.Fatalf("ProfilePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
