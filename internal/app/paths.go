package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths stores resolved runtime file locations for user config, logs and simulator profiles.
type Paths struct {
	RootDir     string
	ConfigFile  string
	LogFile     string
	CacheDir    string
	ProfilesDir string
}

func ResolvePaths() (Paths, error) {
	cfgRoot, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve config dir: %w", err)
	}
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve cache dir: %w", err)
	}

	return resolvePathsIn(cfgRoot, cacheRoot)
}

func resolvePathsIn(cfgRoot, cacheRoot string) (Paths, error) {
	root := filepath.Join(cfgRoot, Name)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return Paths{}, fmt.Errorf("create app config dir: %w", err)
	}
	cache := filepath.Join(cacheRoot, Name)
	if err := os.MkdirAll(cache, 0o750); err != nil {
		return Paths{}, fmt.Errorf("create app cache dir: %w", err)
	}

	return Paths{
		RootDir:     root,
		ConfigFile:  filepath.Join(root, ConfigFilename),
		LogFile:     filepath.Join(root, LogFilename),
		CacheDir:    cache,
		ProfilesDir: filepath.Join(root, ProfilesDir),
	}, nil
}

// ProfilePath resolves a simulator profile name against ProfilesDir. Names
// containing a path separator or an extension are returned unchanged.
func (p Paths) ProfilePath(name string) string {
	if name == "" || filepath.Base(name) != name || filepath.Ext(name) != "" {
		return name
	}

	return filepath.Join(p.ProfilesDir, name+".yaml")
}
