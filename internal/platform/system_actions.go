package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// SystemActions provides OS-specific helpers triggered from the UI.
type SystemActions interface {
	OpenPath(path string) error
}

func NewSystemActions() SystemActions {
	return osSystemActions{goos: runtime.GOOS, start: startCommandDetached}
}

type osSystemActions struct {
	goos  string
	start commandStarter
}

func (a osSystemActions) OpenPath(path string) error {
	return openPathForOS(a.goos, path, a.start)
}

type commandSpec struct {
	name string
	args []string
}

type commandStarter func(name string, args ...string) error

// openPathForOS tries the file manager launchers for goos in order until one starts.
func openPathForOS(goos, path string, start commandStarter) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is empty")
	}
	normalizedOS := strings.ToLower(strings.TrimSpace(goos))
	commands, err := openPathCommandsForOS(normalizedOS, path)
	if err != nil {
		return err
	}

	var errs []error
	for i, spec := range commands {
		err := start(spec.name, spec.args...)
		if err == nil {
			slog.Info("opened path", "goos", normalizedOS, "command", spec.name, "attempt", i+1)

			return nil
		}
		slog.Debug("open path command failed", "command", spec.name, "args", spec.args, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", spec.name, err))
	}

	joinedErr := errors.Join(errs...)
	slog.Warn("failed to open path", "path", path, "error", joinedErr)

	return joinedErr
}

func openPathCommandsForOS(goos, path string) ([]commandSpec, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return []commandSpec{
			{name: "xdg-open", args: []string{path}},
			{name: "gio", args: []string{"open", path}},
		}, nil
	case "darwin":
		return []commandSpec{{name: "open", args: []string{path}}}, nil
	case "windows":
		return []commandSpec{{name: "explorer", args: []string{path}}}, nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
}

func startCommandDetached(name string, args ...string) error {
	// #nosec G204 -- command names come from the fixed table above.
	cmd := exec.Command(name, args...)

	return cmd.Start()
}
