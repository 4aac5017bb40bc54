//go:build !windows

package fileinfo

import (
	"errors"
	"os/exec"
	"runtime"
)

// OpenWithDefaultApp opens the given path with the system default application.
// On Unix-like systems, try xdg-open (with basic fallbacks if unavailable).
func OpenWithDefaultApp(p string) error {
	candidates := [][]string{
		{"xdg-open", p},
		{"gio", "open", p},
		{"gnome-open", p},
		{"kde-open", p},
	}
	if runtime.GOOS == "darwin" {
		candidates = [][]string{{"open", p}}
	}
	var lastErr error
	for _, args := range candidates {
		// Ensure the binary exists before trying
		path, lookErr := exec.LookPath(args[0])
		if lookErr != nil {
			continue
		}
		cmd := exec.Command(path, args[1:]...)
		if err := cmd.Start(); err != nil {
			lastErr = err
			continue
		}
		// reap the child so it does not linger as a zombie
		go func() { _ = cmd.Wait() }()
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no suitable opener found (xdg-open/gio/gnome-open)")
	}
	return lastErr
}
