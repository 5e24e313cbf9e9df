// Package pdf handles attachment opening and PDF inspection.
package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Opener launches the platform viewer for candidate paths. Opening is
// fire and forget: the viewer process is started, never awaited.
type Opener struct {
	reader string
}

// NewOpener creates an opener. reader names a specific PDF viewer
// (skim, zathura, evince, okular); empty means the system default.
func NewOpener(reader string) *Opener {
	if reader == "" {
		reader = "system"
	}
	return &Opener{reader: reader}
}

// Open launches the target, which is either an http(s) URL or a local
// file path. URLs always go to the system opener; files go to the
// configured viewer.
func (o *Opener) Open(target string) error {
	if target == "" {
		return fmt.Errorf("nothing to open")
	}

	if IsURL(target) {
		return start(systemCommand(target))
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("attachment does not exist: %s", target)
		}
		return fmt.Errorf("checking attachment: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return start(o.darwinCommand(target))
	case "linux":
		return start(o.linuxCommand(target))
	}
	return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
}

// IsURL reports whether the target is a web URL rather than a file path.
func IsURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func start(cmd *exec.Cmd) error {
	return cmd.Start()
}

func systemCommand(target string) *exec.Cmd {
	if runtime.GOOS == "darwin" {
		return exec.Command("open", target)
	}
	return exec.Command("xdg-open", target)
}

func (o *Opener) darwinCommand(path string) *exec.Cmd {
	switch o.reader {
	case "skim":
		return exec.Command("open", "-a", "Skim", path)
	case "preview":
		return exec.Command("open", "-a", "Preview", path)
	default: // "system"
		return exec.Command("open", path)
	}
}

func (o *Opener) linuxCommand(path string) *exec.Cmd {
	switch o.reader {
	case "zathura":
		return exec.Command("zathura", path)
	case "evince":
		return exec.Command("evince", path)
	case "okular":
		return exec.Command("okular", path)
	default: // "system"
		return exec.Command("xdg-open", path)
	}
}
