package session

import (
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// Launcher hands a URL to the host platform's external browser. It is
// fire-and-forget: a nil error means only that something accepted the URL,
// not that the user completed anything there.
type Launcher interface {
	Open(url string) error
}

type browserLauncher struct{}

// NewBrowserLauncher returns a Launcher that opens URLs using the system's
// default web browser.
func NewBrowserLauncher() Launcher {
	return &browserLauncher{}
}

func (b *browserLauncher) Open(authURL string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", authURL).Start()
	case "windows":
		return exec.Command(
			"rundll32",
			"url.dll,FileProtocolHandler",
			authURL,
		).Start()
	case "darwin":
		return exec.Command("open", authURL).Start()
	default:
		return errors.Errorf("unsupported OS %q", runtime.GOOS)
	}
}
