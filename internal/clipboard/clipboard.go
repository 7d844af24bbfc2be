// Package clipboard copies exported BibTeX to the system clipboard through the
// platform's clipboard tool.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard tool is installed.
var ErrUnavailable = errors.New("clipboard unavailable")

// Clipboard writes text through pbcopy, xclip or xsel.
type Clipboard struct {
	goos     string
	lookPath func(string) (string, error)
}

// New returns a clipboard for the running platform.
func New() *Clipboard {
	return &Clipboard{goos: runtime.GOOS, lookPath: exec.LookPath}
}

// Available reports whether a clipboard tool was found.
func (c *Clipboard) Available() bool {
	_, err := c.Command()
	return err == nil
}

// Command returns the command that reads the clipboard content from stdin.
func (c *Clipboard) Command() (*exec.Cmd, error) {
	var candidates [][]string
	switch c.goos {
	case "darwin":
		candidates = [][]string{{"pbcopy"}}
	case "linux":
		// xclip first, xsel as fallback
		candidates = [][]string{
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
		}
	default:
		return nil, ErrUnavailable
	}

	for _, argv := range candidates {
		if _, err := c.lookPath(argv[0]); err == nil {
			return exec.Command(argv[0], argv[1:]...), nil
		}
	}
	return nil, ErrUnavailable
}

// Copy puts text on the clipboard.
func (c *Clipboard) Copy(text string) error {
	cmd, err := c.Command()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
