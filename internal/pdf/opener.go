package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ValidReaders lists the supported reader values.
var ValidReaders = []string{"system", "skim", "preview", "zathura", "evince", "okular"}

// Opener opens library files in the configured reader.
type Opener struct {
	reader string
	goos   string
}

// NewOpener creates an opener for the given reader preference.
func NewOpener(reader string) *Opener {
	if reader == "" {
		reader = "system"
	}
	return &Opener{reader: reader, goos: runtime.GOOS}
}

// Open starts the reader on path without waiting for it to exit.
func (o *Opener) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("checking file: %w", err)
	}

	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command returns the command that would open path.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	switch o.goos {
	case "darwin":
		return o.darwinCommand(path), nil
	case "linux":
		return o.linuxCommand(path), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", o.goos)
	}
}

func (o *Opener) darwinCommand(path string) *exec.Cmd {
	switch o.reader {
	case "skim":
		return exec.Command("open", "-a", "Skim", path)
	case "preview":
		return exec.Command("open", "-a", "Preview", path)
	default:
		return exec.Command("open", path)
	}
}

func (o *Opener) linuxCommand(path string) *exec.Cmd {
	switch o.reader {
	case "zathura", "evince", "okular":
		return exec.Command(o.reader, path)
	default:
		return exec.Command("xdg-open", path)
	}
}

// ValidateReader checks that reader is one of ValidReaders (empty is allowed).
func ValidateReader(reader string) error {
	if reader == "" {
		return nil
	}
	for _, valid := range ValidReaders {
		if reader == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid pdf_reader: %s (valid: %v)", reader, ValidReaders)
}
