package pdf

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewTextExtractor(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"pdftotext", false},
		{"native", false},
		{"ocr", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := NewTextExtractor(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTextExtractor(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && ex == nil {
				t.Errorf("NewTextExtractor(%q) returned nil extractor", tt.name)
			}
		})
	}
}

func TestPdftotext_MissingFile(t *testing.T) {
	p := &Pdftotext{}
	_, err := p.PageText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), 1, 1)
	if err == nil || !strings.Contains(err.Error(), "PDF not found") {
		t.Errorf("PageText() error = %v, want PDF not found", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("PageText() error = %v, want fs.ErrNotExist", err)
	}
}

func TestPdftotext_CommandFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	p := &Pdftotext{Command: filepath.Join(t.TempDir(), "no-such-pdftotext")}
	if _, err := p.PageText(context.Background(), path, 1, 1); err == nil {
		t.Error("PageText() should fail when the command cannot run")
	}
}

func TestNative_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, []byte("plain text, not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := (Native{}).PageText(context.Background(), path, 1, 1); err == nil {
		t.Error("PageText() should fail on a non-PDF file")
	}
}

func TestOpener_Command(t *testing.T) {
	tests := []struct {
		goos   string
		reader string
		want   []string
	}{
		{"linux", "system", []string{"xdg-open", "/lib/a.pdf"}},
		{"linux", "zathura", []string{"zathura", "/lib/a.pdf"}},
		{"darwin", "skim", []string{"open", "-a", "Skim", "/lib/a.pdf"}},
		{"darwin", "", []string{"open", "/lib/a.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.reader, func(t *testing.T) {
			o := NewOpener(tt.reader)
			o.goos = tt.goos
			cmd, err := o.Command("/lib/a.pdf")
			if err != nil {
				t.Fatalf("Command() error = %v", err)
			}
			got := append([]string{filepath.Base(cmd.Path)}, cmd.Args[1:]...)
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("Command() = %v, want %v", got, tt.want)
			}
		})
	}

	o := NewOpener("system")
	o.goos = "plan9"
	if _, err := o.Command("/lib/a.pdf"); err == nil {
		t.Error("Command() should fail on unsupported platforms")
	}
}

func TestValidateReader(t *testing.T) {
	for _, r := range append(ValidReaders, "") {
		if err := ValidateReader(r); err != nil {
			t.Errorf("ValidateReader(%q) error = %v", r, err)
		}
	}
	if err := ValidateReader("acrobat"); err == nil {
		t.Error("ValidateReader(acrobat) should fail")
	}
}
