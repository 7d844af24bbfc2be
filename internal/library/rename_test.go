package library

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRenameFiles_DryRunSingleFile(t *testing.T) {
	lib := New("unused.bib", "/lib", WithLogger(quietLogger()))
	r := newRecord("smith2020", "2020")
	SetFiles(r, []string{"/tmp/x.pdf"}, true)

	n, err := lib.RenameFiles(r, RenameOptions{DryRun: true})
	if err != nil {
		t.Fatalf("RenameFiles() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RenameFiles() = %d, want 1", n)
	}

	want := []File{{"/lib/2020/smith2020.pdf", "pdf"}}
	if got := GetFiles(r); !reflect.DeepEqual(got, want) {
		t.Errorf("GetFiles() = %v, want %v", got, want)
	}
	if _, err := os.Stat("/lib/2020"); err == nil {
		t.Error("dry run created the target directory")
	}
}

func TestRenameFiles_MovesSingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "inbox", "download.pdf")
	writeFile(t, src, "%PDF-1.4")

	filesDir := filepath.Join(dir, "files")
	lib := New("unused.bib", filesDir, WithLogger(quietLogger()))
	r := newRecord("Perrette_2011", "2011")
	SetFiles(r, []string{src}, true)

	if _, err := lib.RenameFiles(r, RenameOptions{}); err != nil {
		t.Fatalf("RenameFiles() error = %v", err)
	}

	target := filepath.Join(filesDir, "2011", "Perrette_2011.pdf")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("target not written: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("target content = %q", data)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still present after move")
	}
	if got := r.Field(FieldFile); got != target+":pdf" {
		t.Errorf("file field = %q", got)
	}
}

func TestRenameFiles_CopyKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "download.pdf")
	writeFile(t, src, "content")

	lib := New("unused.bib", filepath.Join(dir, "files"), WithLogger(quietLogger()))
	r := newRecord("a2000", "2000")
	SetFiles(r, []string{src}, true)

	if _, err := lib.RenameFiles(r, RenameOptions{Copy: true}); err != nil {
		t.Fatalf("RenameFiles() error = %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source removed by copy: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "files", "2000", "a2000.pdf")); err != nil {
		t.Errorf("copy missing: %v", err)
	}
}

func TestRenameFiles_SeveralFiles(t *testing.T) {
	dir := t.TempDir()
	paper := filepath.Join(dir, "paper.pdf")
	supp := filepath.Join(dir, "supplement.zip")
	writeFile(t, paper, "p")
	writeFile(t, supp, "s")

	filesDir := filepath.Join(dir, "files")
	lib := New("unused.bib", filesDir, WithLogger(quietLogger()))
	r := newRecord("Doe2019", "2019")
	SetFiles(r, []string{paper, supp}, true)

	n, err := lib.RenameFiles(r, RenameOptions{})
	if err != nil {
		t.Fatalf("RenameFiles() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RenameFiles() = %d, want 2", n)
	}

	sub := filepath.Join(filesDir, "2019", "Doe2019")
	want := []File{
		{filepath.Join(sub, "paper.pdf"), "pdf"},
		{filepath.Join(sub, "supplement.zip"), "zip"},
	}
	if got := GetFiles(r); !reflect.DeepEqual(got, want) {
		t.Errorf("GetFiles() = %v, want %v", got, want)
	}
	for _, f := range want {
		if _, err := os.Stat(f.Path); err != nil {
			t.Errorf("%s missing: %v", f.Path, err)
		}
	}
}

func TestRenameFiles_AlreadyInPlace(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "2000", "a2000.pdf")
	writeFile(t, target, "x")

	lib := New("unused.bib", dir, WithLogger(quietLogger()))
	r := newRecord("a2000", "2000")
	SetFiles(r, []string{target}, true)

	n, err := lib.RenameFiles(r, RenameOptions{})
	if err != nil {
		t.Fatalf("RenameFiles() error = %v", err)
	}
	if n != 0 {
		t.Errorf("RenameFiles() = %d, want 0", n)
	}
}

func TestRenameFiles_NoFiles(t *testing.T) {
	lib := New("unused.bib", "/lib", WithLogger(quietLogger()))
	n, err := lib.RenameFiles(newRecord("a2000", "2000"), RenameOptions{})
	if err != nil || n != 0 {
		t.Errorf("RenameFiles() = %d, %v; want 0, nil", n, err)
	}
}

func TestRenameFiles_MissingYear(t *testing.T) {
	lib := New("unused.bib", "/lib", WithLogger(quietLogger()))
	r := NewRecord("article", "a")
	SetFiles(r, []string{"/tmp/x.pdf"}, true)

	if _, err := lib.RenameFiles(r, RenameOptions{DryRun: true}); err == nil {
		t.Error("RenameFiles() should fail without a year")
	}
}

func TestRenameFiles_MissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gone.pdf")

	lib := New("unused.bib", filepath.Join(dir, "files"), WithLogger(quietLogger()))
	r := newRecord("a2000", "2000")
	SetFiles(r, []string{src}, true)

	if _, err := lib.RenameFiles(r, RenameOptions{}); err == nil {
		t.Fatal("RenameFiles() should fail for a missing source")
	}
	if got := r.Field(FieldFile); got != src+":pdf" {
		t.Errorf("file field changed on failure: %q", got)
	}
}

func TestRenameAll_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	files := filepath.Join(dir, "files")
	lib := New("unused.bib", files, WithLogger(quietLogger()))

	good := newRecord("Zhou2001", "2001")
	src := filepath.Join(dir, "inbox", "zhou.pdf")
	writeFile(t, src, "%PDF-1.4")
	SetFiles(good, []string{src}, true)

	noYear := NewRecord("article", "Adams")
	SetFiles(noYear, []string{filepath.Join(dir, "adams.pdf")}, true)

	lib.Insert(noYear, false)
	lib.Insert(good, false)
	lib.Insert(newRecord("Baker2005", "2005"), false)

	n, err := lib.RenameAll(RenameOptions{})
	if err == nil {
		t.Error("RenameAll() should report the record without a year")
	}
	if n != 1 {
		t.Errorf("RenameAll() = %d, want 1", n)
	}

	target := filepath.Join(files, "2001", "Zhou2001.pdf")
	if _, err := os.Stat(target); err != nil {
		t.Errorf("expected %s after rename: %v", target, err)
	}
	if got := GetFiles(good); !reflect.DeepEqual(got, []File{{target, "pdf"}}) {
		t.Errorf("GetFiles() = %v", got)
	}
}
