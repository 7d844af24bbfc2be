package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
)

// RenameOptions controls how files are relocated.
type RenameOptions struct {
	// Copy leaves the source file in place.
	Copy bool
	// DryRun logs the relocation without touching the filesystem.
	DryRun bool
}

// RenameFiles moves the files of r under <filesdir>/<year>. A single file
// becomes <year>/<id><ext>; several files go into <year>/<id>/ under their
// own base names. The record's file field is updated to the new paths. It
// returns the number of files relocated. A failure stops the batch, leaving
// any files already relocated in their new place.
func (lib *Library) RenameFiles(r *Record, opts RenameOptions) (int, error) {
	files := GetFiles(r)
	if len(files) == 0 {
		lib.logger.Info("no files to rename", "key", r.Key())
		return 0, nil
	}

	year := r.Field(FieldYear)
	if year == "" {
		return 0, fmt.Errorf("renaming files of %s: no year field", r.ID())
	}
	dir := filepath.Join(lib.filesDir, year)

	if len(files) == 1 {
		f := files[0]
		target := filepath.Join(dir, r.ID()+filepath.Ext(f.Path))
		count := 0
		if f.Path != target {
			if err := relocate(f.Path, target, opts, lib.logger); err != nil {
				return 0, err
			}
			count = 1
			lib.logger.Info("one file was renamed", "key", r.Key())
		}
		r.SetField(FieldFile, File{Path: target, Type: f.Type}.String())
		return count, nil
	}

	// Several files: only the container directory is named after the entry.
	subdir := filepath.Join(dir, r.ID())
	renamed := make([]File, 0, len(files))
	count := 0
	for _, f := range files {
		target := filepath.Join(subdir, filepath.Base(f.Path))
		if f.Path != target {
			if err := relocate(f.Path, target, opts, lib.logger); err != nil {
				return count, err
			}
			count++
		}
		renamed = append(renamed, File{Path: target, Type: f.Type})
	}
	r.SetField(FieldFile, FormatFiles(renamed))

	if count > 0 {
		lib.logger.Info(fmt.Sprintf("several files were renamed (%d)", count), "key", r.Key())
	}
	return count, nil
}

// RenameAll applies RenameFiles to every record. A failing record is logged
// and skipped; the failures are returned joined.
func (lib *Library) RenameAll(opts RenameOptions) (int, error) {
	total := 0
	var errs []error
	for _, r := range lib.Records() {
		if len(GetFiles(r)) == 0 {
			continue
		}
		n, err := lib.RenameFiles(r, opts)
		total += n
		if err != nil {
			lib.logger.Error("rename failed", "key", r.Key(), "err", err)
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// relocate moves or copies src to dst, creating dst's directory.
func relocate(src, dst string, opts RenameOptions, logger *log.Logger) error {
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Info("create directory: " + dir)
		if !opts.DryRun {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
		}
	}

	if opts.Copy {
		logger.Info("cp " + src + " " + dst)
		if opts.DryRun {
			return nil
		}
		return copyFile(src, dst)
	}

	logger.Info("mv " + src + " " + dst)
	if opts.DryRun {
		return nil
	}
	return moveFile(src, dst)
}

// moveFile renames src to dst, copying across filesystems when needed.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("moving %s: %w", src, err)
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
