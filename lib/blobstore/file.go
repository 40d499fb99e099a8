// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// File stores the blob in a single file. Reads take a shared flock on
// a sidecar ".lock" file, writes an exclusive one; the data file
// itself is only ever replaced by rename so readers never observe a
// partial write.
type File struct {
	path string
}

// NewFile returns a store at path. The parent directory is created on
// first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the data file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the blob. A missing file is not an error.
func (f *File) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Dir(f.path)); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	unlock, err := f.lock(unix.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return data, nil
}

// Save atomically replaces the blob: write to a temporary file in the
// same directory, fsync, rename into place, fsync the directory.
func (f *File) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	directory := filepath.Dir(f.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}

	unlock, err := f.lock(unix.LOCK_EX)
	if err != nil {
		return err
	}
	defer unlock()

	temporaryPath := f.path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary blob file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary blob file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary blob file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary blob file: %w", err)
	}
	if err := os.Rename(temporaryPath, f.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming blob file into place: %w", err)
	}

	if parent, err := os.Open(directory); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// lock takes a flock of the given kind on the sidecar lock file and
// returns the release function.
func (f *File) lock(how int) (func(), error) {
	lockFile, err := os.OpenFile(f.path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	for {
		err = unix.Flock(int(lockFile.Fd()), how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("locking %s: %w", f.path, err)
	}
	return func() {
		unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
		lockFile.Close()
	}, nil
}
