package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFileVerified streams src to dst and returns the number of bytes written.
// After dst is closed it is read back and its size and SHA256 are compared with
// what was read from src. Removes dst on mismatch.
func CopyFileVerified(src, dst string, mode os.FileMode) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return written, err
	}
	if err := out.Close(); err != nil {
		return written, err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if err := verifyFile(dst, written, srcHasher.Sum(nil)); err != nil {
		_ = os.Remove(dst)
		return written, err
	}
	return written, nil
}

// verifyFile reads path back from disk and checks its size and SHA256.
func verifyFile(path string, size int64, sum []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reopen copy: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return fmt.Errorf("read back copy: %w", err)
	}
	if n != size {
		return fmt.Errorf("copy size mismatch: expected %d bytes on disk, found %d", size, n)
	}
	if !bytes.Equal(hasher.Sum(nil), sum) {
		return fmt.Errorf("copy hash mismatch: %s differs from its source", filepath.Base(path))
	}
	return nil
}

// TreeStats summarizes a CopyTree call.
type TreeStats struct {
	Files int
	Dirs  int
	Bytes int64
}

// CopyTree copies the contents of src into dst, creating dst if needed and
// merging into it when it already exists. Existing files are overwritten.
// Symlinks are followed and their targets copied; a symlink that leads back to
// a directory being copied is an error.
func CopyTree(src, dst string) (TreeStats, error) {
	var stats TreeStats
	info, err := os.Stat(src)
	if err != nil {
		return stats, err
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("%s is not a directory", src)
	}
	err = copyDir(src, dst, info, nil, &stats)
	return stats, err
}

// copyDir copies src, whose info is given, into dst. ancestors holds the
// directories above src on the current path.
func copyDir(src, dst string, info os.FileInfo, ancestors []os.FileInfo, stats *TreeStats) error {
	for _, seen := range ancestors {
		if os.SameFile(seen, info) {
			return fmt.Errorf("copy %s: symlink cycle", src)
		}
	}
	ancestors = append(ancestors, info)
	perm := info.Mode().Perm()

	if err := os.MkdirAll(dst, perm|0o700); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	stats.Dirs++

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		info, err := os.Stat(from)
		if err != nil {
			return fmt.Errorf("stat %s: %w", from, err)
		}
		switch {
		case info.IsDir():
			if err := copyDir(from, to, info, ancestors, stats); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			written, err := CopyFileVerified(from, to, info.Mode().Perm())
			if err != nil {
				return fmt.Errorf("copy %s: %w", from, err)
			}
			stats.Files++
			stats.Bytes += written
		default:
			return fmt.Errorf("copy %s: unsupported file type %s", from, info.Mode().Type())
		}
	}
	return nil
}
