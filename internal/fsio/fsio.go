// Package fsio provides the file access the sync engine is built on:
// verbatim text reads, atomic locked writes, and JSON-with-comments
// parsing of settings documents.
package fsio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// ErrNotFound reports a file that does not exist.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

var (
	locksMu sync.Mutex
	locks   = make(map[string]*FileLock)
)

// ReadText reads a file verbatim. Failure is a hard error: a document
// that cannot be read cannot be edited.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// WriteText overwrites a file verbatim. The write goes to a temp file
// first and is renamed into place, under a per-path lock, so readers
// observe either the old content or the new content in full.
func WriteText(path, text string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	lock := getLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// CopyFile copies src to dst verbatim through the same atomic write
// path.
func CopyFile(src, dst string) error {
	text, err := ReadText(src)
	if err != nil {
		return err
	}
	return WriteText(dst, text)
}

// ReadJSONC reads and parses a JSON-with-comments file. On read or
// parse failure it returns a zero result plus the error; the caller
// decides whether that is a warning or a hard stop.
func ReadJSONC(path string) (gjson.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return gjson.Result{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return gjson.Result{}, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseJSONC(data)
}

// ParseJSONC strips comments and trailing commas from a
// JSON-with-comments buffer and parses the remainder.
func ParseJSONC(data []byte) (gjson.Result, error) {
	plain := jsonc.ToJSON(data)
	if !gjson.ValidBytes(plain) {
		return gjson.Result{}, errors.New("failed to parse document")
	}
	return gjson.ParseBytes(plain), nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// getLock returns the lock guarding writes to a path.
func getLock(path string) *FileLock {
	locksMu.Lock()
	defer locksMu.Unlock()

	lock, ok := locks[path]
	if !ok {
		lock = NewFileLock(path)
		locks[path] = lock
	}
	return lock
}
