package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

var errCorruptFile = errors.New("store file is not a JSON object of strings")

// FileKV stores all keys as one JSON object in a single file. The file is
// re-read on every Get so edits made by other processes are visible.
type FileKV struct {
	path string

	mu        sync.Mutex
	lastWrite []byte
}

// NewFileKV opens (or prepares to create) the JSON store at path.
func NewFileKV(path string) (*FileKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileKV{path: path}, nil
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readForWriteLocked()
	if err != nil {
		return err
	}
	values[key] = value
	return f.writeLocked(values)
}

func (f *FileKV) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readForWriteLocked()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.writeLocked(values)
}

func (f *FileKV) Close() error { return nil }

// Watch calls fn whenever the store file is changed by someone other than
// this FileKV. The parent directory is watched so atomic replacements are
// seen too.
func (f *FileKV) Watch(ctx context.Context, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch store directory: %w", err)
	}

	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if f.isOwnWrite() {
				continue
			}
			slog.Debug("store file changed externally", "tag", "storage", "op", event.Op.String())
			fn()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "tag", "storage", "err", err)
		}
	}
}

// isOwnWrite reports whether the file still holds exactly what this FileKV
// last wrote.
func (f *FileKV) isOwnWrite() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	return f.lastWrite != nil && bytes.Equal(data, f.lastWrite)
}

func (f *FileKV) readLocked() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	values := make(map[string]string)
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptFile, err)
	}
	return values, nil
}

// readForWriteLocked is readLocked, except that a corrupt file is replaced
// rather than blocking every later write.
func (f *FileKV) readForWriteLocked() (map[string]string, error) {
	values, err := f.readLocked()
	if errors.Is(err, errCorruptFile) {
		slog.Warn("replacing corrupt store file", "tag", "storage", "path", f.path, "err", err)
		return make(map[string]string), nil
	}
	return values, err
}

func (f *FileKV) writeLocked(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".pokematch-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	f.lastWrite = data
	return nil
}
