// Package filestore keeps one JSON file per key in a directory. Several
// processes may share the directory; fsnotify turns their writes into changes.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/blake3"
)

const (
	fileExt     = ".json"
	tempPrefix  = ".tmp-"
	watchBuffer = 64
)

type Store struct {
	dir  string
	logg *logger.Logger

	mu      sync.Mutex
	written map[string][32]byte
}

func New(dir string, logg *logger.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("filestore: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{dir: dir, logg: logg, written: make(map[string][32]byte)}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+fileExt)
}

func keyFromName(name string) (string, bool) {
	if strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key, err := url.QueryUnescape(strings.TrimSuffix(name, fileExt))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Save replaces the file atomically so readers never see a partial document.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("filestore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filestore: close %s: %w", key, err)
	}

	s.mu.Lock()
	s.written[key] = blake3.Sum256(data)
	s.mu.Unlock()

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		cleanup()
		return fmt.Errorf("filestore: rename %s: %w", key, err)
	}
	return nil
}

// Watch reports files changed by other processes. Events whose content
// matches this store's last write of the key are treated as its own.
func (s *Store) Watch(ctx context.Context) (<-chan storage.Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filestore: watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("filestore: watch %s: %w", s.dir, err)
	}
	out := make(chan storage.Change, watchBuffer)
	go s.run(ctx, watcher, out)
	return out, nil
}

func (s *Store) run(ctx context.Context, watcher *fsnotify.Watcher, out chan<- storage.Change) {
	defer close(out)
	defer func() {
		if err := watcher.Close(); err != nil {
			s.logg.WarnErr(ctx, "filestore.watcher_close_failed", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			key, ok := s.foreignChange(event)
			if !ok {
				continue
			}
			select {
			case out <- storage.Change{Key: key}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logg.WarnErr(ctx, "filestore.watch_error", err)
		}
	}
}

func (s *Store) foreignChange(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) {
		return "", false
	}
	key, ok := keyFromName(filepath.Base(event.Name))
	if !ok {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Has(fsnotify.Remove) {
		delete(s.written, key)
		return key, true
	}
	data, err := os.ReadFile(event.Name)
	if err != nil {
		// Replaced again before we could look; the next event covers it.
		return "", false
	}
	if own, seen := s.written[key]; seen && own == blake3.Sum256(data) {
		return "", false
	}
	delete(s.written, key)
	return key, true
}
