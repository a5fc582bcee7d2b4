package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/keypilot/internal/notify"
)

const (
	settingsFile = "settings.toml"
	keybindsFile = "keybinds.json"

	// Editors write config files in bursts; coalesce before reload.
	watchDebounce = 100 * time.Millisecond
)

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user dir: %w", err)
	}
	return filepath.Join(base, "keypilot"), nil
}

// Store owns the persisted settings and their live reload.
type Store struct {
	mu       sync.Mutex
	dir      string
	settings Settings
	hub      *notify.Hub

	watcher *fsnotify.Watcher
	closeCh chan struct{}
	wg      sync.WaitGroup
	closed  bool
}

// NewStore creates a store rooted at dir with default settings. hub
// receives TopicSettings and TopicKeybinds publications on reload.
func NewStore(dir string, hub *notify.Hub) *Store {
	return &Store{
		dir:      dir,
		settings: DefaultSettings(),
		hub:      hub,
		closeCh:  make(chan struct{}),
	}
}

// Dir returns the store's configuration directory.
func (st *Store) Dir() string { return st.dir }

// Settings returns the current settings snapshot.
func (st *Store) Settings() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.settings
}

// Load reads settings.toml. A missing file leaves the defaults in
// place and is not an error; a malformed one is.
func (st *Store) Load() error {
	data, err := os.ReadFile(filepath.Join(st.dir, settingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read settings: %w", err)
	}

	s := DefaultSettings()
	if err := toml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("config: parse %s: %w", settingsFile, err)
	}

	st.mu.Lock()
	st.settings = s.Clamp()
	st.mu.Unlock()
	return nil
}

// Save writes the current settings to settings.toml, creating the
// directory as needed.
func (st *Store) Save() error {
	st.mu.Lock()
	s := st.settings
	st.mu.Unlock()

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: encode settings: %w", err)
	}
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	path := filepath.Join(st.dir, settingsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write settings: %w", err)
	}
	return nil
}

// Update mutates the settings, clamps, saves, and publishes.
func (st *Store) Update(fn func(*Settings)) error {
	st.mu.Lock()
	s := st.settings
	fn(&s)
	st.settings = s.Clamp()
	st.mu.Unlock()

	if err := st.Save(); err != nil {
		return err
	}
	st.publish(notify.TopicSettings)
	return nil
}

// ApplyKeybinds loads keybinds.json and applies every override
// through rb, returning one error per rejected entry.
func (st *Store) ApplyKeybinds(rb Rebinder) []error {
	return LoadKeybinds(filepath.Join(st.dir, keybindsFile), rb)
}

// Watch starts the live-reload watcher on the config directory.
// Settings and keybind changes publish their topics after reload.
func (st *Store) Watch() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.watcher != nil || st.closed {
		return nil
	}
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: start watcher: %w", err)
	}
	// Watch the directory, not the files: atomic saves replace the
	// inode and would silently detach a per-file watch.
	if err := w.Add(st.dir); err != nil {
		w.Close()
		return fmt.Errorf("config: watch %s: %w", st.dir, err)
	}

	st.watcher = w
	st.wg.Add(1)
	go st.watchLoop(w)
	return nil
}

func (st *Store) watchLoop(w *fsnotify.Watcher) {
	defer st.wg.Done()

	pending := make(map[string]bool)
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-st.closeCh:
			timer.Stop()
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			base := filepath.Base(ev.Name)
			if base != settingsFile && base != keybindsFile {
				continue
			}
			pending[base] = true
			timer.Reset(watchDebounce)

		case _, ok := <-w.Errors:
			if !ok {
				return
			}

		case <-timer.C:
			if pending[settingsFile] {
				if err := st.Load(); err == nil {
					st.publish(notify.TopicSettings)
				}
			}
			if pending[keybindsFile] {
				st.publish(notify.TopicKeybinds)
			}
			pending = make(map[string]bool)
		}
	}
}

// Close stops the watcher. Idempotent.
func (st *Store) Close() error {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return nil
	}
	st.closed = true
	w := st.watcher
	st.watcher = nil
	close(st.closeCh)
	st.mu.Unlock()

	if w != nil {
		err := w.Close()
		st.wg.Wait()
		return err
	}
	return nil
}

func (st *Store) publish(topic string) {
	if st.hub != nil {
		st.hub.Publish(topic)
	}
}
