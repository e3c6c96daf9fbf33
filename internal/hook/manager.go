package hook

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/abhinaya/internal/logger"
	"github.com/ayusman/abhinaya/internal/store"
)

// ManifestFile is the file that marks a directory as a hook.
const ManifestFile = "hook.json"

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// Manager discovers hooks in a directory.
type Manager struct {
	dir   string
	hooks map[string]*Hook
	mu    sync.RWMutex
}

// NewManager creates a Manager for the given hooks directory.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		hooks: make(map[string]*Hook),
	}
}

// Discover scans each subdirectory of the hooks directory for a hook.json
// manifest. A missing directory means no hooks.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[string]*Hook)

	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			logger.Warn("Hook", "Skipping %s: invalid manifest: %v", dir, err)
			continue
		}
		if manifest.Name == "" {
			manifest.Name = entry.Name()
		}
		if manifest.Executable == "" {
			logger.Warn("Hook", "Skipping %s: no executable", manifest.Name)
			continue
		}

		m.hooks[manifest.Name] = &Hook{
			Manifest:   manifest,
			Dir:        dir,
			Executable: filepath.Join(dir, manifest.Executable),
		}
	}

	if len(m.hooks) > 0 {
		logger.Info("Hook", "Discovered %d hook(s) in %s", len(m.hooks), m.dir)
	}
	return nil
}

// Get returns a hook by name.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns every discovered hook ordered by name.
func (m *Manager) List() []*Hook {
	return m.Matching("")
}

// Matching returns the hooks that accept kind, ordered by name. An empty
// kind matches every hook.
func (m *Manager) Matching(kind store.ArtifactKind) []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooks := make([]*Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		if kind == "" || h.Accepts(kind) {
			hooks = append(hooks, h)
		}
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].Manifest.Name < hooks[j].Manifest.Name })
	return hooks
}

// Dir returns the hooks directory path.
func (m *Manager) Dir() string {
	return m.dir
}
