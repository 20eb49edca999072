// Package texts holds user-facing message templates. Defaults are
// embedded into the binary; operators may override individual keys by
// dropping <key>.txt files into the configured directory.
package texts

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"giftbot/pkg/logx"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Store resolves template keys to rendered text.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
	log     logx.Logger
}

func New(log logx.Logger) (*Store, error) {
	var defaults map[string]string
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		return nil, fmt.Errorf("texts: parse embedded defaults: %w", err)
	}
	return &Store{entries: defaults, log: log}, nil
}

// LoadDir overlays templates from dir. Each *.txt file overrides the
// key matching its base name; unknown keys are accepted so operators
// can stage texts ahead of a release. A missing dir is not an error.
func (s *Store) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("texts: read dir %s: %w", dir, err)
	}
	loaded := 0
	for _, ent := range ents {
		name := ent.Name()
		if ent.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("texts: read %s: %w", name, err)
		}
		key := strings.TrimSuffix(name, ".txt")
		s.mu.Lock()
		s.entries[key] = strings.TrimRight(string(data), "\n")
		s.mu.Unlock()
		loaded++
	}
	if loaded > 0 {
		s.log.Info("text overrides loaded", logx.String("dir", dir), logx.Int("count", loaded))
	}
	return nil
}

// Get returns the raw template for key, or "" when the key is unknown.
func (s *Store) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key]
}

// Render substitutes {name} placeholders in the template for key.
// Placeholders without a matching var are left as-is.
func (s *Store) Render(key string, vars map[string]string) string {
	tpl := s.Get(key)
	if tpl == "" || len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
