// file: internal/provider/registry.go
// version: 1.2.0
// guid: 1f6a8b3c-9d0e-4f2a-b5c7-3e8d1a4f6b9c

package provider

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Factory builds a provider from its declarative config. Factories are keyed
// by provider directory name, the compiled equivalent of the per-directory
// entry point file.
type Factory func(cfg Config) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// RegisterFactory makes a constructor available for LoadProviders under the
// given directory name.
func RegisterFactory(dirName string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[dirName] = f
}

func lookupFactory(dirName string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[dirName]
	return f, ok
}

// Registry indexes providers by their config id. Lookups are safe for
// concurrent use with reloads.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
	sources   map[string]string // id -> directory it was loaded from
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: map[string]Provider{},
		sources:   map[string]string{},
	}
}

// Register adds or replaces the provider under its config id. The last
// registration for an id wins; replacement keeps the original listing
// position so reloads don't shuffle /providers output.
func (r *Registry) Register(p Provider) {
	r.register(p, "")
}

// register records the source directory so a watcher-triggered reload of
// the same directory replaces silently, while two directories claiming the
// same id still get flagged.
func (r *Registry) register(p Provider, dir string) {
	id := p.Config().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	prevDir, exists := r.sources[id]
	if exists {
		if dir != prevDir {
			log.Printf("[WARN] duplicate provider id %q in %s, replacing instance from %s", id, dir, prevDir)
		}
	} else {
		r.order = append(r.order, id)
	}
	r.providers[id] = p
	r.sources[id] = dir
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// Has reports whether a provider is registered under id.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// GetAll returns all providers in registration order.
func (r *Registry) GetAll() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// GetAllConfigs returns every registered provider's config in registration
// order.
func (r *Registry) GetAllConfigs() []Config {
	providers := r.GetAll()
	out := make([]Config, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.Config())
	}
	return out
}

// LoadProviders scans the immediate subdirectories of rootDir and registers
// a provider for each one that has both a config.json and a registered
// factory. The load is best effort: a missing file, broken config or failing
// constructor skips that one directory with a log line and never aborts the
// rest. It returns an error only when rootDir itself is unreadable.
func (r *Registry) LoadProviders(rootDir string) error {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to read providers directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := entry.Name()
		configPath := filepath.Join(rootDir, dir, "config.json")

		raw, err := os.ReadFile(configPath)
		if err != nil {
			log.Printf("[WARN] no config.json found for provider: %s", dir)
			continue
		}

		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			log.Printf("[WARN] broken config.json for provider %s: %v", dir, err)
			continue
		}
		if cfg.ID == "" {
			log.Printf("[WARN] config.json for provider %s has no id, skipping", dir)
			continue
		}

		factory, ok := lookupFactory(dir)
		if !ok {
			log.Printf("[WARN] no provider implementation registered for: %s", dir)
			continue
		}

		p, err := buildProvider(factory, cfg)
		if err != nil {
			log.Printf("[WARN] failed to load provider %s: %v", dir, err)
			continue
		}

		r.register(p, dir)
		loaded++
		log.Printf("Loaded provider: %s (%s)", cfg.Name, cfg.ID)
	}

	log.Printf("Loaded %d provider(s) from %s", loaded, rootDir)
	return nil
}

// buildProvider shields the load loop from a panicking constructor.
func buildProvider(f Factory, cfg Config) (p Provider, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("constructor panic: %v", rec)
		}
	}()
	return f(cfg)
}
