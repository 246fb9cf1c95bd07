package analysis

import (
	"fmt"
	"sync"

	"github.com/sniffkit/sniffd/internal/core"
)

// Module analyzes one rotated capture file and writes its artifacts
// under outputDir. Implementations must be safe for concurrent use;
// the runner may invoke Analyze from several workers at once.
type Module interface {
	Name() string
	Version() string
	Description() string
	Analyze(pcapPath, outputDir, iface, window string) (*Summary, error)
}

// Registry holds analysis modules by name. Listing order is
// registration order so runs are deterministic.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

func (r *Registry) Register(m Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module '%s': %w", name, core.ErrModuleExists)
	}

	r.modules[name] = m
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.modules[name]
	if !exists {
		return nil, fmt.Errorf("module '%s': %w", name, core.ErrModuleNotFound)
	}
	return m, nil
}

func (r *Registry) List() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]Module, 0, len(r.order))
	for _, name := range r.order {
		modules = append(modules, r.modules[name])
	}
	return modules
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

var defaultRegistry = NewRegistry()

// Register adds a module to the process-wide registry. Built-in
// modules call this from their init.
func Register(m Module) error { return defaultRegistry.Register(m) }

func Get(name string) (Module, error) { return defaultRegistry.Get(name) }

func List() []Module { return defaultRegistry.List() }

func Names() []string { return defaultRegistry.Names() }

// DefaultRegistry exposes the process-wide registry for wiring.
func DefaultRegistry() *Registry { return defaultRegistry }
