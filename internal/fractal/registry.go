package fractal

import (
	"fmt"
	"sort"
	"sync"
)

// Factory is a thread-safe registry of fractal definitions, keyed by name.
type Factory struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// NewFactory creates a Factory with the built-in definitions registered.
//
// Pre-registered definitions:
//   - "nebula-side": Quadratic, square-alter oversampling
//   - "glorious-head": Phoenix, 5×5 oversampling
//   - "mandelbrot": Quadratic, full set preview
//   - "collatz": complex Collatz map
//
// Returns:
//   - *Factory: A new factory with the default definitions.
func NewFactory() *Factory {
	f := &Factory{definitions: make(map[string]Definition)}
	for _, d := range []Definition{nebulaSide(), gloriousHead(), mandelbrot(), collatz()} {
		_ = f.Register(d)
	}
	return f
}

// Register adds or replaces a definition.
//
// Parameters:
//   - d: The definition; its Name is the registry key.
//
// Returns:
//   - error: An error if the definition is unusable.
func (f *Factory) Register(d Definition) error {
	if d.Name == "" {
		return fmt.Errorf("fractal definition has no name")
	}
	if d.Math == nil {
		return fmt.Errorf("fractal %q has no math", d.Name)
	}
	if d.IterationMin < 0 || d.IterationMax <= d.IterationMin {
		return fmt.Errorf("fractal %q: iteration bounds %d..%d are invalid", d.Name, d.IterationMin, d.IterationMax)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.definitions[d.Name] = d
	return nil
}

// Get returns the definition registered under name.
func (f *Factory) Get(name string) (Definition, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	d, ok := f.definitions[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown fractal: %s", name)
	}
	return d, nil
}

// Has reports whether name is registered.
func (f *Factory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.definitions[name]
	return ok
}

// List returns the registered names, sorted.
func (f *Factory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.definitions))
	for name := range f.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a snapshot of every registered definition.
func (f *Factory) All() map[string]Definition {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]Definition, len(f.definitions))
	for k, v := range f.definitions {
		out[k] = v
	}
	return out
}

var (
	globalFactory     *Factory
	globalFactoryOnce sync.Once
)

// GlobalFactory returns the process-wide factory, created on first use.
func GlobalFactory() *Factory {
	globalFactoryOnce.Do(func() {
		globalFactory = NewFactory()
	})
	return globalFactory
}
