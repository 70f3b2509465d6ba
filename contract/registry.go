package contract

import (
	"sort"
	"sync"

	"github.com/kbukum/apicontract/logger"
)

// Registry keeps the identity keys (method + path) of declared contracts.
// It starts empty, only grows, and has no unregister operation; tests and
// composition roots get isolation by creating their own Registry. The zero
// value is an empty Registry logging through the "contract" logger.
type Registry struct {
	mu   sync.RWMutex
	keys map[string]struct{}
	log  *logger.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for declaration events.
func WithRegistryLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{keys: make(map[string]struct{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) eventLog() *logger.Logger {
	if r.log == nil {
		return logger.Get("contract")
	}
	return r.log
}

// AlreadyDefined reports whether method and path have been declared.
func (r *Registry) AlreadyDefined(method Method, path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[contractKey(method, path)]
	return ok
}

// AssertNoDuplicate fails with a *DuplicateContractError when method and
// path have been declared.
func (r *Registry) AssertNoDuplicate(method Method, path string) error {
	if r.AlreadyDefined(method, path) {
		return &DuplicateContractError{Method: method, Path: path}
	}
	return nil
}

// Define records method and path, failing on duplicates.
func (r *Registry) Define(method Method, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.keys == nil {
		r.keys = make(map[string]struct{})
	}
	key := contractKey(method, path)
	if _, ok := r.keys[key]; ok {
		r.eventLog().Warn("duplicate contract rejected", logger.Fields("method", method.HTTP(), "path", path))
		return &DuplicateContractError{Method: method, Path: path}
	}
	r.keys[key] = struct{}{}

	r.eventLog().Debug("contract defined", logger.Fields("method", method.HTTP(), "path", path))
	return nil
}

// Len returns the number of declared contracts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// Keys returns the declared identity keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.keys))
	for k := range r.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
