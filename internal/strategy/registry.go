package strategy

import (
	"reflect"
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-signal/internal/datasource"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Constructor builds a strategy bound to symbol. config is the YAML encoded strategy config
// and may be empty.
type Constructor func(symbol string, bars datasource.BarReader, config string) (Strategy, error)

type registration struct {
	constructor Constructor
	prototype   any
}

// Registry maps strategy names to their constructors.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]registration),
	}
}

// Register adds a constructor under name. configPrototype, when not nil, is the zero value of
// the strategy's config struct and is used to produce its JSON schema.
func (r *Registry) Register(name string, constructor Constructor, configPrototype any) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "strategy name cannot be empty")
	}

	if constructor == nil {
		return errors.Newf(errors.ErrCodeNotImplemented, "strategy %s has no constructor", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "strategy %s is already registered", name)
	}

	r.entries[name] = registration{constructor: constructor, prototype: configPrototype}

	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]

	return ok
}

// Names returns the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// New constructs the strategy registered under name, bound to symbol, and wraps it in a Guard.
// A constructor returning nil, a nil pointer or a bare *UnimplementedStrategy fails with
// ErrCodeNotImplemented. Types that embed UnimplementedStrategy are accepted even when they do
// not override OnBar; such an instance fails with ErrCodeNotImplemented on its first bar.
func (r *Registry) New(name string, symbol string, bars datasource.BarReader, config string) (*Guard, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", name)
	}

	instance, err := entry.constructor(symbol, bars, config)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeUnknown {
			return nil, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to construct strategy %s", name)
		}

		return nil, err
	}

	if isNil(instance) || isUnimplemented(instance) {
		return nil, errors.Newf(errors.ErrCodeNotImplemented, "strategy %s has no bar handling", name)
	}

	if instance.Symbol() != symbol {
		return nil, errors.Newf(errors.ErrCodeInvalidBinding,
			"strategy %s bound itself to %q instead of %q", name, instance.Symbol(), symbol)
	}

	return NewGuard(instance), nil
}

// Schema returns the JSON schema of the config of the strategy registered under name.
func (r *Registry) Schema(name string) (string, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return "", errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", name)
	}

	if entry.prototype == nil {
		return ToJSONSchema(struct{}{})
	}

	return ToJSONSchema(entry.prototype)
}

func isNil(s Strategy) bool {
	if s == nil {
		return true
	}

	v := reflect.ValueOf(s)

	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

func isUnimplemented(s Strategy) bool {
	switch s.(type) {
	case *UnimplementedStrategy:
		return true
	default:
		return false
	}
}
