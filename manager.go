package di

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/Sanchous98/go-ioc/index"
	"github.com/Sanchous98/go-ioc/scan"
	"github.com/Sanchous98/go-ioc/store"
)

var (
	_ Resolver  = (*Manager)(nil)
	_ Registrar = (*Manager)(nil)
)

// Manager owns the active store. It discovers and builds components once in
// Initialize, then resolves and wires them.
type Manager struct {
	initialized atomic.Bool
	mu          sync.Mutex
	store       store.Store

	scanner *scan.Scanner
	alloc   *index.Allocator
	factory *Factory
	logger  zerolog.Logger
	metrics *metrics
	env     *xsync.MapOf[string, string]

	registered dispatcher[*TypesRegistered]
	injected   dispatcher[*TypesInjected]
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		scanner: scan.Default(),
		alloc:   index.Global(),
		logger:  zerolog.Nop(),
		env:     xsync.NewMapOf[string, string](),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.factory = NewFactory(m.scanner, m)

	return m
}

// Initialize discovers the components cfg selects, builds one instance of
// each and binds them into a store of the given strategy. It succeeds once.
func (m *Manager) Initialize(cfg Configuration, strategy store.Strategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized.Load() {
		return ErrAlreadyInitialized
	}

	if cfg.Tag() == nil && cfg.Base() == nil {
		return fmt.Errorf("%w: configuration has neither tag nor base type", ErrInvalidConfiguration)
	}

	start := time.Now()

	if modules := cfg.Modules(); len(modules) > 0 {
		m.scanner.LoadModules(modules...)
	}

	types := m.discover(cfg)

	instances, err := m.factory.CreateMany(types, false)
	if err != nil {
		return err
	}

	entries := make([]store.Entry, 0, len(types))
	for _, t := range types {
		entries = append(entries, store.Entry{Type: t, Instance: instances[t]})
	}

	return m.activate(strategy, entries, start)
}

// InitializeWith binds the given entries into a store of the given strategy
// without scanning. It shares the one-shot rule of Initialize.
func (m *Manager) InitializeWith(strategy store.Strategy, entries ...store.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized.Load() {
		return ErrAlreadyInitialized
	}

	normalized, err := normalizeEntries(entries)
	if err != nil {
		return err
	}

	return m.activate(strategy, normalized, time.Now())
}

func (m *Manager) activate(strategy store.Strategy, entries []store.Entry, start time.Time) error {
	st, err := strategy.InitializeWith(entries, m.alloc)
	if err != nil {
		return err
	}

	m.store = st
	m.initialized.Store(true)

	elapsed := time.Since(start)
	m.logger.Debug().Int("count", len(entries)).Dur("elapsed", elapsed).Stringer("strategy", strategy).Msg("initialized dependencies")
	m.metrics.registered(len(entries))
	m.metrics.initialized(strategy.String(), elapsed)
	m.registered.Dispatch(&TypesRegistered{Types: typesOf(entries)})

	return nil
}

// discover returns the identities cfg selects in first-seen order, each once.
func (m *Manager) discover(cfg Configuration) []reflect.Type {
	var found []reflect.Type

	switch cfg.Mode() {
	case ModeTag:
		found = m.scanner.FindByTag(cfg.Tag())
	case ModeInherit:
		found = m.scanner.FindByBase(cfg.Base())
	case ModeAll:
		found = append(m.scanner.FindByTag(cfg.Tag()), m.scanner.FindByBase(cfg.Base())...)
	}

	if cfg.RegisterBase() {
		found = append(found, cfg.Base())
	}

	seen := make(map[reflect.Type]struct{}, len(found))
	types := make([]reflect.Type, 0, len(found))

	for _, t := range found {
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		types = append(types, t)
	}

	return types
}

func (m *Manager) active() (store.Store, error) {
	if !m.initialized.Load() {
		return nil, ErrNotInitialized
	}

	return m.store, nil
}

// Resolve returns the component bound to the identity of t.
func (m *Manager) Resolve(t reflect.Type) (any, error) {
	st, err := m.active()
	if err != nil {
		return nil, err
	}

	instance, err := st.Get(typeIndirect(t))
	m.metrics.resolved(err == nil)

	return instance, err
}

// TryResolve reports whether a component is bound to the identity of t. It
// reports false before initialization.
func (m *Manager) TryResolve(t reflect.Type) (any, bool) {
	st, err := m.active()
	if err != nil {
		return nil, false
	}

	instance, ok := st.TryGet(typeIndirect(t))
	m.metrics.resolved(ok)

	return instance, ok
}

// Resolve returns the component T. For a struct T the bound instance is
// dereferenced into a copy; ask for *T to share it.
func Resolve[T any](m *Manager) (T, error) {
	var zero T

	instance, err := m.Resolve(TypeOf[T]())
	if err != nil {
		return zero, err
	}

	return as[T](instance)
}

func TryResolve[T any](m *Manager) (T, bool) {
	var zero T

	instance, ok := m.TryResolve(TypeOf[T]())
	if !ok {
		return zero, false
	}

	v, err := as[T](instance)

	return v, err == nil
}

func as[T any](instance any) (T, error) {
	switch v := instance.(type) {
	case T:
		return v, nil
	case *T:
		return *v, nil
	default:
		var zero T
		return zero, fmt.Errorf("%w: %T is not %s", ErrInvalidKind, instance, typeName(reflect.TypeFor[T]()))
	}
}

// Register binds instance to the identity of t. The instance must be a non-nil
// pointer to t, or implement t when t is an interface.
func (m *Manager) Register(t reflect.Type, instance any) error {
	st, err := m.active()
	if err != nil {
		return err
	}

	t = typeIndirect(t)

	if err = checkKind(t, instance); err != nil {
		return err
	}

	if err = st.Inject(t, instance); err != nil {
		return err
	}

	m.metrics.registered(1)
	m.registered.Dispatch(&TypesRegistered{Types: []reflect.Type{t}})

	return nil
}

// RegisterMany binds every entry or none of them.
func (m *Manager) RegisterMany(entries []store.Entry) error {
	st, err := m.active()
	if err != nil {
		return err
	}

	normalized, err := normalizeEntries(entries)
	if err != nil {
		return err
	}

	if err = st.InjectMany(normalized); err != nil {
		return err
	}

	m.metrics.registered(len(normalized))
	m.registered.Dispatch(&TypesRegistered{Types: typesOf(normalized)})

	return nil
}

func normalizeEntries(entries []store.Entry) ([]store.Entry, error) {
	normalized := make([]store.Entry, len(entries))

	for i, e := range entries {
		t := typeIndirect(e.Type)

		if err := checkKind(t, e.Instance); err != nil {
			return nil, err
		}

		normalized[i] = store.Entry{Type: t, Instance: e.Instance}
	}

	return normalized, nil
}

func checkKind(t reflect.Type, instance any) error {
	if t == nil {
		return fmt.Errorf("%w: nil identity", ErrInvalidKind)
	}

	v := reflect.ValueOf(instance)

	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("%w: %T for %s", ErrInvalidKind, instance, typeName(t))
	}

	if t.Kind() == reflect.Interface {
		if !v.Type().Implements(t) {
			return fmt.Errorf("%w: %T does not implement %s", ErrInvalidKind, instance, typeName(t))
		}

		return nil
	}

	if v.Type().Elem() != t {
		return fmt.Errorf("%w: %T for %s", ErrInvalidKind, instance, typeName(t))
	}

	return nil
}

func typesOf(entries []store.Entry) []reflect.Type {
	types := make([]reflect.Type, len(entries))
	for i, e := range entries {
		types[i] = e.Type
	}

	return types
}

func (m *Manager) Factory() *Factory { return m.factory }

func (m *Manager) Scanner() *scan.Scanner { return m.scanner }

// Store returns the active store, nil before initialization.
func (m *Manager) Store() store.Store {
	if !m.initialized.Load() {
		return nil
	}

	return m.store
}

// OnTypesRegistered subscribes to initialization and registration batches.
func (m *Manager) OnTypesRegistered(listener func(*TypesRegistered)) {
	m.registered.Subscribe(listener)
}

// OnTypesInjected subscribes to WireAll passes.
func (m *Manager) OnTypesInjected(listener func(*TypesInjected)) {
	m.injected.Subscribe(listener)
}
