package container

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// ── Build frames ──────────────────────────────────────────────────────────────

// frame is one entry of the build stack. Frames are immutable: a nested
// build links a new frame to its parent, so nothing needs popping when a
// build fails half way.
type frame struct {
	name   string
	parent *frame
}

func (f *frame) contains(name string) bool {
	for ; f != nil; f = f.parent {
		if f.name == name {
			return true
		}
	}
	return false
}

// path returns the frame names, outermost first.
func (f *frame) path() []string {
	var out []string
	for ; f != nil; f = f.parent {
		out = append(out, f.name)
	}
	slices.Reverse(out)
	return out
}

// with returns a view of c with name pushed on its build stack.
func (c *Container) with(name string) *Container {
	return &Container{registry: c.registry, frame: &frame{name: name, parent: c.frame}}
}

// BuildStack returns the abstracts currently being built by this view,
// outermost first. It is empty outside factories and constructors.
func (c *Container) BuildStack() []string { return c.frame.path() }

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract from the container.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Make("UserRepository")
func (c *Container) Make(abstract string) (any, error) {
	return c.resolve(abstract, nil)
}

// MakeWith resolves an abstract with explicit constructor parameters.
// Parameterised builds always produce a fresh instance and are never cached.
//
//	// Laravel: $app->makeWith(Mailer::class, ['host' => 'smtp.local'])
func (c *Container) MakeWith(abstract string, params Params) (any, error) {
	return c.resolve(abstract, params)
}

// Get resolves id like Make. A failure for an identifier the container
// has never heard of is reported as *EntryNotFoundError; any other failure
// is returned unchanged.
func (c *Container) Get(id string) (any, error) {
	instance, err := c.Make(id)
	if err == nil {
		return instance, nil
	}
	if c.Has(id) || errors.Is(err, ErrCyclicDependency) {
		return nil, err
	}
	return nil, &EntryNotFoundError{ID: id, Err: err}
}

// resolve is the resolution pipeline shared by every public entry point.
// Precedence: pinned instance, contextual binding of the innermost frame,
// cached shared instance, binding, auto-wired class.
func (c *Container) resolve(abstract string, params Params) (any, error) {
	c.mu.RLock()
	key := c.canonical(abstract)
	c.mu.RUnlock()

	c.fireBeforeResolving(key, params)

	impl, contextual := c.contextualFor(abstract)

	c.mu.RLock()
	instance, cached := c.instances[key]
	pinned := c.pinned[key]
	b := c.bindings[key]
	c.mu.RUnlock()

	if cached && (pinned || (!contextual && len(params) == 0)) {
		return instance, nil
	}

	if c.frame.contains(key) {
		return nil, &CyclicDependencyError{Abstract: key, Path: c.frame.path()}
	}

	if contextual {
		return c.build(key, b, &impl, params)
	}

	// Concurrent first resolutions of a shared abstract build it once.
	// Nested builds skip the flight so that two goroutines entering a
	// dependency graph from opposite ends cannot wait on each other.
	// The flight is keyed by binding too, so a resolution started after a
	// rebind or Flush never joins a build of the replaced recipe.
	if b != nil && b.shared && len(params) == 0 && c.frame == nil {
		v, err, _ := c.flight.Do(fmt.Sprintf("%s@%p", key, b), func() (any, error) {
			c.mu.RLock()
			inst, ok := c.instances[key]
			c.mu.RUnlock()
			if ok {
				return inst, nil
			}
			return c.build(key, b, nil, params)
		})
		return v, err
	}
	return c.build(key, b, nil, params)
}

// build turns a recipe into an instance, then caches it and fires the
// resolving callbacks.
func (c *Container) build(key string, b *binding, impl *implementation, params Params) (any, error) {
	var (
		instance any
		cl       *Class
		err      error
	)
	switch {
	case impl != nil:
		instance, err = call(func() (any, error) { return impl.resolve(c, key, params) })
	case b != nil && b.factory != nil:
		instance, err = call(func() (any, error) { return b.factory(c.with(key), params) })
	case b != nil && b.concrete != key:
		instance, err = c.with(key).resolve(b.concrete, params)
	default:
		instance, cl, err = c.buildClass(key, params)
	}
	if err != nil {
		return nil, c.wrap(key, err)
	}

	instance = c.applyExtenders(key, instance)

	if impl == nil && b != nil && b.shared && len(params) == 0 {
		stored, won := c.storeShared(key, b, instance)
		if !won {
			return stored, nil
		}
	}

	c.fireResolving(key, cl, instance)

	c.mu.Lock()
	if b == nil || c.bindings[key] == b {
		c.resolved[key] = true
	}
	c.mu.Unlock()
	return instance, nil
}

// storeShared caches instance under key unless another build got there
// first, in which case the earlier instance is returned and won is false.
// An instance built from a binding that was replaced or flushed meanwhile
// is handed back to its caller without being cached.
func (c *Container) storeShared(key string, b *binding, instance any) (stored any, won bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bindings[key] != b {
		return instance, true
	}
	if existing, ok := c.instances[key]; ok {
		return existing, false
	}
	c.instances[key] = instance
	return instance, true
}

// wrap turns a factory failure into a *BindingResolutionError. Resolution
// and cycle errors raised deeper down are passed through untouched.
func (c *Container) wrap(key string, err error) error {
	if errors.Is(err, ErrBindingResolution) || errors.Is(err, ErrCyclicDependency) {
		return err
	}
	return &BindingResolutionError{
		Abstract: key,
		Message:  fmt.Sprintf("factory for [%s] failed", key),
		Stack:    c.frame.path(),
		Err:      err,
	}
}

// call runs fn, turning a panic into an error.
func call(fn func() (any, error)) (instance any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			instance = nil
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("panic: %w", e)
			} else {
				err = fmt.Errorf("panic: %v", rec)
			}
		}
	}()
	return fn()
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with Go types.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
//	c.Singleton(key, factory)
//	repo, err := container.Resolve[UserRepository](c, key)
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	// Instead of: v, err := c.Make("db"); db := v.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, abstract string) (T, error) {
	var zero T
	instance, err := c.Make(abstract)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%s]: [%s] resolved to %T", reflect.TypeFor[T](), abstract, instance)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, abstract string) T {
	v, err := Resolve[T](c, abstract)
	if err != nil {
		panic(err)
	}
	return v
}
