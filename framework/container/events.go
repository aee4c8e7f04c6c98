package container

import (
	"log/slog"
	"slices"
)

// BeforeResolvingCallback runs before an abstract is resolved, cached or not.
type BeforeResolvingCallback func(abstract string, params Params, c *Container)

// ResolvingCallback runs after an abstract has been built.
type ResolvingCallback func(abstract string, instance any, c *Container)

// ReboundCallback runs with the fresh instance after an already resolved
// abstract is bound again.
type ReboundCallback func(c *Container, instance any)

// events holds the global and type-scoped callback lists.
type events struct {
	before       []BeforeResolvingCallback
	beforeFor    map[string][]BeforeResolvingCallback
	resolving    []ResolvingCallback
	resolvingFor map[string][]ResolvingCallback
	after        []ResolvingCallback
	afterFor     map[string][]ResolvingCallback

	// Go-type callbacks from OnResolving and OnAfterResolving. They are
	// type-scoped and fire after the abstract-scoped ones.
	resolvingTyped []ResolvingCallback
	afterTyped     []ResolvingCallback
}

func newEvents() events {
	return events{
		beforeFor:    make(map[string][]BeforeResolvingCallback),
		resolvingFor: make(map[string][]ResolvingCallback),
		afterFor:     make(map[string][]ResolvingCallback),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// BeforeResolving registers a callback fired before any abstract is resolved.
//
//	// Laravel: $app->beforeResolving(fn($abstract, $params, $app) => ...)
func (c *Container) BeforeResolving(cb BeforeResolvingCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.before = append(c.events.before, cb)
}

// BeforeResolvingFor registers a callback fired before abstract, or a class
// implementing it, is resolved.
func (c *Container) BeforeResolvingFor(abstract string, cb BeforeResolvingCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	c.events.beforeFor[key] = append(c.events.beforeFor[key], cb)
}

// Resolving registers a callback fired whenever an abstract is built.
//
//	// Laravel: $app->resolving(fn($object, $app) => ...)
func (c *Container) Resolving(cb ResolvingCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.resolving = append(c.events.resolving, cb)
}

// ResolvingFor registers a callback fired when abstract is built, or when
// the built instance is of type abstract.
//
//	// Laravel: $app->resolving(Mailer::class, fn($mailer, $app) => ...)
func (c *Container) ResolvingFor(abstract string, cb ResolvingCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	c.events.resolvingFor[key] = append(c.events.resolvingFor[key], cb)
}

// AfterResolving registers a callback fired after the resolving callbacks.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb ResolvingCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.after = append(c.events.after, cb)
}

// AfterResolvingFor is the type-scoped variant of AfterResolving.
func (c *Container) AfterResolvingFor(abstract string, cb ResolvingCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	c.events.afterFor[key] = append(c.events.afterFor[key], cb)
}

// OnResolving registers a resolving callback for every instance that is a T.
// T is usually an interface:
//
//	container.OnResolving(c, func(l LoggerAware, c *container.Container) {
//	    l.SetLogger(logger)
//	})
//
// Like ResolvingFor, it fires after the global Resolving callbacks.
func OnResolving[T any](c *Container, cb func(T, *Container)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.resolvingTyped = append(c.events.resolvingTyped, typed(cb))
}

// OnAfterResolving is the after-resolving variant of OnResolving.
func OnAfterResolving[T any](c *Container, cb func(T, *Container)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.afterTyped = append(c.events.afterTyped, typed(cb))
}

func typed[T any](cb func(T, *Container)) ResolvingCallback {
	return func(_ string, instance any, c *Container) {
		if v, ok := instance.(T); ok {
			cb(v, c)
		}
	}
}

// Rebinding registers a callback fired whenever abstract is re-bound, and
// returns the current instance if abstract is already bound.
//
//	// Laravel: $app->rebinding(UserRepository::class, fn($app, $repo) => ...)
func (c *Container) Rebinding(abstract string, cb ReboundCallback) (any, error) {
	c.mu.Lock()
	key := c.canonical(abstract)
	c.reboundCallbacks[key] = append(c.reboundCallbacks[key], cb)
	bound := c.boundLocked(abstract, key)
	c.mu.Unlock()

	if !bound {
		return nil, nil
	}
	// Resolve on this view so a factory asking for an abstract it is
	// itself building gets a cycle error.
	return c.Make(key)
}

// ── Firing ────────────────────────────────────────────────────────────────────

// fireBeforeResolving runs global callbacks, then the ones registered for
// key or for an abstract key's class implements.
func (c *Container) fireBeforeResolving(key string, params Params) {
	c.mu.RLock()
	global := slices.Clone(c.events.before)
	scoped := slices.Clone(c.events.beforeFor[key])
	if cl := c.classes[key]; cl != nil {
		for _, typ := range cl.Implements {
			if typ != key {
				scoped = append(scoped, c.events.beforeFor[typ]...)
			}
		}
	}
	c.mu.RUnlock()

	for _, cb := range global {
		cb(key, params, c)
	}
	for _, cb := range scoped {
		cb(key, params, c)
	}
}

// fireResolving runs the resolving callbacks, then the after-resolving ones.
func (c *Container) fireResolving(key string, cl *Class, instance any) {
	c.mu.RLock()
	if cl == nil {
		cl = c.classes[key]
	}
	resolving := slices.Clone(c.events.resolving)
	resolving = append(resolving, matching(c.events.resolvingFor, key, cl, instance)...)
	resolving = append(resolving, c.events.resolvingTyped...)
	after := slices.Clone(c.events.after)
	after = append(after, matching(c.events.afterFor, key, cl, instance)...)
	after = append(after, c.events.afterTyped...)
	c.mu.RUnlock()

	for _, cb := range resolving {
		cb(key, instance, c)
	}
	for _, cb := range after {
		cb(key, instance, c)
	}
}

// matching collects the callbacks whose type is key, is implemented by cl,
// or is the Go type of instance. Callbacks registered under several matching
// types keep the registration order within each type.
func matching(byType map[string][]ResolvingCallback, key string, cl *Class, instance any) []ResolvingCallback {
	if len(byType) == 0 {
		return nil
	}
	var out []ResolvingCallback
	out = append(out, byType[key]...)
	if cl != nil {
		for _, typ := range cl.Implements {
			if typ != key {
				out = append(out, byType[typ]...)
			}
		}
	}
	if instance != nil {
		if tk := TypeKey(instance); tk != key && (cl == nil || !cl.implements(tk)) {
			out = append(out, byType[tk]...)
		}
	}
	return out
}

// rebound re-resolves key and hands the fresh instance to its rebound callbacks.
func (c *Container) rebound(key string) {
	c.mu.RLock()
	cbs := slices.Clone(c.reboundCallbacks[key])
	c.mu.RUnlock()
	if len(cbs) == 0 {
		return
	}

	instance, err := c.Make(key)
	if err != nil {
		c.log.Error("container: rebound resolution failed", slog.String("abstract", key), slog.Any("error", err))
		return
	}
	c.log.Debug("container: rebound", slog.String("abstract", key), slog.Int("callbacks", len(cbs)))
	for _, cb := range cbs {
		cb(c, instance)
	}
}
