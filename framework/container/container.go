package container

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/km-arc/go-container/framework/logging"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Params carries explicit constructor arguments keyed by parameter name.
//
//	// Laravel: $app->make(Mailer::class, ['host' => 'localhost'])
//	c.MakeWith("mailer", container.Params{"host": "localhost"})
type Params map[string]any

// Factory builds a concrete value. c is scoped to the build in progress:
// resolve nested dependencies through it, never through a captured
// container, so contextual bindings and cycle detection keep working.
type Factory func(c *Container, params Params) (any, error)

// Extender decorates a resolved instance.
type Extender func(instance any, c *Container) any

// binding holds either a factory or the name of a concrete to build.
type binding struct {
	factory  Factory
	concrete string
	shared   bool
}

// ── Container ─────────────────────────────────────────────────────────────────

// registry is the state shared by a container and every build-scoped view
// of it.
type registry struct {
	mu sync.RWMutex

	id   string
	log  *slog.Logger
	root *Container

	// abstract → binding
	bindings map[string]*binding

	// abstract → resolved shared or pinned instance
	instances map[string]any

	// abstracts registered through Instance
	pinned map[string]bool

	// abstracts resolved at least once
	resolved map[string]bool

	// alias → abstract (one hop; followed transitively)
	aliases map[string]string

	// class name → constructor descriptor
	classes map[string]*Class

	// abstract → extender funcs
	extenders map[string][]Extender

	// tag → []abstract
	tags map[string][]string

	// contextual: when[concrete][abstract] = implementation
	contextual map[string]map[string]implementation

	// abstract → rebound callbacks
	reboundCallbacks map[string][]ReboundCallback

	events events

	flight singleflight.Group
}

// Container is the IoC container, mirroring Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / MakeWith / Get (plus the generic Resolve)
//   - Auto-wiring of classes registered with Define
//   - Contextual binding (when A needs B, give it C)
//   - Tags, Extend, Rebound and resolution callbacks
//
// A Container is safe for concurrent use. The value handed to factories,
// constructors and callbacks is a view of the same container that also
// carries the chain of abstracts currently being built.
type Container struct {
	*registry
	frame *frame
}

type options struct {
	logger *slog.Logger
}

// Option configures a Container.
type Option func(*options)

// WithLogger sets the logger used for registration and rebound events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an empty container. The container is bound to itself as
// "container".
func New(opts ...Option) *Container {
	o := options{logger: logging.NewNope()}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	c := &Container{registry: &registry{
		id:  id,
		log: o.logger.With(slog.String("container_id", id)),
	}}
	c.root = c
	c.reset()

	// Bind the container to itself, like Laravel's $app->instance()
	c.Instance("container", c)
	return c
}

// reset (re)initialises every registry. Caller must hold mu or own c.
func (c *Container) reset() {
	c.bindings = make(map[string]*binding)
	c.instances = make(map[string]any)
	c.pinned = make(map[string]bool)
	c.resolved = make(map[string]bool)
	c.aliases = make(map[string]string)
	c.classes = make(map[string]*Class)
	c.extenders = make(map[string][]Extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]implementation)
	c.reboundCallbacks = make(map[string][]ReboundCallback)
	c.events = newEvents()
}

// ID returns the unique identifier of this container, as attached to its logs.
func (c *Container) ID() string { return c.id }

// Root returns the container without any build scope.
func (c *Container) Root() *Container { return c.root }

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient (new instance each Make) factory. A nil
// factory binds the abstract to itself, i.e. to its class descriptor.
//
//	// Laravel: $app->bind(UserRepository::class, fn($app) => new EloquentUserRepository($app))
//	c.Bind("UserRepository", func(c *container.Container, _ container.Params) (any, error) {
//	    db, err := container.Resolve[*sql.DB](c, "db")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &EloquentUserRepository{DB: db}, nil
//	})
func (c *Container) Bind(abstract string, factory Factory) {
	c.register(abstract, &binding{factory: factory}, false)
}

// Singleton registers a factory whose result is cached after first resolution.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
func (c *Container) Singleton(abstract string, factory Factory) {
	c.register(abstract, &binding{factory: factory, shared: true}, false)
}

// BindTo binds abstract to another identifier or class name.
//
//	// Laravel: $app->bind(Filesystem::class, LocalFilesystem::class)
//	c.BindTo("Filesystem", "LocalFilesystem", false)
func (c *Container) BindTo(abstract, concrete string, shared bool) {
	c.register(abstract, &binding{concrete: concrete, shared: shared}, false)
}

// BindIf registers a transient binding only if abstract is not bound yet.
func (c *Container) BindIf(abstract string, factory Factory) {
	c.register(abstract, &binding{factory: factory}, true)
}

// SingletonIf registers a shared binding only if abstract is not bound yet.
func (c *Container) SingletonIf(abstract string, factory Factory) {
	c.register(abstract, &binding{factory: factory, shared: true}, true)
}

// register stores b under the canonical name of abstract and fires rebound
// when that abstract had already been resolved.
func (c *Container) register(abstract string, b *binding, ifUnbound bool) {
	c.mu.Lock()
	key := c.canonical(abstract)
	if ifUnbound && c.boundLocked(abstract, key) {
		c.mu.Unlock()
		return
	}
	if b.factory == nil && b.concrete == "" {
		b.concrete = key
	}

	wasResolved := c.resolvedLocked(key)

	// Drop the stale instance so it's rebuilt with the new recipe
	delete(c.instances, key)
	delete(c.pinned, key)
	c.bindings[key] = b
	c.mu.Unlock()

	c.log.Debug("container: bound", slog.String("abstract", key), slog.Bool("shared", b.shared))

	if wasResolved {
		c.rebound(key)
	}
}

// Instance registers a pre-built value. Every later Make returns it as is.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
func (c *Container) Instance(abstract string, instance any) any {
	c.mu.Lock()
	key := c.canonical(abstract)
	wasBound := c.boundLocked(abstract, key)
	c.instances[key] = instance
	c.pinned[key] = true
	c.mu.Unlock()

	c.log.Debug("container: instance pinned", slog.String("abstract", key))

	if wasBound {
		c.rebound(key)
	}
	return instance
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an abstract.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return logging.NewTimestampWrapper(instance.(*Logger))
//	})
func (c *Container) Extend(abstract string, fn Extender) {
	c.mu.Lock()
	key := c.canonical(abstract)
	inst, cached := c.instances[key]
	if !cached {
		c.extenders[key] = append(c.extenders[key], fn)
	}
	wasResolved := c.resolvedLocked(key)
	c.mu.Unlock()

	// An existing instance is decorated in place and keeps its cache slot
	if cached {
		extended := fn(inst, c.root)
		c.mu.Lock()
		c.instances[key] = extended
		c.mu.Unlock()
	}

	if wasResolved {
		c.rebound(key)
	}
}

func (c *Container) applyExtenders(key string, instance any) any {
	c.mu.RLock()
	exts := slices.Clone(c.extenders[key])
	c.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound returns true if an abstract has a binding, an instance or is an alias.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) Bound(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.boundLocked(abstract, c.canonical(abstract))
}

// Has reports whether Get can find an entry for id. It is Bound under the
// PSR-11 name.
func (c *Container) Has(id string) bool { return c.Bound(id) }

func (c *Container) boundLocked(abstract, key string) bool {
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	_, isAlias := c.aliases[abstract]
	return hasBinding || hasInstance || isAlias
}

// Resolved returns true if the abstract has been resolved at least once or
// holds an instance.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolvedLocked(c.canonical(abstract))
}

func (c *Container) resolvedLocked(key string) bool {
	_, ok := c.instances[key]
	return ok || c.resolved[key]
}

// IsShared returns true if abstract is a singleton or holds an instance.
func (c *Container) IsShared(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sharedLocked(c.canonical(abstract))
}

func (c *Container) sharedLocked(key string) bool {
	if _, ok := c.instances[key]; ok {
		return true
	}
	b, ok := c.bindings[key]
	return ok && b.shared
}

// Forget removes the binding and the instance of an abstract.
func (c *Container) Forget(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.instances, key)
	delete(c.pinned, key)
}

// ForgetInstance drops the cached instance of an abstract; its binding stays.
//
//	// Laravel: $app->forgetInstance(Cache::class)
func (c *Container) ForgetInstance(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.instances, key)
	delete(c.pinned, key)
}

// ForgetInstances drops every cached instance.
func (c *Container) ForgetInstances() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = make(map[string]any)
	c.pinned = make(map[string]bool)
}

// Flush resets the entire container: bindings, instances, aliases, classes,
// tags, contextual bindings and every callback.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.log.Debug("container: flushed")
}

// Bindings returns the sorted abstract keys that have a binding or an instance.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// Factory returns a function that resolves abstract on every call.
//
//	// Laravel: $app->factory(Mailer::class)
func (c *Container) Factory(abstract string) func() (any, error) {
	return func() (any, error) { return c.Make(abstract) }
}
