// Package container provides a Laravel-compatible IoC (Inversion of Control)
// container and Service Provider system for Go.
//
// # Overview
//
// The container manages the instantiation and lifecycle of your application's
// dependencies. It supports transient bindings, singletons, pre-built instances,
// aliases, tags, contextual bindings, and extension (decoration).
//
// It mirrors the public API of Laravel's Illuminate\Container\Container as
// closely as Go's type system allows. Go has no constructor reflection with
// parameter names, so classes the container builds on its own are described
// with Define.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithLogger(log))
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()       : safe to resolve everything after this
//  4. Serve requests
//
// # Bindings
//
//	// Transient: new instance every Make()
//	// Laravel: $app->bind(Foo::class, fn($app) => new Foo)
//	c.Bind("Foo", func(c *container.Container, _ container.Params) (any, error) {
//	    return &Foo{}, nil
//	})
//
//	// Singleton: created once, reused
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache)
//	c.Singleton("cache", func(c *container.Container, _ container.Params) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.New(cfg), nil
//	})
//
//	// Pre-built value
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
//
//	// Alias
//	// Laravel: $app->alias(Cache::class, 'cache')
//	err := c.Alias("cache", "cacheManager")
//
// # Auto-wiring
//
//	// Laravel: class Mailer { public function __construct(Transport $transport, string $from = 'noreply@example.com') }
//	c.Define(container.Class{
//	    Name:   "Mailer",
//	    Params: []container.Param{
//	        container.Dep("transport", "Transport"),
//	        container.Primitive("from").WithDefault("noreply@example.com"),
//	    },
//	    New: func(args []any) (any, error) {
//	        return &Mailer{Transport: args[0].(Transport), From: args[1].(string)}, nil
//	    },
//	})
//	mailer, err := c.Make("Mailer")
//
// # Resolving
//
//	// Untyped
//	// Laravel: $app->make(Cache::class)
//	raw, err := c.Make("cache")
//
//	// Generic (preferred, no type assertion required)
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//
//	// PSR-11 style: unknown identifiers fail with ErrEntryNotFound
//	v, err := c.Get("cache")
//
// # Contextual Binding
//
//	// Laravel: $app->when(PhotoController::class)
//	//              ->needs(Filesystem::class)
//	//              ->give(fn() => new S3Filesystem)
//	c.When("PhotoController").
//	    Needs("Filesystem").
//	    GiveClass("S3Filesystem")
//
//	c.When("PhotoController").Needs("$path").GiveValue("/tmp/photos")
//
// # Tags
//
//	// Laravel: $app->tag([CpuReport::class, MemReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemReport"}, "reports")
//	reports, err := c.Tagged("reports")  // []any
//
// # Extend / Decorate
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return &TimestampLogger{Inner: instance.(*Logger)}
//	})
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    app.Singleton("mailer", func(c *container.Container, _ container.Params) (any, error) {
//	        return mail.NewSMTP(), nil
//	    })
//	    return nil
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) error {
//	    // safe to resolve other bindings here
//	    return nil
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	err := registry.Boot()
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool     { return true }
//	func (p *HeavyProvider) Provides() []string   { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) error {
//	    app.Singleton("heavy", heavyFactory) // registered on first app.Make("heavy")
//	    return nil
//	}
//
// # Concurrency
//
// Every method is safe for concurrent use. Factories run without any lock
// held and receive a view of the container scoped to the build in progress;
// resolve nested dependencies through that view. A singleton factory that
// resolves its own abstract through a captured root container waits on
// itself forever.
package container
