package container

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Register binds services and must not resolve anything. Providers that
// need resolved services implement Booter as well; Boot runs once every
// provider has been registered.
//
//	// Laravel:
//	// class AppServiceProvider extends ServiceProvider {
//	//     public function register(): void { $this->app->singleton(...); }
//	//     public function boot(): void     { /* use resolved services */ }
//	// }
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    app.Singleton("mailer", func(c *container.Container, _ container.Params) (any, error) {
//	        return mail.New(), nil
//	    })
//	    return nil
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	Register(app *Container) error

	// Provides returns the abstracts a deferred provider registers.
	//
	//	// Laravel: public function provides(): array { return [Cache::class]; }
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// only when one of its Provides() abstracts is first resolved.
	//
	//	// Laravel: class CacheServiceProvider extends ServiceProvider implements DeferrableProvider
	IsDeferred() bool
}

// Booter is implemented by providers with work to do after registration.
type Booter interface {
	Boot(app *Container) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with the defaults of an eager
// provider. Embed it and implement Register.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (BaseProvider) Provides() []string { return nil }
func (BaseProvider) IsDeferred() bool   { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// deferredEntry loads one deferred provider at most once, whichever of its
// abstracts is resolved first.
type deferredEntry struct {
	provider ServiceProvider
	once     sync.Once
	err      error
	done     atomic.Bool
	booted   atomic.Bool
}

func (e *deferredEntry) loaded() bool { return e.done.Load() }

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
//
// It mirrors the behaviour of Laravel's Application::registerConfiguredProviders
// and Application::bootProviders.
type ProviderRegistry struct {
	mu sync.Mutex

	app *Container
	log *slog.Logger

	eager      []ServiceProvider
	deferred   map[string]*deferredEntry // abstract → provider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app. Deferred providers
// are loaded from a before-resolving hook installed on app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	r := &ProviderRegistry{
		app:        app.Root(),
		log:        app.log,
		deferred:   make(map[string]*deferredEntry),
		registered: make(map[ServiceProvider]bool),
	}
	app.BeforeResolving(func(abstract string, _ Params, _ *Container) {
		r.load(abstract)
	})
	return r
}

// Register adds a provider and calls its Register method, unless it is
// deferred. A provider added after Boot is booted right away.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		entry := &deferredEntry{provider: provider}
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = entry
		}
		r.mu.Unlock()
		r.log.Debug("container: provider deferred",
			slog.String("provider", fmt.Sprintf("%T", provider)),
			slog.Any("provides", provider.Provides()))
		return nil
	}
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("container: register %T: %w", provider, err)
	}

	r.mu.Lock()
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	r.log.Debug("container: provider registered", slog.String("provider", fmt.Sprintf("%T", provider)))

	if booted {
		return r.boot(provider)
	}
	return nil
}

// Boot boots every eager provider that implements Booter. Errors from
// all providers are collected and joined. Calling Boot again is a no-op.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := slices.Clone(r.eager)
	var loaded []*deferredEntry
	for _, abstract := range slices.Sorted(maps.Keys(r.deferred)) {
		entry := r.deferred[abstract]
		if entry.loaded() && entry.err == nil && !slices.Contains(loaded, entry) {
			loaded = append(loaded, entry)
		}
	}
	r.mu.Unlock()

	var errs []error
	for _, provider := range providers {
		if err := r.boot(provider); err != nil {
			errs = append(errs, err)
		}
	}
	// Deferred providers that were loaded before Boot are booted last.
	for _, entry := range loaded {
		if !entry.booted.CompareAndSwap(false, true) {
			continue
		}
		if err := r.boot(entry.provider); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *ProviderRegistry) boot(provider ServiceProvider) error {
	b, ok := provider.(Booter)
	if !ok {
		return nil
	}
	if err := b.Boot(r.app); err != nil {
		return fmt.Errorf("container: boot %T: %w", provider, err)
	}
	return nil
}

// LoadDeferred registers the deferred provider of abstract now instead of
// on its first resolution. It reports whether such a provider existed.
func (r *ProviderRegistry) LoadDeferred(abstract string) (bool, error) {
	r.mu.Lock()
	entry, ok := r.deferred[abstract]
	r.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, r.loadEntry(entry)
}

// load is the before-resolving hook. Registration failures cannot be
// returned from here, so they are logged and the resolution that follows
// reports the missing binding.
func (r *ProviderRegistry) load(abstract string) {
	if _, err := r.LoadDeferred(abstract); err != nil {
		r.log.Error("container: deferred provider failed",
			slog.String("abstract", abstract), slog.Any("error", err))
	}
}

func (r *ProviderRegistry) loadEntry(entry *deferredEntry) error {
	entry.once.Do(func() {
		defer entry.done.Store(true)
		if err := entry.provider.Register(r.app); err != nil {
			entry.err = fmt.Errorf("container: register %T: %w", entry.provider, err)
			return
		}
		r.log.Debug("container: deferred provider loaded",
			slog.String("provider", fmt.Sprintf("%T", entry.provider)))
	})
	if entry.err != nil {
		return entry.err
	}

	r.mu.Lock()
	booted := r.booted
	r.mu.Unlock()

	// Boot runs outside the once so that it may resolve the provider's own
	// abstracts, which re-enters this hook.
	if booted && entry.booted.CompareAndSwap(false, true) {
		return r.boot(entry.provider)
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.eager)
}

// Deferred returns the sorted abstracts whose provider has not been loaded yet.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for abstract, entry := range r.deferred {
		if !entry.loaded() {
			out = append(out, abstract)
		}
	}
	slices.Sort(out)
	return out
}

// IsDeferred reports whether abstract is provided by a deferred provider
// that has not been loaded yet.
func (r *ProviderRegistry) IsDeferred(abstract string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.deferred[abstract]
	return ok && !entry.loaded()
}
