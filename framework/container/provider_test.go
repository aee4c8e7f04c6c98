package container_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-container/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     int
}

func (p *eagerProvider) Register(app *container.Container) error {
	p.registerCalled++
	app.Singleton("eager-svc", value("eager"))
	return nil
}

func (p *eagerProvider) Boot(_ *container.Container) error {
	p.bootCalled++
	return nil
}

// deferredProvider is lazy: only registered when "deferred-svc" is first resolved.
type deferredProvider struct {
	container.BaseProvider
	mu             sync.Mutex
	registerCalled int
	bootCalled     int
	bootSaw        any
}

func (p *deferredProvider) Register(app *container.Container) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registerCalled++
	app.Singleton("deferred-svc", value("deferred-value"))
	app.Singleton("deferred-other", value("other-value"))
	return nil
}

func (p *deferredProvider) Boot(app *container.Container) error {
	// Resolving its own abstract from Boot must not deadlock.
	v, err := app.Make("deferred-svc")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bootCalled++
	p.bootSaw = v
	return err
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc", "deferred-other"} }

// multiProvider registers multiple abstracts and has no Boot.
type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(app *container.Container) error {
	app.Singleton("alpha", value("α"))
	app.Singleton("beta", value("β"))
	return nil
}

type failingProvider struct {
	container.BaseProvider
	registerErr error
	bootErr     error
}

func (p *failingProvider) Register(*container.Container) error { return p.registerErr }
func (p *failingProvider) Boot(*container.Container) error     { return p.bootErr }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.registerCalled, "Register() should be called immediately for eager providers")
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	assert.Zero(t, p.bootCalled, "Boot() should NOT be called before registry.Boot()")

	require.NoError(t, reg.Boot())
	assert.Equal(t, 1, p.bootCalled)
}

func TestRegistry_EagerProvider_ServiceResolvable(t *testing.T) {
	t.Parallel()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	assert.Equal(t, "eager", mustMake(t, c, "eager-svc"))
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())
	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	require.NoError(t, reg.Boot())
	require.NoError(t, reg.Boot())

	assert.True(t, reg.Booted())
	assert.Equal(t, 1, p.bootCalled)
}

func TestRegistry_Booted_FalseBeforeBoot(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())
	assert.False(t, reg.Booted())
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.registerCalled)
	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())
	require.NoError(t, reg.Boot())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.bootCalled, "provider registered after Boot() should be booted immediately")
}

func TestRegistry_MultipleProviders_AllServicesResolvable(t *testing.T) {
	t.Parallel()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&multiProvider{}))
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	assert.Equal(t, "α", mustMake(t, c, "alpha"))
	assert.Equal(t, "β", mustMake(t, c, "beta"))
	assert.Equal(t, "eager", mustMake(t, c, "eager-svc"))
}

func TestRegistry_Providers_ReturnsEagerOnes(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Register(&deferredProvider{}))

	assert.Len(t, reg.Providers(), 1, "deferred providers are not listed")
}

// ── Errors ────────────────────────────────────────────────────────────────────

func TestRegistry_RegisterError(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())

	err := reg.Register(&failingProvider{registerErr: errBoom})

	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "register *container_test.failingProvider")
	assert.Empty(t, reg.Providers())
}

func TestRegistry_BootJoinsErrors(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())
	errOther := errors.New("other")
	require.NoError(t, reg.Register(&failingProvider{bootErr: errBoom}))
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Register(&failingProvider{bootErr: errOther}))

	err := reg.Boot()

	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, errOther)
	assert.True(t, reg.Booted())
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProvider_NotRegisteredEagerly(t *testing.T) {
	t.Parallel()
	reg := container.NewProviderRegistry(container.New())

	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	assert.Zero(t, p.registerCalled, "deferred provider Register() should not be called until Make()")
	assert.Equal(t, []string{"deferred-other", "deferred-svc"}, reg.Deferred())
	assert.True(t, reg.IsDeferred("deferred-svc"))
}

func TestRegistry_DeferredProvider_RegisteredOnFirstMake(t *testing.T) {
	t.Parallel()
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	assert.Equal(t, "deferred-value", mustMake(t, c, "deferred-svc"))
	assert.Equal(t, "other-value", mustMake(t, c, "deferred-other"))

	assert.Equal(t, 1, p.registerCalled)
	assert.Equal(t, 1, p.bootCalled)
	assert.Equal(t, "deferred-value", p.bootSaw)
	assert.Empty(t, reg.Deferred())
	assert.False(t, reg.IsDeferred("deferred-svc"))
}

func TestRegistry_DeferredProvider_LoadedBeforeBootIsBootedByBoot(t *testing.T) {
	t.Parallel()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))

	assert.Equal(t, "deferred-value", mustMake(t, c, "deferred-svc"))
	assert.Zero(t, p.bootCalled)

	require.NoError(t, reg.Boot())
	assert.Equal(t, 1, p.bootCalled)
}

func TestRegistry_DeferredProvider_Get(t *testing.T) {
	t.Parallel()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&deferredProvider{}))

	got, err := c.Get("deferred-other")
	require.NoError(t, err)
	assert.Equal(t, "other-value", got)
}

func TestRegistry_DeferredProvider_ConcurrentFirstMake(t *testing.T) {
	t.Parallel()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	errs := make([]error, workers)
	parallel(func(i int) { _, errs[i] = c.Make("deferred-svc") })

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, p.registerCalled)
	assert.Equal(t, 1, p.bootCalled)
}

func TestRegistry_LoadDeferred(t *testing.T) {
	t.Parallel()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))

	ok, err := reg.LoadDeferred("unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = reg.LoadDeferred("deferred-svc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, p.registerCalled)
	assert.True(t, c.Bound("deferred-svc"))
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	t.Parallel()
	var p container.BaseProvider

	assert.False(t, p.IsDeferred())
	assert.Empty(t, p.Provides())
}
