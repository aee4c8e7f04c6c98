// Package providers holds the service providers the application kernel
// registers by default.
package providers

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/logging"
	"github.com/km-arc/go-container/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// binds it into the container as "config".
//
// Bound abstracts:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	envFiles := p.EnvFiles
	app.Singleton("config", func(*container.Container, container.Params) (any, error) {
		return config.Load(envFiles...)
	})
	return app.Alias("config", "configuration")
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider builds the application logger from the "log" section
// of the configuration.
//
// Bound abstracts:
//   - "log"     → *slog.Logger
//   - "logger"  → alias of "log"
//
// Laravel equivalent:
//
//	// Illuminate\Log\LogServiceProvider
//	$app->singleton('log', fn($app) => new LogManager($app));
type LogServiceProvider struct {
	container.BaseProvider

	// Output defaults to os.Stdout.
	Output io.Writer
}

func (p *LogServiceProvider) Register(app *container.Container) error {
	out := p.Output
	app.Singleton("log", func(c *container.Container, _ container.Params) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out})
		return log.With(slog.String("app", cfg.App.Name), slog.String("env", cfg.App.Env)), nil
	})
	return app.Alias("log", "logger")
}

// ── ManifestServiceProvider ───────────────────────────────────────────────────

// ManifestServiceProvider applies the YAML container manifest named by
// CONTAINER_MANIFEST once every provider is registered. Classes the
// manifest refers to must be defined by then.
type ManifestServiceProvider struct {
	container.BaseProvider
}

func (p *ManifestServiceProvider) Register(*container.Container) error { return nil }

func (p *ManifestServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	if cfg.Container.Manifest == "" {
		return nil
	}

	m, err := config.LoadManifest(cfg.Container.Manifest)
	if err != nil {
		return err
	}
	if err := m.Apply(app); err != nil {
		return fmt.Errorf("providers: apply manifest %s: %w", cfg.Container.Manifest, err)
	}
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router and, in debug mode, the
// container inspection endpoint.
//
// Bound abstracts:
//   - "router"  → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider

	// InspectPath is where the inspector is mounted. Defaults to "/_container".
	InspectPath string
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	app.Singleton("router", func(c *container.Container, _ container.Params) (any, error) {
		log, err := container.Resolve[*slog.Logger](c, "log")
		if err != nil {
			return nil, err
		}
		return routing.New(c, routing.WithLogger(log)), nil
	})
	return nil
}

func (p *RoutingServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	if !cfg.App.Debug {
		return nil
	}

	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}

	var deferred func() []string
	if app.Bound("providers") {
		registry, err := container.Resolve[*container.ProviderRegistry](app, "providers")
		if err != nil {
			return err
		}
		deferred = registry.Deferred
	}

	path := p.InspectPath
	if path == "" {
		path = "/_container"
	}
	router.Get(path, routing.Inspector(app, deferred))
	return nil
}
