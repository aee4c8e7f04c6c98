package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/providers"
	"github.com/km-arc/go-container/framework/routing"
)

// Application is the top-level application container.
// It embeds the IoC Container and ProviderRegistry so user code can
// call app.Bind(), app.Singleton(), app.Register() directly,
// exactly like $app in Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// Options configures New.
type Options struct {
	// EnvFiles are read by the config provider. Defaults to ".env".
	EnvFiles []string

	// LogOutput receives application logs. Defaults to os.Stdout.
	LogOutput io.Writer

	// Logger, if set, receives the container's own debug logs.
	Logger *slog.Logger
}

// New creates the application and registers the framework providers
// (same order as Laravel).
func New(opts Options) (*Application, error) {
	c := container.New(container.WithLogger(opts.Logger))
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
	}
	c.Instance("app", app)
	c.Instance("providers", registry)

	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{EnvFiles: opts.EnvFiles},
		&providers.LogServiceProvider{Output: opts.LogOutput},
		&providers.RoutingServiceProvider{},
		&providers.ManifestServiceProvider{},
	} {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config resolves *config.Config from the container.
func (a *Application) Config() (*config.Config, error) {
	return container.Resolve[*config.Config](a.Container, "config")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() (*routing.Router, error) {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// Logger resolves the application logger from the container.
func (a *Application) Logger() (*slog.Logger, error) {
	return container.Resolve[*slog.Logger](a.Container, "log")
}

// Run boots the application (if needed) and serves the router on
// APP_PORT until ctx is done, then shuts the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", ":"+cfg.App.Port)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener. The listener is closed on return.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			_ = ln.Close()
			return err
		}
	}

	cfg, err := a.Config()
	if err != nil {
		_ = ln.Close()
		return err
	}
	logger, err := a.Logger()
	if err != nil {
		_ = ln.Close()
		return err
	}
	router, err := a.Router()
	if err != nil {
		_ = ln.Close()
		return err
	}

	server := &http.Server{
		Handler:  router,
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("address", ln.Addr().String()),
			slog.String("container_id", a.ID()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", slog.Any("error", err))
		return err
	}
	logger.Info("shutdown completed")
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string {
	cfg, err := a.Config()
	if err != nil {
		return ""
	}
	return cfg.App.Env
}

func (a *Application) IsLocal() bool      { return a.Environment() == "local" }
func (a *Application) IsProduction() bool { return a.Environment() == "production" }
func (a *Application) IsTesting() bool    { return a.Environment() == "testing" }

func (a *Application) IsDebug() bool {
	cfg, err := a.Config()
	return err == nil && cfg.App.Debug
}

func (a *Application) Version() string { return "0.1.0" }
