package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/km-arc/go-container/framework/app"
	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
)

// Transport delivers a message.
type Transport interface {
	Send(to, body string) error
}

type smtpTransport struct{ host string }

func (t *smtpTransport) Send(to, body string) error {
	slog.Info("smtp send", slog.String("host", t.host), slog.String("to", to))
	return nil
}

type logTransport struct{ log *slog.Logger }

func (t *logTransport) Send(to, body string) error {
	t.log.Info("mail", slog.String("to", to), slog.String("body", body))
	return nil
}

// Mailer is auto-wired: its Transport and From come from the container.
type Mailer struct {
	Transport Transport
	From      string
}

// MailController answers POST /mail by sending through the Mailer.
type MailController struct{ mailer *Mailer }

func (c *MailController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("to")
	if err := c.mailer.Transport.Send(to, "hello from "+c.mailer.From); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// MailServiceProvider defines the mail classes. It is deferred: nothing is
// registered until "Mailer" or "Transport" is first resolved.
type MailServiceProvider struct{ container.BaseProvider }

func (MailServiceProvider) IsDeferred() bool   { return true }
func (MailServiceProvider) Provides() []string { return []string{"Mailer", "Transport"} }

func (MailServiceProvider) Register(c *container.Container) error {
	for _, class := range []container.Class{
		{Name: "Transport", Abstract: true},
		{
			Name:       "SmtpTransport",
			Implements: []string{"Transport"},
			Params:     []container.Param{container.Primitive("host").WithDefault("localhost:25")},
			New: func(args []any) (any, error) {
				return &smtpTransport{host: args[0].(string)}, nil
			},
		},
		{
			Name:   "Mailer",
			Params: []container.Param{container.Dep("transport", "Transport"), container.Primitive("from")},
			New: func(args []any) (any, error) {
				return &Mailer{Transport: args[0].(Transport), From: args[1].(string)}, nil
			},
		},
	} {
		if err := c.Define(class); err != nil {
			return err
		}
	}
	c.BindTo("Transport", "SmtpTransport", true)
	c.When("Mailer").Needs("$from").GiveValue("noreply@example.com")

	// Local environments log mail instead of sending it.
	c.When("Mailer").Needs("Transport").Give(func(c *container.Container, _ container.Params) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		if cfg.App.Env != "local" {
			return c.Make("SmtpTransport")
		}
		log, err := container.Resolve[*slog.Logger](c, "log")
		if err != nil {
			return nil, err
		}
		return &logTransport{log: log}, nil
	})
	return nil
}

func main() {
	application, err := app.New(app.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := application.Register(MailServiceProvider{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	application.Bind("MailController", func(c *container.Container, _ container.Params) (any, error) {
		mailer, err := container.Resolve[*Mailer](c, "Mailer")
		if err != nil {
			return nil, err
		}
		return &MailController{mailer: mailer}, nil
	})

	router, err := application.Router()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	router.Handle(http.MethodPost, "/mail", "MailController")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
