// Package routing wraps chi with Laravel-style helpers whose handlers can
// be resolved from the service container on every request.
package routing

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/logging"
)

// Router wraps chi.Router with Laravel-style helpers.
type Router struct {
	mux chi.Router
	app *container.Container
	log *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the request and resolution logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Router resolving container-backed routes from app, with
// RequestID, RealIP, request logging and Recoverer middleware.
func New(app *container.Container, opts ...Option) *Router {
	r := &Router{mux: chi.NewRouter(), app: app.Root(), log: logging.NewNope()}
	for _, opt := range opts {
		opt(r)
	}
	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(requestLogger(r.log))
	r.mux.Use(middleware.Recoverer)
	return r
}

// sub returns a Router sharing r's container and logger on another mux.
func (r *Router) sub(mx chi.Router) *Router {
	return &Router{mux: mx, app: r.app, log: r.log}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.mux.Get(pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.mux.Post(pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.mux.Put(pattern, h) }
func (r *Router) Patch(pattern string, h http.HandlerFunc)  { r.mux.Patch(pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.mux.Delete(pattern, h) }

// Any registers a handler for all common HTTP methods.
func (r *Router) Any(pattern string, h http.HandlerFunc) {
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		r.mux.Method(m, pattern, h)
	}
}

// ── Container-backed routes ──────────────────────────────────────────────────

// Handle routes method and pattern to the http.Handler bound under abstract.
// The handler is resolved on every request, so a transient binding yields
// a fresh handler per request and a singleton is shared.
//
//	// Laravel: Route::get('/mail', SendMailController::class)
//	router.Handle(http.MethodPost, "/mail", "SendMailController")
func (r *Router) Handle(method, pattern, abstract string) {
	r.mux.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h, ok := resolve[http.Handler](r, w, req, abstract)
		if ok {
			h.ServeHTTP(w, req)
		}
	}))
}

// ResourceFrom registers the RESTful routes of Resource for the controller
// bound under abstract, resolved on every request.
func (r *Router) ResourceFrom(pattern, abstract string) {
	action := func(pick func(ResourceController) http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			if c, ok := resolve[ResourceController](r, w, req, abstract); ok {
				pick(c)(w, req)
			}
		}
	}
	r.routes(pattern,
		action(func(c ResourceController) http.HandlerFunc { return c.Index }),
		action(func(c ResourceController) http.HandlerFunc { return c.Store }),
		action(func(c ResourceController) http.HandlerFunc { return c.Show }),
		action(func(c ResourceController) http.HandlerFunc { return c.Update }),
		action(func(c ResourceController) http.HandlerFunc { return c.Destroy }),
	)
}

// resolve fetches abstract from the container and answers 500 when it
// cannot be built or is not a T.
func resolve[T any](r *Router, w http.ResponseWriter, req *http.Request, abstract string) (T, bool) {
	v, err := container.Resolve[T](r.app, abstract)
	if err != nil {
		r.log.ErrorContext(req.Context(), "routing: resolve handler",
			slog.String("abstract", abstract),
			slog.String("request_id", middleware.GetReqID(req.Context())),
			slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server Error."})
		return v, false
	}
	return v, true
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group. Laravel: Route::group([], fn)
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(r.sub(mx))
	})
}

// Prefix creates a sub-router with a URL prefix. Laravel: Route::prefix('/api')
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(r.sub(mx))
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// requestLogger logs one line per request at info level.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, req)
			log.InfoContext(req.Context(), "http request",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(req.Context())))
		})
	}
}

// ── Resource routes ──────────────────────────────────────────────────────────

// ResourceController is a RESTful resource controller.
//
//	GET    /photos           → c.Index
//	POST   /photos           → c.Store
//	GET    /photos/{id}      → c.Show
//	PUT    /photos/{id}      → c.Update
//	DELETE /photos/{id}      → c.Destroy
type ResourceController interface {
	Index(w http.ResponseWriter, r *http.Request)
	Store(w http.ResponseWriter, r *http.Request)
	Show(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// Resource registers standard RESTful routes for a resource controller.
func (r *Router) Resource(pattern string, c ResourceController) {
	r.routes(pattern, c.Index, c.Store, c.Show, c.Update, c.Destroy)
}

func (r *Router) routes(pattern string, index, store, show, update, destroy http.HandlerFunc) {
	r.mux.Get(pattern, index)
	r.mux.Post(pattern, store)
	r.mux.Get(pattern+"/{id}", show)
	r.mux.Put(pattern+"/{id}", update)
	r.mux.Patch(pattern+"/{id}", update)
	r.mux.Delete(pattern+"/{id}", destroy)
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param, like $request->route('id')
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.Server.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler (for testing etc.).
func (r *Router) Handler() http.Handler {
	return r.mux
}
