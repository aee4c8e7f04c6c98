package routing_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/logging"
	"github.com/km-arc/go-container/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func newRouter() *routing.Router {
	return routing.New(container.New())
}

func do(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Verbs(t *testing.T) {
	t.Parallel()
	r := newRouter()
	r.Get("/hello", okHandler)
	r.Post("/users", okHandler)
	r.Put("/users/{id}", okHandler)
	r.Patch("/users/{id}", okHandler)
	r.Delete("/users/{id}", okHandler)

	tests := []struct{ method, path string }{
		{http.MethodGet, "/hello"},
		{http.MethodPost, "/users"},
		{http.MethodPut, "/users/1"},
		{http.MethodPatch, "/users/1"},
		{http.MethodDelete, "/users/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, do(t, r, tt.method, tt.path).Code)
		})
	}
}

func TestRouter_Any(t *testing.T) {
	t.Parallel()
	r := newRouter()
	r.Any("/ping", okHandler)

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		assert.Equal(t, http.StatusOK, do(t, r, method, "/ping").Code, method)
	}
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()
	assert.Equal(t, http.StatusNotFound, do(t, newRouter(), http.MethodGet, "/not-registered").Code)
}

func TestRouter_Param(t *testing.T) {
	t.Parallel()
	r := newRouter()
	r.Get("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(routing.Param(req, "id")))
	})

	rr := do(t, r, http.MethodGet, "/users/42")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", rr.Body.String())
}

// ── Prefix / Group ───────────────────────────────────────────────────────────

func TestRouter_Prefix(t *testing.T) {
	t.Parallel()
	r := newRouter()
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users", okHandler)
	})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/v1/users").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/users").Code)
}

func TestRouter_Group_Middleware(t *testing.T) {
	t.Parallel()
	var called atomic.Bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called.Store(true)
			next.ServeHTTP(w, r)
		})
	}

	r := newRouter()
	r.Group(func(g *routing.Router) {
		g.Middleware(mw)
		g.Get("/protected", okHandler)
	})

	do(t, r, http.MethodGet, "/protected")
	assert.True(t, called.Load())
}

func TestRouter_RecoversPanics(t *testing.T) {
	t.Parallel()
	r := newRouter()
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, do(t, r, http.MethodGet, "/panic").Code)
}

func TestRouter_LogsRequests(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := routing.New(container.New(), routing.WithLogger(logging.New(logging.Options{Output: &buf})))
	r.Get("/hello", okHandler)

	do(t, r, http.MethodGet, "/hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, "/hello", line["path"])
	assert.EqualValues(t, http.StatusOK, line["status"])
	assert.NotEmpty(t, line["request_id"])
}

// ── Resource routes ───────────────────────────────────────────────────────────

type stubController struct{ hits atomic.Int32 }

func (s *stubController) Index(w http.ResponseWriter, r *http.Request)   { s.hit(w, 200) }
func (s *stubController) Store(w http.ResponseWriter, r *http.Request)   { s.hit(w, 201) }
func (s *stubController) Show(w http.ResponseWriter, r *http.Request)    { s.hit(w, 200) }
func (s *stubController) Update(w http.ResponseWriter, r *http.Request)  { s.hit(w, 200) }
func (s *stubController) Destroy(w http.ResponseWriter, r *http.Request) { s.hit(w, 204) }

func (s *stubController) hit(w http.ResponseWriter, status int) {
	s.hits.Add(1)
	w.WriteHeader(status)
}

var resourceCases = []struct {
	method string
	path   string
	want   int
}{
	{"GET", "/photos", 200},
	{"POST", "/photos", 201},
	{"GET", "/photos/1", 200},
	{"PUT", "/photos/1", 200},
	{"PATCH", "/photos/1", 200},
	{"DELETE", "/photos/1", 204},
}

func TestRouter_Resource(t *testing.T) {
	t.Parallel()
	r := newRouter()
	r.Resource("/photos", &stubController{})

	for _, tt := range resourceCases {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, r, tt.method, tt.path).Code)
		})
	}
}

// ── Container-backed routes ──────────────────────────────────────────────────

func TestRouter_ResourceFrom_ResolvesPerRequest(t *testing.T) {
	t.Parallel()
	c := container.New()
	var built atomic.Int32
	c.Bind("PhotoController", func(*container.Container, container.Params) (any, error) {
		built.Add(1)
		return &stubController{}, nil
	})
	r := routing.New(c)
	r.ResourceFrom("/photos", "PhotoController")

	for _, tt := range resourceCases {
		assert.Equal(t, tt.want, do(t, r, tt.method, tt.path).Code, tt.method+" "+tt.path)
	}
	assert.EqualValues(t, len(resourceCases), built.Load())
}

func TestRouter_Handle_SharedHandler(t *testing.T) {
	t.Parallel()
	c := container.New()
	ctrl := &stubController{}
	c.Singleton("IndexHandler", func(*container.Container, container.Params) (any, error) {
		return http.HandlerFunc(ctrl.Index), nil
	})
	r := routing.New(c)
	r.Handle(http.MethodGet, "/", "IndexHandler")

	do(t, r, http.MethodGet, "/")
	do(t, r, http.MethodGet, "/")

	assert.EqualValues(t, 2, ctrl.hits.Load())
}

func TestRouter_Handle_ResolutionFailure(t *testing.T) {
	t.Parallel()
	c := container.New()
	c.Bind("Broken", func(*container.Container, container.Params) (any, error) {
		return nil, errors.New("db down")
	})
	c.Bind("NotAHandler", func(*container.Container, container.Params) (any, error) { return 42, nil })
	r := routing.New(c)
	r.Handle(http.MethodGet, "/broken", "Broken")
	r.Handle(http.MethodGet, "/wrong", "NotAHandler")
	r.Handle(http.MethodGet, "/missing", "Missing")

	for _, path := range []string{"/broken", "/wrong", "/missing"} {
		rr := do(t, r, http.MethodGet, path)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, path)
		assert.JSONEq(t, `{"message":"Server Error."}`, rr.Body.String(), path)
	}
}

// ── Inspector ─────────────────────────────────────────────────────────────────

func TestInspector(t *testing.T) {
	t.Parallel()
	c := container.New()
	c.Singleton("cache", func(*container.Container, container.Params) (any, error) { return "redis", nil })
	c.Bind("mailer", func(*container.Container, container.Params) (any, error) { return "smtp", nil })
	_, err := c.Make("cache")
	require.NoError(t, err)

	r := routing.New(c)
	r.Get("/_container", routing.Inspector(c, func() []string { return []string{"heavy"} }))

	rr := do(t, r, http.MethodGet, "/_container")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var report routing.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, c.ID(), report.ID)
	assert.Equal(t, []routing.Entry{
		{Abstract: "cache", Shared: true, Resolved: true},
		{Abstract: "container", Shared: true, Resolved: true},
		{Abstract: "mailer"},
	}, report.Bindings)
	assert.Equal(t, []string{"heavy"}, report.Deferred)
}
