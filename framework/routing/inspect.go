package routing

import (
	"encoding/json"
	"net/http"

	"github.com/km-arc/go-container/framework/container"
)

// Entry describes one abstract in an inspection report.
type Entry struct {
	Abstract string `json:"abstract"`
	Shared   bool   `json:"shared"`
	Resolved bool   `json:"resolved"`
}

// Report is the body served by Inspector.
type Report struct {
	ID       string   `json:"id"`
	Bindings []Entry  `json:"bindings"`
	Deferred []string `json:"deferred,omitempty"`
}

// Inspector serves a JSON report of what app has bound. deferred, when
// not nil, lists abstracts whose providers have not been loaded yet.
//
//	router.Get("/_container", routing.Inspector(app, registry.Deferred))
func Inspector(app *container.Container, deferred func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report := Report{ID: app.ID(), Bindings: []Entry{}}
		for _, abstract := range app.Bindings() {
			report.Bindings = append(report.Bindings, Entry{
				Abstract: abstract,
				Shared:   app.IsShared(abstract),
				Resolved: app.Resolved(abstract),
			})
		}
		if deferred != nil {
			report.Deferred = deferred()
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
