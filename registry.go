package hxfaces

import (
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// Registry serves the views of an application over HTTP. Each view is
// routed at its path under Config.ViewPrefix.
type Registry struct {
	mu    sync.RWMutex
	app   *Application
	mux   *http.ServeMux
	paths map[string]string // map[path]viewID

	// OnError is called when the lifecycle fails.
	// Customize this to handle errors appropriately for your application.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// NewRegistry creates a registry serving the views of app.
func NewRegistry(app *Application) *Registry {
	reg := &Registry{
		app:   app,
		mux:   http.NewServeMux(),
		paths: make(map[string]string),
	}

	// Default error handler
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		switch {
		case IsNotFound(err):
			http.Error(w, "Not found", http.StatusNotFound)
		case IsViewExpired(err):
			http.Error(w, "View expired", http.StatusGone)
		case IsDecryptionError(err):
			http.Error(w, "Bad request", http.StatusBadRequest)
		default:
			Logger().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	}

	return reg
}

// Application returns the application whose views are served.
func (reg *Registry) Application() *Application { return reg.app }

// Add registers the builder of viewID and routes the view's path to it.
// Panics if the view id or its path is already registered.
func (reg *Registry) Add(viewID string, build ViewBuilder) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	path := ViewPath(reg.app.config, viewID)
	if existing, exists := reg.paths[path]; exists {
		panic(fmt.Sprintf("hxfaces: path collision for %q between views %q and %q", path, existing, viewID))
	}
	reg.app.RegisterView(viewID, build)
	reg.paths[path] = viewID

	reg.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		reg.Serve(w, r, viewID)
	})
}

// Paths returns the routed paths and their view ids.
func (reg *Registry) Paths() map[string]string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make(map[string]string, len(reg.paths))
	for p, id := range reg.paths {
		out[p] = id
	}
	return out
}

// Handler returns the HTTP handler for all registered views.
func (reg *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CSRF protection: mutating methods require a header browsers only
		// send from scripts.
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if r.Header.Get("HX-Request") != "true" && r.Header.Get(FacesRequestHeader) == "" {
				http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
				return
			}
		}

		reg.mux.ServeHTTP(w, r)
	})
}

// Serve runs the lifecycle of viewID for one request and writes the
// response.
func (reg *Registry) Serve(w http.ResponseWriter, r *http.Request, viewID string) {
	ctx := NewContext(reg.app, r, viewID)
	lc := reg.app.lifecycle
	err := lc.Execute(ctx)
	if err == nil {
		err = lc.Render(ctx)
	}
	if err != nil {
		reg.OnError(w, r, err)
		return
	}

	if loc := ctx.RedirectLocation(); loc != "" {
		if IsHTMX(r) {
			w.Header().Set("HX-Redirect", loc)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, loc, http.StatusSeeOther)
		return
	}

	for k, vs := range ctx.Header() {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(ctx.Status())
	if r.Method != http.MethodHead {
		w.Write(ctx.out.Bytes())
	}
}
