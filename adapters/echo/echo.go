// Package hxfacesecho mounts an hxfaces view registry on the Echo framework.
//
//	app, _ := hxfaces.NewApplication()
//	html.Install(app)
//	reg := hxfaces.NewRegistry(app)
//	reg.Add("greet", greetView)
//
//	e := echo.New()
//	hxfacesecho.Mount(e, reg, hxfacesecho.WithIndex("greet"))
//
// Or mount on a group with middleware. The application's ViewPrefix must then
// start with the group prefix:
//
//	app, _ := hxfaces.NewApplication(hxfaces.WithConfig(cfg)) // cfg.ViewPrefix = "/app/"
//	g := e.Group("/app", authMiddleware)
//	hxfacesecho.MountGroup(g, reg)
package hxfacesecho

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxfaces"
)

// Option configures Mount and MountGroup.
type Option func(*options)

type options struct {
	path  string
	index string
}

// WithPath sets the route prefix the views are mounted under, relative to
// the group for MountGroup. Defaults to "/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithIndex redirects GET requests for the mount path itself to viewID.
func WithIndex(viewID string) Option {
	return func(o *options) {
		o.index = viewID
	}
}

func newOptions(opts []Option) *options {
	o := &options{path: "/"}
	for _, opt := range opts {
		opt(o)
	}
	if !strings.HasSuffix(o.path, "/") {
		o.path += "/"
	}
	return o
}

// Mount routes every view of reg on e. Views added to reg later are served
// too.
func Mount(e *echo.Echo, reg *hxfaces.Registry, opts ...Option) {
	o := newOptions(opts)
	if o.index != "" {
		e.GET(o.path, indexHandler(reg, o.index))
	}
	e.Any(o.path+"*", echo.WrapHandler(reg.Handler()))
}

// MountGroup routes every view of reg on g, so views share the group's
// middleware (auth, logging, etc.).
func MountGroup(g *echo.Group, reg *hxfaces.Registry, opts ...Option) {
	o := newOptions(opts)
	if o.index != "" {
		g.GET(o.path, indexHandler(reg, o.index))
	}
	g.Any(o.path+"*", echo.WrapHandler(reg.Handler()))
}

func indexHandler(reg *hxfaces.Registry, viewID string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusFound, hxfaces.ViewPath(reg.Application().Config(), viewID))
	}
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return hxfacesecho.Render(c, layout())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
