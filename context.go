package hxfaces

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
)

// ViewStateParam is the request parameter carrying the saved view state.
const ViewStateParam = "jakarta.faces.ViewState"

// Context holds everything about the request being processed. It is created
// per request and must not be shared between goroutines.
type Context struct {
	app      *Application
	std      context.Context
	request  *http.Request
	params   url.Values
	header   http.Header
	status   int
	out      *bytes.Buffer
	viewID   string
	viewRoot *ViewRoot
	postback bool
	redirect string
	phase    PhaseID
	token    string

	renderResponse   bool
	responseComplete bool
	validationFailed bool

	messages   []clientMessage
	exceptions []error
	stack      ComponentStack
	phaseRuns  map[phaseRunKey]*phaseRun
	partial    *PartialViewContext
	attrs      map[string]any
}

// NewContext creates the context of one request for the view viewID. A nil
// request is allowed in tests.
func NewContext(app *Application, r *http.Request, viewID string) *Context {
	ctx := &Context{
		app:    app,
		std:    context.Background(),
		params: url.Values{},
		header: make(http.Header),
		status: http.StatusOK,
		out:    &bytes.Buffer{},
		viewID: viewID,
		attrs:  make(map[string]any),
	}
	if r != nil {
		ctx.request = r
		ctx.std = r.Context()
		if err := r.ParseForm(); err == nil {
			ctx.params = r.Form
		}
		ctx.postback = r.Method == http.MethodPost && ctx.params.Get(ViewStateParam) != ""
	}
	ctx.partial = newPartialViewContext(ctx)
	return ctx
}

// Application returns the application processing the request.
func (c *Context) Application() *Application { return c.app }

// RequestContext returns the context.Context of the HTTP request.
func (c *Context) RequestContext() context.Context { return c.std }

// Request returns the HTTP request, or nil.
func (c *Context) Request() *http.Request { return c.request }

// Param returns the first request parameter named name.
func (c *Context) Param(name string) string { return c.params.Get(name) }

// HasParam reports whether the request carries a parameter named name.
func (c *Context) HasParam(name string) bool {
	_, ok := c.params[name]
	return ok
}

// Params returns all request parameters.
func (c *Context) Params() url.Values { return c.params }

// SetParam sets a request parameter. Tests use it to simulate submissions.
func (c *Context) SetParam(name, value string) { c.params.Set(name, value) }

// Writer returns the response body being rendered.
func (c *Context) Writer() io.Writer { return c.out }

// Header returns the response headers.
func (c *Context) Header() http.Header { return c.header }

// SetStatus sets the HTTP status of the response.
func (c *Context) SetStatus(code int) { c.status = code }

func (c *Context) Status() int { return c.status }

// Redirect completes the response with a redirect to location.
func (c *Context) Redirect(location string) {
	c.redirect = location
	c.responseComplete = true
}

// RedirectLocation returns the redirect target, or "".
func (c *Context) RedirectLocation() string { return c.redirect }

func (c *Context) ViewID() string { return c.viewID }

// ViewRoot returns the current view root.
func (c *Context) ViewRoot() *ViewRoot { return c.viewRoot }

// SetViewRoot replaces the current view, as navigation does.
func (c *Context) SetViewRoot(vr *ViewRoot) {
	c.viewRoot = vr
	if vr != nil && vr.ViewID() != "" {
		c.viewID = vr.ViewID()
	}
}

// StateToken returns the view state token written by the last render.
func (c *Context) StateToken() string { return c.token }

// IsPostback reports whether the request submits a previously rendered view.
func (c *Context) IsPostback() bool { return c.postback }

// Phase returns the phase being executed.
func (c *Context) Phase() PhaseID { return c.phase }

// RenderResponse skips the remaining phases up to RenderResponse.
func (c *Context) RenderResponse() { c.renderResponse = true }

// ResponseComplete skips all remaining phases, including rendering.
func (c *Context) ResponseComplete() { c.responseComplete = true }

func (c *Context) IsRenderResponse() bool { return c.renderResponse }

func (c *Context) IsResponseComplete() bool { return c.responseComplete }

// ValidationFailed records that conversion or validation failed.
func (c *Context) ValidationFailed() { c.validationFailed = true }

func (c *Context) IsValidationFailed() bool { return c.validationFailed }

// QueueException records an error for the exception handler that runs after
// the current phase.
func (c *Context) QueueException(err error) {
	if err != nil {
		c.exceptions = append(c.exceptions, err)
	}
}

// Exceptions returns the queued errors.
func (c *Context) Exceptions() []error { return append([]error(nil), c.exceptions...) }

func (c *Context) drainExceptions() []error {
	errs := c.exceptions
	c.exceptions = nil
	return errs
}

// Stack returns the component stack of the request.
func (c *Context) Stack() *ComponentStack { return &c.stack }

// Partial returns the partial request state.
func (c *Context) Partial() *PartialViewContext { return c.partial }

// Attr returns a request-scoped attribute.
func (c *Context) Attr(key string) any { return c.attrs[key] }

// SetAttr sets a request-scoped attribute.
func (c *Context) SetAttr(key string, v any) { c.attrs[key] = v }

// Config returns the application config, or the defaults without one.
func (c *Context) Config() Config {
	if c == nil || c.app == nil {
		return DefaultConfig()
	}
	return c.app.config
}

// Separator returns the naming-container separator.
func (c *Context) Separator() string {
	if c == nil || c.app == nil {
		return DefaultConfig().Separator
	}
	return c.app.config.Separator
}

// phaseRunKey identifies one view's run of a phase.
type phaseRunKey struct {
	root  *Base
	phase PhaseID
}

// phaseRun remembers which before-phase callbacks succeeded so that only
// their after-phase counterparts run. Index 0 is the method expression.
type phaseRun struct {
	listeners []PhaseListener
	ok        []bool
}

func (c *Context) beginPhaseRun(key phaseRunKey, run *phaseRun) {
	if c.phaseRuns == nil {
		c.phaseRuns = make(map[phaseRunKey]*phaseRun)
	}
	c.phaseRuns[key] = run
}

func (c *Context) endPhaseRun(key phaseRunKey) *phaseRun {
	run := c.phaseRuns[key]
	delete(c.phaseRuns, key)
	return run
}
