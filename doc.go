// Package hxfaces is a server-side component framework in the JSF tradition
// for HTMX applications. A page is a tree of stateful components; each
// request restores the tree, runs it through the request lifecycle, renders
// it with templ, and saves its state for the next postback.
//
// # Component Tree
//
// Components embed *Base (or a built-in component that does) and override
// lifecycle steps by declaring the method:
//
//	type Spinner struct {
//	    *hxfaces.Input
//	}
//
//	func NewSpinner() *Spinner {
//	    s := &Spinner{Input: hxfaces.NewInput()}
//	    s.Base = hxfaces.NewBase(s, hxfaces.FamilyInput, "app.Spinner", "hxfaces.Text")
//	    return s
//	}
//
// Children and facets keep parent pointers in sync: adding a component that
// already has a parent moves it. Naming containers (Form, NamingContainer,
// Composite, NamespacedViewRoot) prefix the client ids of their descendants:
//
//	root:form:name
//
// # Lifecycle
//
// Lifecycle.Execute runs RestoreView, ApplyRequestValues,
// ProcessValidations, UpdateModelValues and InvokeApplication; Render runs
// RenderResponse. Any phase may complete the response or skip to rendering.
// Phase listeners registered on the Application or the ViewRoot surround
// each phase; an after callback runs only when its before callback
// succeeded.
//
// Events queued during a phase are broadcast at its end. Listeners may queue
// further events; the queue is drained again until it is empty or
// Config.MaxEventLoops passes are done. Returning AbortProcessing from a
// listener stops the current event only.
//
// # State Saving
//
// With partial state saving (the default) views are rebuilt from their
// ViewBuilder on postback and only changes since the build are saved.
// Without it every component is saved in full and recreated through the
// factories registered with Application.RegisterComponent.
//
// State is stored either in the page (client mode, signed or encrypted with
// Config.StateKey) or in a Store (server mode, in memory or bbolt):
//
//	stateSaving: server
//	serverStatePath: /var/lib/app/views.db
//
// Closures (ValueFunc, MethodFunc, ActionListenerFunc) cannot be saved.
// Bind them in the ViewBuilder so the rebuilt baseline carries them, or
// register named expressions with Application.RegisterValue and use
// Value(expr).
//
// # Partial Requests
//
// HTMX requests carrying jakarta.faces.partial.ajax run only the components
// listed in jakarta.faces.partial.execute and answer with out-of-band swaps
// of those in jakarta.faces.partial.render, plus the updated view state of
// every form. The keywords @all, @this, @form and @none are supported.
// AjaxAttrs builds the hx-post attributes for a command.
//
// Boosted requests are full postbacks.
//
// # Serving
//
// A Registry routes each view at its path under Config.ViewPrefix:
//
//	app, _ := hxfaces.NewApplication()
//	html.Install(app)
//	reg := hxfaces.NewRegistry(app)
//	reg.Add("greet", greetView)
//	http.ListenAndServe(":8080", reg.Handler())
//
// CSRF protection is automatic: mutating methods require the HX-Request
// header HTMX sends, or a Faces-Request header.
//
// # Testing
//
// TestGet, TestPost and NewTestRequest drive a Registry without a server and
// return a TestResult with the markup, messages and the view state token for
// the next postback.
package hxfaces
