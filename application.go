package hxfaces

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pthm/hxfaces/lib/store"
)

// ViewBuilder creates the component tree of a view. It runs for the first
// request of a view and, with partial state saving, again on every postback
// to rebuild the baseline the saved deltas apply to. It must build the same
// tree every time.
type ViewBuilder func(ctx *Context) (*ViewRoot, error)

// NavigationHandler moves the request to the view named by an action outcome.
type NavigationHandler interface {
	HandleNavigation(ctx *Context, fromAction, outcome string) error
}

// ViewScopeProvider supplies view maps from outside the saved state, for
// example from a session store.
type ViewScopeProvider interface {
	ViewMap(ctx *Context, vr *ViewRoot, create bool) map[string]any
}

// Application holds everything shared by the requests of one app: config,
// expressions, renderers, component factories, views and the collaborators
// of the lifecycle. Register everything before serving requests.
type Application struct {
	config    Config
	exprs     *expressions
	renderKit *RenderKit
	encoder   *Encoder
	store     store.Store
	ownsStore bool

	mu        sync.RWMutex
	factories map[string]func() Component
	views     map[string]ViewBuilder

	navigation       NavigationHandler
	actionListener   ActionListener
	phaseListeners   []PhaseListener
	viewScope        ViewScopeProvider
	exceptionHandler ExceptionHandler
	states           *StateManager
	lifecycle        *Lifecycle
}

// NewApplication creates an application with the default config changed by
// opts.
func NewApplication(opts ...Option) (*Application, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		config:           cfg,
		exprs:            newExpressions(),
		renderKit:        NewRenderKit(),
		factories:        make(map[string]func() Component),
		views:            make(map[string]ViewBuilder),
		navigation:       defaultNavigation{},
		exceptionHandler: defaultExceptionHandler{},
	}
	app.actionListener = &defaultActionListener{app: app}
	app.states = &StateManager{app: app}
	app.lifecycle = &Lifecycle{app: app}
	app.registerBuiltins()

	key := []byte(cfg.StateKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("hxfaces: generate state key: %w", err)
		}
		if cfg.StateSaving == StateSavingClient {
			Logger().Warn("no state key configured, client state will not survive a restart")
		}
	}
	enc, err := NewEncoder(key)
	if err != nil {
		return nil, err
	}
	app.encoder = enc

	if cfg.StateSaving == StateSavingServer {
		switch {
		case cfg.Store != nil:
			app.store = cfg.Store
		case cfg.ServerStatePath != "":
			s, err := store.OpenBolt(cfg.ServerStatePath, cfg.ServerStateLimit)
			if err != nil {
				return nil, fmt.Errorf("hxfaces: open state store: %w", err)
			}
			app.store, app.ownsStore = s, true
		default:
			app.store, app.ownsStore = store.NewMemoryStore(cfg.ServerStateLimit), true
		}
	}
	return app, nil
}

// Close releases the state store if the application opened it.
func (a *Application) Close() error {
	if a.ownsStore && a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *Application) registerBuiltins() {
	a.factories[TypeViewRoot] = func() Component { return NewViewRoot() }
	a.factories[TypeNamespaced] = func() Component {
		n, _ := NewNamespacedViewRoot("")
		return n
	}
	a.factories[TypeForm] = func() Component { return NewForm() }
	a.factories[TypeInput] = func() Component { return NewInput() }
	a.factories[TypeOutput] = func() Component { return NewOutput() }
	a.factories[TypeCommand] = func() Component { return NewCommand() }
	a.factories[TypeNamingContainer] = func() Component { return NewNamingContainer() }
	a.factories[TypePanel] = func() Component { return NewPanel() }
}

func (a *Application) Config() Config { return a.config }

// RenderKit returns the renderers of the application.
func (a *Application) RenderKit() *RenderKit { return a.renderKit }

// StateManager returns the component that saves and restores views.
func (a *Application) StateManager() *StateManager { return a.states }

// Lifecycle returns the phase driver.
func (a *Application) Lifecycle() *Lifecycle { return a.lifecycle }

// RegisterValue names a value expression so that Value(expr) resolves to it.
// Panics if expr is already registered.
func (a *Application) RegisterValue(expr string, ve ValueExpression) {
	a.exprs.mu.Lock()
	defer a.exprs.mu.Unlock()
	if _, exists := a.exprs.values[expr]; exists {
		panic(fmt.Sprintf("hxfaces: value expression %s already registered", expr))
	}
	a.exprs.values[expr] = ve
}

// RegisterMethod names a method expression so that Method(expr) resolves to
// it. Panics if expr is already registered.
func (a *Application) RegisterMethod(expr string, me MethodExpression) {
	a.exprs.mu.Lock()
	defer a.exprs.mu.Unlock()
	if _, exists := a.exprs.methods[expr]; exists {
		panic(fmt.Sprintf("hxfaces: method expression %s already registered", expr))
	}
	a.exprs.methods[expr] = me
}

// RegisterComponent makes componentType restorable from saved state. Panics
// if the type is already registered.
func (a *Application) RegisterComponent(componentType string, factory func() Component) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.factories[componentType]; exists {
		panic(fmt.Sprintf("hxfaces: component type %q already registered", componentType))
	}
	a.factories[componentType] = factory
}

// CreateComponent returns a new component of componentType.
func (a *Application) CreateComponent(componentType string) (Component, error) {
	a.mu.RLock()
	factory, ok := a.factories[componentType]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponentType, componentType)
	}
	return factory(), nil
}

// RegisterView registers the builder of viewID. Panics if viewID is already
// registered.
func (a *Application) RegisterView(viewID string, b ViewBuilder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.views[viewID]; exists {
		panic(fmt.Sprintf("hxfaces: view %q already registered", viewID))
	}
	a.views[viewID] = b
}

// ViewIDs returns the registered view ids.
func (a *Application) ViewIDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.views))
	for id := range a.views {
		ids = append(ids, id)
	}
	return ids
}

// CreateView builds a fresh tree for viewID, assigns the generated ids and,
// with partial state saving, marks the initial state.
func (a *Application) CreateView(ctx *Context, viewID string) (*ViewRoot, error) {
	a.mu.RLock()
	build, ok := a.views[viewID]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrViewNotFound, viewID)
	}
	vr, err := build(ctx)
	if err != nil {
		return nil, err
	}
	if vr == nil {
		return nil, illegalState("view builder of %q returned no view", viewID)
	}
	vr.SetViewID(viewID)
	assignIDs(ctx, vr.self)
	if a.config.PartialStateSaving {
		markInitialState(vr.self)
	}
	return vr, nil
}

func (a *Application) SetNavigationHandler(h NavigationHandler) { a.navigation = h }

// SetActionListener replaces the listener that invokes command actions.
func (a *Application) SetActionListener(l ActionListener) { a.actionListener = l }

func (a *Application) SetViewScopeProvider(p ViewScopeProvider) { a.viewScope = p }

func (a *Application) SetExceptionHandler(h ExceptionHandler) { a.exceptionHandler = h }

// AddPhaseListener registers a listener for the phases of every request.
func (a *Application) AddPhaseListener(l PhaseListener) {
	a.phaseListeners = append(a.phaseListeners, l)
}

// assignIDs computes the client id of every component, generating missing
// ids in tree order so that rebuilding a view yields the same ids.
func assignIDs(ctx *Context, c Component) {
	c.ClientID(ctx)
	for _, f := range c.Facets().All() {
		assignIDs(ctx, f)
	}
	for _, child := range c.Children().All() {
		assignIDs(ctx, child)
	}
}

func markInitialState(c Component) {
	c.MarkInitialState()
	for _, f := range c.Facets().All() {
		markInitialState(f)
	}
	for _, child := range c.Children().All() {
		markInitialState(child)
	}
}

// defaultActionListener invokes the action of the event source and navigates
// to its outcome.
type defaultActionListener struct {
	app *Application
}

func (l *defaultActionListener) ProcessAction(ctx *Context, ev *ActionEvent) error {
	src, ok := ev.Source().(ActionSource)
	if !ok {
		return nil
	}
	action := src.Action()
	if action == nil {
		return nil
	}
	res, err := action.Invoke(ctx)
	if err != nil {
		return err
	}
	outcome, _ := res.(string)
	return l.app.navigation.HandleNavigation(ctx, action.ExpressionString(), outcome)
}

// RedirectSuffix on an outcome turns navigation into a redirect.
const RedirectSuffix = "?faces-redirect=true"

// defaultNavigation treats outcomes as view ids. An empty outcome stays on
// the current view.
type defaultNavigation struct{}

func (defaultNavigation) HandleNavigation(ctx *Context, _, outcome string) error {
	if outcome == "" {
		return nil
	}
	viewID, redirect := strings.CutSuffix(outcome, RedirectSuffix)
	if redirect {
		ctx.Redirect(ViewPath(ctx.Config(), viewID))
		return nil
	}
	vr, err := ctx.app.CreateView(ctx, viewID)
	if err != nil {
		return err
	}
	Logger().Debug("navigating",
		zap.String("from", ctx.ViewID()),
		zap.String("to", viewID))
	ctx.SetViewRoot(vr)
	ctx.Partial().SetRenderAll(true)
	ctx.RenderResponse()
	return nil
}

// ViewPath returns the URL path of viewID under the configured prefix.
func ViewPath(cfg Config, viewID string) string {
	prefix := cfg.ViewPrefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + strings.TrimPrefix(viewID, "/")
}
