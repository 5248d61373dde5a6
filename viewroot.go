package hxfaces

import (
	"go.uber.org/zap"
)

const (
	propViewID         = "viewId"
	propLocale         = "locale"
	propPhaseListeners = "phaseListeners"
	propBeforePhase    = "beforePhase"
	propAfterPhase     = "afterPhase"
)

// Component families and types of the built-in components.
const (
	FamilyViewRoot = "hxfaces.ViewRoot"
	TypeViewRoot   = "hxfaces.ViewRoot"
	TypeNamespaced = "hxfaces.NamespacedViewRoot"
)

// ViewRoot is the root of a component tree. It owns the event queue, the
// view map and the phase listeners of the view, and drives the phases over
// its subtree.
type ViewRoot struct {
	*Base
	events  []Event
	viewMap map[string]any
}

// NewViewRoot returns an empty view root.
func NewViewRoot() *ViewRoot {
	vr := &ViewRoot{}
	vr.Base = NewBase(vr, FamilyViewRoot, TypeViewRoot, "")
	vr.inView = true
	return vr
}

// NamespacedViewRoot is a view root that is also a naming container, so every
// client id in the view starts with the root id. It lets several views share
// one page.
type NamespacedViewRoot struct {
	*ViewRoot
}

// NewNamespacedViewRoot returns a view root prefixing client ids with ns.
func NewNamespacedViewRoot(ns string) (*NamespacedViewRoot, error) {
	n := &NamespacedViewRoot{ViewRoot: &ViewRoot{}}
	n.Base = NewBase(n, FamilyViewRoot, TypeNamespaced, "")
	n.inView = true
	if ns != "" {
		if err := n.SetID(ns); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *NamespacedViewRoot) namingContainer() {}

func (vr *ViewRoot) viewRoot() *ViewRoot { return vr }

// RootOf returns the *ViewRoot of c if c is a view root of any kind.
func RootOf(c Component) (*ViewRoot, bool) {
	r, ok := c.(interface{ viewRoot() *ViewRoot })
	if !ok {
		return nil, false
	}
	return r.viewRoot(), true
}

// InView is always true for the root.
func (vr *ViewRoot) InView() bool { return true }

func (vr *ViewRoot) ViewID() string {
	id, _ := vr.state.Get(propViewID).(string)
	return id
}

func (vr *ViewRoot) SetViewID(id string) { vr.state.Put(propViewID, id) }

// Locale returns the view locale, "en" unless set.
func (vr *ViewRoot) Locale() string {
	l, _ := vr.state.Get(propLocale).(string)
	if l == "" {
		return "en"
	}
	return l
}

func (vr *ViewRoot) SetLocale(l string) { vr.state.Put(propLocale, l) }

// CreateUniqueID hands out ids for components created without one.
func (vr *ViewRoot) CreateUniqueID(_ *Context, seed string) string {
	return vr.nextUniqueID(seed)
}

// ViewMap returns the view-scoped map. With create false it returns nil
// when the map does not exist yet. When the application has a
// ViewScopeProvider the map comes from there.
func (vr *ViewRoot) ViewMap(ctx *Context, create bool) map[string]any {
	if ctx != nil && ctx.app != nil && ctx.app.viewScope != nil {
		return ctx.app.viewScope.ViewMap(ctx, vr, create)
	}
	if vr.viewMap == nil && create {
		vr.viewMap = make(map[string]any)
	}
	return vr.viewMap
}

// AddPhaseListener registers a listener for the phases of this view.
func (vr *ViewRoot) AddPhaseListener(l PhaseListener) { vr.state.Add(propPhaseListeners, l) }

// RemovePhaseListener unregisters l.
func (vr *ViewRoot) RemovePhaseListener(l PhaseListener) {
	vr.state.RemoveValue(propPhaseListeners, l)
}

// PhaseListeners returns the listeners registered on this view.
func (vr *ViewRoot) PhaseListeners() []PhaseListener {
	items := vr.state.List(propPhaseListeners)
	out := make([]PhaseListener, 0, len(items))
	for _, item := range items {
		if l, ok := item.(PhaseListener); ok {
			out = append(out, l)
		}
	}
	return out
}

// SetBeforePhaseListener sets a method invoked with a PhaseEvent before every
// phase except RestoreView.
func (vr *ViewRoot) SetBeforePhaseListener(m MethodExpression) { vr.putMethod(propBeforePhase, m) }

// SetAfterPhaseListener sets a method invoked after every phase except
// RestoreView.
func (vr *ViewRoot) SetAfterPhaseListener(m MethodExpression) { vr.putMethod(propAfterPhase, m) }

func (vr *ViewRoot) putMethod(key string, m MethodExpression) {
	if m == nil {
		vr.state.Remove(key)
		return
	}
	vr.state.Put(key, m)
}

func (vr *ViewRoot) method(key string) MethodExpression {
	m, _ := vr.state.Get(key).(MethodExpression)
	return m
}

// QueueEvent stores ev until the phase it targets broadcasts.
func (vr *ViewRoot) QueueEvent(_ *Context, ev Event) error {
	if ev == nil {
		return illegalState("nil event")
	}
	vr.events = append(vr.events, ev)
	return nil
}

// PendingEvents returns the number of queued events.
func (vr *ViewRoot) PendingEvents() int { return len(vr.events) }

func (vr *ViewRoot) clearEvents() { vr.events = nil }

// takeEvents removes and returns the events for phase, AnyPhase events first.
func (vr *ViewRoot) takeEvents(phase PhaseID) []Event {
	var anyPhase, onPhase, rest []Event
	for _, ev := range vr.events {
		switch ev.PhaseID() {
		case AnyPhase:
			anyPhase = append(anyPhase, ev)
		case phase:
			onPhase = append(onPhase, ev)
		default:
			rest = append(rest, ev)
		}
	}
	vr.events = rest
	return append(anyPhase, onPhase...)
}

// BroadcastEvents delivers the events queued for phase. Listeners may queue
// more events, which are delivered in the same call; after
// Config.MaxEventLoops rounds the leftovers are dropped with a warning.
//
// Errors matching ErrAbortProcessing stop only the listeners of their event
// and are queued on the context. Any other error ends the broadcast and is
// returned.
func (vr *ViewRoot) BroadcastEvents(ctx *Context, phase PhaseID) error {
	maxLoops := ctx.Config().MaxEventLoops
	for loops := 0; ; loops++ {
		batch := vr.takeEvents(phase)
		if len(batch) == 0 {
			return nil
		}
		if loops >= maxLoops {
			ids := make([]string, len(batch))
			for i, ev := range batch {
				ids[i] = ev.Source().ClientID(ctx)
			}
			Logger().Warn("event broadcast exceeded the loop limit, dropping events",
				zap.String("phase", phase.String()),
				zap.Int("maxLoops", maxLoops),
				zap.Strings("clientIds", ids))
			return nil
		}
		for _, ev := range batch {
			if err := broadcastEvent(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func broadcastEvent(ctx *Context, ev Event) error {
	src := ev.Source()
	if cc := CompositeParent(src); cc != nil {
		cc.PushComponentToEL(ctx)
		defer cc.PopComponentFromEL(ctx)
	}
	src.PushComponentToEL(ctx)
	defer src.PopComponentFromEL(ctx)

	err := src.Broadcast(ctx, ev)
	if err == nil {
		return nil
	}
	if IsAbortProcessing(err) {
		ctx.QueueException(err)
		return nil
	}
	return err
}

// process runs one phase of the view: before listeners, the body unless the
// phase is skipped, the event broadcast, and the after listeners. The after
// listeners run even when the body fails; its error is returned afterwards.
func (vr *ViewRoot) process(ctx *Context, phase PhaseID, body func() error) error {
	var err error
	if !vr.notifyBefore(ctx, phase) {
		if body != nil {
			err = body()
		}
		if err == nil {
			err = vr.BroadcastEvents(ctx, phase)
		}
	}
	if ctx.renderResponse || ctx.responseComplete {
		vr.clearEvents()
	}
	if afterErr := vr.notifyAfter(ctx, phase); err == nil {
		err = afterErr
	}
	return err
}

// notifyBefore runs the before-phase method and listeners and reports
// whether the phase body must be skipped.
func (vr *ViewRoot) notifyBefore(ctx *Context, phase PhaseID) bool {
	ev := PhaseEvent{Context: ctx, Phase: phase}
	run := &phaseRun{}
	for _, l := range vr.PhaseListeners() {
		if listensTo(l, phase) {
			run.listeners = append(run.listeners, l)
		}
	}
	run.ok = make([]bool, len(run.listeners)+1)

	run.ok[0] = true
	if m := vr.method(propBeforePhase); m != nil {
		if _, err := m.Invoke(ctx, ev); err != nil {
			run.ok[0] = false
			vr.listenerFailed(ctx, phase, err)
		}
	}
	for i, l := range run.listeners {
		if err := l.BeforePhase(ev); err != nil {
			vr.listenerFailed(ctx, phase, err)
			continue
		}
		run.ok[i+1] = true
	}
	ctx.beginPhaseRun(phaseRunKey{vr.Base, phase}, run)

	return ctx.responseComplete || (ctx.renderResponse && phase != RenderResponse)
}

// notifyAfter runs the after-phase callbacks whose before counterparts
// succeeded, in reverse order. A listener removed during the phase gets no
// after callback and makes the phase fail with ErrIllegalState once the
// remaining callbacks ran.
func (vr *ViewRoot) notifyAfter(ctx *Context, phase PhaseID) error {
	run := ctx.endPhaseRun(phaseRunKey{vr.Base, phase})
	if run == nil {
		return nil
	}

	var fault error
	current := vr.PhaseListeners()
	ev := PhaseEvent{Context: ctx, Phase: phase}
	for i := len(run.listeners) - 1; i >= 0; i-- {
		l := run.listeners[i]
		if !containsListener(current, l) {
			if fault == nil {
				fault = illegalState("phase listener removed during %s", phase)
			}
			continue
		}
		if !run.ok[i+1] {
			continue
		}
		if err := l.AfterPhase(ev); err != nil {
			vr.listenerFailed(ctx, phase, err)
		}
	}
	if m := vr.method(propAfterPhase); m != nil && run.ok[0] {
		if _, err := m.Invoke(ctx, ev); err != nil {
			vr.listenerFailed(ctx, phase, err)
		}
	}
	return fault
}

func (vr *ViewRoot) listenerFailed(ctx *Context, phase PhaseID, err error) {
	Logger().Error("phase listener failed", zap.String("phase", phase.String()), zap.Error(err))
	ctx.QueueException(err)
}

func containsListener(ls []PhaseListener, l PhaseListener) bool {
	for _, x := range ls {
		if sameValue(x, l) {
			return true
		}
	}
	return false
}

// ProcessDecodes runs ApplyRequestValues over the view, or over the execute
// ids of a partial request.
func (vr *ViewRoot) ProcessDecodes(ctx *Context) error {
	return vr.process(ctx, ApplyRequestValues, func() error {
		if ctx.partial.executesPartially() {
			return ctx.partial.ProcessPartial(ApplyRequestValues)
		}
		return vr.Base.ProcessDecodes(ctx)
	})
}

// ProcessValidators runs ProcessValidations.
func (vr *ViewRoot) ProcessValidators(ctx *Context) error {
	return vr.process(ctx, ProcessValidations, func() error {
		if ctx.partial.executesPartially() {
			return ctx.partial.ProcessPartial(ProcessValidations)
		}
		return vr.Base.ProcessValidators(ctx)
	})
}

// ProcessUpdates runs UpdateModelValues.
func (vr *ViewRoot) ProcessUpdates(ctx *Context) error {
	return vr.process(ctx, UpdateModelValues, func() error {
		if ctx.partial.executesPartially() {
			return ctx.partial.ProcessPartial(UpdateModelValues)
		}
		return vr.Base.ProcessUpdates(ctx)
	})
}

// ProcessApplication runs InvokeApplication, which only broadcasts events.
func (vr *ViewRoot) ProcessApplication(ctx *Context) error {
	return vr.process(ctx, InvokeApplication, nil)
}

// EncodeBegin starts RenderResponse: before listeners and render-phase
// events. A skipped render suppresses all output of the view.
func (vr *ViewRoot) EncodeBegin(ctx *Context) error {
	if vr.notifyBefore(ctx, RenderResponse) {
		ctx.SetAttr(attrRenderSkipped, vr.Base)
		return nil
	}
	if err := vr.BroadcastEvents(ctx, RenderResponse); err != nil {
		return err
	}
	if ctx.partial.rendersPartially() {
		return nil
	}
	return vr.Base.EncodeBegin(ctx)
}

const attrRenderSkipped = "hxfaces.renderSkipped"

func (vr *ViewRoot) renderSkipped(ctx *Context) bool {
	return ctx.Attr(attrRenderSkipped) == vr.Base
}

// EncodeChildren renders the children, or only the render ids of a partial
// request.
func (vr *ViewRoot) EncodeChildren(ctx *Context) error {
	if vr.renderSkipped(ctx) {
		return nil
	}
	if ctx.partial.rendersPartially() {
		return ctx.partial.ProcessPartial(RenderResponse)
	}
	for _, c := range vr.children.All() {
		if err := c.EncodeAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EncodeEnd finishes the markup and runs the after listeners.
func (vr *ViewRoot) EncodeEnd(ctx *Context) error {
	var err error
	if !vr.renderSkipped(ctx) && !ctx.partial.rendersPartially() {
		err = vr.Base.EncodeEnd(ctx)
	}
	delete(ctx.attrs, attrRenderSkipped)
	if afterErr := vr.notifyAfter(ctx, RenderResponse); err == nil {
		err = afterErr
	}
	return err
}

func (vr *ViewRoot) RendersChildren(*Context) bool { return true }

// EncodeAll renders the view. EncodeEnd, and with it the after listeners,
// runs even when an earlier step fails.
func (vr *ViewRoot) EncodeAll(ctx *Context) error {
	vr.self.PushComponentToEL(ctx)
	defer vr.self.PopComponentFromEL(ctx)

	err := vr.self.EncodeBegin(ctx)
	if err == nil {
		err = vr.self.EncodeChildren(ctx)
	}
	if endErr := vr.self.EncodeEnd(ctx); err == nil {
		err = endErr
	}
	return err
}

// ResetValues clears the submitted and local values of the editable
// components with the given client ids so they show model values again.
func (vr *ViewRoot) ResetValues(ctx *Context, clientIDs ...string) error {
	vc := NewPartialVisitContext(ctx, clientIDs, 0)
	_, err := vr.self.VisitTree(vc, func(_ *VisitContext, c Component) (VisitResult, error) {
		if evh, ok := c.(EditableValueHolder); ok {
			evh.ResetValue()
		}
		return VisitAccept, nil
	})
	return err
}
