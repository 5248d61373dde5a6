package hxfaces

import (
	"strconv"
)

// Property keys used in the state helper of every component.
const (
	propRendered     = "rendered"
	propRendererType = "rendererType"
	propAttributes   = "attributes"
	propBindings     = "bindings"
	propListeners    = "listeners"
	propUniqueID     = "uniqueIdCounter"
)

// UniqueIDPrefix starts every generated component id.
const UniqueIDPrefix = "j_id"

// Base implements Component. Concrete components embed *Base and call Init
// with themselves so that Base dispatches overridable steps to them.
type Base struct {
	self          Component
	id            string
	clientID      string
	family        string
	componentType string
	parent        Component
	children      *ChildList
	facets        *FacetMap
	state         *StateHelper
	transient     bool
	inView        bool
}

// NewBase returns a Base bound to self. Use it from constructors of custom
// components:
//
//	func NewBadge() *Badge {
//	    b := &Badge{}
//	    b.Base = hxfaces.NewBase(b, "app.Badge", "app.Badge", "app.Badge")
//	    return b
//	}
func NewBase(self Component, family, componentType, rendererType string) *Base {
	b := &Base{
		self:          self,
		family:        family,
		componentType: componentType,
	}
	b.children = &ChildList{owner: b}
	b.facets = &FacetMap{owner: b, items: make(map[string]Component)}
	b.state = newComponentStateHelper(b)
	if rendererType != "" {
		b.state.Put(propRendererType, rendererType)
	}
	return b
}

func (b *Base) base() *Base { return b }

// ID returns the component id, or "" if none was set or generated yet.
func (b *Base) ID() string { return b.id }

// SetID sets the component id. Ids start with a letter or underscore and
// continue with letters, digits, '-' or '_'. Changing the id invalidates the
// cached client ids of the whole subtree.
func (b *Base) SetID(id string) error {
	if !validID(id) {
		return illegalID(id)
	}
	b.id = id
	b.invalidateClientIDs()
	return nil
}

func illegalID(id string) error {
	if id == "" {
		return ErrInvalidID
	}
	return &invalidIDError{id: id}
}

type invalidIDError struct{ id string }

func (e *invalidIDError) Error() string { return ErrInvalidID.Error() + ": " + strconv.Quote(e.id) }

func (e *invalidIDError) Unwrap() error { return ErrInvalidID }

func validID(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 {
			if !letter && r != '_' {
				return false
			}
			continue
		}
		if !letter && !(r >= '0' && r <= '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// ClientID returns the id qualified by the enclosing naming containers. It is
// computed on first use and cached until the id or an ancestor changes.
// Components without an id receive one from the closest UniqueIDVendor.
func (b *Base) ClientID(ctx *Context) string {
	if b.clientID != "" {
		return b.clientID
	}
	if b.id == "" {
		b.id = b.generateID(ctx)
	}
	clientID := b.id
	if nc := closestNamingContainer(b.parent); nc != nil {
		if prefix := nc.ContainerClientID(ctx); prefix != "" {
			clientID = prefix + ctx.Separator() + b.id
		}
	}
	if r := b.renderer(ctx); r != nil {
		clientID = r.ConvertClientID(ctx, clientID)
	}
	b.clientID = clientID
	return clientID
}

// ContainerClientID is the prefix naming containers hand to their descendants.
func (b *Base) ContainerClientID(ctx *Context) string {
	return b.self.ClientID(ctx)
}

func (b *Base) generateID(ctx *Context) string { return b.ancestorUniqueID(ctx, "") }

// ancestorUniqueID asks the closest UniqueIDVendor above b for an id.
func (b *Base) ancestorUniqueID(ctx *Context, seed string) string {
	for p := b.parent; p != nil; p = p.Parent() {
		if v, ok := p.(UniqueIDVendor); ok {
			return v.CreateUniqueID(ctx, seed)
		}
	}
	if ctx != nil && ctx.ViewRoot() != nil && ctx.ViewRoot().Base != b {
		return ctx.ViewRoot().CreateUniqueID(ctx, seed)
	}
	// Detached subtree: the top node keeps the counter.
	top := b
	for p := b.parent; p != nil; p = p.Parent() {
		top = p.base()
	}
	return top.nextUniqueID(seed)
}

// nextUniqueID implements UniqueIDVendor for components that embed Base.
func (b *Base) nextUniqueID(seed string) string {
	if seed != "" {
		return UniqueIDPrefix + seed
	}
	n, _ := b.state.Get(propUniqueID).(int)
	b.state.Put(propUniqueID, n+1)
	return UniqueIDPrefix + strconv.Itoa(n)
}

func (b *Base) invalidateClientIDs() {
	b.clientID = ""
	for _, c := range b.facets.All() {
		c.base().invalidateClientIDs()
	}
	for _, c := range b.children.items {
		c.base().invalidateClientIDs()
	}
}

func closestNamingContainer(c Component) NamingContainer {
	for ; c != nil; c = c.Parent() {
		if nc, ok := c.(NamingContainer); ok {
			return nc
		}
	}
	return nil
}

// Family groups components that share renderers.
func (b *Base) Family() string { return b.family }

// ComponentType is the name the component is registered under for state
// restoration.
func (b *Base) ComponentType() string { return b.componentType }

func (b *Base) RendererType() string {
	t, _ := b.state.Get(propRendererType).(string)
	return t
}

func (b *Base) SetRendererType(t string) {
	if t == "" {
		b.state.Remove(propRendererType)
		return
	}
	b.state.Put(propRendererType, t)
}

// Rendered reports whether the component takes part in processing and
// rendering. It honors a "rendered" value expression when ctx is not nil.
func (b *Base) Rendered(ctx *Context) bool {
	v, ok := b.state.Eval(ctx, propRendered, true).(bool)
	return !ok || v
}

func (b *Base) SetRendered(rendered bool) {
	if rendered {
		b.state.Remove(propRendered)
		return
	}
	b.state.Put(propRendered, false)
}

// Transient components are skipped by state saving.
func (b *Base) Transient() bool { return b.transient }

func (b *Base) SetTransient(transient bool) { b.transient = transient }

// InView reports whether the component is attached under a view root.
func (b *Base) InView() bool { return b.inView }

func (b *Base) setInView(in bool) {
	b.inView = in
	for _, c := range b.facets.All() {
		c.base().setInView(in)
	}
	for _, c := range b.children.items {
		c.base().setInView(in)
	}
}

func (b *Base) Parent() Component { return b.parent }

func (b *Base) Children() *ChildList { return b.children }

func (b *Base) Facets() *FacetMap { return b.facets }

func (b *Base) StateHelper() *StateHelper { return b.state }

// Attr returns a custom attribute.
func (b *Base) Attr(name string) any { return b.state.Entry(propAttributes, name) }

// SetAttr sets a custom attribute; nil removes it.
func (b *Base) SetAttr(name string, v any) {
	if v == nil {
		b.state.RemoveValue(propAttributes, name)
		return
	}
	b.state.PutEntry(propAttributes, name, v)
}

// Attrs returns a copy of all custom attributes.
func (b *Base) Attrs() map[string]any { return b.state.Entries(propAttributes) }

// RemoveAttr removes a custom attribute and returns its value.
func (b *Base) RemoveAttr(name string) any { return b.state.RemoveValue(propAttributes, name) }

func (b *Base) ValueExpression(name string) ValueExpression {
	ve, _ := b.state.Entry(propBindings, name).(ValueExpression)
	return ve
}

func (b *Base) SetValueExpression(name string, ve ValueExpression) {
	if ve == nil {
		b.state.RemoveValue(propBindings, name)
		return
	}
	b.state.PutEntry(propBindings, name, ve)
}

func (b *Base) AddListener(l any) { b.state.Add(propListeners, l) }

func (b *Base) RemoveListener(l any) { b.state.RemoveValue(propListeners, l) }

func (b *Base) Listeners() []any { return b.state.List(propListeners) }

func (b *Base) renderer(ctx *Context) Renderer {
	if ctx == nil || ctx.app == nil {
		return nil
	}
	t := b.RendererType()
	if t == "" {
		return nil
	}
	return ctx.app.renderKit.Renderer(b.family, t)
}

// Decode reads request values through the component's renderer, or with
// DecodeComponent when it has none.
func (b *Base) Decode(ctx *Context) error {
	if r := b.renderer(ctx); r != nil {
		return r.Decode(ctx, b.self)
	}
	return DecodeComponent(ctx, b.self)
}

// ProcessDecodes runs the apply-request-values phase for the subtree: facets
// and children first, then the component's own Decode.
func (b *Base) ProcessDecodes(ctx *Context) error {
	if !b.self.Rendered(ctx) {
		return nil
	}
	b.self.PushComponentToEL(ctx)
	defer b.self.PopComponentFromEL(ctx)

	if err := b.forEachFacetAndChild(func(c Component) error { return c.ProcessDecodes(ctx) }); err != nil {
		return err
	}
	if err := b.self.Decode(ctx); err != nil {
		ctx.RenderResponse()
		return err
	}
	return nil
}

func (b *Base) ProcessValidators(ctx *Context) error {
	if !b.self.Rendered(ctx) {
		return nil
	}
	b.self.PushComponentToEL(ctx)
	defer b.self.PopComponentFromEL(ctx)

	return b.forEachFacetAndChild(func(c Component) error { return c.ProcessValidators(ctx) })
}

func (b *Base) ProcessUpdates(ctx *Context) error {
	if !b.self.Rendered(ctx) {
		return nil
	}
	b.self.PushComponentToEL(ctx)
	defer b.self.PopComponentFromEL(ctx)

	return b.forEachFacetAndChild(func(c Component) error { return c.ProcessUpdates(ctx) })
}

// forEachFacetAndChild iterates over a snapshot so callbacks may restructure
// the tree.
func (b *Base) forEachFacetAndChild(fn func(Component) error) error {
	for _, c := range b.facets.All() {
		if err := fn(c); err != nil {
			return err
		}
	}
	for _, c := range b.children.All() {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// QueueEvent hands the event to the parent; the view root keeps the queue.
func (b *Base) QueueEvent(ctx *Context, ev Event) error {
	if ev == nil {
		return illegalState("nil event")
	}
	if b.parent == nil {
		return illegalState("component %q is not attached to a view", b.id)
	}
	return b.parent.QueueEvent(ctx, ev)
}

// Broadcast delivers ev to the attached listeners that accept it. A listener
// returning an error stops the remaining listeners of this event.
func (b *Base) Broadcast(ctx *Context, ev Event) error {
	if ev == nil {
		return illegalState("nil event")
	}
	for _, l := range b.Listeners() {
		if !ev.IsAppropriateListener(l) {
			continue
		}
		if err := ev.ProcessListener(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (b *Base) EncodeBegin(ctx *Context) error {
	if !b.self.Rendered(ctx) {
		return nil
	}
	if r := b.renderer(ctx); r != nil {
		return r.EncodeBegin(ctx, b.self)
	}
	return nil
}

func (b *Base) EncodeChildren(ctx *Context) error {
	if !b.self.Rendered(ctx) {
		return nil
	}
	if r := b.renderer(ctx); r != nil {
		return r.EncodeChildren(ctx, b.self)
	}
	for _, c := range b.children.All() {
		if err := c.EncodeAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *Base) EncodeEnd(ctx *Context) error {
	if !b.self.Rendered(ctx) {
		return nil
	}
	if r := b.renderer(ctx); r != nil {
		return r.EncodeEnd(ctx, b.self)
	}
	return nil
}

// RendersChildren reports whether EncodeChildren writes the children, as
// opposed to EncodeAll walking them.
func (b *Base) RendersChildren(ctx *Context) bool {
	if r := b.renderer(ctx); r != nil {
		return r.RendersChildren()
	}
	return false
}

// EncodeAll renders the component and its subtree.
func (b *Base) EncodeAll(ctx *Context) error {
	if !b.self.Rendered(ctx) {
		return nil
	}
	b.self.PushComponentToEL(ctx)
	defer b.self.PopComponentFromEL(ctx)

	if err := b.self.EncodeBegin(ctx); err != nil {
		return err
	}
	if b.self.RendersChildren(ctx) {
		if err := b.self.EncodeChildren(ctx); err != nil {
			return err
		}
	} else {
		for _, c := range b.children.All() {
			if err := c.EncodeAll(ctx); err != nil {
				return err
			}
		}
	}
	return b.self.EncodeEnd(ctx)
}

func (b *Base) SaveState(ctx *Context) (SavedState, error) {
	return b.state.SaveState(ctx)
}

func (b *Base) RestoreState(ctx *Context, state SavedState) error {
	if err := b.state.RestoreState(ctx, state); err != nil {
		return err
	}
	b.invalidateClientIDs()
	return nil
}

func (b *Base) MarkInitialState() { b.state.MarkInitialState() }

func (b *Base) ClearInitialState() { b.state.ClearInitialState() }

func (b *Base) InitialStateMarked() bool { return b.state.InitialStateMarked() }

// PushComponentToEL makes the component the current one for expression
// evaluation. Every push is paired with PopComponentFromEL, usually deferred.
func (b *Base) PushComponentToEL(ctx *Context) {
	if ctx == nil {
		return
	}
	ctx.stack.Push(b.self)
}

func (b *Base) PopComponentFromEL(ctx *Context) {
	if ctx == nil {
		return
	}
	ctx.stack.Pop(b.self)
}

// CurrentComponent returns the component on top of the request's stack.
func CurrentComponent(ctx *Context) Component {
	return ctx.stack.Current()
}

// CompositeParent returns the closest composite component enclosing c, or nil.
func CompositeParent(c Component) Component {
	if c == nil {
		return nil
	}
	for p := c.Parent(); p != nil; p = p.Parent() {
		if IsComposite(p) {
			return p
		}
	}
	return nil
}
