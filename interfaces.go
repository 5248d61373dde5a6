package hxfaces

// Component is a node of the view tree.
//
// Concrete components embed *Base, which implements every method. Base calls
// overridable methods through the embedding value, so a component overrides a
// lifecycle step simply by declaring the method:
//
//	type Spinner struct {
//	    *hxfaces.Input
//	}
//
//	func (s *Spinner) ProcessValidators(ctx *hxfaces.Context) error {
//	    // custom validation, then the default
//	    return s.Input.ProcessValidators(ctx)
//	}
//
// Capabilities (holding a value, being a naming container, vending unique ids)
// are separate interfaces checked with type assertions, never by concrete type.
type Component interface {
	base() *Base

	ID() string
	SetID(id string) error
	ClientID(ctx *Context) string
	ContainerClientID(ctx *Context) string
	Family() string
	ComponentType() string
	RendererType() string
	SetRendererType(t string)
	Rendered(ctx *Context) bool
	SetRendered(rendered bool)
	Transient() bool
	SetTransient(transient bool)
	InView() bool

	Parent() Component
	Children() *ChildList
	Facets() *FacetMap
	FindComponent(ctx *Context, expr string) (Component, error)

	StateHelper() *StateHelper
	Attr(name string) any
	SetAttr(name string, v any)
	ValueExpression(name string) ValueExpression
	SetValueExpression(name string, ve ValueExpression)
	AddListener(l any)
	RemoveListener(l any)
	Listeners() []any

	Decode(ctx *Context) error
	ProcessDecodes(ctx *Context) error
	ProcessValidators(ctx *Context) error
	ProcessUpdates(ctx *Context) error
	QueueEvent(ctx *Context, ev Event) error
	Broadcast(ctx *Context, ev Event) error

	EncodeBegin(ctx *Context) error
	EncodeChildren(ctx *Context) error
	EncodeEnd(ctx *Context) error
	EncodeAll(ctx *Context) error
	RendersChildren(ctx *Context) bool

	VisitTree(vc *VisitContext, cb VisitCallback) (bool, error)
	InvokeOnComponent(ctx *Context, clientID string, cb ContextCallback) (bool, error)

	SaveState(ctx *Context) (SavedState, error)
	RestoreState(ctx *Context, state SavedState) error
	MarkInitialState()
	ClearInitialState()
	InitialStateMarked() bool

	PushComponentToEL(ctx *Context)
	PopComponentFromEL(ctx *Context)
}

// ValueHolder is implemented by components that display a value.
type ValueHolder interface {
	Component
	LocalValue() any
	Value(ctx *Context) any
	SetValue(v any)
	Converter() Converter
	SetConverter(c Converter)
}

// EditableValueHolder is implemented by components that accept user input.
type EditableValueHolder interface {
	ValueHolder
	SubmittedValue() any
	SetSubmittedValue(v any)
	IsLocalValueSet() bool
	SetLocalValueSet(set bool)
	Valid() bool
	SetValid(valid bool)
	Required(ctx *Context) bool
	Immediate(ctx *Context) bool
	AddValidator(v Validator)
	Validators() []Validator
	AddValueChangeListener(l ValueChangeListener)
	ResetValue()
}

// ActionSource is implemented by components that fire ActionEvents.
type ActionSource interface {
	Component
	Action() MethodExpression
	SetAction(m MethodExpression)
	AddActionListener(l ActionListener)
	ActionListeners() []ActionListener
	Immediate(ctx *Context) bool
}

// NamingContainer is implemented by components that scope the ids of their
// descendants. Embed NamingContainerComponent, Form or Composite to get it.
type NamingContainer interface {
	Component
	namingContainer()
}

// UniqueIDVendor is implemented by components that hand out ids to
// descendants created without one.
type UniqueIDVendor interface {
	Component
	CreateUniqueID(ctx *Context, seed string) string
}

// CompositeComponent marks the boundary of a composite component. The
// component stack tracks the innermost one.
type CompositeComponent interface {
	NamingContainer
	compositeComponent()
}

// IsNamingContainer reports whether c scopes descendant ids.
func IsNamingContainer(c Component) bool {
	_, ok := c.(NamingContainer)
	return ok
}

// IsComposite reports whether c is a composite component boundary.
func IsComposite(c Component) bool {
	_, ok := c.(CompositeComponent)
	return ok
}
