package hxfaces

import "fmt"

// Event is queued on the view root and broadcast to the listeners of its
// source component during the phase it targets.
type Event interface {
	Source() Component
	PhaseID() PhaseID
	SetPhaseID(p PhaseID)
	// IsAppropriateListener reports whether l handles this kind of event.
	IsAppropriateListener(l any) bool
	// ProcessListener delivers the event to l.
	ProcessListener(ctx *Context, l any) error
}

// EventBase carries the source and target phase of an event. Custom events
// embed it.
type EventBase struct {
	source Component
	phase  PhaseID
}

// NewEventBase returns an EventBase targeting AnyPhase.
func NewEventBase(source Component) EventBase {
	return EventBase{source: source, phase: AnyPhase}
}

func (e *EventBase) Source() Component { return e.source }

func (e *EventBase) PhaseID() PhaseID { return e.phase }

func (e *EventBase) SetPhaseID(p PhaseID) { e.phase = p }

// ActionEvent is fired by ActionSource components when they are activated.
type ActionEvent struct {
	EventBase
}

// NewActionEvent creates an action event for source.
func NewActionEvent(source Component) *ActionEvent {
	return &ActionEvent{EventBase: NewEventBase(source)}
}

func (e *ActionEvent) IsAppropriateListener(l any) bool {
	_, ok := l.(ActionListener)
	return ok
}

func (e *ActionEvent) ProcessListener(ctx *Context, l any) error {
	return l.(ActionListener).ProcessAction(ctx, e)
}

// ValueChangeEvent is fired by inputs whose value changed during validation.
type ValueChangeEvent struct {
	EventBase
	OldValue any
	NewValue any
}

// NewValueChangeEvent creates a value change event for source.
func NewValueChangeEvent(source Component, oldValue, newValue any) *ValueChangeEvent {
	return &ValueChangeEvent{EventBase: NewEventBase(source), OldValue: oldValue, NewValue: newValue}
}

func (e *ValueChangeEvent) IsAppropriateListener(l any) bool {
	_, ok := l.(ValueChangeListener)
	return ok
}

func (e *ValueChangeEvent) ProcessListener(ctx *Context, l any) error {
	return l.(ValueChangeListener).ProcessValueChange(ctx, e)
}

// ActionListener handles ActionEvents. Returning an error wrapped by
// AbortProcessing stops the remaining listeners of the event only.
type ActionListener interface {
	ProcessAction(ctx *Context, ev *ActionEvent) error
}

// ActionListenerFunc adapts a function to ActionListener. Function listeners
// cannot be saved with full state saving.
type ActionListenerFunc func(ctx *Context, ev *ActionEvent) error

func (f ActionListenerFunc) ProcessAction(ctx *Context, ev *ActionEvent) error { return f(ctx, ev) }

// ValueChangeListener handles ValueChangeEvents.
type ValueChangeListener interface {
	ProcessValueChange(ctx *Context, ev *ValueChangeEvent) error
}

// ValueChangeListenerFunc adapts a function to ValueChangeListener.
type ValueChangeListenerFunc func(ctx *Context, ev *ValueChangeEvent) error

func (f ValueChangeListenerFunc) ProcessValueChange(ctx *Context, ev *ValueChangeEvent) error {
	return f(ctx, ev)
}

// MethodActionListener invokes a method expression with the event. Unlike
// ActionListenerFunc it survives full state saving when the expression does.
type MethodActionListener struct {
	Method MethodExpression
}

func (l *MethodActionListener) ProcessAction(ctx *Context, ev *ActionEvent) error {
	_, err := l.Method.Invoke(ctx, ev)
	return err
}

func (l *MethodActionListener) SaveState(*Context) (any, error) { return l.Method, nil }

func (l *MethodActionListener) RestoreState(_ *Context, state any) error {
	m, ok := state.(MethodExpression)
	if !ok {
		return fmt.Errorf("%w: action listener state %T", ErrInvalidFormat, state)
	}
	l.Method = m
	return nil
}

func (l *MethodActionListener) Transient() bool { return false }

// MethodValueChangeListener is the ValueChangeListener counterpart of
// MethodActionListener.
type MethodValueChangeListener struct {
	Method MethodExpression
}

func (l *MethodValueChangeListener) ProcessValueChange(ctx *Context, ev *ValueChangeEvent) error {
	_, err := l.Method.Invoke(ctx, ev)
	return err
}

func (l *MethodValueChangeListener) SaveState(*Context) (any, error) { return l.Method, nil }

func (l *MethodValueChangeListener) RestoreState(_ *Context, state any) error {
	m, ok := state.(MethodExpression)
	if !ok {
		return fmt.Errorf("%w: value change listener state %T", ErrInvalidFormat, state)
	}
	l.Method = m
	return nil
}

func (l *MethodValueChangeListener) Transient() bool { return false }

func init() {
	RegisterStateHolder("hxfaces.MethodActionListener", func() StateHolder { return &MethodActionListener{} })
	RegisterStateHolder("hxfaces.MethodValueChangeListener", func() StateHolder { return &MethodValueChangeListener{} })
}
