package hxfaces

import (
	"fmt"
	"sync"
)

// ValueExpression reads and writes a model value on behalf of a component
// property, typically "value" or "rendered".
type ValueExpression interface {
	Value(ctx *Context) (any, error)
	SetValue(ctx *Context, v any) error
	ReadOnly(ctx *Context) bool
	ExpressionString() string
}

// MethodExpression invokes application logic, such as an action method or a
// before-phase hook.
type MethodExpression interface {
	Invoke(ctx *Context, args ...any) (any, error)
	ExpressionString() string
}

// ValueFunc adapts closures to ValueExpression. A nil Set makes it read-only.
// Closures cannot be serialized, so bind them while building the view and rely
// on partial state saving, or register them and use Value(expr) instead.
type ValueFunc struct {
	Expr string
	Get  func(ctx *Context) (any, error)
	Set  func(ctx *Context, v any) error
}

func (f *ValueFunc) Value(ctx *Context) (any, error) {
	if f.Get == nil {
		return nil, nil
	}
	return f.Get(ctx)
}

func (f *ValueFunc) SetValue(ctx *Context, v any) error {
	if f.Set == nil {
		return fmt.Errorf("%w: %s is read-only", ErrIllegalState, f.ExpressionString())
	}
	return f.Set(ctx, v)
}

func (f *ValueFunc) ReadOnly(*Context) bool { return f.Set == nil }

func (f *ValueFunc) ExpressionString() string {
	if f.Expr == "" {
		return "#{func}"
	}
	return f.Expr
}

// MethodFunc adapts a closure to MethodExpression.
type MethodFunc func(ctx *Context, args ...any) (any, error)

func (f MethodFunc) Invoke(ctx *Context, args ...any) (any, error) { return f(ctx, args...) }

func (f MethodFunc) ExpressionString() string { return "#{func}" }

// Outcome returns a MethodExpression that always yields outcome, the way a
// literal action attribute does.
func Outcome(outcome string) MethodExpression {
	return &namedMethod{expr: outcome, literal: true}
}

// expressions resolves named expressions. It stands in for an expression
// language: state saving stores the name and resolves it again on restore.
type expressions struct {
	mu      sync.RWMutex
	values  map[string]ValueExpression
	methods map[string]MethodExpression
}

func newExpressions() *expressions {
	return &expressions{
		values:  make(map[string]ValueExpression),
		methods: make(map[string]MethodExpression),
	}
}

func (e *expressions) value(expr string) (ValueExpression, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ve, ok := e.values[expr]
	return ve, ok
}

func (e *expressions) method(expr string) (MethodExpression, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	me, ok := e.methods[expr]
	return me, ok
}

// namedValue is a serializable reference to an expression registered with
// Application.RegisterValue.
type namedValue struct {
	expr string
}

// Value returns a serializable ValueExpression that resolves expr through the
// application's registered expressions on every access.
func Value(expr string) ValueExpression {
	return &namedValue{expr: expr}
}

func (n *namedValue) resolve(ctx *Context) (ValueExpression, error) {
	if ctx == nil || ctx.app == nil {
		return nil, illegalState("no application to resolve %s", n.expr)
	}
	ve, ok := ctx.app.exprs.value(n.expr)
	if !ok {
		return nil, fmt.Errorf("hxfaces: unknown value expression %s", n.expr)
	}
	return ve, nil
}

func (n *namedValue) Value(ctx *Context) (any, error) {
	ve, err := n.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return ve.Value(ctx)
}

func (n *namedValue) SetValue(ctx *Context, v any) error {
	ve, err := n.resolve(ctx)
	if err != nil {
		return err
	}
	return ve.SetValue(ctx, v)
}

func (n *namedValue) ReadOnly(ctx *Context) bool {
	ve, err := n.resolve(ctx)
	if err != nil {
		return true
	}
	return ve.ReadOnly(ctx)
}

func (n *namedValue) ExpressionString() string { return n.expr }

func (n *namedValue) SaveState(*Context) (any, error) { return n.expr, nil }

func (n *namedValue) RestoreState(_ *Context, state any) error {
	s, ok := state.(string)
	if !ok {
		return fmt.Errorf("%w: value expression state %T", ErrInvalidFormat, state)
	}
	n.expr = s
	return nil
}

func (n *namedValue) Transient() bool { return false }

// namedMethod is the MethodExpression counterpart of namedValue. Literal
// methods return their expression string as the outcome.
type namedMethod struct {
	expr    string
	literal bool
}

// Method returns a serializable MethodExpression resolved through the
// application's registered methods on every invocation.
func Method(expr string) MethodExpression {
	return &namedMethod{expr: expr}
}

func (n *namedMethod) Invoke(ctx *Context, args ...any) (any, error) {
	if n.literal {
		return n.expr, nil
	}
	if ctx == nil || ctx.app == nil {
		return nil, illegalState("no application to resolve %s", n.expr)
	}
	me, ok := ctx.app.exprs.method(n.expr)
	if !ok {
		return nil, fmt.Errorf("hxfaces: unknown method expression %s", n.expr)
	}
	return me.Invoke(ctx, args...)
}

func (n *namedMethod) ExpressionString() string { return n.expr }

func (n *namedMethod) SaveState(*Context) (any, error) {
	return []any{n.expr, n.literal}, nil
}

func (n *namedMethod) RestoreState(_ *Context, state any) error {
	parts, ok := state.([]any)
	if !ok || len(parts) != 2 {
		return fmt.Errorf("%w: method expression state %T", ErrInvalidFormat, state)
	}
	n.expr, _ = parts[0].(string)
	n.literal, _ = parts[1].(bool)
	return nil
}

func (n *namedMethod) Transient() bool { return false }

func init() {
	RegisterStateHolder("hxfaces.Value", func() StateHolder { return &namedValue{} })
	RegisterStateHolder("hxfaces.Method", func() StateHolder { return &namedMethod{} })
}
