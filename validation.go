package hxfaces

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Converter turns submitted strings into model values and back.
type Converter interface {
	AsObject(ctx *Context, c Component, s string) (any, error)
	AsString(ctx *Context, c Component, v any) (string, error)
}

// Validator checks a converted value. Return a *ValidatorError to control the
// message shown to the user.
type Validator interface {
	Validate(ctx *Context, c Component, v any) error
}

// ValidatorFunc adapts a function to Validator. Function validators cannot be
// saved with full state saving.
type ValidatorFunc func(ctx *Context, c Component, v any) error

func (f ValidatorFunc) Validate(ctx *Context, c Component, v any) error { return f(ctx, c, v) }

// IntConverter converts between strings and int. Blank input converts to nil.
// Attach it as &IntConverter{} so it survives full state saving.
type IntConverter struct{}

func (IntConverter) AsObject(_ *Context, c Component, s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, &ConverterError{
			Message: ErrorMessage(fmt.Sprintf("%s: %q is not a number", label(c), s), ""),
			Err:     err,
		}
	}
	return n, nil
}

func (IntConverter) AsString(_ *Context, _ Component, v any) (string, error) {
	switch n := v.(type) {
	case nil:
		return "", nil
	case int:
		return strconv.Itoa(n), nil
	case string:
		return n, nil
	}
	return "", fmt.Errorf("hxfaces: IntConverter cannot format %T", v)
}

func (*IntConverter) SaveState(*Context) (any, error)  { return nil, nil }
func (*IntConverter) RestoreState(*Context, any) error { return nil }
func (*IntConverter) Transient() bool                  { return false }

// LengthValidator checks the rune length of string values. A zero Max means
// no upper bound.
type LengthValidator struct {
	Min int
	Max int
}

func (v *LengthValidator) Validate(_ *Context, c Component, value any) error {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	n := utf8.RuneCountInString(s)
	switch {
	case n < v.Min:
		return &ValidatorError{Message: ErrorMessage(
			fmt.Sprintf("%s: must be at least %d characters", label(c), v.Min), "")}
	case v.Max > 0 && n > v.Max:
		return &ValidatorError{Message: ErrorMessage(
			fmt.Sprintf("%s: must be at most %d characters", label(c), v.Max), "")}
	}
	return nil
}

func (v *LengthValidator) SaveState(*Context) (any, error) { return []any{v.Min, v.Max}, nil }

func (v *LengthValidator) RestoreState(_ *Context, state any) error {
	parts, ok := state.([]any)
	if !ok || len(parts) != 2 {
		return fmt.Errorf("%w: length validator state %T", ErrInvalidFormat, state)
	}
	v.Min, _ = parts[0].(int)
	v.Max, _ = parts[1].(int)
	return nil
}

func (v *LengthValidator) Transient() bool { return false }

// label names c in messages: its "label" attribute, else its id.
func label(c Component) string {
	if c == nil {
		return ""
	}
	if l, ok := c.Attr("label").(string); ok && l != "" {
		return l
	}
	return c.ID()
}

func init() {
	RegisterStateHolder("hxfaces.IntConverter", func() StateHolder { return &IntConverter{} })
	RegisterStateHolder("hxfaces.LengthValidator", func() StateHolder { return &LengthValidator{} })
}
