package hxfaces

import "fmt"

const (
	FamilyOutput = "hxfaces.Output"
	TypeOutput   = "hxfaces.Output"

	propValue     = "value"
	propConverter = "converter"
)

// Output displays a value. The value is either set locally or read from the
// "value" value expression.
type Output struct {
	*Base
}

// NewOutput returns an output rendered as text.
func NewOutput() *Output {
	o := &Output{}
	o.Base = NewBase(o, FamilyOutput, TypeOutput, "hxfaces.Text")
	return o
}

// LocalValue returns the value set on the component, ignoring expressions.
func (o *Output) LocalValue() any { return o.state.Get(propValue) }

// Value returns the local value, or the value of the "value" expression.
func (o *Output) Value(ctx *Context) any { return o.state.Eval(ctx, propValue, nil) }

func (o *Output) SetValue(v any) { o.state.Put(propValue, v) }

func (o *Output) Converter() Converter {
	c, _ := o.state.Get(propConverter).(Converter)
	return c
}

func (o *Output) SetConverter(c Converter) {
	if c == nil {
		o.state.Remove(propConverter)
		return
	}
	o.state.Put(propConverter, c)
}

// ValueString returns the text a renderer shows for c: the submitted value of
// an editable component if there is one, else the value formatted by the
// converter.
func ValueString(ctx *Context, c ValueHolder) string {
	if evh, ok := c.(EditableValueHolder); ok {
		if s, ok := evh.SubmittedValue().(string); ok {
			return s
		}
	}
	v := c.Value(ctx)
	if conv := c.Converter(); conv != nil {
		s, err := conv.AsString(ctx, c, v)
		if err == nil {
			return s
		}
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
