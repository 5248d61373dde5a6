package hxfaces

import (
	"reflect"

	"go.uber.org/zap"
)

const (
	FamilyInput = "hxfaces.Input"
	TypeInput   = "hxfaces.Input"

	propLocalValueSet = "localValueSet"
	propValid         = "valid"
	propRequired      = "required"
	propImmediate     = "immediate"
	propValidators    = "validators"
)

// Input is an editable value holder. A request moves its value through three
// stages: the submitted string set by Decode, the converted and validated
// local value, and finally the model through the "value" expression.
//
// Immediate inputs convert and validate during ApplyRequestValues instead of
// ProcessValidations.
type Input struct {
	*Output
	submitted any
}

// NewInput returns an input rendered as a text field.
func NewInput() *Input {
	in := &Input{Output: &Output{}}
	in.Base = NewBase(in, FamilyInput, TypeInput, "hxfaces.Text")
	return in
}

// SetValue sets the local value and marks it as set.
func (in *Input) SetValue(v any) {
	in.state.Put(propValue, v)
	in.SetLocalValueSet(true)
}

func (in *Input) SubmittedValue() any { return in.submitted }

func (in *Input) SetSubmittedValue(v any) { in.submitted = v }

func (in *Input) IsLocalValueSet() bool {
	set, _ := in.state.Get(propLocalValueSet).(bool)
	return set
}

func (in *Input) SetLocalValueSet(set bool) {
	if set {
		in.state.Put(propLocalValueSet, true)
	} else {
		in.state.Remove(propLocalValueSet)
	}
}

// Valid reports whether the last conversion and validation succeeded.
func (in *Input) Valid() bool {
	v, ok := in.state.Get(propValid).(bool)
	return !ok || v
}

func (in *Input) SetValid(valid bool) {
	if valid {
		in.state.Remove(propValid)
	} else {
		in.state.Put(propValid, false)
	}
}

func (in *Input) Required(ctx *Context) bool {
	v, _ := in.state.Eval(ctx, propRequired, false).(bool)
	return v
}

func (in *Input) SetRequired(required bool) { in.state.Put(propRequired, required) }

func (in *Input) Immediate(ctx *Context) bool {
	v, _ := in.state.Eval(ctx, propImmediate, false).(bool)
	return v
}

func (in *Input) SetImmediate(immediate bool) { in.state.Put(propImmediate, immediate) }

func (in *Input) AddValidator(v Validator) { in.state.Add(propValidators, v) }

func (in *Input) RemoveValidator(v Validator) { in.state.RemoveValue(propValidators, v) }

func (in *Input) Validators() []Validator {
	items := in.state.List(propValidators)
	out := make([]Validator, 0, len(items))
	for _, item := range items {
		if v, ok := item.(Validator); ok {
			out = append(out, v)
		}
	}
	return out
}

func (in *Input) AddValueChangeListener(l ValueChangeListener) { in.AddListener(l) }

// ResetValue drops the submitted and local values so the model value shows.
func (in *Input) ResetValue() {
	in.submitted = nil
	in.state.Remove(propValue)
	in.SetLocalValueSet(false)
	in.SetValid(true)
}

// Decode marks the input valid again before reading the submitted value.
func (in *Input) Decode(ctx *Context) error {
	in.SetValid(true)
	return in.Base.Decode(ctx)
}

func (in *Input) ProcessDecodes(ctx *Context) error {
	if !in.self.Rendered(ctx) {
		return nil
	}
	if err := in.Base.ProcessDecodes(ctx); err != nil {
		return err
	}
	if in.Immediate(ctx) {
		in.self.PushComponentToEL(ctx)
		defer in.self.PopComponentFromEL(ctx)
		in.executeValidate(ctx)
	}
	return nil
}

func (in *Input) ProcessValidators(ctx *Context) error {
	if !in.self.Rendered(ctx) {
		return nil
	}
	if err := in.Base.ProcessValidators(ctx); err != nil {
		return err
	}
	if !in.Immediate(ctx) {
		in.self.PushComponentToEL(ctx)
		defer in.self.PopComponentFromEL(ctx)
		in.executeValidate(ctx)
	}
	return nil
}

func (in *Input) ProcessUpdates(ctx *Context) error {
	if !in.self.Rendered(ctx) {
		return nil
	}
	if err := in.Base.ProcessUpdates(ctx); err != nil {
		return err
	}
	in.self.PushComponentToEL(ctx)
	defer in.self.PopComponentFromEL(ctx)

	in.UpdateModel(ctx)
	if !in.Valid() {
		ctx.RenderResponse()
	}
	return nil
}

func (in *Input) executeValidate(ctx *Context) {
	in.Validate(ctx)
	if !in.Valid() {
		ctx.ValidationFailed()
		ctx.RenderResponse()
	}
}

// Validate converts the submitted value, checks required and the validators,
// and on success makes it the local value. A changed value queues a
// ValueChangeEvent. Failures add messages and mark the input invalid.
func (in *Input) Validate(ctx *Context) {
	if in.submitted == nil {
		return
	}
	clientID := in.self.ClientID(ctx)

	value, err := in.convertedValue(ctx)
	if err != nil {
		in.SetValid(false)
		msg := ErrorMessage("Conversion error", err.Error())
		if ce, ok := err.(*ConverterError); ok {
			msg = ce.Message
		}
		ctx.AddMessage(clientID, msg)
		return
	}

	in.validateValue(ctx, clientID, value)
	if !in.Valid() {
		return
	}
	previous := in.Value(ctx)
	in.SetValue(value)
	in.submitted = nil
	if changed(previous, value) {
		if err := in.self.QueueEvent(ctx, NewValueChangeEvent(in.self, previous, value)); err != nil {
			ctx.QueueException(err)
		}
	}
}

func (in *Input) convertedValue(ctx *Context) (any, error) {
	if r := in.renderer(ctx); r != nil {
		return r.ConvertedValue(ctx, in.self, in.submitted)
	}
	return ConvertSubmitted(ctx, in.self, in.submitted)
}

func (in *Input) validateValue(ctx *Context, clientID string, value any) {
	if isEmpty(value) {
		if in.Required(ctx) {
			in.SetValid(false)
			ctx.AddMessage(clientID, ErrorMessage(label(in.self)+": Validation Error: Value is required.", ""))
		}
		return
	}
	for _, v := range in.Validators() {
		err := v.Validate(ctx, in.self, value)
		if err == nil {
			continue
		}
		in.SetValid(false)
		msg := ErrorMessage(err.Error(), "")
		if ve, ok := err.(*ValidatorError); ok {
			msg = ve.Message
		}
		ctx.AddMessage(clientID, msg)
	}
}

// UpdateModel pushes a valid local value to the "value" expression and clears
// the local value. A failing expression marks the input invalid.
func (in *Input) UpdateModel(ctx *Context) {
	if !in.Valid() || !in.IsLocalValueSet() {
		return
	}
	ve := in.ValueExpression(propValue)
	if ve == nil {
		return
	}
	if err := ve.SetValue(ctx, in.LocalValue()); err != nil {
		clientID := in.self.ClientID(ctx)
		Logger().Warn("model update failed",
			zap.String("clientId", clientID),
			zap.String("expression", ve.ExpressionString()),
			zap.Error(err))
		ctx.AddMessage(clientID, ErrorMessage("Update model error", err.Error()))
		in.SetValid(false)
		return
	}
	in.state.Remove(propValue)
	in.SetLocalValueSet(false)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func changed(previous, value any) bool {
	if previous == nil {
		return value != nil
	}
	return !reflect.DeepEqual(previous, value)
}
