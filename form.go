package hxfaces

const (
	FamilyForm = "hxfaces.Form"
	TypeForm   = "hxfaces.Form"

	propPrependID = "prependId"
)

// formComponent is implemented by forms so decoding can record submission
// without knowing the concrete type.
type formComponent interface {
	Component
	setSubmitted(submitted bool)
	IsSubmitted() bool
}

// Form is a naming container whose subtree is only processed when the request
// submitted it. The submitted flag is request state and never saved.
//
// With PrependID false the form does not add its id to the client ids of its
// descendants, and generated ids come from the enclosing vendor so they stay
// unique in the view.
type Form struct {
	*Base
	submitted bool
}

// NewForm returns a form rendered by the "hxfaces.Form" renderer type.
func NewForm() *Form {
	f := &Form{}
	f.Base = NewBase(f, FamilyForm, TypeForm, "hxfaces.Form")
	return f
}

func (f *Form) namingContainer() {}

func (f *Form) setSubmitted(submitted bool) { f.submitted = submitted }

// IsSubmitted reports whether the current request submitted this form.
func (f *Form) IsSubmitted() bool { return f.submitted }

// SetSubmitted overrides the decoded submitted flag.
func (f *Form) SetSubmitted(submitted bool) { f.submitted = submitted }

// PrependID reports whether descendants are prefixed with the form id.
func (f *Form) PrependID(ctx *Context) bool {
	v, ok := f.state.Eval(ctx, propPrependID, true).(bool)
	return !ok || v
}

func (f *Form) SetPrependID(prepend bool) {
	if prepend {
		f.state.Remove(propPrependID)
	} else {
		f.state.Put(propPrependID, false)
	}
	f.invalidateClientIDs()
}

// ContainerClientID returns the form's client id, or the prefix of the
// enclosing naming container when PrependID is false.
func (f *Form) ContainerClientID(ctx *Context) string {
	if f.PrependID(ctx) {
		return f.self.ClientID(ctx)
	}
	if nc := closestNamingContainer(f.parent); nc != nil {
		return nc.ContainerClientID(ctx)
	}
	return ""
}

// CreateUniqueID implements UniqueIDVendor.
func (f *Form) CreateUniqueID(ctx *Context, seed string) string {
	if !f.PrependID(ctx) {
		return f.ancestorUniqueID(ctx, seed)
	}
	return f.nextUniqueID(seed)
}

// ProcessDecodes decodes the form first and only descends into its subtree
// when it was submitted.
func (f *Form) ProcessDecodes(ctx *Context) error {
	if !f.self.Rendered(ctx) {
		return nil
	}
	f.self.PushComponentToEL(ctx)
	defer f.self.PopComponentFromEL(ctx)

	if err := f.self.Decode(ctx); err != nil {
		ctx.RenderResponse()
		return err
	}
	if !f.submitted {
		return nil
	}
	return f.forEachFacetAndChild(func(c Component) error { return c.ProcessDecodes(ctx) })
}

func (f *Form) ProcessValidators(ctx *Context) error {
	if !f.submitted {
		return nil
	}
	return f.Base.ProcessValidators(ctx)
}

func (f *Form) ProcessUpdates(ctx *Context) error {
	if !f.submitted {
		return nil
	}
	return f.Base.ProcessUpdates(ctx)
}

// VisitTree decodes the form when the visit executes the lifecycle and skips
// the subtree of a form the request did not submit.
func (f *Form) VisitTree(vc *VisitContext, cb VisitCallback) (bool, error) {
	if vc.Has(ExecuteLifecycle) && f.self.Rendered(vc.ctx) {
		if err := f.self.Decode(vc.ctx); err != nil {
			return true, err
		}
		if !f.submitted {
			return false, nil
		}
	}
	return f.Base.VisitTree(vc, cb)
}
