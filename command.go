package hxfaces

const (
	FamilyCommand = "hxfaces.Command"
	TypeCommand   = "hxfaces.Command"

	propAction = "action"
	propLabel  = "label"
)

// Command is an ActionSource: a button or link that fires an ActionEvent when
// the request names it. Its listeners run first, then the application's
// action listener invokes the action and navigates to the outcome.
//
// Immediate commands fire during ApplyRequestValues and skip straight to
// rendering afterwards, so inputs that are not immediate are never
// validated.
type Command struct {
	*Base
}

// NewCommand returns a command rendered as a button.
func NewCommand() *Command {
	c := &Command{}
	c.Base = NewBase(c, FamilyCommand, TypeCommand, "hxfaces.Button")
	return c
}

func (c *Command) Action() MethodExpression {
	m, _ := c.state.Get(propAction).(MethodExpression)
	return m
}

// SetAction sets the method whose result is the navigation outcome. Use
// Outcome for a fixed one.
func (c *Command) SetAction(m MethodExpression) {
	if m == nil {
		c.state.Remove(propAction)
		return
	}
	c.state.Put(propAction, m)
}

func (c *Command) AddActionListener(l ActionListener) { c.AddListener(l) }

func (c *Command) RemoveActionListener(l ActionListener) { c.RemoveListener(l) }

func (c *Command) ActionListeners() []ActionListener {
	var out []ActionListener
	for _, l := range c.Listeners() {
		if al, ok := l.(ActionListener); ok {
			out = append(out, al)
		}
	}
	return out
}

func (c *Command) Immediate(ctx *Context) bool {
	v, _ := c.state.Eval(ctx, propImmediate, false).(bool)
	return v
}

func (c *Command) SetImmediate(immediate bool) { c.state.Put(propImmediate, immediate) }

// Label returns the text of the command.
func (c *Command) Label(ctx *Context) string {
	s, _ := c.state.Eval(ctx, propLabel, "").(string)
	return s
}

func (c *Command) SetLabel(label string) { c.state.Put(propLabel, label) }

// QueueEvent targets the command's own action events at ApplyRequestValues
// when immediate and at InvokeApplication otherwise.
func (c *Command) QueueEvent(ctx *Context, ev Event) error {
	if ae, ok := ev.(*ActionEvent); ok && ae.Source() == c.self {
		if c.Immediate(ctx) {
			ev.SetPhaseID(ApplyRequestValues)
		} else {
			ev.SetPhaseID(InvokeApplication)
		}
	}
	return c.Base.QueueEvent(ctx, ev)
}

// Broadcast runs the attached listeners, then the application's action
// listener for action events.
func (c *Command) Broadcast(ctx *Context, ev Event) error {
	if err := c.Base.Broadcast(ctx, ev); err != nil {
		return err
	}
	ae, ok := ev.(*ActionEvent)
	if !ok {
		return nil
	}
	if ctx.app != nil && ctx.app.actionListener != nil {
		if err := ctx.app.actionListener.ProcessAction(ctx, ae); err != nil {
			return err
		}
	}
	if c.Immediate(ctx) {
		ctx.RenderResponse()
	}
	return nil
}
