package main

import (
	"github.com/pthm/hxfaces"
	"github.com/pthm/hxfaces/lib/html"
)

func registerDemoViews(reg *hxfaces.Registry) {
	reg.Add("greet", greetView)
	reg.Add("counter", counterView)
}

// greetView asks for a name and age and greets on submit. The age field
// shows conversion and validation failures.
func greetView(ctx *hxfaces.Context) (*hxfaces.ViewRoot, error) {
	page := html.NewPage("Greeting")

	form := hxfaces.NewForm()
	if err := form.SetID("greet"); err != nil {
		return nil, err
	}

	name := hxfaces.NewInput()
	if err := name.SetID("name"); err != nil {
		return nil, err
	}
	name.SetAttr("label", "Name")
	name.SetRequired(true)
	name.AddValidator(&hxfaces.LengthValidator{Min: 2, Max: 40})
	name.SetValueExpression("value", viewValue("name"))

	age := hxfaces.NewInput()
	if err := age.SetID("age"); err != nil {
		return nil, err
	}
	age.SetAttr("label", "Age")
	age.SetConverter(&hxfaces.IntConverter{})
	age.SetValueExpression("value", viewValue("age"))

	send := hxfaces.NewCommand()
	if err := send.SetID("send"); err != nil {
		return nil, err
	}
	send.SetLabel("Greet")
	send.SetAttr("execute", "@form")
	send.SetAttr("render", "@form msgs")
	send.SetAction(hxfaces.MethodFunc(func(ctx *hxfaces.Context, _ ...any) (any, error) {
		vm := ctx.ViewRoot().ViewMap(ctx, true)
		name, _ := vm["name"].(string)
		greeting := "Hello, " + name
		if age, ok := vm["age"].(int); ok {
			greeting += ", " + agePhrase(age)
		}
		vm["greeting"] = greeting
		ctx.AddMessage("", hxfaces.Message{Severity: hxfaces.SeverityInfo, Summary: "Greeted " + name})
		return "", nil
	}))

	out := hxfaces.NewOutput()
	if err := out.SetID("greeting"); err != nil {
		return nil, err
	}
	out.SetValueExpression("value", viewValue("greeting"))

	msgs := html.NewMessages()
	if err := msgs.SetID("msgs"); err != nil {
		return nil, err
	}

	form.Children().Add(name, age, send, out)
	page.Children().Add(form, msgs)
	return page, nil
}

func agePhrase(age int) string {
	switch {
	case age < 18:
		return "young one"
	case age >= 65:
		return "wise one"
	}
	return "friend"
}

// counterView counts clicks in the view map. Each button re-renders only the
// count.
func counterView(ctx *hxfaces.Context) (*hxfaces.ViewRoot, error) {
	page := html.NewPage("Counter")

	form := hxfaces.NewForm()
	if err := form.SetID("counter"); err != nil {
		return nil, err
	}

	count := hxfaces.NewOutput()
	if err := count.SetID("count"); err != nil {
		return nil, err
	}
	count.SetValueExpression("value", &hxfaces.ValueFunc{
		Expr: "#{view.count}",
		Get: func(ctx *hxfaces.Context) (any, error) {
			n, _ := ctx.ViewRoot().ViewMap(ctx, true)["count"].(int)
			return n, nil
		},
	})

	form.Children().Add(count)
	for _, step := range []struct {
		id    string
		label string
		delta int
	}{
		{"dec", "-1", -1},
		{"inc", "+1", 1},
	} {
		btn := hxfaces.NewCommand()
		if err := btn.SetID(step.id); err != nil {
			return nil, err
		}
		btn.SetLabel(step.label)
		btn.SetAttr("execute", "@this")
		btn.SetAttr("render", "count")
		delta := step.delta
		btn.AddActionListener(hxfaces.ActionListenerFunc(func(ctx *hxfaces.Context, _ *hxfaces.ActionEvent) error {
			vm := ctx.ViewRoot().ViewMap(ctx, true)
			n, _ := vm["count"].(int)
			vm["count"] = n + delta
			return nil
		}))
		form.Children().Add(btn)
	}

	reset := hxfaces.NewCommand()
	if err := reset.SetID("reset"); err != nil {
		return nil, err
	}
	reset.SetLabel("Reset")
	reset.SetImmediate(true)
	reset.SetAction(hxfaces.Outcome("counter" + hxfaces.RedirectSuffix))
	form.Children().Add(reset)

	page.Children().Add(form)
	return page, nil
}

// viewValue binds a component value to an entry of the view map.
func viewValue(key string) *hxfaces.ValueFunc {
	return &hxfaces.ValueFunc{
		Expr: "#{view." + key + "}",
		Get: func(ctx *hxfaces.Context) (any, error) {
			return ctx.ViewRoot().ViewMap(ctx, true)[key], nil
		},
		Set: func(ctx *hxfaces.Context, v any) error {
			ctx.ViewRoot().ViewMap(ctx, true)[key] = v
			return nil
		},
	}
}
