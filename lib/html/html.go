// Package html is the default render kit: minimal markup for pages, forms,
// text inputs, outputs, buttons, panels and message lists, wired for HTMX
// partial requests.
//
// Install it on the application before serving views:
//
//	app, _ := hxfaces.NewApplication()
//	html.Install(app)
package html

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxfaces"
)

// Renderer types of the kit. The core components default to these.
const (
	PageRenderer     = "hxfaces.Page"
	FormRenderer     = "hxfaces.Form"
	TextRenderer     = "hxfaces.Text"
	ButtonRenderer   = "hxfaces.Button"
	GroupRenderer    = "hxfaces.Group"
	MessagesRenderer = "hxfaces.Messages"
)

// HTMXScript is the script tag pages include.
const HTMXScript = `<script src="https://unpkg.com/htmx.org@2.0.4"></script>`

// Install registers the renderers of the kit and the Messages component on
// app. It panics when called twice for the same application.
func Install(app *hxfaces.Application) {
	app.RegisterComponent(TypeMessages, func() hxfaces.Component { return NewMessages() })

	kit := app.RenderKit()
	kit.Add(hxfaces.FamilyViewRoot, PageRenderer, &hxfaces.TemplRenderer{Begin: pageBegin, End: pageEnd})
	kit.Add(hxfaces.FamilyForm, FormRenderer, &hxfaces.TemplRenderer{Begin: formBegin, End: formEnd})
	kit.Add(hxfaces.FamilyInput, TextRenderer, &hxfaces.TemplRenderer{Begin: inputText})
	kit.Add(hxfaces.FamilyOutput, TextRenderer, &hxfaces.TemplRenderer{Begin: outputText})
	kit.Add(hxfaces.FamilyCommand, ButtonRenderer, &hxfaces.TemplRenderer{Begin: button, End: closeTag("button")})
	kit.Add(hxfaces.FamilyPanel, GroupRenderer, &hxfaces.TemplRenderer{Begin: group, End: closeTag("div")})
	kit.Add(FamilyMessages, MessagesRenderer, &hxfaces.TemplRenderer{Begin: messages})
}

// NewPage returns a view root rendered as a complete HTML document.
func NewPage(title string) *hxfaces.ViewRoot {
	vr := hxfaces.NewViewRoot()
	vr.SetRendererType(PageRenderer)
	vr.SetAttr("title", title)
	return vr
}

func pageBegin(ctx *hxfaces.Context, c hxfaces.Component) templ.Component {
	vr := ctx.ViewRoot()
	title, _ := c.Attr("title").(string)
	return raw(`<!DOCTYPE html><html lang="` + esc(vr.Locale()) + `"><head><meta charset="utf-8"><title>` +
		esc(title) + `</title>` + HTMXScript + `</head><body hx-boost="true">`)
}

func pageEnd(ctx *hxfaces.Context, _ hxfaces.Component) templ.Component {
	return templ.ComponentFunc(func(goCtx context.Context, w io.Writer) error {
		if err := hxfaces.MessagesContainer(ctx.Messages("")).Render(goCtx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// The hidden field named after the form marks it as submitted.
func formBegin(ctx *hxfaces.Context, c hxfaces.Component) templ.Component {
	id := c.ClientID(ctx)
	return raw(`<form id="` + esc(id) + `" method="post" action="` +
		esc(hxfaces.ViewPath(ctx.Config(), ctx.ViewID())) + `">` +
		`<input type="hidden" name="` + esc(id) + `" value="` + esc(id) + `">`)
}

func formEnd(ctx *hxfaces.Context, c hxfaces.Component) templ.Component {
	return raw(hxfaces.ViewStateField(ctx, c) + `</form>`)
}

// inputText wraps the field and its messages in an element carrying the
// client id, so a partial render replaces both.
func inputText(ctx *hxfaces.Context, c hxfaces.Component) templ.Component {
	id := c.ClientID(ctx)
	attrs := templ.Attributes{
		"type":  "text",
		"name":  id,
		"value": hxfaces.ValueString(ctx, c.(hxfaces.ValueHolder)),
	}
	if p, ok := c.Attr("placeholder").(string); ok {
		attrs["placeholder"] = p
	}
	if evh, ok := c.(hxfaces.EditableValueHolder); ok && !evh.Valid() {
		attrs["aria-invalid"] = "true"
	}

	var sb strings.Builder
	sb.WriteString(`<span id="` + esc(id) + `" class="field">`)
	if l, ok := c.Attr("label").(string); ok {
		sb.WriteString(`<label>` + esc(l) + ` `)
	}
	sb.WriteString(`<input` + renderAttrs(attrs) + `>`)
	if _, ok := c.Attr("label").(string); ok {
		sb.WriteString(`</label>`)
	}
	for _, m := range ctx.Messages(id) {
		sb.WriteString(`<span class="field-message message-` + m.Severity.String() + `">` + esc(m.Summary) + `</span>`)
	}
	sb.WriteString(`</span>`)
	return raw(sb.String())
}

func outputText(ctx *hxfaces.Context, c hxfaces.Component) templ.Component {
	return raw(`<span id="` + esc(c.ClientID(ctx)) + `">` +
		esc(hxfaces.ValueString(ctx, c.(hxfaces.ValueHolder))) + `</span>`)
}

// button renders a submit button. With an "execute" or "render" attribute it
// posts a partial request instead; ids in those lists are resolved relative
// to the button like FindComponent expressions.
func button(ctx *hxfaces.Context, c hxfaces.Component) templ.Component {
	id := c.ClientID(ctx)
	label := id
	if cmd, ok := c.(*hxfaces.Command); ok && cmd.Label(ctx) != "" {
		label = cmd.Label(ctx)
	}
	attrs := templ.Attributes{
		"type":  "submit",
		"id":    id,
		"name":  id,
		"value": label,
	}
	execute, _ := c.Attr("execute").(string)
	render, _ := c.Attr("render").(string)
	if execute != "" || render != "" {
		path := hxfaces.ViewPath(ctx.Config(), ctx.ViewID())
		for k, v := range hxfaces.AjaxAttrs(path, id, resolveIDs(ctx, c, execute), resolveIDs(ctx, c, render)) {
			attrs[k] = v
		}
	}
	return raw(`<button` + renderAttrs(attrs) + `>` + esc(label))
}

func group(ctx *hxfaces.Context, c hxfaces.Component) templ.Component {
	attrs := templ.Attributes{"id": c.ClientID(ctx)}
	if class, ok := c.Attr("styleClass").(string); ok {
		attrs["class"] = class
	}
	return raw(`<div` + renderAttrs(attrs) + `>`)
}

func closeTag(tag string) func(*hxfaces.Context, hxfaces.Component) templ.Component {
	return func(*hxfaces.Context, hxfaces.Component) templ.Component {
		return raw(`</` + tag + `>`)
	}
}

// resolveIDs maps the ids of an execute or render list to client ids.
// Keywords and ids that resolve to nothing are kept as written.
func resolveIDs(ctx *hxfaces.Context, c hxfaces.Component, list string) string {
	fields := strings.Fields(list)
	for i, f := range fields {
		if strings.HasPrefix(f, "@") {
			continue
		}
		if found, err := c.FindComponent(ctx, f); err == nil && found != nil {
			fields[i] = found.ClientID(ctx)
		}
	}
	return strings.Join(fields, " ")
}

func raw(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func esc(s string) string { return templ.EscapeString(s) }

// renderAttrs writes attributes in name order with escaped values. Boolean
// true renders the bare name; false and nil are left out.
func renderAttrs(attrs templ.Attributes) string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		switch v := attrs[name].(type) {
		case nil:
		case bool:
			if v {
				sb.WriteString(` ` + name)
			}
		case string:
			sb.WriteString(` ` + name + `="` + esc(v) + `"`)
		default:
			sb.WriteString(` ` + name + `="` + esc(fmt.Sprint(v)) + `"`)
		}
	}
	return sb.String()
}
