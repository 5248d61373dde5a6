package hxfaces

import (
	"sync"

	"github.com/a-h/templ"
)

// Renderer decodes request values into a component and writes its markup.
// Renderers are shared between requests and must not keep request state.
type Renderer interface {
	Decode(ctx *Context, c Component) error
	EncodeBegin(ctx *Context, c Component) error
	EncodeChildren(ctx *Context, c Component) error
	EncodeEnd(ctx *Context, c Component) error
	// RendersChildren reports whether EncodeChildren writes the children.
	RendersChildren() bool
	ConvertClientID(ctx *Context, clientID string) string
	// ConvertedValue turns a submitted value into the component's model type.
	ConvertedValue(ctx *Context, c Component, submitted any) (any, error)
}

// BaseRenderer implements Renderer with the standard decoding and no markup.
// Embed it and override what a renderer needs.
type BaseRenderer struct{}

func (BaseRenderer) Decode(ctx *Context, c Component) error { return DecodeComponent(ctx, c) }

func (BaseRenderer) EncodeBegin(*Context, Component) error { return nil }

// EncodeChildren renders every child.
func (BaseRenderer) EncodeChildren(ctx *Context, c Component) error {
	for _, child := range c.Children().All() {
		if err := child.EncodeAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (BaseRenderer) EncodeEnd(*Context, Component) error { return nil }

func (BaseRenderer) RendersChildren() bool { return false }

func (BaseRenderer) ConvertClientID(_ *Context, clientID string) string { return clientID }

func (BaseRenderer) ConvertedValue(ctx *Context, c Component, submitted any) (any, error) {
	return ConvertSubmitted(ctx, c, submitted)
}

// TemplRenderer renders a component through templ components built per
// request. Begin and End may be nil.
type TemplRenderer struct {
	BaseRenderer
	Begin func(ctx *Context, c Component) templ.Component
	End   func(ctx *Context, c Component) templ.Component
}

func (r *TemplRenderer) EncodeBegin(ctx *Context, c Component) error {
	if r.Begin == nil {
		return nil
	}
	return r.Begin(ctx, c).Render(ctx.RequestContext(), ctx.Writer())
}

func (r *TemplRenderer) EncodeEnd(ctx *Context, c Component) error {
	if r.End == nil {
		return nil
	}
	return r.End(ctx, c).Render(ctx.RequestContext(), ctx.Writer())
}

// DecodeComponent applies the request values addressed to c: inputs take
// their submitted value, commands queue an ActionEvent when they triggered
// the request, forms note whether they were submitted.
func DecodeComponent(ctx *Context, c Component) error {
	clientID := c.ClientID(ctx)
	switch x := c.(type) {
	case formComponent:
		x.setSubmitted(ctx.HasParam(clientID))
	case EditableValueHolder:
		if ctx.HasParam(clientID) {
			x.SetSubmittedValue(ctx.Param(clientID))
		}
	case ActionSource:
		if ctx.HasParam(clientID) || ctx.Partial().SourceID() == clientID {
			return c.QueueEvent(ctx, NewActionEvent(c))
		}
	}
	return nil
}

// ConvertSubmitted converts a submitted value with the converter of c, if c
// is a ValueHolder that has one.
func ConvertSubmitted(ctx *Context, c Component, submitted any) (any, error) {
	vh, ok := c.(ValueHolder)
	if !ok || vh.Converter() == nil {
		return submitted, nil
	}
	s, ok := submitted.(string)
	if !ok {
		return submitted, nil
	}
	return vh.Converter().AsObject(ctx, c, s)
}

// RenderKit maps component families and renderer types to renderers. It is
// shared by all requests and written mostly at startup.
type RenderKit struct {
	mu        sync.RWMutex
	renderers map[rendererKey]Renderer
}

type rendererKey struct {
	family       string
	rendererType string
}

// NewRenderKit returns an empty render kit.
func NewRenderKit() *RenderKit {
	return &RenderKit{renderers: make(map[rendererKey]Renderer)}
}

// Add registers r for family and rendererType, replacing any previous one.
func (k *RenderKit) Add(family, rendererType string, r Renderer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.renderers[rendererKey{family, rendererType}] = r
}

// Renderer returns the renderer for family and rendererType, or nil.
func (k *RenderKit) Renderer(family, rendererType string) Renderer {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.renderers[rendererKey{family, rendererType}]
}
