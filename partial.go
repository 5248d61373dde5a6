package hxfaces

import (
	"bytes"
	"html"
	"io"
	"strings"
)

// Request parameters and headers of partial requests.
const (
	PartialAjaxParam    = "jakarta.faces.partial.ajax"
	PartialExecuteParam = "jakarta.faces.partial.execute"
	PartialRenderParam  = "jakarta.faces.partial.render"
	PartialSourceParam  = "jakarta.faces.source"
	FacesRequestHeader  = "Faces-Request"
)

// Keywords accepted in execute and render lists.
const (
	KeywordAll  = "@all"
	KeywordNone = "@none"
	KeywordThis = "@this"
	KeywordForm = "@form"
)

// ViewRootUpdateID is the update id used when a partial response replaces the
// whole view.
const ViewRootUpdateID = "jakarta.faces.ViewRoot"

// PartialViewContext holds the partial (ajax) side of a request: which
// components execute, which render, and how the response is framed. HTMX
// requests get out-of-band swaps; Faces ajax requests get a partial-response
// XML document.
type PartialViewContext struct {
	ctx           *Context
	ajax          bool
	htmx          bool
	source        string
	executeTokens []string
	renderTokens  []string
	resolved      bool

	executeIDs []string
	renderIDs  []string
	executeAll bool
	renderAll  bool
}

func newPartialViewContext(ctx *Context) *PartialViewContext {
	p := &PartialViewContext{ctx: ctx}
	r := ctx.request
	if r != nil {
		// Boosted requests are full postbacks that swap the whole body.
		p.htmx = IsHTMX(r) && !IsBoosted(r)
		p.ajax = p.htmx || r.Header.Get(FacesRequestHeader) == "partial/ajax"
	}
	if ctx.Param(PartialAjaxParam) == "true" {
		p.ajax = true
	}
	p.source = ctx.Param(PartialSourceParam)
	if p.source == "" && r != nil && p.htmx {
		p.source = TriggerName(r)
	}
	p.executeTokens = strings.Fields(ctx.Param(PartialExecuteParam))
	p.renderTokens = strings.Fields(ctx.Param(PartialRenderParam))
	return p
}

// IsAjaxRequest reports whether the request is a partial request.
func (p *PartialViewContext) IsAjaxRequest() bool { return p.ajax }

// IsHTMX reports whether the partial response uses HTMX out-of-band swaps.
func (p *PartialViewContext) IsHTMX() bool { return p.htmx }

// SourceID returns the client id of the component that triggered the
// request.
func (p *PartialViewContext) SourceID() string { return p.source }

// ExecuteIDs returns the resolved client ids to execute.
func (p *PartialViewContext) ExecuteIDs() []string {
	p.resolve()
	return p.executeIDs
}

// RenderIDs returns the resolved client ids to render.
func (p *PartialViewContext) RenderIDs() []string {
	p.resolve()
	return p.renderIDs
}

func (p *PartialViewContext) IsExecuteAll() bool {
	p.resolve()
	return p.executeAll
}

func (p *PartialViewContext) IsRenderAll() bool {
	p.resolve()
	return p.renderAll
}

// SetRenderAll makes the partial response carry the whole view. Navigation to
// another view uses it.
func (p *PartialViewContext) SetRenderAll(all bool) {
	p.resolve()
	p.renderAll = all
}

// SetRenderIDs replaces the render list with client ids.
func (p *PartialViewContext) SetRenderIDs(ids ...string) {
	p.resolve()
	p.renderIDs = append([]string(nil), ids...)
	p.renderAll = false
}

func (p *PartialViewContext) executesPartially() bool {
	return p.ajax && p.ctx.viewRoot != nil && !p.IsExecuteAll()
}

func (p *PartialViewContext) rendersPartially() bool {
	return p.ajax && p.ctx.viewRoot != nil
}

// resolve expands keywords once a view is available.
func (p *PartialViewContext) resolve() {
	if p.resolved || p.ctx.viewRoot == nil {
		return
	}
	p.resolved = true

	execute := p.executeTokens
	if p.ajax && len(execute) == 0 {
		execute = []string{KeywordThis}
	}
	p.executeIDs, p.executeAll = p.expand(execute)
	p.renderIDs, p.renderAll = p.expand(p.renderTokens)
}

func (p *PartialViewContext) expand(tokens []string) (ids []string, all bool) {
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, tok := range tokens {
		switch tok {
		case KeywordAll:
			return nil, true
		case KeywordNone:
		case KeywordThis:
			add(p.source)
		case KeywordForm:
			add(p.sourceFormID())
		default:
			add(tok)
		}
	}
	return ids, false
}

func (p *PartialViewContext) sourceFormID() string {
	var formID string
	root := p.ctx.viewRoot
	_, _ = root.self.InvokeOnComponent(p.ctx, p.source, func(ctx *Context, c Component) error {
		for x := c; x != nil; x = x.Parent() {
			if _, ok := x.(formComponent); ok {
				formID = x.ClientID(ctx)
				return nil
			}
		}
		return nil
	})
	return formID
}

// ProcessPartial runs phase over the execute ids, or renders the render ids
// for RenderResponse.
func (p *PartialViewContext) ProcessPartial(phase PhaseID) error {
	switch phase {
	case ApplyRequestValues, ProcessValidations, UpdateModelValues:
		return p.executePartial(phase)
	case RenderResponse:
		return p.renderPartial()
	}
	return nil
}

// executeStrategies process one executed subtree per phase.
var executeStrategies = map[PhaseID]func(ctx *Context, c Component) error{
	ApplyRequestValues: func(ctx *Context, c Component) error { return c.ProcessDecodes(ctx) },
	ProcessValidations: func(ctx *Context, c Component) error { return c.ProcessValidators(ctx) },
	UpdateModelValues:  func(ctx *Context, c Component) error { return c.ProcessUpdates(ctx) },
}

func (p *PartialViewContext) executePartial(phase PhaseID) error {
	ids := p.ExecuteIDs()
	if len(ids) == 0 {
		return nil
	}
	strategy := executeStrategies[phase]
	vc := NewPartialVisitContext(p.ctx, ids, SkipUnrendered|ExecuteLifecycle)
	_, err := p.ctx.viewRoot.self.VisitTree(vc, func(vc *VisitContext, c Component) (VisitResult, error) {
		return VisitReject, strategy(vc.Context(), c)
	})
	return err
}

func (p *PartialViewContext) renderPartial() error {
	ctx := p.ctx
	w := ctx.Writer()
	if p.htmx {
		return p.renderHTMX(w)
	}

	ctx.Header().Set("Content-Type", "text/xml; charset=utf-8")
	io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`)
	io.WriteString(w, `<partial-response id="`+html.EscapeString(ctx.viewRoot.ClientID(ctx))+`"><changes>`)
	if p.IsRenderAll() {
		markup, err := p.renderChildren()
		if err != nil {
			return err
		}
		writeUpdate(w, ViewRootUpdateID, markup)
	} else {
		for _, id := range p.RenderIDs() {
			markup, _, err := p.renderComponent(id)
			if err != nil {
				return err
			}
			writeUpdate(w, id, markup)
		}
	}
	writeUpdate(w, ViewStateParam, []byte(ViewStateMarker))
	io.WriteString(w, `</changes></partial-response>`)
	return nil
}

func (p *PartialViewContext) renderHTMX(w io.Writer) error {
	ctx := p.ctx
	ctx.Header().Set("Content-Type", "text/html; charset=utf-8")
	if p.IsRenderAll() {
		markup, err := p.renderChildren()
		if err != nil {
			return err
		}
		ctx.Header().Set("HX-Retarget", "body")
		ctx.Header().Set("HX-Reswap", string(SwapInner))
		_, err = w.Write(markup)
		return err
	}

	ctx.Header().Set("HX-Reswap", string(SwapNone))
	for _, id := range p.RenderIDs() {
		markup, found, err := p.renderComponent(id)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		io.WriteString(w, OOBSwap(id, markup))
	}
	for _, formID := range formClientIDs(ctx) {
		io.WriteString(w, OOBSwap(ViewStateFieldID(ctx, formID), []byte(viewStateInput(ctx, formID))))
	}
	io.WriteString(w, RenderMessagesOOB(ctx.Messages("")))
	if ctx.validationFailed {
		ctx.Header().Set("HX-Trigger", BuildTriggerHeader("hxfaces:validationFailed", nil))
	}
	return nil
}

func (p *PartialViewContext) renderChildren() ([]byte, error) {
	return captureOutput(p.ctx, func() error {
		for _, c := range p.ctx.viewRoot.children.All() {
			if err := c.EncodeAll(p.ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *PartialViewContext) renderComponent(clientID string) ([]byte, bool, error) {
	var markup []byte
	found, err := p.ctx.viewRoot.self.InvokeOnComponent(p.ctx, clientID, func(ctx *Context, c Component) error {
		var err error
		markup, err = captureOutput(ctx, func() error { return c.EncodeAll(ctx) })
		return err
	})
	return markup, found, err
}

// captureOutput runs fn with the response writer redirected to a buffer.
func captureOutput(ctx *Context, fn func() error) ([]byte, error) {
	saved := ctx.out
	ctx.out = &bytes.Buffer{}
	err := fn()
	out := ctx.out.Bytes()
	ctx.out = saved
	return out, err
}

func writeUpdate(w io.Writer, id string, markup []byte) {
	io.WriteString(w, `<update id="`+html.EscapeString(id)+`"><![CDATA[`)
	// A CDATA section cannot contain its own terminator.
	w.Write(bytes.ReplaceAll(markup, []byte("]]>"), []byte("]]]]><![CDATA[>")))
	io.WriteString(w, `]]></update>`)
}

// OOBSwap marks the first element of markup as an out-of-band replacement of
// the element with id clientID. Empty markup leaves an empty placeholder so
// the element can be swapped back in later.
func OOBSwap(clientID string, markup []byte) string {
	attr := ` hx-swap-oob="` + string(SwapOuter) + `:[id='` + html.EscapeString(clientID) + `']"`
	s := string(bytes.TrimSpace(markup))
	if !strings.HasPrefix(s, "<") || strings.HasPrefix(s, "</") {
		return `<span id="` + html.EscapeString(clientID) + `"` + attr + `></span>`
	}
	end := strings.IndexAny(s, " \t\n/>")
	if end < 0 {
		return s
	}
	return s[:end] + attr + s[end:]
}

// ViewStateMarker is written wherever the view state token belongs. It is
// replaced after the view was rendered and saved.
const ViewStateMarker = "~hxfaces:viewstate~"

// ViewStateFieldID returns the element id of the view state field of a form.
func ViewStateFieldID(ctx *Context, formClientID string) string {
	return formClientID + ctx.Separator() + ViewStateParam
}

func viewStateInput(ctx *Context, formClientID string) string {
	return `<input type="hidden" id="` + html.EscapeString(ViewStateFieldID(ctx, formClientID)) +
		`" name="` + ViewStateParam + `" value="` + ViewStateMarker + `">`
}

// ViewStateField returns the hidden input carrying the view state, for form
// renderers.
func ViewStateField(ctx *Context, form Component) string {
	return viewStateInput(ctx, form.ClientID(ctx))
}

func formClientIDs(ctx *Context) []string {
	var ids []string
	vc := NewVisitContext(ctx, SkipUnrendered)
	_, _ = ctx.viewRoot.self.VisitTree(vc, func(vc *VisitContext, c Component) (VisitResult, error) {
		if _, ok := c.(formComponent); ok {
			ids = append(ids, c.ClientID(vc.Context()))
			return VisitReject, nil
		}
		return VisitAccept, nil
	})
	return ids
}
