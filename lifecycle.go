package hxfaces

import (
	"bytes"
	"html"

	"go.uber.org/zap"
)

// Lifecycle runs the phases of a request. Execute runs RestoreView through
// InvokeApplication; Render runs RenderResponse and writes the view state.
//
// Application phase listeners surround each phase the same way view phase
// listeners do: an after callback only runs when its before callback
// succeeded. After every phase the errors queued on the context go through
// the ExceptionHandler.
type Lifecycle struct {
	app *Application
}

// Execute runs every phase before RenderResponse, stopping early when a
// phase completes the response or requests rendering.
func (l *Lifecycle) Execute(ctx *Context) error {
	steps := []struct {
		phase PhaseID
		run   func(*Context) error
	}{
		{RestoreView, l.restoreView},
		{ApplyRequestValues, func(ctx *Context) error { return ctx.viewRoot.ProcessDecodes(ctx) }},
		{ProcessValidations, func(ctx *Context) error { return ctx.viewRoot.ProcessValidators(ctx) }},
		{UpdateModelValues, func(ctx *Context) error { return ctx.viewRoot.ProcessUpdates(ctx) }},
		{InvokeApplication, func(ctx *Context) error { return ctx.viewRoot.ProcessApplication(ctx) }},
	}
	for _, step := range steps {
		if err := l.runPhase(ctx, step.phase, step.run); err != nil {
			return err
		}
		if ctx.responseComplete || ctx.renderResponse {
			break
		}
	}
	return nil
}

// Render runs RenderResponse unless the response is complete.
func (l *Lifecycle) Render(ctx *Context) error {
	if ctx.responseComplete {
		return nil
	}
	return l.runPhase(ctx, RenderResponse, l.render)
}

func (l *Lifecycle) runPhase(ctx *Context, phase PhaseID, body func(*Context) error) error {
	ctx.phase = phase
	ev := PhaseEvent{Context: ctx, Phase: phase}

	var listeners []PhaseListener
	for _, pl := range l.app.phaseListeners {
		if listensTo(pl, phase) {
			listeners = append(listeners, pl)
		}
	}
	ok := make([]bool, len(listeners))
	for i, pl := range listeners {
		if err := pl.BeforePhase(ev); err != nil {
			Logger().Error("phase listener failed", zap.String("phase", phase.String()), zap.Error(err))
			ctx.QueueException(err)
			continue
		}
		ok[i] = true
	}

	skip := ctx.responseComplete || (ctx.renderResponse && phase != RenderResponse)
	if !skip {
		if err := body(ctx); err != nil {
			ctx.QueueException(err)
		}
	}

	for i := len(listeners) - 1; i >= 0; i-- {
		if !ok[i] {
			continue
		}
		if err := listeners[i].AfterPhase(ev); err != nil {
			Logger().Error("phase listener failed", zap.String("phase", phase.String()), zap.Error(err))
			ctx.QueueException(err)
		}
	}

	errs := ctx.drainExceptions()
	if len(errs) == 0 {
		return nil
	}
	return l.app.exceptionHandler.Handle(ctx, phase, errs)
}

// restoreView restores the posted view, or builds the requested view and
// skips to rendering on an initial request.
func (l *Lifecycle) restoreView(ctx *Context) error {
	if ctx.viewRoot != nil {
		return nil
	}
	if !ctx.IsPostback() {
		vr, err := l.app.CreateView(ctx, ctx.viewID)
		if err != nil {
			return err
		}
		ctx.SetViewRoot(vr)
		ctx.RenderResponse()
		return nil
	}

	saved, err := l.app.states.ReadState(ctx, ctx.Param(ViewStateParam))
	if err != nil {
		return err
	}
	vr, err := l.app.states.RestoreView(ctx, ctx.viewID, saved)
	if err != nil {
		return err
	}
	ctx.SetViewRoot(vr)
	return nil
}

// render encodes the view, saves it, and puts the state token wherever the
// markup carries ViewStateMarker.
func (l *Lifecycle) render(ctx *Context) error {
	vr := ctx.viewRoot
	if vr == nil {
		return illegalState("no view to render")
	}
	if err := vr.EncodeAll(ctx); err != nil {
		return err
	}
	if ctx.responseComplete {
		return nil
	}

	saved, err := l.app.states.SaveView(ctx)
	if err != nil {
		return err
	}
	token, err := l.app.states.WriteState(ctx, saved)
	if err != nil {
		return err
	}
	ctx.token = token

	body := bytes.ReplaceAll(ctx.out.Bytes(), []byte(ViewStateMarker), []byte(html.EscapeString(token)))
	ctx.out.Reset()
	ctx.out.Write(body)
	return nil
}
