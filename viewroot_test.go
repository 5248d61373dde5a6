package hxfaces

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type probe struct {
	*Base
	validations int
}

func newProbe() *probe {
	p := &probe{}
	p.Base = NewBase(p, "test.Probe", "test.Probe", "")
	return p
}

func (p *probe) ProcessValidators(ctx *Context) error {
	p.validations++
	return p.Base.ProcessValidators(ctx)
}

func newCommandView(t *testing.T) (*Context, *ViewRoot, *Command) {
	t.Helper()
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	ctx.SetViewRoot(vr)
	cmd := NewCommand()
	cmd.SetID("go")
	vr.Children().Add(cmd)
	return ctx, vr, cmd
}

func TestBroadcastStopsAtLoopLimit(t *testing.T) {
	ctx, vr, cmd := newCommandView(t)

	calls := 0
	cmd.AddActionListener(ActionListenerFunc(func(ctx *Context, ev *ActionEvent) error {
		calls++
		return cmd.QueueEvent(ctx, NewActionEvent(cmd))
	}))
	if err := cmd.QueueEvent(ctx, NewActionEvent(cmd)); err != nil {
		t.Fatalf("QueueEvent: %v", err)
	}

	if err := vr.BroadcastEvents(ctx, InvokeApplication); err != nil {
		t.Fatalf("BroadcastEvents: %v", err)
	}
	if want := DefaultConfig().MaxEventLoops; calls != want {
		t.Errorf("listener calls = %d, want %d", calls, want)
	}
	if n := vr.PendingEvents(); n != 0 {
		t.Errorf("PendingEvents() = %d, want 0 after dropping", n)
	}
}

func TestBroadcastOnlyDeliversMatchingPhase(t *testing.T) {
	ctx, vr, cmd := newCommandView(t)
	calls := 0
	cmd.AddActionListener(ActionListenerFunc(func(*Context, *ActionEvent) error {
		calls++
		return nil
	}))
	if err := cmd.QueueEvent(ctx, NewActionEvent(cmd)); err != nil {
		t.Fatalf("QueueEvent: %v", err)
	}

	if err := vr.BroadcastEvents(ctx, ApplyRequestValues); err != nil {
		t.Fatalf("BroadcastEvents: %v", err)
	}
	if calls != 0 || vr.PendingEvents() != 1 {
		t.Fatalf("non-immediate event delivered early: calls=%d pending=%d", calls, vr.PendingEvents())
	}
	if err := vr.BroadcastEvents(ctx, InvokeApplication); err != nil {
		t.Fatalf("BroadcastEvents: %v", err)
	}
	if calls != 1 {
		t.Errorf("listener calls = %d, want 1", calls)
	}
}

func TestAbortProcessingStopsOnlyTheEvent(t *testing.T) {
	ctx, vr, cmd := newCommandView(t)

	first, second := 0, 0
	cmd.AddActionListener(ActionListenerFunc(func(*Context, *ActionEvent) error {
		first++
		if first == 1 {
			return AbortProcessing(errors.New("stop"))
		}
		return nil
	}))
	cmd.AddActionListener(ActionListenerFunc(func(*Context, *ActionEvent) error {
		second++
		return nil
	}))
	for i := 0; i < 2; i++ {
		if err := cmd.QueueEvent(ctx, NewActionEvent(cmd)); err != nil {
			t.Fatalf("QueueEvent: %v", err)
		}
	}

	if err := vr.BroadcastEvents(ctx, InvokeApplication); err != nil {
		t.Fatalf("BroadcastEvents: %v", err)
	}
	if first != 2 || second != 1 {
		t.Errorf("calls = (%d, %d), want (2, 1)", first, second)
	}
	excs := ctx.Exceptions()
	if len(excs) != 1 || !IsAbortProcessing(excs[0]) {
		t.Errorf("Exceptions() = %v, want one abort", excs)
	}
}

func TestListenerErrorEndsBroadcast(t *testing.T) {
	ctx, vr, cmd := newCommandView(t)
	boom := errors.New("boom")
	cmd.AddActionListener(ActionListenerFunc(func(*Context, *ActionEvent) error { return boom }))
	for i := 0; i < 2; i++ {
		if err := cmd.QueueEvent(ctx, NewActionEvent(cmd)); err != nil {
			t.Fatalf("QueueEvent: %v", err)
		}
	}

	if err := vr.BroadcastEvents(ctx, InvokeApplication); !errors.Is(err, boom) {
		t.Fatalf("BroadcastEvents() error = %v, want boom", err)
	}
}

func TestImmediateCommandSkipsToRender(t *testing.T) {
	ctx, vr, cmd := newCommandView(t)
	cmd.SetImmediate(true)
	ctx.SetParam("go", "Go")

	if err := vr.ProcessDecodes(ctx); err != nil {
		t.Fatalf("ProcessDecodes: %v", err)
	}
	if !ctx.IsRenderResponse() {
		t.Error("immediate command did not skip to RenderResponse")
	}
}

// recorder collects the callbacks of phase listeners.
type recorder struct{ calls []string }

func (r *recorder) listener(name string, phase PhaseID, beforeErr error) *PhaseListenerFuncs {
	return &PhaseListenerFuncs{
		Phase: phase,
		Before: func(PhaseEvent) error {
			r.calls = append(r.calls, "before "+name)
			return beforeErr
		},
		After: func(PhaseEvent) error {
			r.calls = append(r.calls, "after "+name)
			return nil
		},
	}
}

func TestPhaseListenerOrder(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	ctx.SetViewRoot(vr)
	p := newProbe()
	vr.Children().Add(p)

	rec := &recorder{}
	vr.AddPhaseListener(rec.listener("one", AnyPhase, nil))
	vr.AddPhaseListener(rec.listener("two", ProcessValidations, nil))
	vr.AddPhaseListener(rec.listener("other", UpdateModelValues, nil))

	if err := vr.ProcessValidators(ctx); err != nil {
		t.Fatalf("ProcessValidators: %v", err)
	}
	want := []string{"before one", "before two", "after two", "after one"}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if p.validations != 1 {
		t.Errorf("validations = %d, want 1", p.validations)
	}
}

func TestFailedBeforeSkipsItsAfter(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	ctx.SetViewRoot(vr)
	p := newProbe()
	vr.Children().Add(p)

	rec := &recorder{}
	boom := errors.New("boom")
	vr.AddPhaseListener(rec.listener("ok", AnyPhase, nil))
	vr.AddPhaseListener(rec.listener("failing", AnyPhase, boom))

	if err := vr.ProcessValidators(ctx); err != nil {
		t.Fatalf("ProcessValidators: %v", err)
	}
	want := []string{"before ok", "before failing", "after ok"}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if p.validations != 1 {
		t.Errorf("phase body skipped after a listener failure")
	}
	excs := ctx.Exceptions()
	if len(excs) != 1 || !errors.Is(excs[0], boom) {
		t.Errorf("Exceptions() = %v, want boom", excs)
	}
}

func TestRenderResponseSkipsPhaseBody(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	ctx.SetViewRoot(vr)
	p := newProbe()
	vr.Children().Add(p)

	rec := &recorder{}
	vr.AddPhaseListener(rec.listener("l", AnyPhase, nil))
	ctx.RenderResponse()

	if err := vr.ProcessValidators(ctx); err != nil {
		t.Fatalf("ProcessValidators: %v", err)
	}
	if p.validations != 0 {
		t.Errorf("validations = %d, want the body skipped", p.validations)
	}
	want := []string{"before l", "after l"}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestBeforePhaseMethod(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	ctx.SetViewRoot(vr)

	var phases []PhaseID
	vr.SetBeforePhaseListener(MethodFunc(func(_ *Context, args ...any) (any, error) {
		phases = append(phases, args[0].(PhaseEvent).Phase)
		return nil, nil
	}))
	if err := vr.ProcessDecodes(ctx); err != nil {
		t.Fatalf("ProcessDecodes: %v", err)
	}
	if err := vr.ProcessUpdates(ctx); err != nil {
		t.Fatalf("ProcessUpdates: %v", err)
	}
	want := []PhaseID{ApplyRequestValues, UpdateModelValues}
	if diff := cmp.Diff(want, phases); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}
}

func TestResponseCompleteInBeforeSkipsPhaseBody(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	ctx.SetViewRoot(vr)
	p := newProbe()
	vr.Children().Add(p)

	rec := &recorder{}
	vr.AddPhaseListener(rec.listener("first", AnyPhase, nil))
	vr.AddPhaseListener(&PhaseListenerFuncs{
		Phase: ProcessValidations,
		Before: func(ev PhaseEvent) error {
			ev.Context.ResponseComplete()
			return nil
		},
	})
	vr.AddPhaseListener(rec.listener("last", AnyPhase, nil))

	if err := vr.ProcessValidators(ctx); err != nil {
		t.Fatalf("ProcessValidators: %v", err)
	}
	if p.validations != 0 {
		t.Errorf("validations = %d, want the body skipped", p.validations)
	}
	want := []string{"before first", "before last", "after last", "after first"}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPhaseBodyErrorRunsAfters(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	ctx.SetViewRoot(vr)

	rec := &recorder{}
	vr.AddPhaseListener(rec.listener("l", AnyPhase, nil))

	boom := errors.New("body boom")
	err := vr.process(ctx, InvokeApplication, func() error {
		rec.calls = append(rec.calls, "body")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("process() error = %v, want the body error", err)
	}
	want := []string{"before l", "body", "after l"}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRemovingListenerDuringPhase(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	ctx.SetViewRoot(vr)

	rec := &recorder{}
	vr.AddPhaseListener(rec.listener("kept", AnyPhase, nil))
	var l *PhaseListenerFuncs
	l = &PhaseListenerFuncs{
		Phase: AnyPhase,
		Before: func(PhaseEvent) error {
			vr.RemovePhaseListener(l)
			return nil
		},
		After: func(PhaseEvent) error {
			rec.calls = append(rec.calls, "after removed")
			return nil
		},
	}
	vr.AddPhaseListener(l)

	if err := vr.ProcessValidators(ctx); !errors.Is(err, ErrIllegalState) {
		t.Errorf("ProcessValidators() error = %v, want ErrIllegalState", err)
	}
	want := []string{"before kept", "after kept"}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}
