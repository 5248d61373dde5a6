package hxfaces

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newOutput(t *testing.T, id string) *Output {
	t.Helper()
	o := NewOutput()
	if err := o.SetID(id); err != nil {
		t.Fatalf("SetID(%q): %v", id, err)
	}
	return o
}

func ids(cs []Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID()
	}
	return out
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestChildrenParentSymmetry(t *testing.T) {
	parent := NewPanel()
	a, b, c := newOutput(t, "a"), newOutput(t, "b"), newOutput(t, "c")
	parent.Children().Add(a, b, c)

	for _, child := range parent.Children().All() {
		if child.Parent() != Component(parent) {
			t.Errorf("%s.Parent() = %v, want the panel", child.ID(), child.Parent())
		}
	}

	removed := parent.Children().RemoveAt(1)
	if removed != Component(b) || b.Parent() != nil {
		t.Errorf("RemoveAt(1) = %v, parent %v; want b detached", removed, b.Parent())
	}
	if diff := cmp.Diff([]string{"a", "c"}, ids(parent.Children().All())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}

	parent.Children().Clear()
	if a.Parent() != nil || c.Parent() != nil || parent.Children().Len() != 0 {
		t.Error("Clear left children attached")
	}
}

func TestChildrenMove(t *testing.T) {
	from, to := NewPanel(), NewPanel()
	a, b, c := newOutput(t, "a"), newOutput(t, "b"), newOutput(t, "c")
	from.Children().Add(a, b, c)

	// Moving to another parent removes from the old one.
	to.Children().Add(b)
	if diff := cmp.Diff([]string{"a", "c"}, ids(from.Children().All())); diff != "" {
		t.Errorf("old parent children mismatch (-want +got):\n%s", diff)
	}
	if b.Parent() != Component(to) {
		t.Error("b not attached to its new parent")
	}

	// Re-inserting into the same list moves within it.
	from.Children().Insert(0, c)
	if diff := cmp.Diff([]string{"c", "a"}, ids(from.Children().All())); diff != "" {
		t.Errorf("reorder mismatch (-want +got):\n%s", diff)
	}

	// A child becoming a facet leaves the child list.
	from.Facets().Set("header", a)
	if from.Children().Contains(a) || from.Facets().Get("header") != Component(a) {
		t.Error("child did not move into the facet map")
	}
	if a.Parent() != Component(from) {
		t.Error("facet parent not set")
	}

	// Replacing a child detaches the old one.
	old := from.Children().Set(0, b)
	if old != Component(c) || c.Parent() != nil {
		t.Errorf("Set returned %v with parent %v; want c detached", old, c.Parent())
	}
	if to.Children().Len() != 0 {
		t.Error("Set did not take b from its previous parent")
	}
}

func TestChildrenRejectCyclesAndNil(t *testing.T) {
	outer, inner := NewPanel(), NewPanel()
	outer.Children().Add(inner)

	expectPanic(t, "self", func() { outer.Children().Add(outer) })
	expectPanic(t, "ancestor", func() { inner.Children().Add(outer) })
	expectPanic(t, "ancestor facet", func() { inner.Facets().Set("f", outer) })
	expectPanic(t, "nil", func() { outer.Children().Add(nil) })

	if outer.Parent() != nil {
		t.Error("rejected attach changed the parent")
	}
}

func TestChildrenInsertOutOfRange(t *testing.T) {
	from, to := NewPanel(), NewPanel()
	a, b := newOutput(t, "a"), newOutput(t, "b")
	from.Children().Add(a)
	to.Children().Add(b)

	expectPanic(t, "past end", func() { to.Children().Insert(2, a) })
	expectPanic(t, "negative", func() { to.Children().Insert(-1, a) })
	expectPanic(t, "own list past end", func() { to.Children().Insert(1, b) })

	if a.Parent() != Component(from) || !from.Children().Contains(a) {
		t.Error("failed Insert detached the child from its old parent")
	}
	if diff := cmp.Diff([]string{"b"}, ids(to.Children().All())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestInViewFollowsAttachment(t *testing.T) {
	vr := NewViewRoot()
	panel := NewPanel()
	child := newOutput(t, "x")
	panel.Children().Add(child)

	if panel.InView() || child.InView() {
		t.Fatal("detached components report InView")
	}
	vr.Children().Add(panel)
	if !panel.InView() || !child.InView() {
		t.Error("attaching to a view did not mark the subtree in view")
	}
	vr.Children().Remove(panel)
	if panel.InView() || child.InView() {
		t.Error("detaching did not clear InView")
	}
}

func TestClientIDs(t *testing.T) {
	ctx := NewContext(nil, nil, "test")

	root, err := NewNamespacedViewRoot("R")
	if err != nil {
		t.Fatal(err)
	}
	form := NewForm()
	form.SetID("F")
	in := NewInput()
	in.SetID("name")
	nc := NewNamingContainer()
	nc.SetID("nc")
	deep := newOutput(t, "deep")
	nc.Children().Add(deep)
	form.Children().Add(in, nc)
	root.Children().Add(form)

	tests := []struct {
		name string
		c    Component
		want string
	}{
		{"root", root, "R"},
		{"form", form, "R:F"},
		{"input", in, "R:F:name"},
		{"nested", deep, "R:F:nc:deep"},
	}
	for _, tt := range tests {
		if got := tt.c.ClientID(ctx); got != tt.want {
			t.Errorf("%s: ClientID() = %q, want %q", tt.name, got, tt.want)
		}
	}

	form.SetPrependID(false)
	if got := in.ClientID(ctx); got != "R:name" {
		t.Errorf("without prependId: ClientID() = %q, want %q", got, "R:name")
	}
	if got := deep.ClientID(ctx); got != "R:nc:deep" {
		t.Errorf("without prependId: nested ClientID() = %q, want %q", got, "R:nc:deep")
	}
}

func TestClientIDChangesWithParent(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	a, b := NewForm(), NewForm()
	a.SetID("a")
	b.SetID("b")
	out := newOutput(t, "o")

	a.Children().Add(out)
	if got := out.ClientID(ctx); got != "a:o" {
		t.Fatalf("ClientID() = %q, want a:o", got)
	}
	b.Children().Add(out)
	if got := out.ClientID(ctx); got != "b:o" {
		t.Errorf("after move ClientID() = %q, want b:o", got)
	}
	out.SetID("p")
	if got := out.ClientID(ctx); got != "b:p" {
		t.Errorf("after SetID ClientID() = %q, want b:p", got)
	}
}

func TestGeneratedIDs(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	first, second := NewOutput(), NewOutput()
	vr.Children().Add(first, second)

	if got := first.ClientID(ctx); got != "j_id0" {
		t.Errorf("first generated id = %q, want j_id0", got)
	}
	if got := second.ClientID(ctx); got != "j_id1" {
		t.Errorf("second generated id = %q, want j_id1", got)
	}
}

func TestSetIDValidation(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"name", true},
		{"_x-1", true},
		{"a9", true},
		{"", false},
		{"1abc", false},
		{"a:b", false},
		{"a b", false},
	}
	for _, tt := range tests {
		err := NewOutput().SetID(tt.id)
		if tt.valid && err != nil {
			t.Errorf("SetID(%q) = %v, want nil", tt.id, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidID) {
			t.Errorf("SetID(%q) = %v, want ErrInvalidID", tt.id, err)
		}
	}
}

func buildFindTree(t *testing.T) (vr *ViewRoot, in *Input, out, deep *Output) {
	t.Helper()
	vr = NewViewRoot()
	form := NewForm()
	form.SetID("F")
	in = NewInput()
	in.SetID("name")
	panel := NewPanel()
	panel.SetID("p")
	out = newOutput(t, "o")
	panel.Children().Add(out)
	inner := NewNamingContainer()
	inner.SetID("inner")
	deep = newOutput(t, "deep")
	inner.Children().Add(deep)
	form.Children().Add(in, panel, inner)
	vr.Children().Add(form)
	return vr, in, out, deep
}

func TestFindComponent(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	_, in, out, deep := buildFindTree(t)

	tests := []struct {
		expr    string
		want    Component
		wantErr error
	}{
		{expr: "o", want: out},
		{expr: "name", want: in},
		{expr: "deep", want: nil},
		{expr: "inner:deep", want: deep},
		{expr: ":F:name", want: in},
		{expr: ":F:inner:deep", want: deep},
		{expr: "missing", want: nil},
		{expr: "", wantErr: ErrInvalidExpression},
		{expr: "inner::deep", wantErr: ErrInvalidExpression},
		{expr: "name:x", wantErr: ErrNotNamingContainer},
	}
	for _, tt := range tests {
		got, err := in.FindComponent(ctx, tt.expr)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("FindComponent(%q) error = %v, want %v", tt.expr, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("FindComponent(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestCheckDuplicateIDs(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr, _, _, _ := buildFindTree(t)
	if err := CheckDuplicateIDs(ctx, vr); err != nil {
		t.Fatalf("unique tree: %v", err)
	}

	form := vr.Children().At(0)
	form.Children().Add(newOutput(t, "name"))
	err := CheckDuplicateIDs(ctx, vr)
	var dup *DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("CheckDuplicateIDs() = %v, want *DuplicateIDError", err)
	}
	if diff := cmp.Diff([]string{"F:name"}, dup.ClientIDs); diff != "" {
		t.Errorf("duplicate ids mismatch (-want +got):\n%s", diff)
	}
}

func TestComponentStack(t *testing.T) {
	var s ComponentStack
	a, b, c := newOutput(t, "a"), newOutput(t, "b"), newOutput(t, "c")
	s.Push(a)
	s.Push(b)
	s.Push(c)

	s.Pop(newOutput(t, "stranger"))
	if s.Len() != 3 {
		t.Fatalf("popping an unknown component changed the stack: len %d", s.Len())
	}

	// Popping below the top unwinds everything above it.
	s.Pop(b)
	if s.Len() != 1 || s.Current() != Component(a) {
		t.Errorf("after Pop(b): len %d, current %v; want a alone", s.Len(), s.Current())
	}
	s.Pop(a)
	if s.Current() != nil {
		t.Error("empty stack has a current component")
	}
}

func TestComponentStackTracksComposite(t *testing.T) {
	var s ComponentStack
	outer := NewComposite(nil, "test.Outer")
	inner := NewComposite(nil, "test.Inner")
	plain := newOutput(t, "x")

	s.Push(outer)
	s.Push(plain)
	if s.CurrentComposite() != Component(outer) {
		t.Fatal("outer composite not current")
	}
	s.Push(inner)
	if s.CurrentComposite() != Component(inner) {
		t.Fatal("inner composite not current")
	}
	s.Pop(inner)
	if s.CurrentComposite() != Component(outer) {
		t.Error("popping the inner composite did not restore the outer one")
	}
	s.Pop(outer)
	if s.CurrentComposite() != nil {
		t.Error("composite left after popping everything")
	}
}

func TestCompositeParent(t *testing.T) {
	comp := NewComposite(nil, "test.Comp")
	panel := NewPanel()
	leaf := newOutput(t, "leaf")
	panel.Children().Add(leaf)
	comp.Children().Add(panel)

	if got := CompositeParent(leaf); got != Component(comp) {
		t.Errorf("CompositeParent(leaf) = %v, want the composite", got)
	}
	if got := CompositeParent(comp); got != nil {
		t.Errorf("CompositeParent(root composite) = %v, want nil", got)
	}
}

func TestVisitSkipsUnrendered(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	hidden := NewPanel()
	hidden.SetID("hidden")
	hidden.SetRendered(false)
	hidden.Children().Add(newOutput(t, "b"))
	vr.Children().Add(newOutput(t, "a"), hidden, newOutput(t, "c"))

	visit := func(hints VisitHint) []string {
		var got []string
		_, err := vr.VisitTree(NewVisitContext(ctx, hints), func(_ *VisitContext, c Component) (VisitResult, error) {
			if c != Component(vr) {
				got = append(got, c.ID())
			}
			return VisitAccept, nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return got
	}

	if diff := cmp.Diff([]string{"a", "hidden", "b", "c"}, visit(0)); diff != "" {
		t.Errorf("full visit mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "c"}, visit(SkipUnrendered)); diff != "" {
		t.Errorf("SkipUnrendered visit mismatch (-want +got):\n%s", diff)
	}
}

func TestPartialVisit(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr, _, _, _ := buildFindTree(t)

	var got []string
	done, err := vr.VisitTree(NewPartialVisitContext(ctx, []string{"F:inner:deep", "F:o"}, 0),
		func(vc *VisitContext, c Component) (VisitResult, error) {
			got = append(got, c.ClientID(vc.Context()))
			return VisitAccept, nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("visit did not report completion after finding every id")
	}
	if diff := cmp.Diff([]string{"F:o", "F:inner:deep"}, got); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
}

func TestVisitComplete(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr := NewViewRoot()
	vr.Children().Add(newOutput(t, "a"), newOutput(t, "b"))

	var got []string
	done, err := vr.VisitTree(NewVisitContext(ctx, 0), func(_ *VisitContext, c Component) (VisitResult, error) {
		if c == Component(vr) {
			return VisitAccept, nil
		}
		got = append(got, c.ID())
		return VisitComplete, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !done || len(got) != 1 {
		t.Errorf("VisitComplete: done=%v visited=%v; want one visit", done, got)
	}
}

func TestInvokeOnComponent(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	vr, _, _, deep := buildFindTree(t)

	var current Component
	found, err := vr.InvokeOnComponent(ctx, "F:inner:deep", func(ctx *Context, c Component) error {
		current = CurrentComponent(ctx)
		return nil
	})
	if err != nil || !found {
		t.Fatalf("InvokeOnComponent() = %v, %v; want found", found, err)
	}
	if current != Component(deep) {
		t.Errorf("current component during callback = %v, want deep", current)
	}
	if ctx.Stack().Len() != 0 {
		t.Errorf("stack not unwound: len %d", ctx.Stack().Len())
	}

	found, err = vr.InvokeOnComponent(ctx, "F:nope", func(*Context, Component) error { return nil })
	if err != nil || found {
		t.Errorf("missing id: found=%v err=%v", found, err)
	}
}
