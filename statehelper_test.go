package hxfaces

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm/hxfaces/lib/encoding"
)

// roundTrip sends saved state through the wire codec.
func roundTrip(t *testing.T, saved SavedState) SavedState {
	t.Helper()
	data, err := encoding.Marshal(saved)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out SavedState
	if err := encoding.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return out
}

type transientHolder struct{}

func (transientHolder) SaveState(*Context) (any, error)  { return "never", nil }
func (transientHolder) RestoreState(*Context, any) error { return nil }
func (transientHolder) Transient() bool                  { return true }

type unregisteredHolder struct{}

func (unregisteredHolder) SaveState(*Context) (any, error)  { return nil, nil }
func (unregisteredHolder) RestoreState(*Context, any) error { return nil }
func (unregisteredHolder) Transient() bool                  { return false }

func TestStateHelperFullRoundTrip(t *testing.T) {
	h := NewStateHelper()
	h.Put("title", "Orders")
	h.Put("size", 25)
	h.Put("ratio", 0.5)
	h.Put("enabled", true)
	h.Put("tags", []string{"a", "b"})
	h.Add("items", "first")
	h.Add("items", 2)
	h.PutEntry("attrs", "class", "wide")
	h.Put("validator", &LengthValidator{Min: 2, Max: 10})

	ctx := NewContext(nil, nil, "test")
	saved, err := h.SaveState(ctx)
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	restored := NewStateHelper()
	if err := restored.RestoreState(ctx, roundTrip(t, saved)); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}

	tests := []struct {
		key  string
		want any
	}{
		{"title", "Orders"},
		{"size", 25},
		{"ratio", 0.5},
		{"enabled", true},
		{"tags", []string{"a", "b"}},
		{"items", []any{"first", 2}},
		{"attrs", map[string]any{"class": "wide"}},
		{"validator", &LengthValidator{Min: 2, Max: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, restored.Get(tt.key)); diff != "" {
				t.Errorf("Get(%q) mismatch (-want +got):\n%s", tt.key, diff)
			}
		})
	}
}

func TestStateHelperEmptySavesNil(t *testing.T) {
	saved, err := NewStateHelper().SaveState(NewContext(nil, nil, "test"))
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if saved != nil {
		t.Errorf("SaveState() = %v, want nil", saved)
	}
}

// buildBaseline returns a helper populated the way a view builder would,
// marked as its initial state.
func buildBaseline() *StateHelper {
	h := NewStateHelper()
	h.Put("title", "Orders")
	h.Put("hidden", true)
	h.Add("items", "a")
	h.Add("items", "b")
	h.PutEntry("attrs", "class", "wide")
	h.MarkInitialState()
	return h
}

func TestStateHelperUnchangedDeltaIsNil(t *testing.T) {
	saved, err := buildBaseline().SaveState(NewContext(nil, nil, "test"))
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if saved != nil {
		t.Errorf("SaveState() = %v, want nil", saved)
	}
}

func TestStateHelperDeltaRoundTrip(t *testing.T) {
	ctx := NewContext(nil, nil, "test")

	h := buildBaseline()
	h.Put("title", "Invoices")
	h.Remove("hidden")
	h.Put("page", 3)
	h.Add("items", "c")
	h.RemoveValue("items", "a")
	h.PutEntry("attrs", "style", "bold")
	h.RemoveValue("attrs", "class")

	saved, err := h.SaveState(ctx)
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if _, ok := saved["title"]; !ok {
		t.Error("delta does not carry the changed title")
	}

	restored := buildBaseline()
	if err := restored.RestoreState(ctx, roundTrip(t, saved)); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}

	check := func(t *testing.T, got *StateHelper) {
		t.Helper()
		if v := got.Get("title"); v != "Invoices" {
			t.Errorf("title = %v, want Invoices", v)
		}
		if got.Has("hidden") {
			t.Errorf("hidden = %v, want removed", got.Get("hidden"))
		}
		if v := got.Get("page"); v != 3 {
			t.Errorf("page = %v (%T), want int 3", v, v)
		}
		if diff := cmp.Diff([]any{"b", "c"}, got.List("items")); diff != "" {
			t.Errorf("items mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(map[string]any{"style": "bold"}, got.Entries("attrs")); diff != "" {
			t.Errorf("attrs mismatch (-want +got):\n%s", diff)
		}
	}
	check(t, restored)

	// The replayed delta is recorded again and carries over one more trip.
	again, err := restored.SaveState(ctx)
	if err != nil {
		t.Fatalf("second SaveState: %v", err)
	}
	third := buildBaseline()
	if err := third.RestoreState(ctx, roundTrip(t, again)); err != nil {
		t.Fatalf("second RestoreState: %v", err)
	}
	check(t, third)
}

func TestStateHelperClearInitialState(t *testing.T) {
	h := buildBaseline()
	h.ClearInitialState()
	if h.InitialStateMarked() {
		t.Fatal("still marked after ClearInitialState")
	}
	saved, err := h.SaveState(NewContext(nil, nil, "test"))
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if _, ok := saved["title"]; !ok {
		t.Error("baseline save misses unchanged values")
	}
}

func TestStateHelperSaveErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"closure", func() {}},
		{"value func", &ValueFunc{Get: func(*Context) (any, error) { return nil, nil }}},
		{"unregistered holder", unregisteredHolder{}},
		{"channel", make(chan int)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStateHelper()
			h.Put("v", tt.value)
			_, err := h.SaveState(NewContext(nil, nil, "test"))
			if !errors.Is(err, ErrNotSerializable) {
				t.Errorf("SaveState() error = %v, want ErrNotSerializable", err)
			}
		})
	}
}

func TestStateHelperDropsTransientHolders(t *testing.T) {
	h := NewStateHelper()
	h.Add("listeners", transientHolder{})
	h.Add("listeners", "kept")
	h.Put("single", transientHolder{})

	ctx := NewContext(nil, nil, "test")
	saved, err := h.SaveState(ctx)
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if _, ok := saved["single"]; ok {
		t.Error("transient holder saved")
	}

	restored := NewStateHelper()
	if err := restored.RestoreState(ctx, roundTrip(t, saved)); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	if diff := cmp.Diff([]any{"kept"}, restored.List("listeners")); diff != "" {
		t.Errorf("listeners mismatch (-want +got):\n%s", diff)
	}
}

// tallyHolder is a partial state holder whose state is a counter. Once marked
// it saves only when the counter moved.
type tallyHolder struct {
	n      int
	mark   int
	marked bool
}

func (h *tallyHolder) inc() { h.n++ }

func (h *tallyHolder) SaveState(*Context) (any, error) {
	if h.marked && h.n == h.mark {
		return nil, nil
	}
	return h.n, nil
}

func (h *tallyHolder) RestoreState(_ *Context, state any) error {
	if n, ok := state.(int); ok {
		h.n = n
	}
	return nil
}

func (*tallyHolder) Transient() bool            { return false }
func (h *tallyHolder) MarkInitialState()        { h.mark, h.marked = h.n, true }
func (h *tallyHolder) ClearInitialState()       { h.marked = false }
func (h *tallyHolder) InitialStateMarked() bool { return h.marked }

// buildTallies returns a marked helper holding tallies in a scalar, a list and
// a map slot.
func buildTallies() (*StateHelper, map[string]*tallyHolder) {
	tallies := map[string]*tallyHolder{
		"single": {}, "first": {}, "second": {}, "entry": {},
	}
	h := NewStateHelper()
	h.Put("single", tallies["single"])
	h.Add("list", "label")
	h.Add("list", tallies["first"])
	h.Add("list", tallies["second"])
	h.PutEntry("map", "x", tallies["entry"])
	h.MarkInitialState()
	return h, tallies
}

func TestStateHelperNestedHolderDeltas(t *testing.T) {
	ctx := NewContext(nil, nil, "test")

	h, tallies := buildTallies()
	tallies["single"].inc()
	tallies["second"].inc()
	tallies["second"].inc()
	tallies["entry"].inc()

	saved, err := h.SaveState(ctx)
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	for _, key := range []string{"single", "list", "map"} {
		if _, ok := saved[key]; !ok {
			t.Errorf("delta misses the holders under %q", key)
		}
	}

	want := map[string]int{"single": 1, "first": 0, "second": 2, "entry": 1}
	check := func(t *testing.T, got map[string]int) {
		t.Helper()
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("tallies mismatch (-want +got):\n%s", diff)
		}
	}
	counts := func(tallies map[string]*tallyHolder) map[string]int {
		out := make(map[string]int, len(tallies))
		for name, th := range tallies {
			out[name] = th.n
		}
		return out
	}

	restored, restoredTallies := buildTallies()
	if err := restored.RestoreState(ctx, roundTrip(t, saved)); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	check(t, counts(restoredTallies))
	if got := restored.List("list")[2]; got != any(restoredTallies["second"]) {
		t.Errorf("list item replaced by %v, want the baseline holder restored in place", got)
	}

	again, err := restored.SaveState(ctx)
	if err != nil {
		t.Fatalf("second SaveState: %v", err)
	}
	third, thirdTallies := buildTallies()
	if err := third.RestoreState(ctx, roundTrip(t, again)); err != nil {
		t.Fatalf("second RestoreState: %v", err)
	}
	check(t, counts(thirdTallies))
}

func TestStateHelperDeltaSkipsTransientAdditions(t *testing.T) {
	tests := []struct {
		name   string
		change func(h *StateHelper)
		want   []any
	}{
		{
			name: "removal after a transient addition",
			change: func(h *StateHelper) {
				h.Add("items", transientHolder{})
				h.Add("items", "c")
				h.RemoveValue("items", "c")
			},
			want: []any{"a", "b"},
		},
		{
			name: "removal before a transient addition",
			change: func(h *StateHelper) {
				h.Add("items", transientHolder{})
				h.RemoveValue("items", "a")
				h.Add("items", "c")
			},
			want: []any{"b", "c"},
		},
		{
			name: "removal of the transient addition",
			change: func(h *StateHelper) {
				h.Add("items", transientHolder{})
				h.RemoveValue("items", transientHolder{})
				h.Add("items", "c")
			},
			want: []any{"a", "b", "c"},
		},
		{
			name: "replaced list with a transient item",
			change: func(h *StateHelper) {
				h.Put("items", []any{transientHolder{}, "x", "y"})
				h.RemoveValue("items", "y")
			},
			want: []any{"x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(nil, nil, "test")
			h := buildBaseline()
			tt.change(h)

			saved, err := h.SaveState(ctx)
			if err != nil {
				t.Fatalf("SaveState: %v", err)
			}
			restored := buildBaseline()
			if err := restored.RestoreState(ctx, roundTrip(t, saved)); err != nil {
				t.Fatalf("RestoreState: %v", err)
			}
			if diff := cmp.Diff(tt.want, restored.List("items")); diff != "" {
				t.Errorf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStateHelperEval(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	out := NewOutput()
	out.SetValueExpression("value", &ValueFunc{
		Get: func(*Context) (any, error) { return "from model", nil },
	})

	if got := out.Value(ctx); got != "from model" {
		t.Errorf("Value() = %v, want the expression value", got)
	}
	out.SetValue("local")
	if got := out.Value(ctx); got != "local" {
		t.Errorf("Value() = %v, want the local value to win", got)
	}
}
