package hxfaces

import (
	"fmt"

	"go.uber.org/zap"
)

// StateHelper stores the properties of a component.
//
// A helper starts in baseline mode, where SaveState captures every value.
// MarkInitialState switches it to delta mode: reads still see the full current
// values, but SaveState only carries what changed since the mark. A fresh
// helper built the same way, marked, and given that delta through RestoreState
// ends up with the same values.
//
// Slots hold one of three shapes: a scalar (Put/Remove), a list (Add/RemoveValue)
// or a map (PutEntry/RemoveValue). Values that implement StateHolder are saved
// through their own SaveState.
type StateHelper struct {
	owner   *Base
	values  map[string]any
	overlay *overlay // nil in baseline mode
}

// overlay records changes made after MarkInitialState.
type overlay struct {
	changes map[string]*change
	order   []string
}

type change struct {
	replaced bool
	value    any
	ops      []listOp
	entries  map[string]entryChange
}

// listOp is one Add or removeAt. index is the position in the live list: the
// appended position for an add, the removed position otherwise.
type listOp struct {
	add   bool
	value any
	index int
}

type entryChange struct {
	value   any
	removed bool
}

// NewStateHelper returns a helper in baseline mode. Components get one
// automatically; standalone helpers are useful for custom state holders.
func NewStateHelper() *StateHelper {
	return &StateHelper{values: make(map[string]any)}
}

func newComponentStateHelper(owner *Base) *StateHelper {
	return &StateHelper{owner: owner, values: make(map[string]any)}
}

func (o *overlay) change(key string) *change {
	c, ok := o.changes[key]
	if !ok {
		c = &change{}
		o.changes[key] = c
		o.order = append(o.order, key)
	}
	return c
}

// Get returns the local value stored under key.
func (h *StateHelper) Get(key string) any {
	return h.values[key]
}

// Has reports whether a local value is stored under key.
func (h *StateHelper) Has(key string) bool {
	_, ok := h.values[key]
	return ok
}

// Eval returns the local value, or the value of the owner's value expression
// of the same name, or def. The default is never stored.
func (h *StateHelper) Eval(ctx *Context, key string, def any) any {
	return h.EvalFunc(ctx, key, func() any { return def })
}

// EvalFunc is Eval with a lazily computed default.
func (h *StateHelper) EvalFunc(ctx *Context, key string, def func() any) any {
	if v, ok := h.values[key]; ok {
		return v
	}
	if h.owner != nil && ctx != nil {
		if ve := h.owner.ValueExpression(key); ve != nil {
			v, err := ve.Value(ctx)
			if err != nil {
				Logger().Warn("value expression failed",
					zap.String("property", key),
					zap.String("expression", ve.ExpressionString()),
					zap.Error(err))
			} else if v != nil {
				return v
			}
		}
	}
	if def == nil {
		return nil
	}
	return def()
}

// Put stores a scalar value and returns the previous one. A nil value removes
// the slot.
func (h *StateHelper) Put(key string, v any) any {
	prev := h.values[key]
	if v == nil {
		delete(h.values, key)
	} else {
		h.values[key] = v
	}
	if h.overlay != nil {
		c := h.overlay.change(key)
		c.replaced = true
		c.value = v
		c.ops = nil
		c.entries = nil
	}
	return prev
}

// Remove deletes the slot and returns its previous value.
func (h *StateHelper) Remove(key string) any {
	return h.Put(key, nil)
}

// Add appends v to the list slot under key.
func (h *StateHelper) Add(key string, v any) {
	list, _ := h.values[key].([]any)
	grown := make([]any, len(list), len(list)+1)
	copy(grown, list)
	h.values[key] = append(grown, v)
	if h.overlay != nil {
		c := h.overlay.change(key)
		c.ops = append(c.ops, listOp{add: true, value: v, index: len(list)})
	}
}

// List returns a copy of the list slot under key.
func (h *StateHelper) List(key string) []any {
	list, _ := h.values[key].([]any)
	if len(list) == 0 {
		return nil
	}
	return append([]any(nil), list...)
}

// PutEntry stores v under mapKey in the map slot under key and returns the
// previous entry.
func (h *StateHelper) PutEntry(key, mapKey string, v any) any {
	m, _ := h.values[key].(map[string]any)
	next := make(map[string]any, len(m)+1)
	for k, e := range m {
		next[k] = e
	}
	prev := next[mapKey]
	next[mapKey] = v
	h.values[key] = next
	if h.overlay != nil {
		c := h.overlay.change(key)
		if c.entries == nil {
			c.entries = make(map[string]entryChange)
		}
		c.entries[mapKey] = entryChange{value: v}
	}
	return prev
}

// Entry returns one entry of the map slot under key.
func (h *StateHelper) Entry(key, mapKey string) any {
	m, _ := h.values[key].(map[string]any)
	return m[mapKey]
}

// Entries returns a copy of the map slot under key.
func (h *StateHelper) Entries(key string) map[string]any {
	m, _ := h.values[key].(map[string]any)
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RemoveValue removes v from the list slot under key, or the entry named v from
// the map slot under key. It returns the removed value, or nil.
func (h *StateHelper) RemoveValue(key string, v any) any {
	switch slot := h.values[key].(type) {
	case []any:
		for i, item := range slot {
			if sameValue(item, v) {
				return h.removeAt(key, i)
			}
		}
	case map[string]any:
		mapKey, ok := v.(string)
		if !ok {
			return nil
		}
		prev, ok := slot[mapKey]
		if !ok {
			return nil
		}
		next := make(map[string]any, len(slot))
		for k, e := range slot {
			if k != mapKey {
				next[k] = e
			}
		}
		h.values[key] = next
		if h.overlay != nil {
			c := h.overlay.change(key)
			if c.entries == nil {
				c.entries = make(map[string]entryChange)
			}
			c.entries[mapKey] = entryChange{removed: true}
		}
		return prev
	}
	return nil
}

func (h *StateHelper) removeAt(key string, i int) any {
	list, _ := h.values[key].([]any)
	if i < 0 || i >= len(list) {
		return nil
	}
	removed := list[i]
	next := make([]any, 0, len(list)-1)
	next = append(next, list[:i]...)
	next = append(next, list[i+1:]...)
	h.values[key] = next
	if h.overlay != nil {
		c := h.overlay.change(key)
		c.ops = append(c.ops, listOp{index: i})
	}
	return removed
}

// MarkInitialState makes the current values the baseline. From now on only
// changes are saved. Nested partial state holders are marked as well.
func (h *StateHelper) MarkInitialState() {
	h.overlay = &overlay{changes: make(map[string]*change)}
	h.forEachHolder(func(p PartialStateHolder) { p.MarkInitialState() })
}

// ClearInitialState returns to baseline mode and drops recorded changes.
func (h *StateHelper) ClearInitialState() {
	h.overlay = nil
	h.forEachHolder(func(p PartialStateHolder) { p.ClearInitialState() })
}

// InitialStateMarked reports whether the helper is in delta mode.
func (h *StateHelper) InitialStateMarked() bool {
	return h.overlay != nil
}

func (h *StateHelper) forEachHolder(fn func(PartialStateHolder)) {
	for _, v := range h.values {
		switch x := v.(type) {
		case PartialStateHolder:
			fn(x)
		case []any:
			for _, item := range x {
				if p, ok := item.(PartialStateHolder); ok {
					fn(p)
				}
			}
		case map[string]any:
			for _, item := range x {
				if p, ok := item.(PartialStateHolder); ok {
					fn(p)
				}
			}
		}
	}
}

// SaveState returns the full values in baseline mode and only the changes in
// delta mode. It returns nil when there is nothing to save.
func (h *StateHelper) SaveState(ctx *Context) (SavedState, error) {
	if h.overlay == nil {
		return h.saveFull(ctx)
	}
	return h.saveDelta(ctx)
}

func (h *StateHelper) saveFull(ctx *Context) (SavedState, error) {
	if len(h.values) == 0 {
		return nil, nil
	}
	saved := make(SavedState, len(h.values))
	for k, v := range h.values {
		sv, err := saveAttached(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		if sv != nil {
			saved[k] = sv
		}
	}
	if len(saved) == 0 {
		return nil, nil
	}
	return saved, nil
}

func (h *StateHelper) saveDelta(ctx *Context) (SavedState, error) {
	saved := make(SavedState)
	for _, k := range h.overlay.order {
		c := h.overlay.changes[k]
		sv, err := saveChange(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		if sv != nil {
			saved[k] = sv
		}
	}

	// Holders marked with the baseline track their own deltas.
	for k, v := range h.values {
		if _, changed := h.overlay.changes[k]; changed {
			continue
		}
		sv, err := saveHolderDeltas(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		if sv != nil {
			saved[k] = sv
		}
	}

	if len(saved) == 0 {
		return nil, nil
	}
	return saved, nil
}

// saveHolderDeltas saves the changes of the marked partial state holders in an
// unchanged slot: the holder itself, or the holders among the items of a list
// or map slot by index or key. It returns nil when none changed.
func saveHolderDeltas(ctx *Context, v any) (*StateValue, error) {
	switch x := v.(type) {
	case PartialStateHolder:
		return saveHolderDelta(ctx, x)
	case []any:
		var sv *StateValue
		for i, item := range x {
			p, ok := item.(PartialStateHolder)
			if !ok {
				continue
			}
			d, err := saveHolderDelta(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			if d == nil {
				continue
			}
			if sv == nil {
				sv = &StateValue{Kind: kindNestedDelta}
			}
			d.Index = i
			sv.Items = append(sv.Items, d)
		}
		return sv, nil
	case map[string]any:
		var sv *StateValue
		for k, item := range x {
			p, ok := item.(PartialStateHolder)
			if !ok {
				continue
			}
			d, err := saveHolderDelta(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", k, err)
			}
			if d == nil {
				continue
			}
			if sv == nil {
				sv = &StateValue{Kind: kindNestedDelta, Entries: make(map[string]*StateValue)}
			}
			sv.Entries[k] = d
		}
		return sv, nil
	}
	return nil, nil
}

func saveHolderDelta(ctx *Context, p PartialStateHolder) (*StateValue, error) {
	if p.Transient() || !p.InitialStateMarked() {
		return nil, nil
	}
	st, err := p.SaveState(ctx)
	if err != nil || st == nil {
		return nil, err
	}
	inner, err := saveAttached(ctx, st)
	if err != nil {
		return nil, err
	}
	return &StateValue{Kind: kindHolderDelta, Inner: inner}, nil
}

func isTransient(v any) bool {
	h, ok := v.(StateHolder)
	return ok && h.Transient()
}

func saveChange(ctx *Context, c *change) (*StateValue, error) {
	if c.replaced && len(c.ops) == 0 && len(c.entries) == 0 {
		if c.value == nil {
			return &StateValue{Kind: kindRemoved}, nil
		}
		return saveAttached(ctx, c.value)
	}

	sv := &StateValue{Kind: kindDelta}
	if c.replaced {
		if c.value == nil {
			sv.Inner = &StateValue{Kind: kindRemoved}
		} else {
			inner, err := saveAttached(ctx, c.value)
			if err != nil {
				return nil, err
			}
			sv.Inner = inner
		}
	}

	// Live positions of transient items that are not saved. Removal indexes
	// are shifted down past them, and removals of them are dropped.
	var dropped []int
	if list, ok := c.value.([]any); ok && c.replaced {
		for i, item := range list {
			if isTransient(item) {
				dropped = append(dropped, i)
			}
		}
	}
	for _, op := range c.ops {
		if op.add {
			v, err := saveAttached(ctx, op.value)
			if err != nil {
				return nil, err
			}
			if v == nil {
				dropped = append(dropped, op.index)
				continue
			}
			sv.Items = append(sv.Items, &StateValue{Kind: kindListAdd, Inner: v})
			continue
		}

		shift, self := 0, false
		kept := dropped[:0]
		for _, d := range dropped {
			switch {
			case d < op.index:
				shift++
				kept = append(kept, d)
			case d == op.index:
				self = true
			default:
				kept = append(kept, d-1)
			}
		}
		dropped = kept
		if !self {
			sv.Items = append(sv.Items, &StateValue{Kind: kindListRemove, Index: op.index - shift})
		}
	}
	if len(c.entries) > 0 {
		sv.Entries = make(map[string]*StateValue, len(c.entries))
		for k, e := range c.entries {
			if e.removed {
				sv.Entries[k] = &StateValue{Kind: kindRemoved}
				continue
			}
			v, err := saveAttached(ctx, e.value)
			if err != nil {
				return nil, err
			}
			if v != nil {
				sv.Entries[k] = v
			}
		}
	}
	return sv, nil
}

// RestoreState applies saved state. In baseline mode the saved values replace
// everything; in delta mode they are replayed on top of the baseline and
// recorded again so they survive the next save.
func (h *StateHelper) RestoreState(ctx *Context, saved SavedState) error {
	if saved == nil {
		return nil
	}
	if h.overlay == nil {
		h.values = make(map[string]any, len(saved))
	}
	for k, sv := range saved {
		if err := h.apply(ctx, k, sv); err != nil {
			return fmt.Errorf("property %q: %w", k, err)
		}
	}
	return nil
}

func (h *StateHelper) apply(ctx *Context, key string, sv *StateValue) error {
	if sv == nil {
		return nil
	}
	switch sv.Kind {
	case kindRemoved:
		h.Remove(key)
		return nil
	case kindHolderDelta:
		existing, ok := h.values[key].(StateHolder)
		if !ok {
			return illegalState("no state holder under %q to restore into", key)
		}
		inner, err := restoreAttached(ctx, sv.Inner)
		if err != nil {
			return err
		}
		return existing.RestoreState(ctx, inner)
	case kindNestedDelta:
		return h.applyNested(ctx, key, sv)
	case kindDelta:
		if sv.Inner != nil {
			if sv.Inner.Kind == kindRemoved {
				h.Remove(key)
			} else {
				v, err := restoreAttached(ctx, sv.Inner)
				if err != nil {
					return err
				}
				h.Put(key, v)
			}
		}
		for _, op := range sv.Items {
			switch op.Kind {
			case kindListAdd:
				v, err := restoreAttached(ctx, op.Inner)
				if err != nil {
					return err
				}
				h.Add(key, v)
			case kindListRemove:
				h.removeAt(key, op.Index)
			default:
				return fmt.Errorf("%w: unexpected list operation %d", ErrInvalidFormat, op.Kind)
			}
		}
		for k, e := range sv.Entries {
			if e.Kind == kindRemoved {
				h.RemoveValue(key, k)
				continue
			}
			v, err := restoreAttached(ctx, e)
			if err != nil {
				return err
			}
			h.PutEntry(key, k, v)
		}
		return nil
	}

	v, err := restoreAttached(ctx, sv)
	if err != nil {
		return err
	}
	h.Put(key, v)
	return nil
}

// applyNested restores holder deltas into the items of the list or map slot
// under key. The slot itself is not recorded as changed.
func (h *StateHelper) applyNested(ctx *Context, key string, sv *StateValue) error {
	restore := func(item any, d *StateValue) error {
		p, ok := item.(StateHolder)
		if !ok || d == nil || d.Kind != kindHolderDelta {
			return illegalState("no state holder in %q to restore into", key)
		}
		inner, err := restoreAttached(ctx, d.Inner)
		if err != nil {
			return err
		}
		return p.RestoreState(ctx, inner)
	}

	switch slot := h.values[key].(type) {
	case []any:
		for _, d := range sv.Items {
			if d == nil || d.Index < 0 || d.Index >= len(slot) {
				return illegalState("no list item to restore into in %q", key)
			}
			if err := restore(slot[d.Index], d); err != nil {
				return err
			}
		}
	case map[string]any:
		for k, d := range sv.Entries {
			if err := restore(slot[k], d); err != nil {
				return err
			}
		}
	default:
		return illegalState("no list or map under %q to restore into", key)
	}
	return nil
}
