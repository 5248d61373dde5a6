package hxfaces

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pthm/hxfaces/lib/encoding"
	"github.com/pthm/hxfaces/lib/store"
)

// SavedView is the saved form of a component tree.
type SavedView struct {
	ViewID  string      `msgpack:"v"`
	Partial bool        `msgpack:"p,omitempty"`
	Root    *SavedNode  `msgpack:"r"`
	ViewMap *StateValue `msgpack:"m,omitempty"`
}

// SavedNode is one saved component. Full nodes carry their complete state and
// are recreated from the component factories; other nodes carry the changes
// since the baseline built by the view's ViewBuilder.
type SavedNode struct {
	Type     string       `msgpack:"t"`
	ID       string       `msgpack:"i"`
	Facet    string       `msgpack:"f,omitempty"`
	Full     bool         `msgpack:"u,omitempty"`
	State    SavedState   `msgpack:"s,omitempty"`
	Children []*SavedNode `msgpack:"c,omitempty"`
	Facets   []*SavedNode `msgpack:"a,omitempty"`
}

// StateManager saves views at the end of a request and restores them on
// postback. Client state saving returns the whole saved view as a signed (or
// encrypted) token; server state saving keeps it in a Store under a random
// token.
type StateManager struct {
	app *Application
}

// SaveView saves the current view. Transient components are left out.
func (m *StateManager) SaveView(ctx *Context) (*SavedView, error) {
	vr := ctx.ViewRoot()
	if vr == nil {
		return nil, illegalState("no view to save")
	}
	assignIDs(ctx, vr.self)
	if err := checkViewIDs(ctx, vr.self); err != nil {
		return nil, err
	}

	root, err := saveNode(ctx, vr.self, "")
	if err != nil {
		return nil, err
	}
	saved := &SavedView{
		ViewID:  vr.ViewID(),
		Partial: m.app.config.PartialStateSaving,
		Root:    root,
	}
	if m.app.viewScope == nil && len(vr.viewMap) > 0 {
		sv, err := saveAttached(ctx, vr.viewMap)
		if err != nil {
			return nil, fmt.Errorf("view map: %w", err)
		}
		saved.ViewMap = sv
	}
	return saved, nil
}

func saveNode(ctx *Context, c Component, facet string) (*SavedNode, error) {
	state, err := c.SaveState(ctx)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", c.ClientID(ctx), err)
	}
	n := &SavedNode{
		Type:  c.ComponentType(),
		ID:    c.ID(),
		Facet: facet,
		Full:  !c.InitialStateMarked(),
		State: state,
	}
	facets := c.Facets()
	for _, name := range facets.Names() {
		f := facets.Get(name)
		if f.Transient() {
			continue
		}
		fn, err := saveNode(ctx, f, name)
		if err != nil {
			return nil, err
		}
		n.Facets = append(n.Facets, fn)
	}
	for _, child := range c.Children().All() {
		if child.Transient() {
			continue
		}
		cn, err := saveNode(ctx, child, "")
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, cn)
	}
	return n, nil
}

// RestoreView rebuilds the view viewID from saved. Partial saves rebuild the
// baseline with the view's builder and apply the saved changes by id; full
// saves recreate every component from the factories.
func (m *StateManager) RestoreView(ctx *Context, viewID string, saved *SavedView) (*ViewRoot, error) {
	if saved == nil || saved.Root == nil {
		return nil, fmt.Errorf("%w: %q", ErrViewExpired, viewID)
	}
	if saved.ViewID != viewID {
		return nil, fmt.Errorf("%w: state of %q posted to %q", ErrViewExpired, saved.ViewID, viewID)
	}

	var vr *ViewRoot
	if saved.Partial {
		built, err := m.app.CreateView(ctx, viewID)
		if err != nil {
			return nil, err
		}
		vr = built
		ctx.SetViewRoot(vr)
		if err := m.reconcile(ctx, vr.self, saved.Root); err != nil {
			return nil, err
		}
	} else {
		c, err := m.build(ctx, saved.Root)
		if err != nil {
			return nil, err
		}
		root, ok := RootOf(c)
		if !ok {
			return nil, fmt.Errorf("%w: saved root is a %s", ErrInvalidFormat, saved.Root.Type)
		}
		vr = root
		ctx.SetViewRoot(vr)
	}

	if saved.ViewMap != nil {
		v, err := restoreAttached(ctx, saved.ViewMap)
		if err != nil {
			return nil, fmt.Errorf("view map: %w", err)
		}
		vr.viewMap, _ = v.(map[string]any)
	}
	return vr, nil
}

// build creates a component and its subtree from full saved nodes.
func (m *StateManager) build(ctx *Context, n *SavedNode) (Component, error) {
	c, err := m.app.CreateComponent(n.Type)
	if err != nil {
		return nil, err
	}
	if n.ID != "" {
		if err := c.SetID(n.ID); err != nil {
			return nil, err
		}
	}
	if err := c.RestoreState(ctx, n.State); err != nil {
		return nil, fmt.Errorf("component %s: %w", n.ID, err)
	}
	for _, fn := range n.Facets {
		f, err := m.build(ctx, fn)
		if err != nil {
			return nil, err
		}
		c.Facets().Set(fn.Facet, f)
	}
	for _, cn := range n.Children {
		child, err := m.build(ctx, cn)
		if err != nil {
			return nil, err
		}
		c.Children().Add(child)
	}
	return c, nil
}

// reconcile applies the saved node n to the baseline component c. Saved
// children matching a baseline child by id get its delta; others are built
// from full state. Baseline children missing from n were removed, except
// transient ones, which were never saved and keep their position.
func (m *StateManager) reconcile(ctx *Context, c Component, n *SavedNode) error {
	if err := c.RestoreState(ctx, n.State); err != nil {
		return fmt.Errorf("component %s: %w", n.ID, err)
	}

	facets := c.Facets()
	for _, name := range facets.Names() {
		if !facets.Get(name).Transient() && !hasFacet(n.Facets, name) {
			facets.Remove(name)
		}
	}
	for _, fn := range n.Facets {
		existing := facets.Get(fn.Facet)
		if existing != nil && !fn.Full && existing.ID() == fn.ID {
			if err := m.reconcile(ctx, existing, fn); err != nil {
				return err
			}
			continue
		}
		f, err := m.build(ctx, fn)
		if err != nil {
			return err
		}
		facets.Set(fn.Facet, f)
	}

	baseline := c.Children().All()
	byID := make(map[string]Component, len(baseline))
	for _, child := range baseline {
		byID[child.ID()] = child
	}
	next := make([]Component, 0, len(n.Children))
	for _, cn := range n.Children {
		if existing, ok := byID[cn.ID]; ok && !cn.Full && !existing.Transient() {
			if err := m.reconcile(ctx, existing, cn); err != nil {
				return err
			}
			next = append(next, existing)
			continue
		}
		child, err := m.build(ctx, cn)
		if err != nil {
			return err
		}
		next = append(next, child)
	}
	for i, child := range baseline {
		if !child.Transient() {
			continue
		}
		at := min(i, len(next))
		next = append(next[:at], append([]Component{child}, next[at:]...)...)
	}

	c.Children().Clear()
	c.Children().Add(next...)
	return nil
}

func hasFacet(nodes []*SavedNode, name string) bool {
	for _, n := range nodes {
		if n.Facet == name {
			return true
		}
	}
	return false
}

// WriteState turns saved into the token sent with the response.
func (m *StateManager) WriteState(ctx *Context, saved *SavedView) (string, error) {
	data, err := encoding.Marshal(saved)
	if err != nil {
		return "", fmt.Errorf("hxfaces: encode view state: %w", err)
	}
	if m.app.config.StateSaving == StateSavingServer {
		token := uuid.NewString()
		if err := m.app.store.Put(token, data); err != nil {
			return "", fmt.Errorf("hxfaces: store view state: %w", err)
		}
		return token, nil
	}
	token, err := m.app.encoder.Seal(data, m.app.config.SensitiveState)
	if err != nil {
		return "", wrapEncodingError(err)
	}
	return token, nil
}

// ReadState returns the saved view of a token written by WriteState. Tokens
// whose server state is gone fail with ErrViewExpired; tampered client tokens
// with ErrSignatureInvalid or ErrDecryptFailed.
func (m *StateManager) ReadState(ctx *Context, token string) (*SavedView, error) {
	if token == "" {
		return nil, ErrViewExpired
	}
	var data []byte
	if m.app.config.StateSaving == StateSavingServer {
		if _, err := uuid.Parse(token); err != nil {
			return nil, ErrInvalidFormat
		}
		b, err := m.app.store.Get(token)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrViewExpired, ctx.ViewID())
		}
		if err != nil {
			return nil, fmt.Errorf("hxfaces: load view state: %w", err)
		}
		data = b
	} else {
		b, err := m.app.encoder.Open(token, m.app.config.SensitiveState)
		if err != nil {
			return nil, wrapEncodingError(err)
		}
		data = b
	}

	var saved SavedView
	if err := encoding.Unmarshal(data, &saved); err != nil {
		return nil, wrapEncodingError(err)
	}
	return &saved, nil
}
