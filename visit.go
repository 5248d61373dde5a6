package hxfaces

import "strings"

// VisitHint tunes a tree visit.
type VisitHint uint8

const (
	// SkipUnrendered prunes components whose Rendered is false.
	SkipUnrendered VisitHint = 1 << iota
	// SkipTransient prunes transient components.
	SkipTransient
	// ExecuteLifecycle marks visits that run lifecycle phases, letting forms
	// decode themselves and skip when they were not submitted.
	ExecuteLifecycle
)

// VisitResult tells VisitTree how to continue after a callback.
type VisitResult int

const (
	// VisitAccept continues into the component's facets and children.
	VisitAccept VisitResult = iota
	// VisitReject skips the component's subtree.
	VisitReject
	// VisitComplete stops the whole traversal.
	VisitComplete
)

func (r VisitResult) String() string {
	switch r {
	case VisitAccept:
		return "Accept"
	case VisitReject:
		return "Reject"
	case VisitComplete:
		return "Complete"
	}
	return "VisitResult(?)"
}

// VisitCallback is invoked for every visited component.
type VisitCallback func(vc *VisitContext, c Component) (VisitResult, error)

// ContextCallback is invoked by InvokeOnComponent on the matched component.
type ContextCallback func(ctx *Context, c Component) error

// VisitContext carries the state of one traversal. A full visit invokes the
// callback on every visitable component; a partial visit only on the
// components whose client ids were requested, and completes as soon as all of
// them were seen.
type VisitContext struct {
	ctx       *Context
	hints     VisitHint
	remaining map[string]struct{} // nil for full visits
}

// NewVisitContext creates a full visit.
func NewVisitContext(ctx *Context, hints VisitHint) *VisitContext {
	return &VisitContext{ctx: ctx, hints: hints}
}

// NewPartialVisitContext creates a visit restricted to clientIDs.
func NewPartialVisitContext(ctx *Context, clientIDs []string, hints VisitHint) *VisitContext {
	remaining := make(map[string]struct{}, len(clientIDs))
	for _, id := range clientIDs {
		remaining[id] = struct{}{}
	}
	return &VisitContext{ctx: ctx, hints: hints, remaining: remaining}
}

func (vc *VisitContext) Context() *Context { return vc.ctx }

func (vc *VisitContext) Hints() VisitHint { return vc.hints }

// Has reports whether hint is set.
func (vc *VisitContext) Has(hint VisitHint) bool { return vc.hints&hint != 0 }

// Partial reports whether the visit is restricted to a set of client ids.
func (vc *VisitContext) Partial() bool { return vc.remaining != nil }

// IDsToVisit returns the client ids not visited yet. It returns nil for full
// visits.
func (vc *VisitContext) IDsToVisit() []string {
	if vc.remaining == nil {
		return nil
	}
	ids := make([]string, 0, len(vc.remaining))
	for id := range vc.remaining {
		ids = append(ids, id)
	}
	return ids
}

// SubtreeIDsToVisit returns the pending client ids below the naming container
// nc. all is true for full visits, where every descendant is of interest.
func (vc *VisitContext) SubtreeIDsToVisit(nc Component) (ids []string, all bool) {
	if vc.remaining == nil {
		return nil, true
	}
	prefix := nc.ContainerClientID(vc.ctx)
	if prefix == "" {
		return vc.IDsToVisit(), false
	}
	prefix += vc.ctx.Separator()
	for id := range vc.remaining {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	return ids, false
}

// invoke calls cb for c if c is part of the visit.
func (vc *VisitContext) invoke(c Component, cb VisitCallback) (VisitResult, error) {
	if vc.remaining == nil {
		return cb(vc, c)
	}
	id := c.ClientID(vc.ctx)
	if _, ok := vc.remaining[id]; !ok {
		return VisitAccept, nil
	}
	delete(vc.remaining, id)
	res, err := cb(vc, c)
	if err != nil {
		return res, err
	}
	if len(vc.remaining) == 0 {
		return VisitComplete, nil
	}
	return res, nil
}

func (b *Base) visitable(vc *VisitContext) bool {
	if vc.Has(SkipTransient) && b.transient {
		return false
	}
	if vc.Has(SkipUnrendered) && !b.self.Rendered(vc.ctx) {
		return false
	}
	return true
}

// VisitTree visits the component, then its facets, then its children. It
// returns true once the traversal completed, which stops all callers up the
// tree. Naming containers skip their subtree in partial visits when no
// requested id lives below them.
func (b *Base) VisitTree(vc *VisitContext, cb VisitCallback) (bool, error) {
	if !b.visitable(vc) {
		return false, nil
	}
	b.self.PushComponentToEL(vc.ctx)
	defer b.self.PopComponentFromEL(vc.ctx)

	res, err := vc.invoke(b.self, cb)
	if err != nil {
		return true, err
	}
	switch res {
	case VisitComplete:
		return true, nil
	case VisitReject:
		return false, nil
	}

	if vc.Partial() && IsNamingContainer(b.self) {
		if ids, _ := vc.SubtreeIDsToVisit(b.self); len(ids) == 0 {
			return false, nil
		}
	}
	return b.visitFacetsAndChildren(vc, cb)
}

func (b *Base) visitFacetsAndChildren(vc *VisitContext, cb VisitCallback) (bool, error) {
	for _, c := range b.facets.All() {
		if done, err := c.VisitTree(vc, cb); done || err != nil {
			return done, err
		}
	}
	for _, c := range b.children.All() {
		if done, err := c.VisitTree(vc, cb); done || err != nil {
			return done, err
		}
	}
	return false, nil
}

// InvokeOnComponent finds the component with clientID in the subtree and runs
// cb on it with the component pushed on the stack. It reports whether the
// component was found.
func (b *Base) InvokeOnComponent(ctx *Context, clientID string, cb ContextCallback) (bool, error) {
	if b.self.ClientID(ctx) == clientID {
		b.self.PushComponentToEL(ctx)
		defer b.self.PopComponentFromEL(ctx)
		return true, cb(ctx, b.self)
	}
	for _, c := range b.facets.All() {
		if found, err := c.InvokeOnComponent(ctx, clientID, cb); found || err != nil {
			return found, err
		}
	}
	for _, c := range b.children.All() {
		if found, err := c.InvokeOnComponent(ctx, clientID, cb); found || err != nil {
			return found, err
		}
	}
	return false, nil
}
