package hxfaces

import (
	"strings"

	"go.uber.org/zap"
)

// FindComponent resolves a search expression relative to the component.
//
// A leading separator starts at the view root; otherwise the search starts at
// the closest naming container, the component itself included. Each
// separator-delimited segment is an id looked up below the previous match
// without entering nested naming containers, so every segment but the last
// must name a naming container. A miss returns nil without error.
func (b *Base) FindComponent(ctx *Context, expr string) (Component, error) {
	if expr == "" {
		return nil, ErrInvalidExpression
	}
	sep := ctx.Separator()

	var start Component = b.self
	if strings.HasPrefix(expr, sep) {
		for start.Parent() != nil {
			start = start.Parent()
		}
		expr = expr[len(sep):]
	} else {
		for c := Component(b.self); c != nil; c = c.Parent() {
			start = c
			if IsNamingContainer(c) {
				break
			}
		}
	}

	segments := strings.Split(expr, sep)
	current := start
	for i, id := range segments {
		if id == "" {
			return nil, ErrInvalidExpression
		}
		current = findByID(current, id, i == 0)
		if current == nil {
			return nil, nil
		}
		if i < len(segments)-1 && !IsNamingContainer(current) {
			return nil, ErrNotNamingContainer
		}
	}
	return current, nil
}

// findByID searches the facets and children of base, descending into
// everything but naming containers.
func findByID(base Component, id string, checkSelf bool) Component {
	if checkSelf && base.ID() == id {
		return base
	}
	for _, c := range append(base.Facets().All(), base.Children().All()...) {
		if c.ID() == id {
			return c
		}
		if !IsNamingContainer(c) {
			if found := findByID(c, id, false); found != nil {
				return found
			}
		}
	}
	return nil
}

// CheckDuplicateIDs walks the tree under root and reports client ids shared
// by several components as a *DuplicateIDError.
func CheckDuplicateIDs(ctx *Context, root Component) error {
	seen := make(map[string]int)
	var order []string
	_, err := root.VisitTree(NewVisitContext(ctx, 0), func(vc *VisitContext, c Component) (VisitResult, error) {
		id := c.ClientID(vc.Context())
		if seen[id] == 1 {
			order = append(order, id)
		}
		seen[id]++
		return VisitAccept, nil
	})
	if err != nil {
		return err
	}
	if len(order) > 0 {
		return &DuplicateIDError{ClientIDs: order}
	}
	return nil
}

// checkViewIDs applies the duplicate id policy of the project stage: an error
// in Development, a warning in Production.
func checkViewIDs(ctx *Context, root Component) error {
	err := CheckDuplicateIDs(ctx, root)
	if err == nil {
		return nil
	}
	if dup, ok := err.(*DuplicateIDError); ok && ctx.Config().ProjectStage != Development {
		Logger().Warn("duplicate component ids",
			zap.String("viewId", ctx.ViewID()),
			zap.Strings("clientIds", dup.ClientIDs))
		return nil
	}
	return err
}
