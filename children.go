package hxfaces

import "fmt"

// ChildList is the ordered child collection of a component. Every mutation
// keeps parent pointers in sync: a component added here is first removed from
// wherever it was attached before, so it never has two parents.
//
// Adding nil, or adding a component to its own subtree, panics.
type ChildList struct {
	owner *Base
	items []Component
}

// Add appends components in order.
func (l *ChildList) Add(cs ...Component) {
	for _, c := range cs {
		l.Insert(len(l.items), c)
	}
}

// Insert places c at index i, shifting later children. If c already is a
// child of this list it moves; i then refers to positions after its removal.
func (l *ChildList) Insert(i int, c Component) {
	l.owner.checkAttach(c)
	n := len(l.items)
	if l.IndexOf(c) >= 0 {
		n--
	}
	if i < 0 || i > n {
		panic(fmt.Sprintf("hxfaces: child index %d out of range [0,%d]", i, n))
	}
	detach(c)
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = c
	l.owner.adopt(c)
}

// Set replaces the child at index i with c and returns the replaced child,
// which is detached.
func (l *ChildList) Set(i int, c Component) Component {
	l.owner.checkAttach(c)
	if i < 0 || i >= len(l.items) {
		panic(fmt.Sprintf("hxfaces: child index %d out of range [0,%d)", i, len(l.items)))
	}
	old := l.items[i]
	if old == c {
		return old
	}
	if j := l.IndexOf(c); j >= 0 && j < i {
		i--
	}
	detach(c)
	old = l.items[i]
	l.items[i] = c
	orphan(old)
	l.owner.adopt(c)
	return old
}

// Remove detaches c if it is a child of this list and reports whether it was.
func (l *ChildList) Remove(c Component) bool {
	i := l.IndexOf(c)
	if i < 0 {
		return false
	}
	l.RemoveAt(i)
	return true
}

// RemoveAt detaches and returns the child at index i.
func (l *ChildList) RemoveAt(i int) Component {
	c := l.items[i]
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	orphan(c)
	return c
}

// Clear detaches all children.
func (l *ChildList) Clear() {
	items := l.items
	l.items = nil
	for _, c := range items {
		orphan(c)
	}
}

// IndexOf returns the position of c, or -1.
func (l *ChildList) IndexOf(c Component) int {
	for i, item := range l.items {
		if item == c {
			return i
		}
	}
	return -1
}

// Contains reports whether c is a child of this list.
func (l *ChildList) Contains(c Component) bool { return l.IndexOf(c) >= 0 }

func (l *ChildList) Len() int { return len(l.items) }

func (l *ChildList) At(i int) Component { return l.items[i] }

// All returns a snapshot of the children.
func (l *ChildList) All() []Component {
	if len(l.items) == 0 {
		return nil
	}
	return append([]Component(nil), l.items...)
}

// FacetMap holds the named facets of a component in insertion order. Like
// ChildList it moves components instead of sharing them.
type FacetMap struct {
	owner *Base
	names []string
	items map[string]Component
}

// Set stores c under name and returns the facet it replaced, which is
// detached.
func (m *FacetMap) Set(name string, c Component) Component {
	m.owner.checkAttach(c)
	old := m.items[name]
	if old == c {
		return old
	}
	detach(c)
	if old != nil {
		orphan(old)
	} else {
		m.names = append(m.names, name)
	}
	m.items[name] = c
	m.owner.adopt(c)
	return old
}

func (m *FacetMap) Get(name string) Component { return m.items[name] }

// Remove detaches and returns the facet stored under name.
func (m *FacetMap) Remove(name string) Component {
	c, ok := m.items[name]
	if !ok {
		return nil
	}
	m.drop(name)
	orphan(c)
	return c
}

func (m *FacetMap) drop(name string) {
	delete(m.items, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i:i], m.names[i+1:]...)
			return
		}
	}
}

// NameOf returns the name c is stored under, or "".
func (m *FacetMap) NameOf(c Component) string {
	for _, n := range m.names {
		if m.items[n] == c {
			return n
		}
	}
	return ""
}

// Contains reports whether c is one of the facets.
func (m *FacetMap) Contains(c Component) bool { return m.NameOf(c) != "" }

// Names returns the facet names in insertion order.
func (m *FacetMap) Names() []string { return append([]string(nil), m.names...) }

func (m *FacetMap) Len() int { return len(m.names) }

// All returns the facets in insertion order.
func (m *FacetMap) All() []Component {
	if len(m.names) == 0 {
		return nil
	}
	out := make([]Component, len(m.names))
	for i, n := range m.names {
		out[i] = m.items[n]
	}
	return out
}

// checkAttach panics if c cannot become a child of b.
func (b *Base) checkAttach(c Component) {
	if c == nil {
		panic("hxfaces: cannot attach a nil component")
	}
	for p := Component(b.self); p != nil; p = p.Parent() {
		if p == c {
			panic(fmt.Sprintf("hxfaces: attaching %T would create a cycle", c))
		}
	}
}

// adopt finishes attaching c after it was placed in one of b's collections.
func (b *Base) adopt(c Component) {
	cb := c.base()
	cb.parent = b.self
	cb.invalidateClientIDs()
	cb.setInView(b.inView)
}

// detach removes c from the collection of its current parent, if any.
func detach(c Component) {
	p := c.Parent()
	if p == nil {
		return
	}
	pb := p.base()
	if i := pb.children.IndexOf(c); i >= 0 {
		pb.children.items = append(pb.children.items[:i:i], pb.children.items[i+1:]...)
	} else if name := pb.facets.NameOf(c); name != "" {
		pb.facets.drop(name)
	}
	orphan(c)
}

func orphan(c Component) {
	cb := c.base()
	cb.parent = nil
	cb.invalidateClientIDs()
	cb.setInView(false)
}
