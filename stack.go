package hxfaces

// ComponentStack tracks the component currently being processed so that
// expressions and renderers can find it. It belongs to one request Context.
type ComponentStack struct {
	items     []Component
	composite Component
}

// Push makes c the current component. Composite components also become the
// current composite.
func (s *ComponentStack) Push(c Component) {
	s.items = append(s.items, c)
	if IsComposite(c) {
		s.composite = c
	}
}

// Pop removes c. If c is not on top, everything above it is unwound too, so
// an early return deep in a traversal cannot leave stale entries behind.
// Popping a component that is not on the stack does nothing.
func (s *ComponentStack) Pop(c Component) {
	i := len(s.items) - 1
	for ; i >= 0; i-- {
		if s.items[i] == c {
			break
		}
	}
	if i < 0 {
		return
	}
	for j := i; j < len(s.items); j++ {
		s.items[j] = nil
	}
	s.items = s.items[:i]

	s.composite = nil
	for j := len(s.items) - 1; j >= 0; j-- {
		if IsComposite(s.items[j]) {
			s.composite = s.items[j]
			break
		}
	}
}

// Current returns the top of the stack, or nil.
func (s *ComponentStack) Current() Component {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[len(s.items)-1]
}

// CurrentComposite returns the innermost composite component on the stack.
func (s *ComponentStack) CurrentComposite() Component { return s.composite }

func (s *ComponentStack) Len() int { return len(s.items) }
