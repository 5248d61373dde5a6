package hxfaces

const (
	FamilyNamingContainer = "hxfaces.NamingContainer"
	TypeNamingContainer   = "hxfaces.NamingContainer"
	FamilyPanel           = "hxfaces.Panel"
	TypePanel             = "hxfaces.Panel"
)

// NamingContainerComponent scopes the ids of its descendants and renders
// nothing itself.
type NamingContainerComponent struct {
	*Base
}

func NewNamingContainer() *NamingContainerComponent {
	nc := &NamingContainerComponent{}
	nc.Base = NewBase(nc, FamilyNamingContainer, TypeNamingContainer, "")
	return nc
}

func (nc *NamingContainerComponent) namingContainer() {}

// Panel groups children, for example to render or hide them together.
type Panel struct {
	*Base
}

// NewPanel returns a panel rendered as a div.
func NewPanel() *Panel {
	p := &Panel{}
	p.Base = NewBase(p, FamilyPanel, TypePanel, "hxfaces.Group")
	return p
}

// Composite is the root of a composite component: a naming container that
// the component stack reports as the current composite while its subtree is
// processed.
//
//	type DatePicker struct {
//	    *hxfaces.Composite
//	}
//
//	func NewDatePicker() *DatePicker {
//	    d := &DatePicker{}
//	    d.Composite = hxfaces.NewComposite(d, "app.DatePicker")
//	    return d
//	}
type Composite struct {
	*Base
}

// NewComposite returns a Composite dispatching to self, or to itself when
// self is nil.
func NewComposite(self Component, componentType string) *Composite {
	c := &Composite{}
	if self == nil {
		self = c
	}
	c.Base = NewBase(self, FamilyNamingContainer, componentType, "")
	return c
}

func (c *Composite) namingContainer() {}

func (c *Composite) compositeComponent() {}
