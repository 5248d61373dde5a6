package hxfaces

// PhaseID identifies a lifecycle phase.
type PhaseID int

const (
	// AnyPhase targets events at whichever phase broadcasts next.
	AnyPhase PhaseID = iota
	RestoreView
	ApplyRequestValues
	ProcessValidations
	UpdateModelValues
	InvokeApplication
	RenderResponse
)

// Phases lists the lifecycle phases in execution order.
var Phases = []PhaseID{
	RestoreView,
	ApplyRequestValues,
	ProcessValidations,
	UpdateModelValues,
	InvokeApplication,
	RenderResponse,
}

func (p PhaseID) String() string {
	switch p {
	case AnyPhase:
		return "ANY"
	case RestoreView:
		return "RESTORE_VIEW"
	case ApplyRequestValues:
		return "APPLY_REQUEST_VALUES"
	case ProcessValidations:
		return "PROCESS_VALIDATIONS"
	case UpdateModelValues:
		return "UPDATE_MODEL_VALUES"
	case InvokeApplication:
		return "INVOKE_APPLICATION"
	case RenderResponse:
		return "RENDER_RESPONSE"
	}
	return "PhaseID(?)"
}

// PhaseEvent is passed to phase listeners.
type PhaseEvent struct {
	Context *Context
	Phase   PhaseID
}

// PhaseListener is notified around a phase. PhaseID returns the phase it
// listens to, or AnyPhase for all of them.
//
// AfterPhase is only called if BeforePhase returned nil.
type PhaseListener interface {
	PhaseID() PhaseID
	BeforePhase(ev PhaseEvent) error
	AfterPhase(ev PhaseEvent) error
}

// PhaseListenerFuncs adapts functions to PhaseListener. Nil funcs are skipped.
type PhaseListenerFuncs struct {
	Phase  PhaseID
	Before func(ev PhaseEvent) error
	After  func(ev PhaseEvent) error
}

func (f *PhaseListenerFuncs) PhaseID() PhaseID { return f.Phase }

func (f *PhaseListenerFuncs) BeforePhase(ev PhaseEvent) error {
	if f.Before == nil {
		return nil
	}
	return f.Before(ev)
}

func (f *PhaseListenerFuncs) AfterPhase(ev PhaseEvent) error {
	if f.After == nil {
		return nil
	}
	return f.After(ev)
}

func listensTo(l PhaseListener, phase PhaseID) bool {
	p := l.PhaseID()
	return p == AnyPhase || p == phase
}
