package surface

// Transition describes how a surface appeared or is disappearing.
type Transition int

const (
	Unknown Transition = iota
	Push
	Pop
	Modal
	Dismiss
	External
)

func (t Transition) String() string {
	switch t {
	case Push:
		return "push"
	case Pop:
		return "pop"
	case Modal:
		return "modal"
	case Dismiss:
		return "dismiss"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// AppearedFrom derives how a surface will appear from how it last
// disappeared. A surface covered by a push comes back by a pop and one
// covered by a modal comes back by a dismiss. Anything else falls back to
// the stored value.
func AppearedFrom(disappearedBy, stored Transition) Transition {
	switch disappearedBy {
	case Push:
		return Pop
	case Modal:
		return Dismiss
	default:
		return stored
	}
}

func (t Transition) isWebTransition() bool {
	switch t {
	case Push, Pop, Modal, Dismiss:
		return true
	}
	return false
}
