package recorder

import (
	"strings"
)

// LifecycleState is the state of the host application.
type LifecycleState int

const (
	Active LifecycleState = iota
	Inactive
	Background
)

func (s LifecycleState) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case Background:
		return "background"
	default:
		return "unknown"
	}
}

// ParseLifecycleState converts a state name to a LifecycleState.
func ParseLifecycleState(name string) (LifecycleState, error) {
	switch strings.ToLower(name) {
	case "active":
		return Active, nil
	case "inactive":
		return Inactive, nil
	case "background":
		return Background, nil
	default:
		return Active, errUnknownLifecycle.Fmt(name)
	}
}
