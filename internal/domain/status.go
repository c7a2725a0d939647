package domain

// ToolCallStatus is the confirmation state of a tool call.
//
//	pending ──► confirmed ──► executed
//	   │
//	   └──────► rejected
type ToolCallStatus string

const (
	StatusPending   ToolCallStatus = "pending"
	StatusConfirmed ToolCallStatus = "confirmed"
	StatusExecuted  ToolCallStatus = "executed"
	StatusRejected  ToolCallStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ToolCallStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusExecuted, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible from s.
func (s ToolCallStatus) IsTerminal() bool {
	switch s {
	case StatusExecuted, StatusRejected:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a tool call may move from one status to another.
func CanTransition(from, to ToolCallStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusRejected
	case StatusConfirmed:
		return to == StatusExecuted
	case StatusExecuted, StatusRejected:
		return false
	default:
		return false
	}
}
