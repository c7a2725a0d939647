package chat

import "errors"

// Contract violations returned by the orchestrator. State is unchanged when
// any of them is returned.
var (
	ErrUnknownSkill      = errors.New("unknown skill")
	ErrMessageNotFound   = errors.New("message not found")
	ErrNoToolCall        = errors.New("message has no tool call")
	ErrInvalidTransition = errors.New("invalid tool call transition")
	ErrInFlight          = errors.New("tool call is already executing")
	ErrNoSession         = errors.New("no current session")
	ErrSessionNotFound   = errors.New("session not found")
)
