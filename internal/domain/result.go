package domain

import "maps"

// UIActionType tells the host UI what to do with a skill result.
type UIActionType string

const (
	UIActionNavigate UIActionType = "navigate"
	UIActionPrefill  UIActionType = "prefill"
	UIActionConfirm  UIActionType = "confirm"
)

// UIAction is an instruction for the host UI produced by a skill.
type UIAction struct {
	Type    UIActionType   `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// SkillResult is what the skill executor reports back for one invocation.
// A domain-level failure is Success=false with Error set; it is not a Go error.
type SkillResult struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data,omitempty"`
	Message  string    `json:"message,omitempty"`
	Error    string    `json:"error,omitempty"`
	UIAction *UIAction `json:"uiAction,omitempty"`
}

// Clone returns a copy of r. Data is shared.
func (r SkillResult) Clone() SkillResult {
	if r.UIAction != nil {
		a := *r.UIAction
		a.Payload = maps.Clone(r.UIAction.Payload)
		r.UIAction = &a
	}
	return r
}

// FailedResult builds a failed result from an error message.
func FailedResult(msg string) SkillResult {
	return SkillResult{Success: false, Error: msg}
}
