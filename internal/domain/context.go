package domain

import "time"

// CurrentUser is the teacher acting in the host application.
type CurrentUser struct {
	TeacherID string    `json:"teacherId"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"isAdmin"`
	LoginAt   time.Time `json:"loginAt"`
}

// ExecuteContext is the ambient context passed to the skill executor.
type ExecuteContext struct {
	User   CurrentUser `json:"currentUser"`
	Module string      `json:"currentModule"`
	// YearMonth is the reporting month selected in the host, YYYY-MM.
	YearMonth string `json:"currentYearMonth,omitempty"`
}
