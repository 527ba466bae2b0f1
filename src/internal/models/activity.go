package models

import "time"

type ActivityMessage struct {
	EmployeeID  string            `json:"employee_id"`
	SessionID   string            `json:"session_id,omitempty"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionCheckIn          = "check_in"
	ActionCheckOut         = "check_out"
	ActionCredentialIssued = "credential_issued"
	ActionCredentialToggle = "credential_toggle"
)

// Service name constants
const (
	ServiceAttendanceEngine  = "attendance.service.engine"
	ServiceCredentialManager = "attendance.service.credential"
)
