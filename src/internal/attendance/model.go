package attendance

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session status constants
const (
	StatusCheckedIn  = "CHECKED_IN"
	StatusCheckedOut = "CHECKED_OUT"
)

// WorkSession is one check-in/check-out pair for an employee. At most one
// session per employee may be in CHECKED_IN state at any time; once checked
// out the record is immutable history.
type WorkSession struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EmployeeID string             `json:"employeeId" bson:"employee_id"`
	CheckIn    time.Time          `json:"checkIn" bson:"check_in"`
	CheckOut   *time.Time         `json:"checkOut,omitempty" bson:"check_out,omitempty"`
	Status     string             `json:"status" bson:"status"`
}

func (s *WorkSession) IsOpen() bool {
	return s.Status == StatusCheckedIn
}

// CheckInRequest represents a scanned-code check-in attempt
type CheckInRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Code       string `json:"code" binding:"required"`
}

// CheckOutRequest represents a check-out attempt
type CheckOutRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
}

// StatusResponse reports the employee's current state and, when checked in,
// the elapsed time since check-in.
type StatusResponse struct {
	Status  string       `json:"status"`
	Session *WorkSession `json:"session,omitempty"`
	Elapsed string       `json:"elapsed,omitempty"`
}

// RecentSession is one closed session in the no-date history mode. Durations
// are a presentation concern there.
type RecentSession struct {
	CheckIn  time.Time  `json:"checkIn"`
	CheckOut *time.Time `json:"checkOut"`
}

// DaySession is one session inside a reporting day, with its worked duration.
type DaySession struct {
	CheckIn     time.Time  `json:"checkIn"`
	CheckOut    *time.Time `json:"checkOut"`
	HoursWorked string     `json:"hoursWorked"`
}

// DayHistoryResponse aggregates all sessions whose check-in falls inside one
// calendar day of the reporting timezone.
type DayHistoryResponse struct {
	Date        string       `json:"date"`
	Sessions    []DaySession `json:"sessions"`
	TotalWorked string       `json:"totalWorked"`
}

// FormatSeconds renders a duration in whole seconds as "%dh %dm %ds".
// Components are floor-truncated, never rounded up: 3599s is "0h 59m 59s".
func FormatSeconds(totalSeconds int64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// FormatDuration truncates d to whole seconds and formats it.
func FormatDuration(d time.Duration) string {
	return FormatSeconds(int64(d / time.Second))
}
