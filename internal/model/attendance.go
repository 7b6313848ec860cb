package model

import "time"

type RecordStatus string

const (
	StatusPending  RecordStatus = "pending"
	StatusApproved RecordStatus = "approved"
	StatusRejected RecordStatus = "rejected"
)

type RecordNotes struct {
	StartNote  string `json:"startNote"`
	EndNote    string `json:"endNote"`
	ReviewNote string `json:"reviewNote,omitempty"`
}

type AttendanceRecord struct {
	ID         int64        `json:"id"`
	EmployeeID int64        `json:"employeeId"`
	Date       string       `json:"date"`
	StartTime  string       `json:"startTime"`
	EndTime    string       `json:"endTime,omitempty"`
	Status     RecordStatus `json:"status"`
	ManagerID  int64        `json:"managerId"`
	Notes      RecordNotes  `json:"notes"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// IsOpen reports whether the record is an active clock-in session.
func (r AttendanceRecord) IsOpen() bool {
	return r.EndTime == ""
}

// TeamRecord is an attendance record joined with the employee it belongs to.
type TeamRecord struct {
	AttendanceRecord
	EmployeeName  string `json:"employeeName"`
	EmployeeEmail string `json:"employeeEmail"`
}

type ClockStatus struct {
	ClockedIn    bool              `json:"clockedIn"`
	ActiveRecord *AttendanceRecord `json:"activeRecord"`
}
