package client

import (
	"fmt"
	"time"
)

type Account struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	IsManager   bool   `json:"isManager"`
	ManagerID   *int64 `json:"managerId,omitempty"`
	ManagerName string `json:"managerName,omitempty"`
	Role        string `json:"role,omitempty"`
	IsPrototype bool   `json:"isPrototype,omitempty"`
}

type Manager struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RecordNotes struct {
	StartNote  string `json:"startNote"`
	EndNote    string `json:"endNote"`
	ReviewNote string `json:"reviewNote,omitempty"`
}

type Record struct {
	ID         int64       `json:"id"`
	EmployeeID int64       `json:"employeeId"`
	Date       string      `json:"date"`
	StartTime  string      `json:"startTime"`
	EndTime    string      `json:"endTime,omitempty"`
	Status     string      `json:"status"`
	ManagerID  int64       `json:"managerId"`
	Notes      RecordNotes `json:"notes"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

type TeamRecord struct {
	Record
	EmployeeName  string `json:"employeeName"`
	EmployeeEmail string `json:"employeeEmail"`
}

type ClockStatus struct {
	ClockedIn    bool    `json:"clockedIn"`
	ActiveRecord *Record `json:"activeRecord"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsManager bool   `json:"isManager"`
	ManagerID *int64 `json:"managerId"`
	Role      string `json:"role,omitempty"`
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.Status, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}
