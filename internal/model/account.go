package model

import (
	"strings"
	"time"
)

type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	IsManager    bool      `json:"isManager"`
	ManagerID    *int64    `json:"managerId,omitempty"`
	ManagerName  string    `json:"managerName,omitempty"`
	Role         string    `json:"role,omitempty"`
	IsPrototype  bool      `json:"isPrototype,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FullName joins the name parts, falling back to the email when both are empty.
func (a Account) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
	if name == "" {
		return a.Email
	}
	return name
}

// AccountView is the token-carried subset of an account exposed to clients.
type AccountView struct {
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

func (a Account) View() AccountView {
	return AccountView{
		ID:          a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		IsManager:   a.IsManager,
		ManagerID:   a.ManagerID,
		ManagerName: a.ManagerName,
		Role:        a.Role,
		IsPrototype: a.IsPrototype,
	}
}

type ManagerSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
