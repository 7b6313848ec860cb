package model

import "errors"

var (
	// Account related errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrManagerRequired     = errors.New("manager id is required")
	ErrInvalidManager      = errors.New("invalid manager id")
	ErrNotAManager         = errors.New("selected account is not a manager")
	ErrNoManagerAssigned   = errors.New("account does not have a manager assigned")
	ErrManagerRoleRequired = errors.New("manager role required")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrInvalidToken  = errors.New("invalid or expired token")

	// Ledger state conflicts
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
	ErrRecordOpen       = errors.New("cannot act on an active time record")
	ErrRecordFinalized  = errors.New("time record has already been reviewed")

	// Ledger lookups and ownership
	ErrRecordNotFound  = errors.New("time record not found")
	ErrNotRecordOwner  = errors.New("not authorized to review this record")
	ErrUnauthenticated = errors.New("authentication required")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
