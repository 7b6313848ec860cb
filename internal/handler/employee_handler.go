package handler

import (
	"net/http"

	"go-timeclock/internal/model"
	"go-timeclock/internal/service"
)

// EmployeeHandler serves the attendance ledger. The caller's identity always
// comes from the access token, never from the request body.
type EmployeeHandler struct {
	ledger    *service.LedgerService
	directory *service.DirectoryService
}

func NewEmployeeHandler(ledger *service.LedgerService, directory *service.DirectoryService) *EmployeeHandler {
	return &EmployeeHandler{ledger: ledger, directory: directory}
}

func (h *EmployeeHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.NotesRequest
	if err := decodeJSON(w, r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.ledger.ClockIn(r.Context(), identity.AccountID, payload.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, record)
}

func (h *EmployeeHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.NotesRequest
	if err := decodeJSON(w, r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.ledger.ClockOut(r.Context(), identity.AccountID, payload.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record)
}

func (h *EmployeeHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := h.ledger.Status(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, status)
}

func (h *EmployeeHandler) Records(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.ledger.EmployeeRecords(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, records)
}

func (h *EmployeeHandler) TeamRecords(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.ledger.TeamRecords(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, records)
}

func (h *EmployeeHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	recordID, err := recordIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.ledger.Approve(r.Context(), identity.AccountID, recordID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record)
}

func (h *EmployeeHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	recordID, err := recordIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.NotesRequest
	if err := decodeJSON(w, r, &payload, true); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.ledger.Reject(r.Context(), identity.AccountID, recordID, payload.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record)
}

func (h *EmployeeHandler) Managers(w http.ResponseWriter, r *http.Request) {
	managers, err := h.directory.ListManagers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, managers)
}
