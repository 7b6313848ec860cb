package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-timeclock/internal/middleware"
	"go-timeclock/internal/model"
	"go-timeclock/pkg/apierror"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    apierror.CodeInternal,
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrAccountNotFound) || errors.Is(err, model.ErrRecordNotFound) {
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Message = err.Error()
	} else if errors.Is(err, model.ErrAlreadyClockedIn) || errors.Is(err, model.ErrNotClockedIn) ||
		errors.Is(err, model.ErrRecordOpen) || errors.Is(err, model.ErrRecordFinalized) {
		status = http.StatusBadRequest
		body.Code = apierror.CodeStateConflict
		body.Message = err.Error()
	} else if errors.Is(err, model.ErrInvalidToken) || errors.Is(err, model.ErrTokenNotFound) || errors.Is(err, model.ErrUnauthenticated) {
		status = http.StatusUnauthorized
		body.Code = apierror.CodeUnauthorized
		body.Message = "Invalid or expired token"
	} else if errors.Is(err, model.ErrNotRecordOwner) || errors.Is(err, model.ErrManagerRoleRequired) {
		status = http.StatusForbidden
		body.Code = apierror.CodeForbidden
		body.Message = err.Error()
	} else if errors.Is(err, model.ErrInvalidInput) || errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusBadRequest
		body.Code = apierror.CodeBadRequest
		body.Message = err.Error()
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	defer r.Body.Close()

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return apierror.New(apierror.CodeBadRequest, "invalid JSON body", "", http.StatusBadRequest)
	}
	return nil
}

func currentIdentity(r *http.Request) (model.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return model.Identity{}, apierror.Unauthorized(model.ErrUnauthenticated)
	}
	return identity, nil
}

func recordIDParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.New(apierror.CodeBadRequest, "record id must be a positive integer", "id", http.StatusBadRequest)
	}
	return id, nil
}
