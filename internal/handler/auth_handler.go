package handler

import (
	"net/http"
	"strings"

	"go-timeclock/internal/model"
	"go-timeclock/internal/service"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth"
)

type CookieOptions struct {
	Secure bool
	// ExposeRefreshToken also returns the refresh token in JSON bodies, for
	// clients that cannot hold cookies.
	ExposeRefreshToken bool
}

type AuthHandler struct {
	service   *service.AuthService
	directory *service.DirectoryService
	cookies   CookieOptions
}

func NewAuthHandler(service *service.AuthService, directory *service.DirectoryService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{service: service, directory: directory, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	pair, user, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, pair)
	resp := model.LoginResponse{AccessToken: pair.AccessToken, User: user}
	if h.cookies.ExposeRefreshToken {
		resp.RefreshToken = pair.RefreshToken
	}
	writeSuccess(w, http.StatusOK, resp)
}

// RefreshToken rotates the refresh token taken from the cookie, or from the
// JSON body when no cookie is present.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.presentedRefreshToken(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		h.clearRefreshCookie(w)
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, pair)
	resp := model.RefreshResponse{AccessToken: pair.AccessToken}
	if h.cookies.ExposeRefreshToken || !h.fromCookie(r) {
		resp.RefreshToken = pair.RefreshToken
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := h.presentedRefreshToken(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"loggedOut": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.service.CurrentAccount(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, account)
}

func (h *AuthHandler) Managers(w http.ResponseWriter, r *http.Request) {
	managers, err := h.directory.ListManagers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, managers)
}

func (h *AuthHandler) presentedRefreshToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return cookie.Value, nil
	}

	var payload model.RefreshRequest
	if err := decodeJSON(w, r, &payload, true); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.RefreshToken), nil
}

func (h *AuthHandler) fromCookie(r *http.Request) bool {
	cookie, err := r.Cookie(refreshCookieName)
	return err == nil && strings.TrimSpace(cookie.Value) != ""
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, pair model.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     refreshCookiePath,
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
