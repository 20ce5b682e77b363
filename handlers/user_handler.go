package handlers

import (
	"net/http"
	"time"

	"fleetledger/auth"
	"fleetledger/middleware"
	"fleetledger/models"
	"fleetledger/services"
)

// CookieConfig controls the session cookies set on login and role switch.
type CookieConfig struct {
	Secure       bool
	TokenTTL     time.Duration
	RoleTokenTTL time.Duration
}

func (c CookieConfig) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) expire(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	c.expire(w, middleware.AuthCookie)
	c.expire(w, middleware.RoleCookie)
}

type UserHandler struct {
	*Base
	Users   *services.UserService
	Cookies CookieConfig
}

type otpRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

// SendOTP texts a login code to the phone number.
func (h *UserHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Users.SendOTP(r.Context(), req.Phone); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "OTP sent", nil)
}

type verifyRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	Code  string `json:"otp" validate:"required,numeric"`
}

// VerifyOTP signs the user in and sets the auth cookie. The token is also
// returned for clients that send it as a bearer header.
func (h *UserHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Users.VerifyOTP(r.Context(), req.Phone, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Cookies.set(w, middleware.AuthCookie, res.Token, h.Cookies.TokenTTL)
	h.Cookies.expire(w, middleware.RoleCookie)
	h.ok(w, "Login successful", res)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.clear(w)
	h.ok(w, "Logged out", nil)
}

type meResponse struct {
	*models.User
	ActingAs string `json:"actingAs"`
	Role     string `json:"activeRole"`
}

// Me returns the caller's profile and the account it currently acts on.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	user, err := h.Users.Get(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", meResponse{User: user, ActingAs: id.AccountID, Role: id.Role})
}

type profileRequest struct {
	Name        string `json:"name" validate:"required"`
	CompanyName string `json:"company"`
	Address     string `json:"address"`
	GSTNumber   string `json:"gstNumber" validate:"omitempty,gstin"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, _ := middleware.IdentityFrom(r.Context())
	user, err := h.Users.UpdateProfile(r.Context(), id.UserID, &models.User{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Address:     req.Address,
		GSTNumber:   req.GSTNumber,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Profile updated", user)
}

// Roles lists the phone numbers the caller has granted access to.
func (h *UserHandler) Roles(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	user, err := h.Users.Get(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", user.Delegates)
}

func (h *UserHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	var d models.Delegate
	if !h.decode(w, r, &d) {
		return
	}
	id, _ := middleware.IdentityFrom(r.Context())
	user, err := h.Users.GrantRole(r.Context(), id.UserID, d)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Role granted", user.Delegates)
}

func (h *UserHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	user, err := h.Users.RevokeRole(r.Context(), id.UserID, param(r, "phone"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Role revoked", user.Delegates)
}

// DelegatedAccounts lists the accounts the caller may switch into.
func (h *UserHandler) DelegatedAccounts(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	accounts, err := h.Users.DelegatedAccounts(r.Context(), id.Phone)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", accounts)
}

type switchRequest struct {
	OwnerID string `json:"owner_id" validate:"required"`
}

type switchResponse struct {
	RoleToken string `json:"roleToken"`
	Role      string `json:"role"`
	OwnerID   string `json:"owner_id"`
}

// SwitchRole starts acting on another account with the role it granted.
func (h *UserHandler) SwitchRole(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, _ := middleware.IdentityFrom(r.Context())
	token, role, err := h.Users.SwitchRole(r.Context(), &auth.Claims{UserID: id.UserID, Phone: id.Phone}, req.OwnerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Cookies.set(w, middleware.RoleCookie, token, h.Cookies.RoleTokenTTL)
	h.ok(w, "Role switched", switchResponse{RoleToken: token, Role: role, OwnerID: req.OwnerID})
}

// ExitRole goes back to the caller's own account.
func (h *UserHandler) ExitRole(w http.ResponseWriter, r *http.Request) {
	h.Cookies.expire(w, middleware.RoleCookie)
	h.ok(w, "Back to own account", nil)
}
