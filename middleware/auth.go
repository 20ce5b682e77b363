// Package middleware authenticates API requests and resolves which account
// a request acts on.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"fleetledger/auth"
	"fleetledger/models"
)

const (
	AuthCookie      = "auth_token"
	RoleCookie      = "role_token"
	RoleHeader      = "X-Role-Token"
	bearerPrefix    = "bearer "
	unauthorizedMsg = "authentication required"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is the authenticated caller. AccountID is the account whose data
// the request reads and writes: the caller's own account, or the owner's
// account while a delegated role is active.
type Identity struct {
	UserID    string
	Phone     string
	Role      string
	AccountID string
}

// Delegated reports whether the caller acts on someone else's account.
func (i *Identity) Delegated() bool {
	return i.AccountID != i.UserID
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// AccountID returns the account the request acts on, or "" when the request
// is not authenticated.
func AccountID(ctx context.Context) string {
	if id, ok := IdentityFrom(ctx); ok {
		return id.AccountID
	}
	return ""
}

// Grants looks up the role an owner currently grants to a phone number.
type Grants interface {
	DelegateRole(ctx context.Context, ownerID, phone string) (role string, ok bool, err error)
}

// Auth validates the session token from the Authorization header or the
// auth_token cookie. A valid role token issued to the same user switches the
// request to the owner's account with the delegated role, as long as grants
// still lists that role for the caller. With nil grants role tokens are
// refused.
func Auth(secret string, grants Grants) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				deny(w, http.StatusUnauthorized, unauthorizedMsg)
				return
			}
			claims, err := auth.ValidateJWT(token, secret)
			if err != nil || claims.OwnerID != "" {
				deny(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			id := &Identity{
				UserID:    claims.UserID,
				Phone:     claims.Phone,
				Role:      models.RoleOwner,
				AccountID: claims.UserID,
			}

			if rt := roleToken(r); rt != "" {
				role, err := auth.ValidateJWT(rt, secret)
				if err != nil || role.UserID != claims.UserID || role.OwnerID == "" {
					deny(w, http.StatusUnauthorized, "invalid or expired role token")
					return
				}
				if grants == nil {
					deny(w, http.StatusUnauthorized, "role no longer granted")
					return
				}
				current, ok, err := grants.DelegateRole(r.Context(), role.OwnerID, claims.Phone)
				if err != nil {
					deny(w, http.StatusInternalServerError, "internal server error")
					return
				}
				if !ok || current != role.Role {
					deny(w, http.StatusUnauthorized, "role no longer granted")
					return
				}
				id.Role = role.Role
				id.AccountID = role.OwnerID
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// AllowRoles lets through only callers acting with one of roles.
func AllowRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, unauthorizedMsg)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, http.StatusForbidden, "not allowed for role "+id.Role)
		})
	}
}

// ReadOnlyFor rejects writes from callers acting with one of roles.
func ReadOnlyFor(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if id, ok := IdentityFrom(r.Context()); ok {
				for _, role := range roles {
					if id.Role == role {
						deny(w, http.StatusForbidden, "read only for role "+id.Role)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	if c, err := r.Cookie(AuthCookie); err == nil {
		return c.Value
	}
	return ""
}

func roleToken(r *http.Request) string {
	if h := r.Header.Get(RoleHeader); h != "" {
		return h
	}
	if c, err := r.Cookie(RoleCookie); err == nil {
		return c.Value
	}
	return ""
}

// deny writes the same envelope the handlers use.
func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": msg,
		"status":  status,
	})
}
