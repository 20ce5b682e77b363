package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetledger/auth"
	"fleetledger/models"
)

const secret = "test-secret"

func token(t *testing.T, c auth.Claims) string {
	t.Helper()
	s, err := auth.GenerateJWT(c, secret, time.Hour)
	require.NoError(t, err)
	return s
}

// grantTable maps "owner/phone" to the granted role.
type grantTable map[string]string

func (g grantTable) DelegateRole(ctx context.Context, ownerID, phone string) (string, bool, error) {
	if phone == "broken" {
		return "", false, errors.New("mongo: connection reset")
	}
	role, ok := g[ownerID+"/"+phone]
	return role, ok, nil
}

var grants = grantTable{"u1/9123456780": models.RoleAccountant}

func echoIdentity(t *testing.T, got **Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		require.True(t, ok)
		*got = id
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthBearerAndCookie(t *testing.T) {
	tok := token(t, auth.Claims{UserID: "u1", Phone: "9876543210"})

	var id *Identity
	h := Auth(secret, grants)(echoIdentity(t, &id))

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, &Identity{UserID: "u1", Phone: "9876543210", Role: models.RoleOwner, AccountID: "u1"}, id)
	assert.False(t, id.Delegated())

	req = httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: tok})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthRejects(t *testing.T) {
	h := Auth(secret, grants)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	roleTok := token(t, auth.Claims{UserID: "u2", Role: models.RoleDriver, OwnerID: "u1"})

	cases := map[string]func(r *http.Request){
		"missing":  func(r *http.Request) {},
		"garbage":  func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
		"other key": func(r *http.Request) {
			s, _ := auth.GenerateJWT(auth.Claims{UserID: "u1"}, "other", time.Hour)
			r.Header.Set("Authorization", "Bearer "+s)
		},
		"role token as session": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+roleTok) },
		"role token for another user": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(t, auth.Claims{UserID: "u3"}))
			r.AddCookie(&http.Cookie{Name: RoleCookie, Value: roleTok})
		},
		"revoked role": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(t, auth.Claims{UserID: "u2", Phone: "9000000000"}))
			r.AddCookie(&http.Cookie{Name: RoleCookie, Value: roleTok})
		},
		"changed role": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(t, auth.Claims{UserID: "u2", Phone: "9123456780"}))
			r.AddCookie(&http.Cookie{Name: RoleCookie, Value: roleTok})
		},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
			setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status":401`)
		})
	}
}

func TestAuthRoleTokenSwitchesAccount(t *testing.T) {
	var id *Identity
	h := Auth(secret, grants)(echoIdentity(t, &id))

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, auth.Claims{UserID: "u2", Phone: "9123456780"}))
	req.AddCookie(&http.Cookie{Name: RoleCookie, Value: token(t, auth.Claims{UserID: "u2", Role: models.RoleAccountant, OwnerID: "u1"})})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", id.AccountID)
	assert.Equal(t, models.RoleAccountant, id.Role)
	assert.True(t, id.Delegated())
}

func withRole(role string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/trips", nil)
	return req.WithContext(WithIdentity(req.Context(), &Identity{UserID: "u2", Role: role, AccountID: "u1"}))
}

func TestAllowRoles(t *testing.T) {
	h := AllowRoles(models.RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withRole(models.RoleOwner))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withRole(models.RoleDriver))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReadOnlyFor(t *testing.T) {
	h := ReadOnlyFor(models.RoleDriver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withRole(models.RoleDriver))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withRole(models.RoleAccountant))
	assert.Equal(t, http.StatusOK, rec.Code)

	get := withRole(models.RoleDriver)
	get.Method = http.MethodGet
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, get)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountID(t *testing.T) {
	assert.Equal(t, "u1", AccountID(withRole(models.RoleDriver).Context()))
	assert.Equal(t, "", AccountID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestAuthRoleTokenNeedsGrantLookup(t *testing.T) {
	session := token(t, auth.Claims{UserID: "u2", Phone: "9123456780"})
	roleTok := token(t, auth.Claims{UserID: "u2", Role: models.RoleAccountant, OwnerID: "u1"})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer "+session)
	req.Header.Set(RoleHeader, roleTok)
	rec := httptest.NewRecorder()
	Auth(secret, nil)(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "role no longer granted")

	req = httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, auth.Claims{UserID: "u2", Phone: "broken"}))
	req.Header.Set(RoleHeader, roleTok)
	rec = httptest.NewRecorder()
	Auth(secret, grants)(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
