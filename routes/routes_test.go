package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fleetledger/auth"
	"fleetledger/handlers"
	"fleetledger/metrics"
	"fleetledger/middleware"
	"fleetledger/models"
	"fleetledger/repository"
	"fleetledger/reports"
	"fleetledger/services"
)

const testSecret = "routes-test-secret"

type captureSMS struct {
	mu   sync.Mutex
	last map[string]string
}

func (c *captureSMS) Send(_ context.Context, phone, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[phone] = message
	return nil
}

func (c *captureSMS) code(phone string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Fields(c.last[phone])[0]
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Status  int             `json:"status"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	sms     *captureSMS
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := repository.NewMemoryStores()
	svc := services.New(stores, services.Options{}, logger)
	sms := &captureSMS{last: map[string]string{}}
	users := services.NewUserService(
		stores.Users,
		auth.NewOTPStore(rdb, 5*time.Minute, 6),
		sms,
		services.TokenConfig{Secret: testSecret, TokenTTL: time.Hour, RoleTokenTTL: time.Hour},
		logger,
	)
	m := metrics.NewMetrics()
	set := handlers.NewSet(svc, users, handlers.Config{
		Cookies:        handlers.CookieConfig{TokenTTL: time.Hour, RoleTokenTTL: time.Hour},
		MaxUploadBytes: 1 << 20,
		ExpiryDays:     30,
		Metrics:        m,
		Logger:         logger,
	})
	opts.JWTSecret = testSecret
	opts.Grants = users
	opts.Logger = logger
	opts.Metrics = m
	return &testServer{t: t, handler: NewRouter(set, opts), sms: sms, metrics: m}
}

type request struct {
	method    string
	path      string
	token     string
	roleToken string
	body      interface{}
}

func (s *testServer) do(req request) *httptest.ResponseRecorder {
	s.t.Helper()
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.roleToken != "" {
		r.Header.Set(middleware.RoleHeader, req.roleToken)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func (s *testServer) envelope(rec *httptest.ResponseRecorder, into interface{}) envelope {
	s.t.Helper()
	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if into != nil {
		require.NoError(s.t, json.Unmarshal(env.Data, into))
	}
	return env
}

// login runs the OTP flow and returns the session token.
func (s *testServer) login(phone string) string {
	s.t.Helper()
	rec := s.do(request{method: http.MethodPost, path: "/api/auth/otp", body: map[string]string{"phone": phone}})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodPost, path: "/api/auth/verify", body: map[string]string{
		"phone": phone,
		"otp":   s.sms.code(phone),
	}})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var res services.LoginResult
	s.envelope(rec, &res)
	require.NotEmpty(s.t, res.Token)
	return res.Token
}

func TestLoginSetsCookieAndProfile(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(request{method: http.MethodPost, path: "/api/auth/otp", body: map[string]string{"phone": "9876543210"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(request{method: http.MethodPost, path: "/api/auth/verify", body: map[string]string{
		"phone": "9876543210",
		"otp":   "000000",
	}})
	if s.sms.code("9876543210") != "000000" {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, http.StatusUnauthorized, s.envelope(rec, nil).Status)
	}

	rec = s.do(request{method: http.MethodPost, path: "/api/auth/verify", body: map[string]string{
		"phone": "9876543210",
		"otp":   s.sms.code("9876543210"),
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AuthCookie && c.Value != "" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var res services.LoginResult
	s.envelope(rec, &res)
	assert.True(t, res.NewUser)
	assert.Equal(t, models.RoleOwner, res.User.Role)

	// the cookie alone authenticates
	r := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	r.AddCookie(cookie)
	me := httptest.NewRecorder()
	s.handler.ServeHTTP(me, r)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())

	rec = s.do(request{method: http.MethodPut, path: "/api/user", token: res.Token, body: map[string]string{
		"name":      "Suresh",
		"gstNumber": "27AAPFU0939F1Z",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(request{method: http.MethodPut, path: "/api/user", token: res.Token, body: map[string]string{
		"name":      "Suresh",
		"company":   "Sai Roadlines",
		"gstNumber": "27AAPFU0939F1ZV",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user models.User
	s.envelope(rec, &user)
	assert.Equal(t, "Sai Roadlines", user.CompanyName)
}

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(request{method: http.MethodGet, path: "/api/trips"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, s.envelope(rec, nil).Status)

	rec = s.do(request{method: http.MethodGet, path: "/api/trips", token: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTripLedgerOverHTTP(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.login("9876543210")

	rec := s.do(request{method: http.MethodPost, path: "/api/parties", token: token, body: map[string]string{"name": "Acme Steel"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var party models.Party
	s.envelope(rec, &party)

	rec = s.do(request{method: http.MethodPost, path: "/api/trucks", token: token, body: map[string]string{"truckNo": "MH12AB1234"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodPost, path: "/api/trips", token: token, body: map[string]interface{}{
		"party":    party.PartyID,
		"truck":    "MH12AB1234",
		"route":    map[string]string{"origin": "Pune", "destination": "Nagpur"},
		"amount":   10000,
		"accounts": []map[string]interface{}{{"amount": -500}},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, s.envelope(rec, nil).Message, "amount failed gt=0")

	rec = s.do(request{method: http.MethodPost, path: "/api/trips", token: token, body: map[string]interface{}{
		"party":  party.PartyID,
		"truck":  "MH12AB1234",
		"route":  map[string]string{"origin": "Pune", "destination": "Nagpur"},
		"amount": 10000,
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var trip models.Trip
	env := s.envelope(rec, &trip)
	assert.Equal(t, http.StatusCreated, env.Status)
	require.NotEmpty(t, trip.TripID)

	accounts := "/api/trips/" + trip.TripID + "/accounts"
	rec = s.do(request{method: http.MethodPost, path: accounts, token: token, body: map[string]interface{}{
		"amount":      10500,
		"paymentType": "Cash",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env = s.envelope(rec, nil)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusBadRequest, env.Status)

	rec = s.do(request{method: http.MethodPost, path: accounts, token: token, body: map[string]interface{}{
		"amount":      4000,
		"paymentType": "Cash",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodGet, path: "/api/trips/" + trip.TripID, token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var details struct {
		Balance float64 `json:"balance"`
	}
	s.envelope(rec, &details)
	assert.Equal(t, 6000.0, details.Balance)

	rec = s.do(request{method: http.MethodGet, path: "/api/trips/trip_missing", token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(request{method: http.MethodPatch, path: "/api/trips/" + trip.TripID + "/status", token: token, body: map[string]int{"status": 7}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	metricsRec := s.do(request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `fleetledger_ledger_rejections_total{route="/api/trips/{tripID}/accounts"} 1`)
}

func TestDelegatedRoles(t *testing.T) {
	s := newTestServer(t, Options{})
	owner := s.login("9876543210")
	driver := s.login("9123456780")

	rec := s.do(request{method: http.MethodGet, path: "/api/user", token: owner})
	var me struct {
		UserID string `json:"user_id"`
	}
	s.envelope(rec, &me)

	rec = s.do(request{method: http.MethodPost, path: "/api/user/roles", token: owner, body: models.Delegate{Phone: "9123456780", Role: models.RoleDriver}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(request{method: http.MethodGet, path: "/api/user/delegated", token: driver})
	require.Equal(t, http.StatusOK, rec.Code)
	var delegated []services.DelegatedAccount
	s.envelope(rec, &delegated)
	require.Len(t, delegated, 1)
	assert.Equal(t, me.UserID, delegated[0].OwnerID)

	rec = s.do(request{method: http.MethodPost, path: "/api/user/switch", token: driver, body: map[string]string{"owner_id": me.UserID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sw struct {
		RoleToken string `json:"roleToken"`
		Role      string `json:"role"`
	}
	s.envelope(rec, &sw)
	assert.Equal(t, models.RoleDriver, sw.Role)

	// the role token only works with the session it was issued to
	rec = s.do(request{method: http.MethodGet, path: "/api/trips", token: owner, roleToken: sw.RoleToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tests := []struct {
		method string
		path   string
		body   interface{}
		want   int
	}{
		{http.MethodGet, "/api/trips", nil, http.StatusOK},
		{http.MethodGet, "/api/trucks", nil, http.StatusOK},
		{http.MethodGet, "/api/documents", nil, http.StatusOK},
		{http.MethodPost, "/api/trucks", map[string]string{"truckNo": "MH12ZZ0001"}, http.StatusForbidden},
		{http.MethodPost, "/api/parties", map[string]string{"name": "Acme"}, http.StatusForbidden},
		{http.MethodGet, "/api/dashboard", nil, http.StatusForbidden},
		{http.MethodDelete, "/api/account", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := s.do(request{method: tt.method, path: tt.path, token: driver, roleToken: sw.RoleToken, body: tt.body})
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	// back to their own account the driver is an owner again
	rec = s.do(request{method: http.MethodPost, path: "/api/parties", token: driver, body: map[string]string{"name": "Own Party"}})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRevokedRoleTokenStopsWorking(t *testing.T) {
	s := newTestServer(t, Options{})
	owner := s.login("9876543210")
	accountant := s.login("9123456780")

	rec := s.do(request{method: http.MethodGet, path: "/api/user", token: owner})
	var me struct {
		UserID string `json:"user_id"`
	}
	s.envelope(rec, &me)

	switchTo := func() string {
		rec := s.do(request{method: http.MethodPost, path: "/api/user/switch", token: accountant, body: map[string]string{"owner_id": me.UserID}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sw struct {
			RoleToken string `json:"roleToken"`
		}
		s.envelope(rec, &sw)
		return sw.RoleToken
	}
	parties := func() int {
		rec := s.do(request{method: http.MethodGet, path: "/api/parties", token: owner})
		require.Equal(t, http.StatusOK, rec.Code)
		var list []map[string]interface{}
		s.envelope(rec, &list)
		return len(list)
	}

	rec = s.do(request{method: http.MethodPost, path: "/api/user/roles", token: owner, body: models.Delegate{Phone: "9123456780", Role: models.RoleAccountant}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roleToken := switchTo()

	rec = s.do(request{method: http.MethodPost, path: "/api/parties", token: accountant, roleToken: roleToken, body: map[string]string{"name": "Acme"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, parties())

	// downgraded to driver: the accountant token no longer writes
	rec = s.do(request{method: http.MethodPost, path: "/api/user/roles", token: owner, body: models.Delegate{Phone: "9123456780", Role: models.RoleDriver}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(request{method: http.MethodPost, path: "/api/parties", token: accountant, roleToken: roleToken, body: map[string]string{"name": "Beta"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, parties())

	roleToken = switchTo()
	rec = s.do(request{method: http.MethodGet, path: "/api/trips", token: accountant, roleToken: roleToken})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(request{method: http.MethodDelete, path: "/api/user/roles/9123456780", token: owner})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(request{method: http.MethodGet, path: "/api/trips", token: accountant, roleToken: roleToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "role no longer granted")
}

func TestExportTrips(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.login("9876543210")

	rec := s.do(request{method: http.MethodGet, path: "/api/exports/trips.xlsx", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reports.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=trips_")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	title, err := f.GetCellValue(reports.TripsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Trip Ledger", title)
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(request{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{AllowedOrigins: []string{"https://app.example.com"}})

	r := httptest.NewRequest(http.MethodOptions, "/api/trips", nil)
	r.Header.Set("Origin", "https://app.example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), middleware.RoleHeader)

	r = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginAllowed(t *testing.T) {
	allowed, wildcard := originAllowed([]string{"*"}, "https://a.example.com")
	assert.True(t, allowed)
	assert.True(t, wildcard)

	allowed, wildcard = originAllowed([]string{"*", " https://a.example.com"}, "https://a.example.com")
	assert.True(t, allowed)
	assert.False(t, wildcard)

	allowed, _ = originAllowed([]string{"https://a.example.com"}, "")
	assert.False(t, allowed)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, Options{AuthRateLimit: 2})

	for i := 0; i < 2; i++ {
		rec := s.do(request{method: http.MethodPost, path: "/api/auth/otp", body: map[string]string{"phone": "9876543210"}})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := s.do(request{method: http.MethodPost, path: "/api/auth/otp", body: map[string]string{"phone": "9876543210"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
