package routes

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"fleetledger/handlers"
	"fleetledger/metrics"
	"fleetledger/middleware"
	"fleetledger/models"
)

// Options configures the router.
type Options struct {
	JWTSecret string
	// Grants rechecks delegated role tokens against the owner's current grants.
	Grants middleware.Grants
	// AuthRateLimit is the number of OTP requests allowed per IP per minute.
	AuthRateLimit  int
	AllowedOrigins []string
	Production     bool
	Timeout        time.Duration
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// withCORS answers preflight requests and allows the configured origins.
// A "*" entry allows any origin but never with credentials.
func withCORS(origins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed, wildcard := originAllowed(origins, origin); allowed {
				h := w.Header()
				h.Add("Vary", "Origin")
				if wildcard {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RoleHeader)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origins []string, origin string) (allowed, wildcard bool) {
	if origin == "" {
		return false, false
	}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if strings.EqualFold(o, origin) {
			return true, false
		}
		if o == "*" {
			wildcard = true
		}
	}
	return wildcard, wildcard
}

func secureHeaders(production bool, logger *slog.Logger) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:         31536000,
		IsDevelopment:      !production,
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", "path", r.URL.Path, "error", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter mounts the API. Drivers acting on an owner's account reach only
// their trips, expenses and documents; accountants reach everything except
// account deletion.
func NewRouter(h *handlers.Set, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	authLimit := opts.AuthRateLimit
	if authLimit <= 0 {
		authLimit = 10
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(handlers.RecoverWrapper(logger))
	r.Use(chimiddleware.Logger)
	r.Use(secureHeaders(opts.Production, logger))
	r.Use(withCORS(opts.AllowedOrigins))
	r.Use(opts.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", opts.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(chimiddleware.Timeout(timeout))

		api.Route("/auth", func(ar chi.Router) {
			ar.Use(httprate.Limit(authLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
			ar.Post("/otp", h.Users.SendOTP)
			ar.Post("/verify", h.Users.VerifyOTP)
			ar.Post("/logout", h.Users.Logout)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(middleware.Auth(opts.JWTSecret, opts.Grants))
			mountUser(pr, h.Users)

			// every role, drivers included
			pr.Get("/trips", h.Trips.List)
			pr.Get("/trips/{tripID}", h.Trips.Get)
			pr.Patch("/trips/{tripID}/status", h.Trips.UpdateStatus)
			pr.Post("/expenses", h.Expenses.Create)
			pr.Get("/expenses", h.Expenses.List)
			pr.Get("/expenses/{expenseID}", h.Expenses.Get)
			pr.Get("/documents", h.Documents.List)
			pr.Get("/documents/expiring", h.Documents.Expiring)
			pr.Post("/documents/{owner}/{ownerID}", h.Documents.Upload)

			pr.Group(func(ro chi.Router) {
				ro.Use(middleware.ReadOnlyFor(models.RoleDriver))
				mountDrivers(ro, h.Drivers)
				mountTrucks(ro, h.Trucks)
			})

			pr.Group(func(mr chi.Router) {
				mr.Use(middleware.AllowRoles(models.RoleOwner, models.RoleAccountant))
				mountTrips(mr, h.Trips)
				mountParties(mr, h.Parties)
				mountSuppliers(mr, h.Suppliers)
				mountShops(mr, h.Shops)
				mountInvoices(mr, h.Invoices)
				mr.Put("/expenses/{expenseID}", h.Expenses.Update)
				mr.Delete("/expenses/{expenseID}", h.Expenses.Delete)
				mr.Get("/expenses/totals", h.Expenses.Totals)
				mr.Delete("/documents/{owner}/{ownerID}", h.Documents.Delete)
				mr.Get("/dashboard", h.Accounts.Summary)
				mr.Get("/exports/trips.xlsx", h.Accounts.ExportTrips)
			})

			pr.With(middleware.AllowRoles(models.RoleOwner)).Delete("/account", h.Accounts.Delete)
		})
	})
	return r
}

func mountUser(r chi.Router, h *handlers.UserHandler) {
	r.Get("/user", h.Me)
	r.Put("/user", h.UpdateProfile)
	r.Get("/user/roles", h.Roles)
	r.Post("/user/roles", h.GrantRole)
	r.Delete("/user/roles/{phone}", h.RevokeRole)
	r.Get("/user/delegated", h.DelegatedAccounts)
	r.Post("/user/switch", h.SwitchRole)
	r.Delete("/user/switch", h.ExitRole)
}

func mountTrips(r chi.Router, h *handlers.TripHandler) {
	r.Post("/trips", h.Create)
	r.Put("/trips/{tripID}", h.Update)
	r.Delete("/trips/{tripID}", h.Delete)
	r.Post("/trips/{tripID}/accounts", h.AddAccount)
	r.Put("/trips/{tripID}/accounts/{accountID}", h.UpdateAccount)
	r.Delete("/trips/{tripID}/accounts/{accountID}", h.DeleteAccount)
	r.Post("/trips/{tripID}/charges", h.AddCharge)
	r.Put("/trips/{tripID}/charges/{chargeID}", h.UpdateCharge)
	r.Delete("/trips/{tripID}/charges/{chargeID}", h.DeleteCharge)
}

func mountParties(r chi.Router, h *handlers.PartyHandler) {
	r.Post("/parties", h.Create)
	r.Get("/parties", h.List)
	r.Get("/parties/{partyID}", h.Get)
	r.Put("/parties/{partyID}", h.Update)
	r.Delete("/parties/{partyID}", h.Delete)
	r.Post("/parties/{partyID}/payments", h.AddPayment)
	r.Delete("/parties/{partyID}/payments/{paymentID}", h.DeletePayment)
}

func mountSuppliers(r chi.Router, h *handlers.SupplierHandler) {
	r.Post("/suppliers", h.Create)
	r.Get("/suppliers", h.List)
	r.Get("/suppliers/{supplierID}", h.Get)
	r.Put("/suppliers/{supplierID}", h.Update)
	r.Delete("/suppliers/{supplierID}", h.Delete)
	r.Post("/suppliers/{supplierID}/payments", h.AddPayment)
	r.Delete("/suppliers/{supplierID}/payments/{paymentID}", h.DeletePayment)
}

func mountDrivers(r chi.Router, h *handlers.DriverHandler) {
	r.Post("/drivers", h.Create)
	r.Get("/drivers", h.List)
	r.Get("/drivers/{driverID}", h.Get)
	r.Put("/drivers/{driverID}", h.Update)
	r.Delete("/drivers/{driverID}", h.Delete)
	r.Post("/drivers/{driverID}/accounts", h.AddAccount)
	r.Delete("/drivers/{driverID}/accounts/{accountID}", h.DeleteAccount)
}

func mountTrucks(r chi.Router, h *handlers.TruckHandler) {
	r.Post("/trucks", h.Create)
	r.Get("/trucks", h.List)
	r.Get("/trucks/{truckID}", h.Get)
	r.Put("/trucks/{truckID}", h.Update)
	r.Delete("/trucks/{truckID}", h.Delete)
}

func mountShops(r chi.Router, h *handlers.ShopHandler) {
	r.Post("/shops", h.Create)
	r.Get("/shops", h.List)
	r.Get("/shops/{shopID}", h.Get)
	r.Put("/shops/{shopID}", h.Update)
	r.Delete("/shops/{shopID}", h.Delete)
	r.Post("/shops/{shopID}/khata", h.AddAccount)
	r.Delete("/shops/{shopID}/khata/{accountID}", h.DeleteAccount)
}

func mountInvoices(r chi.Router, h *handlers.InvoiceHandler) {
	r.Post("/invoices", h.Create)
	r.Get("/invoices", h.List)
	r.Get("/invoices/{invoiceID}", h.Get)
	r.Post("/invoices/{invoiceID}/refresh", h.Refresh)
	r.Post("/invoices/{invoiceID}/pdf", h.RenderPDF)
	r.Delete("/invoices/{invoiceID}", h.Delete)
}
