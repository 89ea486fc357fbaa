package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mugs/pkg/platform/httputil"
	authmw "mugs/pkg/platform/middleware/auth"
	"mugs/pkg/platform/middleware/request"
)

// Registrar mounts a module's endpoints.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one backing service.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Deps are the pieces the router is assembled from.
type Deps struct {
	Logger         *slog.Logger
	Tokens         authmw.TokenValidator
	Revocations    authmw.RevocationChecker
	AllowedOrigins []string
	MetricsEnabled bool
	Health         []HealthCheck
	Modules        []Registrar
}

// NewRouter wires the middleware chain, the operational endpoints and every
// module. Bearer tokens are validated for all routes; anonymous requests pass
// through and are refused by the authorization gate where a principal is needed.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(chimw.Recoverer)
	r.Use(request.AccessLog(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders:   []string{request.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(d.Health))
	if d.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(d.Tokens, d.Revocations, d.Logger))
		for _, m := range d.Modules {
			m.Register(r)
		}
	})
	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				results[c.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": results,
		})
	}
}
