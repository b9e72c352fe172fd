package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/domain"
	apimw "github.com/hamed0406/resourcewatch/internal/httpapi/middleware"
	"github.com/hamed0406/resourcewatch/internal/resource"
)

// Checker runs an on-demand pass over the fleet; *scheduler.Runner
// satisfies it.
type Checker interface {
	RunOnce(ctx context.Context, action string) domain.Status
}

type Server struct {
	Logger    *zap.Logger
	Resources []*resource.Resource
	Checker   Checker
	Codes     domain.ExitCodes
}

func NewServer(l *zap.Logger, resources []*resource.Resource, c Checker, codes domain.ExitCodes) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	if codes == nil {
		codes = domain.DefaultExitCodes()
	}
	return &Server{Logger: l, Resources: resources, Checker: c, Codes: codes}
}

// Options configure the router's outer layer.
type Options struct {
	Keys           apimw.Keys
	AllowedOrigins []string // empty allows all
	CheckPerMin    int
	CheckBurst     int
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	if len(opts.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(apimw.RequireAny(opts.Keys))

		api.Get("/resources", s.handleListResources)
		api.Get("/resources/{slug}", s.handleGetResource)
		api.Get("/status", s.handleStatus)

		api.With(
			apimw.RequireAdmin(opts.Keys),
			apimw.RateLimit(opts.CheckPerMin, opts.CheckBurst),
		).Post("/check", s.handleCheck)
	})

	return r
}

type memberStatus struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Healthy bool   `json:"healthy"`
}

type statusPayload struct {
	Status    string         `json:"status"`
	ExitCode  int            `json:"exit_code"`
	Resources []memberStatus `json:"resources"`
}

func (s *Server) fleetStatus() (domain.Status, statusPayload) {
	status := resource.FleetStatus(s.Resources)
	p := statusPayload{
		Status:    status.String(),
		ExitCode:  s.Codes.Code(status),
		Resources: make([]memberStatus, 0, len(s.Resources)),
	}
	for _, res := range s.Resources {
		p.Resources = append(p.Resources, memberStatus{
			Slug:    res.Slug(),
			Name:    res.Name(),
			Status:  res.Status().String(),
			Healthy: res.IsHealthy(),
		})
	}
	return status, p
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	depth, ok := depthParam(w, r)
	if !ok {
		return
	}
	out := make([]map[string]any, 0, len(s.Resources))
	for _, res := range s.Resources {
		out = append(out, res.Serialize(depth))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	depth, ok := depthParam(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")
	for _, res := range s.Resources {
		if res.Slug() == slug {
			writeJSON(w, http.StatusOK, res.Serialize(depth))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "resource not found"})
}

// handleStatus answers 200 only when the whole fleet is OK, so it can back
// a load-balancer or uptime probe.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, p := s.fleetStatus()
	code := http.StatusOK
	if status != domain.StatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, p)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if s.Checker == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "checks are not available"})
		return
	}
	action := r.URL.Query().Get("action")
	if action == "" {
		action = "web"
	}
	status := s.Checker.RunOnce(r.Context(), action)
	s.Logger.Info("on_demand_check",
		zap.String("action", action),
		zap.String("status", status.String()),
		zap.String("remote", r.RemoteAddr),
	)
	_, p := s.fleetStatus()
	writeJSON(w, http.StatusOK, p)
}

func depthParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return resource.DefaultDepth, true
	}
	d, err := strconv.Atoi(raw)
	if err != nil || d < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "depth must be a positive integer"})
		return 0, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
