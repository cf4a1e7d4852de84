package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rajavaid77/claims-review-pipeline/internal/config"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
	"github.com/rajavaid77/claims-review-pipeline/internal/observability/metrics"
)

// Router serves the read-only audit surface: claim summaries, per-claim
// event history, and the derived lifecycle state. Nothing here mutates the
// pipeline; writes only ever happen through bus notifications.
type Router struct {
	cfg     config.Config
	history ports.ClaimHistoryService
	metrics *metrics.HTTPMetrics
}

func NewRouter(cfg config.Config, history ports.ClaimHistoryService, httpMetrics *metrics.HTTPMetrics) *Router {
	return &Router{
		cfg:     cfg,
		history: history,
		metrics: httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		r.Use(rateLimitMiddleware(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst))
	}
	if rt.cfg.APIMaxInFlight > 0 {
		queueTimeout := time.Duration(rt.cfg.APIQueueTimeoutMillis) * time.Millisecond
		r.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.cfg.APIMaxInFlight, queueTimeout)
		})
	}

	r.Get("/healthz", rt.healthz)
	r.Get("/v1/claims", rt.listClaims)
	r.Get("/v1/claims/{claimReference}/events", rt.listClaimEvents)
	r.Get("/v1/claims/{claimReference}/state", rt.getClaimState)

	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listClaims(w http.ResponseWriter, r *http.Request) {
	summaries, err := rt.history.Summaries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claims": summaries})
}

func (rt *Router) listClaimEvents(w http.ResponseWriter, r *http.Request) {
	claimReference := strings.TrimSpace(chi.URLParam(r, "claimReference"))
	if claimReference == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "claim reference is required"})
		return
	}

	events, err := rt.history.Events(r.Context(), claimReference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"claim_reference": claimReference,
		"events":          events,
	})
}

func (rt *Router) getClaimState(w http.ResponseWriter, r *http.Request) {
	claimReference := strings.TrimSpace(chi.URLParam(r, "claimReference"))
	if claimReference == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "claim reference is required"})
		return
	}

	lifecycle, err := rt.history.State(r.Context(), claimReference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycle)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
