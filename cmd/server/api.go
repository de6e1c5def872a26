package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/p-n-ai/psr-academy/internal/coverage"
	"github.com/p-n-ai/psr-academy/internal/platform/cache"
)

const defaultWeakest = 5

type readinessCheck struct {
	name  string
	check func(context.Context) error
}

// api serves the read-only coverage and learner analytics queries.
type api struct {
	svc     *coverage.Service
	limiter *cache.Limiter
	checks  []readinessCheck
}

// newMux creates the HTTP router with health checks and the query API.
func newMux(a *api) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	mux.Handle("GET /api/coverage", a.limit(a.handleCoverage))
	mux.Handle("GET /api/coverage/{nodeID}", a.limit(a.handleNode))
	mux.Handle("GET /api/learners/{learnerID}/weakest", a.limit(a.handleWeakest))
	mux.Handle("GET /api/learners/{learnerID}/readiness", a.limit(a.handleReadiness))
	mux.Handle("GET /api/learners/{learnerID}/criteria/{criterionID}", a.limit(a.handleCriterion))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleReadyz(w http.ResponseWriter, r *http.Request) {
	for _, c := range a.checks {
		if err := c.check(r.Context()); err != nil {
			slog.Warn("readiness check failed", "check", c.name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "check": c.name})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// limit rejects callers that have used up their per-minute budget.
func (a *api) limit(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.limiter != nil && !a.limiter.Allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	})
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (a *api) handleCoverage(w http.ResponseWriter, r *http.Request) {
	sum, err := a.svc.Coverage(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *api) handleNode(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Node(r.Context(), r.PathValue("nodeID"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *api) handleWeakest(w http.ResponseWriter, r *http.Request) {
	n := defaultWeakest
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = v
	}
	weak, err := a.svc.Weakest(r.Context(), r.PathValue("learnerID"), n)
	if err != nil {
		a.fail(w, err)
		return
	}
	if weak == nil {
		weak = []coverage.CriterionAnalytics{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"criteria": weak})
}

func (a *api) handleReadiness(w http.ResponseWriter, r *http.Request) {
	rd, err := a.svc.Readiness(r.Context(), r.PathValue("learnerID"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rd)
}

func (a *api) handleCriterion(w http.ResponseWriter, r *http.Request) {
	c, err := a.svc.Criterion(r.Context(), r.PathValue("learnerID"), r.PathValue("criterionID"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *api) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, coverage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	slog.Error("query failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}
