package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/psr-academy/internal/app/apptest"
	"github.com/p-n-ai/psr-academy/internal/coverage"
	"github.com/p-n-ai/psr-academy/internal/platform/cache"
	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

func testAPI(t *testing.T, limit int, checks ...readinessCheck) *http.ServeMux {
	t.Helper()
	doc, err := standards.Parse([]byte(apptest.Standards))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	bank := &questionbank.Bank{}
	for _, id := range []string{"q1", "q2", "q3"} {
		bank.Questions = append(bank.Questions, questionbank.Question{ID: id, Tags: []string{"arrest"}})
	}
	progress := coverage.NewMemoryProgress()
	if err := progress.Set("alice", coverage.Progress{CriterionID: "C1", Answered: 10, Correct: 3}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	svc := coverage.NewService(doc, bank, progress, cache.NewMemory(time.Minute))
	return newMux(&api{svc: svc, limiter: cache.NewLimiter(limit, time.Minute), checks: checks})
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	mux := testAPI(t, 0)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(mux, tt.path)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	down := readinessCheck{name: "database", check: func(context.Context) error { return errors.New("down") }}
	rec := get(testAPI(t, 0, down), "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rec.Body.String(), `"check":"database"`) {
		t.Errorf("body = %q, want failing check named", rec.Body.String())
	}
}

func TestQueryEndpoints(t *testing.T) {
	mux := testAPI(t, 0)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantInBody string
	}{
		{"coverage", "/api/coverage", http.StatusOK, `"covered":1`},
		{"node", "/api/coverage/U1", http.StatusOK, `"id":"U1"`},
		{"unknown node", "/api/coverage/X9", http.StatusNotFound, `"error"`},
		{"weakest", "/api/learners/alice/weakest?n=3", http.StatusOK, `"criterionId":"C1"`},
		{"weakest bad n", "/api/learners/alice/weakest?n=zero", http.StatusBadRequest, `positive integer`},
		{"weakest no record", "/api/learners/bob/weakest", http.StatusOK, `{"criteria":[]}`},
		{"readiness", "/api/learners/alice/readiness", http.StatusOK, `"ready":false`},
		{"criterion", "/api/learners/alice/criteria/C1", http.StatusOK, `"matches":3`},
		{"unknown criterion", "/api/learners/alice/criteria/C9", http.StatusNotFound, `"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(mux, tt.path)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantInBody) {
				t.Errorf("body = %s, want it to contain %s", rec.Body.String(), tt.wantInBody)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestQueryEndpoints_ReadinessBody(t *testing.T) {
	rec := get(testAPI(t, 0), "/api/learners/alice/readiness")
	var got coverage.Readiness
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 1 || got.Mastered != 0 || got.Ready {
		t.Errorf("readiness = %+v", got)
	}
}

func TestRateLimit(t *testing.T) {
	mux := testAPI(t, 2)

	for i := 0; i < 2; i++ {
		if rec := get(mux, "/api/coverage"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}
	if rec := get(mux, "/api/coverage"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec := get(mux, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz should not be limited, got %d", rec.Code)
	}
}

func TestRateLimit_Concurrent(t *testing.T) {
	mux := testAPI(t, 5)

	var wg sync.WaitGroup
	codes := make([]int, 20)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = get(mux, "/api/coverage").Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, c := range codes {
		if c == http.StatusOK {
			ok++
		}
	}
	if ok != 5 {
		t.Errorf("%d requests served, want exactly 5", ok)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	if got := clientKey(req); got != "10.0.0.5" {
		t.Errorf("clientKey() = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientKey(req); got != "203.0.113.7" {
		t.Errorf("clientKey() = %q", got)
	}
}
