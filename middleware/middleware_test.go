package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/filesharinghq/core/activity"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestChainOrder(t *testing.T) {
	var calls []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(ok, mark("first"), mark("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("expected [first second] got %v", calls)
	}
}

func TestCorsPreflight(t *testing.T) {
	headers := map[string]string{"Access-Control-Allow-Origin": "*"}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	w := httptest.NewRecorder()
	Chain(next, Cors(headers)).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))

	if called {
		t.Error("preflight should not reach the handler")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestRequireAPIKey(t *testing.T) {
	h := Chain(ok, RequireAPIKey("secret-key"))

	tables := map[string]int{
		"":           http.StatusForbidden,
		"wrong":      http.StatusForbidden,
		"secret-key": http.StatusOK,
	}

	for key, code := range tables {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if key != "" {
			req.Header.Set(APIKeyHeader, key)
		}

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != code {
			t.Errorf("%q: expected %d got %d", key, code, w.Code)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected preflight to pass got %d", w.Code)
	}
}

func TestThrottleBurst(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	plan := UsagePlan{RateLimit: 1, BurstLimit: 2}
	h := Chain(ok, throttle(plan, func() time.Time { return now }))

	codes := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, code := range codes {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != code {
			t.Errorf("request %d: expected %d got %d", i, code, w.Code)
		}
	}
}

func TestThrottleDailyQuota(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	plan := UsagePlan{RateLimit: 1000, BurstLimit: 1000, QuotaLimit: 2}
	h := Chain(ok, throttle(plan, func() time.Time { return now }))

	do := func() int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w.Code
	}

	if do() != http.StatusOK || do() != http.StatusOK {
		t.Fatal("expected the first two requests to pass")
	}
	if c := do(); c != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the quota is used got %d", c)
	}

	now = now.Add(24 * time.Hour)
	if c := do(); c != http.StatusOK {
		t.Errorf("expected the quota to reset the next day got %d", c)
	}
}

func TestRequestID(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = activity.RequestID(r.Context())
	})

	w := httptest.NewRecorder()
	Chain(next, RequestID()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(got) == 0 || w.Header().Get(RequestIDHeader) != got {
		t.Errorf("expected a generated id echoed back got %q / %q", got, w.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	Chain(next, RequestID()).ServeHTTP(httptest.NewRecorder(), req)
	if got != "abc" {
		t.Errorf("expected abc got %s", got)
	}
}
