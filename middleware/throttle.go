package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UsagePlan mirrors the throttle and quota of an API gateway usage plan.
type UsagePlan struct {
	Name       string
	RateLimit  float64
	BurstLimit int
	// QuotaLimit is the number of requests allowed per UTC day, 0 for none.
	QuotaLimit int
}

// BasicPlan is the plan attached to the upload API.
var BasicPlan = UsagePlan{
	Name:       "Basic",
	RateLimit:  5,
	BurstLimit: 10,
	QuotaLimit: 10,
}

type quota struct {
	mu    sync.Mutex
	day   string
	count int
	now   func() time.Time
}

func (q *quota) take(limit int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	day := q.now().UTC().Format("2006-01-02")
	if day != q.day {
		q.day = day
		q.count = 0
	}

	if q.count >= limit {
		return false
	}
	q.count++
	return true
}

// Throttle applies plan to every request reaching next. Preflight requests
// are not counted.
func Throttle(plan UsagePlan) Middleware {
	return throttle(plan, time.Now)
}

func throttle(plan UsagePlan, now func() time.Time) Middleware {
	limiter := rate.NewLimiter(rate.Limit(plan.RateLimit), plan.BurstLimit)
	q := &quota{now: now}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.AllowN(now(), 1) {
				writeMessage(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}

			if plan.QuotaLimit > 0 && !q.take(plan.QuotaLimit) {
				writeMessage(w, http.StatusTooManyRequests, "Limit Exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
