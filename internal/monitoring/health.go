package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker reports liveness of the candle feed and the last
// decision activity.
type HealthChecker struct {
	mu            sync.RWMutex
	lastCandle    time.Time
	lastError     string
	feedConnected bool
}

type HealthStatus struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	LastCandle    time.Time `json:"last_candle"`
	FeedConnected bool      `json:"feed_connected"`
	Uptime        string    `json:"uptime"`
	LastError     string    `json:"last_error,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// SetFeedConnected records the candle stream state.
func (h *HealthChecker) SetFeedConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.feedConnected = connected
}

// CandleSeen records candle arrival for staleness detection.
func (h *HealthChecker) CandleSeen(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCandle = at
}

// ReportError stores the most recent error message.
func (h *HealthChecker) ReportError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastError = err.Error()
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.feedConnected || (!h.lastCandle.IsZero() && time.Since(h.lastCandle) > 5*time.Minute) {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	health := HealthStatus{
		Status:        status,
		Timestamp:     time.Now(),
		LastCandle:    h.lastCandle,
		FeedConnected: h.feedConnected,
		Uptime:        time.Since(startTime).String(),
		LastError:     h.lastError,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
