package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/signalist/alert-monitor/internal/monitor"
)

// RunCycle triggers one monitoring cycle on demand and returns its report.
// Used for operational triggering and smoke-testing a deployment.
func RunCycle(engine *monitor.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := engine.RunOnce(r.Context(), time.Now())
		if err != nil {
			if errors.Is(err, monitor.ErrCycleInProgress) {
				http.Error(w, `{"error":"cycle already in progress"}`, http.StatusConflict)
				return
			}
			// The cycle aborted (store unavailable); the report still
			// describes what happened.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(report)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// LastReport returns the report of the most recently completed cycle.
func LastReport(engine *monitor.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report := engine.LastReport()
		if report == nil {
			http.Error(w, `{"error":"no cycle has run yet"}`, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}
