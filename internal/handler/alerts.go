package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signalist/alert-monitor/internal/dedup"
	"github.com/signalist/alert-monitor/internal/store"
)

// CooldownCache clears an alert's suppression key when the alert is toggled
// or deleted, so a re-enabled or re-created alert can fire immediately.
type CooldownCache interface {
	Clear(ctx context.Context, key string)
}

func ListAlerts(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, `{"error":"user_id required"}`, http.StatusBadRequest)
			return
		}

		alerts, err := s.ListUserAlerts(r.Context(), userID)
		if err != nil {
			http.Error(w, `{"error":"failed to list alerts"}`, http.StatusInternalServerError)
			return
		}
		if alerts == nil {
			alerts = []store.Alert{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alerts)
	}
}

func CreateAlert(s *store.Store) http.HandlerFunc {
	type request struct {
		UserID    string          `json:"user_id"`
		Symbol    string          `json:"symbol"`
		Company   string          `json:"company"`
		AlertKind string          `json:"alert_kind"`
		Condition store.Condition `json:"condition"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		if req.UserID == "" || req.Symbol == "" || req.Company == "" {
			http.Error(w, `{"error":"user_id, symbol and company required"}`, http.StatusBadRequest)
			return
		}
		if !req.Condition.Type.Valid() {
			http.Error(w, `{"error":"unknown condition type"}`, http.StatusBadRequest)
			return
		}
		if req.Condition.Type.NeedsValue() && req.Condition.Value == nil {
			http.Error(w, `{"error":"condition value required for price conditions"}`, http.StatusBadRequest)
			return
		}
		if req.AlertKind == "" {
			req.AlertKind = "price_target"
		}

		alert, err := s.CreateAlert(r.Context(), &store.Alert{
			UserID:    req.UserID,
			Symbol:    req.Symbol,
			Company:   req.Company,
			AlertKind: req.AlertKind,
			Condition: req.Condition,
		})
		if err != nil {
			http.Error(w, `{"error":"failed to create alert"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(alert)
	}
}

func ToggleAlert(s *store.Store, cache CooldownCache) http.HandlerFunc {
	type request struct {
		UserID string `json:"user_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, `{"error":"user_id required"}`, http.StatusBadRequest)
			return
		}

		alert, err := s.ToggleAlert(r.Context(), id, req.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, `{"error":"alert not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"failed to update alert"}`, http.StatusInternalServerError)
			return
		}
		if cache != nil {
			cache.Clear(r.Context(), dedup.CooldownKey(alert.ID))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alert)
	}
}

func DeleteAlert(s *store.Store, cache CooldownCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, `{"error":"user_id required"}`, http.StatusBadRequest)
			return
		}

		if err := s.DeleteAlert(r.Context(), id, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, `{"error":"alert not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"failed to delete alert"}`, http.StatusInternalServerError)
			return
		}
		if cache != nil {
			cache.Clear(r.Context(), dedup.CooldownKey(id))
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
