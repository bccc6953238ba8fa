package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"careflow/careflow/apperrors"
	"careflow/careflow/config"
	"careflow/careflow/controllers"
	"careflow/careflow/middlewares"
	"careflow/careflow/types"
)

func NotificationRoutes(ctrl *controllers.NotificationController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))

	parseID := func(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
		id, err := uuid.Parse(chi.URLParam(r, "notification_id"))
		if err != nil {
			writeError(w, apperrors.ErrValidation)
			return uuid.Nil, false
		}
		return id, true
	}

	// GET /notifications/?limit=N
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middlewares.UserIDKey).(int)
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		ns, err := ctrl.List(r.Context(), userID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(ns)
	})

	// POST /notifications/ : schedule a reminder
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middlewares.UserIDKey).(int)
		var req types.ScheduleNotificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n, err := ctrl.Schedule(r.Context(), userID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(n)
	})

	// GET /notifications/{notification_id}
	r.Get("/{notification_id}", func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middlewares.UserIDKey).(int)
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		n, err := ctrl.Get(r.Context(), userID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(n)
	})

	// POST /notifications/{notification_id}/interaction
	r.Post("/{notification_id}/interaction", func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middlewares.UserIDKey).(int)
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		var req types.InteractionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n, err := ctrl.RecordInteraction(r.Context(), userID, id, req.Kind)
		if err != nil {
			writeError(w, err)
			return
		}
		json.NewEncoder(w).Encode(n)
	})

	// DELETE /notifications/{notification_id} : withdraw while pending
	r.Delete("/{notification_id}", func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middlewares.UserIDKey).(int)
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := ctrl.Cancel(r.Context(), userID, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
