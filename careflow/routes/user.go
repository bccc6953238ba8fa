package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"careflow/careflow/config"
	"careflow/careflow/controllers"
	"careflow/careflow/middlewares"
	"careflow/careflow/types"
)

func UserRoutes(ctrl *controllers.UserController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))
		// GET /users/me
		gr.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			user, err := ctrl.GetUser(r.Context(), userID)
			if err != nil {
				writeError(w, err)
				return
			}
			if user == nil {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(user)
		})
		// GET /users/
		gr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			users, err := ctrl.GetAllUsers(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			json.NewEncoder(w).Encode(users)
		})
	})
	// POST /users/ : open registration
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		user, err := ctrl.CreateUser(r.Context(), req.Username, req.Email, req.FullName)
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(user)
	})
	return r
}
