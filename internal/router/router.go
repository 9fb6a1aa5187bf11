package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"refyn-backend/internal/handlers"
	"refyn-backend/internal/middleware"
	"refyn-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	mediaHandler *handlers.MediaHandler,
	critiqueHandler *handlers.CritiqueHandler,
	noteHandler *handlers.NoteHandler,
	courseHandler *handlers.CourseHandler,
	sessionHandler *handlers.CourseSessionHandler,
	locationHandler *handlers.LocationHandler,
	userHandler *handlers.UserHandler,
	adminHandler *handlers.AdminHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/verify-email", authHandler.VerifyEmail)
			r.Post("/resend-verification", authHandler.ResendVerification)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Media Routes ────
		r.Route("/media", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/upload", mediaHandler.Upload)
			r.Get("/", mediaHandler.List)
			r.Get("/{id}", mediaHandler.Get)
			r.Get("/{id}/file", mediaHandler.ServeFile)
			r.Delete("/{id}", mediaHandler.Delete)
		})

		// ──── Critique Routes ────
		r.Route("/critiques", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/request", critiqueHandler.Request)
			r.Get("/", critiqueHandler.List)
			r.Get("/{id}", critiqueHandler.Get)
			r.Delete("/{id}", critiqueHandler.Delete)
			r.Post("/{id}/chat", critiqueHandler.Chat)
		})

		// ──── Note Routes ────
		r.Route("/notes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", noteHandler.Create)
			r.Get("/", noteHandler.List)
			r.Get("/{id}", noteHandler.Get)
			r.Put("/{id}", noteHandler.Update)
			r.Delete("/{id}", noteHandler.Delete)
		})

		// ──── Course Routes ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/generate", courseHandler.Generate)
			r.Get("/", courseHandler.List)
			r.Get("/{id}", courseHandler.Get)
			r.Delete("/{id}", courseHandler.Delete)

			// Interactive viewer session
			r.Route("/{id}/session", func(r chi.Router) {
				r.Post("/open", sessionHandler.Open)
				r.Get("/state", sessionHandler.State)
				r.Post("/advance", sessionHandler.Advance)
				r.Post("/retreat", sessionHandler.Retreat)
				r.Post("/jump", sessionHandler.Jump)
				r.Post("/answer", sessionHandler.Answer)
				r.Post("/submit", sessionHandler.Submit)
				r.Post("/close", sessionHandler.Close)
			})
		})

		// ──── Location Routes ────
		r.Route("/locations", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/nearby", locationHandler.Nearby)
			r.Get("/favorites", locationHandler.ListFavorites)
			r.Post("/favorites", locationHandler.SaveFavorite)
			r.Delete("/favorites/{id}", locationHandler.DeleteFavorite)
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
			r.Put("/password", userHandler.ChangePassword)
			r.Delete("/me", userHandler.DeleteMe)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.RequireAdmin)
			r.Get("/stats", adminHandler.Stats)
			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}/plan", adminHandler.SetPlan)
			r.Put("/users/{id}/deactivate", adminHandler.DeactivateUser)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetJob)
			r.Delete("/{id}", jobHandler.CancelJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
