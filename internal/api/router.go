package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/ender-tasks/internal/api/handlers"
	"github.com/isdelr/ender-tasks/internal/auth"
	"github.com/isdelr/ender-tasks/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(taskService services.TaskServiceProvider, userService services.UserServiceProvider, tokens *auth.TokenIssuer, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService, tokens)

	r.Get("/", handlers.Status)
	r.Post("/user", userHandler.Register)
	r.Post("/login", userHandler.Login)

	r.Route("/task", func(r chi.Router) {
		r.Use(auth.RequireToken)

		r.Get("/", taskHandler.GetAll)
		r.Post("/", taskHandler.Create)
		r.Route("/{id:[0-9]+}", func(r chi.Router) {
			r.Get("/", taskHandler.Get)
			r.Put("/", taskHandler.Update)
			r.Delete("/", taskHandler.Delete)
		})
	})

	return r
}
