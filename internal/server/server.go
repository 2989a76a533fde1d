package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/IADOZERO/weeks-focus/internal/config"
	"github.com/IADOZERO/weeks-focus/internal/handlers"
	"github.com/IADOZERO/weeks-focus/internal/middleware"
	"github.com/IADOZERO/weeks-focus/internal/repository"
	"github.com/IADOZERO/weeks-focus/internal/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(database *sql.DB, cfg config.Config, authService *services.AuthService) *Server {
	userRepo := repository.NewUserRepository(database)
	visionRepo := repository.NewVisionRepository(database)
	cycleRepo := repository.NewCycleRepository(database)
	objectiveRepo := repository.NewObjectiveRepository(database)
	actionRepo := repository.NewActionRepository(database)
	reviewRepo := repository.NewWeeklyReviewRepository(database)
	tokenRepo := repository.NewAPITokenRepository(database)

	planner := services.NewPlannerService(cycleRepo, objectiveRepo, actionRepo, reviewRepo, visionRepo)

	authHandler := handlers.NewAuthHandler(authService)
	apiHandler := handlers.NewAPIHandler(planner, tokenRepo)
	icalHandler := handlers.NewICalHandler(planner, tokenRepo)

	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/login", authHandler.Login)
	router.Get("/auth/callback", authHandler.Callback)
	router.Get("/logout", authHandler.Logout)

	router.Get("/ical", icalHandler.Feed)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(authService))

		r.Get("/api/visions", apiHandler.ListVisions)
		r.Post("/api/visions", apiHandler.CreateVision)
		r.Put("/api/visions/{id}", apiHandler.UpdateVision)
		r.Delete("/api/visions/{id}", apiHandler.DeleteVision)

		r.Get("/api/cycles", apiHandler.ListCycles)
		r.Post("/api/cycles", apiHandler.CreateCycle)
		r.Patch("/api/cycles/{id}", apiHandler.UpdateCycle)
		r.Delete("/api/cycles/{id}", apiHandler.DeleteCycle)

		r.Post("/api/cycles/{id}/objectives", apiHandler.CreateObjective)
		r.Post("/api/objectives/{id}/toggle", apiHandler.ToggleObjective)
		r.Delete("/api/objectives/{id}", apiHandler.DeleteObjective)

		r.Post("/api/objectives/{id}/actions", apiHandler.CreateAction)
		r.Patch("/api/actions/{id}", apiHandler.UpdateAction)
		r.Post("/api/actions/{id}/toggle", apiHandler.ToggleAction)
		r.Delete("/api/actions/{id}", apiHandler.DeleteAction)

		r.Post("/api/cycles/{id}/reviews", apiHandler.CreateReview)
		r.Get("/api/cycles/{id}/weeks", apiHandler.WeekScores)

		r.Get("/api/dashboard", apiHandler.Dashboard)

		r.Get("/api/tokens", apiHandler.ListTokens)
		r.Post("/api/tokens", apiHandler.CreateToken)
		r.Delete("/api/tokens/{id}", apiHandler.DeleteToken)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo, userRepo))

		r.Get("/api/v1/cycles", apiHandler.ListCycles)
		r.Get("/api/v1/cycles/{id}/weeks", apiHandler.WeekScores)
		r.Get("/api/v1/dashboard", apiHandler.Dashboard)
		r.Get("/api/v1/visions", apiHandler.ListVisions)
	})

	server := &Server{
		router: router,
		config: cfg,
	}

	return server
}

func (server *Server) Start() error {
	address := ":" + server.config.Port
	slog.Info("starting server", "address", address)
	return http.ListenAndServe(address, server.router)
}
