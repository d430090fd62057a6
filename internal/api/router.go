package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/web3hire/web3hire-be/internal/api/handlers"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/cache"
	"github.com/web3hire/web3hire-be/internal/chain"
	"github.com/web3hire/web3hire-be/internal/ipfs"
	"github.com/web3hire/web3hire-be/internal/services"
)

// Deps bundles the constructed components the router wires together.
// Everything is passed in explicitly; nothing here reads globals.
type Deps struct {
	Tokens     *auth.TokenManager
	AuthSvc    services.AuthServiceProvider
	Users      services.UserServiceProvider
	Tasks      services.TaskServiceProvider
	Jobs       services.JobServiceProvider
	Matches    services.MatchServiceProvider
	QueryCache *cache.Cache // nil disables caching
	Pinner     *ipfs.Client // nil disables resume uploads
	Chain      *chain.Client
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.AuthSvc, deps.Users)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Pinner, deps.Chain)
	taskHandler := handlers.NewTaskHandler(deps.Tasks, deps.QueryCache)
	jobHandler := handlers.NewJobHandler(deps.Jobs, deps.QueryCache)
	matchHandler := handlers.NewMatchHandler(deps.Matches)

	requireAuth := deps.Tokens.Middleware()
	maybeAuth := deps.Tokens.OptionalMiddleware()

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/nonce", authHandler.Nonce)
			r.Post("/verify", authHandler.Verify)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Get("/wallet/{address}", userHandler.GetByWallet)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Put("/me", userHandler.UpdateMe)
				r.Post("/me/resume", userHandler.UploadResume)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			// Public reads; claims are picked up when present so the
			// query cache only serves anonymous traffic.
			r.Group(func(r chi.Router) {
				r.Use(maybeAuth)
				r.Get("/", taskHandler.List)
				r.Get("/search", taskHandler.Search)
			})
			r.Get("/{id}", taskHandler.Get)
			r.Get("/employer/{employerId}", taskHandler.ByEmployer)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", taskHandler.Create)
				r.Put("/{id}", taskHandler.Update)
				r.Post("/{id}/cancel", taskHandler.Cancel)
				r.Post("/{id}/bid", taskHandler.Bid)
				r.Post("/{id}/award", taskHandler.Award)
				r.Post("/{id}/deliverables", taskHandler.SubmitDeliverable)
				r.Post("/{id}/complete", taskHandler.Complete)
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(maybeAuth)
				r.Get("/", jobHandler.List)
				r.Get("/search", jobHandler.Search)
			})
			r.Get("/{id}", jobHandler.Get)
			r.Get("/employer/{employerId}", jobHandler.ByEmployer)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", jobHandler.Create)
				r.Put("/{id}", jobHandler.Update)
				r.Post("/{id}/close", jobHandler.Close)
				r.Post("/{id}/apply", jobHandler.Apply)
			})
		})

		r.Route("/match", func(r chi.Router) {
			r.Get("/jobs/{jobId}/candidates", matchHandler.CandidatesForJob)
			r.With(requireAuth).Get("/candidates/{candidateId}/jobs", matchHandler.JobsForCandidate)
		})
	})

	return r
}
