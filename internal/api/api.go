package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/auth"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/config"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/metrics"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/service"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Auth gates /api/v1.
	Auth   auth.Authenticator
	Users  store.UserStore
	Hasher auth.Hasher
	// Accounts backs the root user-auth service routes.
	Accounts *service.UserService
	// Sweeper, when set, runs for the lifetime of Serve.
	Sweeper *store.Sweeper
}

type Api struct {
	Config config.Config
	Router *chi.Mux

	logger   *slog.Logger
	metrics  *metrics.Metrics
	auth     auth.Authenticator
	users    store.UserStore
	hasher   auth.Hasher
	accounts *service.UserService
	sweeper  *store.Sweeper
	validate *validator.Validate
}

func NewApi(cfg config.Config, deps Deps) (*Api, error) {
	if cfg.API.Port == 0 {
		return nil, errors.New("Must have at least a port to start API")
	}
	if deps.Auth == nil || deps.Users == nil || deps.Accounts == nil {
		return nil, errors.New("api needs an authenticator, a user store and an account service")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	if deps.Hasher == nil {
		deps.Hasher = auth.BcryptHasher{Cost: cfg.Auth.BcryptCost}
	}

	if deps.Sweeper != nil {
		deps.Sweeper.OnRemoved(deps.Metrics.SessionsExpired)
	}

	api := &Api{
		Config:   cfg,
		Router:   chi.NewRouter(),
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		auth:     deps.Auth,
		users:    deps.Users,
		hasher:   deps.Hasher,
		accounts: deps.Accounts,
		sweeper:  deps.Sweeper,
		validate: newValidator(),
	}
	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging(api.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(api.metrics.Middleware)
	r.Use(middleware.Heartbeat("/heartbeat"))
	if api.Config.API.RequestTimeout > 0 {
		r.Use(middleware.Timeout(api.Config.API.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if api.Config.Metrics.Enabled {
		r.Method(http.MethodGet, api.Config.Metrics.Path, api.metrics.Handler())
	}

	// User-auth service
	r.Get("/", api.Index)
	r.Post("/users", api.RegisterUser)
	r.Post("/sessions", api.Login)
	r.Delete("/sessions", api.Logout)
	r.Get("/profile", api.Profile)
	r.Post("/reset_password", api.GetResetPasswordToken)
	r.Put("/reset_password", api.UpdatePassword)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   api.Config.API.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		r.Use(api.Gate)

		r.Get("/status", api.Status)
		r.Get("/stats", api.Stats)
		r.Get("/unauthorized", api.Unauthorized)
		r.Get("/forbidden", api.Forbidden)

		r.Get("/users", api.ListUsers)
		r.Post("/users", api.CreateUser)
		r.Get("/users/{userID}", api.GetUser)
		r.Put("/users/{userID}", api.UpdateUser)
		r.Delete("/users/{userID}", api.DeleteUser)

		r.Post("/auth_session/login", api.SessionLogin)
		r.Delete("/auth_session/logout", api.SessionLogout)
		r.Post("/auth_token/login", api.TokenLogin)
	})
}

// Serve listens on the configured address until ctx is cancelled, then
// drains in-flight requests.
func (api *Api) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    api.Config.API.Addr(),
		Handler: api.Router,
	}

	if api.sweeper != nil {
		go api.sweeper.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		api.logger.Info("starting API server", "addr", srv.Addr, "auth_type", api.auth.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	timeout := api.Config.API.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	api.logger.Info("shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}
