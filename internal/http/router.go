package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mlegrand/stashhub/internal/auth"
	"github.com/mlegrand/stashhub/internal/config"
	"github.com/mlegrand/stashhub/internal/http/handlers"
	"github.com/mlegrand/stashhub/internal/http/middlewares"
	"github.com/mlegrand/stashhub/internal/observability"
	"github.com/mlegrand/stashhub/internal/redisclient"
	"github.com/mlegrand/stashhub/internal/repo/postgres"
	"github.com/mlegrand/stashhub/internal/session"
)

const maxBodyBytes = 1 << 20 // 1 MiB is plenty for auth payloads

// NewRouter wires the full HTTP surface. rc may be nil; the vault and the
// login limiter then fall back to their single-process in-memory stores.
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rc *redisclient.Client, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware([]string{cfg.FrontendURL}))
	r.Use(otelgin.Middleware("stashhub"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health + metrics

	pings := map[string]func() error{
		"postgres": func() error {
			if pool == nil {
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			return pool.Ping(ctx)
		},
	}

	if rc != nil {
		pings["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			return rc.Ping(ctx)
		}
	}

	h := handlers.NewHealthHandler(pings)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories and services

	usersRepo := postgres.NewUsersRepo(pool)
	jwtManager := auth.NewManager(cfg.JWTSecret)
	google := auth.NewGoogleBridge(cfg.GoogleClientID, cfg.GoogleClientSecret)
	cookies := session.NewTransport(cfg.Env)

	var (
		vault        session.Vault
		limiterStore middlewares.LimiterStore
	)

	if rc != nil {
		vault = session.NewRedisVault(rc.Raw(), session.DefaultVaultTTL)
		limiterStore = middlewares.NewRedisLimiterStore(rc.Raw())
	} else {
		log.Warn("redis not configured; token vault and login limiter are per-process")
		vault = session.NewMemoryVault(session.DefaultVaultTTL)
		limiterStore = middlewares.NewMemoryLimiterStore()
	}

	current := middlewares.NewCurrentUser(jwtManager, usersRepo)
	limiter := middlewares.NewRateLimiter(limiterStore, cfg.LoginRateLimit, cfg.LoginRateWindow)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, google, vault, cookies, prom)
	usersHandler := handlers.NewUsersHandler(usersRepo, cookies)

	// routes

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", limiter.Middleware(middlewares.KeyByClient), authHandler.Login)
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/google-login", authHandler.GoogleLogin)
		authGroup.GET("/me", current.Require(), authHandler.Me)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/save-token", authHandler.SaveToken)
		authGroup.POST("/restore-token", authHandler.RestoreToken)
		authGroup.POST("/stop-demo", authHandler.StopDemo)
	}

	usersGroup := r.Group("/users", current.Require())
	{
		usersGroup.GET("", current.RequireAdmin(), usersHandler.List)
		usersGroup.GET("/:id", usersHandler.Get)
		usersGroup.PATCH("/:id", usersHandler.Update)
		usersGroup.DELETE("/:id", usersHandler.Delete)
	}

	return r
}
