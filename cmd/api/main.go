package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/classsession"
	"classattend/internal/config"
	"classattend/internal/handler"
	"classattend/internal/httpmiddleware"
	"classattend/internal/metrics"
	"classattend/internal/network"
	"classattend/internal/ratelimit"
	"classattend/internal/schedule"
	"classattend/internal/store"
	"classattend/internal/user"
)

func main() {
	// A local .env is a convenience for dev; absence is not an error.
	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	userRepo := user.NewRepository(db.Client)
	users := user.NewService(userRepo)

	sessionRepo := classsession.NewRepository(db.Client)
	sessions := classsession.NewManager(sessionRepo, userRepo, cfg.SessionDuration)

	proximity := network.NewChecker(cfg.SubnetMask)
	attRepo := attendance.NewRepository(db.Client)
	recorder := attendance.NewRecorder(attRepo, sessionRepo, userRepo, proximity)

	timetable := schedule.NewRepository(db.Client)

	// Failed-login limiting: redis gives the strict atomic counter, otherwise
	// the window limiter runs against the rate_limit table.
	var limiter ratelimit.FailureLimiter
	if redisClient != nil {
		limiter = ratelimit.NewCounter(redisClient.Client, cfg.LoginMaxAttempts, cfg.LoginWindow)
		log.Println("login limiter: redis counter")
	} else {
		limiter = ratelimit.New(ratelimit.NewSQLStore(db.Client), cfg.LoginMaxAttempts, cfg.LoginWindow)
		log.Println("login limiter: database window")
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	h := handler.New(cfg, users, userRepo, sessions, recorder, attRepo, timetable, limiter, collector)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		resp := gin.H{"status": "ok", "db": dbHealthy}
		if redisClient != nil {
			resp["redis"] = redisClient.Healthy(c.Request.Context())
		}
		c.JSON(status, resp)
	})

	r.POST("/v1/register", h.Register)
	r.POST("/v1/login", h.Login)

	authed := r.Group("/v1", auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	authed.POST("/sessions", auth.RequireRole(auth.RoleFaculty), h.CreateSession)
	authed.GET("/sessions/:id", h.GetSession)
	authed.POST("/attendance", auth.RequireRole(auth.RoleStudent), h.Mark)
	authed.GET("/attendance", h.AttendanceHistory)
	authed.GET("/profile", h.Profile)
	authed.GET("/schedule", h.Schedule)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
