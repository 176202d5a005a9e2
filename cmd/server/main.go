package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/cache"
	"github.com/yukikurage/taskboard-web/internal/config"
	"github.com/yukikurage/taskboard-web/internal/constants"
	"github.com/yukikurage/taskboard-web/internal/gateway"
	"github.com/yukikurage/taskboard-web/internal/handlers"
	"github.com/yukikurage/taskboard-web/internal/logger"
	"github.com/yukikurage/taskboard-web/internal/middleware"
	"github.com/yukikurage/taskboard-web/internal/services"
	"github.com/yukikurage/taskboard-web/internal/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	defer zapLogger.Sync()

	gin.SetMode(cfg.GinMode)
	if err := validation.Register(); err != nil {
		zapLogger.Fatal("register validators", zap.Error(err))
	}

	store, err := sessionStore(cfg)
	if err != nil {
		zapLogger.Fatal("session store", zap.Error(err))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	r := gin.New()
	r.Use(middleware.RequestLogger(zapLogger), gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	gw := gateway.New(gateway.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout})

	var users *cache.UserCache
	if cfg.CacheRedisURL != "" {
		opts, err := redis.ParseURL(cfg.CacheRedisURL)
		if err != nil {
			zapLogger.Fatal("parse CACHE_REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer client.Close()
		users = cache.NewUserCache(client, cfg.CacheUserTTL, zapLogger)
	}

	registry := services.NewBoardRegistry(cfg.BoardIdleTTL, zapLogger)
	stop := make(chan struct{})
	defer close(stop)
	go registry.Run(time.Minute, stop)

	suggestions := services.NewSuggestionService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	if suggestions == nil {
		zapLogger.Info("OPENAI_API_KEY not set, task suggestions disabled")
	}

	handlers.Routes(r, handlers.Handlers{
		Board:  handlers.NewBoardHandler(registry, gw, suggestions, zapLogger),
		Auth:   handlers.NewAuthHandler(gw, users, registry, zapLogger),
		Admin:  handlers.NewAdminHandler(gw, zapLogger),
		Logger: zapLogger,
	})

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("server starting", zap.String("addr", srv.Addr), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("shutdown", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

func sessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.SessionStore != "redis" {
		return cookie.NewStore([]byte(cfg.SessionSecret)), nil
	}
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,    // pool size
		"tcp", // network type
		redisAddr,
		"", // username
		"", // password
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, fmt.Errorf("redis session store at %s: %w", redisAddr, err)
	}
	return store, nil
}
