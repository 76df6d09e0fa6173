package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
	"github.com/yoockh/yoointerview/internal/api/routes"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/prompts"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/services"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		log.Fatalf("%v", err)
	}
}

// run owns every client it opens; they are closed on return, error or not.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	l := logger.New(cfg.LogLevel)

	// Init MongoDB
	if err := config.InitMongo(cfg); err != nil {
		return fmt.Errorf("MongoDB init error: %w", err)
	}
	defer config.CloseMongo()
	if err := config.EnsureMongoIndexes(cfg); err != nil {
		l.WithError(err).Warn("failed to ensure MongoDB indexes")
	}
	l.Info("MongoDB connected")

	// Init PostgreSQL (optional archive)
	var archives pgrepo.ArchiveRepository
	switch err := config.InitPostgres(cfg); {
	case errors.Is(err, config.ErrPostgresDisabled):
		l.Info("PostgreSQL archive disabled")
	case err != nil:
		return fmt.Errorf("PostgreSQL init error: %w", err)
	default:
		defer config.ClosePostgres()
		if err := pgrepo.Migrate(config.PostgresDB); err != nil {
			return fmt.Errorf("PostgreSQL migrate error: %w", err)
		}
		archives = pgrepo.NewArchiveRepo(config.PostgresDB)
		l.Info("PostgreSQL connected")
	}

	// Init Redis (optional dashboard cache)
	var dashCache cache.Cache
	switch err := config.InitRedis(cfg); {
	case errors.Is(err, config.ErrRedisDisabled):
		dashCache = cache.NewMemoryCache()
		l.Info("Redis disabled, using in-process cache")
	case err != nil:
		config.CloseRedis()
		return fmt.Errorf("Redis init error: %w", err)
	default:
		defer config.CloseRedis()
		dashCache = cache.NewRedisCache(config.RedisClient, "yoointerview:")
		l.Info("Redis connected")
	}

	systemPrompt, err := prompts.LoadSystemPrompt(cfg.SystemPromptFile)
	if err != nil {
		return fmt.Errorf("system prompt error: %w", err)
	}

	model, err := llm.NewVertexGemini(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.LLMModel, llm.GenerationSettings{
		Temperature:     cfg.LLMTemperature,
		MaxOutputTokens: cfg.LLMMaxOutputTokens,
	})
	if err != nil {
		return fmt.Errorf("Vertex AI init error: %w", err)
	}
	defer model.Close()

	var speech stt.Provider
	if cfg.STTEnabled {
		gs, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			return fmt.Errorf("Speech-to-Text init error: %w", err)
		}
		defer gs.Close()
		speech = gs
	}

	repo := mongorepo.NewInterviewRepo(config.MongoDatabase(cfg), cfg.MongoCollection)
	registry := interview.NewRegistry()

	interviews := services.NewInterviewService(repo, archives, model, speech, registry, services.InterviewOptions{
		SystemPrompt: systemPrompt,
		IsRepeatable: cfg.IsRepeatable,
		STTLanguage:  cfg.STTLanguage,
	}, l)
	auth := services.NewAuthService(cfg.RespondentPasswords, cfg.JWTSecret, cfg.JWTTTL)
	dashboard := services.NewDashboardService(repo, dashCache, cfg.DashboardCacheTTL, l)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(l))
	routes.RegisterRoutes(r, routes.Deps{
		Auth:              handlers.NewAuthHandler(auth),
		Interview:         handlers.NewInterviewHandler(interviews),
		WS:                handlers.NewWSHandler(interviews, l, cfg.WSAllowedOrigins),
		Dashboard:         handlers.NewDashboardHandler(dashboard),
		JWTSecret:         cfg.JWTSecret,
		DashboardPassword: cfg.DashboardPassword,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		registry.RunJanitor(gCtx, time.Minute, cfg.SessionIdleTimeout, interviews.Evict)
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	evictAll(registry, interviews, l)
	if err != nil {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// evictAll writes every live session once more before exit.
func evictAll(registry *interview.Registry, svc services.InterviewService, l logrus.FieldLogger) {
	dropped := registry.Drain()
	for _, s := range dropped {
		svc.Evict(s)
	}
	l.WithField("sessions", len(dropped)).Info("live sessions flushed")
}
