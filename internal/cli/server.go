package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	pgcontent "live-quiz-service/internal/infra/postgres"
	redisinfra "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))
	slog.SetDefault(log)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.ContentLoader = memory.NewStaticContentLoader(sampleContent())
	if pool != nil {
		loader = pgcontent.NewContentLoader(pool)
	}

	contentTTL := config.TTLDuration(cfg.Quiz.ContentTTL, 10*time.Minute)
	var content app.ContentRepository
	if redisClient != nil {
		content = redisinfra.NewContentRepository(redisClient, loader, contentTTL)
	} else {
		content = memory.NewContentRepository(loader, contentTTL)
	}

	directoryTTL := config.TTLDuration(cfg.Directory.TTL, 24*time.Hour)
	var store app.SessionStore
	var directory app.Directory
	var hosts app.HostRegistry
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient)
		directory = redisinfra.NewDirectory(redisClient, directoryTTL)
		hosts = redisinfra.NewHostRegistry(redisClient)
	} else {
		store = memory.NewSessionStore()
		directory = memory.NewDirectory(directoryTTL)
		hosts = memory.NewHostRegistry()
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = auth.NewID(32)
		log.Warn("auth secret not configured, using ephemeral secret; tokens will not survive restarts")
	}
	tokens := auth.NewTokens(secret)

	registry := transport.NewConnRegistry()
	fanout := app.NewDispatcher(registry, hosts, log.With("component", "fanout"))
	service := app.NewSessionService(store, directory, hosts, content, tokens, registry, fanout, log.With("component", "session"))

	if redisClient != nil {
		feed := redisinfra.NewFeed(redisClient, service.OnRecordImage, log.With("component", "feed"))
		go func() {
			if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("change feed stopped", "err", err)
			}
		}()
	}

	if pool == nil {
		// Local development: no authoring store, so seed a playable session.
		sess, err := service.CreateSession(ctx, "quiz-1")
		if err != nil {
			return err
		}
		log.Info("seeded sample session", "quiz", sess.ID, "key", sess.Key)
	}

	wsHandler := transport.NewWSHandler(service, registry, log.With("component", "ws"))
	apiHandler := transport.NewAPIHandler(service, log.With("component", "api"))

	mux := http.NewServeMux()
	apiHandler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz session service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleContent provides a minimal authored quiz for running without the
// authoring store.
func sampleContent() map[string]domain.QuizContent {
	return map[string]domain.QuizContent{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Capital Cities",
			Questions: []domain.Question{
				{
					ID:         "q1",
					Text:       "What is the capital of France?",
					AnswerType: domain.MultipleChoice,
					Options: []domain.Option{
						{ID: "a", Text: "Paris"},
						{ID: "b", Text: "London"},
						{ID: "c", Text: "Berlin"},
					},
					CorrectAnswer: "a",
					TimeLimit:     30,
				},
				{
					ID:            "q2",
					Text:          "Name the capital of Japan.",
					AnswerType:    domain.FreeText,
					ShowPreview:   true,
					PreviewText:   "Up next: a geography question about Japan.",
					CorrectAnswer: "Tokyo",
				},
			},
		},
	}
}
