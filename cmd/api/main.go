package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/auth"
	"github.com/TTTT0803/VKUMentor-App/internal/config"
	"github.com/TTTT0803/VKUMentor-App/internal/db"
	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	internalhttp "github.com/TTTT0803/VKUMentor-App/internal/http"
	"github.com/TTTT0803/VKUMentor-App/internal/metrics"
	"github.com/TTTT0803/VKUMentor-App/internal/notify"
	"github.com/TTTT0803/VKUMentor-App/internal/policy"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/service"
	"github.com/TTTT0803/VKUMentor-App/internal/session"
	"github.com/TTTT0803/VKUMentor-App/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	store := docstore.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	enforcer, err := policy.New()
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	uploader, err := storage.New(storage.Config{
		Provider: cfg.Storage.Provider,
		S3: storage.S3Config{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			PublicDomain: cfg.Storage.PublicDomain,
		},
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	repository := repo.New(store)
	rbac := service.NewRBACService(session.NewDocumentRoleLookup(store), enforcer).
		WithLookupTimeout(cfg.RoleLookupTimeout)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	mentors := service.NewMentorService(repository, rbac, cfg.Pages.MentorsFirst)
	if hook := notify.NewWebhook(cfg.NotifyWebhookURL); hook != nil {
		mentors.WithNotifier(hook)
	}

	handler := internalhttp.NewRouter(cfg, internalhttp.Deps{
		Auth:      service.NewAuthService(repository, redisClient, jwtManager, rbac, cfg.JWTRefreshTTL, cfg.DefaultAvatarURL),
		Mentors:   mentors,
		Community: service.NewCommunityService(repository, rbac, uploader, cfg.Pages.Posts),
		Home:      service.NewHomeService(repository, rbac, cfg.Pages.Posts),
		Metrics:   metrics.New(),
		Checks: map[string]internalhttp.HealthCheck{
			"db":    pool.Ping,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
