// @title                       Passport API
// @version                     1.0
// @description                 User registration, login sessions and email verification codes.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/99minutos/passport/internal/api"
	"github.com/99minutos/passport/internal/api/handler"
	"github.com/99minutos/passport/internal/core/service"
	mongodb "github.com/99minutos/passport/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/passport/internal/infrastructure/db/redis"
	"github.com/99minutos/passport/internal/infrastructure/mail"
	"github.com/99minutos/passport/internal/pkg/config"
	"github.com/99minutos/passport/pkg/logger"
)

const localJWTSecret = "local-development-secret"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("config error")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsLocal(),
		Service: "passport",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongodb.Disconnect(client); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Users
	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	credentials := service.NewCredentialService(userRepo, cfg.Auth.BcryptCost)

	// Sessions
	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn().Msg("JWT_SECRET not set, using the local development secret")
		secret = localJWTSecret
	}
	tokens := service.NewTokenService(redisdb.NewSessionStore(rdb), secret, cfg.Auth.LoginExpire)

	// Verification codes
	mailer := mail.NewSender(cfg.Env, cfg.Mail.ResendAPIKey, cfg.Mail.From, logger.ForComponent("mail"))
	codes := service.NewVerificationService(
		redisdb.NewVerificationStore(rdb),
		mailer,
		cfg.Verify.CodePolicy(),
		logger.ForComponent("verification"),
	)

	users := service.NewUserService(credentials, tokens, codes, logger.ForComponent("passport"))

	router := api.NewRouter(api.Deps{
		Users:    users,
		Sessions: tokens,
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log:          logger.ForComponent("http"),
		RateLimitRPS: cfg.RateLimitRPS,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
