package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/actxion/auth/adapters/events"
	"github.com/actxion/auth/adapters/hasher"
	"github.com/actxion/auth/adapters/signature"
	"github.com/actxion/auth/adapters/store"
	"github.com/actxion/auth/adapters/tokenizer"
	"github.com/actxion/auth/internal/config"
	"github.com/actxion/auth/internal/logger"
	"github.com/actxion/auth/ports"
	"github.com/actxion/auth/service"
	transport "github.com/actxion/auth/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	signKey, err := loadSigningKey(cfg.SigningKeyFile, log)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable at startup", zap.Error(err))
		}
	}

	challenges := store.NewMemoryChallengeStore()
	invalidations := store.NewMemoryStore()
	if cfg.ChallengeBackend == config.BackendRedis {
		challenges = store.NewRedisChallengeStore(redisClient)
		invalidations = store.NewRedisStore(redisClient)
	}

	users := store.NewMemoryUserStore()
	if cfg.UserBackend == config.BackendPostgres {
		db, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if users, err = store.NewGormUserStore(db); err != nil {
			return err
		}
	}

	var passwords ports.PasswordHasher = hasher.NewBcrypt(cfg.BcryptCost)
	if cfg.PasswordHasher == config.HasherArgon2id {
		passwords = hasher.NewArgon2(hasher.DefaultArgon2Params)
	}

	var eventPub ports.EventPublisher = events.NoopPublisher{}
	if cfg.EventsEnabled {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return fmt.Errorf("failed to create Redis publisher: %w", err)
		}
		defer publisher.Close()
		eventPub = events.NewWatermillPublisher(publisher, cfg.EventsPrefix)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithChallengeTTL(cfg.ChallengeTTL),
		service.WithSessionTTL(cfg.AccessTTL, cfg.RefreshTTL),
	}

	wallet := service.NewWalletAuth(challenges, signature.NewPersonalVerifier(), opts...)
	credentials := service.NewCredentials(users, passwords, opts...)
	accounts := service.NewAccounts(users, wallet, eventPub, opts...)
	authService := service.NewAuthService(
		tokenizer.NewJWTTokenizer(signKey),
		invalidations,
		eventPub,
		users,
		wallet,
		credentials,
		opts...,
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.SetupRouter(transport.Services{
		Auth:        authService,
		Wallet:      wallet,
		Credentials: credentials,
		Accounts:    accounts,
	}, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("challenge_backend", cfg.ChallengeBackend),
			zap.String("user_backend", cfg.UserBackend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadSigningKey reads a PEM encoded P-256 key, or generates an ephemeral one
// when path is empty. Tokens signed with an ephemeral key do not survive a restart.
func loadSigningKey(path string, log *zap.Logger) (*ecdsa.PrivateKey, error) {
	if path == "" {
		log.Warn("SIGNING_KEY_FILE not set, using an ephemeral signing key")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	if key.Curve != elliptic.P256() {
		return nil, errors.New("signing key must be on the P-256 curve")
	}
	return key, nil
}
