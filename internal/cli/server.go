package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/config"
	"ttx-deepfake/internal/infra/memory"
	pgstore "ttx-deepfake/internal/infra/postgres"
	redisstore "ttx-deepfake/internal/infra/redis"
	"ttx-deepfake/internal/infra/sqlite"
	"ttx-deepfake/internal/seed"
	transport "ttx-deepfake/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, redisClient)
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var (
		loader   memory.QuestionLoader = memory.NewStaticQuestionLoader(seed.Bank())
		accounts app.AccountStore      = memory.NewAccountStore()
	)
	switch {
	case cfg.Postgres.URL != "":
		db, err := openBun(cfg)
		if err != nil {
			return err
		}
		closers = append(closers, db)
		if err := runMigrations(ctx, db, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgstore.NewQuestionLoader(pool)
		accounts = pgstore.NewAccountStore(db)
		logger.Info("using postgres for questions and accounts")
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		closers = append(closers, store)
		accounts = store
		logger.Info("using sqlite for accounts", "path", cfg.SQLite.Path)
	default:
		logger.Warn("no database configured; accounts are kept in memory")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisstore.NewQuestionRepository(redisClient, loader, quizTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, quizTTL)
	}

	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		secret = randomSecret()
		logger.Warn("auth.secret not set; using a random secret, tokens will not survive restarts")
	}
	auth := app.NewAuthService(accounts, app.AuthConfig{
		Secret:      secret,
		TokenTTL:    config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour),
		BcryptCost:  cfg.Auth.BcryptCost,
		AdminEmails: cfg.Auth.AdminEmails,
	})
	quiz := app.NewQuizService(questions, accounts)

	registry := app.NewRegistry()
	var ledgers app.LedgerStore = memory.NewLedgerStore()
	if redisClient != nil {
		registry.SetPresence(redisstore.NewPresenceStore(redisClient, redisTTL))
		ledgers = redisstore.NewLedgerStore(redisClient, redisTTL)
	}
	router := app.NewRouter(registry, logger)
	live := app.NewLiveService(registry, router, ledgers, auth, logger)

	wsHandler := transport.NewWSHandler(live, logger, cfg.Live.SendBuffer)
	api := transport.NewAPIHandler(auth, quiz, live, logger)

	// No write timeout: /ws connections are long-lived.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           api.Routes(wsHandler),
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting ttx service", "addr", server.Addr, "delivery", app.AtMostOnce)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func randomSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms.
		slog.Error("read random secret", "err", err)
	}
	return []byte(hex.EncodeToString(buf))
}
