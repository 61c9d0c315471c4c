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

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegram-dating-onboarding/internal/config"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/ports/repository"
	tele "telegram-dating-onboarding/internal/infra/adapters/telegram"
	"telegram-dating-onboarding/internal/infra/api"
	"telegram-dating-onboarding/internal/infra/auth"
	pg "telegram-dating-onboarding/internal/infra/db/postgres"
	"telegram-dating-onboarding/internal/infra/i18n"
	"telegram-dating-onboarding/internal/infra/logging"
	"telegram-dating-onboarding/internal/infra/metrics"
	red "telegram-dating-onboarding/internal/infra/redis"
	"telegram-dating-onboarding/internal/infra/sched"
	"telegram-dating-onboarding/internal/infra/security"
	"telegram-dating-onboarding/internal/infra/storage"
	"telegram-dating-onboarding/internal/retry"
	"telegram-dating-onboarding/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

const devEncryptionKey = "0123456789abcdef0123456789abcdef"

// poller is a bot front-end that can run until ctx is cancelled.
type poller interface {
	api.FederatedNotifier
	StartPolling(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Config & logging ----
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	logger.Info().Str("version", version).Bool("dev", cfg.Runtime.Dev).Msg("starting")

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("exited with error")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}

	// ---- Postgres ----
	if cfg.Runtime.Migrate {
		if err := pg.RunMigrations(cfg.Database.URL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Msg("migrations applied")
	}
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	// ---- Redis ----
	var cache red.RedisClient
	if cfg.Runtime.Dev && cfg.Redis.URL == "" {
		logger.Warn().Msg("redis.url not set; drafts are kept in memory")
		cache = red.NewMemoryClient()
	} else {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		cache = c
	}
	defer cache.Close()

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if encKey == "" {
		if !cfg.Runtime.Dev {
			return errors.New("security.encryption_key is required")
		}
		logger.Warn().Msg("security.encryption_key not set; using the insecure dev key")
		encKey = devEncryptionKey
	}
	sealer, err := security.NewSealer(encKey)
	if err != nil {
		return fmt.Errorf("encryption: %w", err)
	}
	jwtSecret := cfg.Security.JWTSecret
	if jwtSecret == "" {
		jwtSecret = encKey
	}

	// ---- Telegram client ----
	var botAPI *tgbotapi.BotAPI
	if cfg.Bot.Token != "" {
		botAPI, err = tele.NewBotAPI(cfg.Bot.Token, cfg.Runtime.Dev)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		if cfg.Bot.Username == "" {
			cfg.Bot.Username = botAPI.Self.UserName
		}
	}

	// ---- Storage & connectivity ----
	storageClient := &http.Client{Timeout: cfg.Storage.Timeout}
	var source adapter.PhotoSource
	if botAPI != nil {
		source = storage.NewTelegramPhotoSource(botAPI, storageClient)
	}

	var (
		uploader adapter.ObjectUploader
		conn     adapter.ConnectivityObserver
		monitor  *sched.ConnectivityMonitor
	)
	if cfg.Runtime.Dev && cfg.Storage.URL == "" {
		uploader = storage.NewDiskBucket(cfg.Storage.DiskDir, source)
		conn = sched.Static(true)
	} else {
		up := storage.NewUploader(cfg.Storage.URL, cfg.Storage.APIKey, source, storageClient)
		uploader = up
		monitor = sched.NewConnectivityMonitor(cfg.Registration.ProbeInterval, []sched.Probe{
			{Name: "postgres", Check: pool.Ping},
			{Name: "redis", Check: cache.Ping},
			{Name: "storage", Check: func(ctx context.Context) error { return up.Probe(ctx, cfg.Storage.Bucket) }},
		}, logger)
		conn = monitor
	}

	// ---- Repositories ----
	var users repository.UserRepository = pg.NewPostgresUserRepo(pool)
	users = pg.NewUserRepoCacheDecorator(users, cache)
	drafts := red.NewDraftRepo(cache, sealer, cfg.Registration.DraftTTL)

	// ---- Use cases ----
	sessions := auth.NewJWTSessionSink(jwtSecret, cfg.Security.SessionTTL, red.NewSessionStore(cache))
	finalizer := usecase.NewFinalizer(conn, uploader, users, sessions, usecase.FinalizeConfig{
		Bucket:        cfg.Storage.Bucket,
		Upload:        retry.Policy{Attempts: cfg.Registration.UploadAttempts, Delay: cfg.Registration.UploadDelay},
		SubmitTimeout: cfg.Registration.SubmitTimeout,
	}, logger).WithTransactions(pg.NewTxManager(pool))
	regUC := usecase.NewRegistrationUseCase(drafts, users, red.NewLocker(cache), finalizer, cfg.Registration.LockTTL, logger)
	userUC := usecase.NewUserUseCase(users, logger)

	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Telegram front-end ----
	states := auth.NewStateSigner(jwtSecret, 15*time.Minute)
	var bot poller
	if botAPI != nil {
		tgBot, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, botAPI, regUC, userUC, translator, red.NewRateLimiter(cache), logger)
		if err != nil {
			return fmt.Errorf("telegram adapter: %w", err)
		}
		if cfg.Google.Enabled() {
			tgBot.WithGoogle(auth.NewLoginLinks(cfg.HTTP.PublicURL, states))
		}
		bot = tgBot
	} else {
		logger.Warn().Msg("bot.token not set; telegram is disabled")
		bot = tele.NewNoopBotAdapter(logger)
	}

	// ---- HTTP ----
	srv := api.NewServer(regUC, userUC, conn, cfg.Bot.Username, cfg.HTTP.RequestTimeout, logger)
	if cfg.Google.Enabled() {
		google := auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		}, &http.Client{Timeout: 10 * time.Second})
		srv.WithGoogle(google, states, bot)
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ---- Run ----
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.StartPolling(ctx) })
	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if monitor != nil {
		g.Go(func() error { return monitor.Run(ctx) })
	}
	g.Go(func() error { return sched.NewPoolStatsReporter(30*time.Second, pool, logger).Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
