package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/grantwriter-backend/internal/config"
	"github.com/ignatzorin/grantwriter-backend/internal/db"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/goroutine"
	httpRouter "github.com/ignatzorin/grantwriter-backend/internal/http/router"
	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/ai"
	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/cache"
	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/export"
	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/metrics"
	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/handler"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/rpc"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/service"
	"github.com/ignatzorin/grantwriter-backend/internal/storage"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/attachment"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/auth"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
	"github.com/ignatzorin/grantwriter-backend/internal/ws"
	"github.com/ignatzorin/grantwriter-backend/migrations"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// До чтения конфигурации пишем текстом, чтобы ошибка загрузки была видна.
	logger.Init("info", true)

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logLevel := "info"
	if !cfg.IsProduction() {
		logLevel = "debug"
	}
	logger.Init(logLevel, !cfg.IsProduction())
	log := logger.L()

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{})
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, migrationsFS(cfg.MigrationsPath)); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Без Redis черновики живут в памяти процесса и не переживают рестарт.
	var drafts repository.DraftCache
	var cachePinger handler.Pinger
	redisCache, err := connectDraftCache(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("main: Redis недоступен, черновики кэшируются в памяти")
		memoryCache := cache.NewMemoryDraftCache(ctx, cfg.DraftCacheTTL)
		drafts = memoryCache
		cachePinger = handler.PingFunc(memoryCache.Ping)
	} else {
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.WithError(err).Warn("main: ошибка закрытия Redis")
			}
		}()
		drafts = redisCache
		cachePinger = handler.PingFunc(redisCache.Ping)
	}

	// Инициализируем вспомогательные сервисы.
	m := metrics.New()
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	attachmentStorage, err := storage.NewAttachmentStorage(cfg.AttachmentsPath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	model := cfg.Generation.Model
	if model == "" {
		model = cfg.AI.Model
	}
	if cfg.AI.APIKey == "" {
		log.Warn("main: AI_API_KEY не задан, генерация будет завершаться ошибкой")
	}
	generator := metrics.InstrumentGenerator(ai.NewOpenAIGenerator(ai.Options{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       model,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     cfg.AI.Timeout,
	}), m)

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, "ws-hub", hub.Run)

	// Репозитории.
	proposalRepo := persistence.NewProposalRepositoryAdapter(dbConn)
	userRepo := persistence.NewUserRepositoryAdapter(dbConn)
	attachmentRepo := persistence.NewAttachmentRepositoryAdapter(dbConn)

	// Use cases.
	proposals := proposal.NewUseCases(proposal.Dependencies{
		Proposals:   proposalRepo,
		Drafts:      drafts,
		Attachments: attachmentRepo,
		Files:       attachmentStorage,
		Generator:   generator,
		Events:      hub,
		Instructions: proposal.Instructions{
			Generate: cfg.Generation.SystemInstruction,
			Edit:     cfg.Generation.EditSystemInstruction,
		},
	})

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Auth: handler.NewAuthHandler(
			auth.NewRegisterUseCase(userRepo, tokenManager),
			auth.NewLoginUseCase(userRepo, tokenManager),
			auth.NewCurrentUserUseCase(userRepo),
		),
		Proposal: handler.NewProposalHandler(proposals),
		Export:   handler.NewExportHandler(proposals.Get, export.NewService(export.NewChromePDFRenderer())),
		Attachment: handler.NewAttachmentHandler(
			attachment.NewUploadAttachmentUseCase(proposalRepo, attachmentRepo, attachmentStorage),
			attachment.NewListAttachmentsUseCase(proposalRepo, attachmentRepo),
			attachment.NewDeleteAttachmentUseCase(attachmentRepo, attachmentStorage),
			attachmentStorage.MaxUploadBytes(),
		),
		WS:      handler.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Health:  handler.NewHealthHandler(handler.PingFunc(proposalRepo.Ping), cachePinger),
		RPC:     rpc.NewServer(proposals, tokenManager),
		Tokens:  tokenManager,
		Metrics: m,
	}

	engine := httpRouter.SetupRouter(cfg, handlers)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo("shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	log.Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

func connectDraftCache(ctx context.Context, cfg *config.Config) (*cache.RedisDraftCache, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL не задан")
	}
	return cache.NewRedisDraftCache(ctx, cfg.RedisURL, cfg.DraftCacheTTL)
}

// migrationsFS: каталог с диска, если задан MIGRATIONS_PATH, иначе встроенные миграции.
func migrationsFS(path string) fs.FS {
	if path != "" {
		return os.DirFS(path)
	}
	return migrations.FS
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.L().WithError(err).Error("main: ошибка закрытия базы")
	}
}
