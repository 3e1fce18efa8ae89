package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cargamex/logistica-api/internal/application/ingestion"
	infracfdi "github.com/cargamex/logistica-api/internal/infrastructure/cfdi"
	"github.com/cargamex/logistica-api/internal/infrastructure/postgres"
	"github.com/cargamex/logistica-api/internal/infrastructure/storage"
	httpRouter "github.com/cargamex/logistica-api/internal/interfaces/http"
	"github.com/cargamex/logistica-api/pkg/config"
	"github.com/cargamex/logistica-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	blobs, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a MinIO")
	}

	clientRepo := postgres.NewClientRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	operationRepo := postgres.NewOperationRepository(pool)
	attachmentRepo := postgres.NewAttachmentRepository(pool)

	matcher := ingestion.NewClientMatcher(clientRepo, cfg.Ingestion.FuzzyNameThreshold, cfg.Ingestion.PlaceholderEmailDomain)
	reconciler := ingestion.NewInvoiceReconciler(invoiceRepo, matcher, cfg.Ingestion.SystemActorID)
	processor := ingestion.NewAttachmentProcessor(
		blobs,
		infracfdi.NewDetector(),
		infracfdi.NewXMLParser(),
		infracfdi.NewTextExtractor(),
		matcher,
		reconciler,
		operationRepo,
		log,
	)
	sweeper := ingestion.NewSweepRunner(processor, operationRepo, attachmentRepo, cfg.Ingestion.SweepPageSize, log)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ingestion: httpRouter.NewIngestionHandler(processor, sweeper, operationRepo, attachmentRepo),
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Fatal().Err(err).Msg("servidor HTTP")
		}
	}()
	log.Info().Str("addr", cfg.HTTP.Addr()).Msg("API escuchando")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("apagando servidor")
	_ = app.Shutdown()
}
