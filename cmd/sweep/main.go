// Comando sweep ejecuta un barrido batch de ingesta de facturas sobre las
// operaciones pendientes (o las indicadas por argumento) y termina.
//
// Uso:
//
//	sweep [-mode assign-clients|create-invoices] [operationID ...]
package main

import (
	"context"
	"flag"
	"os"

	"github.com/cargamex/logistica-api/internal/application/ingestion"
	infracfdi "github.com/cargamex/logistica-api/internal/infrastructure/cfdi"
	"github.com/cargamex/logistica-api/internal/infrastructure/postgres"
	"github.com/cargamex/logistica-api/internal/infrastructure/storage"
	"github.com/cargamex/logistica-api/pkg/config"
	"github.com/cargamex/logistica-api/pkg/logger"
)

func main() {
	mode := flag.String("mode", string(ingestion.SweepCreateInvoices), "modo del barrido: assign-clients o create-invoices")
	flag.Parse()

	sweepMode := ingestion.SweepMode(*mode)
	if sweepMode != ingestion.SweepAssignClients && sweepMode != ingestion.SweepCreateInvoices {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

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

	report, err := sweeper.Run(ctx, sweepMode, flag.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("barrido de ingesta")
	}

	log.Info().
		Int("operations", report.Operations).
		Int("processed", report.Processed).
		Int("created", report.Created).
		Int("assigned", report.Assigned).
		Int("skipped", report.Skipped).
		Int("errors", report.Errors).
		Msg("barrido completado")
}
