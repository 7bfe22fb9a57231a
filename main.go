// package main provides the entry point for the advisory-backend service,
// including the batch pipeline runner and the REST/GraphQL API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/echotrust/advisory-backend/database"
	"github.com/echotrust/advisory-backend/ingestion"
	"github.com/echotrust/advisory-backend/internal/api"
	"github.com/echotrust/advisory-backend/internal/config"
	"github.com/echotrust/advisory-backend/internal/decision"
	"github.com/echotrust/advisory-backend/internal/history"
	"github.com/echotrust/advisory-backend/internal/kafka"
	"github.com/echotrust/advisory-backend/internal/observability"
	"github.com/echotrust/advisory-backend/internal/pipeline"
	"github.com/echotrust/advisory-backend/internal/resolver"
	"github.com/echotrust/advisory-backend/internal/services"
)

var logger = database.InitLogger()

var configPath string

func buildServices(cfg *config.Config, withProm bool) (*services.PipelineService, *services.AdvisoryService, error) {
	db := database.InitializeDatabase()
	store := history.NewArangoStore(db)
	repo := services.NewArangoRunRepository(db)

	res := resolver.New(cfg.Authority)

	overrides := make([]decision.Override, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		overrides = append(overrides, decision.Override{
			ID:       rc.ID,
			Disabled: rc.Disabled,
			Priority: rc.Priority,
		})
	}
	rules := decision.ApplyOverrides(decision.DefaultRules(), overrides)

	engine, err := decision.NewEngine(rules, decision.NewExplainer(cfg.Templates))
	if err != nil {
		return nil, nil, err
	}

	manager := history.NewManager(store, logger)
	runner := pipeline.NewRunner(res, engine, manager, logger, cfg.Workers)
	quality := observability.NewQualityChecker(store)

	var prom *observability.PrometheusMetrics
	if withProm {
		prom = observability.NewPrometheusMetrics()
	}

	var adapters []ingestion.Adapter
	if cfg.Sources.InternalCSVPath != "" {
		adapters = append(adapters, ingestion.NewCSVAdapter(cfg.Sources.InternalCSVPath))
	}
	if cfg.Sources.NVDPath != "" {
		adapters = append(adapters, ingestion.NewNVDAdapter(cfg.Sources.NVDPath))
	}
	if cfg.Sources.OSVPath != "" {
		adapters = append(adapters, ingestion.NewOSVAdapter(cfg.Sources.OSVPath))
	}
	if cfg.Sources.CorpusPath != "" {
		adapters = append(adapters, ingestion.NewCorpusAdapter(cfg.Sources.CorpusPath))
	}

	pipelineSvc := services.NewPipelineService(adapters, runner, store, repo, quality, prom, logger)
	advisorySvc := services.NewAdvisoryService(store)

	return pipelineSvc, advisorySvc, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and event processor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			pipelineSvc, advisorySvc, err := buildServices(cfg, true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Kafka.Enabled {
				if err := kafka.RunEventProcessor(ctx, cfg.Kafka, pipelineSvc); err != nil {
					logger.Sugar().Errorf("Kafka event processor failed to start: %v", err)
				}
			}

			// Prometheus scrape endpoint on its own listener
			go func() {
				metricsPort := database.GetEnvDefault("METRICS_PORT", "9090")
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(":"+metricsPort, mux); err != nil {
					logger.Sugar().Errorf("Metrics listener failed: %v", err)
				}
			}()

			app := api.NewFiberApp(advisorySvc, pipelineSvc)

			go func() {
				<-ctx.Done()
				_ = app.Shutdown()
			}()

			port := database.GetEnvDefault("API_PORT", "8080")
			logger.Sugar().Infof("Starting API server on port %s", port)
			return app.Listen(":" + port)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			pipelineSvc, _, err := buildServices(cfg, false)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run, err := pipelineSvc.Execute(ctx)
			if err != nil {
				return err
			}

			logger.Sugar().Infof("Run %s completed: %d advisories, %d state changes",
				run.RunID, run.AdvisoriesTotal, run.StateChanges)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the publication projection to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			_, advisorySvc, err := buildServices(cfg, false)
			if err != nil {
				return err
			}

			return advisorySvc.Export(cmd.Context(), os.Stdout)
		},
	}
}

func main() {
	defer func() { _ = logger.Sync() }()

	root := &cobra.Command{
		Use:   "advisory-backend",
		Short: "Security advisory state pipeline and API",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(serveCmd(), runCmd(), exportCmd())

	if err := root.Execute(); err != nil {
		logger.Sugar().Fatalf("Fatal: %v", err)
	}
}
