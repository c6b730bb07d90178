package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/mint-cli/pkg/assign"
	"github.com/otherjamesbrown/mint-cli/pkg/buildinfo"
	"github.com/otherjamesbrown/mint-cli/pkg/db"
	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	"github.com/otherjamesbrown/mint-cli/pkg/detect"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
	"github.com/otherjamesbrown/mint-cli/pkg/normalize"
	"github.com/otherjamesbrown/mint-cli/pkg/pipeline"
	"github.com/otherjamesbrown/mint-cli/pkg/queue"
	"github.com/otherjamesbrown/mint-cli/pkg/summary"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

// Worker command flags
var (
	workerCount       int
	workerMetricsAddr string
)

const metricsNamespace = "mint"

// NewWorkerCommand creates the 'worker' command.
func NewWorkerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run pipeline workers draining the meeting queue",
		Long: `Run a pool of workers that dequeue meeting jobs from Redis and process
them through the extraction pipeline.

Failed jobs are retried with exponential backoff and land in the dead
letter queue after the retry budget is exhausted. The worker exposes
Prometheus metrics (pipeline counters and connection pool stats) on
--metrics-addr.

The worker runs until interrupted; SIGINT and SIGTERM trigger a graceful
drain of in-flight jobs.

Examples:
  mint worker
  mint worker --workers 4
  mint worker --metrics-addr :9091`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd)
		},
	}

	cmd.Flags().IntVar(&workerCount, "workers", 0, "Number of concurrent workers (default from config)")
	cmd.Flags().StringVar(&workerMetricsAddr, "metrics-addr", ":9091", "Prometheus metrics listen address (empty to disable)")

	return cmd
}

func runWorker(cmd *cobra.Command) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.JSONFormat = true
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logCfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := tracker.InitSchema(ctx, pool); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	repo := tracker.NewRepository(pool, logger)

	redisClient, err := connectToRedis(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()

	queueCfg := queue.DefaultConfig()
	if cfg.Queue.Name != "" {
		queueCfg.Name = cfg.Queue.Name
	}
	if cfg.Queue.MaxRetries > 0 {
		queueCfg.MaxRetries = cfg.Queue.MaxRetries
	}
	q := queue.NewRedisQueue(redisClient, queueCfg)

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(metricsNamespace, registry)
	if _, err := db.RegisterPoolStatsCollector(pool, metricsNamespace, registry); err != nil {
		logger.Warn("registering pool stats collector failed", logging.Err(err))
	}

	host := newModelHost(cfg)
	if err := host.Warmup(ctx); err != nil {
		logger.Warn("model host warmup failed, capabilities may be degraded", logging.Err(err))
	}

	p := pipeline.New(pipeline.Deps{
		Transcriber: host,
		Diarizer:    host,
		Normalizer: normalize.New(
			normalize.WithDateParser(host),
			normalize.WithSentenceSegmenter(host),
			normalize.WithLogger(logger),
		),
		Detector: detect.NewDetector(host, host, logger),
		Assigner: assign.NewExtractor(
			assign.WithEntityExtractor(host),
			assign.WithGenericExtractor(host),
			assign.WithLogger(logger),
		),
		Deadlines: deadline.NewResolver(
			deadline.WithDateParser(host),
			deadline.WithLogger(logger),
		),
		Summaries: summary.NewService(host, logger),
		Store:     repo,
		Metrics:   metrics,
		Logger:    logger,
	}, pipeline.Config{
		MergeGapSeconds: cfg.Pipeline.MergeGapSeconds,
		Persist:         true,
	})

	handler := func(ctx context.Context, job *queue.QueuedJob) error {
		_, err := p.Process(ctx, pipeline.Request{
			Path:      job.Job.TranscriptPath,
			AudioPath: job.Job.AudioPath,
			Title:     job.Job.Title,
		})
		return err
	}

	workerCfg := queue.DefaultWorkerConfig()
	if workerCount > 0 {
		workerCfg.Count = workerCount
	} else if cfg.Queue.Workers > 0 {
		workerCfg.Count = cfg.Queue.Workers
	}

	workerPool := queue.NewPool(q, handler, workerCfg, logger)

	var metricsServer *http.Server
	if workerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.Handle("/version", buildinfo.Handler("mint-worker"))
		metricsServer = &http.Server{Addr: workerMetricsAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		logger.Info("metrics listening", logging.F("addr", workerMetricsAddr))
	}

	logger.Info("worker started",
		logging.F("queue", q.Name()),
		logging.F("workers", workerCfg.Count))

	workerPool.Start(ctx)
	<-ctx.Done()

	logger.Info("shutting down")
	workerPool.Stop()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	stats := workerPool.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "Worker stopped; processed %d jobs, %d failed\n", stats.Processed, stats.Failed)
	return nil
}
