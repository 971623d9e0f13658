// Command mailworker drains the Redis mail queue filled by the API and
// delivers the messages through the configured SMTP relay.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zedemy/zedemy/backend/go-services/internal/config"
	"github.com/zedemy/zedemy/backend/go-services/internal/database"
	"github.com/zedemy/zedemy/backend/go-services/internal/mailer"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
	"github.com/zedemy/zedemy/backend/go-services/pkg/metrics"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.SetFormat(os.Getenv("LOG_FORMAT"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatalf("mailworker: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb == nil {
		return errors.New("REDIS_HOST is required: the worker consumes the Redis mail queue")
	}
	defer rdb.Close()

	workers := cfg.Mail.Workers
	if workers < 1 {
		workers = 1
	}
	queue := mailer.NewRedisQueue(rdb, cfg.Mail.QueueKey)
	worker := mailer.NewWorker(queue, mailer.NewSender(cfg.SMTP), cfg.Mail.MaxAttempts, cfg.Mail.RetryBase)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	port := os.Getenv("MAILWORKER_METRICS_PORT")
	if port == "" {
		port = "5010"
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("healthy"))
	})
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server: %v", err)
		}
	}()

	logger.Infof("mailworker: %d worker(s) draining %q", workers, cfg.Mail.QueueKey)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}
	logger.Infof("mailworker stopped")
	return nil
}
