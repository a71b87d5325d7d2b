package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskmeshio/taskmesh/pkg/breaker"
	"github.com/taskmeshio/taskmesh/pkg/config"
	"github.com/taskmeshio/taskmesh/pkg/core"
	"github.com/taskmeshio/taskmesh/pkg/health"
	obsprom "github.com/taskmeshio/taskmesh/pkg/observability/prometheus"
	"github.com/taskmeshio/taskmesh/pkg/observability/tracing"
	"github.com/taskmeshio/taskmesh/pkg/pool"
	"github.com/taskmeshio/taskmesh/pkg/web"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML or JSON config file")
		demo       = flag.Bool("demo", false, "submit a synthetic workload so metrics move")
		trace      = flag.Bool("trace", false, "emit task execution spans to stdout")
	)
	flag.Parse()

	logger := core.NewDefaultLogger()

	cfg := config.Default()
	if err := config.LoadWithEnv(*configPath, "TASKMESH", &cfg); err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}

	metrics := obsprom.NewMetrics(nil)

	poolCfg := pool.Config{
		Workers:       cfg.Pool.Size,
		MaxQueueDepth: cfg.Pool.MaxQueueDepth,
		Breaker: breaker.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			WindowSize:       cfg.Breaker.WindowSize,
			SuccessThreshold: cfg.Breaker.SuccessThreshold,
			RecoveryTimeout:  cfg.Breaker.RecoveryTimeout.Std(),
		},
		Metrics: metrics,
		Logger:  logger,
	}

	var tracerProvider *tracing.Provider
	if *trace {
		tp, err := tracing.NewStdoutProvider()
		if err != nil {
			logger.Errorf("tracing: %v", err)
			os.Exit(1)
		}
		tracerProvider = tp
		poolCfg.Tracer = tp.Tracer()
	}

	p, err := pool.New(context.Background(), poolCfg)
	if err != nil {
		logger.Errorf("pool: %v", err)
		os.Exit(1)
	}

	monitor := health.NewMonitor(p, p.MaxQueueDepth())
	admin := web.NewAdminServer(web.DefaultAdminServerConfig(cfg.Admin.Addr), metrics, monitor, logger)
	if err := admin.Start(); err != nil {
		logger.Errorf("admin server: %v", err)
		os.Exit(1)
	}

	stopDemo := make(chan struct{})
	if *demo {
		go runDemoWorkload(p, logger, stopDemo)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Infof("received %s, shutting down", sig)
	close(stopDemo)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pool.ShutdownTimeout.Std())
	defer cancel()

	if err := p.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, pool.ErrShutdownTimeout) {
			logger.Warnf("drain timed out, in-flight tasks abandoned")
		} else {
			logger.Errorf("shutdown: %v", err)
		}
	}
	if err := admin.Stop(shutdownCtx); err != nil {
		logger.Errorf("admin server stop: %v", err)
	}
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("tracing shutdown: %v", err)
		}
	}
}

// runDemoWorkload submits short synthetic tasks, a few of which fail, so
// the metrics and breaker state are worth watching.
func runDemoWorkload(p *pool.Pool, logger core.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_, err := p.Submit(func(ctx context.Context) (any, error) {
				d := time.Duration(rand.Intn(40)) * time.Millisecond
				select {
				case <-time.After(d):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				if rand.Intn(10) == 0 {
					return nil, errors.New("synthetic failure")
				}
				return d, nil
			})
			if err != nil {
				logger.Debugf("demo submit rejected: %v", err)
			}
		}
	}
}
