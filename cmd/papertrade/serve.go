package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/spf13/cobra"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"papertrade/internal/api"
	"papertrade/internal/core"
	"papertrade/internal/obs"
	"papertrade/internal/ops"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	addr         string
	noSimulator  bool
	profile      bool
	reloadPeriod time.Duration
}

func newServeCmd(load func() (ops.Loaded, error), configPath *string) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger, simulator and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if f.addr != "" {
				cfg.API.Addr = f.addr
			}
			if f.noSimulator {
				cfg.Features.EnableSimulator = false
			}
			if f.profile {
				cfg.Profiling.Enabled = true
			}
			return serve(cmd.Context(), cfg, *configPath, f.reloadPeriod)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&f.noSimulator, "no-simulator", false, "disable the price simulator")
	cmd.Flags().BoolVar(&f.profile, "profile", false, "enable continuous profiling")
	cmd.Flags().DurationVar(&f.reloadPeriod, "config-reload-interval", 2*time.Second, "order limit reload interval (0=disable)")
	return cmd
}

func serve(parent context.Context, cfg ops.Loaded, configPath string, reloadPeriod time.Duration) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.Profiling.ApplicationName,
			ServerAddress:   cfg.Profiling.ServerAddress,
			Tags:            cfg.Profiling.Tags,
			Logger:          profileLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := core.New(ctx, cfg, st)
	if err != nil {
		return err
	}
	handler, err := api.NewHandler(svc.Ledger, svc.Catalog, svc, svc.Metrics, svc.Currency())
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	if configPath != "" && reloadPeriod > 0 {
		go watchConfig(ctx, configPath, reloadPeriod, func(loaded ops.Loaded) {
			svc.UpdateLimits(loaded.Risk)
		})
	}

	runErr := make(chan error, 1)
	go func() { runErr <- svc.Run(ctx) }()

	httpErr := make(chan error, 1)
	go func() {
		logs.Infof("api listening: %s", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	var failed error
	select {
	case <-ctx.Done():
	case <-sys.Shutdown():
	case err := <-httpErr:
		failed = err
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Errorf("api shutdown, err: %+v", err)
	}
	if err := <-runErr; err != nil && failed == nil {
		failed = err
	}
	logMetrics(svc.Metrics.Snapshot())
	return failed
}

func watchConfig(ctx context.Context, path string, interval time.Duration, update func(ops.Loaded)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				logs.Warnf("config stat failed, err: %+v", err)
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}
			loaded, err := ops.Load(path)
			if err != nil {
				logs.Warnf("config reload failed, err: %+v", err)
				continue
			}
			update(loaded)
			lastMod = info.ModTime()
			logs.Infof("config reloaded: %s", path)
		}
	}
}

func logMetrics(s obs.Snapshot) {
	logs.Infof("metrics trades: %v, rejections: %v, transfers: %d", s.Trades, s.Rejections, s.Transfers)
	logs.Infof("metrics prices: %d, ticks skipped: %d, unlocks: %d, evaluation failures: %d, queue drops: %d",
		s.PricesSimulated, s.TicksSkipped, s.Unlocks, s.EvaluationFailures, s.QueueDrops)
	logs.Infof("metrics lock wait avg: %s, commit avg: %s (n=%d), evaluation avg: %s",
		s.LockWait.Avg, s.Commit.Avg, s.Commit.Count, s.Evaluation.Avg)
}

type profileLogger struct{}

func (profileLogger) Infof(format string, args ...interface{})  { logs.Infof(format, args...) }
func (profileLogger) Debugf(_ string, _ ...interface{})         {}
func (profileLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }
