package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/samvad-httpkit/internal/config"
	"github.com/samvad-hq/samvad-httpkit/internal/logger"
	"github.com/samvad-hq/samvad-httpkit/internal/metrics"
	"github.com/samvad-hq/samvad-httpkit/internal/runner"
	"github.com/samvad-hq/samvad-httpkit/internal/storage"
	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
	"github.com/samvad-hq/samvad-httpkit/pkg/profiles"
	"github.com/samvad-hq/samvad-httpkit/pkg/publishers"
)

// Runner is the profile runner runtime. It owns the poll loop and the
// resources shared between passes: dispatcher, save ledger, publishers and metrics.
type Runner struct {
	cfg          *config.Config
	profileReg   *profiles.Registry
	fanout       *publishers.Fanout
	service      *runner.Service
	metrics      *metrics.Metrics
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewRunner builds a runner runtime from config files.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	profileReg, err := profiles.LoadRegistry(cfg.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("load profiles registry: %w", err)
	}
	profileList := profileReg.All()
	profileIDs := make([]string, 0, len(profileList))
	for _, p := range profileList {
		profileIDs = append(profileIDs, p.ID)
	}
	log.InfoObj("profiles registry loaded", "profiles_meta", map[string]any{
		"count": len(profileIDs),
		"ids":   profileIDs,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	m := metrics.New()
	client := NewDispatcher(cfg, log, m.Observe)

	return &Runner{
		cfg:          cfg,
		profileReg:   profileReg,
		fanout:       fanout,
		service:      runner.NewService(client, store, fanout, m, log),
		metrics:      m,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// NewDispatcher builds the resty-backed dispatcher configured from cfg.
func NewDispatcher(cfg *config.Config, log logger.Logger, observer httpclient.Observer) *httpclient.RestyClient {
	opts := []httpclient.Option{
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithRetry(cfg.RetryMax, cfg.RetryWaitMin, cfg.RetryWaitMax),
		httpclient.WithRateLimit(cfg.RateLimitRPS),
	}
	if log != nil {
		opts = append(opts, httpclient.WithLogger(log))
	}
	if observer != nil {
		opts = append(opts, httpclient.WithObserver(observer))
	}
	return httpclient.NewRestyClient(cfg.RequestTimeout, opts...)
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.InfoObj("no publishers file configured; events stay local", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes the profiles once, or on every poll interval until ctx is
// cancelled when poll_interval is set.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.close()

	stopMetrics := r.serveMetrics()
	defer stopMetrics()

	profileList := r.profileReg.All()
	if len(profileList) == 0 {
		r.log.WarnObj("no profiles configured; runner idle", "profiles_file", r.cfg.ProfilesFile)
		return nil
	}

	r.log.InfoObj("runner starting", "runner_state", map[string]any{
		"profiles_count":   len(profileList),
		"publishers_count": r.fanout.Size(),
		"poll_interval":    r.pollInterval.String(),
	})

	if r.pollInterval <= 0 {
		return r.runOnce(ctx, profileList)
	}

	if err := r.runOnce(ctx, profileList); err != nil {
		r.log.ErrorObj("initial pass failed", "error", err)
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("runner loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx, profileList); err != nil {
				r.log.ErrorObj("scheduled pass failed", "error", err)
			}
		}
	}
}

// runOnce performs a single pass across all profiles.
func (r *Runner) runOnce(ctx context.Context, profileList []profiles.Profile) error {
	start := time.Now()
	r.log.InfoObj("pass started", "pass_meta", map[string]any{
		"profiles_count": len(profileList),
		"started_at":     start.UTC(),
	})
	if err := r.service.Run(ctx, profileList); err != nil {
		return err
	}
	r.log.InfoObj("pass completed", "pass_meta", map[string]any{
		"profiles_count": len(profileList),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	})
	return nil
}

func (r *Runner) serveMetrics() func() {
	if r.cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.metrics.Handler())
	srv := &http.Server{
		Addr:              r.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.ErrorObj("metrics server failed", "error", err)
		}
	}()
	r.log.InfoObj("metrics server listening", "metrics_addr", r.cfg.MetricsAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			r.log.WarnObj("metrics server shutdown failed", "error", err)
		}
	}
}

// close releases the store and publisher clients, logging any errors encountered.
func (r *Runner) close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err)
	}
}
