package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tesoreria/internal/alert"
	"tesoreria/internal/api"
	"tesoreria/internal/ratelimit"
	"tesoreria/internal/recur"
	"tesoreria/internal/store"
)

// NewServeCommand runs the HTTP API together with the periodic jobs:
// instance generation and the alert scanner.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Config
			log := opts.Log

			s, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer s.Close()

			var scanner *alert.Scanner
			if cfg.RulesDir != "" {
				rules, errs := alert.LoadRules(cfg.RulesDir)
				if len(errs) > 0 {
					for _, e := range errs {
						log.Error("rule error", zap.Error(e))
					}
					return fmt.Errorf("%d invalid alert rules in %s", len(errs), cfg.RulesDir)
				}
				scanner = alert.NewScanner(s, rules, log)
				log.Info("alert rules loaded", zap.Int("rules", len(rules)), zap.String("dir", cfg.RulesDir))
			}

			apiOpts := api.Options{Token: cfg.APIToken}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.RateLimit.Enabled {
				limiter := ratelimit.NewStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
				limiter.StartJanitor(ctx)
				apiOpts.Limiter = limiter
				if cfg.Redis.Addr != "" {
					rdb := redis.NewClient(&redis.Options{
						Addr:     cfg.Redis.Addr,
						Password: cfg.Redis.Password,
						DB:       cfg.Redis.DB,
					})
					defer rdb.Close()
					apiOpts.Stats = ratelimit.NewRedisStats(rdb)
				} else {
					apiOpts.Stats = ratelimit.NewMemoryStats()
				}
			}

			srv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           api.NewServer(s, scanner, log).Handler(apiOpts),
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("listening", zap.String("addr", cfg.Listen))
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error {
				return runJobs(ctx, s, scanner, opts)
			})

			err = g.Wait()
			log.Info("stopped")
			return err
		},
	}
}

// runJobs generates upcoming instances and scans alert rules on the
// configured interval. Both jobs are idempotent, so a missed or doubled
// tick is harmless.
func runJobs(ctx context.Context, s *store.Store, scanner *alert.Scanner, opts *RootOptions) error {
	gen := recur.NewGenerator(s, opts.Log)
	tick := time.NewTicker(opts.Config.ScanInterval.Std())
	defer tick.Stop()

	run := func(now time.Time) {
		horizon := now.AddDate(0, 0, opts.Config.HorizonDays)
		if _, err := gen.Generate(ctx, horizon); err != nil {
			opts.Log.Error("instance generation failed", zap.Error(err))
		}
		if scanner != nil {
			if _, err := scanner.Scan(ctx, now); err != nil {
				opts.Log.Error("alert scan failed", zap.Error(err))
			}
		}
	}

	run(time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tick.C:
			run(now)
		}
	}
}
