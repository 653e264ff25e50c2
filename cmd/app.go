package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/astrolabe/internal/archive"
	"github.com/papapumpkin/astrolabe/internal/config"
	"github.com/papapumpkin/astrolabe/internal/engine"
	"github.com/papapumpkin/astrolabe/internal/ephemeris"
	"github.com/papapumpkin/astrolabe/internal/logging"
	"github.com/papapumpkin/astrolabe/internal/metrics"
	"github.com/papapumpkin/astrolabe/internal/snapcache"
	"github.com/papapumpkin/astrolabe/internal/telemetry"
	"github.com/papapumpkin/astrolabe/internal/ui"
)

// app is everything a command needs at run time, built from the loaded
// configuration. close releases it and flushes the metrics textfile.
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	emitter  *telemetry.Emitter
	recorder *metrics.Recorder
	engine   *engine.Engine
	printer  *ui.Printer
	store    *archive.Store

	closers []io.Closer
}

// newApp loads configuration and wires the engine with its cache, metrics
// and telemetry.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, printer: newPrinter(cmd)}

	level := cfg.Log.Level
	if cfg.Verbose {
		level = "debug"
	}
	logger, logCloser, err := logging.New(logging.Options{Level: level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	a.logger = logger
	a.closers = append(a.closers, logCloser)

	if cfg.Telemetry.Path != "" {
		em, err := telemetry.NewEmitter(cfg.Telemetry.Path)
		if err != nil {
			a.close()
			return nil, err
		}
		a.emitter = em
		a.closers = append(a.closers, em)
	}
	a.recorder = metrics.New()

	cache := a.newCache(cmd.Context())

	a.engine, err = engine.New(cfg, ephemeris.New(),
		engine.WithCache(cache),
		engine.WithRecorder(a.recorder),
		engine.WithEmitter(a.emitter),
		engine.WithLogger(logger),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// newCache returns a Redis cache when one is configured and reachable, and
// an in-process LRU otherwise.
func (a *app) newCache(ctx context.Context) engine.Cache {
	cc := a.cfg.Cache
	if cc.RedisAddr == "" {
		return snapcache.NewMemory(cc.MemorySize, cc.TTL)
	}
	client, err := snapcache.Dial(ctx, cc.RedisAddr)
	if err != nil {
		a.logger.Warn().Err(err).Str("addr", cc.RedisAddr).Msg("redis unavailable, using in-process cache")
		return snapcache.NewMemory(cc.MemorySize, cc.TTL)
	}
	a.closers = append(a.closers, client)
	a.logger.Debug().Str("addr", cc.RedisAddr).Msg("redis snapshot cache connected")
	return snapcache.NewRedis(client, cc.Prefix, cc.TTL)
}

// archive opens the chart archive on first use.
func (a *app) archive(ctx context.Context) (*archive.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := archive.Open(ctx, a.cfg.Archive.Path)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store)
	return store, nil
}

func (a *app) close() error {
	var errs []error
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		errs = append(errs, err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// finish closes a and logs anything that failed to release.
func (a *app) finish() {
	if err := a.close(); err != nil {
		a.logger.Warn().Err(err).Msg("shutdown")
	}
}

func newPrinter(cmd *cobra.Command) *ui.Printer {
	var opts []ui.Option
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		opts = append(opts, ui.WithNoColor())
	}
	return ui.New(cmd.OutOrStdout(), opts...)
}
