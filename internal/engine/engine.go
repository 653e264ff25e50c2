// Package engine turns chart definitions into computed snapshots. It builds
// Moments with the configured detectors, consults the snapshot cache by
// fingerprint, and reports each computation to metrics and telemetry.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/astrolabe/internal/chart"
	"github.com/papapumpkin/astrolabe/internal/chartfile"
	"github.com/papapumpkin/astrolabe/internal/config"
	"github.com/papapumpkin/astrolabe/internal/metrics"
	"github.com/papapumpkin/astrolabe/internal/snapcache"
	"github.com/papapumpkin/astrolabe/internal/telemetry"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// Cache stores snapshots by fingerprint. Get returns snapcache.ErrMiss when
// the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) (*chart.Snapshot, error)
	Put(ctx context.Context, key string, snap *chart.Snapshot) error
	Backend() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache enables snapshot caching.
func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithRecorder reports computations and cache lookups to r.
func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithEmitter writes telemetry events to em.
func WithEmitter(em *telemetry.Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithLogger sets the diagnostics logger for the engine and its Moments.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine computes charts. It holds no per-chart state and is safe for
// concurrent use when its cache is.
type Engine struct {
	oracle   chart.Oracle
	cfg      config.Config
	aspects  *chart.AspectDetector
	antiscia *chart.AntiscionDetector

	cache    Cache
	recorder *metrics.Recorder
	emitter  *telemetry.Emitter
	logger   zerolog.Logger
}

// New builds an Engine whose detectors follow cfg.
func New(cfg config.Config, oracle chart.Oracle, opts ...Option) (*Engine, error) {
	orbs, err := cfg.OrbTable()
	if err != nil {
		return nil, fmt.Errorf("engine: orbs: %w", err)
	}
	kinds, err := cfg.AspectKinds()
	if err != nil {
		return nil, fmt.Errorf("engine: aspects: %w", err)
	}
	policy, err := chart.ParseOrbPolicy(cfg.OrbPolicy)
	if err != nil {
		return nil, fmt.Errorf("engine: orb policy: %w", err)
	}
	aspectOpts := []chart.AspectOption{chart.WithOrbs(orbs), chart.WithOrbPolicy(policy)}
	if len(kinds) > 0 {
		aspectOpts = append(aspectOpts, chart.WithAspectKinds(kinds...))
	}
	aspects, err := chart.NewAspectDetector(aspectOpts...)
	if err != nil {
		return nil, fmt.Errorf("engine: aspect detector: %w", err)
	}
	axes, err := cfg.AxisList()
	if err != nil {
		return nil, fmt.Errorf("engine: axes: %w", err)
	}
	antiscia, err := chart.NewAntiscionDetector(cfg.Antiscia.Orb, axes...)
	if err != nil {
		return nil, fmt.Errorf("engine: antiscion detector: %w", err)
	}

	e := &Engine{
		oracle:   oracle,
		cfg:      cfg,
		aspects:  aspects,
		antiscia: antiscia,
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Complete fills the house system and bodies of def from the configuration
// when they are unset, then validates it.
func (e *Engine) Complete(def *chartfile.Definition) error {
	if def.HouseSystem == "" {
		def.HouseSystem = e.cfg.HouseSystem
	}
	if len(def.Bodies) == 0 {
		def.Bodies = append([]string(nil), e.cfg.Bodies...)
	}
	return def.Validate()
}

// NewMoment returns an unconfigured Moment wired to the engine's oracle,
// detectors, logger and recorder.
func (e *Engine) NewMoment() *chart.Moment {
	opts := []chart.Option{
		chart.WithAspectDetector(e.aspects),
		chart.WithAntiscionDetector(e.antiscia),
		chart.WithLogger(e.logger),
	}
	if e.recorder != nil {
		opts = append(opts, chart.WithObserver(e.recorder))
	}
	return chart.New(e.oracle, opts...)
}

// Build configures a Moment from a validated definition.
func (e *Engine) Build(def chartfile.Definition) (*chart.Moment, error) {
	ts, err := def.Timestamp()
	if err != nil {
		return nil, err
	}
	coords, err := chart.NewGeoCoordinate(def.Location.Longitude, def.Location.Latitude, def.Location.Altitude)
	if err != nil {
		return nil, err
	}
	system, err := def.HouseSystemValue()
	if err != nil {
		return nil, err
	}
	bodies, err := def.BodyList()
	if err != nil {
		return nil, err
	}

	m := e.NewMoment()
	if err := m.SetTimestamp(ts); err != nil {
		return nil, err
	}
	if err := m.SetCoordinates(coords); err != nil {
		return nil, err
	}
	if err := m.SetHouseSystem(system); err != nil {
		return nil, err
	}
	for _, b := range bodies {
		if err := m.AddBody(b); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Result is a computed chart.
type Result struct {
	Name        string          `json:"name"`
	Fingerprint string          `json:"fingerprint"`
	Cached      bool            `json:"cached"`
	Snapshot    *chart.Snapshot `json:"snapshot"`
}

// Compute builds def and returns its snapshot, from the cache when an
// identical chart was computed before. Cache failures are logged and fall
// through to computation.
func (e *Engine) Compute(ctx context.Context, def chartfile.Definition) (Result, error) {
	m, err := e.Build(def)
	if err != nil {
		return Result{}, err
	}
	fp, err := m.Fingerprint()
	if err != nil {
		return Result{}, err
	}
	res := Result{Name: def.Name, Fingerprint: fp}

	if snap, ok := e.lookup(ctx, fp, def.Path); ok {
		res.Snapshot, res.Cached = snap, true
		return res, nil
	}

	start := time.Now()
	snap, err := m.Snapshot()
	if err != nil {
		return Result{}, err
	}
	res.Snapshot = snap
	e.report(fp, def.Path, snap, time.Since(start))

	if e.cache != nil {
		if err := e.cache.Put(ctx, fp, snap); err != nil {
			e.logger.Warn().Err(err).Str("backend", e.cache.Backend()).Msg("snapshot cache write failed")
		}
	}
	return res, nil
}

func (e *Engine) lookup(ctx context.Context, fp, source string) (*chart.Snapshot, bool) {
	if e.cache == nil {
		return nil, false
	}
	snap, err := e.cache.Get(ctx, fp)
	hit := err == nil
	if err != nil && !errors.Is(err, snapcache.ErrMiss) {
		e.logger.Warn().Err(err).Str("backend", e.cache.Backend()).Msg("snapshot cache read failed")
	}
	e.recorder.CacheLookup(e.cache.Backend(), hit)
	kind := telemetry.KindCacheMiss
	if hit {
		kind = telemetry.KindCacheHit
	}
	e.emit(telemetry.Event{Kind: kind, ChartID: fp, Source: source,
		Data: map[string]string{"backend": e.cache.Backend()}})
	return snap, hit
}

func (e *Engine) report(fp, source string, snap *chart.Snapshot, elapsed time.Duration) {
	e.emit(telemetry.Event{
		Kind:    telemetry.KindChartComputed,
		ChartID: fp,
		Source:  source,
		Data: map[string]any{
			"house_system": snap.HouseSystem.String(),
			"positions":    len(snap.Positions),
			"aspects":      len(snap.Aspects),
			"antiscia":     len(snap.Antiscia),
			"elapsed_ms":   float64(elapsed.Microseconds()) / 1000,
		},
	})
	for _, u := range snap.Unresolved {
		e.emit(telemetry.Event{
			Kind:    telemetry.KindBodyUnresolved,
			ChartID: fp,
			Source:  source,
			Data:    map[string]string{"body": u.Body.String(), "reason": u.Reason},
		})
	}
	if snap.HouseError != "" && snap.HouseSystem != zodiac.HouseSystemNone {
		e.emit(telemetry.Event{
			Kind:    telemetry.KindHouseFailure,
			ChartID: fp,
			Source:  source,
			Data:    map[string]string{"house_system": snap.HouseSystem.String(), "error": snap.HouseError},
		})
	}
}

// Emit forwards evt to the telemetry stream, logging write failures.
func (e *Engine) Emit(evt telemetry.Event) { e.emit(evt) }

func (e *Engine) emit(evt telemetry.Event) {
	if err := e.emitter.Emit(evt); err != nil {
		e.logger.Warn().Err(err).Str("kind", evt.Kind).Msg("telemetry write failed")
	}
}

// Recorder returns the metrics recorder, which may be nil.
func (e *Engine) Recorder() *metrics.Recorder { return e.recorder }

// Logger returns the diagnostics logger.
func (e *Engine) Logger() zerolog.Logger { return e.logger }
