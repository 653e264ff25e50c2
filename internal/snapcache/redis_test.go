package snapcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papapumpkin/astrolabe/internal/chart"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// fakeClient is an in-memory stand-in for *redis.Client.
type fakeClient struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedis_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fc := newFakeClient()
	r := NewRedis(fc, "astrolabe:", time.Hour)

	in := &chart.Snapshot{
		JulianDay:   2451545,
		HouseSystem: zodiac.Koch,
		Positions:   []chart.PlanetPosition{{Body: zodiac.Moon, Longitude: 223.35, Speed: 13.2}},
	}
	if err := r.Put(ctx, "fp", in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := fc.data["astrolabe:fp"]; !ok {
		t.Fatalf("key not prefixed: %v", fc.data)
	}
	if fc.ttls["astrolabe:fp"] != time.Hour {
		t.Errorf("ttl = %v", fc.ttls["astrolabe:fp"])
	}

	out, err := r.Get(ctx, "fp")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.HouseSystem != zodiac.Koch || len(out.Positions) != 1 || out.Positions[0].Body != zodiac.Moon {
		t.Errorf("decoded = %+v", out)
	}

	if err := r.Invalidate(ctx, "fp"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := r.Get(ctx, "fp"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after Invalidate: %v", err)
	}
}

func TestRedis_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("connection refused")
	fc := newFakeClient()
	fc.err = boom
	r := NewRedis(fc, "", 0)

	if _, err := r.Get(ctx, "x"); !errors.Is(err, boom) || errors.Is(err, ErrMiss) {
		t.Errorf("Get error = %v", err)
	}
	if err := r.Put(ctx, "x", &chart.Snapshot{}); !errors.Is(err, boom) {
		t.Errorf("Put error = %v", err)
	}

	fc.err = nil
	fc.data["bad"] = "{not json"
	if _, err := r.Get(ctx, "bad"); err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("Get of corrupt entry = %v", err)
	}
}
