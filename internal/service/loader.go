package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sqcb_dashboard/backend/internal/models"
)

type RecordSource interface {
	ListRecords(ctx context.Context) ([]models.Record, error)
}

// Loader caches the record set of a source for TTL. Concurrent misses share
// one upstream call.
type Loader struct {
	Source RecordSource
	TTL    time.Duration
	Logger zerolog.Logger

	now      func() time.Time
	group    singleflight.Group
	mu       sync.Mutex
	records  []models.Record
	loadedAt time.Time
	loaded   bool
}

func NewLoader(src RecordSource, ttl time.Duration, logger zerolog.Logger) *Loader {
	return &Loader{Source: src, TTL: ttl, Logger: logger, now: time.Now}
}

// Records returns a copy of the cached set, loading it when stale.
func (l *Loader) Records(ctx context.Context) ([]models.Record, error) {
	if records, ok := l.cached(); ok {
		return cloneRecords(records), nil
	}

	v, err, shared := l.group.Do("records", func() (any, error) {
		start := l.clock()
		records, err := l.Source.ListRecords(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.records = records
		l.loadedAt = l.clock()
		l.loaded = true
		l.mu.Unlock()
		l.Logger.Debug().
			Int("records", len(records)).
			Dur("latency", l.clock().Sub(start)).
			Msg("records loaded")
		return records, nil
	})
	if err != nil {
		l.Logger.Error().Err(err).Bool("shared", shared).Msg("failed to load records")
		return nil, err
	}
	return cloneRecords(v.([]models.Record)), nil
}

// Invalidate drops the cached set so the next call reloads.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.loaded = false
}

func (l *Loader) cached() ([]models.Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded || l.TTL <= 0 {
		return nil, false
	}
	if l.clock().Sub(l.loadedAt) >= l.TTL {
		return nil, false
	}
	return l.records, true
}

func (l *Loader) clock() time.Time {
	if l.now == nil {
		return time.Now()
	}
	return l.now()
}

func cloneRecords(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
