package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/sqcb_dashboard/backend/internal/models"
)

const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

var ErrSyncInProgress = errors.New("service: sync already in progress")

// SnapshotStore persists the synced record set and the run log.
type SnapshotStore interface {
	ReplaceRecords(ctx context.Context, records []models.Record) (int64, error)
	CreateRun(ctx context.Context, status string) (string, error)
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
}

// SyncService copies the upstream record set into the snapshot store.
type SyncService struct {
	Upstream   RecordSource
	Store      SnapshotStore
	Loader     *Loader
	Classifier Classifier
	Logger     zerolog.Logger
	Now        func() time.Time

	mu sync.Mutex
}

type SyncSummary struct {
	RunID      string           `json:"run_id"`
	Status     string           `json:"status"`
	Fetched    int              `json:"fetched"`
	Stored     int64            `json:"stored"`
	Counters   map[Category]int `json:"counters,omitempty"`
	DurationMs int64            `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
}

func NewSyncService(upstream RecordSource, store SnapshotStore, loader *Loader, classifier Classifier, logger zerolog.Logger) *SyncService {
	return &SyncService{
		Upstream:   upstream,
		Store:      store,
		Loader:     loader,
		Classifier: classifier,
		Logger:     logger,
		Now:        time.Now,
	}
}

// Sync runs one upstream pull. Overlapping calls fail with ErrSyncInProgress.
func (s *SyncService) Sync(ctx context.Context) (SyncSummary, error) {
	if !s.mu.TryLock() {
		return SyncSummary{}, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	runID, err := s.Store.CreateRun(ctx, RunStatusRunning)
	if err != nil {
		return SyncSummary{}, fmt.Errorf("service: create run: %w", err)
	}

	start := s.now()
	summary := SyncSummary{RunID: runID, Status: RunStatusSuccess}
	syncErr := s.pull(ctx, &summary)
	summary.DurationMs = s.now().Sub(start).Milliseconds()
	if syncErr != nil {
		summary.Status = RunStatusFailed
		summary.Error = syncErr.Error()
	}

	b, _ := json.Marshal(summary)
	if err := s.Store.FinishRun(ctx, runID, summary.Status, b); err != nil {
		s.Logger.Error().Err(err).Str("run_id", runID).Msg("failed to finish run")
	}

	if syncErr != nil {
		s.Logger.Error().Err(syncErr).Str("run_id", runID).Msg("sync failed")
		return summary, syncErr
	}
	if s.Loader != nil {
		s.Loader.Invalidate()
	}
	s.Logger.Info().
		Str("run_id", runID).
		Int("fetched", summary.Fetched).
		Int64("stored", summary.Stored).
		Int64("duration_ms", summary.DurationMs).
		Msg("sync finished")
	return summary, nil
}

func (s *SyncService) pull(ctx context.Context, summary *SyncSummary) error {
	records, err := s.Upstream.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("service: fetch records: %w", err)
	}
	summary.Fetched = len(records)

	stored, err := s.Store.ReplaceRecords(ctx, records)
	if err != nil {
		return fmt.Errorf("service: store records: %w", err)
	}
	summary.Stored = stored
	summary.Counters = s.Classifier.Classify(records, s.now()).Overview.Counters
	return nil
}

// Schedule registers Sync on a 5-field cron expression and starts the
// scheduler. Callers stop it on shutdown.
func (s *SyncService) Schedule(spec string, timeout time.Duration) (*cron.Cron, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := s.Sync(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
			s.Logger.Warn().Err(err).Msg("scheduled sync failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("service: invalid sync schedule %q: %w", spec, err)
	}
	c.Start()
	s.Logger.Info().Str("schedule", spec).Msg("sync scheduled")
	return c, nil
}

func (s *SyncService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
