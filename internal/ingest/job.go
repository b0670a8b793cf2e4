// Package ingest runs the periodic pipeline that turns raw map records into a
// published graph snapshot: fetch, derive, validate, save, archive, notify.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/jobs"
	"github.com/onnwee/poigraph/internal/poi"
	"github.com/onnwee/poigraph/internal/stream"
	"github.com/onnwee/poigraph/internal/tracing"
)

// ErrNoRecords is returned when a source yields nothing to build from.
// The previously published snapshot stays in place.
var ErrNoRecords = errors.New("source returned no records")

// Source yields raw records for one ingestion cycle.
type Source interface {
	Fetch(ctx context.Context) ([]poi.RawRecord, error)
}

// Archiver stores a copy of a published snapshot and returns its location.
type Archiver interface {
	Archive(ctx context.Context, s *graph.Snapshot) (string, error)
}

// Publisher notifies subscribers about a new snapshot.
type Publisher interface {
	Publish(ev stream.Event)
}

// Warmer precomputes derived views for a new snapshot.
type Warmer interface {
	Warm(ctx context.Context, s *graph.Snapshot) error
}

// JobMetrics reports to the shared background job metrics.
type JobMetrics interface {
	Finish(jobType string, start time.Time, errorType string)
}

// DefaultInterval is the default time between ingestion cycles.
const DefaultInterval = 15 * time.Minute

// DefaultTimeout bounds a single cycle, fetch included.
const DefaultTimeout = 2 * time.Minute

// JobConfig configures the ingestion job.
type JobConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	// Graph holds the edge thresholds used to derive snapshots.
	Graph      graph.Config
	Logger     *slog.Logger
	Metrics    *Metrics
	JobMetrics JobMetrics

	// Optional stages. Nil disables the stage.
	Archiver  Archiver
	Publisher Publisher
	Warmer    Warmer
}

// Result describes a completed cycle.
type Result struct {
	SnapshotID string        `json:"snapshot_id"`
	Records    int           `json:"records"`
	Entities   int           `json:"entities"`
	Edges      int           `json:"edges"`
	ArchiveKey string        `json:"archive_key,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// Job periodically rebuilds the graph from a Source and saves it to a
// Repository. Cycles never overlap.
type Job struct {
	config JobConfig
	source Source
	repo   graph.Repository

	cycleMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewJob creates an ingestion job.
func NewJob(config JobConfig, source Source, repo graph.Repository) *Job {
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Graph == (graph.Config{}) {
		config.Graph = graph.DefaultConfig()
	}

	return &Job{
		config: config,
		source: source,
		repo:   repo,
	}
}

// Start runs one cycle immediately and then one per interval, in the
// background. Calling Start on a running job is a no-op.
func (j *Job) Start(ctx context.Context) error {
	if err := j.config.Graph.Validate(); err != nil {
		return fmt.Errorf("invalid graph config: %w", err)
	}

	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the job to stop and waits for the current cycle to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// Timeout returns the bound on a single cycle.
func (j *Job) Timeout() time.Duration {
	return j.config.Timeout
}

// IsRunning reports whether the background loop is active.
func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *Job) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	j.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("graph ingest job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("graph ingest job stopping due to stop signal")
			return
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}

func (j *Job) tick(ctx context.Context) {
	if _, err := j.RunNow(ctx); err != nil {
		j.config.Logger.Error("graph ingest cycle failed", "error", err)
	}
}

// RunNow fetches from the source and ingests the result.
func (j *Job) RunNow(ctx context.Context) (*Result, error) {
	j.cycleMu.Lock()
	defer j.cycleMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := time.Now()
	ctx, end := tracing.StartSpan(ctx, "ingest.fetch")
	records, err := j.source.Fetch(ctx)
	end(err)
	if err != nil {
		j.fail(start, errorType(ctx, "fetch_error"))
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	return j.ingest(ctx, records, start)
}

// Ingest builds and publishes a snapshot from records supplied by the caller.
func (j *Job) Ingest(ctx context.Context, records []poi.RawRecord) (*Result, error) {
	j.cycleMu.Lock()
	defer j.cycleMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	return j.ingest(ctx, records, time.Now())
}

func (j *Job) ingest(ctx context.Context, records []poi.RawRecord, start time.Time) (res *Result, err error) {
	ctx, end := tracing.StartSpan(ctx, "ingest.cycle", attribute.Int("records", len(records)))
	defer func() { end(err) }()

	if len(records) == 0 {
		j.fail(start, "empty_source")
		return nil, ErrNoRecords
	}

	snap := graph.Derive(records, j.config.Graph)
	tracing.SetAttributes(ctx,
		attribute.String("snapshot.id", snap.ID),
		attribute.Int("entities", len(snap.Entities)),
		attribute.Int("edges", len(snap.Edges)),
	)
	if err = snap.Validate(); err != nil {
		j.fail(start, "invalid_snapshot")
		return nil, fmt.Errorf("derived snapshot is invalid: %w", err)
	}

	if err = j.repo.Save(ctx, snap); err != nil {
		j.fail(start, errorType(ctx, "save_error"))
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	res = &Result{
		SnapshotID: snap.ID,
		Records:    len(records),
		Entities:   len(snap.Entities),
		Edges:      len(snap.Edges),
	}
	res.ArchiveKey = j.archive(ctx, snap)
	j.warm(ctx, snap)
	if j.config.Publisher != nil {
		j.config.Publisher.Publish(stream.SnapshotEvent(snap))
	}

	res.Duration = time.Since(start)
	if j.config.Metrics != nil {
		j.config.Metrics.ObserveCycle(jobs.StatusSuccess, res.Duration.Seconds())
		j.config.Metrics.SetLastSnapshot(res.Entities, res.Edges, time.Now())
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.Finish(jobs.JobTypeIngest, start, "")
	}

	j.config.Logger.Info("graph ingest completed",
		"snapshot_id", res.SnapshotID,
		"records", res.Records,
		"entities", res.Entities,
		"edges", res.Edges,
		"archive_key", res.ArchiveKey,
		"duration_seconds", res.Duration.Seconds())
	return res, nil
}

// archive failures are logged and do not fail the cycle.
func (j *Job) archive(ctx context.Context, snap *graph.Snapshot) string {
	if j.config.Archiver == nil {
		return ""
	}
	start := time.Now()
	ctx, end := tracing.StartSpan(ctx, "ingest.archive")
	key, err := j.config.Archiver.Archive(ctx, snap)
	end(err)

	errType := ""
	if err != nil {
		errType = "archive_error"
		j.config.Logger.Warn("failed to archive snapshot",
			"snapshot_id", snap.ID,
			"error", err)
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.Finish(jobs.JobTypeArchive, start, errType)
	}
	return key
}

func (j *Job) warm(ctx context.Context, snap *graph.Snapshot) {
	if j.config.Warmer == nil {
		return
	}
	start := time.Now()
	ctx, end := tracing.StartSpan(ctx, "ingest.warm")
	err := j.config.Warmer.Warm(ctx, snap)
	end(err)

	errType := ""
	if err != nil {
		errType = "warm_error"
		j.config.Logger.Warn("failed to warm ranking cache",
			"snapshot_id", snap.ID,
			"error", err)
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.Finish(jobs.JobTypeCacheWarm, start, errType)
	}
}

func (j *Job) fail(start time.Time, errType string) {
	if j.config.Metrics != nil {
		j.config.Metrics.ObserveCycle(jobs.StatusFailure, time.Since(start).Seconds())
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.Finish(jobs.JobTypeIngest, start, errType)
	}
}

func errorType(ctx context.Context, fallback string) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}
	return fallback
}
