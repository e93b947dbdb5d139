package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prepdeck/prepdeck/internal/diff"
	"github.com/prepdeck/prepdeck/internal/logging"
	"github.com/prepdeck/prepdeck/internal/profile"
	"github.com/prepdeck/prepdeck/internal/tabular"
	"github.com/prepdeck/prepdeck/internal/version"
)

// Sentinel errors surfaced to callers. Their strings line up with the
// patterns in error_messages.go so MapError assigns the right codes.
var (
	ErrNoFile          = errors.New("no file provided")
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrVersionNotReady = errors.New("version not ready")
)

// DefaultIngestTimeout bounds one ingest operation end to end.
const DefaultIngestTimeout = 5 * time.Minute

// VersionStore is the persistence surface the service needs. *version.Store
// satisfies it; tests substitute an in-memory implementation.
type VersionStore interface {
	Create(ctx context.Context, params version.CreateParams) (*version.Version, error)
	SetStatus(ctx context.Context, id string, status version.Status) error
	SaveProfile(ctx context.Context, id string, p *profile.DatasetProfile) error
	Get(ctx context.Context, id string) (*version.Version, error)
	Profile(ctx context.Context, id string) (*profile.DatasetProfile, error)
	Payload(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context, dataset string) ([]version.Version, error)
	RecordEvent(ctx context.Context, dataset, versionID, action string, detail map[string]any) error
	History(ctx context.Context, dataset string, limit int) ([]version.Event, error)
	Healthy(ctx context.Context) error
}

// Config carries the service's operational settings and policies.
type Config struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	IngestTimeout time.Duration
	ProfilePolicy profile.Policy
	DiffPolicy    diff.Policy
}

// Service orchestrates ingestion, profiling, and version diffing.
type Service struct {
	store   VersionStore
	limiter *ProfilingLimiter
	memo    *diff.Memoizer

	maxFileSize   int64
	ingestTimeout time.Duration
	profilePolicy profile.Policy
	diffPolicy    diff.Policy
}

// NewService creates a service around a version store.
func NewService(store VersionStore, cfg Config) *Service {
	if cfg.IngestTimeout <= 0 {
		cfg.IngestTimeout = DefaultIngestTimeout
	}

	return &Service{
		store:         store,
		limiter:       NewProfilingLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		memo:          diff.NewMemoizer(),
		maxFileSize:   cfg.MaxFileSize,
		ingestTimeout: cfg.IngestTimeout,
		profilePolicy: cfg.ProfilePolicy,
		diffPolicy:    cfg.DiffPolicy,
	}
}

// Limiter exposes the profiling limiter for health reporting and shutdown.
func (s *Service) Limiter() *ProfilingLimiter {
	return s.limiter
}

// IngestParams describes one uploaded file.
type IngestParams struct {
	Dataset  string
	Filename string
	// ParentID optionally links the new version to the one it supersedes.
	ParentID string
	File     io.Reader
	// Size is the declared payload size, used for progress accounting; 0 is
	// accepted when the transport does not know it.
	Size int64
}

// IngestResult is the outcome of a completed ingest.
type IngestResult struct {
	Version *version.Version        `json:"version"`
	Profile *profile.DatasetProfile `json:"profile"`
}

// Ingest reads, parses, and profiles an uploaded file, then persists the
// version with its payload and profile. The version moves pending ->
// profiling -> ready, or to failed when the payload cannot be parsed.
func (s *Service) Ingest(ctx context.Context, params IngestParams) (*IngestResult, error) {
	if params.File == nil || strings.TrimSpace(params.Filename) == "" {
		return nil, ErrNoFile
	}
	if params.Dataset == "" {
		return nil, fmt.Errorf("dataset name is required")
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.ingestTimeout)
	defer cancel()

	logger := logging.WithFields(ctx, "dataset", params.Dataset, "file", params.Filename)

	data, err := s.readPayload(params.File, params.Size)
	if err != nil {
		return nil, err
	}

	v, err := s.store.Create(ctx, version.CreateParams{
		Dataset:  params.Dataset,
		ParentID: params.ParentID,
		FileRef:  params.Filename,
		Payload:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}

	_ = s.store.RecordEvent(ctx, params.Dataset, v.ID, version.ActionUpload, map[string]any{
		"file":  params.Filename,
		"bytes": len(data),
	})

	if err := s.store.SetStatus(ctx, v.ID, version.StatusProfiling); err != nil {
		return nil, fmt.Errorf("mark profiling: %w", err)
	}

	table, err := tabular.Parse(string(data), tabular.Options{})
	if err != nil {
		s.failVersion(ctx, v, err)
		return nil, fmt.Errorf("parse %s: %w", params.Filename, err)
	}

	prof := profile.Build(params.Filename, table, s.profilePolicy)

	if err := s.store.SaveProfile(ctx, v.ID, prof); err != nil {
		s.failVersion(ctx, v, err)
		return nil, fmt.Errorf("save profile: %w", err)
	}
	v.Status = version.StatusReady
	v.RowCount = prof.RowCount

	_ = s.store.RecordEvent(ctx, params.Dataset, v.ID, version.ActionProfileStored, map[string]any{
		"rows":    prof.RowCount,
		"columns": len(prof.Columns),
	})

	// A re-ingested dataset invalidates any cached diff.
	s.memo.Invalidate()

	logger.Info("version ingested",
		"version_id", v.ID,
		"rows", prof.RowCount,
		"columns", len(prof.Columns),
	)

	return &IngestResult{Version: v, Profile: prof}, nil
}

// readPayload drains the upload through the sanitizing reader chain and
// enforces the size cap.
func (s *Service) readPayload(r io.Reader, size int64) ([]byte, error) {
	wrapped := io.Reader(tabular.WrapReader(r, size))
	if s.maxFileSize > 0 {
		wrapped = io.LimitReader(wrapped, s.maxFileSize+1)
	}

	data, err := io.ReadAll(wrapped)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	return data, nil
}

// failVersion marks a version failed and records the event. Best effort; the
// original error is what the caller reports.
func (s *Service) failVersion(ctx context.Context, v *version.Version, cause error) {
	if err := s.store.SetStatus(ctx, v.ID, version.StatusFailed); err != nil {
		logging.FromContext(ctx).Warn("mark version failed", "version_id", v.ID, "error", err)
	}
	_ = s.store.RecordEvent(ctx, v.Dataset, v.ID, version.ActionProfileFailed, map[string]any{
		"error": cause.Error(),
	})
}

// Profile returns the stored profile of a version.
func (s *Service) Profile(ctx context.Context, versionID string) (*profile.DatasetProfile, error) {
	v, err := s.store.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v.Status != version.StatusReady {
		return nil, fmt.Errorf("%w: status %s", ErrVersionNotReady, v.Status)
	}
	return s.store.Profile(ctx, versionID)
}

// PreviewResult is a bounded sample of a version's raw rows.
type PreviewResult struct {
	VersionID string     `json:"versionId"`
	Filename  string     `json:"filename"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	// RowCount is the full dataset size, not the preview length.
	RowCount int `json:"rowCount"`
}

// Preview returns the sample rows kept on the stored profile.
func (s *Service) Preview(ctx context.Context, versionID string) (*PreviewResult, error) {
	prof, err := s.Profile(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		VersionID: versionID,
		Filename:  prof.Filename,
		Columns:   prof.ColumnNames,
		Rows:      prof.SampleRows,
		RowCount:  prof.RowCount,
	}, nil
}

// Diff compares two versions. Results are memoized per (base, compare) pair;
// concurrent requests for the same pair share one computation. A side that
// exists but was never profiled produces an unavailable result, while an
// unknown version id is an error.
func (s *Service) Diff(ctx context.Context, baseID, compareID string) (*diff.Result, error) {
	return s.memo.Get(baseID, compareID, func() (*diff.Result, error) {
		in := diff.Input{}

		baseVersion, err := s.loadSide(ctx, baseID, &in.Base, &in.BaseRows)
		if err != nil {
			return nil, fmt.Errorf("base version: %w", err)
		}
		if _, err := s.loadSide(ctx, compareID, &in.Compare, &in.CompareRows); err != nil {
			return nil, fmt.Errorf("compare version: %w", err)
		}

		start := time.Now()
		result := diff.Compute(in, s.diffPolicy)

		_ = s.store.RecordEvent(ctx, baseVersion.Dataset, baseID, version.ActionDiff, map[string]any{
			"compare_id": compareID,
			"rows":       len(result.Rows),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})

		return result, nil
	})
}

// loadSide resolves one side of a diff: the profile and the re-parsed rows.
// A version that is not ready leaves the side nil so the diff reports
// unavailable instead of failing.
func (s *Service) loadSide(ctx context.Context, id string, prof **profile.DatasetProfile, rows *[][]string) (*version.Version, error) {
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != version.StatusReady {
		return v, nil
	}

	p, err := s.store.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := s.store.Payload(ctx, id)
	if err != nil {
		return nil, err
	}
	table, err := tabular.Parse(string(payload), tabular.Options{})
	if err != nil {
		// Profile exists but payload no longer parses; degrade to
		// profile-only comparison with no row detail.
		logging.FromContext(ctx).Warn("stored payload unparsable", "version_id", id, "error", err)
		*prof = p
		return v, nil
	}

	*prof = p
	*rows = table.Rows
	return v, nil
}

// ListVersions returns a dataset's versions, newest first.
func (s *Service) ListVersions(ctx context.Context, dataset string) ([]version.Version, error) {
	return s.store.List(ctx, dataset)
}

// History returns a dataset's event trail, newest first.
func (s *Service) History(ctx context.Context, dataset string, limit int) ([]version.Event, error) {
	return s.store.History(ctx, dataset, limit)
}

// Healthy reports whether the backing store is reachable.
func (s *Service) Healthy(ctx context.Context) error {
	return s.store.Healthy(ctx)
}
