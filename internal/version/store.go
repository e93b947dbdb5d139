package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepdeck/prepdeck/internal/profile"
)

// ErrNotFound is returned when a version, payload, or profile does not exist.
var ErrNotFound = errors.New("version not found")

// DefaultHistoryLimit bounds history queries that do not specify a limit.
const DefaultHistoryLimit = 100

// Store persists versions in PostgreSQL via a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store around an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the schema if it does not exist. Idempotent, run at boot.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dataset_versions (
			id uuid PRIMARY KEY,
			dataset text NOT NULL,
			status text NOT NULL,
			parent_id uuid,
			file_ref text NOT NULL,
			row_count integer NOT NULL DEFAULT 0,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dataset_versions_dataset
			ON dataset_versions (dataset, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS dataset_version_payloads (
			version_id uuid PRIMARY KEY REFERENCES dataset_versions(id) ON DELETE CASCADE,
			filename text NOT NULL,
			payload bytea NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dataset_version_profiles (
			version_id uuid PRIMARY KEY REFERENCES dataset_versions(id) ON DELETE CASCADE,
			profile jsonb NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS version_events (
			id uuid PRIMARY KEY,
			dataset text NOT NULL,
			version_id uuid,
			action text NOT NULL,
			severity text NOT NULL,
			detail jsonb,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_version_events_dataset
			ON version_events (dataset, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreateParams describes a new version and its raw payload.
type CreateParams struct {
	Dataset  string
	ParentID string
	FileRef  string
	Payload  []byte
}

// Create inserts a pending version together with its payload in one
// transaction and returns the stored row.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Version, error) {
	id := uuid.New().String()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var createdAt pgtype.Timestamptz
	err = tx.QueryRow(ctx,
		`INSERT INTO dataset_versions (id, dataset, status, parent_id, file_ref)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		toPgUUID(id), params.Dataset, string(StatusPending),
		toPgUUID(params.ParentID), params.FileRef,
	).Scan(&createdAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO dataset_version_payloads (version_id, filename, payload)
		 VALUES ($1, $2, $3)`,
		toPgUUID(id), params.FileRef, params.Payload,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &Version{
		ID:        id,
		Dataset:   params.Dataset,
		Status:    StatusPending,
		ParentID:  params.ParentID,
		FileRef:   params.FileRef,
		CreatedAt: createdAt.Time,
	}, nil
}

// SetStatus moves a version to a new lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE dataset_versions SET status = $2 WHERE id = $1`,
		toPgUUID(id), string(status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveProfile stores the computed profile, records the row count, and marks
// the version ready.
func (s *Store) SaveProfile(ctx context.Context, id string, p *profile.DatasetProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO dataset_version_profiles (version_id, profile)
		 VALUES ($1, $2)
		 ON CONFLICT (version_id) DO UPDATE SET profile = EXCLUDED.profile`,
		toPgUUID(id), data,
	)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE dataset_versions SET status = $2, row_count = $3 WHERE id = $1`,
		toPgUUID(id), string(StatusReady), p.RowCount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// Get returns a version by id.
func (s *Store) Get(ctx context.Context, id string) (*Version, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, dataset, status, parent_id, file_ref, row_count, created_at
		 FROM dataset_versions WHERE id = $1`,
		toPgUUID(id),
	)
	return scanVersion(row)
}

// Profile returns the stored profile of a ready version.
func (s *Store) Profile(ctx context.Context, id string) (*profile.DatasetProfile, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile FROM dataset_version_profiles WHERE version_id = $1`,
		toPgUUID(id),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p profile.DatasetProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// Payload returns the stored raw file bytes of a version.
func (s *Store) Payload(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM dataset_version_payloads WHERE version_id = $1`,
		toPgUUID(id),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}

// List returns a dataset's versions, newest first.
func (s *Store) List(ctx context.Context, dataset string) ([]Version, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset, status, parent_id, file_ref, row_count, created_at
		 FROM dataset_versions
		 WHERE dataset = $1
		 ORDER BY created_at DESC`,
		dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]Version, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// RecordEvent appends an entry to the dataset's history. Failures to encode
// detail are not fatal; the event is stored without it.
func (s *Store) RecordEvent(ctx context.Context, dataset, versionID, action string, detail map[string]any) error {
	var detailJSON []byte
	if detail != nil {
		var err error
		detailJSON, err = json.Marshal(detail)
		if err != nil {
			detailJSON = nil
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO version_events (id, dataset, version_id, action, severity, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		toPgUUID(uuid.New().String()), dataset, toPgUUID(versionID),
		action, eventSeverity(action), detailJSON,
	)
	return err
}

// History returns a dataset's events, newest first, bounded by limit.
func (s *Store) History(ctx context.Context, dataset string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset, version_id, action, severity, detail, created_at
		 FROM version_events
		 WHERE dataset = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		dataset, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			id        pgtype.UUID
			ds        string
			versionID pgtype.UUID
			action    string
			severity  string
			detail    []byte
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &ds, &versionID, &action, &severity, &detail, &createdAt); err != nil {
			return nil, err
		}

		e := Event{
			ID:        pgUUIDToString(id),
			Dataset:   ds,
			VersionID: pgUUIDToString(versionID),
			Action:    action,
			Severity:  severity,
			CreatedAt: createdAt.Time,
		}
		if detail != nil {
			_ = json.Unmarshal(detail, &e.Detail)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Healthy reports whether the store can reach the database.
func (s *Store) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// scanVersion scans one dataset_versions row.
func scanVersion(row pgx.Row) (*Version, error) {
	var (
		id        pgtype.UUID
		dataset   string
		status    string
		parentID  pgtype.UUID
		fileRef   string
		rowCount  int
		createdAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &dataset, &status, &parentID, &fileRef, &rowCount, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &Version{
		ID:        pgUUIDToString(id),
		Dataset:   dataset,
		Status:    Status(status),
		ParentID:  pgUUIDToString(parentID),
		FileRef:   fileRef,
		RowCount:  rowCount,
		CreatedAt: createdAt.Time,
	}, nil
}
