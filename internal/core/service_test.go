package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prepdeck/prepdeck/internal/profile"
	"github.com/prepdeck/prepdeck/internal/version"
)

// memStore is an in-memory VersionStore for exercising the service without
// a database.
type memStore struct {
	mu       sync.Mutex
	seq      int
	versions map[string]*version.Version
	payloads map[string][]byte
	profiles map[string]*profile.DatasetProfile
	events   []version.Event
	health   error
}

func newMemStore() *memStore {
	return &memStore{
		versions: make(map[string]*version.Version),
		payloads: make(map[string][]byte),
		profiles: make(map[string]*profile.DatasetProfile),
	}
}

func (m *memStore) Create(_ context.Context, params version.CreateParams) (*version.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("v%d", m.seq)
	v := &version.Version{
		ID:       id,
		Dataset:  params.Dataset,
		Status:   version.StatusPending,
		ParentID: params.ParentID,
		FileRef:  params.FileRef,
	}
	m.versions[id] = v
	m.payloads[id] = params.Payload
	copied := *v
	return &copied, nil
}

func (m *memStore) SetStatus(_ context.Context, id string, status version.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[id]
	if !ok {
		return version.ErrNotFound
	}
	v.Status = status
	return nil
}

func (m *memStore) SaveProfile(_ context.Context, id string, p *profile.DatasetProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[id]
	if !ok {
		return version.ErrNotFound
	}
	m.profiles[id] = p
	v.Status = version.StatusReady
	v.RowCount = p.RowCount
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*version.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[id]
	if !ok {
		return nil, version.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (m *memStore) Profile(_ context.Context, id string) (*profile.DatasetProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, version.ErrNotFound
	}
	return p, nil
}

func (m *memStore) Payload(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.payloads[id]
	if !ok {
		return nil, version.ErrNotFound
	}
	return data, nil
}

func (m *memStore) List(_ context.Context, dataset string) ([]version.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []version.Version
	for _, v := range m.versions {
		if v.Dataset == dataset {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memStore) RecordEvent(_ context.Context, dataset, versionID, action string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, version.Event{
		Dataset:   dataset,
		VersionID: versionID,
		Action:    action,
		Detail:    detail,
	})
	return nil
}

func (m *memStore) History(_ context.Context, dataset string, _ int) ([]version.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []version.Event
	for _, e := range m.events {
		if e.Dataset == dataset {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) Healthy(_ context.Context) error {
	return m.health
}

func (m *memStore) eventActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]string, len(m.events))
	for i, e := range m.events {
		actions[i] = e.Action
	}
	return actions
}

func newTestService(store VersionStore) *Service {
	return NewService(store, Config{})
}

func ingestCSV(t *testing.T, s *Service, dataset, name, content string) *IngestResult {
	t.Helper()
	res, err := s.Ingest(context.Background(), IngestParams{
		Dataset:  dataset,
		Filename: name,
		File:     strings.NewReader(content),
		Size:     int64(len(content)),
	})
	if err != nil {
		t.Fatalf("Ingest(%s) error = %v", name, err)
	}
	return res
}

func TestServiceIngest(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	res := ingestCSV(t, s, "orders", "orders.csv",
		"id,amount\n1,10\n2,20\n3,30\n")

	if res.Version.Status != version.StatusReady {
		t.Errorf("Status = %s, want %s", res.Version.Status, version.StatusReady)
	}
	if res.Profile.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", res.Profile.RowCount)
	}
	if res.Version.RowCount != 3 {
		t.Errorf("Version.RowCount = %d, want 3", res.Version.RowCount)
	}

	actions := store.eventActions()
	if len(actions) != 2 || actions[0] != version.ActionUpload || actions[1] != version.ActionProfileStored {
		t.Errorf("events = %v, want [upload profile_stored]", actions)
	}

	payload, err := store.Payload(context.Background(), res.Version.ID)
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	if !strings.Contains(string(payload), "id,amount") {
		t.Errorf("stored payload missing header: %q", payload)
	}
}

func TestServiceIngest_StripsBOM(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	res := ingestCSV(t, s, "orders", "orders.csv",
		"\xEF\xBB\xBFid,amount\n1,10\n2,20\n")

	if got := res.Profile.ColumnNames[0]; got != "id" {
		t.Errorf("first column = %q, want %q (BOM should be stripped)", got, "id")
	}
}

func TestServiceIngest_ParseFailure(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	_, err := s.Ingest(context.Background(), IngestParams{
		Dataset:  "orders",
		Filename: "broken.csv",
		File:     strings.NewReader("a,b,c\nonly,two\n"),
	})
	if err == nil {
		t.Fatal("Ingest() expected parse error")
	}

	v, getErr := store.Get(context.Background(), "v1")
	if getErr != nil {
		t.Fatalf("Get() error = %v", getErr)
	}
	if v.Status != version.StatusFailed {
		t.Errorf("Status = %s, want %s", v.Status, version.StatusFailed)
	}

	actions := store.eventActions()
	if len(actions) != 2 || actions[1] != version.ActionProfileFailed {
		t.Errorf("events = %v, want profile_failed recorded", actions)
	}
}

func TestServiceIngest_InputValidation(t *testing.T) {
	s := newTestService(newMemStore())
	ctx := context.Background()

	if _, err := s.Ingest(ctx, IngestParams{Dataset: "d", Filename: ""}); !errors.Is(err, ErrNoFile) {
		t.Errorf("missing filename: err = %v, want ErrNoFile", err)
	}
	if _, err := s.Ingest(ctx, IngestParams{Dataset: "d", Filename: "f.csv", File: strings.NewReader("")}); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty payload: err = %v, want ErrEmptyFile", err)
	}
}

func TestServiceIngest_FileTooLarge(t *testing.T) {
	store := newMemStore()
	s := NewService(store, Config{MaxFileSize: 10})

	_, err := s.Ingest(context.Background(), IngestParams{
		Dataset:  "orders",
		Filename: "big.csv",
		File:     strings.NewReader("id,amount\n1,10\n2,20\n"),
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestServiceProfileAndPreview(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	res := ingestCSV(t, s, "orders", "orders.csv",
		"id,amount\n1,10\n2,20\n3,30\n")
	ctx := context.Background()

	prof, err := s.Profile(ctx, res.Version.ID)
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if prof.Filename != "orders.csv" {
		t.Errorf("Filename = %q", prof.Filename)
	}

	preview, err := s.Preview(ctx, res.Version.ID)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(preview.Columns) != 2 || preview.RowCount != 3 {
		t.Errorf("preview = %+v", preview)
	}
	if len(preview.Rows) != 3 {
		t.Errorf("preview rows = %d, want 3", len(preview.Rows))
	}

	if _, err := s.Profile(ctx, "missing"); !errors.Is(err, version.ErrNotFound) {
		t.Errorf("Profile(missing) err = %v, want ErrNotFound", err)
	}
}

func TestServiceProfile_NotReady(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	v, err := store.Create(context.Background(), version.CreateParams{
		Dataset: "orders", FileRef: "pending.csv", Payload: []byte("x"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Profile(context.Background(), v.ID); !errors.Is(err, ErrVersionNotReady) {
		t.Errorf("err = %v, want ErrVersionNotReady", err)
	}
}

func TestServiceDiff(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	base := ingestCSV(t, s, "orders", "v1.csv",
		"id,amount\n1,10\n2,20\n3,30\n")
	compare := ingestCSV(t, s, "orders", "v2.csv",
		"id,amount\n1,10\n2,500\n3,30\n")

	result, err := s.Diff(context.Background(), base.Version.ID, compare.Version.ID)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}

	if result.Unavailable {
		t.Fatal("Diff() unavailable for two ready versions")
	}
	if result.Summary.Modified != 1 {
		t.Errorf("Modified = %d, want 1", result.Summary.Modified)
	}
	if result.Summary.Unchanged != 2 {
		t.Errorf("Unchanged = %d, want 2", result.Summary.Unchanged)
	}

	// Same pair again returns the memoized result
	again, err := s.Diff(context.Background(), base.Version.ID, compare.Version.ID)
	if err != nil {
		t.Fatalf("second Diff() error = %v", err)
	}
	if again != result {
		t.Error("expected memoized result on repeat request")
	}
}

func TestServiceDiff_UnprofiledSide(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	base := ingestCSV(t, s, "orders", "v1.csv", "id,amount\n1,10\n2,20\n")
	pending, err := store.Create(context.Background(), version.CreateParams{
		Dataset: "orders", FileRef: "pending.csv", Payload: []byte("x"),
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Diff(context.Background(), base.Version.ID, pending.ID)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if !result.Unavailable {
		t.Error("expected unavailable result for unprofiled side")
	}
}

func TestServiceDiff_UnknownVersion(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	base := ingestCSV(t, s, "orders", "v1.csv", "id,amount\n1,10\n2,20\n")

	if _, err := s.Diff(context.Background(), base.Version.ID, "nope"); !errors.Is(err, version.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestServiceListAndHistory(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	ingestCSV(t, s, "orders", "v1.csv", "id,amount\n1,10\n2,20\n")
	ingestCSV(t, s, "orders", "v2.csv", "id,amount\n1,10\n2,25\n")
	ingestCSV(t, s, "other", "o.csv", "id\n1\n2\n")

	ctx := context.Background()
	versions, err := s.ListVersions(ctx, "orders")
	if err != nil {
		t.Fatalf("ListVersions() error = %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("len(versions) = %d, want 2", len(versions))
	}

	events, err := s.History(ctx, "orders", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	// Two ingests, each recording upload + profile_stored
	if len(events) != 4 {
		t.Errorf("len(events) = %d, want 4", len(events))
	}
}
