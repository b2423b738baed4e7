package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MockStore persists each Report as its own JSON file under a directory,
// for disconnected/local development without a live database.
type MockStore struct {
	dir string
}

func newMockStore(dir string) (*MockStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("report: mock store requires a data path")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create mock data path %s: %w", dir, err)
	}
	return &MockStore{dir: dir}, nil
}

func (s *MockStore) Close() error { return nil }

func (s *MockStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *MockStore) Save(ctx context.Context, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal report %s: %w", r.ID, err)
	}
	if err := os.WriteFile(s.path(r.ID.String()), data, 0o644); err != nil {
		return fmt.Errorf("report: write report %s: %w", r.ID, err)
	}
	return nil
}

func (s *MockStore) Get(ctx context.Context, id string) (Report, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return Report{}, fmt.Errorf("report: read report %s: %w", id, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("report: unmarshal report %s: %w", id, err)
	}
	return r, nil
}

func (s *MockStore) List(ctx context.Context) ([]Report, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("report: list mock data path %s: %w", s.dir, err)
	}
	var out []Report
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		r, err := s.Get(context.Background(), id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
