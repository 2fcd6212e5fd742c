package connector

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "connectors.json"))
	s.newID = func() string { return "fixed-id" }
	return s
}

func TestStore_MissingFileIsEmptyDocument(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != ConfigVersion {
		t.Errorf("version: got %d, want %d", cfg.Version, ConfigVersion)
	}
	if len(cfg.Custom) != 0 || len(cfg.BuiltIn) != 0 {
		t.Errorf("expected empty document, got %+v", cfg)
	}
}

func TestStore_AddCustom_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	added, err := s.AddCustom(CustomServer{
		Name:      "files",
		Type:      TransportStdio,
		Enabled:   true,
		Transport: Transport{Command: "file-server", Args: []string{"--root", "/tmp"}},
	})
	if err != nil {
		t.Fatalf("AddCustom: %v", err)
	}
	if added.ID == "" || added.CreatedAt.IsZero() || !added.ModifiedAt.Equal(added.CreatedAt) {
		t.Errorf("identity fields: got %+v", added)
	}

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Custom) != 1 || cfg.Custom[0].Name != "files" {
		t.Errorf("persisted: got %+v", cfg.Custom)
	}
}

func TestStore_UpdateCustom_BumpsModifiedAt(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return base }

	added, err := s.AddCustom(CustomServer{
		Name:      "svc",
		Type:      TransportHTTP,
		Transport: Transport{URL: "https://tools.example.com/rpc"},
	})
	if err != nil {
		t.Fatalf("AddCustom: %v", err)
	}

	s.now = func() time.Time { return base.Add(time.Hour) }
	added.Name = "svc-renamed"
	updated, err := s.UpdateCustom(added)
	if err != nil {
		t.Fatalf("UpdateCustom: %v", err)
	}
	if !updated.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt must be preserved: got %v", updated.CreatedAt)
	}
	if !updated.ModifiedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("ModifiedAt must be bumped: got %v", updated.ModifiedAt)
	}
}

func TestStore_UpdateCustom_Unknown(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.UpdateCustom(CustomServer{ID: "nope", Name: "x", Type: TransportStdio, Transport: Transport{Command: "x"}})
	if !errors.Is(err, ErrServerNotFound) {
		t.Errorf("expected ErrServerNotFound, got %v", err)
	}
}

func TestStore_RemoveCustom(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	added, err := s.AddCustom(CustomServer{
		Name:      "files",
		Type:      TransportStdio,
		Transport: Transport{Command: "file-server"},
	})
	if err != nil {
		t.Fatalf("AddCustom: %v", err)
	}
	if err := s.RemoveCustom(added.ID); err != nil {
		t.Fatalf("RemoveCustom: %v", err)
	}
	cfg, _ := s.Load()
	if len(cfg.Custom) != 0 {
		t.Errorf("expected no custom servers, got %+v", cfg.Custom)
	}

	if err := s.RemoveCustom("nope"); !errors.Is(err, ErrServerNotFound) {
		t.Errorf("expected ErrServerNotFound, got %v", err)
	}
}

func TestStore_ValidationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		server CustomServer
	}{
		{"missing name", CustomServer{Type: TransportStdio, Transport: Transport{Command: "x"}}},
		{"bad type", CustomServer{Name: "x", Type: "websocket"}},
		{"stdio without command", CustomServer{Name: "x", Type: TransportStdio}},
		{"http without https", CustomServer{Name: "x", Type: TransportHTTP, Transport: Transport{URL: "http://e.com"}}},
		{"http empty host", CustomServer{Name: "x", Type: TransportHTTP, Transport: Transport{URL: "https://"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestStore(t)
			if _, err := s.AddCustom(tt.server); err == nil {
				t.Error("expected validation error")
			}
			// Rejected before persistence.
			cfg, _ := s.Load()
			if len(cfg.Custom) != 0 {
				t.Errorf("invalid server was persisted: %+v", cfg.Custom)
			}
		})
	}
}

func TestStore_SetBuiltIn(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.SetBuiltIn("shell", true); err != nil {
		t.Fatalf("SetBuiltIn: %v", err)
	}
	cfg, _ := s.Load()
	if !cfg.BuiltIn["shell"].Enabled {
		t.Error("expected shell connector enabled")
	}
}
