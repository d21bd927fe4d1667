package gatedconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	bundle, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(bundle.CurrencyDisplay.Currencies) != 0 {
		t.Errorf("expected empty currency display, got %v", bundle.CurrencyDisplay)
	}
}

func TestLoadParsesPresentFiles(t *testing.T) {
	dir := t.TempDir()
	content := `{"currencies":{"OSMO":{"iconUrl":"osmo.svg","displayName":"Osmosis"}}}`
	if err := os.WriteFile(filepath.Join(dir, CurrencyDisplayFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(dir)
	bundle, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	entry, ok := bundle.CurrencyDisplay.Currencies["OSMO"]
	if !ok || entry.DisplayName != "Osmosis" {
		t.Fatalf("got %+v", bundle.CurrencyDisplay)
	}
}

func TestWriteAtomicThenLoad(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	val := map[string]any{"networks": map[string]any{}}
	if err := s.WriteAtomic(NetworkConfigFile, val); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, NetworkConfigFile+".tmp")); !os.IsNotExist(err) {
		t.Error("temp file should not remain after atomic write")
	}

	bundle, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if bundle.NetworkConfig.Networks == nil {
		t.Error("expected networks map to be present")
	}
}

func TestWatchNotifiesOnChange(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	stop := make(chan struct{})
	defer close(stop)
	changed := make(chan struct{}, 1)

	if err := s.Watch(stop, changed); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := s.WriteAtomic(UISettingsFile, map[string]any{"maintenanceMode": true}); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
}
