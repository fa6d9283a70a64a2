package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ccswitch-hq/ccswitch/pkg/channels"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "config.yaml"), nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return store
}

func testChannel(name string, priority int) channels.Channel {
	return channels.Channel{
		Name:     name,
		URL:      "https://" + name + ".example.com/v1/chat/completions",
		APIKey:   "sk-" + name,
		Enabled:  true,
		Priority: priority,
	}
}

func TestStore_AddPersists(t *testing.T) {
	store := newTestStore(t)

	if err := store.AddChannel(testChannel("b", 1)); err != nil {
		t.Fatalf("failed to add: %v", err)
	}
	if err := store.AddChannel(testChannel("a", 1)); err != nil {
		t.Fatalf("failed to add: %v", err)
	}

	cfg, err := LoadConfig(store.Path())
	if err != nil {
		t.Fatalf("failed to load persisted config: %v", err)
	}
	if len(cfg.Channels) != 2 || cfg.Channels[0].Name != "a" || cfg.Channels[1].Name != "b" {
		t.Errorf("expected channels [a b] on disk, got %+v", cfg.Channels)
	}
}

func TestStore_AddDuplicate(t *testing.T) {
	store := newTestStore(t)
	if err := store.AddChannel(testChannel("a", 0)); err != nil {
		t.Fatalf("failed to add: %v", err)
	}

	err := store.AddChannel(testChannel("a", 5))
	if !errors.Is(err, channels.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if got := store.Channels(); len(got) != 1 || got[0].Priority != 0 {
		t.Errorf("store should be unchanged, got %+v", got)
	}
}

func TestStore_UpdateAndRemove(t *testing.T) {
	store := newTestStore(t)
	if err := store.AddChannel(testChannel("a", 0)); err != nil {
		t.Fatalf("failed to add: %v", err)
	}

	err := store.UpdateChannel("a", func(ch *channels.Channel) {
		ch.Enabled = false
		ch.Priority = 7
	})
	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	cfg, _ := LoadConfig(store.Path())
	if cfg.Channels[0].Enabled || cfg.Channels[0].Priority != 7 {
		t.Errorf("update not persisted: %+v", cfg.Channels[0])
	}

	if err := store.UpdateChannel("missing", func(*channels.Channel) {}); !errors.Is(err, channels.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.RemoveChannel("a"); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if err := store.RemoveChannel("a"); !errors.Is(err, channels.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}

	cfg, _ = LoadConfig(store.Path())
	if len(cfg.Channels) != 0 {
		t.Errorf("expected no channels on disk, got %d", len(cfg.Channels))
	}
}

func TestStore_InvalidUpdateRejected(t *testing.T) {
	store := newTestStore(t)
	if err := store.AddChannel(testChannel("a", 0)); err != nil {
		t.Fatalf("failed to add: %v", err)
	}

	err := store.UpdateChannel("a", func(ch *channels.Channel) { ch.URL = "" })
	if !errors.Is(err, channels.ErrInvalidChannel) {
		t.Fatalf("expected ErrInvalidChannel, got %v", err)
	}
	if store.Channels()[0].URL == "" {
		t.Error("invalid update must not be applied")
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := newTestStore(t)
	if err := store.AddChannel(testChannel("a", 0)); err != nil {
		t.Fatalf("failed to add: %v", err)
	}

	reg, settings := store.Snapshot()
	if settings.RetryAttempts != DefaultRetryAttempts {
		t.Errorf("expected default retry attempts, got %d", settings.RetryAttempts)
	}

	if err := store.RemoveChannel("a"); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if reg.Len() != 1 {
		t.Error("snapshot must not observe later edits")
	}
}

func TestStore_EnvNotPersisted(t *testing.T) {
	t.Setenv("CCSWITCH_DEFAULT_MODEL", "from-env")

	store := newTestStore(t)
	if _, settings := store.Snapshot(); settings.DefaultModel != "from-env" {
		t.Errorf("expected env override in settings, got %q", settings.DefaultModel)
	}

	if err := store.AddChannel(testChannel("a", 0)); err != nil {
		t.Fatalf("failed to add: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if strings.Contains(string(data), "from-env") {
		t.Error("environment override was written to disk")
	}
	if store.Config().DefaultModel != "from-env" {
		t.Error("effective config lost env override after edit")
	}
}

func TestStore_Reload(t *testing.T) {
	store := newTestStore(t)

	content := `
retry_attempts: 1
channels:
  - {name: x, url: "https://x.example.com"}
`
	if err := os.WriteFile(store.Path(), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}

	reg, settings := store.Snapshot()
	if reg.Len() != 1 || settings.RetryAttempts != 1 {
		t.Errorf("reload not applied: len=%d retry=%d", reg.Len(), settings.RetryAttempts)
	}

	if err := os.WriteFile(store.Path(), []byte("channels: [broken"), 0o600); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if reg, _ := store.Snapshot(); reg.Len() != 1 {
		t.Error("failed reload must keep the previous configuration")
	}
}

func TestStore_ConcurrentEdits(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch := testChannel(string(rune('a'+i)), i)
			if err := store.AddChannel(ch); err != nil {
				t.Errorf("failed to add %s: %v", ch.Name, err)
			}
			store.Snapshot()
		}(i)
	}
	wg.Wait()

	cfg, err := LoadConfig(store.Path())
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(cfg.Channels) != 10 {
		t.Errorf("expected 10 channels on disk, got %d", len(cfg.Channels))
	}
}
