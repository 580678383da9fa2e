package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skobkin/bledm/internal/config"
	"github.com/skobkin/bledm/internal/persistence"
	"github.com/skobkin/bledm/internal/session"
)

type stubDevice struct {
	name      string
	connected bool
}

func (d *stubDevice) Name() string    { return d.name }
func (d *stubDevice) Connected() bool { return d.connected }
func (d *stubDevice) Connect(context.Context) error {
	d.connected = true
	return nil
}
func (d *stubDevice) Disconnect(context.Context) error {
	d.connected = false
	return nil
}

type stubDiscoverer struct {
	device session.Device
}

func (s stubDiscoverer) RequestDevice(context.Context, session.DiscoveryOptions) (session.Device, error) {
	return s.device, nil
}

func initTestRuntime(t *testing.T, discoverer session.Discoverer) *Runtime {
	t.Helper()

	root := filepath.Join(t.TempDir(), Name)
	rt, err := Initialize(context.Background(), Options{
		Paths:           &Paths{RootDir: root},
		Discoverer:      discoverer,
		LogToStdoutOnly: true,
	})
	if err != nil {
		t.Fatalf("initialize runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	return rt
}

func TestRuntimeJournalsSessionActivity(t *testing.T) {
	device := &stubDevice{name: "WIDI Jack"}
	rt := initTestRuntime(t, stubDiscoverer{device: device})

	if err := rt.Session.Scan(rt.Ctx); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if err := rt.Session.Connect(rt.Ctx, "WIDI Jack"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		records, err := rt.RecentActivity(rt.Ctx, 10)
		if err != nil {
			t.Fatalf("recent activity: %v", err)
		}
		if len(records) == 1 {
			if records[0].Message != "Connected to WIDI Jack" || records[0].Operation != "connect" {
				t.Fatalf("unexpected record: %+v", records[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for journaled activity, got %d records", len(records))
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := rt.ClearActivity(rt.Ctx, time.Time{}); err != nil {
		t.Fatalf("clear activity: %v", err)
	}
	records, err := rt.RecentActivity(rt.Ctx, 10)
	if err != nil {
		t.Fatalf("recent activity after clear: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty journal after clear, got %d", len(records))
	}
}

func TestRuntimeCloseDisconnectsActiveDevice(t *testing.T) {
	device := &stubDevice{name: "WIDI Jack"}
	rt := initTestRuntime(t, stubDiscoverer{device: device})

	if err := rt.Session.Scan(rt.Ctx); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if err := rt.Session.Connect(rt.Ctx, "WIDI Jack"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if device.connected {
		t.Fatalf("expected device to be disconnected on close")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestRuntimeCloseJournalsFinalDisconnect(t *testing.T) {
	for _, cancelParent := range []bool{false, true} {
		name := "parent alive"
		if cancelParent {
			name = "parent canceled"
		}
		t.Run(name, func(t *testing.T) {
			parent, cancel := context.WithCancel(context.Background())
			defer cancel()

			root := filepath.Join(t.TempDir(), Name)
			rt, err := Initialize(parent, Options{
				Paths:           &Paths{RootDir: root},
				Discoverer:      stubDiscoverer{device: &stubDevice{name: "WIDI Jack"}},
				LogToStdoutOnly: true,
			})
			if err != nil {
				t.Fatalf("initialize runtime: %v", err)
			}
			if err := rt.Session.Scan(parent); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if err := rt.Session.Connect(parent, "WIDI Jack"); err != nil {
				t.Fatalf("connect: %v", err)
			}
			if cancelParent {
				cancel()
			}
			dbFile := rt.Paths.DBFile
			if err := rt.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			db, err := persistence.Open(context.Background(), dbFile)
			if err != nil {
				t.Fatalf("reopen database: %v", err)
			}
			defer func() { _ = db.Close() }()

			records, err := persistence.NewActivityRepo(db).ListRecent(context.Background(), 10)
			if err != nil {
				t.Fatalf("list activity: %v", err)
			}
			got := make(map[string]bool, len(records))
			for _, rec := range records {
				got[rec.Message] = true
			}
			for _, want := range []string{"Connected to WIDI Jack", "Disconnected from WIDI Jack"} {
				if !got[want] {
					t.Fatalf("missing journal record %q, got %+v", want, records)
				}
			}
		})
	}
}

func TestRuntimeRememberSelectedDevice(t *testing.T) {
	rt := initTestRuntime(t, stubDiscoverer{})

	rt.RememberSelectedDevice(" WIDI Jack2 ")
	if got := rt.CurrentConfig().UI.LastSelectedDevice; got != "WIDI Jack2" {
		t.Fatalf("unexpected selection in memory: %q", got)
	}

	saved, err := config.Load(rt.Paths.ConfigFile)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if saved.UI.LastSelectedDevice != "WIDI Jack2" {
		t.Fatalf("unexpected saved selection: %q", saved.UI.LastSelectedDevice)
	}
}

func TestRuntimeSaveAndApplyConfig(t *testing.T) {
	rt := initTestRuntime(t, stubDiscoverer{})
	rt.RememberSelectedDevice("WIDI Jack")

	cfg := rt.CurrentConfig()
	cfg.Activity.Enabled = false
	cfg.UI.LastSelectedDevice = "stale"
	if err := rt.SaveAndApplyConfig(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if rt.activityEnabled() {
		t.Fatalf("expected activity journal to be disabled")
	}
	if got := rt.CurrentConfig().UI.LastSelectedDevice; got != "WIDI Jack" {
		t.Fatalf("save must keep the remembered selection, got %q", got)
	}

	cfg.Logging.Level = "chatty"
	if err := rt.SaveAndApplyConfig(cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	root := filepath.Join(t.TempDir(), Name)
	paths, err := PathsIn(root)
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	if err := writeRawConfig(paths.ConfigFile, `{"logging":{"level":"chatty"}}`); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Initialize(context.Background(), Options{Paths: &paths, Discoverer: stubDiscoverer{}, LogToStdoutOnly: true}); err == nil {
		t.Fatalf("expected invalid config error")
	}
}

func TestInitializeAppliesOverrideWithoutSaving(t *testing.T) {
	root := filepath.Join(t.TempDir(), Name)
	rt, err := Initialize(context.Background(), Options{
		Paths:           &Paths{RootDir: root},
		Discoverer:      stubDiscoverer{},
		LogToStdoutOnly: true,
		Override: func(cfg *config.AppConfig) {
			cfg.Bluetooth.AllowedNames = []string{"Bench Jack"}
		},
	})
	if err != nil {
		t.Fatalf("initialize runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	if got := rt.Session.AllowedNames(); len(got) != 1 || got[0] != "Bench Jack" {
		t.Fatalf("expected override allow-list, got %v", got)
	}

	saved, err := config.Load(rt.Paths.ConfigFile)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(saved.Bluetooth.AllowedNames) != len(config.DefaultAllowedNames) {
		t.Fatalf("override must not be persisted, got %v", saved.Bluetooth.AllowedNames)
	}
}

func writeRawConfig(path, raw string) error {
	return os.WriteFile(path, []byte(raw), 0o600)
}
