package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/skobkin/bledm/internal/bus"
	"github.com/skobkin/bledm/internal/config"
	"github.com/skobkin/bledm/internal/logging"
	"github.com/skobkin/bledm/internal/notifications"
	"github.com/skobkin/bledm/internal/persistence"
	"github.com/skobkin/bledm/internal/platform"
	"github.com/skobkin/bledm/internal/session"
	"github.com/skobkin/bledm/internal/transport"
)

const (
	writerQueueCapacity = 128
	shutdownFlushWait   = 2 * time.Second
)

// Options tune Initialize for the GUI, the CLI and tests.
type Options struct {
	// Paths overrides the user config directory layout when set.
	Paths *Paths
	// LockID names the single-instance lock. Empty skips locking.
	LockID string
	// Chooser picks a device from scan candidates. It can also be set later
	// through Runtime.SetChooser once the UI exists.
	Chooser transport.Chooser
	// Discoverer replaces the Bluetooth discovery when set.
	Discoverer session.Discoverer
	// LogToStdoutOnly disables the log file regardless of config.
	LogToStdoutOnly bool
	// Override adjusts the loaded config for this process only. Changes are
	// validated but never saved.
	Override func(cfg *config.AppConfig)
}

type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB

	ActivityRepo *persistence.ActivityRepo
	WriterQueue  *persistence.WriterQueue

	Discovery *transport.Discovery
	Session   *session.Manager

	stopJournal func()
	lock        platform.InstanceLock
}

func Initialize(parent context.Context, opts Options) (*Runtime, error) {
	paths, err := resolveRuntimePaths(opts.Paths)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Override != nil {
		opts.Override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// Background workers outlive a canceled parent so Close can still
	// journal the final disconnect.
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	if opts.LockID != "" {
		lock, err := platform.AcquireInstanceLock(opts.LockID)
		switch {
		case errors.Is(err, platform.ErrInstanceLockUnsupported):
			slog.Warn("running without single-instance guard", "error", err)
		case err != nil:
			cancel()
			return nil, fmt.Errorf("acquire instance lock: %w", err)
		default:
			rt.lock = lock
		}
	}

	logCfg := cfg.Logging
	if opts.LogToStdoutOnly {
		logCfg.LogToFile = false
	}
	logMgr := logging.NewManager()
	if err := logMgr.Configure(logCfg, paths.LogFile); err != nil {
		_ = logMgr.Close()
		_ = rt.Close()
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting bledm runtime", "version", BuildVersion(), "build_date", BuildDateYMD())

	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.DB = db
	rt.ActivityRepo = persistence.NewActivityRepo(db)

	b := bus.New(logMgr.Logger("bus"))
	rt.Bus = b

	writerQueue := persistence.NewWriterQueue(logMgr.Logger("persistence"), writerQueueCapacity)
	writerQueue.Start(ctx)
	rt.WriterQueue = writerQueue
	rt.stopJournal = StartActivityProjection(ctx, b, writerQueue, rt.ActivityRepo, rt.activityEnabled, logMgr.Logger("activity"))

	discoverer := opts.Discoverer
	if discoverer == nil {
		rt.Discovery = transport.NewDiscovery(cfg.Bluetooth.Adapter, cfg.Bluetooth.ScanTimeout(), opts.Chooser)
		discoverer = rt.Discovery
	}
	rt.Session = session.NewManager(discoverer, sessionOptions(cfg), b, logMgr.Logger("session"))

	return rt, nil
}

func resolveRuntimePaths(override *Paths) (Paths, error) {
	if override != nil {
		return PathsIn(override.RootDir)
	}

	return ResolvePaths()
}

func sessionOptions(cfg config.AppConfig) session.Options {
	return session.Options{
		AllowedNames: cfg.Bluetooth.AllowedNames,
		Discovery: session.DiscoveryOptions{
			NamePrefixes:     cfg.Bluetooth.NamePrefixes,
			OptionalServices: cfg.Bluetooth.OptionalServices,
		},
	}
}

// SetChooser installs the device chooser used by subsequent scans.
func (r *Runtime) SetChooser(chooser transport.Chooser) {
	if r.Discovery != nil {
		r.Discovery.SetChooser(chooser)
	}
}

// StartNotifications wires session events to sender.
func (r *Runtime) StartNotifications(sender notifications.Sender, isForeground func() bool) {
	if sender == nil {
		return
	}
	svc := NewNotificationService(r.Bus, r.CurrentConfig, isForeground, sender, r.LogManager.Logger("notifications"))
	svc.Start(r.Ctx)
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

func (r *Runtime) activityEnabled() bool {
	return r.CurrentConfig().Activity.Enabled
}

// SaveAndApplyConfig persists cfg and applies settings that take effect
// without a restart. Bluetooth discovery settings apply on the next start.
func (r *Runtime) SaveAndApplyConfig(cfg config.AppConfig) error {
	cfg.FillMissingDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	cfg.UI.LastSelectedDevice = r.Config.UI.LastSelectedDevice
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()
		return err
	}
	r.Config = cfg
	r.mu.Unlock()

	return r.LogManager.Configure(cfg.Logging, r.Paths.LogFile)
}

// RememberSelectedDevice stores the selector value so the next start preselects it.
func (r *Runtime) RememberSelectedDevice(name string) {
	normalized := strings.TrimSpace(name)

	r.mu.Lock()
	if r.Config.UI.LastSelectedDevice == normalized {
		r.mu.Unlock()
		return
	}
	cfg := r.Config
	cfg.UI.LastSelectedDevice = normalized
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()
		slog.Warn("save selected device", "error", err)
		return
	}
	r.Config = cfg
	r.mu.Unlock()
}

func (r *Runtime) RecentActivity(ctx context.Context, limit int) ([]persistence.ActivityRecord, error) {
	if r.ActivityRepo == nil {
		return nil, errors.New("activity journal is not initialized")
	}

	return r.ActivityRepo.ListRecent(ctx, limit)
}

// ClearActivity drops journal records older than before, or all of them
// when before is zero.
func (r *Runtime) ClearActivity(ctx context.Context, before time.Time) (int64, error) {
	removed, err := persistence.PruneActivity(ctx, r.DB, before)
	if err != nil {
		return 0, err
	}
	slog.Info("activity journal pruned", "removed", removed, "before", before)

	return removed, nil
}

// Close disconnects any active device, drains pending journal writes and
// releases resources. It is safe to call more than once.
func (r *Runtime) Close() error {
	var errs []error

	if r.Session != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushWait)
		if err := r.Session.Disconnect(ctx); err != nil && !errors.Is(err, session.ErrBusy) {
			errs = append(errs, fmt.Errorf("disconnect on shutdown: %w", err))
		}
		cancel()
	}
	if r.stopJournal != nil {
		r.stopJournal()
		r.stopJournal = nil
	}
	if r.WriterQueue != nil && r.Ctx != nil && r.Ctx.Err() == nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushWait)
		if err := r.WriterQueue.Flush(ctx); err != nil {
			slog.Warn("flush activity journal", "error", err)
		}
		cancel()
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.Bus != nil {
		r.Bus.Close()
		r.Bus = nil
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		r.DB = nil
	}
	if r.lock != nil {
		if err := r.lock.Release(); err != nil {
			errs = append(errs, err)
		}
		r.lock = nil
	}
	if r.LogManager != nil {
		if err := r.LogManager.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.Session = nil

	return errors.Join(errs...)
}
