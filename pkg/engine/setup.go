package engine

import (
	"context"
	"fmt"

	"shahin-hq/mizan/pkg/config"
	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/rules"
	"shahin-hq/mizan/pkg/decision/storage"
)

// Setup holds an engine assembled from configuration together with the
// resources it owns.
type Setup struct {
	// Engine is the assembled pipeline.
	Engine *Engine

	// Storage is the backend the engine writes to.
	Storage decision.Storage

	// Watcher is the rules hot-reload watcher, nil unless rules.watch is
	// enabled.
	Watcher *rules.Watcher
}

// FromConfig assembles an engine from a validated configuration: opens the
// storage backend, loads the rule set, and prepares the watcher when hot
// reload is enabled. Engine options (observer, recorder, logger) pass
// through unchanged.
func FromConfig(cfg *config.Config, opts ...Option) (*Setup, error) {
	store, err := openStorage(&cfg.Storage)
	if err != nil {
		return nil, err
	}

	set, source, err := loadRules(&cfg.Rules)
	if err != nil {
		closeStorage(store)
		return nil, err
	}

	eng := New(store, set, opts...)

	setup := &Setup{
		Engine:  eng,
		Storage: store,
	}

	if cfg.Rules.Watch && source != nil {
		watcher, err := rules.NewWatcher(source, cfg.Rules.DebounceInterval)
		if err != nil {
			closeStorage(store)
			return nil, fmt.Errorf("create rules watcher: %w", err)
		}
		setup.Watcher = watcher
	}

	return setup, nil
}

// Watch runs the rules watcher until the context is cancelled, swapping
// reloaded sets into the engine. It is a no-op when watching is disabled.
func (s *Setup) Watch(ctx context.Context, onError func(error)) error {
	if s.Watcher == nil {
		return nil
	}
	return s.Watcher.Watch(ctx, s.Engine.SetRuleSet, onError)
}

// Close releases the setup's resources.
func (s *Setup) Close() error {
	var firstErr error
	if s.Watcher != nil {
		if err := s.Watcher.Stop(); err != nil {
			firstErr = err
		}
	}
	if err := closeStorage(s.Storage); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// openStorage opens the configured storage backend.
func openStorage(cfg *config.StorageConfig) (decision.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		return storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// loadRules loads the configured rule set. The returned source is nil for
// the builtin set, which cannot be watched.
func loadRules(cfg *config.RulesConfig) (*rules.RuleSet, *rules.FileSource, error) {
	switch cfg.Source {
	case "builtin":
		set, err := rules.Builtin()
		if err != nil {
			return nil, nil, err
		}
		return set, nil, nil
	case "file":
		source := rules.NewFileSource(cfg.Path)
		set, err := source.Load()
		if err != nil {
			return nil, nil, err
		}
		return set, source, nil
	default:
		return nil, nil, fmt.Errorf("unknown rules source %q", cfg.Source)
	}
}

// closeStorage closes backends that hold external resources.
func closeStorage(store decision.Storage) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
