package config

import (
	"fmt"
	"log/slog"
	"sync"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/routing"
)

// Store is the thread-safe holder of the current configuration.
//
// It keeps the configuration as read from disk apart from the effective
// configuration (with environment overrides), so that saving after a
// channel edit never persists values that came from the environment.
// Store implements routing.Source.
type Store struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	file      *Config
	effective *Config
	registry  *channels.Registry
}

// Open loads the configuration at path, creating it with defaults when
// missing, and returns a Store backed by that file.
func Open(path string, logger *slog.Logger) (*Store, error) {
	cfg, err := LoadOrInit(path)
	if err != nil {
		return nil, err
	}
	return NewStore(path, cfg, logger)
}

// NewStore returns a Store holding cfg, persisting changes to path.
func NewStore(path string, cfg *Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{path: path, logger: logger}
	if err := s.set(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// set installs cfg as the file configuration. Caller holds mu or owns s.
func (s *Store) set(cfg *Config) error {
	effective, err := withEnvOverrides(cfg)
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("failed to build channel registry: %w", err)
	}

	s.file = cfg.Clone()
	s.effective = effective
	s.registry = registry
	return nil
}

// SetLogger replaces the store's logger, typically once logging has been
// configured from the loaded file.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Config returns a copy of the effective configuration.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effective.Clone()
}

// Snapshot returns an independent copy of the channel registry together
// with the routing settings. Later edits do not affect the snapshot.
func (s *Store) Snapshot() (*channels.Registry, routing.Settings) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Clone(), s.effective.Settings()
}

// Channels returns every channel, including disabled ones, in priority order.
func (s *Store) Channels() []channels.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.All()
}

// AddChannel inserts ch and persists the configuration.
func (s *Store) AddChannel(ch channels.Channel) error {
	return s.edit(func(reg *channels.Registry) error {
		return reg.Insert(ch)
	})
}

// UpdateChannel applies mutate to the named channel and persists the configuration.
func (s *Store) UpdateChannel(name string, mutate func(*channels.Channel)) error {
	return s.edit(func(reg *channels.Registry) error {
		return reg.Update(name, mutate)
	})
}

// RemoveChannel deletes the named channel and persists the configuration.
func (s *Store) RemoveChannel(name string) error {
	return s.edit(func(reg *channels.Registry) error {
		return reg.Remove(name)
	})
}

// edit applies change to a copy of the registry, saves the result, and
// only then makes it current. Nothing changes when either step fails.
func (s *Store) edit(change func(*channels.Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry := s.registry.Clone()
	if err := change(registry); err != nil {
		return err
	}

	file := s.file.Clone()
	file.SetChannels(registry.All())
	if err := Save(s.path, file); err != nil {
		return err
	}

	effective := s.effective.Clone()
	effective.Channels = file.Channels

	s.file = file
	s.effective = effective
	s.registry = registry

	s.logger.Debug("configuration saved", "path", s.path, "channels", registry.Len())
	return nil
}

// Reload re-reads the backing file. On failure the current configuration
// is kept and the error returned.
func (s *Store) Reload() error {
	cfg, err := LoadConfig(s.path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.set(cfg); err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	s.logger.Info("configuration reloaded", "path", s.path, "channels", s.registry.Len())
	return nil
}
