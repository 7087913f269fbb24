// Package localstore keeps the terminal client's tasks, settings and session
// history on disk, one JSON document per key.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const (
	KeyTasks          = "honquedoro-tasks"
	KeySettings       = "honquedoro-settings"
	KeySessionHistory = "honquedoro-session-history"
)

var allKeys = []string{KeyTasks, KeySettings, KeySessionHistory}

type Store struct {
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
}

func New(dir string, logger zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "localstore").Logger(),
	}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// readLocked decodes key into dest. A missing or corrupted file reports
// false; a corrupted file is removed.
func (s *Store) readLocked(key string, dest any) bool {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to read local data")
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Removing corrupted local data")
		if rmErr := os.Remove(s.path(key)); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Error().Err(rmErr).Str("key", key).Msg("Failed to remove corrupted local data")
		}
		return false
	}
	return true
}

func (s *Store) writeLocked(key string, value any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to create data dir")
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to encode local data")
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	tmpFile, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to write local data")
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if closeErr := tmpFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to write local data")
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(name, s.path(key)); err != nil {
		os.Remove(name)
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to write local data")
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (s *Store) removeLocked(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to remove local data")
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Has reports whether key holds saved data.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// ClearAll removes every key the client owns.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, key := range allKeys {
		if err := s.removeLocked(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) Settings() (AppSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := DefaultAppSettings()
	if !s.readLocked(KeySettings, &settings) {
		return DefaultAppSettings(), false
	}
	if err := settings.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("Ignoring invalid saved settings")
		return DefaultAppSettings(), false
	}
	return settings, true
}

func (s *Store) SaveSettings(settings AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(KeySettings, settings)
}

func (s *Store) Sessions() []SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionsLocked()
}

func (s *Store) sessionsLocked() []SessionRecord {
	var sessions []SessionRecord
	if !s.readLocked(KeySessionHistory, &sessions) || sessions == nil {
		return []SessionRecord{}
	}
	return sessions
}

// AddSession records a finished interval, newest first.
func (s *Store) AddSession(record SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := append([]SessionRecord{record}, s.sessionsLocked()...)
	return s.writeLocked(KeySessionHistory, sessions)
}

func (s *Store) SaveSessions(sessions []SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessions == nil {
		sessions = []SessionRecord{}
	}
	return s.writeLocked(KeySessionHistory, sessions)
}

func (s *Store) ClearSessions() error {
	return s.SaveSessions(nil)
}
