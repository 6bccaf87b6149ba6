// Package config holds the process settings: API key, cache location and the
// CensusMapper endpoint. Values resolve in the order session setter,
// environment (CANCENSUS_*), persisted key store, default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/ougirez/cancensus/internal/pkg/constants"
)

type Settings struct {
	mu sync.RWMutex
	v  *viper.Viper

	// session overrides; unlike viper.Set these can be cleared again
	apiKey    string
	cachePath string

	keyStorePath string
	storedKey    string
}

type Option func(*Settings)

// WithKeyStore overrides the persisted key store location.
func WithKeyStore(path string) Option {
	return func(s *Settings) {
		s.keyStorePath = path
	}
}

// WithViper uses v instead of a fresh instance, so cobra flags bound to v
// take part in resolution.
func WithViper(v *viper.Viper) Option {
	return func(s *Settings) {
		s.v = v
	}
}

func New(opts ...Option) (*Settings, error) {
	s := &Settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.v == nil {
		s.v = viper.New()
	}
	if s.keyStorePath == "" {
		s.keyStorePath = defaultKeyStorePath()
	}

	s.v.SetEnvPrefix(constants.ViperEnvPrefix)
	s.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range []string{
		constants.ViperAPIKey,
		constants.ViperCachePath,
		constants.ViperBaseURL,
		constants.ViperTimeout,
		constants.ViperSecretKey,
		constants.ViperLogLevel,
		constants.ViperDatabaseDSN,
	} {
		if err := s.v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("viper.BindEnv %s: %w", key, err)
		}
	}

	s.v.SetDefault(constants.ViperCachePath, defaultCachePath())
	s.v.SetDefault(constants.ViperBaseURL, constants.DefaultBaseURL)
	s.v.SetDefault(constants.ViperTimeout, constants.DefaultTimeout)
	s.v.SetDefault(constants.ViperLogLevel, "info")

	if err := s.loadKeyStore(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) loadKeyStore() error {
	store, err := s.readKeyStore()
	if err != nil {
		return err
	}
	s.storedKey = strings.TrimSpace(store.GetString(constants.ViperAPIKey))
	return nil
}

func (s *Settings) readKeyStore() (*viper.Viper, error) {
	store := viper.New()
	store.SetConfigFile(s.keyStorePath)
	store.SetConfigType("json")
	if err := store.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read key store %s: %w", s.keyStorePath, err)
	}
	return store, nil
}

// APIKey returns the configured key or "" when none is set.
func (s *Settings) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.apiKey != "" {
		return s.apiKey
	}
	if key := strings.TrimSpace(s.v.GetString(constants.ViperAPIKey)); key != "" {
		return key
	}
	return s.storedKey
}

// SetAPIKey sets the key for this process; with persist it is also written
// to the key store so later processes pick it up.
func (s *Settings) SetAPIKey(key string, persist bool) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty API key", constants.ErrInvalidParameter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.apiKey = key
	if !persist {
		return nil
	}
	if err := s.writeKeyStore(func(values map[string]any) {
		values[constants.ViperAPIKey] = key
	}); err != nil {
		return err
	}
	s.storedKey = key
	return nil
}

// RemoveAPIKey clears the session key and deletes it from the key store.
func (s *Settings) RemoveAPIKey() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apiKey = ""
	s.storedKey = ""
	if _, err := os.Stat(s.keyStorePath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return s.writeKeyStore(func(values map[string]any) {
		delete(values, constants.ViperAPIKey)
	})
}

func (s *Settings) writeKeyStore(mutate func(map[string]any)) error {
	store, err := s.readKeyStore()
	if err != nil {
		return err
	}

	values := store.AllSettings()
	mutate(values)

	fresh := viper.New()
	fresh.SetConfigType("json")
	for k, val := range values {
		fresh.Set(k, val)
	}

	if err := os.MkdirAll(filepath.Dir(s.keyStorePath), 0o700); err != nil {
		return fmt.Errorf("create key store dir: %w", err)
	}
	if err := fresh.WriteConfigAs(s.keyStorePath); err != nil {
		return fmt.Errorf("write key store: %w", err)
	}
	return nil
}

func (s *Settings) KeyStorePath() string {
	return s.keyStorePath
}

func (s *Settings) CachePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cachePath != "" {
		return s.cachePath
	}
	return s.v.GetString(constants.ViperCachePath)
}

// SetCachePath points the cache at path, creating the directory.
func (s *Settings) SetCachePath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve cache path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create cache path: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachePath = abs
	return nil
}

// ClearCachePath reverts to the environment or default location.
func (s *Settings) ClearCachePath() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachePath = ""
}

func (s *Settings) BaseURL() string {
	u := s.v.GetString(constants.ViperBaseURL)
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

func (s *Settings) Timeout() time.Duration {
	if d := s.v.GetDuration(constants.ViperTimeout); d > 0 {
		return d
	}
	return constants.DefaultTimeout
}

func (s *Settings) AdminSecret() string {
	return s.v.GetString(constants.ViperSecretKey)
}

func (s *Settings) LogLevel() string {
	return s.v.GetString(constants.ViperLogLevel)
}

func (s *Settings) DatabaseDSN() string {
	return s.v.GetString(constants.ViperDatabaseDSN)
}

// Viper exposes the underlying instance for flag binding.
func (s *Settings) Viper() *viper.Viper {
	return s.v
}

func defaultKeyStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, constants.AppDirName, constants.KeyStoreFile)
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, constants.AppDirName)
}
