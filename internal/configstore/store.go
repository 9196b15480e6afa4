package configstore

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/sut-config/internal/storage"
)

const (
	// DefaultPlatformEnv is the environment variable that overrides the stored platform.
	DefaultPlatformEnv = "SUT.platform"

	platformInfoSection   = "Platform Info"
	platformInfoOption    = "platform"
	platformSectionPrefix = "Platform."
	defaultPlatform       = "Default"
)

// Store implements ConfigStore on top of a storage.Storage.
type Store struct {
	paths       Paths
	storage     storage.Storage
	logger      *zap.Logger
	getenv      func(string) string
	platformEnv string
	cache       *documentCache
}

// Option configures Store behaviour.
type Option func(*Store)

// WithStorage replaces the filesystem storage, primarily for tests.
func WithStorage(st storage.Storage) Option {
	return func(s *Store) {
		s.storage = st
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithEnvLookup overrides how environment variables are read.
func WithEnvLookup(getenv func(string) string) Option {
	return func(s *Store) {
		s.getenv = getenv
	}
}

// WithPlatformEnv changes the name of the platform override variable.
func WithPlatformEnv(name string) Option {
	return func(s *Store) {
		s.platformEnv = name
	}
}

// WithCacheTTL lets reads reuse a parsed file for ttl. Zero re-reads the file
// on every call.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.cache.ttl = ttl
	}
}

// WithClock overrides the time source used by the cache.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.cache.clock = clock
	}
}

// New constructs a Store for the given candidate paths.
func New(paths Paths, opts ...Option) *Store {
	s := &Store{
		paths:       paths,
		storage:     storage.NewFileStorage(),
		logger:      zap.NewNop(),
		getenv:      os.Getenv,
		platformEnv: DefaultPlatformEnv,
		cache:       newDocumentCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolvePath returns the override path if it exists, otherwise the default path.
func (s *Store) ResolvePath() string {
	if s.storage.Exists(s.paths.Override) {
		return s.paths.Override
	}
	return s.paths.Default
}

// SetValue writes value into section/option and persists the whole file. The
// section must already exist; unknown options are created.
func (s *Store) SetValue(section, option, value string) error {
	path := s.ResolvePath()
	if section == "" || option == "" || value == "" || path == "" {
		s.logger.Error("set value: invalid input",
			zap.String("section", section),
			zap.String("option", option),
			zap.String("value", value),
			zap.String("path", path),
		)
		return ErrInvalidInput
	}

	doc, err := s.storage.Load(path)
	if err != nil {
		s.logger.Error("set value: load failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrEnvFail, err)
	}

	if !doc.HasSection(section) {
		s.logger.Error("set value: section not found",
			zap.String("section", section),
			zap.String("path", path),
		)
		return fmt.Errorf("%w: section %q not found", ErrInvalidInput, section)
	}

	if err := doc.SetValue(section, option, value); err != nil {
		s.logger.Error("set value: update failed", zap.String("path", path), zap.Error(err))
		if errors.Is(err, storage.ErrUnencodable) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return fmt.Errorf("%w: %w", ErrEnvFail, err)
	}

	if err := s.storage.Save(path, doc); err != nil {
		s.cache.invalidate(path)
		s.logger.Error("set value: save failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrEnvFail, err)
	}
	s.cache.put(path, doc)

	s.logger.Debug("set value success",
		zap.String("section", section),
		zap.String("option", option),
		zap.String("path", path),
	)
	return nil
}

// GetValue returns the value stored under section/option. Unreadable files and
// missing keys both report ErrInvalidInput.
func (s *Store) GetValue(section, option string) (string, error) {
	path := s.ResolvePath()
	if section == "" || option == "" || path == "" {
		s.logger.Error("get value: invalid input",
			zap.String("section", section),
			zap.String("option", option),
			zap.String("path", path),
		)
		return "", ErrInvalidInput
	}

	doc, err := s.load(path)
	if err != nil {
		s.logger.Error("get value: load failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	value, ok := doc.Value(section, option)
	if !ok {
		s.logger.Debug("get value: option not found",
			zap.String("section", section),
			zap.String("option", option),
			zap.String("path", path),
		)
		return "", fmt.Errorf("%w: option %q not found in section %q", ErrInvalidInput, option, section)
	}
	return value, nil
}

// Platform returns the active platform name: the environment override, then
// [Platform Info] platform, then "Default".
func (s *Store) Platform() string {
	platform := s.getenv(s.platformEnv)
	if platform == "" {
		if value, err := s.GetValue(platformInfoSection, platformInfoOption); err == nil {
			platform = value
		}
	}
	if platform == "" {
		platform = defaultPlatform
	}
	return platform
}

// GetPlatformItem looks item up in [Platform.<platform>] and falls back to
// [Platform.Default] per item.
func (s *Store) GetPlatformItem(item string) (string, error) {
	_, value, err := s.PlatformItem(item)
	return value, err
}

// PlatformItem is GetPlatformItem that also reports the platform the lookup
// was resolved against.
func (s *Store) PlatformItem(item string) (string, string, error) {
	platform := s.Platform()
	s.logger.Debug("platform item lookup", zap.String("item", item), zap.String("platform", platform))

	value, err := s.GetValue(platformSectionPrefix+platform, item)
	if err == nil {
		return platform, value, nil
	}

	value, err = s.GetValue(platformSectionPrefix+defaultPlatform, item)
	s.logger.Debug("platform item fallback",
		zap.String("item", item),
		zap.Bool("found", err == nil),
	)
	return platform, value, err
}

func (s *Store) load(path string) (*storage.Document, error) {
	if doc, ok := s.cache.get(path); ok {
		return doc, nil
	}

	doc, err := s.storage.Load(path)
	if err != nil {
		return nil, err
	}
	s.cache.put(path, doc)
	return doc, nil
}
