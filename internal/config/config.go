package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"driveauth/internal/logger"
	"driveauth/internal/model"
	"driveauth/internal/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StorageBackend string

const (
	StorageSQLite  StorageBackend = "sqlite"
	StorageFile    StorageBackend = "file"
	StorageKeyring StorageBackend = "keyring"
	StorageMemory  StorageBackend = "memory"
)

type StorageConfig struct {
	Backend        StorageBackend `mapstructure:"backend" validate:"required,oneof=sqlite file keyring memory"`
	File           string         `mapstructure:"file"`
	KeyringService string         `mapstructure:"keyring_service"`
}

type ProvidersConfig struct {
	Google   model.ProviderConfig `mapstructure:"google"`
	Dropbox  model.ProviderConfig `mapstructure:"dropbox"`
	OneDrive model.ProviderConfig `mapstructure:"onedrive"`
}

// ByProvider returns the provider configurations that carry a client id.
func (p ProvidersConfig) ByProvider() map[model.Provider]model.ProviderConfig {
	all := map[model.Provider]model.ProviderConfig{
		model.ProviderGoogle:   p.Google,
		model.ProviderDropbox:  p.Dropbox,
		model.ProviderOneDrive: p.OneDrive,
	}

	out := make(map[model.Provider]model.ProviderConfig, len(all))
	for provider, cfg := range all {
		if cfg.ClientID != "" {
			out[provider] = cfg
		}
	}
	return out
}

type Config struct {
	DaemonPort int             `mapstructure:"daemon_port" validate:"min=1,max=65535"`
	DBPath     string          `mapstructure:"db_path" validate:"required"`
	Storage    StorageConfig   `mapstructure:"storage"`
	Providers  ProvidersConfig `mapstructure:"providers"`

	v *viper.Viper
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	return filepath.Join(home, ".driveauth"), nil
}

func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	return LoadFrom(dir)
}

// LoadFrom reads config.yaml in dir, falling back to defaults when the file
// does not exist. DRIVEAUTH_* environment variables override file values.
func LoadFrom(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v, dir)

	v.SetEnvPrefix("DRIVEAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("daemon_port", 9002)
	v.SetDefault("db_path", filepath.Join(dir, "driveauth.db"))

	v.SetDefault("storage.backend", string(StorageSQLite))
	v.SetDefault("storage.file", filepath.Join(dir, "tokens.json"))
	v.SetDefault("storage.keyring_service", "driveauth")

	for _, p := range model.Providers {
		v.SetDefault("providers."+p.String()+".client_id", "")
		v.SetDefault("providers."+p.String()+".client_secret", "")
	}

	v.SetDefault("providers.google.scopes", []string{"https://www.googleapis.com/auth/drive.file"})

	v.SetDefault("providers.dropbox.redirect_url", "http://localhost:9999/callback")
	v.SetDefault("providers.dropbox.scopes", []string{"files.content.read", "files.content.write"})
	v.SetDefault("providers.dropbox.additional_parameters", map[string]string{"token_access_type": "offline"})
	v.SetDefault("providers.dropbox.use_pkce", true)

	v.SetDefault("providers.onedrive.redirect_url", "http://localhost:9998/callback")
	v.SetDefault("providers.onedrive.scopes", []string{"Files.ReadWrite", "User.Read", "offline_access"})
	v.SetDefault("providers.onedrive.use_pkce", true)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.v = v

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.File == "" {
			return errors.New("storage.file required for file storage")
		}
	case StorageKeyring:
		if c.Storage.KeyringService == "" {
			return errors.New("storage.keyring_service required for keyring storage")
		}
	}

	return nil
}

// Watch calls onChange with the reloaded configuration whenever the config
// file changes. Invalid edits are logged and skipped.
func (c *Config) Watch(onChange func(*Config)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(c.v)
		if err != nil {
			logger.Log.Warn("ignoring config change",
				zap.String("file", e.Name),
				zap.Error(err))
			return
		}

		logger.Log.Info("config reloaded", zap.String("file", e.Name))
		onChange(cfg)
	})
	c.v.WatchConfig()
}

// NewStore creates the key-value store selected by the storage backend. db is
// required for the sqlite backend only.
func (s StorageConfig) NewStore(db *gorm.DB) (storage.Store, error) {
	switch s.Backend {
	case StorageSQLite:
		return storage.NewSQLiteStore(db)
	case StorageFile:
		return storage.NewFileStore(s.File)
	case StorageKeyring:
		return storage.NewKeyringStore(s.KeyringService)
	case StorageMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", s.Backend)
	}
}
