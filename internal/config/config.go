// Package config loads settings from the environment, an optional .env file
// and command line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/damacus/iron-browse/internal/services"
)

// Keys understood by Load; each is also read from the environment
const (
	KeyEndpoint        = "MINIO_ENDPOINT"
	KeyAccessKey       = "MINIO_ACCESS_KEY"
	KeySecretKey       = "MINIO_SECRET_KEY"
	KeySessionToken    = "MINIO_SESSION_TOKEN"
	KeyRegion          = "MINIO_REGION"
	KeyUseSSL          = "MINIO_USE_SSL"
	KeyDownloadDir     = "DOWNLOAD_DIR"
	KeyDownloadWorkers = "DOWNLOAD_WORKERS"
	KeyListTimeout     = "LIST_TIMEOUT"
	KeyMetadataTimeout = "METADATA_TIMEOUT"
	KeyLogLevel        = "LOG_LEVEL"
	KeyLogFile         = "LOG_FILE"
)

type Config struct {
	Storage  StorageConfig
	Download DownloadConfig
	Timeouts TimeoutConfig
	Log      LogConfig
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	// UseSSL is nil when TLS should be derived from the endpoint
	UseSSL *bool
}

type DownloadConfig struct {
	Dir     string
	Workers int
}

type TimeoutConfig struct {
	List     time.Duration
	Metadata time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

// Credentials converts the storage section for the client factory
func (c StorageConfig) Credentials() services.Credentials {
	return services.Credentials{
		Endpoint:     c.Endpoint,
		AccessKey:    c.AccessKey,
		SecretKey:    c.SecretKey,
		SessionToken: c.SessionToken,
		Region:       c.Region,
		UseSSL:       c.UseSSL,
	}
}

// Load reads envFile (ignored when missing) and the environment, then
// applies overrides keyed by the Key* constants
func Load(envFile string, overrides map[string]any) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetDefault(KeyEndpoint, "localhost:9000")
	v.SetDefault(KeyRegion, "")
	v.SetDefault(KeyUseSSL, "")
	v.SetDefault(KeyDownloadDir, defaultDownloadDir())
	v.SetDefault(KeyDownloadWorkers, 4)
	v.SetDefault(KeyListTimeout, "30s")
	v.SetDefault(KeyMetadataTimeout, "15s")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, defaultLogFile())
	v.AutomaticEnv()

	for k, val := range overrides {
		v.Set(k, val)
	}

	cfg := &Config{
		Storage: StorageConfig{
			Endpoint:     v.GetString(KeyEndpoint),
			AccessKey:    v.GetString(KeyAccessKey),
			SecretKey:    v.GetString(KeySecretKey),
			SessionToken: v.GetString(KeySessionToken),
			Region:       v.GetString(KeyRegion),
		},
		Download: DownloadConfig{
			Dir:     expandHome(v.GetString(KeyDownloadDir)),
			Workers: v.GetInt(KeyDownloadWorkers),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString(KeyLogLevel)),
			File:  expandHome(v.GetString(KeyLogFile)),
		},
	}

	if raw := strings.TrimSpace(v.GetString(KeyUseSSL)); raw != "" && !strings.EqualFold(raw, "auto") {
		useSSL, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeyUseSSL, err)
		}
		cfg.Storage.UseSSL = &useSSL
	}

	var err error
	if cfg.Timeouts.List, err = duration(v, KeyListTimeout); err != nil {
		return nil, err
	}
	if cfg.Timeouts.Metadata, err = duration(v, KeyMetadataTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first setting that prevents a session from starting
func (c *Config) Validate() error {
	switch {
	case c.Storage.Endpoint == "":
		return fmt.Errorf("%s is required", KeyEndpoint)
	case c.Storage.AccessKey == "" || c.Storage.SecretKey == "":
		return fmt.Errorf("%s and %s are required", KeyAccessKey, KeySecretKey)
	case c.Timeouts.List <= 0:
		return fmt.Errorf("%s must be positive", KeyListTimeout)
	case c.Timeouts.Metadata <= 0:
		return fmt.Errorf("%s must be positive", KeyMetadataTimeout)
	case c.Download.Workers < 1 || c.Download.Workers > 32:
		return fmt.Errorf("%s must be between 1 and 32", KeyDownloadWorkers)
	}
	return nil
}

// duration accepts Go durations ("30s") or plain seconds ("30")
func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	dir := filepath.Join(home, "Downloads")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return "."
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "ironbrowse.log"
	}
	return filepath.Join(dir, "ironbrowse", "ironbrowse.log")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
