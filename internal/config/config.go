package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	appName    = "hybrid"
	configFile = "config.json"
)

// Duration is a time.Duration that reads and writes as "30s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	StartURL          string   `json:"start_url"`
	SnapshotDir       string   `json:"snapshot_dir"`
	SnapshotCacheSize int      `json:"snapshot_cache_size"`
	SnapshotTTL       Duration `json:"snapshot_ttl"`
	UserAgent         string   `json:"user_agent"`
	LoadTimeout       Duration `json:"load_timeout"`
	ShowErrorDisplay  bool     `json:"show_error_display"`
	FeatureName       string   `json:"feature_name"`
	AppVersion        string   `json:"app_version"`
	Device            string   `json:"device"`
	HideBackOnClear   bool     `json:"hide_back_on_clear"`
	DialogDismiss     string   `json:"dialog_dismiss"`
	WindowWidth       int      `json:"window_width"`
	WindowHeight      int      `json:"window_height"`
	Debug             bool     `json:"debug"`
	ListenAddr        string   `json:"listen_addr"`
}

// Default returns the configuration written on first run. appDir holds the
// snapshot database.
func Default(appDir string) Config {
	return Config{
		SnapshotDir:       filepath.Join(appDir, "snapshots"),
		SnapshotCacheSize: 32,
		SnapshotTTL:       Duration(24 * time.Hour),
		LoadTimeout:       Duration(30 * time.Second),
		ShowErrorDisplay:  true,
		AppVersion:        "1.0.0",
		Device:            "desktop",
		HideBackOnClear:   true,
		DialogDismiss:     "silent",
		WindowWidth:       1040,
		WindowHeight:      768,
		ListenAddr:        "127.0.0.1:0",
	}
}

func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(configDir, appName))
}

// LoadFrom reads appDir/config.json, generating it with defaults when it
// does not exist, and applies environment overrides.
func LoadFrom(appDir string) (*Config, error) {
	path := filepath.Join(appDir, configFile)
	cfg := Default(appDir)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(appDir, 0700); err != nil {
			return nil, err
		}
		out, _ := json.MarshalIndent(cfg, "", "  ")
		if err := os.WriteFile(path, out, 0600); err != nil {
			return nil, err
		}
		log.Printf("Generated new config at: %s", path)
	default:
		return nil, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	return &cfg, nil
}

// envOverrides are read from HYBRID_* variables. Unset variables stay nil.
type envOverrides struct {
	StartURL      *string `envconfig:"START_URL"`
	SnapshotDir   *string `envconfig:"SNAPSHOT_DIR"`
	UserAgent     *string `envconfig:"USER_AGENT"`
	Debug         *bool   `envconfig:"DEBUG"`
	DialogDismiss *string `envconfig:"DIALOG_DISMISS"`
	ListenAddr    *string `envconfig:"LISTEN_ADDR"`
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("HYBRID", &env); err != nil {
		return err
	}

	set := func(dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
		}
	}
	set(&cfg.StartURL, env.StartURL)
	set(&cfg.SnapshotDir, env.SnapshotDir)
	set(&cfg.UserAgent, env.UserAgent)
	set(&cfg.DialogDismiss, env.DialogDismiss)
	set(&cfg.ListenAddr, env.ListenAddr)
	if env.Debug != nil {
		cfg.Debug = *env.Debug
	}
	return nil
}
