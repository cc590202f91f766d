// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the session token and profile go to
// the session store (OS keychain by default).
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clinicare/cli/internal/xdg"
)

// Defaults applied when the config file or a field is missing.
const (
	DefaultAPIBase  = "http://localhost:8000/api"
	DefaultStorage  = "keychain"
	DefaultLogLevel = "warn"
	DefaultOutput   = "table"
	DefaultTimeout  = 10 * time.Second
)

// Config holds non-sensitive CLI settings.
type Config struct {
	APIBase  string `json:"api_base"`
	Storage  string `json:"storage"`
	LogLevel string `json:"log_level"`
	Output   string `json:"output"`
	// Timeout is the per-request HTTP timeout, e.g. "10s".
	Timeout Duration `json:"timeout"`
}

// Duration is a time.Duration that reads and writes as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBase:  DefaultAPIBase,
		Storage:  DefaultStorage,
		LogLevel: DefaultLogLevel,
		Output:   DefaultOutput,
		Timeout:  Duration(DefaultTimeout),
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults. Environment
// variables CLINICARE_API_BASE, CLINICARE_STORAGE and CLINICARE_LOG_LEVEL
// override the file.
func Load() (Config, error) {
	c := Default()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, err
	}
	if err == nil {
		if err := json.Unmarshal(data, &c); err != nil {
			return c, err
		}
	}
	c.applyEnv()
	c.fillDefaults()
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CLINICARE_API_BASE")); v != "" {
		c.APIBase = v
	}
	if v := strings.TrimSpace(os.Getenv("CLINICARE_STORAGE")); v != "" {
		c.Storage = v
	}
	if v := strings.TrimSpace(os.Getenv("CLINICARE_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if strings.TrimSpace(c.APIBase) == "" {
		c.APIBase = d.APIBase
	}
	c.APIBase = strings.TrimRight(c.APIBase, "/")
	if c.Storage == "" {
		c.Storage = d.Storage
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Output == "" {
		c.Output = d.Output
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
}
