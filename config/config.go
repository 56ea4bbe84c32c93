// Package config loads the calculon.toml settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml"
	"github.com/thiremani/calculon/jit"
	"github.com/thiremani/calculon/logging"
	"github.com/thiremani/calculon/types"
)

// FileName is the settings file searched for in the working directory.
const FileName = "calculon.toml"

const (
	CacheEnv = "CALCULON_CACHE"
	RealEnv  = "CALCULON_REAL"
)

// Config is the settings file as it is encoded in TOML.
type Config struct {
	Real            string `toml:"real"`
	OptLevel        int    `toml:"opt_level"`
	InlineThreshold int    `toml:"inline_threshold"`
	CacheDir        string `toml:"cache_dir,omitempty"`
	LogLevel        string `toml:"log_level"`
}

func Default() *Config {
	return &Config{
		Real:            types.F64.String(),
		OptLevel:        jit.DefaultOptLevel,
		InlineThreshold: jit.DefaultInlineThreshold,
		LogLevel:        logging.LevelVerbose.String(),
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set. Environment overrides are applied last.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()
	buff, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.merge(buff); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if env := os.Getenv(RealEnv); env != "" {
		cfg.Real = env
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// merge overwrites only the keys present in the TOML document.
func (c *Config) merge(buff []byte) error {
	tree, err := toml.LoadBytes(buff)
	if err != nil {
		return err
	}
	var file Config
	if err := tree.Unmarshal(&file); err != nil {
		return err
	}

	if tree.Has("real") {
		c.Real = file.Real
	}
	if tree.Has("opt_level") {
		c.OptLevel = file.OptLevel
	}
	if tree.Has("inline_threshold") {
		c.InlineThreshold = file.InlineThreshold
	}
	if tree.Has("cache_dir") {
		c.CacheDir = file.CacheDir
	}
	if tree.Has("log_level") {
		c.LogLevel = file.LogLevel
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := types.ParseRealWidth(c.Real); err != nil {
		return err
	}
	if c.OptLevel < 0 || c.OptLevel > 3 {
		return fmt.Errorf("opt_level must be between 0 and 3, got %d", c.OptLevel)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Save writes the settings to path with the TOML encoder.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// Width is the configured real width. It assumes a validated config.
func (c *Config) Width() types.RealWidth {
	w, _ := types.ParseRealWidth(c.Real)
	return w
}

// Level is the configured log level. It assumes a validated config.
func (c *Config) Level() logging.Level {
	l, _ := logging.ParseLevel(c.LogLevel)
	return l
}

// JITOptions converts the settings into compilation options.
func (c *Config) JITOptions() []jit.Option {
	return []jit.Option{
		jit.WithRealType(c.Width()),
		jit.WithOptLevel(c.OptLevel),
		jit.WithInlineThreshold(c.InlineThreshold),
	}
}

// Cache returns the configured cache directory, falling back to
// DefaultCacheDir.
func (c *Config) Cache() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return DefaultCacheDir()
}

// DefaultCacheDir gets env variable CALCULON_CACHE
// if it is not set returns the default for windows, mac, linux
func DefaultCacheDir() string {
	if env := os.Getenv(CacheEnv); env != "" {
		return env
	}

	homeDir, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "calculon")
		}
		return filepath.Join(homeDir, "AppData", "Local", "calculon")

	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "calculon")

	default: // Linux and others
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "calculon")
		}
		return filepath.Join(homeDir, ".cache", "calculon")
	}
}
