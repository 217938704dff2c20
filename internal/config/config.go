// Package config loads the picvault configuration file. Settings are
// TOML; every field has a sensible default so a missing file is not an
// error.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"Picvault/internal/errors"
)

// EnvConfigPath overrides the default config file location when set.
const EnvConfigPath = "PICVAULT_CONFIG"

// Config holds the user-tunable settings.
type Config struct {
	// VaultDir is the directory holding encrypted containers and the
	// order manifest.
	VaultDir string `toml:"vault_dir"`

	// KeyFile is the path of the key file.
	KeyFile string `toml:"key_file"`

	// KeyBits is the key strength used when generating a new key.
	KeyBits int `toml:"key_bits"`

	// ThumbnailWidth and ThumbnailHeight set the size of generated
	// thumbnails in pixels.
	ThumbnailWidth  int `toml:"thumbnail_width"`
	ThumbnailHeight int `toml:"thumbnail_height"`

	// LockTimeout treats the next Lock call as timeout-driven when true.
	// Exists for scripting; the CLI passes the flag explicitly.
	LockTimeout bool `toml:"lock_timeout"`

	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`
}

// Default returns the configuration used when no file is present. Paths
// are anchored under the user home directory when it can be resolved.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		VaultDir:        filepath.Join(home, ".picvault", "pictures"),
		KeyFile:         filepath.Join(home, ".picvault", "key"),
		KeyBits:         0, // 0 selects the crypto package default
		ThumbnailWidth:  128,
		ThumbnailHeight: 128,
	}
}

// DefaultPath returns the config file location, honoring EnvConfigPath.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".picvault", "config.toml")
}

// Load reads the config file at path, or the default path when path is
// empty. A missing file yields Default(); a malformed file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.NewFileError("parse", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.NewFileError("parse", path,
			errors.New("unknown setting "+undecoded[0].String()))
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.NewFileError("mkdir", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.NewFileError("create", path, err)
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(c); err != nil {
		f.Close()
		return errors.NewFileError("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewFileError("close", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	def := Default()
	if c.VaultDir == "" {
		c.VaultDir = def.VaultDir
	}
	if c.KeyFile == "" {
		c.KeyFile = def.KeyFile
	}
	if c.ThumbnailWidth <= 0 {
		c.ThumbnailWidth = def.ThumbnailWidth
	}
	if c.ThumbnailHeight <= 0 {
		c.ThumbnailHeight = def.ThumbnailHeight
	}
	if c.KeyBits < 0 {
		c.KeyBits = 0
	}
}
