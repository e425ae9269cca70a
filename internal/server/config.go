package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/config"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"gopkg.in/yaml.v3"
)

// DefaultRequestTimeout bounds a single underwriting request, Monte Carlo
// included.
const DefaultRequestTimeout = 60 * time.Second

// DefaultMaxDraws caps the simulation size a single request may ask for.
const DefaultMaxDraws = 20000

// Config is the serve command's YAML file. Sizes accept humanized units
// ("256KiB", "2MB"); durations use Go syntax ("45s").
type Config struct {
	Address        string                `yaml:"address"`
	MaxUploadSize  string                `yaml:"maxUploadSize"`
	RequestTimeout string                `yaml:"requestTimeout"`
	MaxDraws       int                   `yaml:"maxDraws"`
	Workers        int                   `yaml:"workers"`
	Logging        config.LoggingConfig  `yaml:"logging"`
	Recorder       config.RecorderConfig `yaml:"recorder"`

	uploadBytes int64
	timeout     time.Duration
}

// LoadConfig reads the server configuration at path. A missing file or an
// empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.MaxDraws < 0 {
		return fmt.Errorf("maxDraws must be non-negative, got %d", c.MaxDraws)
	}
	if c.MaxDraws == 0 {
		c.MaxDraws = DefaultMaxDraws
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}

	c.timeout = DefaultRequestTimeout
	if raw := strings.TrimSpace(c.RequestTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid requestTimeout %q: %w", c.RequestTimeout, err)
		}
		if d > 0 {
			c.timeout = d
		}
	}

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	c.uploadBytes = size
	c.MaxUploadSize = humanize.IBytes(uint64(size))
	return nil
}

// UploadSizeBytes is the largest configuration document the API accepts.
func (c *Config) UploadSizeBytes() int64 {
	if c.uploadBytes <= 0 {
		return constants.DefaultMaxUploadSizeBytes
	}
	return c.uploadBytes
}

// SetUploadSizeBytes overrides the upload limit; non-positive sizes are ignored.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadBytes = size
		c.MaxUploadSize = humanize.IBytes(uint64(size))
	}
}

// Timeout returns the per-request deadline.
func (c *Config) Timeout() time.Duration {
	if c.timeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.timeout
}

// ParseSize converts a humanized byte count into bytes. An empty value is
// the default upload limit; a zero size is rejected.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}
	n, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	if n == 0 || n > 1<<40 {
		return 0, fmt.Errorf("size %q is out of range", value)
	}
	return int64(n), nil
}
