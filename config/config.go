package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/errm"
)

// Config is the root configuration structure.
type Config struct {
	History HistoryConfig `json:"history" yaml:"history"`
	Source  SourceConfig  `json:"source" yaml:"source"`
	Bugfix  BugfixConfig  `json:"bugfix" yaml:"bugfix"`
	Output  OutputConfig  `json:"output" yaml:"output"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Batch   BatchConfig   `json:"batch" yaml:"batch"`
}

// HistoryConfig holds revision walk configuration.
type HistoryConfig struct {
	Ref               string        `json:"ref" yaml:"ref" env:"FILEHISTORY_REF"`                                     // Default: "HEAD"
	Order             string        `json:"order" yaml:"order" env:"FILEHISTORY_ORDER"`                               // date or topo
	CancelCheckStride int           `json:"cancelCheckStride" yaml:"cancelCheckStride" env:"FILEHISTORY_CHECK_STRIDE"` // Default: 64
	Timeout           Duration      `json:"timeout" yaml:"timeout" env:"FILEHISTORY_TIMEOUT"`                         // e.g. "30s"; 0 disables the deadline
	MaxResults        int           `json:"maxResults" yaml:"maxResults" env:"FILEHISTORY_MAX_RESULTS"`               // 0 means unbounded
	Exclude           []string      `json:"exclude" yaml:"exclude" env:"FILEHISTORY_EXCLUDE" env-separator:","`
}

// Duration is a time.Duration written as a Go duration string ("30s", "2m")
// in files and environment variables. Bare integers are nanoseconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText encodes d as a duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a duration string or a nanosecond count.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(bytes.TrimSpace(text))
	if s == "" {
		*d = 0
		return nil
	}
	if v, err := time.ParseDuration(s); err == nil {
		*d = Duration(v)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q (expected e.g. 30s or 2m)", s)
	}
	*d = Duration(n)
	return nil
}

// UnmarshalJSON accepts a duration string or a nanosecond number.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("invalid duration %s", data)
		}
		return d.UnmarshalText([]byte(s))
	}
	return d.UnmarshalText(data)
}

// SourceConfig selects the Commit Source backend.
type SourceConfig struct {
	Backend string `json:"backend" yaml:"backend" env:"FILEHISTORY_BACKEND"` // go-git or cli
}

// BugfixConfig holds bugfix detection configuration.
type BugfixConfig struct {
	Patterns []string `json:"patterns" yaml:"patterns"` // Regex patterns for bugfix commit detection
}

// OutputConfig holds report defaults.
type OutputConfig struct {
	Format     string `json:"format" yaml:"format" env:"FILEHISTORY_FORMAT"`
	Top        int    `json:"top" yaml:"top" env:"FILEHISTORY_TOP"`
	DateLayout string `json:"dateLayout" yaml:"dateLayout" env:"FILEHISTORY_DATE_LAYOUT"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `json:"level" yaml:"level" env:"FILEHISTORY_LOG_LEVEL"` // debug, info, warn or error
}

// BatchConfig holds concurrent history construction options.
type BatchConfig struct {
	Workers int `json:"workers" yaml:"workers" env:"FILEHISTORY_WORKERS"` // Default: 4
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			Ref:               "HEAD",
			Order:             "date",
			CancelCheckStride: 64,
			Exclude:           []string{},
		},
		Source: SourceConfig{
			Backend: "go-git",
		},
		Bugfix: BugfixConfig{
			Patterns: []string{
				`\bfix(ed|es)?\b`,
				`\bbug\b`,
				`\bhotfix\b`,
				`\bpatch\b`,
			},
		},
		Output: OutputConfig{
			Format:     "console",
			DateLayout: "2006-01-02 15:04",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// configNames are the file names searched in the working directory and then in $HOME.
var configNames = []string{".filehistory.json", ".filehistory.yaml", ".filehistory.yml"}

// LoadConfig loads configuration from a file, merging with defaults.
// Environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if !os.IsNotExist(err) {
				return nil, errm.Wrap(err, "stat config")
			}
			path = ""
		}
	}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, errm.Wrap(err, "read environment")
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, errm.Wrap(err, "read config "+path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, home)
	} else if envHome := os.Getenv("HOME"); envHome != "" {
		dirs = append(dirs, envHome)
	}
	for _, dir := range dirs {
		for _, name := range configNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.History.Order {
	case "", "date", "topo":
	default:
		return fmt.Errorf("invalid history.order %q (expected date or topo)", c.History.Order)
	}
	switch c.Source.Backend {
	case "", "go-git", "cli":
	default:
		return fmt.Errorf("invalid source.backend %q (expected go-git or cli)", c.Source.Backend)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if c.History.CancelCheckStride < 0 || c.History.MaxResults < 0 || c.Batch.Workers < 0 {
		return errm.New("history.cancelCheckStride, history.maxResults and batch.workers must not be negative")
	}
	return nil
}

// SaveConfig saves configuration to a file as indented JSON.
func SaveConfig(cfg *Config, path string) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errm.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0644)
}
