package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/oarkflow/bcl"
	"gopkg.in/yaml.v3"
)

type Model struct {
	Path   string `yaml:"path" bcl:"path,optional"`
	Format string `yaml:"format" bcl:"format,optional"`
	Name   string `yaml:"name" bcl:"name,optional"`
}

type Decode struct {
	FallbackTag string `yaml:"fallback_tag" bcl:"fallback_tag,optional"`
	Output      string `yaml:"output" bcl:"output,optional"`
}

type Log struct {
	Level      string `yaml:"level" bcl:"level,optional"`
	File       string `yaml:"file" bcl:"file,optional"`
	MaxSizeMB  int    `yaml:"max_size_mb" bcl:"max_size_mb,optional"`
	MaxBackups int    `yaml:"max_backups" bcl:"max_backups,optional"`
	MaxAgeDays int    `yaml:"max_age_days" bcl:"max_age_days,optional"`
}

type Server struct {
	Address    string `yaml:"address" bcl:"address,optional"`
	WatchModel *bool  `yaml:"watch_model" bcl:"watch_model,optional"`
	BodyLimit  int    `yaml:"body_limit" bcl:"body_limit,optional"`
	// RateLimit caps POST /tag at this many requests per minute for each
	// client address. Zero disables the limit.
	RateLimit int `yaml:"rate_limit" bcl:"rate_limit,optional"`
}

type Config struct {
	// Normalize names the Unicode form words are mapped to before training
	// and decoding: none, nfc or nfkc.
	Normalize string `yaml:"normalize" bcl:"normalize,optional"`
	Model     Model  `yaml:"model" bcl:"model,optional"`
	Decode    Decode `yaml:"decode" bcl:"decode,optional"`
	Log       Log    `yaml:"log" bcl:"log,optional"`
	Server    Server `yaml:"server" bcl:"server,optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	watch := true
	return &Config{
		Model:  Model{Path: "hmmmodel.txt", Name: "default"},
		Decode: Decode{FallbackTag: "NP", Output: "hmmoutput.txt"},
		Log:    Log{Level: "info", MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 28},
		Server: Server{Address: ":8080", WatchModel: &watch, BodyLimit: 4 << 20},
	}
}

// Load reads path (YAML, or BCL for a .bcl file) over the defaults, then
// applies .env and HMM_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(filepath.Ext(path), ".bcl") {
			if _, err := bcl.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.fill()
	return c, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("config: load %s: %w", path, err)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"HMM_MODEL_PATH":   &c.Model.Path,
		"HMM_MODEL_FORMAT": &c.Model.Format,
		"HMM_MODEL_NAME":   &c.Model.Name,
		"HMM_OUTPUT_PATH":  &c.Decode.Output,
		"HMM_FALLBACK_TAG": &c.Decode.FallbackTag,
		"HMM_NORMALIZE":    &c.Normalize,
		"HMM_LOG_LEVEL":    &c.Log.Level,
		"HMM_LOG_FILE":     &c.Log.File,
		"HMM_SERVER_ADDR":  &c.Server.Address,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup("HMM_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: HMM_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = n
	}
	if v, ok := lookup("HMM_WATCH_MODEL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: HMM_WATCH_MODEL: %w", err)
		}
		c.Server.WatchModel = &b
	}
	return nil
}

// fill restores defaults for values a file left empty.
func (c *Config) fill() {
	d := Default()
	if c.Model.Path == "" {
		c.Model.Path = d.Model.Path
	}
	if c.Model.Name == "" {
		c.Model.Name = d.Model.Name
	}
	if c.Decode.FallbackTag == "" {
		c.Decode.FallbackTag = d.Decode.FallbackTag
	}
	if c.Decode.Output == "" {
		c.Decode.Output = d.Decode.Output
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.WatchModel == nil {
		c.Server.WatchModel = d.Server.WatchModel
	}
	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = d.Server.BodyLimit
	}
}
