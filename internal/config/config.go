package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"rpgm-translator/internal/util"
)

// BackendURLEnv overrides server.base_url when set.
const BackendURLEnv = "RPGM_BACKEND_URL"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Run    RunConfig    `yaml:"run"`
	Output OutputConfig `yaml:"output"`
}

type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
}

type RunConfig struct {
	PollIntervalMs int    `yaml:"poll_interval_ms"`
	SourceLanguage string `yaml:"source_language"`
	TargetLanguage string `yaml:"target_language"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{BaseURL: "http://localhost:5000"},
		Run: RunConfig{
			PollIntervalMs: 1000,
			SourceLanguage: "it",
			TargetLanguage: "id",
		},
		Output: OutputConfig{Dir: "."},
	}
}

func ResolvePath(input string) (string, error) {
	if input != "" {
		return input, nil
	}
	return util.DefaultConfigPath()
}

// LoadOrInit reads the config at path, writing the defaults there first if the
// file does not exist. Missing keys fall back to defaults and the backend
// environment variable wins over the file.
func LoadOrInit(path string) (Config, error) {
	def := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Save(path, def); err != nil {
			return Config{}, err
		}
		return applyEnv(def), nil
	}
	cfg := def
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(cfg.Server.BaseURL) == "" {
		cfg.Server.BaseURL = def.Server.BaseURL
	}
	if cfg.Run.PollIntervalMs <= 0 {
		cfg.Run.PollIntervalMs = def.Run.PollIntervalMs
	}
	if strings.TrimSpace(cfg.Run.SourceLanguage) == "" {
		cfg.Run.SourceLanguage = def.Run.SourceLanguage
	}
	if strings.TrimSpace(cfg.Run.TargetLanguage) == "" {
		cfg.Run.TargetLanguage = def.Run.TargetLanguage
	}
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = def.Output.Dir
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv(BackendURLEnv)); v != "" {
		cfg.Server.BaseURL = v
	}
	return cfg
}

func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// NormalizeBaseURL validates an http(s) service address and strips trailing slashes.
func NormalizeBaseURL(raw string) (string, error) {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: want http(s)://host[:port]", raw)
	}
	return s, nil
}

// SetServer persists a new service base URL.
func SetServer(path, raw string) (Config, error) {
	base, err := NormalizeBaseURL(raw)
	if err != nil {
		return Config{}, err
	}
	def := Default()
	cfg := def
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg.Server.BaseURL = base
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
