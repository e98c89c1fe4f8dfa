package tool

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/moyoez/reelpost/types"
)

const (
	EnvBackendURL = "BACKEND_URL"
	EnvAPITimeout = "API_TIMEOUT" // milliseconds

	DefaultAPITimeoutMs         = 10000
	DefaultMultipartContentType = "multipart/form-data"
	DefaultThumbnailType        = "image/jpeg"
	DefaultNotifyRatePerSecond  = 4
	DefaultControlPort          = 53380
)

var ConfigPath = "config.yaml" // be aware that it can be changed, default to ./config.yaml

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		BackendURL:           "",
		APITimeoutMs:         DefaultAPITimeoutMs,
		MultipartContentType: DefaultMultipartContentType,
		ThumbnailType:        DefaultThumbnailType,
		NotifyRatePerSecond:  DefaultNotifyRatePerSecond,
		ControlPort:          DefaultControlPort,
	}
}

// LoadEnvFile loads a .env file into the process environment.
// A missing file is fine, the variables might be set manually.
func LoadEnvFile(path string) {
	var err error
	if path == "" {
		err = godotenv.Load()
	} else {
		err = godotenv.Load(path)
	}
	if err != nil {
		DefaultLogger.Debugf("No .env file loaded: %v", err)
	}
}

// LoadConfig reads the YAML config, writing a default one when missing,
// then applies BACKEND_URL / API_TIMEOUT from the environment.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			ApplyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}
	fillDefaults(&cfg)
	ApplyEnv(&cfg)
	return cfg, nil
}

// ApplyEnv overrides the backend URL and timeout from the environment.
func ApplyEnv(cfg *types.AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.BackendURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPITimeout)); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			DefaultLogger.Warnf("Ignoring invalid %s=%q", EnvAPITimeout, v)
			return
		}
		cfg.APITimeoutMs = ms
	}
}

// ApplyFlags merges CLI overrides into the loaded config.
func ApplyFlags(cfg *types.AppConfig, flags types.Config) {
	if flags.UseBackendURL != "" {
		cfg.BackendURL = flags.UseBackendURL
	}
	if flags.UseTimeoutMs > 0 {
		cfg.APITimeoutMs = flags.UseTimeoutMs
	}
}

func fillDefaults(cfg *types.AppConfig) {
	if cfg.APITimeoutMs <= 0 {
		cfg.APITimeoutMs = DefaultAPITimeoutMs
	}
	if cfg.MultipartContentType == "" {
		cfg.MultipartContentType = DefaultMultipartContentType
	}
	if cfg.ThumbnailType == "" {
		cfg.ThumbnailType = DefaultThumbnailType
	}
	if cfg.NotifyRatePerSecond <= 0 {
		cfg.NotifyRatePerSecond = DefaultNotifyRatePerSecond
	}
	if cfg.ControlPort <= 0 {
		cfg.ControlPort = DefaultControlPort
	}
}

// ClientConfigFrom derives the per-run HTTP configuration.
func ClientConfigFrom(cfg types.AppConfig) types.ClientConfig {
	timeoutMs := cfg.APITimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = DefaultAPITimeoutMs
	}
	contentType := cfg.MultipartContentType
	if contentType == "" {
		contentType = DefaultMultipartContentType
	}
	return types.ClientConfig{
		BaseURL:              cfg.BackendURL,
		Timeout:              time.Duration(timeoutMs) * time.Millisecond,
		MultipartContentType: contentType,
		InsecureSkipVerify:   cfg.InsecureSkipVerify,
	}
}

func writeDefaultConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
