package types

import "time"

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	BackendURL           string `yaml:"backendUrl"`
	APITimeoutMs         int    `yaml:"apiTimeoutMs"`
	MultipartContentType string `yaml:"multipartContentType"`
	InsecureSkipVerify   bool   `yaml:"insecureSkipVerify,omitempty"`
	ThumbnailType        string `yaml:"thumbnailType"`
	NotifySocket         string `yaml:"notifySocket,omitempty"`
	NotifyRatePerSecond  int    `yaml:"notifyRatePerSecond"`
	ControlPort          int    `yaml:"controlPort"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log           string
	UseConfigPath string
	UseEnvFile    string
	UseBackendURL string
	UseTimeoutMs  int
	Serve         bool   // run the local control API instead of a one-shot upload
	Probe         bool   // ping the backend host before uploading
	SkipNotify    bool   // if true, do not send notifications over the unix socket
	Video         string // source of the video to upload
	Thumbnail     string // local thumbnail file
	ThumbnailURL  string // remote thumbnail used when no local one is given
	Caption       string
	Tags          string // comma separated
	Duration      float64
	Width         int
	Height        int
}

// ClientConfig is the explicit HTTP configuration handed to every stage.
type ClientConfig struct {
	BaseURL              string
	Timeout              time.Duration
	MultipartContentType string
	InsecureSkipVerify   bool
}
