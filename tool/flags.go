package tool

import (
	"flag"

	"github.com/moyoez/reelpost/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseEnvFile, "useEnvFile", "", "load environment from this file instead of ./.env")
	flag.StringVar(&cfg.UseBackendURL, "useBackendUrl", "", "override backend base URL")
	flag.IntVar(&cfg.UseTimeoutMs, "useTimeoutMs", 0, "override request timeout in milliseconds")
	flag.BoolVar(&cfg.Serve, "serve", false, "run the local control API instead of a single upload")
	flag.BoolVar(&cfg.Probe, "probe", false, "ping the backend host before uploading")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "do not send notifications over the unix socket")
	flag.StringVar(&cfg.Video, "video", "", "video file to upload (path or file:// URL)")
	flag.StringVar(&cfg.Thumbnail, "thumbnail", "", "thumbnail image file")
	flag.StringVar(&cfg.ThumbnailURL, "thumbnailUrl", "", "remote thumbnail image used when -thumbnail is not set")
	flag.StringVar(&cfg.Caption, "caption", "", "post caption (max 50 characters)")
	flag.StringVar(&cfg.Tags, "tags", "", "comma separated tags (max 3, 15 characters each)")
	flag.Float64Var(&cfg.Duration, "duration", 0, "video length in seconds")
	flag.IntVar(&cfg.Width, "width", 0, "video width in pixels")
	flag.IntVar(&cfg.Height, "height", 0, "video height in pixels")
	flag.Parse()
	return cfg
}
