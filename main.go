package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moyoez/reelpost/api"
	"github.com/moyoez/reelpost/notify"
	"github.com/moyoez/reelpost/pipeline"
	"github.com/moyoez/reelpost/thumbnail"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/transfer"
	"github.com/moyoez/reelpost/types"
)

func main() {
	cfg := tool.SetFlags()
	tool.LoadEnvFile(cfg.UseEnvFile)
	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlags(&appCfg, cfg)

	if cfg.SkipNotify {
		notify.SetUseNotify(false)
	}
	if appCfg.NotifySocket != "" {
		notify.DefaultUnixSocketPath = appCfg.NotifySocket
	}

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	clientCfg := tool.ClientConfigFrom(appCfg)
	if cfg.Probe {
		ctx, cancel := context.WithTimeout(context.Background(), clientCfg.Timeout)
		result, err := tool.ProbeBackend(ctx, clientCfg.BaseURL, clientCfg.Timeout)
		cancel()
		if err != nil {
			tool.DefaultLogger.Warnf("[Probe] %v", err)
		} else {
			tool.DefaultLogger.Infof("[Probe] %s reachable, %.0f%% loss, avg rtt %v", result.Host, result.PacketLoss, result.AvgRtt)
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	if cfg.Serve {
		serve(appCfg, signals)
		return
	}
	os.Exit(runOnce(appCfg, clientCfg, cfg, signals))
}

func serve(appCfg types.AppConfig, signals <-chan os.Signal) {
	apiServer := api.NewServer(appCfg)
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	if err := notify.SendSimpleNotification("Control API", fmt.Sprintf("Listening on port %d", appCfg.ControlPort)); err != nil {
		tool.DefaultLogger.Debugf("[Notify] %v", err)
	}

	<-signals
	tool.DefaultLogger.Info("Shutting down control API")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		tool.DefaultLogger.Errorf("Shutdown failed: %v", err)
	}
}

// runOnce uploads the video named by the flags and returns the process exit code.
func runOnce(appCfg types.AppConfig, clientCfg types.ClientConfig, cfg types.Config, signals <-chan os.Signal) int {
	if cfg.Video == "" {
		tool.DefaultLogger.Error("Missing -video (or use -serve for the control API)")
		return 2
	}
	meta := types.UploadMetadata{Caption: cfg.Caption, Tags: tool.ParseTags(cfg.Tags)}
	if err := tool.ValidateMetadata(meta); err != nil {
		tool.DefaultLogger.Errorf("%v", err)
		return 2
	}
	path, err := tool.ResolveSourcePath(cfg.Video)
	if err != nil {
		tool.DefaultLogger.Errorf("%v", err)
		return 2
	}
	size, err := tool.GetFileSize(path)
	if err != nil {
		tool.DefaultLogger.Errorf("Video not readable: %v", err)
		return 2
	}
	asset := types.MediaAsset{
		SourceLocation:  cfg.Video,
		ByteSize:        size,
		DurationSeconds: cfg.Duration,
		WidthPixels:     cfg.Width,
		HeightPixels:    cfg.Height,
	}

	client := transfer.NewClient(clientCfg)
	notifier := notify.NewNotifier(appCfg.NotifySocket, appCfg.NotifyRatePerSecond)
	console := pipeline.ObserverFunc(func(event types.RunEvent) {
		tool.DefaultLogger.Debugf("[Progress] %s %3.0f%%", event.State, event.Progress*100)
	})
	orchestrator := pipeline.NewWithClient(client, appCfg.ThumbnailType,
		pipeline.WithObserver(pipeline.MultiObserver{notifier, console}))

	go func() {
		<-signals
		orchestrator.Cancel()
	}()

	thumb := thumbnail.Resolve(cfg.Thumbnail, cfg.ThumbnailURL, client.HTTPClient())
	outcome := orchestrator.Run(context.Background(), asset, meta, thumb)
	notifier.Close()

	switch outcome.State {
	case types.RunStateCompleted:
		tool.DefaultLogger.Infof("Post saved: %s", outcome.Record.VideoPath)
		return 0
	case types.RunStateCancelled:
		tool.DefaultLogger.Info("Upload cancelled")
		return 130
	default:
		tool.DefaultLogger.Errorf("%s", outcome.Message)
		return 1
	}
}
