package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/reelpost/api/models"
	"github.com/moyoez/reelpost/notify"
	"github.com/moyoez/reelpost/pipeline"
	"github.com/moyoez/reelpost/thumbnail"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

// UserStartUpload validates the request, starts a run in the background and returns its id.
// POST /api/self/v1/upload
func UserStartUpload(c *gin.Context) {
	var request types.UserUploadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	if strings.TrimSpace(request.Video) == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: video"))
		return
	}

	meta := types.UploadMetadata{Caption: request.Caption, Tags: request.Tags}
	if err := tool.ValidateMetadata(meta); err != nil {
		var verr *tool.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, tool.FastReturnErrorWithData(verr.Message, map[string]any{"field": verr.Field}))
			return
		}
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	path, err := tool.ResolveSourcePath(request.Video)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid video location: "+err.Error()))
		return
	}
	size, err := tool.GetFileSize(path)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Video not readable: "+err.Error()))
		return
	}

	client := models.GetClient()
	if client == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Backend is not configured"))
		return
	}

	asset := types.MediaAsset{
		SourceLocation:  request.Video,
		ByteSize:        size,
		DurationSeconds: request.DurationSeconds,
		WidthPixels:     request.Width,
		HeightPixels:    request.Height,
	}
	thumb := thumbnail.Resolve(request.Thumbnail, request.ThumbnailURL, client.HTTPClient())

	entry := startRun(asset, meta, thumb)
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.UserUploadResponse{
		RunID: entry.Orchestrator.RunID(),
		State: entry.Orchestrator.State(),
	}))
}

// startRun registers a new orchestrator and runs it in its own goroutine.
func startRun(asset types.MediaAsset, meta types.UploadMetadata, thumb thumbnail.Source) *models.RunEntry {
	cfg := models.GetAppConfig()

	var opts []notify.NotifierOption
	if hub := models.GetNotifyHub(); hub != nil {
		opts = append(opts, notify.WithHub(hub))
	}
	notifier := notify.NewNotifier(cfg.NotifySocket, cfg.NotifyRatePerSecond, opts...)

	orchestrator := pipeline.NewWithClient(models.GetClient(), cfg.ThumbnailType, pipeline.WithObserver(notifier))
	entry := models.NewRunEntry(orchestrator, asset)
	runID := orchestrator.RunID()
	models.CacheRun(runID, entry)
	tool.DefaultLogger.Infof("[UserUpload] Started run %s for %s", runID, asset.SourceLocation)

	go func() {
		defer entry.MarkDone()
		outcome := orchestrator.Run(context.Background(), asset, meta, thumb)
		notifier.Close()
		tool.DefaultLogger.Infof("[UserUpload] Run %s finished: %s", runID, outcome.State)
	}()
	return entry
}
