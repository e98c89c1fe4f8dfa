package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/reelpost/api/models"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// RunQRCode returns a PNG QR code pointing at the playlist of a completed run.
// GET /api/self/v1/runs/:id/qr-code?size=200x200
func RunQRCode(c *gin.Context) {
	entry, ok := models.LookupRun(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Run not found"))
		return
	}
	outcome := entry.Orchestrator.Outcome()
	if outcome == nil || outcome.State != types.RunStateCompleted || outcome.Record == nil {
		c.JSON(http.StatusConflict, tool.FastReturnError("Run has not completed"))
		return
	}

	client := models.GetClient()
	if client == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Backend is not configured"))
		return
	}
	shareURL, err := tool.BuildShareURL(client.Config().BaseURL, outcome.Record.VideoPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to build share URL: "+err.Error()))
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(shareURL, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
