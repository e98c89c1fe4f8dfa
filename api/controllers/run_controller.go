package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/reelpost/api/models"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

// UserRunsList returns every live run, oldest first.
// GET /api/self/v1/runs
func UserRunsList(c *gin.Context) {
	entries := models.ListRuns()
	snapshots := make([]types.RunSnapshot, 0, len(entries))
	for _, entry := range entries {
		snapshots = append(snapshots, entry.Snapshot())
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(snapshots))
}

// UserRunStatus returns the state, progress and outcome of one run.
// GET /api/self/v1/runs/:id
func UserRunStatus(c *gin.Context) {
	entry, ok := models.LookupRun(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Run not found"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(entry.Snapshot()))
}
