package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/reelpost/api/models"
	"github.com/moyoez/reelpost/tool"
)

// UserCancelRun requests cooperative cancellation of a run. Cancelling a finished run is a no-op.
// POST /api/self/v1/cancel?runId=
func UserCancelRun(c *gin.Context) {
	runID := c.Query("runId")
	if runID == "" {
		tool.DefaultLogger.Errorf("Missing required parameter: runId")
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameters"))
		return
	}

	entry, ok := models.LookupRun(runID)
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Run not found"))
		return
	}

	tool.DefaultLogger.Infof("[Cancel] Received cancel request: runId=%s", runID)
	entry.Orchestrator.Cancel()
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
