package transfer

import (
	"context"

	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

// MetadataCommitter submits the final post record (stage 3).
type MetadataCommitter struct {
	client *Client
}

func NewMetadataCommitter(client *Client) *MetadataCommitter {
	return &MetadataCommitter{client: client}
}

// Commit sends record once. Any 2xx acknowledges it; the body is ignored.
func (c *MetadataCommitter) Commit(ctx context.Context, record types.UploadRecord, token *CancellationToken) error {
	if token.IsCancelled() {
		return NewCancelledError(StageCommit)
	}
	url, err := tool.BuildCommitURL(c.client.cfg.BaseURL)
	if err != nil {
		return NewNetworkError(StageCommit, err)
	}
	status, body, err := c.client.postJSON(ctx, url, record)
	if err != nil {
		return NewNetworkError(StageCommit, err)
	}
	if !isSuccess(status) {
		return NewServerError(StageCommit, status, serverErrorMessage(body, CommitFailedMessage))
	}
	tool.DefaultLogger.Infof("[Commit] Post saved for %s", record.VideoPath)
	return nil
}
