package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/moyoez/reelpost/thumbnail"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

// MaxThumbnailBytes bounds how much of a thumbnail source is read into memory.
const MaxThumbnailBytes = 10 << 20

// ThumbnailPublisher stores the thumbnail through a presigned write target (stage 2).
// Its failures never fail the run.
type ThumbnailPublisher struct {
	client      *Client
	contentType string
}

func NewThumbnailPublisher(client *Client, contentType string) *ThumbnailPublisher {
	if contentType == "" {
		contentType = tool.DefaultThumbnailType
	}
	return &ThumbnailPublisher{client: client, contentType: contentType}
}

// Publish returns the stored thumbnail path, or nil when the thumbnail could not be published.
// The only error it returns is a cancelled one, checked before any work starts.
func (p *ThumbnailPublisher) Publish(ctx context.Context, source thumbnail.Source, baseName string, token *CancellationToken) (*types.ThumbnailResult, error) {
	if token.IsCancelled() {
		return nil, NewCancelledError(StageThumbnail)
	}
	result, err := p.publish(ctx, source, baseName)
	if err != nil {
		tool.DefaultLogger.Warnf("[Thumbnail] Upload failed, continuing without thumbnail: %v", err)
		return nil, nil
	}
	tool.DefaultLogger.Infof("[Thumbnail] Stored at %s", result.RemoteThumbnailPath)
	return result, nil
}

func (p *ThumbnailPublisher) publish(ctx context.Context, source thumbnail.Source, baseName string) (*types.ThumbnailResult, error) {
	if source == nil {
		return nil, thumbnail.ErrNoThumbnail
	}
	data, err := readThumbnail(ctx, source)
	if err != nil {
		return nil, err
	}

	target, err := p.requestTarget(ctx, baseName)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail upload request: %v", err)
	}
	req.Header.Set("Content-Type", p.contentType)
	status, _, err := p.client.do(req)
	if err != nil {
		return nil, NewNetworkError(StageThumbnail, err)
	}
	if !isSuccess(status) {
		return nil, NewServerError(StageThumbnail, status, fmt.Sprintf("thumbnail upload failed with status %d", status))
	}
	return &types.ThumbnailResult{RemoteThumbnailPath: target.FilePath}, nil
}

// requestTarget asks the backend for a presigned write target.
func (p *ThumbnailPublisher) requestTarget(ctx context.Context, baseName string) (*types.PresignResponse, error) {
	url, err := tool.BuildPresignURL(p.client.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	status, body, err := p.client.postJSON(ctx, url, types.PresignRequest{BaseName: baseName, Type: p.contentType})
	if err != nil {
		return nil, NewNetworkError(StageThumbnail, err)
	}
	if !isSuccess(status) {
		return nil, NewServerError(StageThumbnail, status, serverErrorMessage(body, "failed to get upload target"))
	}
	var target types.PresignResponse
	if err := sonic.Unmarshal(body, &target); err != nil {
		return nil, fmt.Errorf("failed to parse upload target response: %v", err)
	}
	if target.UploadURL == "" || target.FilePath == "" {
		return nil, errors.New("upload target response missing upload_url or file_path")
	}
	return &target, nil
}

func readThumbnail(ctx context.Context, source thumbnail.Source) ([]byte, error) {
	rc, err := source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close thumbnail source: %v", err)
		}
	}()
	data, err := io.ReadAll(io.LimitReader(rc, MaxThumbnailBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail: %v", err)
	}
	if len(data) > MaxThumbnailBytes {
		return nil, fmt.Errorf("thumbnail larger than %d bytes", MaxThumbnailBytes)
	}
	if len(data) == 0 {
		return nil, thumbnail.ErrNoThumbnail
	}
	return data, nil
}
