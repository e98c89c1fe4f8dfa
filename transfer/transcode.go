package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

// VideoFieldName is the multipart field the transcoding endpoint reads.
const VideoFieldName = "video"

// TranscodeSubmitter sends the raw video to the transcoding endpoint (stage 1).
type TranscodeSubmitter struct {
	client *Client
	open   func(path string) (io.ReadCloser, error)
}

func NewTranscodeSubmitter(client *Client) *TranscodeSubmitter {
	return &TranscodeSubmitter{
		client: client,
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

type submitResult struct {
	result *types.TranscodeResult
	err    error
}

// Submit uploads the asset and returns the server-assigned playlist path.
// onProgress receives the transfer fraction in [0,1] and is never called once the token is cancelled.
// When the token flips while the request is in flight, Submit returns a cancelled error right away;
// the transfer itself is left to finish on the wire and its result is dropped.
func (s *TranscodeSubmitter) Submit(ctx context.Context, asset types.MediaAsset, token *CancellationToken, onProgress func(float64)) (*types.TranscodeResult, error) {
	if token.IsCancelled() {
		return nil, NewCancelledError(StageTranscode)
	}

	url, err := tool.BuildProcessVideoURL(s.client.cfg.BaseURL)
	if err != nil {
		return nil, NewNetworkError(StageTranscode, err)
	}
	path, err := tool.ResolveSourcePath(asset.SourceLocation)
	if err != nil {
		return nil, NewSourceError(StageTranscode, err)
	}
	size, err := tool.GetFileSize(path)
	if err != nil {
		return nil, NewSourceError(StageTranscode, err)
	}
	file, err := s.open(path)
	if err != nil {
		return nil, NewSourceError(StageTranscode, fmt.Errorf("failed to open video: %v", err))
	}

	fileName := tool.SourceFileName(asset.SourceLocation)
	head, tail, boundary, err := multipartEnvelope(fileName, tool.InferVideoContentType(fileName))
	if err != nil {
		_ = file.Close()
		return nil, NewSourceError(StageTranscode, err)
	}
	total := int64(len(head)) + size + int64(len(tail))

	body := &progressReader{
		r:     io.MultiReader(bytes.NewReader(head), file, bytes.NewReader(tail)),
		total: total,
		report: func(fraction float64) {
			if token.IsCancelled() {
				return
			}
			if onProgress != nil {
				onProgress(fraction)
			}
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		_ = file.Close()
		return nil, NewNetworkError(StageTranscode, fmt.Errorf("failed to create upload request: %v", err))
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", fmt.Sprintf("%s; boundary=%s", s.client.cfg.MultipartContentType, boundary))

	tool.DefaultLogger.Infof("[Transcode] Uploading %s (%d bytes) to %s", fileName, size, url)

	done := make(chan submitResult, 1)
	go func() {
		defer func() {
			if err := file.Close(); err != nil {
				tool.DefaultLogger.Errorf("Failed to close video file: %v", err)
			}
		}()
		result, err := s.send(ctx, req)
		done <- submitResult{result: result, err: err}
	}()

	select {
	case r := <-done:
		if token.IsCancelled() {
			if r.err == nil {
				tool.DefaultLogger.Warnf("[Transcode] Discarding playlist %s, run was cancelled", r.result.RemotePlaylistPath)
			}
			return nil, NewCancelledError(StageTranscode)
		}
		return r.result, r.err
	case <-token.Done():
		tool.DefaultLogger.Infof("[Transcode] Cancelled while uploading %s, in-flight result will be discarded", fileName)
		return nil, NewCancelledError(StageTranscode)
	}
}

func (s *TranscodeSubmitter) send(ctx context.Context, req *http.Request) (*types.TranscodeResult, error) {
	status, body, err := s.client.do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &StageError{Stage: StageTranscode, Kind: KindCancelled, Message: CancelledErrorMessage, Err: ctx.Err()}
		}
		return nil, NewNetworkError(StageTranscode, err)
	}
	if !isSuccess(status) {
		return nil, NewServerError(StageTranscode, status, serverErrorMessage(body, UploadFailedMessage))
	}

	var response types.ProcessVideoResponse
	if err := sonic.Unmarshal(body, &response); err != nil {
		return nil, &StageError{Stage: StageTranscode, Kind: KindServer, Message: UploadFailedMessage, StatusCode: status,
			Err: fmt.Errorf("failed to parse process_video response: %v", err)}
	}
	if response.PlaylistPath == "" {
		return nil, &StageError{Stage: StageTranscode, Kind: KindServer, Message: UploadFailedMessage, StatusCode: status,
			Err: errors.New("process_video response missing playlist_path")}
	}
	tool.DefaultLogger.Infof("[Transcode] Video accepted, playlist: %s", response.PlaylistPath)
	return &types.TranscodeResult{RemotePlaylistPath: response.PlaylistPath}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartEnvelope renders the bytes that go before and after the file content
// so the body can be streamed with a known length.
func multipartEnvelope(fileName, contentType string) (head, tail []byte, boundary string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, VideoFieldName, quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", contentType)
	if _, err := mw.CreatePart(h); err != nil {
		return nil, nil, "", fmt.Errorf("failed to write multipart header: %v", err)
	}
	head = bytes.Clone(buf.Bytes())
	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, nil, "", fmt.Errorf("failed to write multipart trailer: %v", err)
	}
	tail = bytes.Clone(buf.Bytes())
	return head, tail, mw.Boundary(), nil
}

// progressReader reports the fraction of total read so far after every Read.
type progressReader struct {
	r      io.Reader
	total  int64
	read   atomic.Int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		read := p.read.Add(int64(n))
		fraction := float64(read) / float64(p.total)
		if fraction > 1 {
			fraction = 1
		}
		p.report(fraction)
	}
	return n, err
}
