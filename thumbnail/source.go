// Package thumbnail provides the thumbnail sources consumed by the publish stage.
// Generating a thumbnail from the video happens elsewhere; a source only hands over bytes.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/moyoez/reelpost/tool"
)

// ErrNoThumbnail is returned by sources that have nothing to offer.
var ErrNoThumbnail = errors.New("no thumbnail available")

// Source yields the bytes of a thumbnail image. The caller closes the reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (io.ReadCloser, error)

func (f SourceFunc) Open(ctx context.Context) (io.ReadCloser, error) {
	return f(ctx)
}

// Absent is the source used when no thumbnail could be produced.
type Absent struct{}

func (Absent) Open(context.Context) (io.ReadCloser, error) {
	return nil, ErrNoThumbnail
}

// FileSource reads a locally generated thumbnail.
type FileSource struct {
	Location string // path or file:// URL
}

func (s FileSource) Open(context.Context) (io.ReadCloser, error) {
	path, err := tool.ResolveSourcePath(s.Location)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open thumbnail: %v", err)
	}
	return f, nil
}

// URLSource downloads a remote image, e.g. a placeholder used when local generation failed.
type URLSource struct {
	URL    string
	Client *http.Client
}

func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thumbnail: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
		return nil, fmt.Errorf("thumbnail fetch failed: %s", resp.Status)
	}
	return resp.Body, nil
}

// Resolve picks the local file first, then the remote URL, else Absent.
func Resolve(location, fallbackURL string, client *http.Client) Source {
	switch {
	case location != "":
		return FileSource{Location: location}
	case fallbackURL != "":
		return URLSource{URL: fallbackURL, Client: client}
	default:
		return Absent{}
	}
}
