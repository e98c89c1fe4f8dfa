package transfer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/reelpost/thumbnail"
	"github.com/moyoez/reelpost/types"
)

func staticSource(data string) thumbnail.Source {
	return thumbnail.SourceFunc(func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(stringsReader(data)), nil
	})
}

type thumbBackend struct {
	presignStatus int
	putStatus     int
	presignCalls  atomic.Int32
	putCalls      atomic.Int32
	gotRequest    types.PresignRequest
	gotBody       string
	gotType       string
}

func (b *thumbBackend) server(t *testing.T) *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/media/upload/":
			b.presignCalls.Add(1)
			body, _ := io.ReadAll(r.Body)
			_ = sonic.Unmarshal(body, &b.gotRequest)
			if b.presignStatus != 0 {
				w.WriteHeader(b.presignStatus)
				_, _ = w.Write([]byte(`{"error":"no bucket"}`))
				return
			}
			_, _ = w.Write([]byte(`{"upload_url":"` + srv.URL + `/bucket/t1.jpg?sig=abc","file_path":"t1"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/bucket/t1.jpg":
			b.putCalls.Add(1)
			body, _ := io.ReadAll(r.Body)
			b.gotBody = string(body)
			b.gotType = r.Header.Get("Content-Type")
			if b.putStatus != 0 {
				w.WriteHeader(b.putStatus)
			}
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return srv
}

func TestPublishThumbnail(t *testing.T) {
	backend := &thumbBackend{}
	srv := backend.server(t)
	defer srv.Close()

	res, err := NewThumbnailPublisher(newTestClient(srv), "").Publish(context.Background(), staticSource("jpegbytes"), "clip", NewCancellationToken())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "t1", res.RemoteThumbnailPath)
	assert.Equal(t, types.PresignRequest{BaseName: "clip", Type: "image/jpeg"}, backend.gotRequest)
	assert.Equal(t, "jpegbytes", backend.gotBody)
	assert.Equal(t, "image/jpeg", backend.gotType)
}

func TestPublishThumbnailFailuresAreAbsorbed(t *testing.T) {
	cases := []struct {
		name    string
		backend *thumbBackend
		source  thumbnail.Source
		presign int32
		put     int32
	}{
		{"absent source", &thumbBackend{}, thumbnail.Absent{}, 0, 0},
		{"nil source", &thumbBackend{}, nil, 0, 0},
		{"empty source", &thumbBackend{}, staticSource(""), 0, 0},
		{"presign rejected", &thumbBackend{presignStatus: http.StatusForbidden}, staticSource("x"), 1, 0},
		{"put rejected", &thumbBackend{putStatus: http.StatusForbidden}, staticSource("x"), 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := tc.backend.server(t)
			defer srv.Close()

			res, err := NewThumbnailPublisher(newTestClient(srv), "image/jpeg").Publish(context.Background(), tc.source, "clip", NewCancellationToken())
			assert.NoError(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tc.presign, tc.backend.presignCalls.Load())
			assert.Equal(t, tc.put, tc.backend.putCalls.Load())
		})
	}
}

func TestPublishThumbnailUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := newTestClient(srv)
	srv.Close()

	res, err := NewThumbnailPublisher(client, "").Publish(context.Background(), staticSource("x"), "clip", NewCancellationToken())
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestPublishThumbnailCancelled(t *testing.T) {
	backend := &thumbBackend{}
	srv := backend.server(t)
	defer srv.Close()

	token := NewCancellationToken()
	token.Cancel()
	res, err := NewThumbnailPublisher(newTestClient(srv), "").Publish(context.Background(), staticSource("x"), "clip", token)
	assert.Nil(t, res)
	assert.True(t, IsCancelled(err))
	assert.Zero(t, backend.presignCalls.Load())
}
