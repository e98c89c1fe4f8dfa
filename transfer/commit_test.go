package transfer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/reelpost/types"
)

func TestCommitSendsRecord(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/media/post/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	record := types.UploadRecord{
		VideoPath: "p1", ThumbnailPath: "", FileSize: 1000000, Length: 12,
		Width: 720, Height: 1280, Description: "hello", Tags: "fun,cats",
	}
	require.NoError(t, NewMetadataCommitter(newTestClient(srv)).Commit(context.Background(), record, NewCancellationToken()))

	assert.Equal(t, "p1", got["file_path"])
	assert.Equal(t, "", got["thumbnail_path"])
	assert.EqualValues(t, 1000000, got["file_size"])
	assert.EqualValues(t, 12, got["length"])
	assert.EqualValues(t, 720, got["width"])
	assert.EqualValues(t, 1280, got["height"])
	assert.Equal(t, "hello", got["description"])
	assert.Equal(t, "fun,cats", got["tags"])
}

func TestCommitErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("plain") != "" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Description too long"}`))
	}))
	defer srv.Close()

	err := NewMetadataCommitter(newTestClient(srv)).Commit(context.Background(), types.UploadRecord{}, NewCancellationToken())
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, KindServer, stageErr.Kind)
	assert.Equal(t, StageCommit, stageErr.Stage)
	assert.Equal(t, "Description too long", UserMessage(err))

	client := NewClientWithHTTP(types.ClientConfig{BaseURL: srv.URL + "/?plain=1"}, srv.Client())
	err = NewMetadataCommitter(client).Commit(context.Background(), types.UploadRecord{}, NewCancellationToken())
	require.Error(t, err)
	assert.Equal(t, CommitFailedMessage, UserMessage(err))
}

func TestCommitCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("commit must not reach the backend")
	}))
	defer srv.Close()

	token := NewCancellationToken()
	token.Cancel()
	err := NewMetadataCommitter(newTestClient(srv)).Commit(context.Background(), types.UploadRecord{}, token)
	assert.True(t, IsCancelled(err))
}
