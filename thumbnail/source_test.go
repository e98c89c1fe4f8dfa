package thumbnail

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, src Source) []byte {
	t.Helper()
	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestAbsent(t *testing.T) {
	_, err := Absent{}.Open(context.Background())
	assert.ErrorIs(t, err, ErrNoThumbnail)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumb.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	assert.Equal(t, []byte("jpeg"), readAll(t, FileSource{Location: path}))
	assert.Equal(t, []byte("jpeg"), readAll(t, FileSource{Location: "file://" + path}))

	_, err := FileSource{Location: filepath.Join(dir, "missing.jpg")}.Open(context.Background())
	assert.Error(t, err)
}

func TestURLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("placeholder"))
	}))
	defer srv.Close()

	assert.Equal(t, []byte("placeholder"), readAll(t, URLSource{URL: srv.URL + "/img"}))

	_, err := URLSource{URL: srv.URL + "/missing", Client: srv.Client()}.Open(context.Background())
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	assert.IsType(t, FileSource{}, Resolve("a.jpg", "http://x/y.jpg", nil))
	assert.IsType(t, URLSource{}, Resolve("", "http://x/y.jpg", nil))
	assert.IsType(t, Absent{}, Resolve("", "", nil))
}
