package transfer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moyoez/reelpost/types"
)

// newTestClient points a Client at srv using the server's own http.Client.
func newTestClient(srv *httptest.Server) *Client {
	return NewClientWithHTTP(types.ClientConfig{BaseURL: srv.URL}, srv.Client())
}

// writeVideo creates a fake video of n bytes and returns its path.
func writeVideo(t *testing.T, name string, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func drain(r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
