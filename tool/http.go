package tool

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/moyoez/reelpost/types"
)

// DefaultTimeout matches the backend client default of 10000 ms.
var DefaultTimeout = 10 * time.Second

// NewHTTPClient creates the client shared by all stages of a run.
// The timeout from cfg applies to every request, including the video upload.
func NewHTTPClient(cfg types.ClientConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
