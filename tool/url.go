package tool

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	ProcessVideoPath = "/media/process_video/"
	PresignPath      = "/media/upload/"
	CommitPostPath   = "/media/post/"
)

// BuildBackendURL joins the configured base URL with an endpoint path.
func BuildBackendURL(baseURL, endpoint string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("backend base URL is not configured")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + endpoint
	return u.String(), nil
}

// BuildProcessVideoURL builds the /media/process_video/ URL.
func BuildProcessVideoURL(baseURL string) (string, error) {
	return BuildBackendURL(baseURL, ProcessVideoPath)
}

// BuildPresignURL builds the /media/upload/ URL.
func BuildPresignURL(baseURL string) (string, error) {
	return BuildBackendURL(baseURL, PresignPath)
}

// BuildCommitURL builds the /media/post/ URL.
func BuildCommitURL(baseURL string) (string, error) {
	return BuildBackendURL(baseURL, CommitPostPath)
}

// BackendHost returns the host name of the base URL without port.
func BackendHost(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("base URL %q has no host", baseURL)
	}
	return u.Hostname(), nil
}

// BuildShareURL resolves a server-relative playlist path against the base URL.
// Absolute URLs are returned unchanged.
func BuildShareURL(baseURL, playlistPath string) (string, error) {
	ref, err := url.Parse(playlistPath)
	if err != nil {
		return "", fmt.Errorf("failed to parse playlist path: %v", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	return base.ResolveReference(ref).String(), nil
}
