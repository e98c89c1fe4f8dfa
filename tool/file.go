package tool

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ResolveSourcePath turns a media source location into a local path.
// Plain paths are returned as-is; only the file:// scheme is accepted for URLs.
func ResolveSourcePath(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("source location is empty")
	}
	if !strings.Contains(location, "://") {
		return location, nil
	}
	parsedUrl, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid source url: %v", err)
	}
	if parsedUrl.Scheme != "file" {
		return "", fmt.Errorf("only file:// protocol is supported for source url")
	}
	return parsedUrl.Path, nil
}

// SourceFileName returns the last path segment of a source location.
func SourceFileName(location string) string {
	if path, err := ResolveSourcePath(location); err == nil {
		location = path
	}
	return filepath.Base(location)
}

// SourceBaseName returns the file name up to its first dot, e.g. "clip.final.mp4" -> "clip".
func SourceBaseName(location string) string {
	name := SourceFileName(location)
	if idx := strings.Index(name, "."); idx >= 0 {
		return name[:idx]
	}
	return name
}

// InferVideoContentType derives the part content type from the file extension.
// Unknown extensions fall back to video/<ext>, no extension to application/octet-stream.
func InferVideoContentType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return "application/octet-stream"
	}
	if fileType := mime.TypeByExtension(ext); fileType != "" {
		return fileType
	}
	return "video/" + strings.TrimPrefix(ext, ".")
}

// GetFileSize stats a local file and rejects directories.
func GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %v", err)
	}
	if fileInfo.IsDir() {
		return 0, fmt.Errorf("path is a directory, not a file")
	}
	return fileInfo.Size(), nil
}
