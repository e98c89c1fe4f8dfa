package types

import "strings"

// MediaAsset describes a locally captured video. It is supplied by the caller and never mutated.
type MediaAsset struct {
	SourceLocation  string  `json:"sourceLocation" yaml:"sourceLocation"` // filesystem path or file:// URL
	ByteSize        int64   `json:"byteSize" yaml:"byteSize"`
	DurationSeconds float64 `json:"durationSeconds" yaml:"durationSeconds"`
	WidthPixels     int     `json:"widthPixels" yaml:"widthPixels"`
	HeightPixels    int     `json:"heightPixels" yaml:"heightPixels"`
}

// UploadMetadata is the user-entered part of a post.
type UploadMetadata struct {
	Caption string   `json:"caption"`
	Tags    []string `json:"tags,omitempty"`
}

// TranscodeResult is what the transcoding endpoint hands back.
type TranscodeResult struct {
	RemotePlaylistPath string `json:"playlistPath"`
}

// ThumbnailResult is the stored thumbnail. A nil *ThumbnailResult means no thumbnail.
type ThumbnailResult struct {
	RemoteThumbnailPath string `json:"thumbnailPath"`
}

// UploadRecord is the payload of POST /media/post/.
type UploadRecord struct {
	VideoPath     string  `json:"file_path"`
	ThumbnailPath string  `json:"thumbnail_path"`
	FileSize      int64   `json:"file_size"`
	Length        float64 `json:"length"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Description   string  `json:"description"`
	Tags          string  `json:"tags"`
}

// NewUploadRecord assembles the commit payload from the asset, the metadata and the stage outputs.
func NewUploadRecord(asset MediaAsset, meta UploadMetadata, video TranscodeResult, thumb *ThumbnailResult) UploadRecord {
	record := UploadRecord{
		VideoPath:   video.RemotePlaylistPath,
		FileSize:    asset.ByteSize,
		Length:      asset.DurationSeconds,
		Width:       asset.WidthPixels,
		Height:      asset.HeightPixels,
		Description: meta.Caption,
		Tags:        strings.Join(meta.Tags, ","),
	}
	if thumb != nil {
		record.ThumbnailPath = thumb.RemoteThumbnailPath
	}
	return record
}

// process_video response
type ProcessVideoResponse struct {
	PlaylistPath string `json:"playlist_path"`
}

// media/upload request, asks the backend for a presigned write target
type PresignRequest struct {
	BaseName string `json:"base_name"`
	Type     string `json:"type"`
}

type PresignResponse struct {
	UploadURL string `json:"upload_url"`
	FilePath  string `json:"file_path"`
}

// ErrorResponse is the structured error body returned by the backend.
type ErrorResponse struct {
	Error string `json:"error"`
}
