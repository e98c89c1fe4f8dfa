package tool

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/moyoez/reelpost/types"
)

const (
	MaxCaptionLength = 50
	MaxTags          = 3
	MaxTagLength     = 15
)

// ValidationError reports caller-supplied metadata that breaks the caption or tag limits.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateMetadata checks the caption and tag limits of the upload form.
// Runs before a pipeline is started; the pipeline itself trusts its input.
func ValidateMetadata(meta types.UploadMetadata) error {
	if utf8.RuneCountInString(meta.Caption) > MaxCaptionLength {
		return &ValidationError{Field: "caption", Message: fmt.Sprintf("must be at most %d characters", MaxCaptionLength)}
	}
	if len(meta.Tags) > MaxTags {
		return &ValidationError{Field: "tags", Message: fmt.Sprintf("you can only add up to %d tags", MaxTags)}
	}
	for i, tag := range meta.Tags {
		if strings.TrimSpace(tag) == "" {
			return &ValidationError{Field: fmt.Sprintf("tags[%d]", i), Message: "tag cannot be empty"}
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return &ValidationError{Field: fmt.Sprintf("tags[%d]", i), Message: fmt.Sprintf("must be at most %d characters", MaxTagLength)}
		}
	}
	return nil
}

// ParseTags splits a comma separated flag value, trimming blanks.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.TrimSpace(p))
	}
	return tags
}
