package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateShortRunID returns the first 8 hex chars of a random UUID, used for run ids in logs and URLs.
func GenerateShortRunID() string {
	return strings.ReplaceAll(GenerateRandomUUID(), "-", "")[:8]
}
