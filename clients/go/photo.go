package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// maxPhotoBytes is the largest local image accepted before encoding.
const maxPhotoBytes = 10 * 1024 * 1024

var errPhotoTooLarge = errors.New("file is too large, please select an image under 10MB")

// loadPhoto resolves the --photo flag. URLs pass through unchanged; a local
// file is checked for size and type and embedded as a data: URL.
func loadPhoto(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return ref, nil
	}

	info, err := os.Stat(ref)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if info.Size() > maxPhotoBytes {
		return "", errPhotoTooLarge
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}

	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%s does not look like an image (%s)", ref, mediaType)
	}

	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
