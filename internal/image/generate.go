package image

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoImage is returned when the web ui answered without a usable result.
var ErrNoImage = errors.New("web ui returned no image")

type Params struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

type Generator interface {
	Generate(context.Context, Params) ([]byte, error)
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
}

// DetectContentType sniffs data for the content type and file extension to
// store it under. Unknown data is stored as application/octet-stream.
func DetectContentType(data []byte) (string, string) {
	contentType := http.DetectContentType(data)
	if ext, ok := extensions[contentType]; ok {
		return contentType, ext
	}
	return "application/octet-stream", ".bin"
}

// Extensions lists every extension DetectContentType may return for an image.
func Extensions() []string {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		exts = append(exts, ext)
	}
	return exts
}
