package media

import (
	"path/filepath"
	"strings"

	"github.com/sells-group/factcheck/internal/model"
)

var imageMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// ClassifyFile classifies path by its extension, case-insensitively.
func ClassifyFile(path string) model.MediaType {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageMIME[ext]; ok {
		return model.MediaTypeImage
	}
	if videoExts[ext] {
		return model.MediaTypeVideo
	}
	return model.MediaTypeUnknown
}

// mimeType returns the image MIME type for path, defaulting to JPEG.
func mimeType(path string) string {
	if m, ok := imageMIME[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return "image/jpeg"
}
