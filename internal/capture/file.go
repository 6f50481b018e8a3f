package capture

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"audio-transcription/internal/domain"
)

// mediaTypes covers containers the system MIME table often lacks.
var mediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".weba": "audio/webm",
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// ImportFile wraps a user-picked file as an artifact without re-encoding.
// The declared type comes from the extension; unknown extensions are sniffed.
func ImportFile(path string) (domain.Artifact, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.Artifact{}, ErrNoFileSelected
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("read media file: %w", err)
	}

	contentType := DeclaredContentType(path, data)
	return domain.Artifact{
		Name:        filepath.Base(path),
		Kind:        domain.KindFromContentType(contentType),
		ContentType: contentType,
		Path:        path,
		Data:        data,
	}, nil
}

// DeclaredContentType resolves the MIME type of a picked file.
func DeclaredContentType(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if known, ok := mediaTypes[ext]; ok {
		return known
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
		return byExt
	}
	return mimetype.Detect(data).String()
}
