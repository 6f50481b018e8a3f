// Package export renders transcribed text into downloadable documents.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BaseName is the fixed file stem of every export.
const BaseName = "transcription"

// Format selects the document type.
type Format string

const (
	FormatText Format = "txt"
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// Formats lists supported formats in menu order.
var Formats = []Format{FormatDocx, FormatPDF, FormatText}

// ParseFormat accepts a format name or extension.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), ".")) {
	case "txt", "text":
		return FormatText, nil
	case "docx", "word":
		return FormatDocx, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", raw)
	}
}

// Label is the name shown in notifications.
func (f Format) Label() string {
	switch f {
	case FormatDocx:
		return "Word"
	case FormatPDF:
		return "PDF"
	default:
		return "Text"
	}
}

// Document is one rendered export ready to be saved.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Render produces the document for text in the given format.
func Render(format Format, text string) (Document, error) {
	var (
		data        []byte
		contentType string
		err         error
	)

	switch format {
	case FormatText:
		data, contentType = []byte(text), "text/plain;charset=utf-8"
	case FormatDocx:
		data, err = renderDocx(text)
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		data, err = renderPDF(text)
		contentType = "application/pdf"
	default:
		return Document{}, fmt.Errorf("unsupported export format: %q", format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("render %s: %w", format, err)
	}

	return Document{
		Name:        BaseName + "." + string(format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Saver is the platform file-save boundary. It returns where the
// document ended up; an empty path with nil error means the user cancelled.
type Saver interface {
	Save(ctx context.Context, doc Document) (string, error)
}

// DirSaver writes documents into a fixed directory.
type DirSaver struct {
	Dir string
}

// Save writes doc.Name under Dir, replacing an existing file.
func (s DirSaver) Save(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(s.Dir) == "" {
		return "", fmt.Errorf("export directory is empty")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(s.Dir, doc.Name)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", doc.Name, err)
	}
	return path, nil
}
