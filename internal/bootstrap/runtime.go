package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"audio-transcription/internal/export"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// dialogSaver asks the user where to write an exported document.
type dialogSaver struct {
	app *App
}

// Save shows a save dialog defaulting to the export directory. A dismissed
// dialog returns an empty path.
func (s dialogSaver) Save(ctx context.Context, doc export.Document) (string, error) {
	runtimeCtx, err := s.app.runtimeContext()
	if err != nil {
		return "", err
	}

	s.app.mu.Lock()
	dir := s.app.Settings.ExportDir
	s.app.mu.Unlock()
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create export directory: %w", err)
		}
	}

	ext := filepath.Ext(doc.Name)
	path, err := wailsruntime.SaveFileDialog(runtimeCtx, wailsruntime.SaveDialogOptions{
		Title:                "Save transcription",
		DefaultDirectory:     dir,
		DefaultFilename:      doc.Name,
		CanCreateDirectories: true,
		Filters: []wailsruntime.FileFilter{{
			DisplayName: strings.ToUpper(strings.TrimPrefix(ext, ".")),
			Pattern:     "*" + ext,
		}},
	})
	if err != nil {
		return "", err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// runtimeClipboard copies through the webview runtime.
type runtimeClipboard struct {
	app *App
}

func (c runtimeClipboard) WriteText(text string) error {
	ctx, err := c.app.runtimeContext()
	if err != nil {
		return err
	}
	return wailsruntime.ClipboardSetText(ctx, text)
}
