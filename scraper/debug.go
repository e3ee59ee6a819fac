package scraper

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// captureDebugArtifacts dumps a full-page screenshot and the rendered HTML
// for post-mortem inspection of empty results. Failures here are logged and
// swallowed; diagnostics must never break the scrape.
func (s *Scraper) captureDebugArtifacts(sess Session, rawHTML string) map[string]string {
	if err := os.MkdirAll(s.cfg.DebugDir, 0o755); err != nil {
		slog.Warn("debug: failed to create artifact dir", "dir", s.cfg.DebugDir, "error", err)
		return nil
	}

	stamp := time.Now().Format("20060102-150405")
	files := make(map[string]string, 2)

	htmlPath := filepath.Join(s.cfg.DebugDir, fmt.Sprintf("page-%s.html", stamp))
	if err := os.WriteFile(htmlPath, []byte(rawHTML), 0o644); err != nil {
		slog.Warn("debug: failed to write html dump", "path", htmlPath, "error", err)
	} else {
		files["html"] = htmlPath
	}

	if png, err := sess.Screenshot(); err != nil {
		slog.Warn("debug: screenshot failed", "error", err)
	} else {
		pngPath := filepath.Join(s.cfg.DebugDir, fmt.Sprintf("page-%s.png", stamp))
		if err := os.WriteFile(pngPath, png, 0o644); err != nil {
			slog.Warn("debug: failed to write screenshot", "path", pngPath, "error", err)
		} else {
			files["screenshot"] = pngPath
		}
	}

	if len(files) == 0 {
		return nil
	}
	return files
}
