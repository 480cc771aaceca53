// Package archive saves raw per-run artifacts to disk for later audit.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/realcrm/lead-harvester/internal/pipeline"
)

// FileSystemSink writes raw HTML and parsed JSON under a dated directory
// tree: <root>/<YYYY-MM-DD>/html and <root>/<YYYY-MM-DD>/json.
type FileSystemSink struct {
	root   string
	clock  pipeline.Clock
	logger *zap.Logger
}

// NewFileSystemSink returns a sink rooted at dir.
func NewFileSystemSink(root string, clock pipeline.Clock, logger *zap.Logger) (*FileSystemSink, error) {
	if root == "" {
		return nil, fmt.Errorf("archive root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir %s: %w", root, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemSink{root: root, clock: clock, logger: logger}, nil
}

// SaveHTML writes one raw HTML snapshot and returns its path.
func (s *FileSystemSink) SaveHTML(ctx context.Context, name string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("empty page body")
	}
	return s.write(ctx, "html", name+".html", body)
}

// SaveJSON marshals payload and writes it next to the day's HTML snapshots.
func (s *FileSystemSink) SaveJSON(ctx context.Context, name string, payload any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.write(ctx, "json", name+".json", data)
}

func (s *FileSystemSink) write(ctx context.Context, kind, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	day := s.clock.Now().Format("2006-01-02")
	dir := filepath.Join(s.root, day, kind)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create %s dir: %w", kind, err)
	}
	target := filepath.Join(dir, filename)
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	s.logger.Debug("archived artifact", zap.String("path", target))
	return target, nil
}
