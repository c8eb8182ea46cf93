// Package filesystem provides a document source over a local regulation corpus.
//
// The folder structure below the root carries meaning: every directory
// between the root and a file becomes a hierarchy label of that file
// (faculty, degree, programme and so on).
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.DocumentSource = (*Connector)(nil)

// Connector walks and watches a directory tree.
type Connector struct {
	rootPath   string
	extensions []string
	watcher    *fsnotify.Watcher
}

// Option configures the connector.
type Option func(*Connector)

// WithExtensions limits the walk to files with these extensions.
// An empty list accepts every file.
func WithExtensions(exts []string) Option {
	return func(c *Connector) {
		c.extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			c.extensions = append(c.extensions, ext)
		}
	}
}

// New creates a filesystem connector rooted at rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{rootPath: filepath.Clean(rootPath)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromSettings creates a connector from ingestion settings.
func FromSettings(s domain.IngestSettings) *Connector {
	return New(s.DocumentsDir, WithExtensions(s.Extensions))
}

// Root returns the corpus root.
func (c *Connector) Root() string {
	return c.rootPath
}

// FullSync walks the corpus and emits every accepted file.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		info, err := os.Stat(c.rootPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				errs <- fmt.Errorf("%w: directory does not exist: %s", domain.ErrConfiguration, c.rootPath)
				return
			}
			errs <- fmt.Errorf("stat %s: %w", c.rootPath, err)
			return
		}
		if !info.IsDir() {
			errs <- fmt.Errorf("%w: not a directory: %s", domain.ErrConfiguration, c.rootPath)
			return
		}

		walkErr := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("Cannot access %s: %v", path, err)
				return nil
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() || !c.accepts(path) {
				return nil
			}

			raw, err := c.ReadFile(path)
			if err != nil {
				logger.Warn("Cannot read %s: %v", path, err)
				return nil
			}

			select {
			case docs <- *raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
			errs <- walkErr
		}
	}()

	return docs, errs
}

// Watch streams changes below the root until ctx is cancelled.
// Directories created while watching are added to the watch set.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addRecursive(watcher, c.rootPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(filepath.Base(event.Name)) {
						if err := c.addRecursive(watcher, event.Name); err != nil {
							logger.Warn("Cannot watch %s: %v", event.Name, err)
						}
						continue
					}
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops the watcher, if any.
func (c *Connector) Close() error {
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func (c *Connector) addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleFsEvent converts a watcher event into a change.
// Directories, hidden files, filtered extensions and chmod-only events yield nil.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if isHidden(c.relative(event.Name)) || !c.accepts(event.Name) {
		return nil
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: c.describe(event.Name),
		}
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	default:
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return nil
	}
	raw, err := c.ReadFile(event.Name)
	if err != nil {
		logger.Debug("Cannot read %s: %v", event.Name, err)
		return nil
	}
	return &domain.RawDocumentChange{Type: changeType, Document: *raw}
}

func (c *Connector) accepts(path string) bool {
	if len(c.extensions) == 0 {
		return true
	}
	return slices.Contains(c.extensions, strings.ToLower(filepath.Ext(path)))
}

// describe fills everything but content for path.
func (c *Connector) describe(path string) domain.RawDocument {
	rel := c.relative(path)

	return domain.RawDocument{
		URI:      path,
		Path:     rel,
		MIMEType: detectMIMEType(path),
		Labels:   labelsFor(rel),
		Metadata: map[string]any{
			"filename": filepath.Base(path),
		},
	}
}

// ReadFile loads one file as a raw document with its labels relative to the root.
func (c *Connector) ReadFile(path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := c.describe(path)
	raw.Content = content
	raw.ModTime = info.ModTime()
	raw.Metadata["size"] = info.Size()
	return &raw, nil
}

// relative returns path relative to the root with forward slashes.
func (c *Connector) relative(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// labelsFor returns the directory segments of a slash-separated relative path.
func labelsFor(rel string) []string {
	dir := pathDir(rel)
	if dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}

func pathDir(rel string) string {
	i := strings.LastIndexByte(rel, '/')
	if i < 0 {
		return ""
	}
	return rel[:i]
}

// detectMIMEType guesses the content type from the file extension.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case "":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", ".text":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	case ".html", ".htm":
		return "text/html"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = mimeType[:i]
		}
		return strings.TrimSpace(mimeType)
	}
	return "application/octet-stream"
}

// isHidden reports whether any path segment starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
