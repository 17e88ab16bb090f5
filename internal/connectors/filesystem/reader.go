// Package filesystem reads project documents and wiki pages from a local
// directory as chunker input.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/normalisers"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/normalisers/docx"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/normalisers/html"
)

// MaxFileSize is the largest file read, in bytes.
const MaxFileSize = 10 << 20

// ErrUnsupported is returned for files the reader does not handle.
var ErrUnsupported = errors.New("filesystem: unsupported file")

// DefaultExtensions are the plain text formats read as-is by default.
func DefaultExtensions() []string {
	return []string{".txt", ".md", ".markdown", ".csv", ".json", ".yaml", ".yml"}
}

// DefaultNormalisers converts HTML pages and Word documents.
func DefaultNormalisers() *normalisers.Registry {
	return normalisers.NewRegistry(html.New(), docx.New())
}

// Reader turns files under a root directory into source text.
type Reader struct {
	root        string
	exts        map[string]bool
	normalisers *normalisers.Registry
	sourceType  domain.SourceType
}

// Option configures a Reader.
type Option func(*Reader)

// WithExtensions replaces the accepted extensions.
func WithExtensions(exts ...string) Option {
	return func(r *Reader) {
		if len(exts) == 0 {
			return
		}
		r.exts = make(map[string]bool, len(exts))
		for _, e := range exts {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			r.exts[e] = true
		}
	}
}

// WithNormalisers replaces the registry used for non-plain-text formats.
// nil reads only the plain text extensions.
func WithNormalisers(reg *normalisers.Registry) Option {
	return func(r *Reader) { r.normalisers = reg }
}

// WithSourceType labels every file with t instead of guessing from the path.
func WithSourceType(t domain.SourceType) Option {
	return func(r *Reader) {
		if t.IsValid() {
			r.sourceType = t
		}
	}
}

// New creates a reader rooted at root.
func New(root string, opts ...Option) *Reader {
	r := &Reader{root: filepath.Clean(root), normalisers: DefaultNormalisers()}
	WithExtensions(DefaultExtensions()...)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the directory the reader serves.
func (r *Reader) Root() string {
	return r.root
}

// Accepts reports whether path would be read: a visible file with an
// accepted extension or a registered normaliser.
func (r *Reader) Accepts(path string) bool {
	if isHidden(path) {
		return false
	}
	if r.exts[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	_, ok := r.normalisers.For(path)
	return ok
}

// SourceID returns the index id of path: its slash-separated path relative
// to the root. Files outside the root keep their cleaned path.
func (r *Reader) SourceID(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}

// Read loads a single file.
func (r *Reader) Read(path string) (domain.SourceText, error) {
	if !r.Accepts(path) {
		return domain.SourceText{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.SourceText{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.SourceText{}, fmt.Errorf("%w: %s is a directory", ErrUnsupported, path)
	}
	if info.Size() > MaxFileSize {
		return domain.SourceText{}, fmt.Errorf("%w: %s is larger than %d bytes", ErrUnsupported, path, MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceText{}, fmt.Errorf("read %s: %w", path, err)
	}

	text := domain.SourceText{
		SourceType:   r.typeOf(path),
		DocumentName: filepath.Base(path),
	}
	if n, ok := r.normalisers.For(path); ok && !r.exts[strings.ToLower(filepath.Ext(path))] {
		res, err := n.Normalise(filepath.Base(path), data)
		if err != nil {
			return domain.SourceText{}, fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
		text.Text = res.Text
		if res.Title != "" {
			text.DocumentName = res.Title
		}
	} else {
		text.Text = string(data)
	}
	if !utf8.ValidString(text.Text) {
		return domain.SourceText{}, fmt.Errorf("%w: %s is not UTF-8 text", ErrUnsupported, path)
	}

	if text.SourceType == domain.SourceTypeWiki {
		text.WikiPageID = r.SourceID(path)
	} else {
		text.DocumentID = r.SourceID(path)
	}
	return text, nil
}

// Scan reads every accepted file under the root. Unreadable files are
// reported in the returned map and skipped.
func (r *Reader) Scan(ctx context.Context) ([]domain.SourceText, map[string]error, error) {
	return r.ScanDir(ctx, r.root)
}

// ScanDir reads every accepted file under dir. Source ids stay relative to
// the reader root. Hidden directories are skipped.
func (r *Reader) ScanDir(ctx context.Context, dir string) ([]domain.SourceText, map[string]error, error) {
	var out []domain.SourceText
	failures := make(map[string]error)
	dir = filepath.Clean(dir)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !r.Accepts(path) {
			return nil
		}
		text, err := r.Read(path)
		if err != nil {
			failures[r.SourceID(path)] = err
			return nil
		}
		out = append(out, text)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return out, failures, nil
}

// typeOf labels files under a "wiki" directory as wiki pages.
func (r *Reader) typeOf(path string) domain.SourceType {
	if r.sourceType != "" {
		return r.sourceType
	}
	for _, part := range strings.Split(r.SourceID(path), "/") {
		if strings.EqualFold(part, "wiki") {
			return domain.SourceTypeWiki
		}
	}
	return domain.SourceTypeDocument
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
