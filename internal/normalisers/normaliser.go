package normalisers

import (
	"path/filepath"
	"sort"
	"strings"
)

// Result is the text extracted from one file.
type Result struct {
	// Title comes from document metadata. Empty when the file has none.
	Title string

	// Text is the readable content, one paragraph per line.
	Text string
}

// Normaliser extracts text from files of one format.
type Normaliser interface {
	// Extensions lists the lower-case file extensions handled, with the dot.
	Extensions() []string

	// Normalise extracts the text of data. name is only used for errors.
	Normalise(name string, data []byte) (Result, error)
}

// Registry selects a normaliser by file extension.
type Registry struct {
	byExt map[string]Normaliser
}

// NewRegistry registers ns in order. A later normaliser replaces an earlier
// one for the same extension.
func NewRegistry(ns ...Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]Normaliser)}
	for _, n := range ns {
		for _, ext := range n.Extensions() {
			r.byExt[strings.ToLower(ext)] = n
		}
	}
	return r
}

// For returns the normaliser for path's extension.
func (r *Registry) For(path string) (Normaliser, bool) {
	if r == nil {
		return nil, false
	}
	n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return n, ok
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	if r == nil {
		return nil
	}
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
