package domain

// SourceType identifies where a piece of source text came from.
type SourceType string

// Known source types.
const (
	SourceTypeDocument SourceType = "document"
	SourceTypeWiki     SourceType = "wiki"
	SourceTypeWorkItem SourceType = "work_item"
	SourceTypeSprint   SourceType = "sprint"

	// SourceTypeProject marks evidence taken from configured project metadata.
	// It never labels chunk input.
	SourceTypeProject SourceType = "project"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeDocument, SourceTypeWiki, SourceTypeWorkItem, SourceTypeSprint:
		return true
	default:
		return false
	}
}

// SourceText is the input to the chunker: one document or wiki page after
// text extraction.
type SourceText struct {
	// Text is the raw text content.
	Text string

	// SourceType is the kind of source.
	SourceType SourceType

	// DocumentName is the human-readable name (file name or page title).
	DocumentName string

	// DocumentID is set for uploaded documents.
	DocumentID string

	// WikiPageID is set for wiki pages.
	WikiPageID string
}

// SourceID returns the identifier the retrieval index uses for this source.
// Falls back to the document name when no id is set.
func (s SourceText) SourceID() string {
	switch {
	case s.DocumentID != "":
		return s.DocumentID
	case s.WikiPageID != "":
		return s.WikiPageID
	default:
		return s.DocumentName
	}
}

// ContentType classifies the dominant shape of a chunk's text.
type ContentType string

// Content types detected by the chunker.
const (
	ContentTypeText  ContentType = "text"
	ContentTypeTable ContentType = "table"
	ContentTypeList  ContentType = "list"
	ContentTypeCode  ContentType = "code"
	ContentTypeMixed ContentType = "mixed"
)

// URLKind classifies a URL found in chunk text.
type URLKind string

// URL kinds recognised by the chunker.
const (
	URLKindWorkItem    URLKind = "work_item"
	URLKindWiki        URLKind = "wiki"
	URLKindRepository  URLKind = "repository"
	URLKindPullRequest URLKind = "pull_request"
	URLKindDocument    URLKind = "document"
	URLKindExternal    URLKind = "external"
)

// ChunkURL is a URL found in a chunk together with its classification.
type ChunkURL struct {
	URL  string  `json:"url"`
	Kind URLKind `json:"kind"`
}

// ChunkMetadata describes where a chunk came from and what it contains.
type ChunkMetadata struct {
	SourceType     SourceType  `json:"sourceType"`
	DocumentID     string      `json:"documentId,omitempty"`
	WikiPageID     string      `json:"wikiPageId,omitempty"`
	DocumentName   string      `json:"documentName"`
	SectionHeading string      `json:"sectionHeading,omitempty"`
	ContentType    ContentType `json:"contentType"`
	Position       int         `json:"position"`
	URLs           []ChunkURL  `json:"urls"`
}

// Chunk is a bounded, overlapping segment of source text.
// Chunks are immutable once produced.
type Chunk struct {
	// Content is the chunk text, including any overlap prefix.
	Content string `json:"content"`

	// ChunkIndex is the 0-based position in the produced sequence.
	ChunkIndex int `json:"chunkIndex"`

	// TokenCount is the estimated token count of Content.
	TokenCount int `json:"tokenCount"`

	// Metadata describes the chunk.
	Metadata ChunkMetadata `json:"metadata"`
}

// IndexedChunk is a chunk plus its embedding, as handed to the retrieval index.
type IndexedChunk struct {
	// ID is the row identifier in the index.
	ID string

	// SourceID is the document or wiki page id the chunk belongs to.
	SourceID string

	// Chunk is the chunk itself.
	Chunk Chunk

	// Embedding is the vector representation. Nil when no embedding service is configured.
	Embedding []float32
}
