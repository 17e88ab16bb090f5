// Package chunker provides a semantic text chunking processor.
//
// Text is split on a list of separators, coarsest first, and re-packed into
// segments bounded by an estimated token budget. Segments that no separator
// can reduce are hard split on word boundaries. Small leftovers are merged
// into their neighbour, and each segment but the first is prefixed with the
// word tail of its predecessor.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
)

// Ensure Processor implements the interface.
var _ driving.Chunker = (*Processor)(nil)

// Defaults in estimated tokens.
const (
	DefaultTargetSize = 300
	DefaultMaxSize    = 500
	DefaultOverlap    = 40
)

// carryRatio is the share of the target size below which a segment is merged
// into its successor.
const carryRatio = 0.35

// DefaultSeparators returns the separator list used when none is configured:
// markdown headings, paragraph breaks, line breaks, sentence ends.
func DefaultSeparators() []string {
	return []string{"\n# ", "\n## ", "\n### ", "\n\n", "\n", ". ", "? ", "! ", "; "}
}

// Processor splits source text into bounded, overlapping chunks.
type Processor struct {
	targetSize int
	maxSize    int
	overlap    int
	separators []string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithTargetSize sets the preferred chunk size in estimated tokens.
func WithTargetSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.targetSize = size
		}
	}
}

// WithMaxSize sets the upper chunk bound in estimated tokens.
func WithMaxSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.maxSize = size
		}
	}
}

// WithOverlap sets the number of words carried over from the previous chunk.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator list. Order is coarsest first.
func WithSeparators(seps []string) Option {
	return func(p *Processor) {
		var clean []string
		for _, s := range seps {
			if s != "" {
				clean = append(clean, s)
			}
		}
		if len(clean) > 0 {
			p.separators = clean
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		targetSize: DefaultTargetSize,
		maxSize:    DefaultMaxSize,
		overlap:    DefaultOverlap,
		separators: DefaultSeparators(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.maxSize < p.targetSize {
		p.maxSize = p.targetSize
	}
	if p.overlap >= p.maxSize {
		p.overlap = p.maxSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// segment is a piece of text plus the whitespace that separated it from the
// piece before it in the source.
type segment struct {
	text string
	lead string
}

// Chunk splits the input into chunks. Empty input yields no chunks.
// The result depends only on the input and the processor options.
func (p *Processor) Chunk(input domain.SourceText) []domain.Chunk {
	text := normalizeWhitespace(input.Text)
	if text == "" {
		return nil
	}

	var segs []segment
	if EstimateTokens(text) <= p.maxSize {
		segs = []segment{{text: text}}
	} else {
		segs = p.split(text)
		segs = p.hardSplit(segs)
		segs = p.repack(segs)
	}

	contents := p.applyOverlap(segs)

	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = domain.Chunk{
			Content:    content,
			ChunkIndex: i,
			TokenCount: EstimateTokens(content),
			Metadata: domain.ChunkMetadata{
				SourceType:     input.SourceType,
				DocumentID:     input.DocumentID,
				WikiPageID:     input.WikiPageID,
				DocumentName:   input.DocumentName,
				SectionHeading: DetectHeading(segs[i].text),
				ContentType:    DetectContentType(segs[i].text),
				Position:       i,
				URLs:           ExtractURLs(content),
			},
		}
	}
	return chunks
}

// split runs every separator over the segments still above the max size.
func (p *Processor) split(text string) []segment {
	segs := []segment{{text: text}}
	for _, sep := range p.separators {
		next := make([]segment, 0, len(segs))
		for _, s := range segs {
			if EstimateTokens(s.text) <= p.maxSize {
				next = append(next, s)
				continue
			}
			parts := splitKeep(s.text, sep)
			if len(parts) <= 1 {
				next = append(next, s)
				continue
			}
			packed := p.pack(parts, joinerFor(sep))
			packed[0].lead = s.lead
			next = append(next, packed...)
		}
		segs = next
	}
	return segs
}

// pack greedily joins parts into segments no larger than the max size,
// closing a segment once it reaches the target size.
func (p *Processor) pack(parts []string, joiner string) []segment {
	var out []segment
	current := ""
	for _, part := range parts {
		if current == "" {
			current = part
			continue
		}
		candidate := current + joiner + part
		if EstimateTokens(current) >= p.targetSize || EstimateTokens(candidate) > p.maxSize {
			out = append(out, segment{text: current, lead: joiner})
			current = part
			continue
		}
		current = candidate
	}
	if current != "" {
		out = append(out, segment{text: current, lead: joiner})
	}
	return out
}

// hardSplit cuts segments still above the max size on word boundaries.
func (p *Processor) hardSplit(segs []segment) []segment {
	maxRunes := p.maxSize * charsPerToken
	out := make([]segment, 0, len(segs))
	for _, s := range segs {
		if EstimateTokens(s.text) <= p.maxSize {
			out = append(out, s)
			continue
		}
		lead := s.lead
		var b strings.Builder
		n := 0
		flush := func() {
			if b.Len() == 0 {
				return
			}
			out = append(out, segment{text: b.String(), lead: lead})
			lead = " "
			b.Reset()
			n = 0
		}
		for _, word := range strings.Fields(s.text) {
			for _, piece := range splitLongWord(word, maxRunes) {
				size := utf8.RuneCountInString(piece)
				if n > 0 && n+1+size > maxRunes {
					flush()
				}
				if n > 0 {
					b.WriteByte(' ')
					n++
				}
				b.WriteString(piece)
				n += size
			}
		}
		flush()
	}
	return out
}

// repack merges small carry segments into their successor.
func (p *Processor) repack(segs []segment) []segment {
	if len(segs) <= 1 {
		return segs
	}
	threshold := float64(p.targetSize) * carryRatio
	out := make([]segment, 0, len(segs))
	carry := segs[0]
	for _, s := range segs[1:] {
		if float64(EstimateTokens(carry.text)) < threshold {
			merged := carry.text + leadOrSpace(s.lead) + s.text
			if EstimateTokens(merged) <= p.maxSize {
				carry.text = merged
				continue
			}
		}
		out = append(out, carry)
		carry = s
	}
	return append(out, carry)
}

// applyOverlap prefixes every segment but the first with the trailing words
// of the previous segment. The tail shrinks to keep the chunk within bounds.
func (p *Processor) applyOverlap(segs []segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.text
		if i == 0 || p.overlap == 0 {
			continue
		}
		words := strings.Fields(segs[i-1].text)
		if len(words) > p.overlap {
			words = words[len(words)-p.overlap:]
		}
		for len(words) > 0 {
			candidate := strings.Join(words, " ") + " " + s.text
			if EstimateTokens(candidate) <= p.maxSize {
				out[i] = candidate
				break
			}
			words = words[1:]
		}
	}
	return out
}

// splitKeep splits text on sep. Leading non-space characters of the separator
// stay with the preceding part so no content is dropped.
func splitKeep(text, sep string) []string {
	keep := len(sep) - len(strings.TrimLeftFunc(sep, func(r rune) bool { return !unicode.IsSpace(r) }))
	var parts []string
	rest := text
	for {
		idx := strings.Index(rest, sep)
		if idx < 0 {
			break
		}
		cut := idx + keep
		if part := strings.TrimSpace(rest[:cut]); part != "" {
			parts = append(parts, part)
		}
		rest = rest[cut:]
		if keep == 0 {
			// Drop the leading whitespace run so the separator is consumed.
			rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		}
	}
	if part := strings.TrimSpace(rest); part != "" {
		parts = append(parts, part)
	}
	return parts
}

// joinerFor returns the whitespace used to re-join parts split on sep.
func joinerFor(sep string) string {
	switch {
	case strings.Contains(sep, "\n\n"):
		return "\n\n"
	case strings.Contains(sep, "\n"):
		return "\n"
	default:
		return " "
	}
}

func leadOrSpace(lead string) string {
	if lead == "" {
		return " "
	}
	return lead
}

func splitLongWord(word string, maxRunes int) []string {
	if maxRunes <= 0 || utf8.RuneCountInString(word) <= maxRunes {
		return []string{word}
	}
	runes := []rune(word)
	var out []string
	for len(runes) > maxRunes {
		out = append(out, string(runes[:maxRunes]))
		runes = runes[maxRunes:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
