package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// paragraph returns a paragraph of n four-character words, estimated at n tokens.
func paragraph(i, n int) string {
	return strings.TrimSpace(strings.Repeat(fmt.Sprintf("p%dw ", i), n))
}

func source(text string) domain.SourceText {
	return domain.SourceText{
		Text:         text,
		SourceType:   domain.SourceTypeDocument,
		DocumentName: "report.docx",
		DocumentID:   "doc-1",
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultTargetSize, p.targetSize)
		assert.Equal(t, DefaultMaxSize, p.maxSize)
		assert.Equal(t, DefaultOverlap, p.overlap)
		assert.Equal(t, DefaultSeparators(), p.separators)
	})

	t.Run("max below target is raised", func(t *testing.T) {
		p := New(WithTargetSize(500), WithMaxSize(100))
		assert.Equal(t, 500, p.maxSize)
	})

	t.Run("overlap not less than max is reduced", func(t *testing.T) {
		p := New(WithMaxSize(100), WithTargetSize(80), WithOverlap(100))
		assert.Equal(t, 25, p.overlap)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithTargetSize(0), WithMaxSize(-1), WithOverlap(-5), WithSeparators([]string{""}))
		assert.Equal(t, DefaultTargetSize, p.targetSize)
		assert.Equal(t, DefaultMaxSize, p.maxSize)
		assert.Equal(t, DefaultOverlap, p.overlap)
		assert.Equal(t, DefaultSeparators(), p.separators)
	})
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "chunker", New().Name())
}

func TestChunk_EmptyInput(t *testing.T) {
	p := New()
	assert.Empty(t, p.Chunk(source("")))
	assert.Empty(t, p.Chunk(source(" \n\r\n\t ")))
}

func TestChunk_SingleSegmentWhenWithinMax(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("abcd ", 800))
	require.Len(t, text, 3999)

	p := New(WithTargetSize(800), WithMaxSize(1000), WithOverlap(50))
	chunks := p.Chunk(source(text))

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, 1000, chunks[0].TokenCount)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
}

func TestChunk_ParagraphsPackedWithinMax(t *testing.T) {
	paras := make([]string, 5)
	for i := range paras {
		paras[i] = paragraph(i, 200)
	}
	text := strings.Join(paras, "\n\n")

	p := New(WithTargetSize(300), WithMaxSize(400), WithOverlap(0))
	chunks := p.Chunk(source(text))

	require.NotEmpty(t, chunks)
	next := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, c.TokenCount, 400)
		count := 0
		for next < len(paras) && strings.Contains(c.Content, paras[next]) {
			count++
			next++
		}
		assert.GreaterOrEqual(t, count, 1, "chunk %d holds no whole paragraph", c.ChunkIndex)
		assert.LessOrEqual(t, count, 2, "chunk %d holds too many paragraphs", c.ChunkIndex)
	}
	assert.Equal(t, len(paras), next, "paragraphs missing or out of order")
}

func TestChunk_OverlapUsesPreviousTail(t *testing.T) {
	paras := make([]string, 5)
	for i := range paras {
		paras[i] = paragraph(i, 100)
	}

	p := New(WithTargetSize(150), WithMaxSize(300), WithOverlap(5))
	chunks := p.Chunk(source(strings.Join(paras, "\n\n")))

	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[0].Content, paras[0]))
	tail := strings.TrimSpace(strings.Repeat("p1w ", 5))
	assert.True(t, strings.HasPrefix(chunks[1].Content, tail+" "+paras[2]))
	for _, c := range chunks {
		assert.LessOrEqual(t, c.TokenCount, 300)
	}
}

func TestChunk_OverlapTrimmedToMaxSize(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("abc ", 1000))

	plain := New(WithTargetSize(80), WithMaxSize(100), WithOverlap(0)).Chunk(source(text))
	chunks := New(WithTargetSize(80), WithMaxSize(100), WithOverlap(50)).Chunk(source(text))

	require.Len(t, chunks, len(plain))
	for i, c := range chunks {
		assert.LessOrEqual(t, c.TokenCount, 100)
		assert.True(t, strings.HasSuffix(c.Content, plain[i].Content))
	}
}

func TestChunk_HardSplitWithoutSeparators(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("abc ", 1000))

	p := New(WithTargetSize(80), WithMaxSize(100), WithOverlap(0))
	chunks := p.Chunk(source(text))

	require.Len(t, chunks, 10)
	for _, c := range chunks {
		assert.LessOrEqual(t, c.TokenCount, 100)
	}
	var joined []string
	for _, c := range chunks {
		joined = append(joined, c.Content)
	}
	assert.Equal(t, text, strings.Join(joined, " "))
}

func TestChunk_HardSplitLongWord(t *testing.T) {
	text := strings.Repeat("x", 1000)

	p := New(WithTargetSize(40), WithMaxSize(50), WithOverlap(0))
	chunks := p.Chunk(source(text))

	require.Len(t, chunks, 5)
	for _, c := range chunks {
		assert.Equal(t, 50, c.TokenCount)
	}
}

func TestChunk_SmallCarryMerged(t *testing.T) {
	text := "Intro.\n\n" + paragraph(1, 120) + "\n\n" + paragraph(2, 120)

	p := New(WithTargetSize(100), WithMaxSize(150), WithOverlap(0))
	chunks := p.Chunk(source(text))

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Intro."))
	assert.Contains(t, chunks[0].Content, paragraph(1, 120))
}

func TestChunk_BoundAndNoDataLoss(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Relatório mensal\n\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "Sentence %d covers the sprint work in detail. It mentions item %d! Why? Because; reasons.\n", i, i)
		if i%5 == 0 {
			b.WriteString("\n\n\n- bullet one\n- bullet two\n\n")
		}
		if i%7 == 0 {
			b.WriteString("## Section " + fmt.Sprint(i) + "\n")
		}
	}
	b.WriteString(strings.Repeat("z", 900))
	text := b.String()

	for _, max := range []int{40, 80, 200} {
		t.Run(fmt.Sprint(max), func(t *testing.T) {
			p := New(WithTargetSize(max*3/4), WithMaxSize(max), WithOverlap(0))
			chunks := p.Chunk(source(text))

			var all strings.Builder
			for i, c := range chunks {
				assert.LessOrEqual(t, c.TokenCount, max)
				assert.Equal(t, EstimateTokens(c.Content), c.TokenCount)
				assert.Equal(t, i, c.ChunkIndex)
				assert.Equal(t, i, c.Metadata.Position)
				all.WriteString(c.Content)
			}
			assert.Equal(t, stripSpace(text), stripSpace(all.String()))
		})
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma. Delta epsilon!\n\n| a | b |\n| 1 | 2 |\n", 60)
	p := New(WithTargetSize(60), WithMaxSize(90), WithOverlap(8))

	first := p.Chunk(source(text))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.Chunk(source(text)))
	}
	assert.Equal(t, first, New(WithTargetSize(60), WithMaxSize(90), WithOverlap(8)).Chunk(source(text)))
}

func TestChunk_Metadata(t *testing.T) {
	in := domain.SourceText{
		Text:         "# Overview\n\nSee https://dev.azure.com/org/proj/_workitems/edit/42 for details.",
		SourceType:   domain.SourceTypeWiki,
		DocumentName: "Home",
		WikiPageID:   "wiki-7",
	}

	chunks := New().Chunk(in)

	require.Len(t, chunks, 1)
	md := chunks[0].Metadata
	assert.Equal(t, domain.SourceTypeWiki, md.SourceType)
	assert.Equal(t, "wiki-7", md.WikiPageID)
	assert.Empty(t, md.DocumentID)
	assert.Equal(t, "Home", md.DocumentName)
	assert.Equal(t, "Overview", md.SectionHeading)
	assert.Equal(t, domain.ContentTypeText, md.ContentType)
	require.Len(t, md.URLs, 1)
	assert.Equal(t, domain.URLKindWorkItem, md.URLs[0].Kind)
}

func TestChunk_NormalizesWhitespace(t *testing.T) {
	chunks := New().Chunk(source("  line one   \r\nline two\r\n\r\n\r\n\r\nline three  "))

	require.Len(t, chunks, 1)
	assert.Equal(t, "line one\nline two\n\nline three", chunks[0].Content)
}
