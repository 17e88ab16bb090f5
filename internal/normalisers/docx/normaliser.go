package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ normalisers.Normaliser = (*Normaliser)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// maxPartSize bounds how much of one archive member is decompressed.
const maxPartSize = 32 << 20

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".docx"}
}

// Normalise reads word/document.xml. Paragraphs become lines and table
// cells of a row are joined with " | ".
func (n *Normaliser) Normalise(name string, data []byte) (normalisers.Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return normalisers.Result{}, fmt.Errorf("%w: %s is not a docx archive", domain.ErrInvalidInput, name)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return normalisers.Result{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, name, err)
	}
	text, err := documentText(body)
	if err != nil {
		return normalisers.Result{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, name, err)
	}

	return normalisers.Result{Title: coreTitle(reader), Text: text}, nil
}

var errMissingPart = errors.New("missing part")

func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxPartSize))
	}
	return nil, fmt.Errorf("%w %s", errMissingPart, name)
}

// documentText walks the WordprocessingML tokens. Elements are matched by
// local name so any namespace prefix works.
func documentText(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		lines   []string
		cells   []string
		line    strings.Builder
		cell    strings.Builder
		inText  bool
		inTable int
	)
	flushLine := func() {
		s := strings.TrimSpace(line.String())
		line.Reset()
		if s == "" {
			return
		}
		if inTable > 0 {
			if cell.Len() > 0 {
				cell.WriteByte(' ')
			}
			cell.WriteString(s)
			return
		}
		lines = append(lines, s)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte(' ')
			case "br", "cr":
				flushLine()
			case "tbl":
				inTable++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushLine()
			case "tc":
				cells = append(cells, cell.String())
				cell.Reset()
			case "tr":
				if strings.TrimSpace(strings.Join(cells, "")) != "" {
					lines = append(lines, strings.Join(cells, " | "))
				}
				cells = cells[:0]
			case "tbl":
				inTable--
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	flushLine()
	return strings.Join(lines, "\n"), nil
}

// coreTitle returns dc:title from docProps/core.xml, or "".
func coreTitle(reader *zip.Reader) string {
	data, err := readPart(reader, corePart)
	if err != nil {
		return ""
	}
	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
