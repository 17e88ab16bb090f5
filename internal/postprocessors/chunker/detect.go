package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// charsPerToken is the divisor of the token estimate.
const charsPerToken = 4

// EstimateTokens returns ceil(runes/4), never less than 1.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	tokens := (n + charsPerToken - 1) / charsPerToken
	if tokens < 1 {
		return 1
	}
	return tokens
}

var (
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
	tableRowPattern  = regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`)
	tabCellPattern   = regexp.MustCompile(`\S\t+\S`)
	listItemPattern  = regexp.MustCompile(`(?m)^\s*(?:[-*+•]|\d{1,3}[.)])\s+\S`)
	codeLinePattern  = regexp.MustCompile(`^\s*(?:func|def|class|import|package|return|public|private|const|let|var|if|for|while|SELECT|INSERT|UPDATE)\b|[{};]\s*$`)
	mdHeadingPattern = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*\s*$`)
	urlPattern       = regexp.MustCompile(`https?://[^\s<>()\[\]"'` + "`" + `]+`)
)

// normalizeWhitespace unifies line endings, strips trailing spaces, collapses
// runs of blank lines and trims the text.
func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	text = strings.Join(lines, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// DetectContentType classifies text as table, list, code, mixed or plain text.
func DetectContentType(text string) domain.ContentType {
	var signals []domain.ContentType

	if len(tableRowPattern.FindAllString(text, 2)) >= 2 || tabCellPattern.MatchString(text) {
		signals = append(signals, domain.ContentTypeTable)
	}
	if listItemPattern.MatchString(text) {
		signals = append(signals, domain.ContentTypeList)
	}
	if looksLikeCode(text) {
		signals = append(signals, domain.ContentTypeCode)
	}

	switch len(signals) {
	case 0:
		return domain.ContentTypeText
	case 1:
		return signals[0]
	default:
		return domain.ContentTypeMixed
	}
}

// looksLikeCode reports fenced code or a high density of code-like lines.
func looksLikeCode(text string) bool {
	if strings.Contains(text, "```") {
		return true
	}
	total, code := 0, 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if codeLinePattern.MatchString(line) {
			code++
		}
	}
	return code >= 3 && code*10 >= total*4
}

// DetectHeading returns the first markdown or all-caps heading line, stripped
// of its markers, or "" when there is none.
func DetectHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := mdHeadingPattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}
		if isCapsHeading(line) {
			return strings.TrimRight(line, ":")
		}
	}
	return ""
}

// isCapsHeading matches short lines written entirely in upper case.
func isCapsHeading(line string) bool {
	if utf8.RuneCountInString(line) > 80 {
		return false
	}
	letters := 0
	for _, r := range line {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r), unicode.IsSpace(r), strings.ContainsRune("-:/&.,()", r):
		default:
			return false
		}
	}
	return letters >= 3
}

// ExtractURLs returns the distinct URLs in text, in order of appearance.
func ExtractURLs(text string) []domain.ChunkURL {
	var out []domain.ChunkURL
	seen := make(map[string]bool)
	for _, raw := range urlPattern.FindAllString(text, -1) {
		u := strings.TrimRight(raw, ".,;:!?")
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, domain.ChunkURL{URL: u, Kind: ClassifyURL(u)})
	}
	return out
}

var documentSuffixes = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".md", ".csv"}

// ClassifyURL maps a URL to the kind of resource it points at.
func ClassifyURL(u string) domain.URLKind {
	lower := strings.ToLower(u)
	path := lower
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch {
	case strings.Contains(lower, "/_workitems/") || strings.Contains(lower, "/_apis/wit/workitems"):
		return domain.URLKindWorkItem
	case strings.Contains(lower, "/pullrequest/") || strings.Contains(lower, "/pull/"):
		return domain.URLKindPullRequest
	case strings.Contains(lower, "/_wiki/") || strings.Contains(lower, "/wiki/"):
		return domain.URLKindWiki
	case strings.Contains(lower, "/_git/"):
		return domain.URLKindRepository
	}
	for _, suffix := range documentSuffixes {
		if strings.HasSuffix(path, suffix) {
			return domain.URLKindDocument
		}
	}
	if strings.Contains(lower, "sharepoint.com") {
		return domain.URLKindDocument
	}
	return domain.URLKindExternal
}
