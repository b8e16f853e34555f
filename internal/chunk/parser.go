// File path: internal/chunk/parser.go
package chunk

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headerPattern     = regexp.MustCompile(`^(#{1,6})\s+(.+?)(?:\s+\{#[^}]+\})?$`)
	pageMarkerPattern = regexp.MustCompile(`^\{(\d+)\}-{48}`)
	spanTagPattern    = regexp.MustCompile(`<span[^>]*>.*?</span>`)

	tablePattern          = regexp.MustCompile(`^\s*\|.*\|.*$`)
	tableSeparatorPattern = regexp.MustCompile(`^\s*\|[\s\-:|]+\|[\s\-:|]+.*$`)
	possibleTablePattern  = regexp.MustCompile(`^\s*\|[\w\s]+\|[\w\s]+.*\|`)

	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// header is one recognized ATX header with the page state at its position.
type header struct {
	level int
	title string
	line  int // 1-indexed
	page  int // 1-indexed as scanned; stored 0-indexed on the chunk
}

func stripSpans(s string) string {
	return spanTagPattern.ReplaceAllString(s, "")
}

func cleanTitle(title string) string {
	return strings.TrimSpace(stripSpans(title))
}

// scanHeaders walks the document line by line, tracking the current page.
// Page-marker lines only update the page counter; they never emit anything.
// A headerless document yields no headers, and therefore zero chunks.
func scanHeaders(lines []string) []header {
	var headers []header
	currentPage := 1
	for i, line := range lines {
		if m := pageMarkerPattern.FindStringSubmatch(line); m != nil {
			page, err := strconv.Atoi(m[1])
			if err == nil {
				currentPage = page
			}
			continue
		}
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			headers = append(headers, header{
				level: len(m[1]),
				title: cleanTitle(m[2]),
				line:  i + 1,
				page:  currentPage,
			})
		}
	}
	return headers
}

func isTableLine(line string) bool {
	return tablePattern.MatchString(line) ||
		tableSeparatorPattern.MatchString(line) ||
		possibleTablePattern.MatchString(line)
}

// removeTables excises blocks of 2+ consecutive pipe-delimited lines. A lone
// pipe line is not a table and stays in place. This is a heuristic threshold,
// not a Markdown table grammar.
func removeTables(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))

	inTable := false
	tableStart := 0
	consecutive := 0

	for i, line := range lines {
		tableLine := isTableLine(line)
		switch {
		case tableLine && !inTable:
			inTable = true
			tableStart = i
			consecutive = 1
		case tableLine && inTable:
			consecutive++
		case !tableLine && inTable:
			inTable = false
			if consecutive < 2 {
				cleaned = append(cleaned, lines[tableStart:i]...)
			}
		}
		if !inTable && !tableLine {
			cleaned = append(cleaned, line)
		}
	}
	if inTable && consecutive < 2 {
		cleaned = append(cleaned, lines[tableStart:]...)
	}

	return blankRunPattern.ReplaceAllString(strings.Join(cleaned, "\n"), "\n\n")
}

// extractChunks turns the header list into an ordered flat span list. The
// body of header i runs to one line before header i+1 (or document end);
// page markers inside the span are dropped, inline markup stripped, tables
// excised.
func extractChunks(lines []string, headers []header, pdfPath string) []*Chunk {
	chunks := make([]*Chunk, 0, len(headers))
	for i, h := range headers {
		startLine := h.line
		endLine := len(lines)
		if i < len(headers)-1 {
			endLine = headers[i+1].line - 1
		}

		body := make([]string, 0, endLine-startLine+1)
		for _, line := range lines[startLine-1 : endLine] {
			if pageMarkerPattern.MatchString(line) {
				continue
			}
			body = append(body, line)
		}
		text := strings.TrimSpace(removeTables(stripSpans(strings.Join(body, "\n"))))

		chunks = append(chunks, &Chunk{
			Text: text,
			Metadata: Metadata{
				ChunkID:    "chunk_" + strconv.Itoa(i), // temporary, refined in the ID pass
				Level:      h.level,
				Title:      h.title,
				PDFPath:    pdfPath,
				PageNumber: h.page - 1, // 0-indexed until the ID pass
				StartLine:  startLine,
				EndLine:    endLine,
			},
			Children: []*Chunk{},
		})
	}
	return chunks
}
