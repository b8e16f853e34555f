// File path: internal/chunk/tree.go
package chunk

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/GH-TeamBID/gober-api/internal/common"
)

// Document parses one Markdown document into its chunk tree: scan headers,
// cut spans, nest by header level, then assign the final structured ids.
// The returned root is synthetic (level 0, id "doc_{docID}") and holds the
// whole cleaned document as its text.
func Document(content, docID, pdfPath string) *Chunk {
	cleaned := stripSpans(content)
	lines := strings.Split(cleaned, "\n")

	root := &Chunk{
		Text: cleaned,
		Metadata: Metadata{
			ChunkID:   "doc_" + docID,
			Level:     0,
			Title:     docID,
			PDFPath:   pdfPath,
			StartLine: 0,
			EndLine:   len(lines),
		},
		Children: []*Chunk{},
	}

	headers := scanHeaders(lines)
	chunks := extractChunks(lines, headers, pdfPath)
	buildHierarchy(chunks, root)
	assignStructuredIDs(root, docID)
	return root
}

// Documents chunks several documents independently and concurrently; trees
// share no state, so the fan-out needs nothing beyond collecting results by
// document id. Documents without a registered pdf path are skipped with a
// warning.
func Documents(contents map[string]string, pdfPaths map[string]string) map[string]*Chunk {
	logger := common.Logger()
	out := make(map[string]*Chunk, len(contents))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for docID, content := range contents {
		pdfPath, ok := pdfPaths[docID]
		if !ok {
			logger.Warn("chunk: no pdf path for document", "doc", docID)
			continue
		}
		wg.Add(1)
		go func(docID, content, pdfPath string) {
			defer wg.Done()
			tree := Document(content, docID, pdfPath)
			mu.Lock()
			out[docID] = tree
			mu.Unlock()
		}(docID, content, pdfPath)
	}
	wg.Wait()
	return out
}

// buildHierarchy nests the flat chunk list under the root using a stack of
// (level, node). The stack pops while its top level is >= the incoming
// chunk's level: same-level headers become siblings, a higher-level header
// pops all the way back toward the root.
func buildHierarchy(chunks []*Chunk, root *Chunk) {
	if len(chunks) == 0 {
		return
	}
	sorted := make([]*Chunk, len(chunks))
	copy(sorted, chunks)
	// Headers arrive in document order already; the sort is a defensive
	// step, not an assumption.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metadata.StartLine < sorted[j].Metadata.StartLine
	})

	type frame struct {
		level int
		node  *Chunk
	}
	stack := []frame{{0, root}}

	for _, c := range sorted {
		level := c.Metadata.Level
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1].node
			parentID := parent.Metadata.ChunkID
			c.Metadata.ParentID = &parentID
			parent.Children = append(parent.Children, c)
		}
		stack = append(stack, frame{level, c})
	}
}

// assignStructuredIDs is the second, hierarchy-aware pass. Sibling counters
// restart under every distinct parent: top-level sections count per level,
// nested sections count per (parent section id, level). The 0-indexed page
// becomes 1-indexed here, exactly once.
func assignStructuredIDs(root *Chunk, docID string) {
	counters := make(map[string]int)

	var assign func(c *Chunk, parentSectionID string)
	assign = func(c *Chunk, parentSectionID string) {
		var key, sectionID string
		if parentSectionID == "" {
			key = fmt.Sprintf("%d", c.Metadata.Level)
			counters[key]++
			sectionID = fmt.Sprintf("s%d_%d", c.Metadata.Level, counters[key])
		} else {
			key = fmt.Sprintf("%s|%d", parentSectionID, c.Metadata.Level)
			counters[key]++
			sectionID = fmt.Sprintf("%s.%d", parentSectionID, counters[key])
		}

		c.Metadata.PageNumber++
		c.Metadata.ChunkID = fmt.Sprintf("chunk_%s,%d,%s", docID, c.Metadata.PageNumber, sectionID)

		for _, child := range c.Children {
			assign(child, sectionID)
		}
	}

	for _, child := range root.Children {
		assign(child, "")
	}
}
