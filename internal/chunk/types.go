// File path: internal/chunk/types.go
package chunk

// Metadata describes one chunk's position in the source document and in the
// section hierarchy. PageNumber is tracked 0-indexed during parsing and
// converted to 1-indexed exactly once, in the ID-assignment pass.
type Metadata struct {
	ChunkID    string  `json:"chunk_id"`
	Level      int     `json:"level"`
	Title      string  `json:"title"`
	ParentID   *string `json:"parent_id"`
	PDFPath    string  `json:"pdf_path"`
	PageNumber int     `json:"page_number"`
	StartLine  int     `json:"start_line"`
	EndLine    int     `json:"end_line"`
}

// Chunk is one node of the document tree. The root node is synthetic
// (level 0, id "doc_{doc_id}") and never appears in flattened output.
type Chunk struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Children []*Chunk `json:"children"`
}

// FlatChunk is the flattened {text, metadata} record used for JSON
// persistence and citation prompts.
type FlatChunk struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}
