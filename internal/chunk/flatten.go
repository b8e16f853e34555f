// File path: internal/chunk/flatten.go
package chunk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Flatten re-linearizes the tree in pre-order: parents before children,
// siblings in original order, the synthetic root excluded. The output order
// is the citation order embedded into generated summaries.
func Flatten(root *Chunk) []FlatChunk {
	if root == nil {
		return nil
	}
	var flat []FlatChunk
	var walk func(c *Chunk)
	walk = func(c *Chunk) {
		meta := c.Metadata
		meta.Title = cleanTitle(meta.Title)
		flat = append(flat, FlatChunk{Text: c.Text, Metadata: meta})
		for _, child := range c.Children {
			walk(child)
		}
	}
	for _, child := range root.Children {
		walk(child)
	}
	return flat
}

// ByID finds a chunk by id anywhere in the tree, the root included. Returns
// nil when no node carries the id.
func ByID(root *Chunk, chunkID string) *Chunk {
	if root == nil {
		return nil
	}
	if root.Metadata.ChunkID == chunkID {
		return root
	}
	for _, child := range root.Children {
		if found := ByID(child, chunkID); found != nil {
			return found
		}
	}
	return nil
}

// SaveJSON persists the whole tree (root included) for later inspection.
func SaveJSON(root *Chunk, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chunk tree: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write chunk tree: %w", err)
	}
	return nil
}
