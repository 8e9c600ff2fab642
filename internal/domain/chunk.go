package domain

import (
	"fmt"
	"time"
)

// Chunk is a bounded-length excerpt of a source document, the unit of
// embedding and retrieval.
type Chunk struct {
	ID        string
	Source    string
	Page      int
	Index     int
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChunkID derives the stable identifier for a chunk. Re-ingesting the same
// document produces the same ids, so upserts overwrite prior vectors.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s#%05d", source, index)
}

// RetrievedChunk pairs a chunk with the similarity score the vector store
// ranked it by. The chunk is embedded so callers read its fields directly.
type RetrievedChunk struct {
	Chunk
	Score float32
}
