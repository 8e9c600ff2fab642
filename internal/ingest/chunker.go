package ingest

import (
	"strings"
	"unicode"

	"github.com/cloo-solutions/askdsa/internal/domain"
)

// ChunkConfig controls how source documents are split for embedding.
type ChunkConfig struct {
	// MaxSize is the chunk size ceiling in runes. A single token longer
	// than MaxSize is kept whole and may exceed it.
	MaxSize int
	// Overlap is the number of runes shared between consecutive chunks so
	// text spanning a boundary appears whole in at least one chunk.
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxSize: 1000,
		Overlap: 200,
	}
}

// SplitDocument splits every page of a document into chunks. Chunk indexes
// run across the whole document; chunks never span page boundaries.
// Deterministic: identical input and config yield identical chunks.
func SplitDocument(doc *Document, cfg ChunkConfig) []domain.Chunk {
	if cfg.MaxSize <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.MaxSize {
		cfg.Overlap = cfg.MaxSize / 2
	}

	var chunks []domain.Chunk
	index := 0
	for pageNo, page := range doc.Pages {
		for _, piece := range splitText(page, cfg) {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:      domain.ChunkID(doc.Source, index),
				Source:  doc.Source,
				Page:    pageNo + 1,
				Index:   index,
				Content: piece,
			})
			index++
		}
	}

	return chunks
}

// splitText windows text into pieces of at most cfg.MaxSize runes, cutting
// at the coarsest boundary available (paragraph, then sentence, then word)
// and starting each piece cfg.Overlap runes before the previous cut.
func splitText(text string, cfg ChunkConfig) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= cfg.MaxSize {
		return []string{text}
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxSize
		if end >= len(runes) {
			pieces = append(pieces, string(runes[start:]))
			break
		}

		cut := lastBoundary(runes, start, end)
		if cut < 0 {
			// Atomic token longer than MaxSize: emit it whole, alone,
			// and resume after it without overlap.
			end = tokenEnd(runes, end)
			pieces = append(pieces, string(runes[start:end]))
			start = end
			continue
		}

		pieces = append(pieces, string(runes[start:cut]))

		next := cut - cfg.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return pieces
}

// lastBoundary returns the cut position in (start, end] at the coarsest
// granularity found, or -1 when the window holds a single unbroken token.
func lastBoundary(runes []rune, start, end int) int {
	paragraph, sentence, word := -1, -1, -1
	for i := end; i > start+1; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			paragraph = i
			break
		}
		if sentence < 0 && isSentenceEnd(runes[i-2]) && unicode.IsSpace(runes[i-1]) {
			sentence = i
		}
		if word < 0 && unicode.IsSpace(runes[i-1]) {
			word = i
		}
	}

	switch {
	case paragraph > 0:
		return paragraph
	case sentence > 0:
		return sentence
	case word > 0:
		return word
	}
	return -1
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// tokenEnd advances to the first space at or after pos, or the end of text.
func tokenEnd(runes []rune, pos int) int {
	for pos < len(runes) && !unicode.IsSpace(runes[pos]) {
		pos++
	}
	return pos
}
