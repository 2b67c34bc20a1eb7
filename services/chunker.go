package services

import (
	"strings"

	"document-rag-platform/models"
)

// Chunker splits extracted units into overlapping windows. Splitting
// prefers semantic boundaries (paragraph, line, sentence, word) and
// falls back to hard character cuts only when a piece has none.
type Chunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewChunker creates a chunker with the given window size and overlap.
// Non-positive values fall back to the 1000/200 defaults.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 200
	}
	return &Chunker{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: []string{"\n\n", "\n", ". ", " "},
	}
}

// Split chunks all units of one file. Chunk indexes are 0-based and run
// across the whole file; page/sheet/slide locators carry over from the
// originating unit. An empty unit yields no chunks.
func (c *Chunker) Split(units []models.ExtractedUnit, source, fileType string) []models.Chunk {
	var chunks []models.Chunk

	for _, unit := range units {
		for _, text := range c.SplitText(unit.Text) {
			chunks = append(chunks, models.Chunk{
				Text: text,
				Metadata: models.ChunkMetadata{
					Source:     source,
					FileType:   fileType,
					Page:       unit.Page,
					Sheet:      unit.Sheet,
					Slide:      unit.Slide,
					ChunkIndex: len(chunks),
				},
			})
		}
	}

	for i := range chunks {
		chunks[i].Metadata.TotalChunks = len(chunks)
	}
	return chunks
}

// SplitText splits a single text into windows of at most chunkSize
// characters with neighbouring windows sharing overlap characters.
func (c *Chunker) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{text}
	}
	return c.merge(c.atomize(text, c.separators))
}

// atomize recursively splits text into pieces no longer than chunkSize,
// trying each separator in priority order before hard character cuts.
func (c *Chunker) atomize(text string, separators []string) []string {
	if len(text) <= c.chunkSize {
		return []string{text}
	}

	if len(separators) == 0 {
		// Hard cut at overlap granularity so merged windows can still
		// share the required overlap.
		step := c.overlap
		if step <= 0 {
			step = c.chunkSize
		}
		var atoms []string
		for i := 0; i < len(text); i += step {
			end := i + step
			if end > len(text) {
				end = len(text)
			}
			atoms = append(atoms, text[i:end])
		}
		return atoms
	}

	parts := strings.SplitAfter(text, separators[0])
	if len(parts) == 1 {
		return c.atomize(text, separators[1:])
	}

	var atoms []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) <= c.chunkSize {
			atoms = append(atoms, part)
		} else {
			atoms = append(atoms, c.atomize(part, separators[1:])...)
		}
	}
	return atoms
}

// merge joins atoms into chunks, carrying the tail of each finished
// chunk into the next one as overlap.
func (c *Chunker) merge(atoms []string) []string {
	var chunks []string
	var window []string
	windowLen := 0

	flush := func() {
		joined := strings.Join(window, "")
		if strings.TrimSpace(joined) != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, atom := range atoms {
		if windowLen+len(atom) > c.chunkSize && windowLen > 0 {
			flush()
			for len(window) > 0 && (windowLen > c.overlap || windowLen+len(atom) > c.chunkSize) {
				windowLen -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, atom)
		windowLen += len(atom)
	}
	if windowLen > 0 {
		flush()
	}

	return chunks
}
