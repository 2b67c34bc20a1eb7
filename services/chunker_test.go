package services

import (
	"strings"
	"testing"

	"document-rag-platform/models"
)

func uniqueText(n int) string {
	// Separator-free text so window positions are fully determined by
	// the hard-cut fallback.
	alphabet := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[(i*7+i/61)%len(alphabet)])
	}
	return sb.String()
}

func TestSplitTextShortUnit(t *testing.T) {
	c := NewChunker(1000, 200)

	chunks := c.SplitText("short text")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "short text" {
		t.Fatalf("short unit should pass through unchanged, got %q", chunks[0])
	}
}

func TestSplitTextEmptyUnit(t *testing.T) {
	c := NewChunker(1000, 200)

	if chunks := c.SplitText(""); len(chunks) != 0 {
		t.Fatalf("empty unit should yield no chunks, got %d", len(chunks))
	}
	if chunks := c.SplitText("   \n\t "); len(chunks) != 0 {
		t.Fatalf("whitespace unit should yield no chunks, got %d", len(chunks))
	}
}

func TestSplitText2500Chars(t *testing.T) {
	c := NewChunker(1000, 200)
	text := uniqueText(2500)

	chunks := c.SplitText(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for 2500 chars, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if len(chunk) > 1000 {
			t.Errorf("chunk %d exceeds max size: %d chars", i, len(chunk))
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if !strings.HasSuffix(prev, cur[:200]) {
			t.Errorf("chunks %d and %d do not share a 200-char overlap", i-1, i)
		}
	}
}

func TestSplitTextMaxSizeProperty(t *testing.T) {
	c := NewChunker(1000, 200)

	sizes := []int{500, 1000, 1001, 1800, 2500, 5000, 12345}
	for _, n := range sizes {
		for _, text := range []string{uniqueText(n), paragraphText(n)} {
			for i, chunk := range c.SplitText(text) {
				if len(chunk) > 1000 {
					t.Errorf("size %d: chunk %d has %d chars", n, i, len(chunk))
				}
			}
		}
	}
}

func paragraphText(n int) string {
	var sb strings.Builder
	sentence := "The quick brown fox jumps over the lazy dog. "
	for sb.Len() < n {
		sb.WriteString(sentence)
		if sb.Len()%7 == 0 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()[:n]
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	c := NewChunker(1000, 200)

	para := strings.Repeat("x", 600)
	text := para + "\n\n" + para

	chunks := c.SplitText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0], para) {
		t.Errorf("first chunk should start with the first paragraph")
	}
}

func TestSplitAssignsMetadata(t *testing.T) {
	c := NewChunker(1000, 200)
	units := []models.ExtractedUnit{
		{Text: uniqueText(1500), Page: 1},
		{Text: "", Page: 2},
		{Text: "tail page", Page: 3},
	}

	chunks := c.Split(units, "report.pdf", "pdf")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	for i, chunk := range chunks {
		if chunk.Metadata.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, chunk.Metadata.ChunkIndex)
		}
		if chunk.Metadata.TotalChunks != len(chunks) {
			t.Errorf("chunk %d has total %d, want %d", i, chunk.Metadata.TotalChunks, len(chunks))
		}
		if chunk.Metadata.Source != "report.pdf" || chunk.Metadata.FileType != "pdf" {
			t.Errorf("chunk %d lost its source metadata", i)
		}
	}

	last := chunks[len(chunks)-1]
	if last.Metadata.Page != 3 {
		t.Errorf("last chunk should carry page 3, got %d", last.Metadata.Page)
	}

	// The empty middle unit contributes nothing.
	for _, chunk := range chunks {
		if chunk.Metadata.Page == 2 {
			t.Errorf("empty unit produced a chunk")
		}
	}
}
