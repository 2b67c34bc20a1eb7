package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"document-rag-platform/models"

	"github.com/xuri/excelize/v2"
)

func TestFileType(t *testing.T) {
	e := NewExtractor()

	cases := []struct {
		filename string
		want     string
	}{
		{"report.pdf", "pdf"},
		{"Report.PDF", "pdf"},
		{"notes.txt", "txt"},
		{"data.csv", "csv"},
		{"memo.doc", "doc"},
		{"memo.docx", "docx"},
		{"sheet.xls", "xls"},
		{"sheet.xlsx", "xlsx"},
		{"deck.pptx", "pptx"},
	}
	for _, tc := range cases {
		got, err := e.FileType(tc.filename)
		if err != nil {
			t.Errorf("FileType(%q) returned error: %v", tc.filename, err)
			continue
		}
		if got != tc.want {
			t.Errorf("FileType(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestFileTypeUnsupported(t *testing.T) {
	e := NewExtractor()

	for _, filename := range []string{"image.png", "archive.zip", "noextension", "video.mp4"} {
		_, err := e.FileType(filename)
		var unsupported *models.UnsupportedFormatError
		if !errors.As(err, &unsupported) {
			t.Errorf("FileType(%q) = %v, want UnsupportedFormatError", filename, err)
			continue
		}
		if unsupported.Filename != filename {
			t.Errorf("error names %q, want %q", unsupported.Filename, filename)
		}
	}
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()

	units, degraded, err := e.Extract([]byte("line one\nline two"), "notes.txt")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if degraded {
		t.Error("plain text should not degrade")
	}
	if len(units) != 1 || units[0].Text != "line one\nline two" {
		t.Fatalf("unexpected units: %+v", units)
	}
}

func TestExtractCSVPassthrough(t *testing.T) {
	e := NewExtractor()

	csv := "name,age\nalice,30\nbob,25\n"
	units, degraded, err := e.Extract([]byte(csv), "people.csv")
	if err != nil || degraded {
		t.Fatalf("Extract failed: degraded=%v err=%v", degraded, err)
	}
	if len(units) != 1 || units[0].Text != csv {
		t.Fatalf("CSV should pass through verbatim, got %+v", units)
	}
}

func TestExtractWorkbook(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "product")
	f.SetCellValue("Sheet1", "B1", "price")
	f.SetCellValue("Sheet1", "A2", "widget")
	f.SetCellValue("Sheet1", "B2", 42)
	f.NewSheet("Inventory")
	f.SetCellValue("Inventory", "A1", "stock")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to build workbook: %v", err)
	}

	e := NewExtractor()
	units, degraded, err := e.Extract(buf.Bytes(), "catalog.xlsx")
	if err != nil || degraded {
		t.Fatalf("Extract failed: degraded=%v err=%v", degraded, err)
	}
	if len(units) != 2 {
		t.Fatalf("expected one unit per sheet, got %d", len(units))
	}
	if units[0].Sheet != "Sheet1" || units[1].Sheet != "Inventory" {
		t.Errorf("sheet names lost: %+v", units)
	}
	if !strings.Contains(units[0].Text, "product\tprice") {
		t.Errorf("cells should be tab-joined, got %q", units[0].Text)
	}
	if !strings.Contains(units[0].Text, "widget\t42") {
		t.Errorf("missing row content: %q", units[0].Text)
	}
}

func buildOOXML(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return buf.Bytes()
}

func TestExtractWordDocument(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`
	data := buildOOXML(t, map[string]string{"word/document.xml": doc})

	e := NewExtractor()
	units, degraded, err := e.Extract(data, "memo.docx")
	if err != nil || degraded {
		t.Fatalf("Extract failed: degraded=%v err=%v", degraded, err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if !strings.Contains(units[0].Text, "First paragraph.\n") {
		t.Errorf("paragraph break missing: %q", units[0].Text)
	}
	if !strings.Contains(units[0].Text, "Second paragraph.") {
		t.Errorf("split runs should be joined: %q", units[0].Text)
	}
}

func TestExtractSlideDeck(t *testing.T) {
	slide := func(text string) string {
		return `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody>
    <a:p><a:r><a:t>` + text + `</a:t></a:r></a:p>
  </p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	}
	data := buildOOXML(t, map[string]string{
		"ppt/slides/slide2.xml":  slide("Second slide"),
		"ppt/slides/slide1.xml":  slide("First slide"),
		"ppt/slides/slide10.xml": slide("Tenth slide"),
	})

	e := NewExtractor()
	units, degraded, err := e.Extract(data, "deck.pptx")
	if err != nil || degraded {
		t.Fatalf("Extract failed: degraded=%v err=%v", degraded, err)
	}
	if len(units) != 1 {
		t.Fatalf("expected a single concatenated unit, got %d", len(units))
	}

	text := units[0].Text
	first := strings.Index(text, "First slide")
	second := strings.Index(text, "Second slide")
	tenth := strings.Index(text, "Tenth slide")
	if first < 0 || second < 0 || tenth < 0 {
		t.Fatalf("missing slide text: %q", text)
	}
	if !(first < second && second < tenth) {
		t.Errorf("slides out of numeric order: %q", text)
	}
}

func TestExtractCorruptedFileDegrades(t *testing.T) {
	e := NewExtractor()

	corrupted := []byte("this is not a valid binary container")
	for _, filename := range []string{"broken.pdf", "broken.docx", "broken.pptx", "broken.xlsx", "legacy.doc"} {
		units, degraded, err := e.Extract(corrupted, filename)
		if err != nil {
			t.Errorf("Extract(%q) should degrade, not fail: %v", filename, err)
			continue
		}
		if !degraded {
			t.Errorf("Extract(%q) should report degraded", filename)
			continue
		}
		if len(units) != 1 {
			t.Errorf("Extract(%q) should yield a single placeholder unit, got %d", filename, len(units))
			continue
		}
		if !strings.Contains(units[0].Text, "Content extraction failed") || !strings.Contains(units[0].Text, filename) {
			t.Errorf("placeholder should name the file: %q", units[0].Text)
		}
	}
}
