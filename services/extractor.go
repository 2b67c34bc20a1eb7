package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"document-rag-platform/internal/logger"
	"document-rag-platform/models"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// Extractor normalizes heterogeneous file formats into a sequence of
// text units. Selection key is the lowercase file extension.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".csv":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".pptx": true,
}

// FileType returns the normalized extension tag ("pdf", "txt", ...) or
// an UnsupportedFormatError for anything outside the supported set.
func (e *Extractor) FileType(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return "", &models.UnsupportedFormatError{Filename: filename, Extension: ext}
	}
	return strings.TrimPrefix(ext, "."), nil
}

// Extract returns the text units of one file. A failure inside a
// supported format never aborts the batch: the file degrades to a
// single placeholder unit naming the failure, and degraded is true.
func (e *Extractor) Extract(data []byte, filename string) (units []models.ExtractedUnit, degraded bool, err error) {
	fileType, err := e.FileType(filename)
	if err != nil {
		return nil, false, err
	}

	var extractErr error
	switch fileType {
	case "pdf":
		units, extractErr = extractPDF(data)
	case "txt", "csv":
		units = []models.ExtractedUnit{{Text: string(data)}}
	case "xls", "xlsx":
		units, extractErr = extractSpreadsheet(data)
	case "doc", "docx":
		units, extractErr = extractWordDocument(data)
	case "pptx":
		units, extractErr = extractSlideDeck(data)
	}

	if extractErr != nil {
		failure := &models.ExtractionFailure{Filename: filename, Cause: extractErr}
		logger.Warn("Extraction degraded to placeholder", "file", filename, "error", extractErr)
		return []models.ExtractedUnit{{
			Text: fmt.Sprintf("Content extraction failed for file %q: %v", filename, failure.Cause),
		}}, true, nil
	}
	if len(units) == 0 {
		units = []models.ExtractedUnit{{Text: ""}}
	}
	return units, false, nil
}

// extractPDF produces one unit per page, pages numbered from 1.
func extractPDF(data []byte) ([]models.ExtractedUnit, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var units []models.ExtractedUnit
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A single unreadable page should not sink the document.
			logger.Debug("Skipping unreadable PDF page", "page", i, "error", err)
			continue
		}
		units = append(units, models.ExtractedUnit{Text: text, Page: i})
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("no readable pages")
	}
	return units, nil
}

// extractSpreadsheet produces one unit per sheet, rows joined by
// newlines and cells by tabs.
func extractSpreadsheet(data []byte) ([]models.ExtractedUnit, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var units []models.ExtractedUnit
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}

		var sb strings.Builder
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
		units = append(units, models.ExtractedUnit{Text: sb.String(), Sheet: sheet})
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return units, nil
}

// extractWordDocument reads the main document part of an OOXML .docx
// archive. Legacy binary .doc containers fail the zip open and degrade
// to the placeholder path.
func extractWordDocument(data []byte) ([]models.ExtractedUnit, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a readable OOXML archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open document part: %w", err)
		}
		defer rc.Close()

		text, err := ooxmlText(rc, "t", "p")
		if err != nil {
			return nil, err
		}
		return []models.ExtractedUnit{{Text: text}}, nil
	}

	return nil, fmt.Errorf("archive has no word/document.xml")
}

// extractSlideDeck concatenates the text of every slide into one unit.
func extractSlideDeck(data []byte) ([]models.ExtractedUnit, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a readable OOXML archive: %w", err)
	}

	slides := make(map[int]*zip.File)
	var order []int
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(f.Name, "ppt/slides/slide"), ".xml")
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		slides[num] = f
		order = append(order, num)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("archive has no slides")
	}
	sort.Ints(order)

	var sb strings.Builder
	for _, num := range order {
		rc, err := slides[num].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open slide %d: %w", num, err)
		}
		text, err := ooxmlText(rc, "t", "p")
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse slide %d: %w", num, err)
		}
		if strings.TrimSpace(text) != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	return []models.ExtractedUnit{{Text: sb.String(), Slide: 1}}, nil
}

// ooxmlText streams an OOXML part and collects the character data of
// every <textElem> element, inserting newlines at </paragraphElem>.
func ooxmlText(r io.Reader, textElem, paragraphElem string) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textElem {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == textElem {
				inText = false
			}
			if t.Name.Local == paragraphElem {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
