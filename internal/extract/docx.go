package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/maritime-assistant/sof-extractor/constants"
	"github.com/maritime-assistant/sof-extractor/internal/common"
)

// DocxExtractor reads word/document.xml out of the DOCX ZIP container.
// Body paragraphs come first, newline separated, followed by table text:
// cells tab-joined within a row, rows newline separated. There is no
// fallback path for this format.
type DocxExtractor struct {
	log *slog.Logger
}

func NewDocxExtractor(logger *slog.Logger) *DocxExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocxExtractor{log: logger}
}

func (e *DocxExtractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	_ = ctx

	paragraphs, tables, err := readDocx(path)
	if err != nil {
		return TextExtractionResult{SourceKind: constants.DOCX},
			fmt.Errorf("%w: %v", common.ErrDocxExtraction, err)
	}

	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(p)
		b.WriteString("\n")
	}
	for _, table := range tables {
		for _, row := range table {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
	}

	text := b.String()
	e.log.Info("extract.docx.ok", "path", path, "paragraphs", len(paragraphs), "tables", len(tables), "chars", len(text))
	return newResult(constants.DOCX, text, false, time.Since(start)), nil
}

// readDocx walks the document XML token stream. Paragraph text is collected
// at body level only; text inside w:tbl is grouped per cell and per row.
func readDocx(path string) (paragraphs []string, tables [][][]string, err error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open container: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var (
		tableDepth  int
		inParagraph bool
		inText      bool
		paraText    strings.Builder
		cellText    strings.Builder
		inCell      bool
		currentRow  []string
		currentTbl  [][]string
	)

	for {
		tok, terr := decoder.Token()
		if terr == io.EOF {
			break
		}
		if terr != nil {
			return nil, nil, fmt.Errorf("parse document.xml: %w", terr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					currentTbl = nil
				}
			case "tr":
				if tableDepth == 1 {
					currentRow = nil
				}
			case "tc":
				if tableDepth == 1 {
					inCell = true
					cellText.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inParagraph = true
					paraText.Reset()
				}
			case "t":
				inText = true
			}

		case xml.CharData:
			if !inText {
				continue
			}
			if inCell {
				cellText.Write(t)
			} else if inParagraph {
				paraText.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 && inParagraph {
					inParagraph = false
					paragraphs = append(paragraphs, paraText.String())
				}
			case "tc":
				if tableDepth == 1 && inCell {
					inCell = false
					currentRow = append(currentRow, cellText.String())
				}
			case "tr":
				if tableDepth == 1 && currentRow != nil {
					currentTbl = append(currentTbl, currentRow)
					currentRow = nil
				}
			case "tbl":
				if tableDepth == 1 && currentTbl != nil {
					tables = append(tables, currentTbl)
				}
				tableDepth--
			}
		}
	}

	return paragraphs, tables, nil
}
