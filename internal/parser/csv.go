package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/docseg/docseg/internal/docmodel"
)

// CSVParser handles CSV files.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*docmodel.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := docmodel.New(
		titleFromFilename(filename, ".csv"),
		&docmodel.Origin{Filename: filename, Mimetype: "text/csv"},
	)

	if len(records) == 0 {
		return doc, nil
	}

	// First row is headers.
	headers := records[0]

	// Group rows into batches of 20 for manageable chunks.
	const batchSize = 20
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += batchSize {
		end := min(i+batchSize, len(dataRows))
		batch := dataRows[i:end]

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range batch {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}

		// 1-indexed row labels, header row skipped.
		header := doc.AddLeaf(nil, docmodel.LabelSectionHeader, fmt.Sprintf("Rows %d-%d", i+2, end+1))
		header.Level = 1
		doc.AddLeaf(nil, docmodel.LabelText, strings.TrimSpace(text.String()))
	}

	return doc, nil
}
