package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/docseg/docseg/internal/docmodel"
)

// TextParser handles plain text files.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*docmodel.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc := docmodel.New(
		titleFromFilename(filename, ".txt"),
		&docmodel.Origin{Filename: filename, Mimetype: "text/plain"},
	)

	// Each paragraph becomes a leaf item.
	for _, para := range paragraphs {
		doc.AddLeaf(nil, docmodel.LabelText, para)
	}

	return doc, nil
}
