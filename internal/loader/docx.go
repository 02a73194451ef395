package loader

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

// loadDocx extracts paragraph text from a Word document. A .docx file is a
// zip archive whose word/document.xml holds the body; text lives in <w:t>
// runs grouped into <w:p> paragraphs.
func loadDocx(path string) ([]domain.Segment, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("word/document.xml missing")
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	text, err := extractDocxText(xml.NewDecoder(rc))
	if err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}

	return []domain.Segment{{
		Text:       text,
		SourceName: filepath.Base(path),
		SourcePath: path,
		Page:       domain.NoPage,
	}}, nil
}

// extractDocxText walks the XML token stream collecting character data inside
// <w:t> elements, inserting a newline at each paragraph close.
func extractDocxText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}
