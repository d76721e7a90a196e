package pdftext

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// MuPDF reads the text layer through MuPDF.
type MuPDF struct {
	// MaxPages bounds how many pages are read. Zero means all.
	MaxPages int
}

// NewMuPDF creates a MuPDF source that reads every page.
func NewMuPDF() *MuPDF {
	return &MuPDF{}
}

func (m *MuPDF) ExtractText(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if m.MaxPages > 0 && pages > m.MaxPages {
		pages = m.MaxPages
	}

	var b strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pageText, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", i+1, err)
		}
		b.WriteString(pageText)
		b.WriteByte('\n')
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoText
	}
	return b.String(), nil
}
