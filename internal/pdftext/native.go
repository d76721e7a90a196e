package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Native reads the text layer with a pure-Go PDF parser. It needs no cgo and
// handles most generated invoices; MuPDF copes better with unusual fonts.
type Native struct {
	// MaxPages bounds how many pages are read. Zero means all.
	MaxPages int
}

// NewNative creates a Native source that reads every page.
func NewNative() *Native {
	return &Native{}
}

func (n *Native) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("reading PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	pages := reader.NumPage()
	if n.MaxPages > 0 && pages > n.MaxPages {
		pages = n.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		b.WriteString(pageText)
		b.WriteByte('\n')
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoText
	}
	return b.String(), nil
}
