// Package pdftext turns uploaded PDF bytes into plain text for the invoice
// parser.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNoText is returned when a document was read but carried no text layer,
// typically a scanned image.
var ErrNoText = errors.New("pdftext: document has no extractable text")

// Engine names accepted by New.
const (
	EngineNative = "native"
	EngineMuPDF  = "mupdf"
	EngineAuto   = "auto"
)

// Source extracts the text of a PDF document.
type Source interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// New returns the Source for the named engine. An empty name selects auto.
func New(engine string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case EngineNative:
		return NewNative(), nil
	case EngineMuPDF:
		return NewMuPDF(), nil
	case EngineAuto, "":
		return Chain{NewNative(), NewMuPDF()}, nil
	default:
		return nil, fmt.Errorf("unknown text engine %q", engine)
	}
}

// Chain tries each Source in order and returns the first non-empty text.
type Chain []Source

func (c Chain) ExtractText(ctx context.Context, data []byte) (string, error) {
	var errs []error
	for _, src := range c {
		text, err := src.ExtractText(ctx, data)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if len(errs) == 0 {
		return "", ErrNoText
	}
	return "", errors.Join(errs...)
}

// ExtractOrEmpty runs src over data and returns normalized text, or "" when
// extraction fails for any reason. The failure is logged through the
// context's logger.
func ExtractOrEmpty(ctx context.Context, src Source, data []byte) string {
	text, err := src.ExtractText(ctx, data)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("bytes", len(data)).Msg("PDF text extraction failed")
		return ""
	}
	return Normalize(text)
}

// Normalize collapses runs of horizontal whitespace to one space, trims each
// line and drops blank lines. Line breaks are kept.
func Normalize(text string) string {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(fields, " "))
	}
	return b.String()
}
