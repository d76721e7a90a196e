// Command invoice-parse extracts expense fields from an invoice PDF, or from
// plain text with --text, and prints them as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/rs/zerolog"

	"github.com/facturaIA/expense-extractor/internal/parser"
	"github.com/facturaIA/expense-extractor/internal/pdftext"
	"github.com/facturaIA/expense-extractor/internal/services"
)

// output is printed for every document
type output struct {
	File       string                     `json:"file"`
	HasContent bool                       `json:"has_content"`
	Extracted  parser.Result              `json:"extracted"`
	Validation *services.ValidationResult `json:"validation,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := ff.NewFlagSet("invoice-parse")
	var (
		engine   = fs.StringLong("engine", pdftext.EngineAuto, "PDF text engine: native, mupdf or auto")
		textMode = fs.BoolLong("text", "Treat inputs as plain text files; '-' or no argument reads stdin")
		validate = fs.BoolLong("validate", "Include tax and consistency checks in the output")
		verbose  = fs.BoolLong("verbose", "Log extraction failures to stderr")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("INVOICE_PARSE")); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	level := zerolog.ErrorLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	files := fs.GetArgs()
	if len(files) == 0 {
		if !*textMode {
			fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
			return errors.New("no PDF file given")
		}
		files = []string{"-"}
	}

	var source pdftext.Source
	if !*textMode {
		var err error
		if source, err = pdftext.New(*engine); err != nil {
			return err
		}
	}

	var validator *services.TaxValidator
	if *validate {
		validator = services.NewTaxValidator()
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	for _, file := range files {
		text, err := readText(ctx, file, stdin, source)
		if err != nil {
			return err
		}

		result := parser.Parse(text)
		out := output{
			File:       file,
			HasContent: parser.HasUsefulContent(text),
			Extracted:  result,
		}
		if validator != nil {
			out.Validation = validator.Validate(&result)
		}

		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

// readText loads a document. With a nil source the file is plain text,
// otherwise a PDF whose extraction failures degrade to empty text.
func readText(ctx context.Context, file string, stdin io.Reader, source pdftext.Source) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}

	if source == nil {
		return pdftext.Normalize(string(data)), nil
	}
	return pdftext.ExtractOrEmpty(ctx, source, data), nil
}
