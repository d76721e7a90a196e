package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInvoiceParse(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "invoice-parse Suite")
}

const invoiceText = `Proveedor SL
CIF: B12345678
Fecha: 15/03/2024
Factura Nº: 2024-0042
Base imponible: 100,00€
21% IVA: 21,00€
Total: 121,00€`

var _ = Describe("run", func() {
	var (
		args   []string
		stdin  string
		stdout *bytes.Buffer
		stderr *bytes.Buffer
		err    error
	)

	BeforeEach(func() {
		args = nil
		stdin = ""
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	JustBeforeEach(func() {
		err = run(context.Background(), args, strings.NewReader(stdin), stdout, stderr)
	})

	decoded := func() map[string]interface{} {
		var out map[string]interface{}
		Expect(json.Unmarshal(stdout.Bytes(), &out)).To(Succeed())
		return out
	}

	When("text is read from stdin", func() {
		BeforeEach(func() {
			args = []string{"--text"}
			stdin = invoiceText
		})

		It("should print the extracted fields", func() {
			Expect(err).NotTo(HaveOccurred())

			out := decoded()
			Expect(out["file"]).To(Equal("-"))
			Expect(out["has_content"]).To(BeTrue())
			Expect(out).NotTo(HaveKey("validation"))

			extracted := out["extracted"].(map[string]interface{})
			Expect(extracted["supplier_nif"]).To(Equal("B12345678"))
			Expect(extracted["invoice_number"]).To(Equal("2024-0042"))
			Expect(extracted["invoice_date"]).To(Equal("2024-03-15"))
		})

		When("validation is requested", func() {
			BeforeEach(func() {
				args = append(args, "--validate")
			})

			It("should include the validation block", func() {
				Expect(err).NotTo(HaveOccurred())
				validation := decoded()["validation"].(map[string]interface{})
				Expect(validation["valid"]).To(BeTrue())
			})
		})
	})

	When("a text file is given", func() {
		BeforeEach(func() {
			path := filepath.Join(GinkgoT().TempDir(), "factura.txt")
			Expect(os.WriteFile(path, []byte("Total:   121,00€\n\n"), 0o644)).To(Succeed())
			args = []string{"--text", path}
		})

		It("should normalize and parse it", func() {
			Expect(err).NotTo(HaveOccurred())
			extracted := decoded()["extracted"].(map[string]interface{})
			Expect(extracted["raw_text"]).To(Equal("Total: 121,00€"))
			Expect(extracted["supplier_name"]).To(BeNil())
		})
	})

	When("the file does not exist", func() {
		BeforeEach(func() {
			args = []string{"--text", filepath.Join(GinkgoT().TempDir(), "missing.txt")}
		})

		It("should return an error", func() {
			Expect(err).To(MatchError(ContainSubstring("missing.txt")))
		})
	})

	When("the PDF is unreadable", func() {
		BeforeEach(func() {
			path := filepath.Join(GinkgoT().TempDir(), "broken.pdf")
			Expect(os.WriteFile(path, []byte("not a pdf at all"), 0o644)).To(Succeed())
			args = []string{"--engine", "native", path}
		})

		It("should print an empty result", func() {
			Expect(err).NotTo(HaveOccurred())
			out := decoded()
			Expect(out["has_content"]).To(BeFalse())
			extracted := out["extracted"].(map[string]interface{})
			Expect(extracted["confidence"]).To(BeEmpty())
		})
	})

	When("no PDF is given", func() {
		It("should print usage and fail", func() {
			Expect(err).To(HaveOccurred())
			Expect(stderr.String()).To(ContainSubstring("--engine"))
		})
	})

	When("the engine is unknown", func() {
		BeforeEach(func() {
			args = []string{"--engine", "tesseract", "factura.pdf"}
		})

		It("should return an error", func() {
			Expect(err).To(MatchError(ContainSubstring("unknown text engine")))
		})
	})
})
