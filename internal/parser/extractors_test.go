package parser

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HasUsefulContent", func() {
	const signals = "Factura total 123,45"

	It("should reject text one byte short of the minimum", func() {
		text := signals + strings.Repeat(".", minUsefulLength-1-len(signals))
		Expect(text).To(HaveLen(49))
		Expect(HasUsefulContent(text)).To(BeFalse())
	})

	It("should accept text at the minimum length with enough indicators", func() {
		text := signals + strings.Repeat(".", minUsefulLength-len(signals))
		Expect(HasUsefulContent(text)).To(BeTrue())
	})

	It("should accept a long invoice", func() {
		Expect(HasUsefulContent(sampleInvoice + strings.Repeat(" ", 50))).To(BeTrue())
	})

	It("should reject long text with a single indicator", func() {
		Expect(HasUsefulContent("Factura " + strings.Repeat("a", 60))).To(BeFalse())
	})

	It("should reject empty text", func() {
		Expect(HasUsefulContent("")).To(BeFalse())
	})
})

var _ = Describe("ExtractNIF", func() {
	nifOf := func(text string) string {
		id, _ := ExtractNIF(text)
		return id
	}

	It("should prefer the supplier's ID over the client's", func() {
		text := "Proveedor: Empresa Y CIF A99999999 Calle Mayor 1 Madrid. Cliente: Empresa X CIF B11111111"
		Expect(nifOf(text)).To(Equal("A99999999"))
	})

	It("should skip a client ID printed first", func() {
		text := "Facturado a: Juan Perez 12345678Z\n" +
			strings.Repeat("Linea de detalle\n", 12) +
			"Emisor: Servicios SL B87654321"
		Expect(nifOf(text)).To(Equal("B87654321"))
	})

	It("should fold accents in client indicators", func() {
		text := "Dirección de facturación: Y1234567X\n" +
			strings.Repeat("Concepto\n", 20) +
			"Emisor B87654321"
		Expect(nifOf(text)).To(Equal("B87654321"))
	})

	It("should measure the client window in characters", func() {
		text := "Cliente: " + strings.Repeat("ñ", 130) + " B12345678\n" +
			strings.Repeat("x", 200) + "\nA87654321"
		Expect(nifOf(text)).To(Equal("A87654321"))
	})

	It("should fall back to the client's ID when it is the only one", func() {
		Expect(nifOf("Cliente: Empresa X\nCIF: B11111111")).To(Equal("B11111111"))
	})

	It("should recognise NIE and NIF shapes", func() {
		Expect(nifOf("NIE X1234567L")).To(Equal("X1234567L"))
		Expect(nifOf("DNI 12345678Z")).To(Equal("12345678Z"))
	})

	It("should uppercase the ID", func() {
		Expect(nifOf("cif b12345678")).To(Equal("B12345678"))
	})

	It("should not match IDs inside longer tokens", func() {
		_, ok := ExtractNIF("ref B123456789 pedido")
		Expect(ok).To(BeFalse())
	})

	It("should report no ID", func() {
		_, ok := ExtractNIF("no ids here 1234")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ExtractSupplierName", func() {
	It("should take the name printed on the tax ID line", func() {
		name, ok := ExtractSupplierName("Talleres Garcia SL CIF: B12345678\nCalle Mayor 1", "B12345678")
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("Talleres Garcia SL"))
	})

	It("should match the tax ID regardless of case and drop its label", func() {
		name, ok := ExtractSupplierName("Talleres Garcia SL - NIF/CIF: b12345678", "B12345678")
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("Talleres Garcia SL"))
	})

	It("should strip status words from the name", func() {
		name, _ := ExtractSupplierName("FACTURA PAGADA Talleres Garcia SL B12345678", "B12345678")
		Expect(name).To(Equal("Talleres Garcia SL"))
	})

	It("should skip label, date and amount lines in the header", func() {
		name, ok := ExtractSupplierName("FACTURA\nFecha: 01/02/2024\n100,00\nDistribuciones Lopez SA", "")
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("Distribuciones Lopez SA"))
	})

	It("should skip technical description lines", func() {
		name, _ := ExtractSupplierName("Windows Server Remote Desktop License\nNube Sistemas SL", "")
		Expect(name).To(Equal("Nube Sistemas SL"))
	})

	It("should fall back to the header when the tax ID line is a product", func() {
		name, _ := ExtractSupplierName("Soluciones Web SL\nWindows Server License B12345678", "B12345678")
		Expect(name).To(Equal("Soluciones Web SL"))
	})

	It("should skip lines longer than a company name", func() {
		long := strings.Repeat("Texto legal ", 10)
		name, _ := ExtractSupplierName(long+"\nImprenta Sol SL", "")
		Expect(name).To(Equal("Imprenta Sol SL"))
	})

	It("should report no name when only numbers are present", func() {
		_, ok := ExtractSupplierName("12345\n01/01/2024\n100,00", "")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("IsTechnicalDescription", func() {
	It("should flag known technical terms", func() {
		Expect(IsTechnicalDescription("Windows Server 2022 License")).To(BeTrue())
	})

	It("should flag lines with many acronyms", func() {
		Expect(IsTechnicalDescription("AAA BBB CCC DDD pack")).To(BeTrue())
	})

	It("should accept company names", func() {
		Expect(IsTechnicalDescription("Servicios Informaticos SL")).To(BeFalse())
		Expect(IsTechnicalDescription("ACME SL")).To(BeFalse())
	})
})

var _ = Describe("ExtractDate", func() {
	DescribeTable("date shapes",
		func(text, want string) {
			got, ok := ExtractDate(text)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(want))
		},
		Entry("keyword with accents", "Fecha de emisión: 05-11-2023", "2023-11-05"),
		Entry("keyword over an earlier bare date", "Vencimiento 30/04/2024\nFecha: 01/04/2024", "2024-04-01"),
		Entry("ISO after keyword", "Date: 2024-02-29", "2024-02-29"),
		Entry("bare day first", "Emitido el 7/3/2024 en Madrid", "2024-03-07"),
		Entry("invalid month skipped", "Ref 13/13/2024 y 02/03/2024", "2024-03-02"),
		Entry("calendar validity not checked", "Fecha: 30/02/2024", "2024-02-30"),
	)

	It("should report no date", func() {
		_, ok := ExtractDate("sin fecha")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ExtractInvoiceNumber", func() {
	DescribeTable("labeled and bare numbers",
		func(text, want string) {
			got, ok := ExtractInvoiceNumber(text)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(want))
		},
		Entry("factura nº", "Factura Nº: 2024-0042", "2024-0042"),
		Entry("número de factura", "Número de factura: F-2024-118", "F-2024-118"),
		Entry("invoice number", "Invoice number: INV-2023/118", "INV-2023/118"),
		Entry("nº alone", "Fra. nº 123/24", "123/24"),
		Entry("bare year sequence", "Ref. pedido 2023-00017 enviado", "2023-00017"),
	)

	It("should not take the integer part of an amount", func() {
		_, ok := ExtractInvoiceNumber("Total factura: 121,00")
		Expect(ok).To(BeFalse())
	})

	It("should reject numbers longer than thirty characters", func() {
		_, ok := ExtractInvoiceNumber("Factura: " + strings.Repeat("7", 31))
		Expect(ok).To(BeFalse())
	})

	It("should not take a word after the label", func() {
		_, ok := ExtractInvoiceNumber("Factura simplificada")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ExtractVATRate", func() {
	DescribeTable("rate shapes",
		func(text string, want string) {
			got, ok := ExtractVATRate(text)
			Expect(ok).To(BeTrue())
			Expect(got.String()).To(Equal(want))
		},
		Entry("rate before IVA", "21% IVA", "21"),
		Entry("IVA al", "IVA al 10 %", "10"),
		Entry("tipo de IVA", "Tipo de IVA: 4", "4"),
		Entry("parenthesised", "IVA (0%)", "0"),
		Entry("decimal rate", "IVA: 21,00%", "21"),
		Entry("mention only", "IVA incluido 50,00", "21"),
	)

	It("should discard non-canonical rates", func() {
		_, ok := ExtractVATRate("Recargo 7% IVA sobre base")
		Expect(ok).To(BeFalse())
	})

	It("should not read a rate out of a longer number", func() {
		got, ok := ExtractVATRate("Descuento 121% IVA 10%")
		Expect(ok).To(BeTrue())
		Expect(got.String()).To(Equal("10"))
	})

	It("should report no rate without IVA", func() {
		_, ok := ExtractVATRate("Total 100,00")
		Expect(ok).To(BeFalse())
	})
})
