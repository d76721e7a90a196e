package parser

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fixed(amounts []decimal.Decimal) []string {
	out := make([]string, len(amounts))
	for i, a := range amounts {
		out[i] = a.StringFixed(2)
	}
	return out
}

func decimals(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

var _ = Describe("ExtractAmounts", func() {
	var (
		text    string
		amounts []decimal.Decimal
	)

	JustBeforeEach(func() {
		amounts = ExtractAmounts(text)
	})

	When("amounts use Spanish separators", func() {
		BeforeEach(func() {
			text = "Base 1.234,56 € IVA 259,26 € Total 1.493,82 €"
		})

		It("should return them in descending order", func() {
			Expect(fixed(amounts)).To(Equal([]string{"1493.82", "1234.56", "259.26"}))
		})
	})

	When("amounts use international separators", func() {
		BeforeEach(func() {
			text = "Subtotal 1,234.56 Tax 259.26 Total 1,493.82"
		})

		It("should normalize them", func() {
			Expect(fixed(amounts)).To(Equal([]string{"1493.82", "1234.56", "259.26"}))
		})
	})

	When("the same value is printed in several ways", func() {
		BeforeEach(func() {
			text = "10,00 and 10.00 and 10,00"
		})

		It("should deduplicate by value", func() {
			Expect(fixed(amounts)).To(Equal([]string{"10.00"}))
		})
	})

	When("a numeral has no thousands separator", func() {
		BeforeEach(func() {
			text = "Importe 1234,56"
		})

		It("should not return a fragment of it", func() {
			Expect(fixed(amounts)).To(Equal([]string{"1234.56"}))
		})
	})

	When("the text contains a dotted date", func() {
		BeforeEach(func() {
			text = "Fecha 15.03.2024"
		})

		It("should not read the date as an amount", func() {
			Expect(amounts).To(BeEmpty())
		})
	})

	When("the text has no amounts", func() {
		BeforeEach(func() {
			text = "sin importes"
		})

		It("should return nothing", func() {
			Expect(amounts).To(BeEmpty())
		})
	})

	It("should return strictly descending values", func() {
		got := ExtractAmounts(sampleInvoice + "\nDescuento 5,00\nPortes 12.50")
		for i := 1; i < len(got); i++ {
			Expect(got[i-1].GreaterThan(got[i])).To(BeTrue())
		}
	})
})

var _ = Describe("ParseAmount", func() {
	DescribeTable("printed amounts",
		func(in, want string) {
			got, ok := ParseAmount(in)
			Expect(ok).To(BeTrue())
			Expect(got.StringFixed(2)).To(Equal(want))
		},
		Entry("Spanish", "1.234,56", "1234.56"),
		Entry("bare comma", "1234,56", "1234.56"),
		Entry("international", "1,234.56", "1234.56"),
		Entry("currency symbol", "€ 99,90", "99.90"),
		Entry("grouping only", "1.234.567", "1234567.00"),
		Entry("plain integer", "42", "42.00"),
	)

	It("should reject text without digits", func() {
		_, ok := ParseAmount("abc")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("LabelAmounts", func() {
	var (
		text       string
		candidates []decimal.Decimal
		rate       decimal.NullDecimal
		labeled    Labeled
	)

	BeforeEach(func() {
		text = ""
		rate = decimal.NewNullDecimal(decimal.NewFromInt(21))
	})

	JustBeforeEach(func() {
		labeled = LabelAmounts(text, candidates, rate)
	})

	When("no labels are present", func() {
		BeforeEach(func() {
			candidates = decimals("121.00", "100.00", "21.00")
		})

		It("should reconcile base and VAT against the total", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("121.00"))
			Expect(labeled.Base.Decimal.StringFixed(2)).To(Equal("100.00"))
			Expect(labeled.VAT.Decimal.StringFixed(2)).To(Equal("21.00"))
		})

		It("should mark the VAT amount as calculated", func() {
			Expect(labeled.Confidence).To(Equal(map[Field]Confidence{
				FieldTotalAmount: ConfidenceHigh,
				FieldBaseAmount:  ConfidenceHigh,
				FieldVATAmount:   ConfidenceCalculated,
			}))
		})
	})

	When("the difference is another candidate but not the rate", func() {
		BeforeEach(func() {
			candidates = decimals("150.00", "100.00", "50.00")
			rate = decimal.NewNullDecimal(decimal.NewFromInt(10))
		})

		It("should still reconcile", func() {
			Expect(labeled.VAT.Decimal.StringFixed(2)).To(Equal("50.00"))
			Expect(labeled.Confidence).To(HaveKeyWithValue(FieldVATAmount, ConfidenceCalculated))
		})
	})

	When("several pairs reconcile", func() {
		BeforeEach(func() {
			candidates = decimals("242.00", "200.00", "121.00", "100.00", "42.00", "21.00")
		})

		It("should take the first pair in descending order", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("242.00"))
			Expect(labeled.Base.Decimal.StringFixed(2)).To(Equal("200.00"))
			Expect(labeled.VAT.Decimal.StringFixed(2)).To(Equal("42.00"))
		})
	})

	When("nothing reconciles", func() {
		BeforeEach(func() {
			candidates = decimals("200.00", "100.00")
		})

		It("should fall back to position with low confidence", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("200.00"))
			Expect(labeled.Base.Decimal.StringFixed(2)).To(Equal("100.00"))
			Expect(labeled.VAT.Valid).To(BeFalse())
			Expect(labeled.Confidence).To(Equal(map[Field]Confidence{
				FieldTotalAmount: ConfidenceLow,
				FieldBaseAmount:  ConfidenceLow,
			}))
		})
	})

	When("there is a single candidate", func() {
		BeforeEach(func() {
			candidates = decimals("50.00")
		})

		It("should only set the total", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("50.00"))
			Expect(labeled.Base.Valid).To(BeFalse())
			Expect(labeled.Confidence).To(HaveLen(1))
		})
	})

	When("there are no candidates", func() {
		BeforeEach(func() {
			candidates = nil
		})

		It("should label nothing", func() {
			Expect(labeled.Confidence).To(BeEmpty())
			Expect(labeled.Total.Valid).To(BeFalse())
		})
	})

	When("the total is labeled", func() {
		BeforeEach(func() {
			text = "Total: 121,00"
			candidates = decimals("500.00", "121.00", "100.00", "21.00")
		})

		It("should reconcile against the labeled total", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("121.00"))
			Expect(labeled.Base.Decimal.StringFixed(2)).To(Equal("100.00"))
			Expect(labeled.VAT.Decimal.StringFixed(2)).To(Equal("21.00"))
			Expect(labeled.Confidence).To(HaveKeyWithValue(FieldTotalAmount, ConfidenceHigh))
		})
	})

	When("subtotal and total are both labeled", func() {
		BeforeEach(func() {
			text = "Subtotal: 100,00\nIVA 21%: 21,00\nTotal: 121,00"
			candidates = decimals("121.00", "100.00", "21.00")
		})

		It("should take every amount from its label", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("121.00"))
			Expect(labeled.Base.Decimal.StringFixed(2)).To(Equal("100.00"))
			Expect(labeled.VAT.Decimal.StringFixed(2)).To(Equal("21.00"))
			Expect(labeled.Confidence).To(Equal(map[Field]Confidence{
				FieldTotalAmount: ConfidenceHigh,
				FieldBaseAmount:  ConfidenceHigh,
				FieldVATAmount:   ConfidenceHigh,
			}))
		})
	})

	When("a labeled number is close to a candidate", func() {
		BeforeEach(func() {
			text = "Total: 121,03"
			candidates = decimals("121.00", "100.00")
		})

		It("should snap to the candidate", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("121.00"))
			Expect(labeled.Confidence).To(HaveKeyWithValue(FieldTotalAmount, ConfidenceHigh))
		})
	})

	When("only a subtotal is labeled", func() {
		BeforeEach(func() {
			text = "Subtotal: 100,00"
			candidates = decimals("500.00", "100.00")
			rate = decimal.NullDecimal{}
		})

		It("should not read the subtotal as the total", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("500.00"))
			Expect(labeled.Base.Decimal.StringFixed(2)).To(Equal("100.00"))
			Expect(labeled.Confidence).To(Equal(map[Field]Confidence{
				FieldTotalAmount: ConfidenceLow,
				FieldBaseAmount:  ConfidenceHigh,
			}))
		})
	})

	When("the total is labeled more than once", func() {
		BeforeEach(func() {
			text = "Total: 100,00\nTotal: 500,00"
			candidates = decimals("500.00", "100.00")
			rate = decimal.NullDecimal{}
		})

		It("should take the last one", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("500.00"))
			Expect(labeled.Confidence).To(HaveKeyWithValue(FieldTotalAmount, ConfidenceHigh))
		})
	})

	When("the last labeled total matches no candidate", func() {
		BeforeEach(func() {
			text = "Total: 121,00\nTotal: 999,00"
			candidates = decimals("500.00", "121.00")
		})

		It("should not fall back to an earlier total", func() {
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("500.00"))
			Expect(labeled.Confidence).To(HaveKeyWithValue(FieldTotalAmount, ConfidenceLow))
		})
	})

	DescribeTable("labeled numbers with extra digits",
		func(label string) {
			labeled := LabelAmounts(label, decimals("500.00", "121.00", "9.99"), decimal.NullDecimal{})
			Expect(labeled.Total.Decimal.StringFixed(2)).To(Equal("500.00"))
			Expect(labeled.Confidence).To(HaveKeyWithValue(FieldTotalAmount, ConfidenceLow))
		},
		Entry("three decimals", "Total: 121,005"),
		Entry("thousands without decimals", "Total: 9.999"),
	)
})
