package money

import (
	"testing"

	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMoney(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Money Suite")
}

var _ = Describe("Format", func() {
	DescribeTable("Spanish notation",
		func(in, want string) {
			Expect(Format(decimal.RequireFromString(in))).To(Equal(want))
		},
		Entry("small", "21", "21,00"),
		Entry("thousands", "1234.56", "1.234,56"),
		Entry("millions", "1234567.8", "1.234.567,80"),
		Entry("exact thousand", "1000", "1.000,00"),
		Entry("rounds half away from zero", "0.125", "0,13"),
		Entry("negative", "-1500.5", "-1.500,50"),
		Entry("negative rounding to zero", "-0.001", "0,00"),
	)
})

var _ = Describe("FormatEUR", func() {
	It("should append the euro sign", func() {
		Expect(FormatEUR(decimal.RequireFromString("121"))).To(Equal("121,00 €"))
	})
})

var _ = Describe("FormatRate", func() {
	It("should render whole rates", func() {
		Expect(FormatRate(decimal.NewFromInt(21))).To(Equal("21%"))
	})

	It("should render fractional rates with a comma", func() {
		Expect(FormatRate(decimal.RequireFromString("5.5"))).To(Equal("5,5%"))
	})
})

var _ = Describe("FormatNull", func() {
	It("should render absent amounts as empty", func() {
		Expect(FormatNull(decimal.NullDecimal{})).To(BeEmpty())
	})

	It("should render present amounts", func() {
		Expect(FormatNull(decimal.NewNullDecimal(decimal.NewFromInt(10)))).To(Equal("10,00 €"))
	})
})
