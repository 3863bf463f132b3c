package pointline_test

import (
	"github.com/neomantra/pointline"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Frame", func() {
	Context("Select/WithColumn", func() {
		It("projects to a subset of columns in the requested order", func() {
			f := pointline.NewFrame(
				pointline.NewColumn("a", []int64{1, 2}),
				pointline.NewColumn("b", []string{"x", "y"}),
			)
			out, err := f.Select("b", "a")
			Expect(err).To(BeNil())
			Expect(out.ColumnNames()).To(Equal([]string{"b", "a"}))
		})
		It("errors selecting an absent column", func() {
			f := pointline.NewFrame(pointline.NewColumn("a", []int64{1}))
			_, err := f.Select("missing")
			Expect(err).To(MatchError(pointline.ErrSchemaMismatch))
		})
	})

	Context("Concat", func() {
		It("stacks frames vertically regardless of column order", func() {
			a := pointline.NewFrame(
				pointline.NewColumn("x", []int64{1, 2}),
				pointline.NewColumn("y", []string{"a", "b"}),
			)
			b := pointline.NewFrame(
				pointline.NewColumn("y", []string{"c"}),
				pointline.NewColumn("x", []int64{3}),
			)
			out, err := pointline.Concat(a, b)
			Expect(err).To(BeNil())
			Expect(out.NumRows()).To(Equal(3))
			Expect(out.Column("x").I64).To(Equal([]int64{1, 2, 3}))
			Expect(out.Column("y").Str).To(Equal([]string{"a", "b", "c"}))
		})

		It("preserves a null mask across concatenated frames", func() {
			withNull := pointline.NewColumn("v", []int64{1, 2})
			withNull.SetNull(1)
			a := pointline.NewFrame(withNull)
			b := pointline.NewFrame(pointline.NewColumn("v", []int64{9}))
			out, err := pointline.Concat(a, b)
			Expect(err).To(BeNil())
			v := out.Column("v")
			Expect(v.IsNull(0)).To(BeFalse())
			Expect(v.IsNull(1)).To(BeTrue())
			Expect(v.IsNull(2)).To(BeFalse())
		})

		It("rejects frames with mismatched column sets", func() {
			a := pointline.NewFrame(pointline.NewColumn("x", []int64{1}))
			b := pointline.NewFrame(pointline.NewColumn("y", []int64{1}))
			_, err := pointline.Concat(a, b)
			Expect(err).To(MatchError(pointline.ErrSchemaMismatch))
		})
	})

	Context("SortBy", func() {
		It("sorts ascending and stable on ties", func() {
			f := pointline.NewFrame(
				pointline.NewColumn("k", []int64{2, 1, 1}),
				pointline.NewColumn("tag", []string{"c", "a", "b"}),
			)
			out, err := f.SortBy("k")
			Expect(err).To(BeNil())
			Expect(out.Column("tag").Str).To(Equal([]string{"a", "b", "c"}))
		})
	})

	Context("Filter/Take", func() {
		It("keeps only masked rows", func() {
			f := pointline.NewFrame(pointline.NewColumn("v", []int64{10, 20, 30}))
			out := f.Filter([]bool{true, false, true})
			Expect(out.Column("v").I64).To(Equal([]int64{10, 30}))
		})
	})
})
