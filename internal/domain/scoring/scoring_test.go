package scoring_test

import (
	"testing"

	"github.com/okian/rally/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompute(t *testing.T) {
	Convey("Given a team's raw event collections", t, func() {
		Convey("When all collections are empty", func() {
			b := scoring.Compute(nil, nil, 0)

			Convey("Then the breakdown should be all zero", func() {
				So(b.TotalScore, ShouldEqual, 0)
				So(b.DonationTotal, ShouldEqual, 0)
				So(b.ShirtPoints, ShouldEqual, 0)
				So(b.PhotoPoints, ShouldEqual, 0)
				So(b.DonationCount, ShouldEqual, 0)
				So(b.ShirtSaleCount, ShouldEqual, 0)
				So(b.ApprovedPhotos, ShouldEqual, 0)
			})
		})

		Convey("When the team has donations, shirt sales and an approved photo", func() {
			b := scoring.Compute([]float64{100.25, 20.25}, []int{3, 1}, 1)

			Convey("Then each component should contribute its point value", func() {
				So(b.DonationTotal, ShouldEqual, 120.50)
				So(b.ShirtPoints, ShouldEqual, 40)
				So(b.PhotoPoints, ShouldEqual, 50)
				So(b.TotalScore, ShouldEqual, 210.50)
			})

			Convey("And counts should reflect the raw collections", func() {
				So(b.DonationCount, ShouldEqual, 2)
				So(b.ShirtSaleCount, ShouldEqual, 2)
				So(b.ApprovedPhotos, ShouldEqual, 1)
			})
		})

		Convey("When the team only has shirt sales", func() {
			b := scoring.Compute(nil, []int{5}, 0)

			Convey("Then the total should be quantity times the multiplier", func() {
				So(b.TotalScore, ShouldEqual, 50)
				So(b.ShirtPoints, ShouldEqual, 50)
			})
		})

		Convey("When the team only has approved photos", func() {
			b := scoring.Compute(nil, nil, 3)

			Convey("Then each photo should be worth its fixed value", func() {
				So(b.TotalScore, ShouldEqual, 150)
				So(b.PhotoPoints, ShouldEqual, 150)
			})
		})

		Convey("When donation amounts carry fractional units", func() {
			b := scoring.Compute([]float64{0.10, 0.20}, nil, 0)

			Convey("Then the total should preserve the fractional sum", func() {
				So(b.TotalScore, ShouldAlmostEqual, 0.30, 1e-9)
			})
		})

		Convey("When computing the same inputs twice", func() {
			first := scoring.Compute([]float64{10, 20}, []int{2}, 1)
			second := scoring.Compute([]float64{10, 20}, []int{2}, 1)

			Convey("Then the breakdowns should be identical", func() {
				So(first, ShouldResemble, second)
			})
		})
	})
}
