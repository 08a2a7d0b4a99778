package distribution

import (
	"errors"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestUniform(t *testing.T) {
	Convey("Given a uniform distribution over a box", t, func() {
		d, err := Uniform([]float64{7, 9, -4, -1})
		So(err, ShouldBeNil)

		Convey("density is 1 inside the box and 0 outside", func() {
			So(d.Density([]float64{8, -3}), ShouldEqual, 1)
			So(d.Density([]float64{8, 1}), ShouldEqual, 0)
			So(d.Density([]float64{6, -3}), ShouldEqual, 0)
		})

		Convey("20 samples all lie in the box and both halves of each axis are hit", func() {
			rng := rand.New(rand.NewSource(42))
			var lowX, highX, lowY, highY bool
			for i := 0; i < 20; i++ {
				point, err := d.Sample(rng)
				So(err, ShouldBeNil)
				So(len(point), ShouldEqual, 2)
				So(point[0], ShouldBeGreaterThanOrEqualTo, 7)
				So(point[0], ShouldBeLessThan, 9)
				So(point[1], ShouldBeGreaterThanOrEqualTo, -4)
				So(point[1], ShouldBeLessThan, -1)

				if point[0] < 8 {
					lowX = true
				} else {
					highX = true
				}
				if point[1] < -2.5 {
					lowY = true
				} else {
					highY = true
				}
			}
			So(lowX, ShouldBeTrue)
			So(highX, ShouldBeTrue)
			So(lowY, ShouldBeTrue)
			So(highY, ShouldBeTrue)
		})
	})

	Convey("Given an odd-length bounds vector", t, func() {
		_, err := Uniform([]float64{1, 2, 3})
		Convey("Uniform fails with ErrInvalidBounds", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrInvalidBounds), ShouldBeTrue)
		})
	})
}

func TestMissingDimension(t *testing.T) {
	Convey("Given a Distribution with no dimension set", t, func() {
		d := New().SetSampleFn(func(seed []float64) []float64 { return seed })

		Convey("Sample fails with ErrMissingDimension", func() {
			_, err := d.Sample(rand.New(rand.NewSource(1)))
			So(err, ShouldEqual, ErrMissingDimension)
		})
	})
}
