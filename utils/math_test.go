package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
	test.That(t, RadToDeg(DegToRad(33.3)), test.ShouldAlmostEqual, 33.3)
	test.That(t, MetersToMM(0.25), test.ShouldAlmostEqual, 250)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(5, -1, 1), test.ShouldEqual, 1)
	test.That(t, Clamp(-5, -1, 1), test.ShouldEqual, -1)
	test.That(t, Clamp(0.5, -1, 1), test.ShouldEqual, 0.5)
	test.That(t, Clamp(1e9, math.Inf(-1), math.Inf(1)), test.ShouldEqual, 1e9)
}

func TestSpaceDelimitedStringToFloatSlice(t *testing.T) {
	test.That(t, SpaceDelimitedStringToFloatSlice("0 1.5  -2"), test.ShouldResemble, []float64{0, 1.5, -2})
	bad := SpaceDelimitedStringToFloatSlice("1 x")
	test.That(t, len(bad), test.ShouldEqual, 2)
	test.That(t, math.IsNaN(bad[1]), test.ShouldBeTrue)
	test.That(t, SpaceDelimitedStringToFloatSlice(""), test.ShouldBeNil)
}

func TestParseFloatList(t *testing.T) {
	vals, err := ParseFloatList("0, 1.5,-2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vals, test.ShouldResemble, []float64{0, 1.5, -2})

	vals, err = ParseFloatList(" ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vals, test.ShouldBeNil)

	_, err = ParseFloatList("1,two")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1+1e-9, 1e-8), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, 1e-8), test.ShouldBeFalse)
}
