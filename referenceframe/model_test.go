package referenceframe

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/gdik/spatialmath"
)

func TestModelLoading(t *testing.T) {
	m, err := ParseModelJSONFile("testdata/two_link.json", "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, "two_link")
	test.That(t, m.Root(), test.ShouldEqual, "base_link")
	test.That(t, m.DoF(), test.ShouldEqual, 2)
	test.That(t, m.VariableNames(), test.ShouldResemble, []string{"shoulder", "elbow"})
	test.That(t, m.ModelConfig().OriginalFile.Extension, test.ShouldEqual, "json")
	test.That(t, m.GroupNames(), test.ShouldResemble, []string{"arm"})

	limits := m.Limits()
	test.That(t, limits[0].Min, test.ShouldAlmostEqual, -170*math.Pi/180)
	test.That(t, limits[1].Max, test.ShouldAlmostEqual, 150*math.Pi/180)

	elbow, err := m.Joint("elbow")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, elbow.VariableIndex, test.ShouldEqual, 1)
	test.That(t, elbow.Parent, test.ShouldEqual, "link1")
	test.That(t, elbow.Moving(), test.ShouldBeTrue)
	flange, err := m.Joint("flange")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, flange.Moving(), test.ShouldBeFalse)

	_, err = m.Joint("wrist")
	test.That(t, err, test.ShouldNotBeNil)

	renamed, err := ParseModelJSONFile("testdata/two_link.json", "renamed")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, renamed.Name(), test.ShouldEqual, "renamed")
	test.That(t, limitsAlmostEqual(renamed.Limits(), m.Limits()), test.ShouldBeTrue)

	_, err = ParseModelJSONFile("testdata/missing.json", "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = UnmarshalModelJSON(nil, "")
	test.That(t, errors.Is(err, ErrNoModelInformation), test.ShouldBeTrue)
}

func TestForwardKinematics(t *testing.T) {
	m, err := ParseModelJSONFile("testdata/two_link.json", "")
	test.That(t, err, test.ShouldBeNil)
	toolIdx, err := m.LinkIndex("tool0")
	test.That(t, err, test.ShouldBeNil)

	poses, err := m.LinkPoses([]float64{0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(poses), test.ShouldEqual, 4)
	test.That(t, spatialmath.R3VectorAlmostEqual(poses[toolIdx].Point(), r3.Vector{X: 500}, 1e-9), test.ShouldBeTrue)
	// the flange pitches the tool frame by 90 degrees
	expectedOrient := &spatialmath.EulerAngles{Pitch: math.Pi / 2}
	test.That(t, spatialmath.OrientationAlmostEqual(poses[toolIdx].Orientation(), expectedOrient), test.ShouldBeTrue)

	pose, err := m.LinkPose("tool0", []float64{math.Pi / 2, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), r3.Vector{Y: 500}, 1e-9), test.ShouldBeTrue)

	pose, err = m.LinkPose("tool0", []float64{0, -math.Pi / 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 300, Y: -200}, 1e-9), test.ShouldBeTrue)

	_, err = m.LinkPoses([]float64{0})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 2 but got 1")
	_, err = m.LinkPose("nope", []float64{0, 0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestForwardKinematicsDeterminism(t *testing.T) {
	m, err := ParseModelJSONFile("testdata/two_link.json", "")
	test.That(t, err, test.ShouldBeNil)
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		q := GenerateRandomJointPositions(m.Limits(), rnd)
		test.That(t, m.WithinLimits(q), test.ShouldBeTrue)
		a, err := m.LinkPoses(q)
		test.That(t, err, test.ShouldBeNil)
		b, err := m.LinkPoses(q)
		test.That(t, err, test.ShouldBeNil)
		for k := range a {
			test.That(t, a[k].Point(), test.ShouldResemble, b[k].Point())
			test.That(t, a[k].Orientation().Quaternion(), test.ShouldResemble, b[k].Orientation().Quaternion())
		}
	}
}

func TestWithinLimits(t *testing.T) {
	m, err := ParseModelJSONFile("testdata/two_link.json", "")
	test.That(t, err, test.ShouldBeNil)
	limits := m.Limits()
	test.That(t, m.WithinLimits([]float64{limits[0].Max, limits[1].Min}), test.ShouldBeTrue)
	test.That(t, m.WithinLimits([]float64{limits[0].Max + 1e-9, 0}), test.ShouldBeFalse)
	test.That(t, m.WithinLimits([]float64{0}), test.ShouldBeFalse)
}

func TestNewModelValidation(t *testing.T) {
	rev := func(name, parent, child string) Joint {
		return Joint{Name: name, Type: RevoluteJoint, Parent: parent, Child: child, Axis: r3.Vector{Z: 1}, Limit: Limit{-1, 1}}
	}

	_, err := NewModel("empty", nil, nil)
	test.That(t, errors.Is(err, ErrNoModelInformation), test.ShouldBeTrue)

	_, err = NewModel("dup", []string{"a", "a"}, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate link")

	_, err = NewModel("missing", []string{"a"}, []Joint{rev("j", "a", "b")})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "'b'")

	_, err = NewModel("two roots", []string{"a", "b", "c"}, []Joint{rev("j", "a", "b")})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "one root")

	_, err = NewModel("cycle", []string{"a", "b", "c"}, []Joint{rev("j1", "a", "b"), rev("j2", "c", "c")})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewModel("all cycle", []string{"a", "b"}, []Joint{rev("j1", "a", "b"), rev("j2", "b", "a")})
	test.That(t, errors.Is(err, ErrCircularReference), test.ShouldBeTrue)

	_, err = NewModel("two parents", []string{"a", "b", "c"}, []Joint{rev("j1", "a", "c"), rev("j2", "b", "c")})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "child of both")

	noAxis := rev("j", "a", "b")
	noAxis.Axis = r3.Vector{}
	_, err = NewModel("axis", []string{"a", "b"}, []Joint{noAxis})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "zero vector")

	backwards := rev("j", "a", "b")
	backwards.Limit = Limit{1, -1}
	_, err = NewModel("limits", []string{"a", "b"}, []Joint{backwards})
	test.That(t, err, test.ShouldNotBeNil)

	weird := rev("j", "a", "b")
	weird.Type = "helical"
	_, err = NewModel("type", []string{"a", "b"}, []Joint{weird})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "helical")

	cont := rev("j", "a", "b")
	cont.Type = ContinuousJoint
	m, err := NewModel("continuous", []string{"a", "b"}, []Joint{cont})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Limits()[0].Bounded(), test.ShouldBeFalse)
}

func TestJSONValidationAggregatesErrors(t *testing.T) {
	data := []byte(`{
		"name": "bad",
		"links": [{"id": "a"}, {"id": "b"}, {"id": "a"}],
		"joints": [
			{"id": "j1", "type": "revolute", "parent": "a", "child": "b", "min": -10, "max": 10},
			{"id": "j2", "type": "screw", "parent": "a", "child": "b"}
		]
	}`)
	_, err := UnmarshalModelJSON(data, "")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate link")
	test.That(t, err.Error(), test.ShouldContainSubstring, "zero vector")
	test.That(t, err.Error(), test.ShouldContainSubstring, "screw")

	_, err = UnmarshalModelJSON([]byte(`{"name": "x", "links": [`), "")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = UnmarshalModelJSON([]byte(`{"name": "x"}`), "")
	test.That(t, errors.Is(err, ErrNoModelInformation), test.ShouldBeTrue)
}

func TestJointTransform(t *testing.T) {
	prismatic := Joint{
		Name: "p", Type: PrismaticJoint, Origin: spatialmath.NewPoseFromPoint(r3.Vector{Z: 10}),
		Axis: r3.Vector{X: 1}, Limit: Limit{0, 100}, VariableIndex: 0,
	}
	test.That(t, spatialmath.R3VectorAlmostEqual(prismatic.Transform(25).Point(), r3.Vector{X: 25, Z: 10}, 1e-12), test.ShouldBeTrue)

	fixed := Joint{Name: "f", Type: FixedJoint, Origin: spatialmath.NewPoseFromPoint(r3.Vector{Y: 3}), VariableIndex: -1}
	test.That(t, fixed.Transform(99).Point(), test.ShouldResemble, r3.Vector{Y: 3})
}

func TestLimit(t *testing.T) {
	l := Limit{Min: -2, Max: 4}
	test.That(t, l.Bounded(), test.ShouldBeTrue)
	test.That(t, l.Span(), test.ShouldEqual, 6)
	test.That(t, l.Center(), test.ShouldEqual, 1)
	test.That(t, l.Clamp(5), test.ShouldEqual, 4)
	test.That(t, l.Contains(-2), test.ShouldBeTrue)
	test.That(t, l.Contains(-2.0001), test.ShouldBeFalse)
	test.That(t, l.String(), test.ShouldEqual, "[-2, 4]")

	u := Unbounded()
	test.That(t, u.Bounded(), test.ShouldBeFalse)
	test.That(t, u.Clamp(1e12), test.ShouldEqual, 1e12)

	test.That(t, limitsAlmostEqual([]Limit{u}, []Limit{Unbounded()}), test.ShouldBeTrue)
	test.That(t, limitsAlmostEqual([]Limit{u}, []Limit{l}), test.ShouldBeFalse)
	test.That(t, cmp.Diff([]Limit{l}, []Limit{{-2, 4}}), test.ShouldBeEmpty)
}
