package cli

import (
	"bytes"
	"fmt"
	"testing"

	"go.viam.com/test"

	"go.viam.com/gdik/referenceframe"
)

const twoLinkModel = "../referenceframe/testdata/two_link.json"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"gdik"}, args...))
	return out.String(), err
}

func TestFKAction(t *testing.T) {
	out, err := run(t, "fk", "--model", twoLinkModel, "--joints", "0,0", "--link", "tool0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldStartWith, "tool0: x=500.0000")

	out, err = run(t, "fk", "-m", twoLinkModel, "-j", "0,0")
	test.That(t, err, test.ShouldBeNil)
	for _, link := range []string{"base_link", "link1", "link2", "tool0"} {
		test.That(t, out, test.ShouldContainSubstring, link+": ")
	}

	_, err = run(t, "fk", "--model", twoLinkModel, "--joints", "0,zero")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = run(t, "fk", "--model", twoLinkModel, "--joints", "0,0", "--link", "gripper")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = run(t, "fk", "--model", "arm.stl", "--joints", "0,0")
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported model file")
}

func TestSolveAction(t *testing.T) {
	m, err := referenceframe.ParseModelJSONFile(twoLinkModel, "")
	test.That(t, err, test.ShouldBeNil)
	pose, err := m.LinkPose("tool0", []float64{0.6, 0.9})
	test.That(t, err, test.ShouldBeNil)
	p, aa := pose.Point(), pose.Orientation().AxisAngles()
	target := fmt.Sprintf("%.12f,%.12f,%.12f,%.12f,%.12f,%.12f,%.12f", p.X, p.Y, p.Z, aa.RX, aa.RY, aa.RZ, aa.Theta)

	out, err := run(t, "solve", "--model", twoLinkModel, "--group", "arm", "--target", target,
		"--seed", "0.1,0.1", "--timeout", "5s")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldStartWith, "SUCCEEDED")
	test.That(t, out, test.ShouldContainSubstring, "shoulder: ")
	test.That(t, out, test.ShouldContainSubstring, "elbow: ")

	out, err = run(t, "solve", "--model", twoLinkModel, "--group", "arm", "--target", "2000,0,300", "--max-restarts", "1")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no solution")
	test.That(t, out, test.ShouldStartWith, "EXHAUSTED")

	_, err = run(t, "solve", "--model", twoLinkModel, "--group", "arm", "--target", "1,2")
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 3 or 7 values")

	_, err = run(t, "solve", "--model", twoLinkModel, "--group", "legs", "--target", "1,2,3")
	test.That(t, err.Error(), test.ShouldContainSubstring, "legs")
}

func TestFKActionURDF(t *testing.T) {
	out, err := run(t, "fk", "--model", "../referenceframe/urdf/testdata/arm.urdf",
		"--srdf", "../referenceframe/urdf/testdata/arm.srdf", "--joints", "0,0,0", "--link", "tool0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldStartWith, "tool0: x=350.0000")

	_, err = run(t, "fk", "--model", twoLinkModel, "--srdf", "../referenceframe/urdf/testdata/arm.srdf", "--joints", "0,0")
	test.That(t, err.Error(), test.ShouldContainSubstring, "only applies to .urdf")
}
