package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/gdik/ik"
	"go.viam.com/gdik/logging"
	"go.viam.com/gdik/referenceframe"
	"go.viam.com/gdik/referenceframe/urdf"
	"go.viam.com/gdik/spatialmath"
	"go.viam.com/gdik/utils"
)

// FKAction is the corresponding Action for 'fk'.
func FKAction(c *cli.Context) error {
	model, err := loadModel(c)
	if err != nil {
		return err
	}
	joints, err := utils.ParseFloatList(c.String(fkFlagJoints))
	if err != nil {
		return errors.Wrapf(err, "could not parse --%s", fkFlagJoints)
	}
	poses, err := model.LinkPoses(joints)
	if err != nil {
		return err
	}

	links := c.StringSlice(fkFlagLinks)
	if len(links) == 0 {
		for _, link := range model.Links() {
			links = append(links, link.Name)
		}
	}
	for _, name := range links {
		idx, err := model.LinkIndex(name)
		if err != nil {
			return err
		}
		printPose(c.App.Writer, name, poses[idx])
	}
	return nil
}

// SolveAction is the corresponding Action for 'solve'.
func SolveAction(c *cli.Context) error {
	logger := newLogger(c)
	model, err := loadModel(c)
	if err != nil {
		return err
	}
	group := c.String(solveFlagGroup)
	params, err := loadParams(c, group)
	if err != nil {
		return err
	}
	solver, err := ik.NewSolver(model, group, params, logger)
	if err != nil {
		return err
	}

	req := ik.Request{Timeout: c.Duration(solveFlagTimeout)}
	for _, raw := range c.StringSlice(solveFlagTargets) {
		pose, err := parsePose(raw)
		if err != nil {
			return errors.Wrapf(err, "could not parse --%s %q", solveFlagTargets, raw)
		}
		req.Targets = append(req.Targets, pose)
	}
	if c.IsSet(solveFlagSeed) {
		if req.Seed, err = utils.ParseFloatList(c.String(solveFlagSeed)); err != nil {
			return errors.Wrapf(err, "could not parse --%s", solveFlagSeed)
		}
	} else {
		req.Seed = make([]float64, model.DoF())
	}
	if c.IsSet(solveFlagConsistency) {
		if req.ConsistencyLimits, err = utils.ParseFloatList(c.String(solveFlagConsistency)); err != nil {
			return errors.Wrapf(err, "could not parse --%s", solveFlagConsistency)
		}
	}
	if c.Bool(solveFlagTrace) {
		req.Observer = ik.LoggingObserver(logger)
	}

	res, err := solver.Search(req)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s after %d iterations and %d restarts (%s)", res.Status, res.Iterations, res.Restarts, res.Elapsed)
	if err := res.Err(); err != nil {
		return errors.Wrapf(err, "no solution for group %q", group)
	}
	for i, name := range model.VariableNames() {
		printf(c.App.Writer, "%s: %.6f", name, res.Solution[i])
	}
	return nil
}

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(debugFlag) || c.Bool(solveFlagTrace) {
		return logging.NewDebugLogger("gdik")
	}
	return logging.NewLogger("gdik")
}

// loadModel reads the model named by --model, picking the parser from the file extension.
func loadModel(c *cli.Context) (*referenceframe.Model, error) {
	path := c.String(modelFlagPath)
	srdf := c.String(modelFlagSRDF)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if srdf != "" {
			return nil, errors.Errorf("--%s only applies to .urdf models", modelFlagSRDF)
		}
		return referenceframe.ParseModelJSONFile(path, "")
	case ".urdf", ".xml":
		if srdf != "" {
			return urdf.ParseModelFiles(path, srdf, "")
		}
		return urdf.ParseModelXMLFile(path, "")
	default:
		return nil, errors.Errorf("unsupported model file %q, expected .json or .urdf", path)
	}
}

func loadParams(c *cli.Context, group string) (ik.Params, error) {
	params := ik.DefaultParams()
	if path := c.String(solveFlagParams); path != "" {
		var err error
		if params, err = ik.LoadParamsFile(path, group); err != nil {
			return ik.Params{}, err
		}
	}
	if c.IsSet(solveFlagRandomSeed) {
		params.RandomSeed = c.Int64(solveFlagRandomSeed)
	}
	if c.IsSet(solveFlagMaxRestarts) {
		params.MaxRestarts = c.Int(solveFlagMaxRestarts)
	}
	return params, nil
}

// parsePose parses x,y,z or x,y,z,rx,ry,rz,theta.
func parsePose(s string) (spatialmath.Pose, error) {
	values, err := utils.ParseFloatList(s)
	if err != nil {
		return nil, err
	}
	if len(values) < 3 {
		return nil, errors.Errorf("expected 3 or 7 values but got %d", len(values))
	}
	point := r3.Vector{X: values[0], Y: values[1], Z: values[2]}
	switch len(values) {
	case 3:
		return spatialmath.NewPoseFromPoint(point), nil
	case 7:
		aa := &spatialmath.R4AA{RX: values[3], RY: values[4], RZ: values[5], Theta: values[6]}
		return spatialmath.NewPose(point, aa), nil
	default:
		return nil, errors.Errorf("expected 3 or 7 values but got %d", len(values))
	}
}

func printPose(w io.Writer, name string, pose spatialmath.Pose) {
	p := pose.Point()
	aa := pose.Orientation().AxisAngles()
	printf(w, "%s: x=%.4f y=%.4f z=%.4f rx=%.4f ry=%.4f rz=%.4f theta=%.4f",
		name, p.X, p.Y, p.Z, aa.RX, aa.RY, aa.RZ, aa.Theta)
}

// printf prints a line to the given writer.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
