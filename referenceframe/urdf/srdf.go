package urdf

import (
	"encoding/xml"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/gdik/referenceframe"
)

// SRDFConfig represents the planning group fields of a Semantic Robot Description Format (SRDF) file.
type SRDFConfig struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Groups  []srdfGroup `xml:"group"`
}

type srdfGroup struct {
	Name      string      `xml:"name,attr"`
	Chains    []srdfChain `xml:"chain"`
	Joints    []srdfName  `xml:"joint"`
	Subgroups []srdfName  `xml:"group"`
}

type srdfChain struct {
	BaseLink string `xml:"base_link,attr"`
	TipLink  string `xml:"tip_link,attr"`
}

type srdfName struct {
	Name string `xml:"name,attr"`
}

// UnmarshalSRDF reads the planning groups of an SRDF document. A group may hold chains, joints and references to other
// groups; referenced groups are merged in.
func UnmarshalSRDF(xmlData []byte) ([]referenceframe.GroupConfig, error) {
	srdf := &SRDFConfig{}
	if err := xml.Unmarshal(xmlData, srdf); err != nil {
		return nil, errors.Wrap(err, "failed to parse SRDF data")
	}

	byName := make(map[string]srdfGroup, len(srdf.Groups))
	for _, g := range srdf.Groups {
		if _, ok := byName[g.Name]; ok {
			return nil, referenceframe.NewDuplicateNameError("group", g.Name)
		}
		byName[g.Name] = g
	}

	groups := make([]referenceframe.GroupConfig, 0, len(srdf.Groups))
	for _, g := range srdf.Groups {
		cfg := referenceframe.GroupConfig{Name: g.Name}
		if err := mergeGroup(&cfg, g, byName, map[string]bool{}); err != nil {
			return nil, err
		}
		groups = append(groups, cfg)
	}
	return groups, nil
}

func mergeGroup(cfg *referenceframe.GroupConfig, g srdfGroup, byName map[string]srdfGroup, visiting map[string]bool) error {
	if visiting[g.Name] {
		return errors.Errorf("group %q references itself", g.Name)
	}
	visiting[g.Name] = true
	defer delete(visiting, g.Name)

	for _, c := range g.Chains {
		if cfg.BaseLink != "" && cfg.BaseLink != c.BaseLink {
			return errors.Errorf("group %q has chains with different base links %q and %q", cfg.Name, cfg.BaseLink, c.BaseLink)
		}
		cfg.BaseLink = c.BaseLink
		cfg.TipLinks = append(cfg.TipLinks, c.TipLink)
	}
	for _, j := range g.Joints {
		cfg.Joints = append(cfg.Joints, j.Name)
	}
	for _, sub := range g.Subgroups {
		subGroup, ok := byName[sub.Name]
		if !ok {
			return errors.Errorf("group %q references unknown group %q", g.Name, sub.Name)
		}
		if err := mergeGroup(cfg, subGroup, byName, visiting); err != nil {
			return err
		}
	}
	return nil
}

// ParseSRDFFile reads the planning groups from an SRDF file.
func ParseSRDFFile(filename string) ([]referenceframe.GroupConfig, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read SRDF file")
	}
	return UnmarshalSRDF(xmlData)
}
