package compat

import (
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Requirement types reported by Evaluate.
const (
	RequirementVersion  = "minimum-version"
	RequirementPlatform = "platform"
	RequirementFeature  = "feature"
)

// Environment describes the running client as plugins see it.
type Environment struct {
	ClientVersion *semver.Version
	Platform      string
	Features      []string
}

// CurrentEnvironment builds the Environment for this process. The version
// string tolerates a leading "v"; if it does not parse, ClientVersion stays
// nil and every version requirement evaluates unmet.
func CurrentEnvironment(version string, features ...string) Environment {
	env := Environment{
		Platform: runtime.GOOS,
		Features: features,
	}
	if v, err := semver.NewVersion(strings.TrimPrefix(version, "v")); err == nil {
		env.ClientVersion = v
	}
	return env
}

// HasFeature reports whether the environment provides the named feature.
func (e Environment) HasFeature(name string) bool {
	for _, f := range e.Features {
		if f == name {
			return true
		}
	}
	return false
}

// Requirements declares what a plugin needs from the client. Zero-valued
// fields impose no requirement.
type Requirements struct {
	MinimumVersion string   `yaml:"minimum_version,omitempty" json:"minimum_version,omitempty"`
	Platforms      []string `yaml:"platforms,omitempty" json:"platforms,omitempty"`
	Features       []string `yaml:"features,omitempty" json:"features,omitempty"`
}

// Empty reports whether no requirement is declared.
func (r Requirements) Empty() bool {
	return r.MinimumVersion == "" && len(r.Platforms) == 0 && len(r.Features) == 0
}

// Requirement is a single evaluated compatibility check.
type Requirement struct {
	Type  string
	Value string
	Met   bool
}

// Evaluate checks each declared requirement against the environment and
// returns one Requirement per declaration, in declaration order.
func Evaluate(req Requirements, env Environment) []Requirement {
	var results []Requirement
	if req.MinimumVersion != "" {
		results = append(results, Requirement{
			Type:  RequirementVersion,
			Value: req.MinimumVersion,
			Met:   versionMet(req.MinimumVersion, env.ClientVersion),
		})
	}
	if len(req.Platforms) > 0 {
		met := false
		for _, p := range req.Platforms {
			if strings.EqualFold(p, env.Platform) {
				met = true
				break
			}
		}
		results = append(results, Requirement{
			Type:  RequirementPlatform,
			Value: strings.Join(req.Platforms, ", "),
			Met:   met,
		})
	}
	for _, f := range req.Features {
		results = append(results, Requirement{
			Type:  RequirementFeature,
			Value: f,
			Met:   env.HasFeature(f),
		})
	}
	return results
}

// Compatible reports whether every declared requirement is met.
func Compatible(req Requirements, env Environment) bool {
	for _, r := range Evaluate(req, env) {
		if !r.Met {
			return false
		}
	}
	return true
}

// versionMet checks the client version against a constraint expression.
// A bare version such as "1.2.0" means ">=1.2.0". Unparseable expressions
// evaluate unmet rather than erroring.
func versionMet(expr string, current *semver.Version) bool {
	if current == nil {
		return false
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	if expr[0] >= '0' && expr[0] <= '9' || strings.HasPrefix(expr, "v") {
		expr = ">=" + strings.TrimPrefix(expr, "v")
	}
	constraint, err := semver.NewConstraint(expr)
	if err != nil {
		return false
	}
	return constraint.Check(current)
}
