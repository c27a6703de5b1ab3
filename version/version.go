package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/buildamp/errors"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "0.4.0-dev"
)

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash" yaml:"commit_hash"`
	BuildTime  string `json:"build_time" yaml:"build_time"`
	Version    string `json:"version" yaml:"version"`
	GoVersion  string `json:"go_version" yaml:"go_version"`
	Platform   string `json:"platform" yaml:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	return fmt.Sprintf("buildamp %s (commit %s, built %s)", i.Version, i.Short(), i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// CheckConstraint verifies that the running version satisfies a project's
// `requires` constraint (e.g. ">= 0.4.0-0"). An empty constraint always passes.
func CheckConstraint(constraint string) error {
	return checkConstraint(Version, constraint)
}

func checkConstraint(current, constraint string) error {
	if constraint == "" {
		return nil
	}

	ver, err := semver.NewVersion(current)
	if err != nil {
		return errors.Wrapf(err, "invalid buildamp version %s", current)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", constraint)
	}

	if !c.Check(ver) {
		return errors.WithHintf(
			errors.Wrapf(errors.ErrVersionMismatch, "project requires buildamp %s, but running %s", constraint, current),
			"install a buildamp release matching %s", constraint)
	}
	return nil
}
