package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// CheckCompatibility reports whether a run configuration written for required can run on
// the engine. Major and minor must match and patch may differ. Either side being "main"
// (a development build) skips the check.
func CheckCompatibility(engine, required string) error {
	engine = strings.TrimPrefix(engine, "v")
	required = strings.TrimPrefix(required, "v")

	if engine == "main" || required == "main" {
		return nil
	}

	engineVersion, err := semver.NewVersion(engine)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version %q", engine)
	}

	requiredVersion, err := semver.NewVersion(required)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid required version %q", required)
	}

	if engineVersion.Major() != requiredVersion.Major() || engineVersion.Minor() != requiredVersion.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"config requires engine %d.%d.x but engine is %s",
			requiredVersion.Major(), requiredVersion.Minor(), engineVersion.String())
	}

	return nil
}

// Check reports whether required is compatible with the running engine.
func Check(required string) error {
	return CheckCompatibility(GetVersion(), required)
}
