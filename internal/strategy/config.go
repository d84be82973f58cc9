package strategy

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// DecodeConfig decodes a YAML strategy config into target and validates it.
// An empty config leaves target's defaults in place.
func DecodeConfig[T any](config string, target *T) error {
	if strings.TrimSpace(config) != "" {
		if err := yaml.Unmarshal([]byte(config), target); err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse strategy config", err)
		}
	}

	if err := validate.Struct(target); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	return nil
}
