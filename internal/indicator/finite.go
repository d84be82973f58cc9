package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

func checkFinite(name string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrCodeInvalidParameter, "%s cannot use non-finite value %v", name, v)
		}
	}

	return nil
}
