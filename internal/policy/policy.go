// Package policy implements the classification policy governing which
// assessment data may leave the origin network, and the finding filter
// that enforces it. The filter is the single enforcement point over
// finding content; downstream components trust its output and never
// re-derive classification decisions.
package policy

import (
	"github.com/verdigris-botanica/egress/internal/types"
)

// IsTransmissible reports whether data with the given classification may
// be transmitted to an external recipient. The allow-set is fixed to
// {PUBLIC, SENSITIVE}. An unrecognized classification returns an error
// rather than a default decision, so an unmapped value can never fail
// open.
func IsTransmissible(c types.DataClassification) (bool, error) {
	switch c {
	case types.ClassificationPublic, types.ClassificationSensitive:
		return true, nil
	case types.ClassificationConfidential, types.ClassificationSovereign:
		return false, nil
	default:
		return false, types.NewError(types.CLASSIFICATION_VIOLATION,
			"unrecognized data classification: "+c.String())
	}
}
