package policy

import (
	"github.com/verdigris-botanica/egress/internal/assessment"
)

// ShareablePackage is the filtered, ordered subset of findings eligible
// for external transmission, plus a count of rejected findings. Rejected
// content is never carried, only the count, so the audit trail can show
// that filtering happened without exposing what was withheld.
type ShareablePackage struct {
	Findings      []assessment.Finding `json:"findings"`
	RejectedCount int                  `json:"rejected_count"`
}

// IsEmpty reports whether the package contains no shareable findings.
func (p ShareablePackage) IsEmpty() bool {
	return len(p.Findings) == 0
}

// FilterFindings partitions findings by transmission eligibility in a
// single pass, preserving the relative order of the shareable subset.
// A finding with an unrecognized classification is counted as rejected
// (fail closed), never returned. Empty input yields an empty package.
func FilterFindings(findings []assessment.Finding) ShareablePackage {
	pkg := ShareablePackage{Findings: []assessment.Finding{}}

	for _, f := range findings {
		allowed, err := IsTransmissible(f.Classification)
		if err != nil || !allowed {
			pkg.RejectedCount++
			continue
		}
		pkg.Findings = append(pkg.Findings, f)
	}

	return pkg
}
