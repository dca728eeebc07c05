package assessment

import "github.com/verdigris-botanica/egress/internal/types"

// System runs assessments over the organization's infrastructure and
// collects their findings. It is the upstream producer for the
// transmission pipeline; the pipeline itself never mutates findings.
type System struct {
	assessments []*Assessment
}

// NewSystem creates an empty assessment system.
func NewSystem() *System {
	return &System{assessments: []*Assessment{}}
}

// Create registers a new assessment of the given type.
func (s *System) Create(assessmentType AssessmentType, name string) *Assessment {
	a := NewAssessment(assessmentType, name)
	s.assessments = append(s.assessments, a)
	return a
}

// Get retrieves an assessment by ID, or nil if not found.
func (s *System) Get(id types.ID) *Assessment {
	for _, a := range s.assessments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Assessments returns all registered assessments in creation order.
func (s *System) Assessments() []*Assessment {
	return s.assessments
}

// RunSecurityAssessment performs the baseline security assessment.
// Sovereignty-related observations are classified SOVEREIGN so the
// filter keeps them inside the origin network.
func (s *System) RunSecurityAssessment() *Assessment {
	a := s.Create(TypeSecurity, "Infrastructure Security Assessment")

	a.AddFinding("network_security", SeverityInfo,
		types.ClassificationPublic,
		"Network perimeter security validated")
	a.AddFinding("encryption", SeverityInfo,
		types.ClassificationPublic,
		"Data encryption standards implemented")
	a.AddFinding("access_control", SeverityMedium,
		types.ClassificationSensitive,
		"Privileged account review interval exceeds policy")
	a.AddFinding("sovereignty", SeverityInfo,
		types.ClassificationSovereign,
		"Sovereignty controls active on restricted network segments")

	return a
}

// RunInfrastructureAssessment performs the infrastructure capacity assessment.
func (s *System) RunInfrastructureAssessment() *Assessment {
	a := s.Create(TypeInfrastructure, "Infrastructure Capacity Assessment")

	a.AddFinding("capacity", SeverityInfo,
		types.ClassificationSensitive,
		"Infrastructure capacity validated for continuity requirements")
	a.AddFinding("scalability", SeverityLow,
		types.ClassificationSensitive,
		"Systems demonstrate scalability headroom for projected growth")
	a.AddFinding("facilities", SeverityInfo,
		types.ClassificationConfidential,
		"Facility layout details recorded for internal planning")

	return a
}
