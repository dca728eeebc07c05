package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdigris-botanica/egress/internal/types"
)

func TestAssessment_AddFinding(t *testing.T) {
	a := NewAssessment(TypeSecurity, "test assessment")

	f := a.AddFinding("network_security", SeverityHigh,
		types.ClassificationSensitive, "open management port")

	require.Len(t, a.Findings, 1)
	assert.NoError(t, f.ID.Validate())
	assert.Equal(t, "network_security", f.Category)
	assert.Equal(t, SeverityHigh, f.Severity)
	assert.Equal(t, types.ClassificationSensitive, f.Classification)
	assert.False(t, f.CreatedAt.IsZero())
}

func TestSystem_RunSecurityAssessment(t *testing.T) {
	system := NewSystem()
	a := system.RunSecurityAssessment()

	assert.Equal(t, TypeSecurity, a.Type)
	require.NotEmpty(t, a.Findings)

	var sovereign int
	for _, f := range a.Findings {
		assert.True(t, f.Classification.IsValid())
		if f.Classification == types.ClassificationSovereign {
			sovereign++
		}
	}
	assert.Greater(t, sovereign, 0, "sovereignty observations stay classified SOVEREIGN")

	assert.Same(t, a, system.Get(a.ID))
	assert.Nil(t, system.Get(types.NewID()))
}

func TestSystem_RunInfrastructureAssessment(t *testing.T) {
	system := NewSystem()
	a := system.RunInfrastructureAssessment()

	assert.Equal(t, TypeInfrastructure, a.Type)
	require.NotEmpty(t, a.Findings)
	assert.Len(t, system.Assessments(), 1)
}

func TestSummarizeSeverity(t *testing.T) {
	findings := []Finding{
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
		{Severity: SeverityInfo},
		{Severity: FindingSeverity("bogus")},
	}

	s := SummarizeSeverity(findings)
	assert.Equal(t, 1, s.Critical)
	assert.Equal(t, 2, s.High)
	assert.Equal(t, 1, s.Medium)
	assert.Zero(t, s.Low)
	assert.Equal(t, 1, s.Info)
}

func TestAssessmentType_IsValid(t *testing.T) {
	assert.True(t, TypeSecurity.IsValid())
	assert.True(t, TypeCompliance.IsValid())
	assert.False(t, AssessmentType("audit").IsValid())
}
