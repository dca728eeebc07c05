package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdigris-botanica/egress/internal/assessment"
	"github.com/verdigris-botanica/egress/internal/types"
)

func TestIsTransmissible(t *testing.T) {
	tests := []struct {
		name           string
		classification types.DataClassification
		want           bool
		wantErr        bool
	}{
		{"public is allowed", types.ClassificationPublic, true, false},
		{"sensitive is allowed", types.ClassificationSensitive, true, false},
		{"confidential is denied", types.ClassificationConfidential, false, false},
		{"sovereign is denied", types.ClassificationSovereign, false, false},
		{"unknown fails closed with error", types.DataClassification("TOP_SECRET"), false, true},
		{"empty fails closed with error", types.DataClassification(""), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsTransmissible(tt.classification)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.CLASSIFICATION_VIOLATION, types.CodeOf(err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func finding(classification types.DataClassification, description string) assessment.Finding {
	return assessment.Finding{
		ID:             types.NewID(),
		Category:       "network_security",
		Severity:       assessment.SeverityInfo,
		Classification: classification,
		Description:    description,
	}
}

func TestFilterFindings_PartitionsByAllowSet(t *testing.T) {
	findings := []assessment.Finding{
		finding(types.ClassificationSovereign, "sovereignty controls"),
		finding(types.ClassificationPublic, "perimeter validated"),
		finding(types.ClassificationConfidential, "facility layout"),
		finding(types.ClassificationSensitive, "capacity headroom"),
	}

	pkg := FilterFindings(findings)

	require.Len(t, pkg.Findings, 2)
	assert.Equal(t, 2, pkg.RejectedCount)

	// relative order of the shareable subset is preserved
	assert.Equal(t, "perimeter validated", pkg.Findings[0].Description)
	assert.Equal(t, "capacity headroom", pkg.Findings[1].Description)

	// rejected content never appears in the output
	for _, f := range pkg.Findings {
		assert.NotEqual(t, types.ClassificationSovereign, f.Classification)
		assert.NotEqual(t, types.ClassificationConfidential, f.Classification)
	}
}

func TestFilterFindings_EmptyInput(t *testing.T) {
	pkg := FilterFindings(nil)
	assert.Empty(t, pkg.Findings)
	assert.Zero(t, pkg.RejectedCount)
	assert.True(t, pkg.IsEmpty())

	pkg = FilterFindings([]assessment.Finding{})
	assert.Empty(t, pkg.Findings)
	assert.Zero(t, pkg.RejectedCount)
}

func TestFilterFindings_UnknownClassificationFailsClosed(t *testing.T) {
	findings := []assessment.Finding{
		finding(types.DataClassification("MYSTERY"), "unlabeled observation"),
		finding(types.ClassificationPublic, "perimeter validated"),
	}

	pkg := FilterFindings(findings)

	require.Len(t, pkg.Findings, 1)
	assert.Equal(t, types.ClassificationPublic, pkg.Findings[0].Classification)
	assert.Equal(t, 1, pkg.RejectedCount)
}

func TestFilterFindings_AllRejected(t *testing.T) {
	findings := []assessment.Finding{
		finding(types.ClassificationSovereign, "a"),
		finding(types.ClassificationConfidential, "b"),
	}

	pkg := FilterFindings(findings)
	assert.True(t, pkg.IsEmpty())
	assert.Equal(t, 2, pkg.RejectedCount)
}
