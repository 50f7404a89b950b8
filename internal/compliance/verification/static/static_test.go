package static

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/verification"
	id "kyc-gateway/pkg/domain"
)

func TestProcessDocument(t *testing.T) {
	p := Default()
	ctx := context.Background()

	t.Run("extraction is deterministic per image", func(t *testing.T) {
		req := verification.DocumentRequest{CustomerID: id.NewCustomerID(), DocumentType: models.DocumentPassport, DocumentImage: "base64-passport"}
		first, err := p.ProcessDocument(ctx, req)
		require.NoError(t, err)
		second, err := p.ProcessDocument(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, first.ExtractedData, second.ExtractedData)
		assert.Equal(t, 93, first.ConfidenceScore)
		assert.Regexp(t, `^P\d{8}$`, first.ExtractedData["documentNumber"])
	})

	t.Run("unreadable image is a bad data failure", func(t *testing.T) {
		_, err := p.ProcessDocument(ctx, verification.DocumentRequest{DocumentType: models.DocumentPassport, DocumentImage: "unreadable-scan"})
		require.Error(t, err)
		assert.True(t, verification.IsServiceFailure(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.ProcessDocument(cctx, verification.DocumentRequest{DocumentType: models.DocumentPassport, DocumentImage: "x"})
		assert.Equal(t, verification.ErrorTimeout, verification.CategoryOf(err))
	})
}

func TestVerifyIdentity(t *testing.T) {
	p := Default()
	ctx := context.Background()
	docs := []verification.DocumentRef{{Type: models.DocumentPassport, Number: "P1"}}

	t.Run("unknown subject gets default score", func(t *testing.T) {
		res, err := p.VerifyIdentity(ctx, verification.IdentityRequest{
			Subject:   models.PersonalInfo{FirstName: "Ada", LastName: "Lovelace"},
			Documents: docs,
		})
		require.NoError(t, err)
		assert.True(t, res.Verified)
		assert.Equal(t, 96, res.Score)
		assert.Empty(t, res.Reasons)
	})

	t.Run("fixture subject fails verification", func(t *testing.T) {
		res, err := p.VerifyIdentity(ctx, verification.IdentityRequest{
			Subject:   models.PersonalInfo{FirstName: "John", LastName: "DOE"},
			Documents: docs,
		})
		require.NoError(t, err)
		assert.False(t, res.Verified)
		assert.Equal(t, 67, res.Score)
		assert.Contains(t, res.Reasons, "Address verification failed")
		assert.False(t, res.Checks["biometric_match"])
	})

	t.Run("no documents never verifies", func(t *testing.T) {
		res, err := p.VerifyIdentity(ctx, verification.IdentityRequest{
			Subject: models.PersonalInfo{FirstName: "Ada", LastName: "Lovelace"},
		})
		require.NoError(t, err)
		assert.False(t, res.Verified)
		assert.Equal(t, 84, res.Score)
	})
}

func TestScreenSanctions(t *testing.T) {
	p := Default()
	ctx := context.Background()

	t.Run("clean person", func(t *testing.T) {
		res, err := p.ScreenSanctions(ctx, verification.SanctionsRequest{Person: &verification.SanctionsSubject{FirstName: "Ada", LastName: "Lovelace"}})
		require.NoError(t, err)
		assert.False(t, res.HasMatches)
		assert.Equal(t, 10, res.OverallRiskScore)
		assert.Len(t, res.ListsScreened, 5)
		require.NoError(t, res.Validate())
	})

	t.Run("listed person", func(t *testing.T) {
		res, err := p.ScreenSanctions(ctx, verification.SanctionsRequest{Person: &verification.SanctionsSubject{FirstName: "Ivan", LastName: "Petrov"}})
		require.NoError(t, err)
		assert.True(t, res.HasMatches)
		require.Len(t, res.Matches, 1)
		assert.Equal(t, "OFAC SDN", res.Matches[0].ListName)
		assert.Equal(t, 65, res.OverallRiskScore)
	})

	t.Run("listed business", func(t *testing.T) {
		res, err := p.ScreenSanctions(ctx, verification.SanctionsRequest{Business: &verification.SanctionsBusiness{CompanyName: "Shadow  Holdings LTD"}})
		require.NoError(t, err)
		assert.True(t, res.HasMatches)
	})

	t.Run("no subject", func(t *testing.T) {
		_, err := p.ScreenSanctions(ctx, verification.SanctionsRequest{})
		assert.True(t, verification.IsServiceFailure(err))
	})
}

func TestAssessRisk(t *testing.T) {
	p := Default()
	ctx := context.Background()

	t.Run("ordinary individual is low risk", func(t *testing.T) {
		res, err := p.AssessRisk(ctx, verification.RiskRequest{
			Personal:      &models.PersonalInfo{Nationality: "GB", Occupation: "Engineer"},
			Transactions:  verification.TransactionProfile{ExpectedVolume: models.DefaultExpectedVolume},
			IdentityScore: 96,
			SanctionsRisk: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 14, res.OverallRiskScore)
		assert.Equal(t, models.RiskLow, res.RiskLevel)
		assert.Empty(t, res.RiskReasons)
		assert.Empty(t, res.MitigationMeasures)
	})

	t.Run("high risk jurisdiction and occupation", func(t *testing.T) {
		res, err := p.AssessRisk(ctx, verification.RiskRequest{
			Personal:      &models.PersonalInfo{Nationality: "Iran", Occupation: "Casino"},
			Transactions:  verification.TransactionProfile{ExpectedVolume: 5_000_000},
			IdentityScore: 60,
			SanctionsRisk: 80,
		})
		require.NoError(t, err)
		// 18 + 12.75 + 15 + 20 + 6 + 0.5
		assert.Equal(t, 72, res.OverallRiskScore)
		assert.Equal(t, models.RiskCritical, res.RiskLevel)
		assert.Contains(t, res.RiskReasons, "High-risk jurisdiction")
		assert.Contains(t, res.MitigationMeasures, "Senior management approval needed")
		require.NoError(t, res.Validate())
	})

	t.Run("business uses industry and address country", func(t *testing.T) {
		res, err := p.AssessRisk(ctx, verification.RiskRequest{
			Business:      &models.BusinessInfo{Industry: "Real Estate", Address: models.Address{Country: "Panama"}},
			IdentityScore: 90,
			SanctionsRisk: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 55, res.Factors.GeographicRisk)
		assert.Equal(t, 50, res.Factors.OccupationRisk)
		assert.Equal(t, 15, res.Factors.TransactionRisk)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
identity:
  default_score: 70
sanctions:
  clean_risk_score: 5
`), 0o600))

	p, err := Load(path)
	require.NoError(t, err)

	res, err := p.VerifyIdentity(context.Background(), verification.IdentityRequest{
		Subject:   models.PersonalInfo{FirstName: "Ada", LastName: "Lovelace"},
		Documents: []verification.DocumentRef{{Type: models.DocumentPassport}},
	})
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, 70, res.Score)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("identity: [not, a, map"))
	assert.Error(t, err)
}
