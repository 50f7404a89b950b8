// Package static is a deterministic, fixture-driven implementation of the
// verification capabilities. It backs local runs and demos; outcomes depend
// only on the request and the loaded fixture.
package static

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/policy"
	"kyc-gateway/internal/compliance/verification"
)

//go:embed fixtures.yaml
var defaultFixture []byte

type Fixture struct {
	Documents DocumentFixture  `yaml:"documents"`
	Identity  IdentityFixture  `yaml:"identity"`
	Sanctions SanctionsFixture `yaml:"sanctions"`
	Risk      RiskFixture      `yaml:"risk"`
}

type DocumentFixture struct {
	ConfidenceScore  int    `yaml:"confidence_score"`
	UnreadableMarker string `yaml:"unreadable_marker"`
}

type IdentityFixture struct {
	VerifyThreshold int                        `yaml:"verify_threshold"`
	DefaultScore    int                        `yaml:"default_score"`
	Subjects        map[string]IdentityOutcome `yaml:"subjects"`
}

type IdentityOutcome struct {
	Score        int      `yaml:"score"`
	FailedChecks []string `yaml:"failed_checks"`
}

type SanctionsFixture struct {
	Lists          []string         `yaml:"lists"`
	CleanRiskScore int              `yaml:"clean_risk_score"`
	Entries        []SanctionsEntry `yaml:"entries"`
}

type SanctionsEntry struct {
	Name   string  `yaml:"name"`
	List   string  `yaml:"list"`
	Score  float64 `yaml:"score"`
	Reason string  `yaml:"reason"`
}

type RiskFixture struct {
	HighRiskCountries     []string `yaml:"high_risk_countries"`
	MediumRiskCountries   []string `yaml:"medium_risk_countries"`
	HighRiskOccupations   []string `yaml:"high_risk_occupations"`
	MediumRiskOccupations []string `yaml:"medium_risk_occupations"`
	AdverseMediaRisk      int      `yaml:"adverse_media_risk"`
}

var checkReasons = map[string]string{
	"name_match":         "Name mismatch in government records",
	"dob_match":          "Date of birth inconsistency",
	"address_match":      "Address verification failed",
	"document_authentic": "Document authenticity concerns",
	"government_db":      "Government database verification failed",
	"biometric_match":    "Biometric verification failed",
}

var checkOrder = []string{"name_match", "dob_match", "address_match", "document_authentic", "government_db", "biometric_match"}

// Provider implements every verification capability from a Fixture.
type Provider struct {
	fixture Fixture
	now     func() time.Time
}

// Default returns a provider backed by the embedded fixture.
func Default() *Provider {
	p, err := Parse(defaultFixture)
	if err != nil {
		panic(fmt.Sprintf("embedded verification fixture: %v", err))
	}
	return p
}

// Load reads a fixture file.
func Load(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load verification fixture %q: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Provider, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse verification fixture: %w", err)
	}
	if f.Identity.VerifyThreshold == 0 {
		f.Identity.VerifyThreshold = 85
	}
	if f.Documents.ConfidenceScore == 0 {
		f.Documents.ConfidenceScore = 93
	}
	if f.Identity.DefaultScore == 0 {
		f.Identity.DefaultScore = 96
	}
	return &Provider{fixture: f, now: time.Now}, nil
}

// Services exposes the provider as every capability.
func (p *Provider) Services() verification.Services {
	return verification.Services{Documents: p, Identity: p, Sanctions: p, Risk: p}
}

func (p *Provider) ProcessDocument(ctx context.Context, req verification.DocumentRequest) (*verification.DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	marker := p.fixture.Documents.UnreadableMarker
	if marker != "" && strings.Contains(req.DocumentImage, marker) {
		return nil, verification.NewError(verification.ErrorBadData, verification.CapabilityDocument, "document image could not be read", nil)
	}
	number := documentNumber(req.DocumentImage)
	data := map[string]any{"documentValid": true}
	switch req.DocumentType {
	case models.DocumentPassport:
		data["documentNumber"] = "P" + number
		data["issuingAuthority"] = "Department of State"
	case models.DocumentDriversLicense:
		data["documentNumber"] = "DL" + number
	case models.DocumentUtilityBill, models.DocumentBankStatement:
		data["accountNumber"] = "AC" + number
	case models.DocumentBusinessLicense:
		data["licenseNumber"] = "BL" + number
	default:
		data["documentNumber"] = "DOC" + number
	}
	return &verification.DocumentResult{
		ExtractedData:   data,
		ConfidenceScore: p.fixture.Documents.ConfidenceScore,
		ProcessedAt:     p.now(),
	}, nil
}

func (p *Provider) VerifyIdentity(ctx context.Context, req verification.IdentityRequest) (*verification.IdentityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outcome, ok := p.fixture.Identity.Subjects[nameKey(req.Subject.FirstName, req.Subject.LastName)]
	if !ok {
		outcome = IdentityOutcome{Score: p.fixture.Identity.DefaultScore}
	}
	failed := make(map[string]bool, len(outcome.FailedChecks))
	for _, c := range outcome.FailedChecks {
		failed[c] = true
	}
	if len(req.Documents) == 0 {
		failed["document_authentic"] = true
	}

	checks := make(map[string]bool, len(checkOrder))
	var reasons []string
	for _, c := range checkOrder {
		checks[c] = !failed[c]
		if failed[c] {
			reasons = append(reasons, checkReasons[c])
		}
	}
	score := outcome.Score
	if len(req.Documents) == 0 {
		score = min(score, p.fixture.Identity.VerifyThreshold-1)
	}
	return &verification.IdentityResult{
		Verified: score >= p.fixture.Identity.VerifyThreshold,
		Score:    score,
		Checks:   checks,
		Reasons:  reasons,
	}, nil
}

func (p *Provider) ScreenSanctions(ctx context.Context, req verification.SanctionsRequest) (*verification.SanctionsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var name string
	switch {
	case req.Person != nil:
		name = nameKey(req.Person.FirstName, req.Person.LastName)
	case req.Business != nil:
		name = nameKey(req.Business.CompanyName)
	default:
		return nil, verification.NewError(verification.ErrorBadData, verification.CapabilitySanctions, "no subject to screen", nil)
	}

	var matches []models.SanctionsMatch
	for _, e := range p.fixture.Sanctions.Entries {
		if nameKey(e.Name) == name {
			matches = append(matches, models.SanctionsMatch{ListName: e.List, MatchScore: e.Score, MatchReason: e.Reason})
		}
	}
	risk := p.fixture.Sanctions.CleanRiskScore
	if len(matches) > 0 {
		risk = min(95, 50+15*len(matches))
	}
	return &verification.SanctionsResult{
		HasMatches:       len(matches) > 0,
		Matches:          matches,
		OverallRiskScore: risk,
		ListsScreened:    p.fixture.Sanctions.Lists,
	}, nil
}

// Factor weights for the overall risk score.
const (
	weightGeographic   = 0.2
	weightOccupation   = 0.15
	weightTransaction  = 0.2
	weightSanctions    = 0.25
	weightIdentity     = 0.15
	weightAdverseMedia = 0.05
)

func (p *Provider) AssessRisk(ctx context.Context, req verification.RiskRequest) (*verification.RiskResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := p.fixture.Risk

	geographic, occupation := 20, 20
	switch {
	case req.Personal != nil:
		geographic = tier(req.Personal.Nationality, f.HighRiskCountries, f.MediumRiskCountries, 90, 55, 20)
		occupation = tier(req.Personal.Occupation, f.HighRiskOccupations, f.MediumRiskOccupations, 85, 50, 17)
	case req.Business != nil:
		geographic = tier(req.Business.Address.Country, f.HighRiskCountries, f.MediumRiskCountries, 90, 55, 20)
		occupation = tier(req.Business.Industry, f.HighRiskOccupations, f.MediumRiskOccupations, 85, 50, 17)
	}

	transaction := 15
	switch v := req.Transactions.ExpectedVolume; {
	case v > 1_000_000:
		transaction = 75
	case v > 100_000:
		transaction = 45
	case v > 0:
		transaction = 20
	}

	identityRisk := 100 - req.IdentityScore
	adverse := f.AdverseMediaRisk
	overall := int(math.Round(
		float64(geographic)*weightGeographic +
			float64(occupation)*weightOccupation +
			float64(transaction)*weightTransaction +
			float64(req.SanctionsRisk)*weightSanctions +
			float64(identityRisk)*weightIdentity +
			float64(adverse)*weightAdverseMedia,
	))
	overall = max(0, min(100, overall))
	level := policy.RiskBand(overall)

	var reasons []string
	if geographic > 50 {
		reasons = append(reasons, "High-risk jurisdiction")
	}
	if occupation > 50 {
		reasons = append(reasons, "High-risk occupation")
	}
	if transaction > 50 {
		reasons = append(reasons, "High transaction volume")
	}
	if req.SanctionsRisk > 30 {
		reasons = append(reasons, "Sanctions screening concerns")
	}
	if identityRisk > 30 {
		reasons = append(reasons, "Identity verification issues")
	}

	return &verification.RiskResult{
		OverallRiskScore: overall,
		RiskLevel:        level,
		Factors: models.RiskFactors{
			GeographicRisk:   geographic,
			OccupationRisk:   occupation,
			TransactionRisk:  transaction,
			SanctionsRisk:    req.SanctionsRisk,
			PEPRisk:          int(math.Round(float64(adverse) * 0.6)),
			AdverseMediaRisk: adverse,
		},
		RiskReasons:        reasons,
		MitigationMeasures: mitigations(level),
	}, nil
}

func mitigations(level models.RiskLevel) []string {
	switch level {
	case models.RiskCritical:
		return []string{"Enhanced due diligence required", "Senior management approval needed", "Ongoing monitoring required"}
	case models.RiskHigh:
		return []string{"Additional documentation required", "Enhanced monitoring"}
	case models.RiskMedium:
		return []string{"Standard monitoring procedures"}
	}
	return []string{}
}

func tier(value string, high, medium []string, highScore, mediumScore, baseScore int) int {
	for _, h := range high {
		if strings.EqualFold(h, value) {
			return highScore
		}
	}
	for _, m := range medium {
		if strings.EqualFold(m, value) {
			return mediumScore
		}
	}
	return baseScore
}

func nameKey(parts ...string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
}

func documentNumber(image string) string {
	sum := sha256.Sum256([]byte(image))
	digits := make([]byte, 0, 8)
	for _, b := range sum {
		digits = append(digits, '0'+b%10)
		if len(digits) == 8 {
			break
		}
	}
	return string(digits)
}
