package verification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/verification"
	"kyc-gateway/internal/compliance/verification/mocks"
	"kyc-gateway/pkg/platform/circuit"
)

type observed struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *observed) observe(_ verification.Capability, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func TestGuard_PassesThroughValidResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityVerifier(ctrl)
	obs := &observed{}
	guard := verification.NewGuard(verification.Services{Identity: identity}, verification.WithCallObserver(obs.observe))

	identity.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).
		Return(&verification.IdentityResult{Verified: true, Score: 96}, nil)

	res, err := guard.VerifyIdentity(context.Background(), verification.IdentityRequest{})
	require.NoError(t, err)
	assert.Equal(t, 96, res.Score)
	assert.Equal(t, []string{"ok"}, obs.outcomes)
}

func TestGuard_OutOfRangeResultIsServiceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	risk := mocks.NewMockRiskAssessor(ctrl)
	guard := verification.NewGuard(verification.Services{Risk: risk},
		verification.WithBreakerOptions(circuit.WithFailureThreshold(1)))

	risk.EXPECT().AssessRisk(gomock.Any(), gomock.Any()).
		Return(&verification.RiskResult{OverallRiskScore: 140, RiskLevel: models.RiskCritical}, nil).
		Times(2)

	for range 2 {
		_, err := guard.AssessRisk(context.Background(), verification.RiskRequest{})
		require.Error(t, err)
		assert.True(t, verification.IsServiceFailure(err))
	}
	assert.False(t, guard.Breaker(verification.CapabilityRisk).IsOpen())
}

func TestGuard_TimeoutDiscardsLateResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	docs := mocks.NewMockDocumentProcessor(ctrl)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	guard := verification.NewGuard(verification.Services{Documents: docs}, verification.WithTimeout(20*time.Millisecond))

	docs.EXPECT().ProcessDocument(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ verification.DocumentRequest) (*verification.DocumentResult, error) {
			<-release
			return &verification.DocumentResult{ConfidenceScore: 90}, nil
		})

	res, err := guard.ProcessDocument(context.Background(), verification.DocumentRequest{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, verification.ErrorTimeout, verification.CategoryOf(err))
}

func TestGuard_BreakerOpensAfterFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	sanctions := mocks.NewMockSanctionsScreener(ctrl)
	guard := verification.NewGuard(verification.Services{Sanctions: sanctions},
		verification.WithBreakerOptions(circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour)))

	outage := verification.NewError(verification.ErrorUnavailable, verification.CapabilitySanctions, "watchlist api down", nil)
	sanctions.EXPECT().ScreenSanctions(gomock.Any(), gomock.Any()).Return(nil, outage).Times(2)

	for range 2 {
		_, err := guard.ScreenSanctions(context.Background(), verification.SanctionsRequest{})
		require.ErrorIs(t, err, outage)
	}

	_, err := guard.ScreenSanctions(context.Background(), verification.SanctionsRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, verification.ErrCircuitOpen)
	assert.Equal(t, verification.ErrorUnavailable, verification.CategoryOf(err))
}

func TestGuard_BreakerProbesAfterCooldown(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityVerifier(ctrl)
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	guard := verification.NewGuard(verification.Services{Identity: identity},
		verification.WithBreakerOptions(
			circuit.WithFailureThreshold(1),
			circuit.WithSuccessThreshold(1),
			circuit.WithCooldown(10*time.Second),
			circuit.WithClock(func() time.Time { return now }),
		))
	breaker := guard.Breaker(verification.CapabilityIdentity)
	outage := verification.NewError(verification.ErrorUnavailable, verification.CapabilityIdentity, "vendor down", nil)

	identity.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).Return(nil, outage)
	_, err := guard.VerifyIdentity(context.Background(), verification.IdentityRequest{})
	require.ErrorIs(t, err, outage)
	require.True(t, breaker.IsOpen())

	// open: the vendor is not called until the cooldown has passed
	now = now.Add(9 * time.Second)
	_, err = guard.VerifyIdentity(context.Background(), verification.IdentityRequest{})
	require.ErrorIs(t, err, verification.ErrCircuitOpen)

	// a failed probe keeps the circuit open and restarts the cooldown
	now = now.Add(2 * time.Second)
	identity.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).Return(nil, outage)
	_, err = guard.VerifyIdentity(context.Background(), verification.IdentityRequest{})
	require.ErrorIs(t, err, outage)
	assert.True(t, breaker.IsOpen())
	_, err = guard.VerifyIdentity(context.Background(), verification.IdentityRequest{})
	require.ErrorIs(t, err, verification.ErrCircuitOpen)

	now = now.Add(10 * time.Second)
	identity.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).
		Return(&verification.IdentityResult{Verified: true, Score: 91}, nil)
	res, err := guard.VerifyIdentity(context.Background(), verification.IdentityRequest{})
	require.NoError(t, err)
	assert.Equal(t, 91, res.Score)
	assert.False(t, breaker.IsOpen())

	identity.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).
		Return(&verification.IdentityResult{Verified: true, Score: 88}, nil)
	_, err = guard.VerifyIdentity(context.Background(), verification.IdentityRequest{})
	require.NoError(t, err)
}

func TestGuard_UnknownErrorIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityVerifier(ctrl)
	guard := verification.NewGuard(verification.Services{Identity: identity})

	identity.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	_, err := guard.VerifyIdentity(context.Background(), verification.IdentityRequest{})
	assert.Equal(t, verification.ErrorInternal, verification.CategoryOf(err))
	assert.False(t, verification.IsServiceFailure(err))
}

func TestGuard_MissingCapabilityIsUnavailable(t *testing.T) {
	guard := verification.NewGuard(verification.Services{})

	_, err := guard.ProcessDocument(context.Background(), verification.DocumentRequest{})
	assert.Equal(t, verification.ErrorUnavailable, verification.CategoryOf(err))
	_, err = guard.AssessRisk(context.Background(), verification.RiskRequest{})
	assert.Equal(t, verification.ErrorUnavailable, verification.CategoryOf(err))
}

func TestSanctionsResultValidate(t *testing.T) {
	bad := &verification.SanctionsResult{HasMatches: true, OverallRiskScore: 50}
	assert.True(t, verification.IsServiceFailure(bad.Validate()))

	good := &verification.SanctionsResult{
		HasMatches:       true,
		Matches:          []models.SanctionsMatch{{ListName: "PEP Database"}},
		OverallRiskScore: 60,
	}
	assert.NoError(t, good.Validate())
}
