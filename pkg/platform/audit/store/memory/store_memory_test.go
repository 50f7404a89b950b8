package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "kyc-gateway/pkg/domain"
	audit "kyc-gateway/pkg/platform/audit"
)

func TestInMemoryStore_TrailPerCustomer(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	alice, bob := id.NewCustomerID(), id.NewCustomerID()

	require.NoError(t, store.Append(ctx, audit.ComplianceEvent{CustomerID: alice, Action: audit.ActionInitiated}))
	require.NoError(t, store.Append(ctx, audit.ComplianceEvent{CustomerID: bob, Action: audit.ActionInitiated}))
	require.NoError(t, store.Append(ctx, audit.ComplianceEvent{CustomerID: alice, Action: audit.ActionProfileCollected}))

	trail, err := store.ListByCustomer(ctx, alice)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, audit.ActionInitiated, trail[0].Action)
	assert.Equal(t, audit.ActionProfileCollected, trail[1].Action)

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, audit.ActionProfileCollected, recent[0].Action)
	assert.Equal(t, bob, recent[1].CustomerID)

	store.Clear()
	trail, _ = store.ListByCustomer(ctx, alice)
	assert.Empty(t, trail)
}
