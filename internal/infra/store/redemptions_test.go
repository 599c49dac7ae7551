package store_test

import (
	"context"
	"testing"
	"time"

	"pass-app/internal/domain/passes"
	"pass-app/internal/infra/store"
	"pass-app/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedemptions_AppendAndList(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	purchases := store.NewPurchaseRepository(db)
	redemptions := store.NewRedemptionRepository(db)

	p, err := purchases.Upsert(ctx, newPurchase("cs_r", passes.StatusPaid))
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, redemptions.Append(ctx, &passes.Redemption{
		PurchaseID: p.ID, VenueID: "surf-cafe", ScannedAt: now.Add(-time.Hour), Result: passes.ScanValid,
	}))
	require.NoError(t, redemptions.Append(ctx, &passes.Redemption{
		PurchaseID: p.ID, VenueID: "yoga-deck", ScannedAt: now, Result: passes.ScanExpired,
	}))

	got, err := redemptions.ListForPurchase(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "yoga-deck", got[0].VenueID)
	assert.Equal(t, passes.ScanValid, got[1].Result)
}
