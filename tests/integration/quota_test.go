package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/tests/testutil"
)

// Exercises the full free-tier lifecycle: hitting the contact ceiling,
// upgrading to lift it, then downgrading back with overage warnings.
func TestQuota_Integration_CeilingUpgradeDowngrade(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	perms := authz.NewEvaluator()
	quotaSvc := services.NewQuotaService(tdb.DB)
	wsSvc := services.NewWorkspaceService(tdb.DB, testTrialPeriod)
	subSvc := services.NewSubscriptionService(tdb.DB, quotaSvc)
	contactSvc := services.NewContactService(tdb.DB, wsSvc, quotaSvc, perms)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	ws := fixtures.CreateWorkspace(t, owner)
	principal := authz.Principal{ID: owner.ID, Role: authz.RoleOwner}

	// Park the workspace one slot below the free contact ceiling.
	freeLimit := models.TierLimits[models.TierFree].Contacts
	fixtures.SetQuota(t, ws, models.KindContacts, freeLimit-1, freeLimit)

	// The last slot is granted...
	_, err := contactSvc.Create(ctx, principal, ws.ID, services.ContactInput{Name: "Last free contact"})
	require.NoError(t, err)

	// ...and the one after it is refused.
	_, err = contactSvc.Create(ctx, principal, ws.ID, services.ContactInput{Name: "One too many"})
	assert.ErrorIs(t, err, services.ErrQuotaExceeded)

	// The refused create must not leak a row or a quota slot.
	quota, err := quotaSvc.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, freeLimit, quota.CurrentContacts)

	// Upgrading swaps in the starter ceilings and unblocks creation.
	require.NoError(t, subSvc.Upgrade(ctx, ws.ID, models.TierStarter))

	sub := subSvc.Get(ctx, ws.ID)
	require.NotNil(t, sub)
	assert.Equal(t, models.TierStarter, sub.Tier)
	assert.Equal(t, models.StatusActive, sub.Status)

	contact, err := contactSvc.Create(ctx, principal, ws.ID, services.ContactInput{Name: "Post-upgrade contact"})
	require.NoError(t, err)
	assert.Equal(t, "Post-upgrade contact", contact.Name)

	// Downgrading below current usage keeps the data but warns per resource.
	warnings, err := subSvc.Downgrade(ctx, ws.ID, models.TierFree)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "existing data is kept")

	// Over-ceiling workspaces cannot create until usage drops.
	_, err = contactSvc.Create(ctx, principal, ws.ID, services.ContactInput{Name: "Blocked again"})
	assert.ErrorIs(t, err, services.ErrQuotaExceeded)

	// Deleting a contact releases a slot; the workspace is still over the
	// ceiling, so creation stays blocked until usage falls below it.
	quota, err = quotaSvc.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, freeLimit+1, quota.CurrentContacts)

	require.NoError(t, contactSvc.SoftDelete(ctx, principal, ws.ID, contact.ID))

	quota, err = quotaSvc.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, freeLimit, quota.CurrentContacts)
}

func TestQuota_Integration_UnlimitedEnterpriseTier(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	perms := authz.NewEvaluator()
	quotaSvc := services.NewQuotaService(tdb.DB)
	wsSvc := services.NewWorkspaceService(tdb.DB, testTrialPeriod)
	subSvc := services.NewSubscriptionService(tdb.DB, quotaSvc)
	contactSvc := services.NewContactService(tdb.DB, wsSvc, quotaSvc, perms)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	ws := fixtures.CreateWorkspace(t, owner)
	principal := authz.Principal{ID: owner.ID, Role: authz.RoleOwner}

	require.NoError(t, subSvc.Upgrade(ctx, ws.ID, models.TierEnterprise))

	// -1 ceilings never refuse.
	for i := 0; i < 5; i++ {
		_, err := contactSvc.Create(ctx, principal, ws.ID,
			services.ContactInput{Name: fmt.Sprintf("Contact %d", i)})
		require.NoError(t, err)
	}

	quota, err := quotaSvc.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), quota.MaxContacts)
	assert.Equal(t, int64(5), quota.CurrentContacts)
}

func TestQuota_Integration_RestoreRespectsCeiling(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	perms := authz.NewEvaluator()
	quotaSvc := services.NewQuotaService(tdb.DB)
	wsSvc := services.NewWorkspaceService(tdb.DB, testTrialPeriod)
	contactSvc := services.NewContactService(tdb.DB, wsSvc, quotaSvc, perms)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	ws := fixtures.CreateWorkspace(t, owner)
	principal := authz.Principal{ID: owner.ID, Role: authz.RoleOwner}

	contact, err := contactSvc.Create(ctx, principal, ws.ID, services.ContactInput{Name: "Revivable"})
	require.NoError(t, err)
	require.NoError(t, contactSvc.SoftDelete(ctx, principal, ws.ID, contact.ID))

	// Fill the quota while the contact is deleted.
	freeLimit := models.TierLimits[models.TierFree].Contacts
	fixtures.SetQuota(t, ws, models.KindContacts, freeLimit, freeLimit)

	// Restoring would exceed the ceiling, so it is refused.
	_, err = contactSvc.Restore(ctx, principal, ws.ID, contact.ID)
	assert.ErrorIs(t, err, services.ErrQuotaExceeded)

	// With room available the restore consumes a slot and revives the row.
	fixtures.SetQuota(t, ws, models.KindContacts, freeLimit-1, freeLimit)

	restored, err := contactSvc.Restore(ctx, principal, ws.ID, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
}
