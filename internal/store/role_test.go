// ABOUTME: Integration tests for org roles, overrides, and the role template catalog.
// ABOUTME: Covers lazy idempotent creation under concurrency and end-to-end permission checks.
package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
	"github.com/hassandayeh/NRE-sub001/internal/store"
	"github.com/hassandayeh/NRE-sub001/internal/testutil"
)

func TestEnsureOrgRole_ConcurrentCreationIsIdempotent(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	org, err := s.CreateOrg(ctx, "Org")
	require.NoError(t, err)

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			role, err := s.EnsureOrgRole(ctx, org.ID, 3)
			if err != nil {
				t.Errorf("EnsureOrgRole: %v", err)
				return
			}
			ids[i] = role.ID.String()
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i], "all callers must see the same row")
	}
	roles, err := s.ListOrgRoles(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.False(t, roles[0].Active, "lazily created roles start inactive")
}

func TestSetOverride_ConcurrentCreationIsIdempotent(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	org, err := s.CreateOrg(ctx, "Org")
	require.NoError(t, err)

	// Slot 7 has never been configured, so every caller races to create
	// both the org role and the override.
	const n = 8
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SetOverride(ctx, org.ID, 7, permission.BookingEdit, i%2 == 0); err != nil {
				t.Errorf("SetOverride: %v", err)
			}
		}()
	}
	wg.Wait()

	roles, err := s.ListOrgRoles(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, permission.Slot(7), roles[0].Slot)

	ovs, err := s.ListOverrides(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, ovs, 1)
	assert.Equal(t, roles[0].ID, ovs[0].OrgRoleID)
	assert.Equal(t, permission.BookingEdit, ovs[0].Capability)
}

func TestSetOverride_UpsertsOnNaturalKey(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	org, _ := s.CreateOrg(ctx, "Org")

	_, err := s.SetOverride(ctx, org.ID, 6, permission.ReportsView, true)
	require.NoError(t, err)
	_, err = s.SetOverride(ctx, org.ID, 6, permission.ReportsView, false)
	require.NoError(t, err)

	ovs, err := s.ListOverrides(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, ovs, 1)
	assert.False(t, ovs[0].Allowed)

	_, err = s.SetOverride(ctx, org.ID, 6, "reports:shred", true)
	assert.ErrorIs(t, err, permission.ErrUnknownCapability)

	removed, err := s.ClearOverride(ctx, org.ID, 6, permission.ReportsView)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.ClearOverride(ctx, org.ID, 6, permission.ReportsView)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPermissionCheck_EndToEnd(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	orgA, _ := s.CreateOrg(ctx, "OrgA")
	orgB, _ := s.CreateOrg(ctx, "OrgB")
	user, _ := s.CreateUser(ctx, "perry@example.com", "Perry")
	require.NoError(t, s.AddOrgMember(ctx, orgA.ID, user.ID, 6))
	require.NoError(t, s.AddOrgMember(ctx, orgB.ID, user.ID, 6))

	checker := permission.NewChecker(permission.NewResolver(permission.DefaultCatalog()), s, s)

	// Never configured: inactive.
	d, err := checker.Authorize(ctx, orgA.ID, user.ID, permission.BookingView)
	require.NoError(t, err)
	assert.Equal(t, permission.Decision{Allowed: false, Source: permission.SourceInactive}, d)

	active := true
	_, err = s.UpdateOrgRole(ctx, orgA.ID, 6, store.RoleUpdate{Active: &active})
	require.NoError(t, err)

	d, err = checker.Authorize(ctx, orgA.ID, user.ID, permission.BookingView)
	require.NoError(t, err)
	assert.Equal(t, permission.Decision{Allowed: true, Source: permission.SourceTemplate}, d)

	_, err = s.SetOverride(ctx, orgA.ID, 6, permission.BookingView, false)
	require.NoError(t, err)
	d, err = checker.Authorize(ctx, orgA.ID, user.ID, permission.BookingView)
	require.NoError(t, err)
	assert.Equal(t, permission.Decision{Allowed: false, Source: permission.SourceOverride}, d)

	// Org B's slot 6 is untouched by org A's configuration.
	d, err = checker.Authorize(ctx, orgB.ID, user.ID, permission.BookingView)
	require.NoError(t, err)
	assert.Equal(t, permission.SourceInactive, d.Source)

	// Deactivating wins over the override.
	inactive := false
	label := "Desk Viewer"
	role, err := s.UpdateOrgRole(ctx, orgA.ID, 6, store.RoleUpdate{Label: &label, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Desk Viewer", role.Label)
	_, err = s.SetOverride(ctx, orgA.ID, 6, permission.SettingsManage, true)
	require.NoError(t, err)
	d, err = checker.Authorize(ctx, orgA.ID, user.ID, permission.SettingsManage)
	require.NoError(t, err)
	assert.Equal(t, permission.Decision{Allowed: false, Source: permission.SourceInactive}, d)
}

func TestSeedRoleTemplates_RoundTrip(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	empty, err := s.LoadRoleTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	want := permission.DefaultCatalog()
	require.NoError(t, s.SeedRoleTemplates(ctx, want))
	require.NoError(t, s.SeedRoleTemplates(ctx, want), "seeding twice must be idempotent")

	templates, err := s.LoadRoleTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, int(permission.MaxSlot))

	got, err := permission.NewCatalog(templates)
	require.NoError(t, err)
	assert.Equal(t, want.Grants(), got.Grants())
	assert.Equal(t, want.Templates(), got.Templates())
}
