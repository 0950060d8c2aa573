// ABOUTME: Integration tests for organizations, users, and the member slot binding.
// ABOUTME: Uses testutil.NewTestDB; each test runs in its own container (t.Parallel).
package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
	"github.com/hassandayeh/NRE-sub001/internal/store"
	"github.com/hassandayeh/NRE-sub001/internal/testutil"
)

func TestCreateOrgAndUser(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	org, err := s.CreateOrg(ctx, "Daily Planet")
	if err != nil {
		t.Fatalf("CreateOrg: %v", err)
	}
	if org.Name != "Daily Planet" || org.ID == uuid.Nil {
		t.Errorf("org = %+v", org)
	}

	u, err := s.CreateUser(ctx, "lois@example.com", "Lois")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "lois@example.com" {
		t.Errorf("user.Email = %q", u.Email)
	}

	_, err = s.CreateUser(ctx, "lois@example.com", "Lois again")
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate email err = %v, want ErrConflict", err)
	}
}

func TestGetMemberSlot(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	orgA, _ := s.CreateOrg(ctx, "OrgA")
	orgB, _ := s.CreateOrg(ctx, "OrgB")
	user, _ := s.CreateUser(ctx, "clark@example.com", "Clark")

	if err := s.AddOrgMember(ctx, orgA.ID, user.ID, 4); err != nil {
		t.Fatalf("AddOrgMember: %v", err)
	}

	slot, err := s.GetMemberSlot(ctx, orgA.ID, user.ID)
	if err != nil {
		t.Fatalf("GetMemberSlot: %v", err)
	}
	if slot == nil || *slot != 4 {
		t.Fatalf("slot = %v, want 4", slot)
	}

	// Memberships are per org.
	other, err := s.GetMemberSlot(ctx, orgB.ID, user.ID)
	if err != nil {
		t.Fatalf("GetMemberSlot(orgB): %v", err)
	}
	if other != nil {
		t.Errorf("GetMemberSlot(orgB) = %v, want nil", *other)
	}

	// Re-adding replaces the slot; a user holds exactly one slot per org.
	if err := s.AddOrgMember(ctx, orgA.ID, user.ID, 2); err != nil {
		t.Fatalf("AddOrgMember(again): %v", err)
	}
	slot, _ = s.GetMemberSlot(ctx, orgA.ID, user.ID)
	if slot == nil || *slot != 2 {
		t.Errorf("slot after rebind = %v, want 2", slot)
	}
}

func TestAddOrgMember_Boundaries(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	org, _ := s.CreateOrg(ctx, "Org")
	user, _ := s.CreateUser(ctx, "jimmy@example.com", "Jimmy")

	if err := s.AddOrgMember(ctx, org.ID, user.ID, 11); !errors.Is(err, permission.ErrSlotOutOfRange) {
		t.Errorf("slot 11 err = %v, want ErrSlotOutOfRange", err)
	}
	if err := s.AddOrgMember(ctx, uuid.New(), user.ID, 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing org err = %v, want ErrNotFound", err)
	}
}
